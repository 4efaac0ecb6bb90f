package recommend

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/journal-recommender-service/internal/domain"
	"github.com/helixir/journal-recommender-service/internal/openalex"
)

const (
	// mergePriorWeight amplifies the merge prior against the content boosts
	// so corroboration across retrieval strategies dominates ranking.
	mergePriorWeight = 10.0

	// Heuristic scoring boosts, applied on top of the weighted merge prior.
	keywordMatchBoost   = 1.0
	topicMatchBoost     = 1.0
	crossCoverageBoost  = 0.5
	articleTypeFitBoost = 0.75
	coreJournalBoost    = 1.5
	openAccessBoost     = 0.5

	// Universal-variant weights over field-normalized percentiles.
	universalHIndexWeight    = 0.3
	universalCitednessWeight = 0.7
	universalOABonus         = 5.0
)

// ScorerConfig selects the scoring variant and preference handling.
type ScorerConfig struct {
	// UseUniversal replaces the heuristic metric boosts with
	// field-normalized percentile scoring when subfield stats are available.
	UseUniversal bool
}

// Scorer converts hydrated candidates into ranked domain journals.
type Scorer struct {
	cfg    ScorerConfig
	core   *CoreJournals
	logger zerolog.Logger
}

// NewScorer creates a scorer. core may be nil to disable the curated boost.
func NewScorer(cfg ScorerConfig, core *CoreJournals, logger zerolog.Logger) *Scorer {
	return &Scorer{
		cfg:    cfg,
		core:   core,
		logger: logger.With().Str("component", "scorer").Logger(),
	}
}

// Score converts candidates to journals and ranks them. stats may be nil;
// the universal variant then falls back to the heuristic factors. The
// returned slice is sorted (open-access preference first when requested,
// then relevance, then h-index) and max-normalized so the top journal
// scores 1.0.
func (s *Scorer) Score(candidates CandidateMap, analysis *domain.AnalysisResult, stats *domain.SubfieldStats) []domain.Journal {
	journals := make([]domain.Journal, 0, len(candidates))

	for _, c := range candidates {
		j := openalex.SourceToJournal(c.Source)
		if j == nil {
			continue
		}
		j.MatchReason = c.MatchReason
		j.MatchDetails = append(j.MatchDetails, c.MatchDetails...)

		score := c.Score * mergePriorWeight
		score += s.signalBoosts(j, analysis)

		if s.cfg.UseUniversal && stats != nil {
			score += s.universalScore(j, stats) / 100
		} else {
			score += metricHeuristic(j)
		}

		j.RelevanceScore = score
		journals = append(journals, *j)
	}

	preferOA := analysis.Query.PreferOpenAccess
	sort.Slice(journals, func(i, k int) bool {
		a, b := journals[i], journals[k]
		if preferOA && a.IsOpenAccess != b.IsOpenAccess {
			return a.IsOpenAccess
		}
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if a.Metrics.HIndex != b.Metrics.HIndex {
			return a.Metrics.HIndex > b.Metrics.HIndex
		}
		return a.Name < b.Name
	})

	normalizeScores(journals)
	return journals
}

// signalBoosts applies the content-match factors shared by both variants.
func (s *Scorer) signalBoosts(j *domain.Journal, analysis *domain.AnalysisResult) float64 {
	var boost float64
	topicsText := strings.ToLower(strings.Join(j.Topics, " "))
	nameText := strings.ToLower(j.Name)

	if kw, ok := matchKeyword(topicsText, nameText, analysis.Keywords); ok {
		boost += keywordMatchBoost
		j.MatchDetails = append(j.MatchDetails, "keyword match: "+kw)
	}

	matched := 0
	for _, disc := range analysis.Disciplines {
		if disciplineMatches(topicsText, nameText, disc) {
			matched++
		}
	}
	if matched > 0 {
		boost += topicMatchBoost
	}
	if matched >= 2 {
		boost += crossCoverageBoost
		j.MatchDetails = append(j.MatchDetails, "covers multiple detected disciplines")
	}

	if articleTypeFits(nameText, analysis.ArticleType) {
		boost += articleTypeFitBoost
		j.MatchDetails = append(j.MatchDetails, "venue type fits "+analysis.ArticleType.TypeID)
	}

	if s.core != nil && s.core.Contains(analysis.Disciplines, j.Name) {
		boost += coreJournalBoost
		j.MatchDetails = append(j.MatchDetails, "core journal for detected discipline")
	}

	if analysis.Query.PreferOpenAccess && j.IsOpenAccess {
		boost += openAccessBoost
	}
	return boost
}

// universalScore is the field-normalized variant: a weighted combination of
// the journal's h-index and citedness percentiles within its subfield, plus
// a flat open-access bonus. The result is on a 0-100 scale.
func (s *Scorer) universalScore(j *domain.Journal, stats *domain.SubfieldStats) float64 {
	hPct := CalculatePercentileScore(float64(j.Metrics.HIndex),
		stats.HIndexMedian, stats.HIndexP75, stats.HIndexP90)
	cPct := CalculatePercentileScore(j.Metrics.TwoYrMeanCitedness,
		stats.CitednessMedian, stats.CitednessP75, stats.CitednessP90)

	score := universalHIndexWeight*hPct + universalCitednessWeight*cPct
	if j.IsOpenAccess {
		score += universalOABonus
	}
	if score > 100 {
		score = 100
	}
	return score
}

// CalculatePercentileScore maps a metric value onto a 0-100 percentile scale
// given the subfield's median, 75th and 90th percentile anchors. Below the
// median the score is linear into [0,50]; between anchors it interpolates
// into [50,75] and [75,90]; above the 90th percentile it extrapolates past
// 90, capped at 100.
func CalculatePercentileScore(value, median, p75, p90 float64) float64 {
	switch {
	case value <= 0 || median <= 0:
		return 0
	case value < median:
		return 50 * value / median
	case p75 <= median:
		// Degenerate anchors; the upper bands cannot discriminate.
		return 50
	case value <= p75:
		return 50 + 25*(value-median)/(p75-median)
	case value <= p90:
		if p90 <= p75 {
			return 75
		}
		return 75 + 15*(value-p75)/(p90-p75)
	default:
		if p90 <= 0 {
			return 90
		}
		score := 90 + 10*(value-p90)/p90
		if score > 100 {
			score = 100
		}
		return score
	}
}

// metricHeuristic is the non-normalized prestige contribution used when no
// subfield stats are available. Kept deliberately small relative to the
// content-match boosts.
func metricHeuristic(j *domain.Journal) float64 {
	switch j.Category {
	case domain.CategoryTopTier:
		return 0.5
	case domain.CategoryBroadAudience:
		return 0.3
	case domain.CategoryNiche:
		return 0.15
	default:
		return 0
	}
}

func matchKeyword(topicsText, nameText string, keywords []domain.RankedKeyword) (string, bool) {
	for _, kw := range keywords {
		if len(kw.Text) < 4 {
			continue
		}
		if strings.Contains(topicsText, kw.Text) || strings.Contains(nameText, kw.Text) {
			return kw.Text, true
		}
	}
	return "", false
}

func disciplineMatches(topicsText, nameText string, disc domain.DetectedDiscipline) bool {
	name := strings.ToLower(strings.ReplaceAll(disc.Name, "_", " "))
	if name != "" && (strings.Contains(topicsText, name) || strings.Contains(nameText, name)) {
		return true
	}
	sub := strings.ToLower(disc.SubfieldName)
	return sub != "" && strings.Contains(topicsText, sub)
}

// articleTypeFits checks venue-name conventions against the manuscript type:
// review manuscripts fit "review"-named venues, case reports fit venues
// carrying "case reports" or "clinical" terms.
func articleTypeFits(nameText string, at domain.DetectedArticleType) bool {
	switch {
	case strings.Contains(at.TypeID, "review"):
		return strings.Contains(nameText, "review")
	case at.TypeID == "case_report":
		return strings.Contains(nameText, "case report") || strings.Contains(nameText, "clinical")
	case at.TypeID == "methodology":
		return strings.Contains(nameText, "methods") || strings.Contains(nameText, "protocols")
	default:
		return false
	}
}

// normalizeScores rescales relevance so the best journal scores 1.0.
func normalizeScores(journals []domain.Journal) {
	var max float64
	for i := range journals {
		if journals[i].RelevanceScore > max {
			max = journals[i].RelevanceScore
		}
	}
	if max <= 0 {
		return
	}
	for i := range journals {
		journals[i].RelevanceScore /= max
	}
}
