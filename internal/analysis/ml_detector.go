package analysis

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/helixir/journal-recommender-service/internal/domain"
	"github.com/helixir/journal-recommender-service/internal/openalex"
)

const (
	// DefaultMLTopN is the default number of subfields returned.
	DefaultMLTopN = 5

	// DefaultMLMinConfidence drops subfields below this vote share.
	DefaultMLMinConfidence = 0.05

	// mlSearchTextLimit truncates the search string; longer queries degrade
	// provider full-text search quality.
	mlSearchTextLimit = 1000

	// mlMaxWorks is how many similar works are examined.
	mlMaxWorks = 50

	// mlSecondaryTopicLimit caps the secondary topics counted per work.
	mlSecondaryTopicLimit = 3

	// primaryTopicVoteWeight and secondaryTopicVoteWeight weight subfield votes.
	primaryTopicVoteWeight   = 2
	secondaryTopicVoteWeight = 1

	// mlCacheSize bounds the process-lifetime query cache.
	mlCacheSize = 512
)

// WorksSearcher is the slice of the provider the ML detector needs.
type WorksSearcher interface {
	SearchWorks(ctx context.Context, query string, opts openalex.WorkSearchOptions) (*openalex.WorksResponse, error)
}

// MLAnalysis is the full output of one similar-works pass: detected
// subfields plus the raw works for downstream keyword enrichment.
type MLAnalysis struct {
	// Disciplines are subfields ranked by vote count, descending.
	Disciplines []domain.DetectedDiscipline

	// TopicIDs are distinct topic IDs across the works, most voted first.
	TopicIDs []string

	// Works are the similar works examined.
	Works []openalex.Work
}

// MLDisciplineDetector detects disciplines by aggregating topic
// classifications of bibliographically similar works. Results are cached for
// the process lifetime keyed by an order-insensitive hash of the search text;
// manuscript text rarely repeats, so no TTL is needed.
type MLDisciplineDetector struct {
	provider      WorksSearcher
	topN          int
	minConfidence float64
	cache         *lru.Cache[string, *MLAnalysis]
	logger        zerolog.Logger
}

// NewMLDisciplineDetector creates a detector. Non-positive topN or
// minConfidence fall back to defaults.
func NewMLDisciplineDetector(provider WorksSearcher, topN int, minConfidence float64, logger zerolog.Logger) *MLDisciplineDetector {
	if topN <= 0 {
		topN = DefaultMLTopN
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMLMinConfidence
	}
	cache, _ := lru.New[string, *MLAnalysis](mlCacheSize)
	return &MLDisciplineDetector{
		provider:      provider,
		topN:          topN,
		minConfidence: minConfidence,
		cache:         cache,
		logger:        logger.With().Str("component", "ml_discipline_detector").Logger(),
	}
}

// Analyze runs the similar-works pass for the manuscript. Provider errors
// and zero results yield an empty analysis, never an error: the hybrid layer
// treats that as "insufficient", not "failed".
func (d *MLDisciplineDetector) Analyze(ctx context.Context, title, abstract string, keywords []string) *MLAnalysis {
	searchText := buildSearchText(title, abstract, keywords)
	if searchText == "" {
		return &MLAnalysis{}
	}

	key := searchTextKey(searchText)
	if cached, ok := d.cache.Get(key); ok {
		return cached
	}

	resp, err := d.provider.SearchWorks(ctx, searchText, openalex.WorkSearchOptions{
		PerPage: mlMaxWorks,
		Filters: []string{"type:article|review"},
	})
	if err != nil {
		d.logger.Warn().Err(err).Msg("similar-works search failed, returning empty analysis")
		return &MLAnalysis{}
	}
	if len(resp.Results) == 0 {
		return &MLAnalysis{}
	}

	analysis := d.tallyVotes(resp.Results)
	d.cache.Add(key, analysis)
	return analysis
}

// subfieldVote accumulates votes for one subfield.
type subfieldVote struct {
	ref    openalex.EntityRef
	field  openalex.EntityRef
	domain openalex.EntityRef
	votes  int
	topics []string
}

// tallyVotes aggregates topic classifications across works into ranked
// subfields: primary topics weigh 2, up to 3 secondary topics weigh 1 each.
func (d *MLDisciplineDetector) tallyVotes(works []openalex.Work) *MLAnalysis {
	votes := make(map[string]*subfieldVote)
	topicVotes := make(map[string]int)
	topicOrder := make(map[string]int)

	record := func(t openalex.Topic, weight int) {
		if t.Subfield.ID == "" {
			return
		}
		v, ok := votes[t.Subfield.ID]
		if !ok {
			v = &subfieldVote{ref: t.Subfield, field: t.Field, domain: t.Domain}
			votes[t.Subfield.ID] = v
		}
		v.votes += weight
		if t.DisplayName != "" {
			v.topics = append(v.topics, t.DisplayName)
		}
		if t.ID != "" {
			if _, seen := topicVotes[t.ID]; !seen {
				topicOrder[t.ID] = len(topicOrder)
			}
			topicVotes[t.ID] += weight
		}
	}

	for _, work := range works {
		if work.PrimaryTopic != nil {
			record(*work.PrimaryTopic, primaryTopicVoteWeight)
		}
		secondary := 0
		for _, t := range work.Topics {
			if work.PrimaryTopic != nil && t.ID == work.PrimaryTopic.ID {
				continue
			}
			record(t, secondaryTopicVoteWeight)
			secondary++
			if secondary >= mlSecondaryTopicLimit {
				break
			}
		}
	}

	var total int
	for _, v := range votes {
		total += v.votes
	}
	if total == 0 {
		return &MLAnalysis{Works: works}
	}

	ranked := make([]*subfieldVote, 0, len(votes))
	for _, v := range votes {
		ranked = append(ranked, v)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].votes != ranked[j].votes {
			return ranked[i].votes > ranked[j].votes
		}
		return ranked[i].ref.ID < ranked[j].ref.ID
	})

	disciplines := make([]domain.DetectedDiscipline, 0, d.topN)
	for _, v := range ranked {
		confidence := float64(v.votes) / float64(total)
		if confidence < d.minConfidence {
			continue
		}
		disciplines = append(disciplines, domain.DetectedDiscipline{
			Name:         strings.ToLower(v.ref.DisplayName),
			Confidence:   confidence,
			Evidence:     dedupeStrings(v.topics, 5),
			FieldName:    v.field.DisplayName,
			SubfieldName: v.ref.DisplayName,
			SubfieldID:   openalex.NumericIDFromURL(v.ref.ID),
			DomainName:   v.domain.DisplayName,
			Source:       domain.DisciplineSourceOpenAlexML,
		})
		if len(disciplines) >= d.topN {
			break
		}
	}

	topicIDs := make([]string, 0, len(topicVotes))
	for id := range topicVotes {
		topicIDs = append(topicIDs, id)
	}
	sort.SliceStable(topicIDs, func(i, j int) bool {
		if topicVotes[topicIDs[i]] != topicVotes[topicIDs[j]] {
			return topicVotes[topicIDs[i]] > topicVotes[topicIDs[j]]
		}
		return topicOrder[topicIDs[i]] < topicOrder[topicIDs[j]]
	})
	for i, id := range topicIDs {
		topicIDs[i] = openalex.ShortID(id)
	}

	return &MLAnalysis{
		Disciplines: disciplines,
		TopicIDs:    topicIDs,
		Works:       works,
	}
}

// buildSearchText combines title, abstract and keywords, truncated to the
// provider search-quality limit without cutting mid-word.
func buildSearchText(title, abstract string, keywords []string) string {
	text := strings.TrimSpace(strings.Join(append([]string{title, abstract}, keywords...), " "))
	if len(text) <= mlSearchTextLimit {
		return text
	}
	cut := text[:mlSearchTextLimit]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut
}

// searchTextKey computes an order-insensitive cache key: the hash of the
// sorted word multiset of the truncated search text.
func searchTextKey(searchText string) string {
	words := strings.Fields(strings.ToLower(searchText))
	sort.Strings(words)
	sum := sha256.Sum256([]byte(strings.Join(words, " ")))
	return fmt.Sprintf("%x", sum)
}

// dedupeStrings returns up to max distinct entries, preserving order.
func dedupeStrings(in []string, max int) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) >= max {
			break
		}
	}
	return out
}
