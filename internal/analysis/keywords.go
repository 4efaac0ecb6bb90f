package analysis

import (
	"sort"

	"github.com/helixir/journal-recommender-service/internal/domain"
	"github.com/helixir/journal-recommender-service/internal/openalex"
)

const (
	// DefaultKeywordMinFrequency drops terms seen in fewer works.
	DefaultKeywordMinFrequency = 2

	// DefaultMaxKeywords truncates the final ranked list.
	DefaultMaxKeywords = 15

	// topicSourceBonus rewards keywords sourced from topic names.
	topicSourceBonus = 0.2

	// userKeywordBoost is added to an extracted keyword's score when the
	// user also supplied it.
	userKeywordBoost = 0.3

	// userKeywordScore seeds a user keyword absent from the corpus.
	userKeywordScore = 0.9

	// conceptHighLevelMax is the deepest concept level still considered a
	// broad field hint.
	conceptHighLevelMax = 1
)

// ConceptHints partitions legacy concept names by taxonomy level:
// high-level entries hint at broad fields, specific entries at methodology.
type ConceptHints struct {
	HighLevel []string
	Specific  []string
}

// KeywordEnricher extracts and ranks keywords from a similar-works corpus
// and merges them with user-supplied keywords.
type KeywordEnricher struct {
	minFrequency int
	maxKeywords  int
}

// NewKeywordEnricher creates an enricher. Non-positive parameters fall back
// to defaults.
func NewKeywordEnricher(minFrequency, maxKeywords int) *KeywordEnricher {
	if minFrequency <= 0 {
		minFrequency = DefaultKeywordMinFrequency
	}
	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywords
	}
	return &KeywordEnricher{minFrequency: minFrequency, maxKeywords: maxKeywords}
}

// tallied accumulates one candidate keyword across the corpus.
type tallied struct {
	text      string
	frequency int
	source    domain.KeywordSource
	fromTopic bool
}

// Extract tallies keyword candidates from each work's topic names,
// provider-native keywords, and legacy concept names, then scores by
// corpus frequency. Terms below the minimum frequency or in the stopword set
// are dropped.
func (e *KeywordEnricher) Extract(works []openalex.Work) []domain.RankedKeyword {
	if len(works) == 0 {
		return nil
	}

	tallies := make(map[string]*tallied)
	var order []string

	record := func(raw string, source domain.KeywordSource) {
		norm := domain.NormalizeKeyword(raw)
		if norm == "" || stopwords[norm] {
			return
		}
		t, ok := tallies[norm]
		if !ok {
			t = &tallied{text: norm, source: source}
			tallies[norm] = t
			order = append(order, norm)
		}
		t.frequency++
		if source == domain.KeywordSourceTopic {
			t.fromTopic = true
		}
	}

	for _, work := range works {
		primaryID := ""
		if work.PrimaryTopic != nil {
			primaryID = work.PrimaryTopic.ID
			record(work.PrimaryTopic.DisplayName, domain.KeywordSourceTopic)
		}
		for _, t := range work.Topics {
			// The topic list repeats the primary topic; counting it twice
			// per work would inflate frequency past the corpus size.
			if primaryID != "" && t.ID == primaryID {
				continue
			}
			record(t.DisplayName, domain.KeywordSourceTopic)
		}
		for _, kw := range work.Keywords {
			record(kw.DisplayName, domain.KeywordSourceKeyword)
		}
		for _, c := range work.Concepts {
			record(c.DisplayName, domain.KeywordSourceConcept)
		}
	}

	examined := float64(len(works))
	var ranked []domain.RankedKeyword
	for _, key := range order {
		t := tallies[key]
		if t.frequency < e.minFrequency {
			continue
		}
		score := float64(t.frequency) / examined
		if t.fromTopic {
			score += topicSourceBonus
		}
		ranked = append(ranked, domain.RankedKeyword{
			Text:      t.text,
			Score:     score,
			Frequency: t.frequency,
			Source:    t.source,
		})
	}

	sortKeywords(ranked)
	return ranked
}

// MergeUserKeywords folds author-supplied keywords into the extracted list:
// an existing match gets its score boosted (+0.3, clamped to 1.0) and its
// source switched to user; a new keyword is injected at score 0.9. The
// result is re-sorted so user keywords outrank extracted ones.
func (e *KeywordEnricher) MergeUserKeywords(extracted []domain.RankedKeyword, userKeywords []string) []domain.RankedKeyword {
	merged := append([]domain.RankedKeyword{}, extracted...)
	index := make(map[string]int, len(merged))
	for i, kw := range merged {
		index[kw.Text] = i
	}

	for _, raw := range userKeywords {
		norm := domain.NormalizeKeyword(raw)
		if norm == "" {
			continue
		}
		if i, ok := index[norm]; ok {
			boosted := merged[i].Score + userKeywordBoost
			if boosted > 1.0 {
				boosted = 1.0
			}
			merged[i].Score = boosted
			merged[i].Source = domain.KeywordSourceUser
			continue
		}
		index[norm] = len(merged)
		merged = append(merged, domain.RankedKeyword{
			Text:      norm,
			Score:     userKeywordScore,
			Frequency: 1,
			Source:    domain.KeywordSourceUser,
		})
	}

	sortKeywords(merged)
	return merged
}

// Rank applies the final filter: stopword-only or ultra-short terms are
// discarded and the list is truncated to the configured maximum.
func (e *KeywordEnricher) Rank(keywords []domain.RankedKeyword) []domain.RankedKeyword {
	var out []domain.RankedKeyword
	for _, kw := range keywords {
		if len(kw.Text) < 3 || stopwords[kw.Text] {
			continue
		}
		out = append(out, kw)
		if len(out) >= e.maxKeywords {
			break
		}
	}
	return out
}

// ConceptHints aggregates legacy concept names across the corpus,
// partitioned by hierarchy level into broad field hints and methodology
// hints.
func (e *KeywordEnricher) ConceptHints(works []openalex.Work) ConceptHints {
	counts := make(map[string]int)
	levels := make(map[string]int)
	var order []string

	for _, work := range works {
		for _, c := range work.Concepts {
			norm := domain.NormalizeKeyword(c.DisplayName)
			if norm == "" || stopwords[norm] {
				continue
			}
			if _, seen := counts[norm]; !seen {
				order = append(order, norm)
				levels[norm] = c.Level
			}
			counts[norm]++
		}
	}

	var hints ConceptHints
	for _, name := range order {
		if counts[name] < e.minFrequency {
			continue
		}
		if levels[name] <= conceptHighLevelMax {
			hints.HighLevel = append(hints.HighLevel, name)
		} else {
			hints.Specific = append(hints.Specific, name)
		}
	}
	return hints
}

// sortKeywords orders user-sourced keywords first, then by score descending
// with a deterministic text tie-break.
func sortKeywords(keywords []domain.RankedKeyword) {
	sort.SliceStable(keywords, func(i, j int) bool {
		iUser := keywords[i].Source == domain.KeywordSourceUser
		jUser := keywords[j].Source == domain.KeywordSourceUser
		if iUser != jUser {
			return iUser
		}
		if keywords[i].Score != keywords[j].Score {
			return keywords[i].Score > keywords[j].Score
		}
		return keywords[i].Text < keywords[j].Text
	})
}
