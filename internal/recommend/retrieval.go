// Package recommend implements journal discovery and ranking: multi-strategy
// candidate retrieval against the bibliographic provider, merge and dedup
// with cumulative boosts, multi-factor relevance scoring with a
// field-normalized variant, dynamic subfield statistics, and post-hoc topic
// relevance validation.
package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/journal-recommender-service/internal/domain"
	"github.com/helixir/journal-recommender-service/internal/openalex"
)

const (
	// retrievalTermCount is how many top search terms drive the works-based
	// and direct-source strategies.
	retrievalTermCount = 5

	// worksPerPage and worksPages bound the works-based scan: up to 400
	// works across 2 pages.
	worksPerPage = 200
	worksPages   = 2

	// directSourceLimit bounds venue results per direct-source query.
	directSourceLimit = 25

	// topicFilterLimit is how many top topic IDs the aggregation strategy
	// filters by.
	topicFilterLimit = 5

	// subfieldDisciplineLimit bounds the subfield strategy to the primary
	// discipline plus its top secondary disciplines.
	subfieldDisciplineLimit = 5

	// groupBucketLimit bounds how many aggregation buckets are kept per
	// group-by call.
	groupBucketLimit = 40
)

// specializedTerms are narrow venue-signaling terms searched when they also
// appear in the manuscript's own search terms.
var specializedTerms = []string{
	"infancy", "diabetes", "pediatric", "geriatric", "oncology",
	"cardiology", "neurosurgery", "psychiatry", "epilepsy", "dementia",
	"autism", "obesity", "stroke", "transplant", "vaccine",
}

// Provider is the slice of the bibliographic API the retrieval and scoring
// layers need.
type Provider interface {
	SearchWorks(ctx context.Context, query string, opts openalex.WorkSearchOptions) (*openalex.WorksResponse, error)
	SearchSources(ctx context.Context, query string, perPage int) (*openalex.SourcesResponse, error)
	GetSource(ctx context.Context, id string) (*openalex.Source, error)
	GroupWorksBySource(ctx context.Context, filters []string) ([]openalex.GroupCount, error)
}

// Candidate is one retrieved journal candidate with its strategy evidence.
// The full source record is attached on hydration.
type Candidate struct {
	// ID is the short provider source ID.
	ID string

	// Name is the venue display name known at retrieval time.
	Name string

	// Hits counts supporting evidence (matching works or buckets).
	Hits int

	// Score is the merge-phase prior, set by the merge step.
	Score float64

	// MatchReason summarizes the strategy that found the candidate.
	MatchReason string

	// MatchDetails lists individual signals.
	MatchDetails []string

	// Source is the hydrated full record, nil until hydration.
	Source *openalex.Source
}

// CandidateMap maps short source IDs to candidates.
type CandidateMap map[string]*Candidate

// Retriever runs the four retrieval strategies. Strategies are read-only
// and independent; they execute sequentially with per-strategy error
// isolation, a provider failure yielding an empty map for that strategy.
type Retriever struct {
	provider Provider
	logger   zerolog.Logger
}

// NewRetriever creates a retriever over the given provider.
func NewRetriever(provider Provider, logger zerolog.Logger) *Retriever {
	return &Retriever{
		provider: provider,
		logger:   logger.With().Str("component", "retriever").Logger(),
	}
}

// WorksBased searches the works index with the top extracted terms and
// tallies which journals host the matching papers. Only "journal"-typed
// venues are counted.
func (r *Retriever) WorksBased(ctx context.Context, terms []string) CandidateMap {
	candidates := make(CandidateMap)
	query := strings.Join(topTerms(terms, retrievalTermCount), " ")
	if query == "" {
		return candidates
	}

	for page := 1; page <= worksPages; page++ {
		resp, err := r.provider.SearchWorks(ctx, query, openalex.WorkSearchOptions{
			PerPage: worksPerPage,
			Page:    page,
			Filters: []string{"type:article|review"},
		})
		if err != nil {
			r.logger.Warn().Err(err).Int("page", page).Msg("works-based retrieval failed")
			return candidates
		}
		for _, work := range resp.Results {
			if work.PrimaryLocation == nil || work.PrimaryLocation.Source == nil {
				continue
			}
			src := work.PrimaryLocation.Source
			if src.Type != "journal" || src.ID == "" {
				continue
			}
			id := openalex.ShortID(src.ID)
			c, ok := candidates[id]
			if !ok {
				c = &Candidate{
					ID:          id,
					Name:        src.DisplayName,
					MatchReason: "hosts works matching search terms",
				}
				candidates[id] = c
			}
			c.Hits++
		}
		if len(resp.Results) < worksPerPage {
			break
		}
	}
	return candidates
}

// DirectSource searches the venues index directly by the same terms,
// catching specialized journals whose name matches but that rarely host
// generic-topic papers.
func (r *Retriever) DirectSource(ctx context.Context, terms []string) CandidateMap {
	candidates := make(CandidateMap)
	for _, term := range topTerms(terms, retrievalTermCount) {
		resp, err := r.provider.SearchSources(ctx, term, directSourceLimit)
		if err != nil {
			r.logger.Warn().Err(err).Str("term", term).Msg("direct-source retrieval failed")
			continue
		}
		for i := range resp.Results {
			src := &resp.Results[i]
			if src.Type != "journal" || src.ID == "" {
				continue
			}
			id := openalex.ShortID(src.ID)
			c, ok := candidates[id]
			if !ok {
				c = &Candidate{
					ID:          id,
					Name:        src.DisplayName,
					MatchReason: fmt.Sprintf("venue name matches %q", term),
					Source:      src,
				}
				candidates[id] = c
			}
			c.Hits++
			c.MatchDetails = append(c.MatchDetails, "name match: "+term)
		}
	}
	return candidates
}

// TopicAggregation groups the works index by hosting venue, filtered to the
// top ML-detected topic IDs. This is a server-side aggregation, not a
// client-side scan.
func (r *Retriever) TopicAggregation(ctx context.Context, topicIDs []string) CandidateMap {
	candidates := make(CandidateMap)
	topics := topTerms(topicIDs, topicFilterLimit)
	if len(topics) == 0 {
		return candidates
	}

	filter := "topics.id:" + strings.Join(topics, "|")
	buckets, err := r.provider.GroupWorksBySource(ctx, []string{filter})
	if err != nil {
		r.logger.Warn().Err(err).Msg("topic aggregation retrieval failed")
		return candidates
	}

	for i, bucket := range buckets {
		if i >= groupBucketLimit {
			break
		}
		if bucket.Key == "" {
			continue
		}
		id := openalex.ShortID(bucket.Key)
		candidates[id] = &Candidate{
			ID:          id,
			Name:        bucket.KeyDisplayName,
			Hits:        bucket.Count,
			MatchReason: "publishes in detected topics",
		}
	}
	return candidates
}

// SubfieldBased retrieves candidates for the primary discipline and its top
// secondary disciplines: a precise numeric-subfield aggregation when the
// discipline carries a provider-stable ID, a name-based venue search
// otherwise, plus free-text searches on significant subfield-name words and
// on specialized terms present in the manuscript's own search terms.
func (r *Retriever) SubfieldBased(ctx context.Context, disciplines []domain.DetectedDiscipline, searchTerms []string) CandidateMap {
	candidates := make(CandidateMap)

	limit := len(disciplines)
	if limit > subfieldDisciplineLimit {
		limit = subfieldDisciplineLimit
	}

	for _, disc := range disciplines[:limit] {
		if disc.SubfieldID != 0 {
			r.subfieldAggregation(ctx, disc, candidates)
		} else {
			r.subfieldNameSearch(ctx, disc.Name, candidates)
		}
		for _, word := range significantWords(disc.SubfieldName) {
			r.subfieldNameSearch(ctx, word, candidates)
		}
	}

	// Specialized narrow terms, only when the manuscript itself uses them.
	termSet := make(map[string]bool, len(searchTerms))
	for _, t := range searchTerms {
		for _, w := range strings.Fields(t) {
			termSet[w] = true
		}
	}
	for _, special := range specializedTerms {
		if termSet[special] {
			r.subfieldNameSearch(ctx, special, candidates)
		}
	}

	return candidates
}

// subfieldAggregation groups works by venue within one numeric subfield.
func (r *Retriever) subfieldAggregation(ctx context.Context, disc domain.DetectedDiscipline, candidates CandidateMap) {
	filter := fmt.Sprintf("topics.subfield.id:%d", disc.SubfieldID)
	buckets, err := r.provider.GroupWorksBySource(ctx, []string{filter})
	if err != nil {
		r.logger.Warn().Err(err).Int("subfield_id", disc.SubfieldID).Msg("subfield aggregation failed")
		return
	}
	for i, bucket := range buckets {
		if i >= groupBucketLimit {
			break
		}
		if bucket.Key == "" {
			continue
		}
		id := openalex.ShortID(bucket.Key)
		c, ok := candidates[id]
		if !ok {
			c = &Candidate{
				ID:          id,
				Name:        bucket.KeyDisplayName,
				MatchReason: fmt.Sprintf("publishes in subfield %s", disc.SubfieldName),
			}
			candidates[id] = c
		}
		c.Hits += bucket.Count
	}
}

// subfieldNameSearch adds venues matching a free-text query.
func (r *Retriever) subfieldNameSearch(ctx context.Context, query string, candidates CandidateMap) {
	if query == "" {
		return
	}
	resp, err := r.provider.SearchSources(ctx, query, directSourceLimit)
	if err != nil {
		r.logger.Warn().Err(err).Str("query", query).Msg("subfield name search failed")
		return
	}
	for i := range resp.Results {
		src := &resp.Results[i]
		if src.Type != "journal" || src.ID == "" {
			continue
		}
		id := openalex.ShortID(src.ID)
		c, ok := candidates[id]
		if !ok {
			c = &Candidate{
				ID:          id,
				Name:        src.DisplayName,
				MatchReason: fmt.Sprintf("venue matches discipline term %q", query),
				Source:      src,
			}
			candidates[id] = c
		}
		c.Hits++
	}
}

// topTerms returns up to n leading non-empty terms.
func topTerms(terms []string, n int) []string {
	out := make([]string, 0, n)
	for _, t := range terms {
		if t == "" {
			continue
		}
		out = append(out, t)
		if len(out) >= n {
			break
		}
	}
	return out
}

// significantWords extracts words of length >3 from a display name,
// lowercased, excluding generic taxonomy words.
func significantWords(name string) []string {
	skip := map[string]bool{
		"general": true, "miscellaneous": true, "science": true,
		"sciences": true, "studies": true, "research": true, "medicine": true,
	}
	var out []string
	for _, w := range strings.Fields(strings.ToLower(name)) {
		w = strings.Trim(w, ",()")
		if len(w) <= 3 || skip[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}
