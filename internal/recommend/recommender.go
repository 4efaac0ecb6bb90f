package recommend

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/helixir/journal-recommender-service/internal/domain"
	"github.com/helixir/journal-recommender-service/internal/openalex"
)

const (
	// DefaultMaxResults caps the final result list.
	DefaultMaxResults = 10

	// minAcceptableResults triggers the broadened fallback search when the
	// validated list is shorter.
	minAcceptableResults = 3

	// broadenTargetResults is how far the fallback tops the list up.
	broadenTargetResults = 7

	// broadenTermCount is how many leading search terms the fallback reuses.
	broadenTermCount = 2

	// broadenScore is the fixed relevance assigned to fallback results,
	// deliberately below any normalized primary result.
	broadenScore = 0.25
)

// Config tunes the recommendation pipeline.
type Config struct {
	// MaxResults caps the returned list. <=0 selects DefaultMaxResults.
	MaxResults int

	// MinWorksFloor filters thin venues during merge. <=0 selects
	// DefaultMinWorksFloor.
	MinWorksFloor int

	// UseUniversal enables field-normalized percentile scoring.
	UseUniversal bool
}

func (c *Config) applyDefaults() {
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.MinWorksFloor <= 0 {
		c.MinWorksFloor = DefaultMinWorksFloor
	}
}

// Recommender runs the full journal recommendation pipeline over a finished
// manuscript analysis: retrieve, merge, score, validate, and broaden when
// the result list comes up short.
type Recommender struct {
	cfg        Config
	provider   Provider
	retriever  *Retriever
	merger     *Merger
	scorer     *Scorer
	fieldStats *FieldStats
	validator  *Validator
	logger     zerolog.Logger
}

// New assembles the pipeline.
func New(cfg Config, provider Provider, logger zerolog.Logger) *Recommender {
	cfg.applyDefaults()
	return &Recommender{
		cfg:        cfg,
		provider:   provider,
		retriever:  NewRetriever(provider, logger),
		merger:     NewMerger(provider, cfg.MinWorksFloor, logger),
		scorer:     NewScorer(ScorerConfig{UseUniversal: cfg.UseUniversal}, NewCoreJournals(), logger),
		fieldStats: NewFieldStats(provider, logger),
		validator:  NewValidator(logger),
		logger:     logger.With().Str("component", "recommender").Logger(),
	}
}

// Recommend produces a ranked journal list for an analyzed manuscript.
// Strategy failures degrade the candidate pool rather than failing the
// request; an empty pool after the broadened fallback returns
// ErrInsufficientData.
func (r *Recommender) Recommend(ctx context.Context, analysis *domain.AnalysisResult) ([]domain.Journal, error) {
	works := r.retriever.WorksBased(ctx, analysis.SearchTerms)
	direct := r.retriever.DirectSource(ctx, analysis.SearchTerms)
	topic := r.retriever.TopicAggregation(ctx, analysis.TopicIDs)
	subfield := r.retriever.SubfieldBased(ctx, analysis.Disciplines, analysis.SearchTerms)

	r.logger.Debug().
		Int("works_based", len(works)).Int("direct_source", len(direct)).
		Int("topic_agg", len(topic)).Int("subfield", len(subfield)).
		Msg("retrieval strategies complete")

	merged := r.merger.Merge(ctx, works, direct, topic, subfield)
	r.merger.Hydrate(ctx, merged)

	var stats *domain.SubfieldStats
	if r.cfg.UseUniversal {
		if primary, ok := analysis.PrimaryDiscipline(); ok && primary.SubfieldID != 0 {
			stats = r.fieldStats.Get(ctx, primary.SubfieldID)
		}
	}

	journals := r.scorer.Score(merged, analysis, stats)
	journals = r.validator.Validate(journals, analysis)

	if len(journals) < minAcceptableResults {
		journals = r.broaden(ctx, analysis, journals)
	}
	if len(journals) == 0 {
		return nil, domain.ErrInsufficientData
	}

	if len(journals) > r.cfg.MaxResults {
		journals = journals[:r.cfg.MaxResults]
	}
	return journals, nil
}

// broaden tops up a thin result list with a generic venue search over the
// leading terms. Fallback results are appended after the primary list with
// a fixed low score and an explicit tag, never displacing a primary result.
func (r *Recommender) broaden(ctx context.Context, analysis *domain.AnalysisResult, journals []domain.Journal) []domain.Journal {
	seen := make(map[string]bool, len(journals))
	for _, j := range journals {
		seen[j.ID] = true
	}

	for _, term := range topTerms(analysis.SearchTerms, broadenTermCount) {
		if len(journals) >= broadenTargetResults {
			break
		}
		resp, err := r.provider.SearchSources(ctx, term, directSourceLimit)
		if err != nil {
			r.logger.Warn().Err(err).Str("term", term).Msg("broadened search failed")
			continue
		}
		for i := range resp.Results {
			if len(journals) >= broadenTargetResults {
				break
			}
			src := &resp.Results[i]
			if src.Type != "journal" {
				continue
			}
			j := openalex.SourceToJournal(src)
			if j == nil || seen[j.ID] {
				continue
			}
			seen[j.ID] = true
			j.RelevanceScore = broadenScore
			j.MatchReason = "broader search result"
			journals = append(journals, *j)
		}
	}

	if len(journals) > 0 {
		r.logger.Info().Int("results", len(journals)).Msg("broadened fallback applied")
	}
	return journals
}
