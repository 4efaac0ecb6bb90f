package analysis

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/helixir/journal-recommender-service/internal/domain"
	"github.com/helixir/journal-recommender-service/internal/llm"
)

const (
	// llmKeywordScore is the score assigned to keywords added by enrichment.
	llmKeywordScore = 0.5

	// llmDisciplineConfidence is the confidence assigned to secondary
	// disciplines added by enrichment.
	llmDisciplineConfidence = 0.6

	// llmMaxKeywords caps the keywords requested from the model.
	llmMaxKeywords = 8
)

// AnalyzerConfig configures the smart analyzer.
type AnalyzerConfig struct {
	// EnableLLM allows LLM enrichment when triggers warrant it.
	EnableLLM bool
}

// AnalyzeOptions are per-call options.
type AnalyzeOptions struct {
	// SkipLLM suppresses LLM enrichment for this call regardless of
	// triggers.
	SkipLLM bool
}

// SmartAnalyzer sequences the analysis components into one result: term
// extraction, similar-works topic analysis, discipline detection, keyword
// enrichment, confidence scoring, trigger detection, and conditional LLM
// enrichment. All collaborators are injected; the analyzer owns no global
// state.
type SmartAnalyzer struct {
	cfg      AnalyzerConfig
	terms    *TermExtractor
	ml       *MLDisciplineDetector
	hybrid   *HybridDisciplineDetector
	enricher *KeywordEnricher
	scorer   *ConfidenceScorer
	triggers *TriggerDetector
	llm      llm.Enricher
	logger   zerolog.Logger
}

// NewSmartAnalyzer creates a smart analyzer. The llm enricher may be nil,
// which disables enrichment regardless of configuration.
func NewSmartAnalyzer(
	cfg AnalyzerConfig,
	terms *TermExtractor,
	ml *MLDisciplineDetector,
	hybrid *HybridDisciplineDetector,
	enricher *KeywordEnricher,
	scorer *ConfidenceScorer,
	triggers *TriggerDetector,
	llmEnricher llm.Enricher,
	logger zerolog.Logger,
) *SmartAnalyzer {
	return &SmartAnalyzer{
		cfg:      cfg,
		terms:    terms,
		ml:       ml,
		hybrid:   hybrid,
		enricher: enricher,
		scorer:   scorer,
		triggers: triggers,
		llm:      llmEnricher,
		logger:   logger.With().Str("component", "smart_analyzer").Logger(),
	}
}

// Analyze runs the full analysis pipeline for one manuscript. It never
// fails: collaborator errors degrade to partial data and the result is
// always usable for retrieval.
func (a *SmartAnalyzer) Analyze(ctx context.Context, query domain.ManuscriptQuery, opts AnalyzeOptions) *domain.AnalysisResult {
	result := &domain.AnalysisResult{Query: query}

	// 1. Search terms.
	result.SearchTerms = a.terms.Extract(query.Title, query.Abstract, query.UserKeywords)

	// 2. Similar-works topic analysis. The hybrid detector below reuses
	// these provider calls through the detector's cache.
	mlAnalysis := a.ml.Analyze(ctx, query.Title, query.Abstract, query.UserKeywords)
	result.TopicIDs = mlAnalysis.TopicIDs
	result.WorksAnalyzed = len(mlAnalysis.Works)

	// 3. Discipline detection.
	result.Disciplines = a.hybrid.Detect(ctx, query.Title, query.Abstract, query.UserKeywords)

	// 4. Keyword enrichment from the similar-works corpus.
	extracted := a.enricher.Extract(mlAnalysis.Works)
	merged := a.enricher.MergeUserKeywords(extracted, query.UserKeywords)
	result.Keywords = a.enricher.Rank(merged)

	// 5. Confidence scoring.
	primaryConfidence := 0.0
	if primary, ok := result.PrimaryDiscipline(); ok {
		primaryConfidence = primary.Confidence
	}
	result.Confidence = a.scorer.Score(
		len(result.TopicIDs),
		result.WorksAnalyzed,
		result.Keywords,
		primaryConfidence,
		len(result.Disciplines),
	)

	// 6. Trigger detection. The decision here is recomputed from trigger
	// activations and may disagree with the confidence scorer's own flag;
	// both are preserved on the result.
	result.Triggers = a.triggers.Evaluate(TriggerInput{
		Title:             query.Title,
		Abstract:          query.Abstract,
		OverallConfidence: result.Confidence.Overall,
		DisciplineCount:   len(result.Disciplines),
		TopicCount:        len(result.TopicIDs),
	})

	// 7. Conditional LLM enrichment.
	if a.shouldEnrich(result, opts) {
		a.enrichWithLLM(ctx, result)
	}

	return result
}

// shouldEnrich decides whether to invoke the LLM for this analysis.
func (a *SmartAnalyzer) shouldEnrich(result *domain.AnalysisResult, opts AnalyzeOptions) bool {
	if !a.cfg.EnableLLM || a.llm == nil || opts.SkipLLM {
		return false
	}
	return a.triggers.ShouldUseLLM(result.Triggers)
}

// enrichWithLLM calls the LLM enricher and folds its additions into the
// result. Failure degrades gracefully: the pre-enrichment result is kept
// and a structured error note attached, never an error to the caller.
func (a *SmartAnalyzer) enrichWithLLM(ctx context.Context, result *domain.AnalysisResult) {
	existing := make([]string, 0, len(result.Keywords))
	for _, kw := range result.Keywords {
		existing = append(existing, kw.Text)
	}
	disciplines := make([]string, 0, len(result.Disciplines))
	for _, d := range result.Disciplines {
		disciplines = append(disciplines, d.Name)
	}

	enrichment, err := a.llm.Enrich(ctx, llm.EnrichmentRequest{
		Title:       result.Query.Title,
		Abstract:    result.Query.Abstract,
		Keywords:    existing,
		Disciplines: disciplines,
		Mode:        llm.ModePaperAnalysis,
		MaxKeywords: llmMaxKeywords,
	})
	if err != nil {
		a.logger.Warn().Err(err).Msg("llm enrichment failed, keeping pre-enrichment result")
		failure := EnrichmentFailure(err)
		result.Enrichment = &failure
		return
	}

	result.LLMUsed = true
	note := &domain.EnrichmentNote{Applied: true}

	// Add new keywords, deduped case-insensitively.
	seen := make(map[string]bool, len(result.Keywords))
	for _, kw := range result.Keywords {
		seen[kw.Text] = true
	}
	for _, raw := range enrichment.Keywords {
		norm := domain.NormalizeKeyword(raw)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		result.Keywords = append(result.Keywords, domain.RankedKeyword{
			Text:      norm,
			Score:     llmKeywordScore,
			Frequency: 1,
			Source:    domain.KeywordSourceLLM,
		})
		note.AddedKeywords = append(note.AddedKeywords, norm)
	}

	// Add secondary disciplines with synthetic IDs.
	known := make(map[string]bool, len(result.Disciplines))
	for _, d := range result.Disciplines {
		known[d.Name] = true
	}
	for _, raw := range enrichment.Disciplines {
		name := domain.NormalizeKeyword(raw)
		if name == "" || known[name] {
			continue
		}
		known[name] = true
		result.Disciplines = append(result.Disciplines, domain.DetectedDiscipline{
			Name:       name,
			Confidence: llmDisciplineConfidence,
			Source:     domain.DisciplineSourceSmartAnalyzer,
		})
	}

	// Additive confidence boost, clamped to 1.0.
	if enrichment.ConfidenceBoost > 0 {
		boosted := result.Confidence.Overall + enrichment.ConfidenceBoost
		if boosted > 1.0 {
			boosted = 1.0
		}
		note.BoostApplied = boosted - result.Confidence.Overall
		result.Confidence.Overall = boosted
	}

	result.Enrichment = note
}

// EnrichmentFailure builds the structured note for a failed enrichment.
func EnrichmentFailure(err error) domain.EnrichmentNote {
	return domain.EnrichmentNote{Applied: false, Error: err.Error()}
}
