package analysis

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/journal-recommender-service/internal/domain"
	"github.com/helixir/journal-recommender-service/internal/llm"
	"github.com/helixir/journal-recommender-service/internal/openalex"
)

// stubEnricher returns a canned enrichment result and records the request.
type stubEnricher struct {
	result  *llm.EnrichmentResult
	err     error
	lastReq llm.EnrichmentRequest
	calls   int
}

var _ llm.Enricher = (*stubEnricher)(nil)

func (s *stubEnricher) Enrich(_ context.Context, req llm.EnrichmentRequest) (*llm.EnrichmentResult, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubEnricher) Provider() string { return "stub" }
func (s *stubEnricher) Model() string    { return "stub-model" }

func newTestAnalyzer(searcher WorksSearcher, cfg AnalyzerConfig, enricher llm.Enricher) *SmartAnalyzer {
	ml := NewMLDisciplineDetector(searcher, 0, 0, zerolog.Nop())
	kw := NewKeywordDisciplineDetector(0)
	hybrid := NewHybridDisciplineDetector(ml, kw, HybridDetectorConfig{PreferUniversal: true})
	return NewSmartAnalyzer(cfg,
		NewTermExtractor(0), ml, hybrid,
		NewKeywordEnricher(0, 0), NewConfidenceScorer(), NewTriggerDetector(),
		enricher, zerolog.Nop())
}

func cardiologyQuery() domain.ManuscriptQuery {
	return domain.ManuscriptQuery{
		Title: "Deep learning for arrhythmia detection in ambulatory ECG recordings",
		Abstract: "We trained convolutional neural networks on continuous electrocardiogram " +
			"recordings from ambulatory monitors to detect atrial fibrillation episodes. " +
			"The model was validated against cardiologist annotations across multiple centers, " +
			"and we report sensitivity and specificity for arrhythmia detection in daily practice.",
		UserKeywords: []string{"atrial fibrillation", "wearable monitoring"},
	}
}

func analyzerCorpus() []openalex.Work {
	works := make([]openalex.Work, 0, 25)
	for i := 0; i < 25; i++ {
		w := workWith(cardioTopic())
		w.Keywords = []openalex.NamedScore{{DisplayName: "deep learning"}, {DisplayName: "electrocardiography"}}
		works = append(works, w)
	}
	// Give the corpus a second subfield so the hybrid ML path is sufficient.
	works[0].Topics = append(works[0].Topics, neuroTopic())
	works[1].Topics = append(works[1].Topics, neuroTopic())
	return works
}

func TestAnalyzeFullPipeline(t *testing.T) {
	searcher := &fakeWorksSearcher{works: analyzerCorpus()}
	a := newTestAnalyzer(searcher, AnalyzerConfig{}, nil)

	result := a.Analyze(context.Background(), cardiologyQuery(), AnalyzeOptions{})

	require.NotNil(t, result)
	assert.Equal(t, cardiologyQuery().Title, result.Query.Title)

	require.NotEmpty(t, result.SearchTerms)
	assert.Equal(t, "atrial fibrillation", result.SearchTerms[0], "user keywords lead the search terms")

	assert.Equal(t, 25, result.WorksAnalyzed)
	require.NotEmpty(t, result.Disciplines)
	assert.Equal(t, 2705, result.Disciplines[0].SubfieldID)
	assert.NotEmpty(t, result.TopicIDs)

	require.NotEmpty(t, result.Keywords)
	assert.Greater(t, result.Confidence.Overall, 0.0)
	assert.Len(t, result.Triggers, 7)
	assert.False(t, result.LLMUsed)
}

func TestAnalyzeEnrichesWhenTriggered(t *testing.T) {
	// An empty corpus keeps confidence low, activating the high-priority
	// low-confidence trigger.
	enricher := &stubEnricher{result: &llm.EnrichmentResult{
		Keywords:        []string{"Catheter Ablation"},
		Disciplines:     []string{"Biomedical Signal Processing"},
		ConfidenceBoost: 0.2,
	}}
	a := newTestAnalyzer(&fakeWorksSearcher{}, AnalyzerConfig{EnableLLM: true}, enricher)

	result := a.Analyze(context.Background(), cardiologyQuery(), AnalyzeOptions{})

	assert.Equal(t, 1, enricher.calls)
	assert.Equal(t, llm.ModePaperAnalysis, enricher.lastReq.Mode)
	assert.True(t, result.LLMUsed)

	require.NotNil(t, result.Enrichment)
	assert.True(t, result.Enrichment.Applied)
	assert.Contains(t, result.Enrichment.AddedKeywords, "catheter ablation")

	var fromLLM bool
	for _, kw := range result.Keywords {
		if kw.Text == "catheter ablation" {
			fromLLM = true
			assert.Equal(t, domain.KeywordSourceLLM, kw.Source)
		}
	}
	assert.True(t, fromLLM)

	var added bool
	for _, d := range result.Disciplines {
		if d.Name == "biomedical signal processing" {
			added = true
			assert.Equal(t, domain.DisciplineSourceSmartAnalyzer, d.Source)
		}
	}
	assert.True(t, added)
	assert.InDelta(t, 0.2, result.Enrichment.BoostApplied, 0.001)
}

func TestAnalyzeSkipLLMOption(t *testing.T) {
	enricher := &stubEnricher{result: &llm.EnrichmentResult{}}
	a := newTestAnalyzer(&fakeWorksSearcher{}, AnalyzerConfig{EnableLLM: true}, enricher)

	result := a.Analyze(context.Background(), cardiologyQuery(), AnalyzeOptions{SkipLLM: true})

	assert.Zero(t, enricher.calls)
	assert.False(t, result.LLMUsed)
	assert.Nil(t, result.Enrichment)
}

func TestAnalyzeEnrichmentFailureDegrades(t *testing.T) {
	enricher := &stubEnricher{err: assert.AnError}
	a := newTestAnalyzer(&fakeWorksSearcher{}, AnalyzerConfig{EnableLLM: true}, enricher)

	result := a.Analyze(context.Background(), cardiologyQuery(), AnalyzeOptions{})

	assert.Equal(t, 1, enricher.calls)
	assert.False(t, result.LLMUsed)
	require.NotNil(t, result.Enrichment)
	assert.False(t, result.Enrichment.Applied)
	assert.NotEmpty(t, result.Enrichment.Error)
	assert.NotEmpty(t, result.SearchTerms, "pre-enrichment result is kept")
}

func TestAnalyzeNilEnricherNeverEnriches(t *testing.T) {
	a := newTestAnalyzer(&fakeWorksSearcher{}, AnalyzerConfig{EnableLLM: true}, nil)

	result := a.Analyze(context.Background(), cardiologyQuery(), AnalyzeOptions{})

	assert.False(t, result.LLMUsed)
	assert.Nil(t, result.Enrichment)
}
