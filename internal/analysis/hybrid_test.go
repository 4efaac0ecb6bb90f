package analysis

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/journal-recommender-service/internal/domain"
	"github.com/helixir/journal-recommender-service/internal/openalex"
)

func newHybrid(searcher WorksSearcher, cfg HybridDetectorConfig) *HybridDisciplineDetector {
	ml := NewMLDisciplineDetector(searcher, 0, 0, zerolog.Nop())
	kw := NewKeywordDisciplineDetector(0)
	return NewHybridDisciplineDetector(ml, kw, cfg)
}

func TestHybridPrefersMLWhenSufficient(t *testing.T) {
	searcher := &fakeWorksSearcher{works: []openalex.Work{
		workWith(cardioTopic(), neuroTopic()),
		workWith(neuroTopic()),
	}}
	d := newHybrid(searcher, HybridDetectorConfig{PreferUniversal: true})

	results := d.Detect(context.Background(), "ECG analysis", "Signals.", nil)

	require.NotEmpty(t, results)
	for _, disc := range results {
		assert.Equal(t, domain.DisciplineSourceOpenAlexML, disc.Source)
	}
}

func TestHybridFallsBackToKeywords(t *testing.T) {
	searcher := &fakeWorksSearcher{err: assert.AnError}
	d := newHybrid(searcher, HybridDetectorConfig{PreferUniversal: true})

	results := d.Detect(context.Background(),
		"Myocardial infarction after coronary stenting",
		"Cardiac outcomes and arrhythmia burden in heart failure.",
		nil,
	)

	require.NotEmpty(t, results)
	assert.Equal(t, "cardiology", results[0].Name)
	assert.Equal(t, domain.DisciplineSourceKeyword, results[0].Source)
}

func TestHybridKeywordOnlyMode(t *testing.T) {
	searcher := &fakeWorksSearcher{works: []openalex.Work{workWith(cardioTopic())}}
	d := newHybrid(searcher, HybridDetectorConfig{})

	d.Detect(context.Background(), "Myocardial perfusion", "Cardiac imaging.", nil)

	assert.Zero(t, searcher.calls, "ML detector is not consulted without PreferUniversal")
}

func TestHybridMergeBoostsCorroborated(t *testing.T) {
	mlResults := []domain.DetectedDiscipline{
		{Name: "cardiology and cardiovascular medicine", SubfieldID: 2705, Confidence: 0.6,
			Source: domain.DisciplineSourceOpenAlexML, Evidence: []string{"Cardiac Arrhythmia Detection"}},
	}
	kwResults := []domain.DetectedDiscipline{
		{Name: "cardiology", SubfieldID: 2705, Confidence: 1.0,
			Source: domain.DisciplineSourceKeyword, Evidence: []string{"myocardial"}},
		{Name: "oncology", SubfieldID: 2730, Confidence: 0.4,
			Source: domain.DisciplineSourceKeyword},
	}

	d := newHybrid(&fakeWorksSearcher{}, HybridDetectorConfig{})
	merged := d.merge(mlResults, kwResults)

	require.Len(t, merged, 2)

	cardio := merged[0]
	assert.Equal(t, 2705, cardio.SubfieldID)
	assert.Equal(t, domain.DisciplineSourceOpenAlexML, cardio.Source, "ML entry wins the collision")
	assert.InDelta(t, 0.72, cardio.Confidence, 0.001, "corroboration boost applied")
	assert.Contains(t, cardio.Evidence, "myocardial", "keyword evidence folded in")

	assert.Equal(t, 2730, merged[1].SubfieldID)
}

func TestHybridMergeBoostClamped(t *testing.T) {
	mlResults := []domain.DetectedDiscipline{
		{SubfieldID: 2705, Confidence: 0.95, Source: domain.DisciplineSourceOpenAlexML},
	}
	kwResults := []domain.DetectedDiscipline{
		{SubfieldID: 2705, Confidence: 1.0, Source: domain.DisciplineSourceKeyword},
	}

	d := newHybrid(&fakeWorksSearcher{}, HybridDetectorConfig{})
	merged := d.merge(mlResults, kwResults)

	require.Len(t, merged, 1)
	assert.InDelta(t, 1.0, merged[0].Confidence, 0.001)
}

func TestHybridMergeSourceWeightOrdering(t *testing.T) {
	// 0.5 x 0.7 (ML) outranks 1.0 x 0.3 (keyword).
	mlResults := []domain.DetectedDiscipline{
		{SubfieldID: 2728, Confidence: 0.5, Source: domain.DisciplineSourceOpenAlexML},
	}
	kwResults := []domain.DetectedDiscipline{
		{SubfieldID: 2730, Confidence: 1.0, Source: domain.DisciplineSourceKeyword},
	}

	d := newHybrid(&fakeWorksSearcher{}, HybridDetectorConfig{})
	merged := d.merge(mlResults, kwResults)

	require.Len(t, merged, 2)
	assert.Equal(t, 2728, merged[0].SubfieldID)
}
