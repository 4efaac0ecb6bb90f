package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

func triggerByName(t *testing.T, results []domain.TriggerResult, name string) domain.TriggerResult {
	t.Helper()
	for _, r := range results {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("trigger %q not found", name)
	return domain.TriggerResult{}
}

func confidentInput() TriggerInput {
	words := strings.Repeat("cardiac electrophysiology mapping during ablation procedures ", 12)
	return TriggerInput{
		Title:             "Catheter ablation outcomes",
		Abstract:          words,
		OverallConfidence: 0.9,
		DisciplineCount:   1,
		TopicCount:        5,
	}
}

func TestTriggersAllQuietOnConfidentInput(t *testing.T) {
	d := NewTriggerDetector()

	results := d.Evaluate(confidentInput())

	require.Len(t, results, 7)
	for _, r := range results {
		assert.False(t, r.Activated, r.Name)
	}
	assert.False(t, d.ShouldUseLLM(results))
}

func TestTriggerLowConfidenceIsHighPriority(t *testing.T) {
	d := NewTriggerDetector()

	in := confidentInput()
	in.OverallConfidence = 0.3
	results := d.Evaluate(in)

	low := triggerByName(t, results, "low_confidence")
	assert.True(t, low.Activated)
	assert.True(t, low.HighPriority)
	assert.True(t, d.ShouldUseLLM(results), "a single high-priority trigger decides alone")
}

func TestTriggerUnknownAbbreviations(t *testing.T) {
	d := NewTriggerDetector()

	in := confidentInput()
	in.Title = "TAVR versus SAVR in elderly patients (PARTNER substudy)"
	results := d.Evaluate(in)

	abbrev := triggerByName(t, results, "unknown_abbreviations")
	assert.True(t, abbrev.Activated)
	assert.Contains(t, abbrev.Details, "TAVR")
}

func TestTriggerKnownAbbreviationsDoNotCount(t *testing.T) {
	d := NewTriggerDetector()

	in := confidentInput()
	in.Title = "MRI and ECG findings in ICU patients with COVID"
	results := d.Evaluate(in)

	abbrev := triggerByName(t, results, "unknown_abbreviations")
	assert.False(t, abbrev.Activated)
}

func TestTriggerNonEnglishScript(t *testing.T) {
	d := NewTriggerDetector()

	in := confidentInput()
	in.Abstract += " 心房細動のカテーテルアブレーション治療の結果"
	results := d.Evaluate(in)

	script := triggerByName(t, results, "non_english_script")
	assert.True(t, script.Activated)
	assert.True(t, script.HighPriority)
}

func TestTriggerShortText(t *testing.T) {
	d := NewTriggerDetector()

	in := TriggerInput{
		Title:             "Brief note",
		Abstract:          "Very little text here.",
		OverallConfidence: 0.9,
		DisciplineCount:   1,
		TopicCount:        5,
	}
	results := d.Evaluate(in)

	short := triggerByName(t, results, "short_text")
	assert.True(t, short.Activated)
}

func TestTriggerQuorum(t *testing.T) {
	d := NewTriggerDetector()

	// Cross-disciplinary plus few topics: two normal-priority activations.
	in := confidentInput()
	in.DisciplineCount = 3
	in.TopicCount = 1
	results := d.Evaluate(in)

	assert.True(t, triggerByName(t, results, "cross_disciplinary").Activated)
	assert.True(t, triggerByName(t, results, "few_topics").Activated)
	assert.True(t, d.ShouldUseLLM(results))

	// One alone is not enough.
	in.TopicCount = 5
	results = d.Evaluate(in)
	assert.False(t, d.ShouldUseLLM(results))
}

func TestTriggerAmbiguousTerms(t *testing.T) {
	d := NewTriggerDetector()

	in := confidentInput()
	in.Abstract += " We model the network as a cell population under stress."
	results := d.Evaluate(in)

	ambiguous := triggerByName(t, results, "ambiguous_terms")
	assert.True(t, ambiguous.Activated)
	assert.Contains(t, ambiguous.Details, "network")
}
