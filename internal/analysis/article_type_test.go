package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectArticleType(t *testing.T) {
	d := NewArticleTypeDetector()

	tests := []struct {
		name     string
		title    string
		abstract string
		want     string
	}{
		{
			name:     "systematic review",
			title:    "A systematic review of catheter ablation outcomes",
			abstract: "We searched PubMed and Embase. Inclusion and exclusion criteria were applied after screening titles and abstracts.",
			want:     "systematic_review",
		},
		{
			name:     "randomized controlled trial",
			title:    "A randomized controlled trial of beta blockers",
			abstract: "Patients were randomly assigned to the treatment arm or placebo-controlled group.",
			want:     "randomized_controlled_trial",
		},
		{
			name:     "case report single pattern",
			title:    "An unusual presentation",
			abstract: "We report a case of a 63-year-old man with chest pain.",
			want:     "case_report",
		},
		{
			name:     "cohort study",
			title:    "A prospective cohort study of statin use",
			abstract: "Participants were followed for 10 years; the hazard ratio for events was 0.8.",
			want:     "cohort_study",
		},
		{
			name:     "fallback",
			title:    "Observations on weather",
			abstract: "Clouds were observed.",
			want:     "original_research",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.title, tt.abstract)
			assert.Equal(t, tt.want, got.TypeID)
			assert.Greater(t, got.Confidence, 0.0)
			assert.NotEmpty(t, got.PreferredJournalTypes)
		})
	}
}

func TestDetectCombinedReviewType(t *testing.T) {
	d := NewArticleTypeDetector()

	got := d.Detect(
		"Systematic review and meta-analysis of anticoagulation strategies",
		"We searched PubMed and Embase following PRISMA. Pooled estimates were computed "+
			"with a random-effects model; heterogeneity was assessed and a forest plot produced. "+
			"Inclusion and exclusion criteria were predefined.",
	)

	assert.Equal(t, "systematic_review_meta_analysis", got.TypeID)
	assert.NotEmpty(t, got.Evidence)
}

func TestDetectCombinedReviewTypeSingleMetaAnalysisMention(t *testing.T) {
	d := NewArticleTypeDetector()

	// A full systematic review that mentions meta-analysis only once still
	// combines; the constituent below its own threshold rides the relaxed one.
	got := d.Detect(
		"A systematic review with meta-analysis",
		"Inclusion and exclusion criteria were applied after screening titles and abstracts.",
	)

	assert.Equal(t, "systematic_review_meta_analysis", got.TypeID)
	assert.Contains(t, got.Evidence, "ma_phrase")
	assert.Contains(t, got.Evidence, "sr_inclusion")
}

func TestDetectCombinedReviewTypeNeedsOneFullConstituent(t *testing.T) {
	d := NewArticleTypeDetector()

	// A cohort study brushing both review vocabularies once apiece must not
	// be reclassified as a combined review.
	got := d.Detect(
		"A prospective cohort study of statin use",
		"Participants were followed for 10 years; the hazard ratio was 0.8. "+
			"A prior systematic review and one meta-analysis motivated the design.",
	)

	assert.Equal(t, "cohort_study", got.TypeID)
}

func TestDetectFallbackConfidence(t *testing.T) {
	d := NewArticleTypeDetector()

	got := d.Detect("Short", "Nothing matches here.")

	assert.Equal(t, "original_research", got.TypeID)
	assert.InDelta(t, 0.5, got.Confidence, 0.001)
}
