package analysis

import (
	"fmt"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

// Confidence factor thresholds and weights.
const (
	topicsFoundThreshold   = 3
	worksCountThreshold    = 20
	keywordsQualityMinLen  = 4
	keywordsQualityTarget  = 5
	disciplineClarityFloor = 0.4
	diversityTarget        = 5

	topicsFoundWeight       = 0.25
	worksCountWeight        = 0.20
	keywordsQualityWeight   = 0.20
	disciplineClarityWeight = 0.25
	keywordDiversityWeight  = 0.10

	// needsLLMOverallFloor marks low-confidence analyses for LLM enrichment.
	needsLLMOverallFloor = 0.5

	// needsLLMFailedFactors is the failed-factor count that alone marks an
	// analysis for enrichment.
	needsLLMFailedFactors = 2
)

// ConfidenceScorer combines detection strength, coverage and keyword quality
// into a single score. Pure arithmetic; fully deterministic given its
// inputs.
type ConfidenceScorer struct{}

// NewConfidenceScorer creates a confidence scorer.
func NewConfidenceScorer() *ConfidenceScorer {
	return &ConfidenceScorer{}
}

// Score computes the five-factor confidence score. NeedsLLMEnrichment is set
// when the overall score is below 0.5 or at least two factors failed their
// threshold. An interdisciplinary manuscript adds an informational reason
// but does not by itself force enrichment.
func (s *ConfidenceScorer) Score(topicCount, worksCount int, keywords []domain.RankedKeyword, primaryConfidence float64, disciplineCount int) domain.ConfidenceScore {
	qualityCount := 0
	for _, kw := range keywords {
		if len(kw.Text) >= keywordsQualityMinLen {
			qualityCount++
		}
	}

	firstLetters := make(map[byte]bool)
	for _, kw := range keywords {
		if kw.Text != "" {
			firstLetters[kw.Text[0]] = true
		}
	}

	factors := []domain.ConfidenceFactor{
		{
			Name:    "topics_found",
			Score:   ratio(float64(topicCount), topicsFoundThreshold),
			Weight:  topicsFoundWeight,
			Passed:  topicCount >= topicsFoundThreshold,
			Details: fmt.Sprintf("%d topics found (threshold %d)", topicCount, topicsFoundThreshold),
		},
		{
			Name:    "works_count",
			Score:   ratio(float64(worksCount), worksCountThreshold),
			Weight:  worksCountWeight,
			Passed:  worksCount >= worksCountThreshold,
			Details: fmt.Sprintf("%d similar works analyzed (threshold %d)", worksCount, worksCountThreshold),
		},
		{
			Name:    "keywords_quality",
			Score:   ratio(float64(qualityCount), keywordsQualityTarget),
			Weight:  keywordsQualityWeight,
			Passed:  qualityCount >= keywordsQualityTarget,
			Details: fmt.Sprintf("%d keywords of length >=%d (threshold %d)", qualityCount, keywordsQualityMinLen, keywordsQualityTarget),
		},
		{
			Name:    "discipline_clarity",
			Score:   ratio(primaryConfidence, disciplineClarityFloor),
			Weight:  disciplineClarityWeight,
			Passed:  primaryConfidence >= disciplineClarityFloor,
			Details: fmt.Sprintf("primary discipline confidence %.2f (threshold %.2f)", primaryConfidence, disciplineClarityFloor),
		},
		{
			Name:    "keyword_diversity",
			Score:   ratio(float64(len(firstLetters)), diversityTarget),
			Weight:  keywordDiversityWeight,
			Passed:  len(firstLetters) >= diversityTarget,
			Details: fmt.Sprintf("%d distinct first letters (threshold %d)", len(firstLetters), diversityTarget),
		},
	}

	var overall float64
	failed := 0
	var reasons []string
	for _, f := range factors {
		overall += f.Score * f.Weight
		if !f.Passed {
			failed++
			reasons = append(reasons, fmt.Sprintf("factor %s below threshold: %s", f.Name, f.Details))
		}
	}

	if disciplineCount >= 2 {
		reasons = append(reasons, fmt.Sprintf("interdisciplinary manuscript: %d disciplines detected", disciplineCount))
	}

	return domain.ConfidenceScore{
		Overall:            overall,
		Factors:            factors,
		NeedsLLMEnrichment: overall < needsLLMOverallFloor || failed >= needsLLMFailedFactors,
		Reasons:            reasons,
	}
}

// ratio normalizes value against threshold into [0,1].
func ratio(value, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	r := value / threshold
	if r > 1.0 {
		return 1.0
	}
	if r < 0 {
		return 0
	}
	return r
}
