// Package domain defines the core data model for the journal recommender:
// manuscript queries, detected disciplines and article types, ranked keywords,
// confidence scores, journal candidates, and the aggregate analysis result.
//
// Records are converted from raw provider shapes exactly once, at the retrieval
// boundary; everything above this package works with these typed values.
package domain

import (
	"regexp"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters.
var whitespaceRegex = regexp.MustCompile(`\s+`)

// ManuscriptQuery is the immutable input to an analysis: the manuscript's
// title, abstract, and any author-supplied keywords. Created per request and
// never persisted by the core.
type ManuscriptQuery struct {
	// Title is the manuscript title.
	Title string

	// Abstract is the manuscript abstract.
	Abstract string

	// UserKeywords are author-supplied keywords, highest-priority search terms.
	UserKeywords []string

	// PreferOpenAccess requests a ranking boost for open-access journals.
	PreferOpenAccess bool
}

// CombinedText returns the lowercased concatenation of title, abstract and
// user keywords, the canonical text the rule-based detectors scan.
func (q ManuscriptQuery) CombinedText() string {
	parts := []string{q.Title, q.Abstract}
	parts = append(parts, q.UserKeywords...)
	return strings.ToLower(strings.Join(parts, " "))
}

// NormalizeKeyword normalizes a keyword for case-insensitive deduplication:
// lowercase, trimmed, inner whitespace collapsed to single spaces.
func NormalizeKeyword(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// DisciplineSource identifies which detection strategy produced a discipline.
type DisciplineSource string

const (
	// DisciplineSourceKeyword marks rule-based keyword detection.
	DisciplineSourceKeyword DisciplineSource = "keyword"

	// DisciplineSourceOpenAlexML marks detection via topic votes over
	// bibliographically similar works.
	DisciplineSourceOpenAlexML DisciplineSource = "openalex_ml"

	// DisciplineSourceSmartAnalyzer marks disciplines synthesized by the
	// orchestrator, e.g. secondary disciplines added by LLM enrichment.
	DisciplineSourceSmartAnalyzer DisciplineSource = "smart_analyzer"
)

// DetectedDiscipline is one detected academic discipline for a manuscript.
// A manuscript maps to an ordered list of these, sorted descending by
// confidence; the first entry is the primary discipline. An empty list is a
// valid outcome and falls back to "general" downstream.
type DetectedDiscipline struct {
	// Name is the discipline display name (e.g. "cardiology").
	Name string

	// Confidence is in [0,1]. Keyword-detector confidences are max-normalized
	// per manuscript so the top entry is exactly 1.0; ML confidences are
	// vote shares.
	Confidence float64

	// Evidence lists the matched keywords or topic names supporting detection.
	Evidence []string

	// FieldName is the provider field this discipline maps to, if known.
	FieldName string

	// SubfieldName is the provider subfield this discipline maps to, if known.
	SubfieldName string

	// SubfieldID is the provider-stable numeric subfield ID, 0 when unknown.
	SubfieldID int

	// DomainName is the provider top-level domain (e.g. "Health Sciences").
	DomainName string

	// Source identifies the detection strategy.
	Source DisciplineSource
}

// DetectedArticleType is the single best manuscript-type classification.
type DetectedArticleType struct {
	// TypeID identifies the article type (e.g. "systematic_review").
	TypeID string

	// Confidence is in [0,1].
	Confidence float64

	// Evidence lists the pattern IDs that matched.
	Evidence []string

	// PreferredJournalTypes lists venue categories that favor this type.
	PreferredJournalTypes []string
}

// KeywordSource identifies the provenance of a ranked keyword.
type KeywordSource string

const (
	// KeywordSourceTopic marks keywords extracted from provider topic names.
	KeywordSourceTopic KeywordSource = "provider_topic"

	// KeywordSourceKeyword marks provider-native keyword fields.
	KeywordSourceKeyword KeywordSource = "provider_keyword"

	// KeywordSourceConcept marks the legacy provider concept taxonomy.
	KeywordSourceConcept KeywordSource = "provider_concept"

	// KeywordSourceUser marks author-supplied keywords.
	KeywordSourceUser KeywordSource = "user"

	// KeywordSourceLLM marks keywords added by LLM enrichment.
	KeywordSourceLLM KeywordSource = "llm"
)

// RankedKeyword is a scored keyword extracted from the similar-works corpus
// or supplied by the user. Deduplicated case-insensitively; user keywords
// always outrank extracted ones after merging.
type RankedKeyword struct {
	Text      string
	Score     float64
	Frequency int
	Source    KeywordSource
}

// ConfidenceFactor is one named sub-factor of a confidence score.
type ConfidenceFactor struct {
	Name    string
	Score   float64
	Weight  float64
	Passed  bool
	Details string
}

// ConfidenceScore combines discipline-detection strength, topic coverage and
// keyword quality into a single overall value. Never mutated after
// construction except by LLM enrichment, which may additively boost Overall
// (clamped to 1.0).
type ConfidenceScore struct {
	// Overall is the weighted sum of factor scores, in [0,1].
	Overall float64

	// Factors are the named sub-factors contributing to Overall.
	Factors []ConfidenceFactor

	// NeedsLLMEnrichment is this scorer's own view of whether LLM enrichment
	// should run. The trigger detector computes an independent decision; the
	// orchestrator reconciles both.
	NeedsLLMEnrichment bool

	// Reasons are human-readable notes about failed factors or special cases.
	Reasons []string
}

// EnrichmentNote records the outcome of an LLM enrichment attempt, including
// structured failure. Enrichment failure never aborts an analysis.
type EnrichmentNote struct {
	Applied       bool
	AddedKeywords []string
	BoostApplied  float64
	Error         string
}

// AnalysisResult is the aggregate output of the smart analyzer for one
// manuscript query. Fully rebuilt per call; sub-components may cache provider
// lookups but never the result itself.
type AnalysisResult struct {
	// Query echoes the analyzed input.
	Query ManuscriptQuery

	// SearchTerms are the ranked search phrases from the term extractor.
	SearchTerms []string

	// Keywords are merged, ranked keywords (extracted + user + LLM).
	Keywords []RankedKeyword

	// Disciplines are detected disciplines, descending by confidence.
	Disciplines []DetectedDiscipline

	// ArticleType is the single best manuscript-type classification.
	ArticleType DetectedArticleType

	// TopicIDs are provider topic IDs observed across similar works,
	// most frequent first.
	TopicIDs []string

	// WorksAnalyzed is how many similar works were examined.
	WorksAnalyzed int

	// Confidence is the five-factor confidence score.
	Confidence ConfidenceScore

	// Triggers are the activated LLM-trigger results.
	Triggers []TriggerResult

	// LLMUsed reports whether LLM enrichment actually ran.
	LLMUsed bool

	// Enrichment records the enrichment outcome when it ran.
	Enrichment *EnrichmentNote
}

// PrimaryDiscipline returns the highest-confidence discipline and true, or a
// zero value and false when no discipline was detected.
func (r *AnalysisResult) PrimaryDiscipline() (DetectedDiscipline, bool) {
	if len(r.Disciplines) == 0 {
		return DetectedDiscipline{}, false
	}
	return r.Disciplines[0], true
}

// TriggerResult is one evaluated LLM-trigger rule.
type TriggerResult struct {
	// Name identifies the trigger (e.g. "unknown_abbreviations").
	Name string

	// Activated reports whether the trigger fired.
	Activated bool

	// HighPriority marks triggers that force LLM use on their own.
	HighPriority bool

	// Confidence is the trigger's own confidence in its signal.
	Confidence float64

	// Details is a human-readable explanation.
	Details string
}
