// Package llm provides LLM-based manuscript enrichment for the journal
// recommender: expanding unknown abbreviations, detecting secondary
// disciplines, and suggesting additional search keywords when the
// rule-based analysis is uncertain.
//
// LLM providers are treated as unreliable: malformed JSON, timeouts and
// empty responses are expected and handled by the caller falling back to
// "no enrichment".
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// EnrichmentMode selects the prompt shape for the request.
type EnrichmentMode string

const (
	// ModePaperAnalysis requests a full analysis: keywords, disciplines,
	// and a confidence judgment.
	ModePaperAnalysis EnrichmentMode = "paper_analysis"

	// ModeAbbreviations requests expansion of unknown abbreviations.
	ModeAbbreviations EnrichmentMode = "abbreviation_expansion"

	// ModeCrossDiscipline requests detection of secondary disciplines.
	ModeCrossDiscipline EnrichmentMode = "cross_discipline_detection"

	// ModeTranslation requests translation plus enrichment of non-English
	// manuscript text.
	ModeTranslation EnrichmentMode = "translation_enrichment"

	// ModeKeywordEnhancement requests complementary search keywords.
	ModeKeywordEnhancement EnrichmentMode = "keyword_enhancement"
)

// EnrichmentRequest contains the manuscript context for an enrichment call.
type EnrichmentRequest struct {
	// Title is the manuscript title.
	Title string

	// Abstract is the manuscript abstract.
	Abstract string

	// Keywords are the already-ranked keywords (to avoid duplicates).
	Keywords []string

	// Disciplines are the detected discipline names.
	Disciplines []string

	// Mode selects the prompt shape.
	Mode EnrichmentMode

	// MaxKeywords caps the keywords requested from the model.
	MaxKeywords int
}

// EnrichmentResult contains the parsed enrichment output.
type EnrichmentResult struct {
	// Keywords are additional search keywords suggested by the model.
	Keywords []string

	// Disciplines are additional discipline names suggested by the model.
	Disciplines []string

	// Abbreviations maps abbreviations to their expansions.
	Abbreviations map[string]string

	// ConfidenceBoost is the model's suggested additive confidence
	// adjustment, in [0, 0.3].
	ConfidenceBoost float64

	// Reasoning is the model's explanation (optional).
	Reasoning string

	// Model is the model identifier that produced the result.
	Model string

	// InputTokens and OutputTokens report token usage.
	InputTokens  int
	OutputTokens int
}

// Enricher is the provider-agnostic enrichment interface.
//
// Implementations should respect context cancellation, parse the model
// response as JSON, and return wrapped errors with provider context.
type Enricher interface {
	// Enrich performs one enrichment call.
	Enrich(ctx context.Context, req EnrichmentRequest) (*EnrichmentResult, error)

	// Provider returns the provider name (e.g., "openai", "anthropic").
	Provider() string

	// Model returns the model identifier in use.
	Model() string
}

// enrichmentResponse is the JSON shape expected from the model.
type enrichmentResponse struct {
	Keywords        []string          `json:"keywords"`
	Disciplines     []string          `json:"disciplines,omitempty"`
	Abbreviations   map[string]string `json:"abbreviations,omitempty"`
	ConfidenceBoost float64           `json:"confidence_boost,omitempty"`
	Reasoning       string            `json:"reasoning,omitempty"`
}

// BuildEnrichmentPrompt builds the system and user prompts for the request
// mode.
func BuildEnrichmentPrompt(req EnrichmentRequest) (systemPrompt, userPrompt string) {
	return buildSystemPrompt(req), buildUserPrompt(req)
}

// buildSystemPrompt constructs the system-level instructions.
func buildSystemPrompt(req EnrichmentRequest) string {
	var sb strings.Builder

	sb.WriteString("You are an academic publishing specialist helping match ")
	sb.WriteString("manuscripts to suitable journals. You analyze manuscript text and ")
	sb.WriteString("return structured data used to refine a journal search.\n\n")

	sb.WriteString("You MUST respond with valid JSON in exactly this format:\n")
	sb.WriteString(`{"keywords": ["keyword1"], "disciplines": ["discipline1"], "abbreviations": {"ABC": "expansion"}, "confidence_boost": 0.1, "reasoning": "brief explanation"}`)
	sb.WriteString("\n\nAll fields except keywords are optional. confidence_boost must be ")
	sb.WriteString("between 0 and 0.3 and reflects how much your additions clarify the manuscript's field.\n")

	if len(req.Keywords) > 0 {
		sb.WriteString("\nThe following keywords are already known. Do NOT repeat them; ")
		sb.WriteString("find complementary terms instead: [")
		sb.WriteString(strings.Join(req.Keywords, ", "))
		sb.WriteString("]\n")
	}

	return sb.String()
}

// buildUserPrompt constructs the mode-specific user prompt.
func buildUserPrompt(req EnrichmentRequest) string {
	var sb strings.Builder

	switch req.Mode {
	case ModeAbbreviations:
		sb.WriteString("Expand every domain-specific abbreviation in the following manuscript ")
		sb.WriteString("text, and derive search keywords from the expansions.\n\n")
	case ModeCrossDiscipline:
		sb.WriteString("Identify every academic discipline this manuscript touches, beyond ")
		sb.WriteString("those already detected, and suggest keywords bridging them.\n\n")
	case ModeTranslation:
		sb.WriteString("The following manuscript text contains non-English content. Translate ")
		sb.WriteString("the key concepts to English and derive English search keywords and ")
		sb.WriteString("discipline names.\n\n")
	case ModeKeywordEnhancement:
		sb.WriteString("Suggest additional precise search keywords for finding journals that ")
		sb.WriteString("publish work like the following manuscript.\n\n")
	default:
		sb.WriteString("Analyze the following manuscript: identify its academic disciplines, ")
		sb.WriteString("suggest search keywords, and expand any unclear abbreviations.\n\n")
	}

	if len(req.Disciplines) > 0 {
		sb.WriteString("Already detected disciplines: ")
		sb.WriteString(strings.Join(req.Disciplines, ", "))
		sb.WriteString("\n\n")
	}

	maxKeywords := req.MaxKeywords
	if maxKeywords <= 0 {
		maxKeywords = 10
	}
	fmt.Fprintf(&sb, "Suggest at most %d keywords.\n\n", maxKeywords)

	sb.WriteString("Title: ")
	sb.WriteString(req.Title)
	sb.WriteString("\n\nAbstract:\n---\n")
	sb.WriteString(req.Abstract)
	sb.WriteString("\n---")

	return sb.String()
}

// parseEnrichment parses model output as an enrichment response,
// stripping a surrounding markdown code fence if present.
func parseEnrichment(content, model string, inputTokens, outputTokens int) (*EnrichmentResult, error) {
	stripped := StripCodeFence(content)

	var parsed enrichmentResponse
	if err := json.Unmarshal([]byte(stripped), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	boost := parsed.ConfidenceBoost
	if boost < 0 {
		boost = 0
	}
	if boost > 0.3 {
		boost = 0.3
	}

	return &EnrichmentResult{
		Keywords:        parsed.Keywords,
		Disciplines:     parsed.Disciplines,
		Abbreviations:   parsed.Abbreviations,
		ConfidenceBoost: boost,
		Reasoning:       parsed.Reasoning,
		Model:           model,
		InputTokens:     inputTokens,
		OutputTokens:    outputTokens,
	}, nil
}

// StripCodeFence removes a surrounding markdown code fence (``` or
// ```json) from model output, returning the inner content. Input without a
// fence is returned trimmed.
func StripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	// Drop a language tag like "json" on the fence line.
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(trimmed[:idx])
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{}[]") {
			trimmed = trimmed[idx+1:]
		}
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
