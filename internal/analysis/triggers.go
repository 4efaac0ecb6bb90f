package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

const (
	// triggerLowConfidenceFloor activates the low-confidence trigger.
	triggerLowConfidenceFloor = 0.5

	// triggerMinAbbreviations activates the unknown-abbreviations trigger.
	triggerMinAbbreviations = 2

	// triggerMinDisciplines activates the cross-disciplinary trigger.
	triggerMinDisciplines = 2

	// triggerNonLatinChars activates the non-English-script trigger.
	triggerNonLatinChars = 10

	// triggerMinTopics: fewer detected topics activates the few-topics trigger.
	triggerMinTopics = 3

	// triggerMinAmbiguous activates the ambiguous-terms trigger.
	triggerMinAmbiguous = 3

	// triggerMinWords: shorter input activates the short-text trigger.
	triggerMinWords = 50

	// triggerActivationQuorum is the activated-trigger count that decides
	// LLM use on its own.
	triggerActivationQuorum = 2
)

// knownAbbreviations are common academic abbreviations that need no
// expansion.
var knownAbbreviations = map[string]bool{
	"AI": true, "ANOVA": true, "API": true, "BMI": true, "CI": true,
	"CNN": true, "COVID": true, "CPU": true, "CRISPR": true, "CT": true,
	"DNA": true, "DOI": true, "ECG": true, "EEG": true, "ELISA": true,
	"FDA": true, "GDP": true, "GPU": true, "HIV": true, "HR": true,
	"ICU": true, "IQR": true, "LSTM": true, "MRI": true, "NLP": true,
	"OR": true, "PCR": true, "PET": true, "PRISMA": true, "RCT": true,
	"RNA": true, "ROC": true, "SD": true, "SVM": true, "UK": true,
	"USA": true, "WHO": true,
}

// ambiguousTerms are words whose meaning differs across disciplines, a sign
// that clarification by LLM may help.
var ambiguousTerms = []string{
	"model", "network", "cell", "culture", "stress", "depression",
	"plasticity", "resistance", "transformation", "expression", "vector",
	"cluster", "transmission", "regression", "conduction", "capacity",
	"population", "diffusion", "signal",
}

// abbreviationRegex matches standalone uppercase tokens of 2-6 letters.
var abbreviationRegex = regexp.MustCompile(`\b[A-Z]{2,6}\b`)

// parentheticalAbbrevRegex matches abbreviations introduced in parentheses,
// e.g. "(TAVR)".
var parentheticalAbbrevRegex = regexp.MustCompile(`\(([A-Z][A-Za-z]{1,5})\)`)

// nonLatinRanges are the script ranges counted by the non-English trigger.
var nonLatinRanges = []struct {
	name   string
	lo, hi rune
}{
	{"hebrew", 0x0590, 0x05FF},
	{"arabic", 0x0600, 0x06FF},
	{"cjk", 0x4E00, 0x9FFF},
	{"kana", 0x3040, 0x30FF},
	{"korean", 0xAC00, 0xD7AF},
}

// TriggerInput carries the analysis-derived metadata the trigger rules
// evaluate alongside the raw text.
type TriggerInput struct {
	Title             string
	Abstract          string
	OverallConfidence float64
	DisciplineCount   int
	TopicCount        int
}

// TriggerDetector evaluates seven independent rules deciding whether LLM
// enrichment should run. Its decision is computed from trigger activations
// and is independent of the confidence scorer's own needs-enrichment flag.
type TriggerDetector struct{}

// NewTriggerDetector creates a trigger detector.
func NewTriggerDetector() *TriggerDetector {
	return &TriggerDetector{}
}

// Evaluate runs all trigger rules and returns their results in a fixed
// order. Deterministic given identical input.
func (d *TriggerDetector) Evaluate(in TriggerInput) []domain.TriggerResult {
	text := in.Title + " " + in.Abstract
	lower := strings.ToLower(text)

	return []domain.TriggerResult{
		d.lowConfidence(in),
		d.unknownAbbreviations(text),
		d.crossDisciplinary(in),
		d.nonEnglishScript(text),
		d.fewTopics(in),
		d.ambiguousTerms(lower),
		d.shortText(text),
	}
}

// ShouldUseLLM aggregates trigger results: LLM enrichment is warranted when
// at least two triggers activated, or any high-priority trigger activated
// alone.
func (d *TriggerDetector) ShouldUseLLM(results []domain.TriggerResult) bool {
	activated := 0
	for _, r := range results {
		if !r.Activated {
			continue
		}
		if r.HighPriority {
			return true
		}
		activated++
	}
	return activated >= triggerActivationQuorum
}

func (d *TriggerDetector) lowConfidence(in TriggerInput) domain.TriggerResult {
	activated := in.OverallConfidence < triggerLowConfidenceFloor
	return domain.TriggerResult{
		Name:         "low_confidence",
		Activated:    activated,
		HighPriority: true,
		Confidence:   0.9,
		Details:      fmt.Sprintf("overall confidence %.2f (floor %.2f)", in.OverallConfidence, triggerLowConfidenceFloor),
	}
}

func (d *TriggerDetector) unknownAbbreviations(text string) domain.TriggerResult {
	unknown := make(map[string]bool)
	for _, m := range abbreviationRegex.FindAllString(text, -1) {
		if !knownAbbreviations[m] {
			unknown[m] = true
		}
	}
	for _, m := range parentheticalAbbrevRegex.FindAllStringSubmatch(text, -1) {
		abbrev := strings.ToUpper(m[1])
		if !knownAbbreviations[abbrev] {
			unknown[abbrev] = true
		}
	}

	names := make([]string, 0, len(unknown))
	for a := range unknown {
		names = append(names, a)
	}
	return domain.TriggerResult{
		Name:       "unknown_abbreviations",
		Activated:  len(unknown) >= triggerMinAbbreviations,
		Confidence: 0.7,
		Details:    fmt.Sprintf("%d unknown abbreviations: %s", len(unknown), strings.Join(names, ", ")),
	}
}

func (d *TriggerDetector) crossDisciplinary(in TriggerInput) domain.TriggerResult {
	return domain.TriggerResult{
		Name:       "cross_disciplinary",
		Activated:  in.DisciplineCount >= triggerMinDisciplines,
		Confidence: 0.6,
		Details:    fmt.Sprintf("%d disciplines detected", in.DisciplineCount),
	}
}

func (d *TriggerDetector) nonEnglishScript(text string) domain.TriggerResult {
	count := 0
	scripts := make(map[string]bool)
	for _, r := range text {
		for _, rng := range nonLatinRanges {
			if r >= rng.lo && r <= rng.hi {
				count++
				scripts[rng.name] = true
				break
			}
		}
	}

	names := make([]string, 0, len(scripts))
	for s := range scripts {
		names = append(names, s)
	}
	return domain.TriggerResult{
		Name:         "non_english_script",
		Activated:    count > triggerNonLatinChars,
		HighPriority: true,
		Confidence:   0.95,
		Details:      fmt.Sprintf("%d non-Latin characters (%s)", count, strings.Join(names, ", ")),
	}
}

func (d *TriggerDetector) fewTopics(in TriggerInput) domain.TriggerResult {
	return domain.TriggerResult{
		Name:       "few_topics",
		Activated:  in.TopicCount < triggerMinTopics,
		Confidence: 0.6,
		Details:    fmt.Sprintf("%d topics found (minimum %d)", in.TopicCount, triggerMinTopics),
	}
}

func (d *TriggerDetector) ambiguousTerms(lower string) domain.TriggerResult {
	wordSet := make(map[string]bool)
	for _, w := range tokenize(lower) {
		wordSet[w] = true
	}

	var matched []string
	for _, term := range ambiguousTerms {
		if wordSet[term] {
			matched = append(matched, term)
		}
	}
	return domain.TriggerResult{
		Name:       "ambiguous_terms",
		Activated:  len(matched) >= triggerMinAmbiguous,
		Confidence: 0.5,
		Details:    fmt.Sprintf("%d ambiguous terms: %s", len(matched), strings.Join(matched, ", ")),
	}
}

func (d *TriggerDetector) shortText(text string) domain.TriggerResult {
	words := len(strings.Fields(text))
	return domain.TriggerResult{
		Name:       "short_text",
		Activated:  words < triggerMinWords,
		Confidence: 0.8,
		Details:    fmt.Sprintf("%d words of input text (minimum %d)", words, triggerMinWords),
	}
}
