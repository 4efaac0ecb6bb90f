// Package analysis implements manuscript analysis: search-term extraction,
// discipline detection (rule-based, similar-works voting, and a hybrid of
// both), article-type classification, keyword enrichment, confidence scoring,
// LLM-trigger detection, and the orchestrating smart analyzer.
package analysis

import (
	"strings"
	"unicode"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

// DefaultMaxTerms is the default search-term budget.
const DefaultMaxTerms = 12

// stopwords are excluded from extracted terms and n-gram boundaries.
var stopwords = map[string]bool{
	"a": true, "about": true, "after": true, "all": true, "also": true,
	"an": true, "and": true, "any": true, "are": true, "as": true, "at": true,
	"based": true, "be": true, "been": true, "between": true, "both": true,
	"but": true, "by": true, "can": true, "could": true, "data": true,
	"did": true, "do": true, "does": true, "during": true, "each": true,
	"effect": true, "effects": true, "field": true, "findings": true,
	"for": true, "from": true, "had": true, "has": true, "have": true,
	"here": true, "how": true, "however": true, "in": true, "into": true,
	"is": true, "it": true, "its": true, "may": true, "method": true,
	"methods": true, "more": true, "most": true, "new": true, "no": true,
	"not": true, "novel": true, "of": true, "on": true, "one": true,
	"or": true, "other": true, "our": true, "paper": true, "present": true,
	"proposed": true, "research": true, "result": true, "results": true,
	"several": true, "show": true, "showed": true, "shown": true,
	"significant": true, "since": true, "some": true, "study": true,
	"studies": true, "such": true, "than": true, "that": true, "the": true,
	"their": true, "them": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "those": true, "through": true, "to": true,
	"two": true, "under": true, "use": true, "used": true, "using": true,
	"was": true, "we": true, "were": true, "when": true, "which": true,
	"while": true, "will": true, "with": true, "within": true, "work": true,
}

// academicPhrases are curated high-value multi-word phrases that, when found
// verbatim in the text, are prioritized over automatically extracted n-grams.
var academicPhrases = []string{
	"machine learning", "deep learning", "neural network", "neural networks",
	"artificial intelligence", "natural language processing",
	"computer vision", "reinforcement learning", "transfer learning",
	"randomized controlled trial", "systematic review", "meta analysis",
	"clinical trial", "case report", "cohort study", "gene expression",
	"gene editing", "stem cells", "immune response", "risk factors",
	"public health", "mental health", "climate change", "renewable energy",
	"quantum computing", "drug delivery", "signal processing",
	"image segmentation", "genome sequencing", "cell culture",
	"oxidative stress", "protein structure", "social media",
	"supply chain", "decision making",
}

// TermExtractor turns raw title+abstract text and optional user keywords
// into a ranked list of search phrases. Deterministic given identical input;
// never fails on malformed input, returning fewer (possibly zero) terms
// instead.
type TermExtractor struct {
	maxTerms int
}

// NewTermExtractor creates a term extractor with the given term budget.
// A non-positive budget falls back to DefaultMaxTerms.
func NewTermExtractor(maxTerms int) *TermExtractor {
	if maxTerms <= 0 {
		maxTerms = DefaultMaxTerms
	}
	return &TermExtractor{maxTerms: maxTerms}
}

// Extract returns up to maxTerms search terms, most important first:
// user keywords, then curated academic phrases found in the text, then
// auto-extracted trigrams and bigrams, then significant single words.
func (e *TermExtractor) Extract(title, abstract string, userKeywords []string) []string {
	terms := make([]string, 0, e.maxTerms)
	seen := make(map[string]bool)

	add := func(term string) bool {
		norm := domain.NormalizeKeyword(term)
		if norm == "" || seen[norm] {
			return len(terms) < e.maxTerms
		}
		seen[norm] = true
		terms = append(terms, norm)
		return len(terms) < e.maxTerms
	}

	// User keywords take the first slots.
	for _, kw := range userKeywords {
		if !add(kw) {
			return terms
		}
	}

	text := strings.ToLower(title + " " + abstract)

	// Curated phrases are sticky: exact substring matches outrank n-grams.
	for _, phrase := range academicPhrases {
		if strings.Contains(text, phrase) {
			if !add(phrase) {
				return terms
			}
		}
	}

	words := tokenize(text)

	// Trigrams first, then bigrams.
	for _, n := range []int{3, 2} {
		for i := 0; i+n <= len(words); i++ {
			gram := words[i : i+n]
			if !validNgram(gram) {
				continue
			}
			if !add(strings.Join(gram, " ")) {
				return terms
			}
		}
	}

	// Fill remaining slots with significant single words.
	for _, w := range words {
		if len(w) <= 3 || stopwords[w] {
			continue
		}
		if !add(w) {
			return terms
		}
	}

	return terms
}

// validNgram rejects n-grams whose boundary words are stopwords or shorter
// than 3 characters. The middle word of a trigram is exempt.
func validNgram(gram []string) bool {
	first, last := gram[0], gram[len(gram)-1]
	if stopwords[first] || stopwords[last] {
		return false
	}
	if len(first) < 3 || len(last) < 3 {
		return false
	}
	return true
}

// tokenize splits lowercased text into words, stripping everything except
// letters, digits and internal hyphens.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}
