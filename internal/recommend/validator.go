package recommend

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

// genericTopics are provider topic names too broad to carry any relevance
// signal either way. They are skipped entirely during validation.
var genericTopics = []string{
	"science", "research", "education", "medicine", "health",
	"engineering", "technology", "management", "analysis", "innovation",
	"multidisciplinary", "general",
}

// topicExclusions maps a topic pattern to disciplines it argues against.
// A journal whose topics match a pattern accumulates irrelevance for each
// detected discipline in the exclusion list.
var topicExclusions = map[string][]string{
	"covid":     {"urology", "gynecology", "rheumatology", "dermatology", "ophthalmology"},
	"dentistry": {"cardiology", "neurology", "oncology"},
	"veterinary": {
		"cardiology", "neurology", "oncology", "psychiatry", "pediatrics",
	},
	"agriculture": {"cardiology", "neurology", "psychiatry"},
	"linguistics": {"cardiology", "oncology", "urology"},
}

// validationWarnThreshold marks a journal as borderline rather than
// dropping it.
const validationWarnThreshold = 0.3

// validationMinSurvivors disables dropping when it would leave fewer than
// this many results.
const validationMinSurvivors = 3

// verdict is the per-journal outcome of topic assessment.
type verdict struct {
	relevant   int
	irrelevant int
	score      float64
}

// Validator performs post-hoc topic relevance validation over a ranked
// result list. It can only drop or annotate journals, never add them.
type Validator struct {
	logger zerolog.Logger
}

// NewValidator creates a validator.
func NewValidator(logger zerolog.Logger) *Validator {
	return &Validator{logger: logger.With().Str("component", "validator").Logger()}
}

// Validate checks each journal's topics against the detected disciplines
// and the manuscript's own keywords. A journal is dropped only when it has
// zero relevant topics and at least one actively irrelevant one, and only
// while at least three results would survive. Borderline journals get a
// warning instead.
func (v *Validator) Validate(journals []domain.Journal, analysis *domain.AnalysisResult) []domain.Journal {
	if len(analysis.Disciplines) == 0 {
		return journals
	}

	verdicts := make([]verdict, len(journals))

	for i := range journals {
		rel, irrel := v.assess(&journals[i], analysis)
		score := 1.0
		if rel+irrel > 0 {
			score = float64(rel) / float64(rel+irrel)
		}
		verdicts[i] = verdict{relevant: rel, irrelevant: irrel, score: score}
	}

	out := make([]domain.Journal, 0, len(journals))
	for i := range journals {
		vd := verdicts[i]
		drop := vd.relevant == 0 && vd.irrelevant >= 1
		if drop && len(out)+remaining(verdicts[i+1:]) >= validationMinSurvivors {
			v.logger.Debug().Str("journal", journals[i].Name).
				Int("irrelevant_topics", vd.irrelevant).
				Msg("dropping topically irrelevant journal")
			continue
		}
		j := journals[i]
		if vd.score < validationWarnThreshold {
			j.Warnings = append(j.Warnings,
				fmt.Sprintf("topic overlap with the detected disciplines is weak (%.0f%%)", vd.score*100))
		}
		out = append(out, j)
	}
	return out
}

// assess counts relevant and irrelevant topic signals for one journal.
func (v *Validator) assess(j *domain.Journal, analysis *domain.AnalysisResult) (relevant, irrelevant int) {
	signals := relevanceSignals(analysis)

	for _, topic := range j.Topics {
		lower := strings.ToLower(topic)
		if isGenericTopic(lower) {
			continue
		}

		matched := false
		for _, sig := range signals {
			if strings.Contains(lower, sig) || strings.Contains(sig, lower) {
				relevant++
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		for pattern, excluded := range topicExclusions {
			if !strings.Contains(lower, pattern) {
				continue
			}
			for _, disc := range analysis.Disciplines {
				if containsString(excluded, disc.Name) {
					irrelevant++
					break
				}
			}
		}
	}
	return relevant, irrelevant
}

// relevanceSignals collects the lowercase terms a relevant topic should
// overlap: discipline and subfield names, evidence keywords, and the
// author's own keywords.
func relevanceSignals(analysis *domain.AnalysisResult) []string {
	var signals []string
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "_", " ")))
		if len(s) >= 4 {
			signals = append(signals, s)
		}
	}
	for _, disc := range analysis.Disciplines {
		add(disc.Name)
		add(disc.SubfieldName)
		for _, ev := range disc.Evidence {
			add(ev)
		}
	}
	for _, kw := range analysis.Query.UserKeywords {
		add(kw)
	}
	return signals
}

func isGenericTopic(lower string) bool {
	for _, g := range genericTopics {
		if lower == g {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// remaining counts journals that would not be dropped among the tail, so
// the survivor floor looks at the whole list, not just what has been
// emitted so far.
func remaining(tail []verdict) int {
	n := 0
	for _, vd := range tail {
		if !(vd.relevant == 0 && vd.irrelevant >= 1) {
			n++
		}
	}
	return n
}
