package recommend

import (
	"strings"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

// coreJournalTable maps discipline IDs to flagship venues that should never
// drop out of a result set for that discipline. Matching is by lowercased
// name containment.
var coreJournalTable = map[string][]string{
	"cardiology": {
		"circulation", "european heart journal",
		"journal of the american college of cardiology", "jacc",
	},
	"oncology": {
		"journal of clinical oncology", "lancet oncology", "cancer cell",
		"annals of oncology",
	},
	"neurology": {
		"neurology", "brain", "lancet neurology", "annals of neurology",
	},
	"psychiatry": {
		"american journal of psychiatry", "jama psychiatry",
		"lancet psychiatry", "molecular psychiatry",
	},
	"urology": {
		"european urology", "journal of urology", "bju international",
	},
	"pediatrics": {
		"pediatrics", "jama pediatrics", "journal of pediatrics",
	},
	"computer_science": {
		"communications of the acm", "ieee transactions on pattern analysis",
		"journal of machine learning research", "artificial intelligence",
	},
	"physics": {
		"physical review letters", "nature physics", "reviews of modern physics",
	},
	"chemistry": {
		"journal of the american chemical society", "angewandte chemie",
		"chemical reviews",
	},
	"biology": {
		"cell", "plos biology", "current biology", "elife",
	},
	"economics": {
		"american economic review", "econometrica",
		"quarterly journal of economics", "journal of political economy",
	},
	"psychology": {
		"psychological science", "journal of personality and social psychology",
		"psychological bulletin",
	},
	"public_health": {
		"lancet public health", "american journal of public health",
		"international journal of epidemiology",
	},
	"materials_science": {
		"nature materials", "advanced materials", "acta materialia",
	},
	"environmental_science": {
		"environmental science & technology", "nature climate change",
		"global change biology",
	},
}

// CoreJournals answers whether a venue is a curated flagship for any of the
// detected disciplines.
type CoreJournals struct {
	table map[string][]string
}

// NewCoreJournals returns the curated flagship lookup.
func NewCoreJournals() *CoreJournals {
	return &CoreJournals{table: coreJournalTable}
}

// Contains reports whether name matches a flagship of any detected
// discipline.
func (c *CoreJournals) Contains(disciplines []domain.DetectedDiscipline, name string) bool {
	lower := strings.ToLower(name)
	for _, disc := range disciplines {
		for _, flagship := range c.table[disc.Name] {
			if strings.Contains(lower, flagship) {
				return true
			}
		}
	}
	return false
}
