package domain

import "time"

// JournalCategory classifies a journal by reach, derived solely from
// works_count and h_index thresholds.
type JournalCategory string

const (
	// CategoryTopTier marks flagship venues (h_index>100 or works>50000).
	CategoryTopTier JournalCategory = "top_tier"

	// CategoryBroadAudience marks large general venues (works>10000).
	CategoryBroadAudience JournalCategory = "broad_audience"

	// CategoryNiche marks established specialist venues (works>1000).
	CategoryNiche JournalCategory = "niche"

	// CategoryEmerging marks small or young venues.
	CategoryEmerging JournalCategory = "emerging"
)

// JournalMetrics holds the provider-sourced bibliometric indicators.
type JournalMetrics struct {
	HIndex             int
	WorksCount         int
	CitedByCount       int
	TwoYrMeanCitedness float64
}

// Journal is a candidate or result journal, created fresh per request from
// provider data and never persisted by the core.
type Journal struct {
	// ID is the stable provider identifier (e.g. "S137773608").
	ID string

	// Name is the journal display name.
	Name string

	// ISSN is the linking ISSN, empty when the provider has none.
	ISSN string

	// Publisher is the host organization display name.
	Publisher string

	// IsOpenAccess reports whether the journal is fully open access.
	IsOpenAccess bool

	// IsInDOAJ reports DOAJ listing.
	IsInDOAJ bool

	// Metrics are the provider bibliometric indicators.
	Metrics JournalMetrics

	// Topics are the journal's topic display names.
	Topics []string

	// Category is derived from Metrics via CategorizeJournal.
	Category JournalCategory

	// RelevanceScore is the ranking score, max-normalized into [0,1] in the
	// final result set.
	RelevanceScore float64

	// MatchReason summarizes why this journal was retrieved.
	MatchReason string

	// MatchDetails lists individual scoring signals that applied.
	MatchDetails []string

	// Warnings carries advisory notes from the topic relevance validator.
	Warnings []string
}

// CategorizeJournal derives the journal category from h-index and works
// count. Thresholds are evaluated in priority order: top_tier first, then
// broad_audience, then niche.
func CategorizeJournal(hIndex, worksCount int) JournalCategory {
	switch {
	case hIndex > 100 || worksCount > 50000:
		return CategoryTopTier
	case worksCount > 10000:
		return CategoryBroadAudience
	case worksCount > 1000:
		return CategoryNiche
	default:
		return CategoryEmerging
	}
}

// SubfieldStats holds percentile distributions of journal metrics within one
// provider subfield, used for field-normalized scoring. Cached with a 24-hour
// TTL keyed by subfield ID.
type SubfieldStats struct {
	SubfieldID   int
	JournalCount int

	HIndexMedian float64
	HIndexP25    float64
	HIndexP75    float64
	HIndexP90    float64

	CitednessMedian float64
	CitednessP25    float64
	CitednessP75    float64
	CitednessP90    float64

	CalculatedAt time.Time
}
