package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

const (
	// statsCacheTTL is how long a subfield distribution stays valid.
	statsCacheTTL = 24 * time.Hour

	// statsCacheSize bounds the number of cached subfields.
	statsCacheSize = 256

	// statsJournalLimit is how many venues per subfield are considered.
	statsJournalLimit = 100

	// statsHydrationLimit is how many of those are fully hydrated for
	// metrics. Per-source lookups are the expensive part.
	statsHydrationLimit = 50

	// statsMinSamples is the minimum metric count below which the heuristic
	// default distribution is returned instead.
	statsMinSamples = 4
)

// FieldStats computes and caches per-subfield metric distributions used by
// the field-normalized scoring variant.
type FieldStats struct {
	provider Provider
	cache    *expirable.LRU[int, *domain.SubfieldStats]
	logger   zerolog.Logger
}

// NewFieldStats creates the stats provider with a TTL cache.
func NewFieldStats(provider Provider, logger zerolog.Logger) *FieldStats {
	return &FieldStats{
		provider: provider,
		cache:    expirable.NewLRU[int, *domain.SubfieldStats](statsCacheSize, nil, statsCacheTTL),
		logger:   logger.With().Str("component", "fieldstats").Logger(),
	}
}

// Get returns the metric distribution for a subfield, computing it on cache
// miss. A provider failure during computation degrades to the heuristic
// default distribution rather than failing the request.
func (f *FieldStats) Get(ctx context.Context, subfieldID int) *domain.SubfieldStats {
	if stats, ok := f.cache.Get(subfieldID); ok {
		return stats
	}

	stats := f.compute(ctx, subfieldID)
	f.cache.Add(subfieldID, stats)
	return stats
}

func (f *FieldStats) compute(ctx context.Context, subfieldID int) *domain.SubfieldStats {
	filter := fmt.Sprintf("topics.subfield.id:%d", subfieldID)
	buckets, err := f.provider.GroupWorksBySource(ctx, []string{filter})
	if err != nil {
		f.logger.Warn().Err(err).Int("subfield_id", subfieldID).Msg("subfield aggregation failed, using default distribution")
		return defaultStats(subfieldID)
	}
	if len(buckets) > statsJournalLimit {
		buckets = buckets[:statsJournalLimit]
	}

	var hIndexes, citedness []float64
	hydrated := 0
	for _, bucket := range buckets {
		if hydrated >= statsHydrationLimit {
			break
		}
		if bucket.Key == "" {
			continue
		}
		src, err := f.provider.GetSource(ctx, bucket.Key)
		if err != nil {
			continue
		}
		hydrated++
		if src.SummaryStats.HIndex > 0 {
			hIndexes = append(hIndexes, float64(src.SummaryStats.HIndex))
		}
		if src.SummaryStats.TwoYrMeanCitedness > 0 {
			citedness = append(citedness, src.SummaryStats.TwoYrMeanCitedness)
		}
	}

	if len(hIndexes) < statsMinSamples || len(citedness) < statsMinSamples {
		f.logger.Debug().Int("subfield_id", subfieldID).
			Int("h_samples", len(hIndexes)).Int("c_samples", len(citedness)).
			Msg("too few metric samples, using default distribution")
		return defaultStats(subfieldID)
	}

	sort.Float64s(hIndexes)
	sort.Float64s(citedness)

	stats := &domain.SubfieldStats{
		SubfieldID:   subfieldID,
		JournalCount: hydrated,

		HIndexP25:    quantile(hIndexes, 0.25),
		HIndexMedian: quantile(hIndexes, 0.50),
		HIndexP75:    quantile(hIndexes, 0.75),
		HIndexP90:    indexPercentile(hIndexes, 0.90),

		CitednessP25:    quantile(citedness, 0.25),
		CitednessMedian: quantile(citedness, 0.50),
		CitednessP75:    quantile(citedness, 0.75),
		CitednessP90:    indexPercentile(citedness, 0.90),

		CalculatedAt: time.Now().UTC(),
	}
	return stats
}

// quantile interpolates linearly between adjacent order statistics.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(pos)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// indexPercentile picks the order statistic at the given rank without
// interpolation. Small subfields get an honest tail value this way instead
// of an invented one.
func indexPercentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(q * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// defaultStats is the fallback distribution for subfields with too little
// data. Anchors approximate a mid-size biomedical subfield.
func defaultStats(subfieldID int) *domain.SubfieldStats {
	return &domain.SubfieldStats{
		SubfieldID: subfieldID,

		HIndexP25:    20,
		HIndexMedian: 50,
		HIndexP75:    100,
		HIndexP90:    150,

		CitednessP25:    1.0,
		CitednessMedian: 2.0,
		CitednessP75:    4.0,
		CitednessP90:    8.0,

		CalculatedAt: time.Now().UTC(),
	}
}
