package recommend

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
)

const (
	// keywordSeedScore is the prior for candidates found by the
	// keyword-driven strategies (works-based and direct-source).
	keywordSeedScore = 1.0

	// corroborationBoost is added when a topic- or subfield-driven strategy
	// re-finds a keyword-driven candidate.
	corroborationBoost = 2.0

	// hydratedSeedScore is the prior for candidates only the topic or
	// subfield strategies found.
	hydratedSeedScore = 0.8

	// DefaultMinWorksFloor filters out venues with too few publications to
	// be credible recommendations.
	DefaultMinWorksFloor = 500

	// mergeHydrationCap bounds how many topic-only candidates are hydrated
	// with a per-source lookup.
	mergeHydrationCap = 25
)

// Merger combines candidate maps from the four strategies into one deduped
// map with cumulative evidence.
type Merger struct {
	provider      Provider
	minWorksFloor int
	logger        zerolog.Logger
}

// NewMerger creates a merger. floor <= 0 selects DefaultMinWorksFloor.
func NewMerger(provider Provider, floor int, logger zerolog.Logger) *Merger {
	if floor <= 0 {
		floor = DefaultMinWorksFloor
	}
	return &Merger{
		provider:      provider,
		minWorksFloor: floor,
		logger:        logger.With().Str("component", "merger").Logger(),
	}
}

// Merge dedups the strategy outputs by source ID. Keyword-driven candidates
// seed at 1.0; a topic- or subfield-driven re-find boosts an existing
// candidate by 2.0 and takes over its match reason; candidates only the
// aggregation strategies found are hydrated, filtered by the minimum-works
// floor, and seeded at 0.8.
func (m *Merger) Merge(ctx context.Context, works, direct, topic, subfield CandidateMap) CandidateMap {
	merged := make(CandidateMap, len(works)+len(direct))

	for _, cm := range []CandidateMap{works, direct} {
		for id, c := range cm {
			existing, ok := merged[id]
			if !ok {
				c.Score = keywordSeedScore
				merged[id] = c
				continue
			}
			existing.Hits += c.Hits
			existing.MatchDetails = append(existing.MatchDetails, c.MatchDetails...)
			if existing.Source == nil {
				existing.Source = c.Source
			}
		}
	}

	var toHydrate []*Candidate
	for _, cm := range []CandidateMap{topic, subfield} {
		for id, c := range cm {
			if existing, ok := merged[id]; ok {
				existing.Score += corroborationBoost
				existing.Hits += c.Hits
				existing.MatchReason = c.MatchReason
				continue
			}
			if prev, ok := index(toHydrate, id); ok {
				prev.Hits += c.Hits
				continue
			}
			toHydrate = append(toHydrate, c)
		}
	}

	// Hydrate the strongest aggregation-only candidates so the works floor
	// and later scoring have full records.
	sort.Slice(toHydrate, func(i, j int) bool {
		if toHydrate[i].Hits != toHydrate[j].Hits {
			return toHydrate[i].Hits > toHydrate[j].Hits
		}
		return toHydrate[i].ID < toHydrate[j].ID
	})
	hydrated := 0
	for _, c := range toHydrate {
		if hydrated >= mergeHydrationCap {
			break
		}
		if c.Source == nil {
			src, err := m.provider.GetSource(ctx, c.ID)
			if err != nil {
				m.logger.Debug().Err(err).Str("source_id", c.ID).Msg("hydration failed, dropping candidate")
				continue
			}
			c.Source = src
		}
		hydrated++
		if c.Source.WorksCount < m.minWorksFloor {
			continue
		}
		c.Score = hydratedSeedScore
		if c.Name == "" {
			c.Name = c.Source.DisplayName
		}
		merged[c.ID] = c
	}

	return merged
}

// Hydrate fills in full source records for merged candidates that still
// lack one. Candidates whose lookup fails are dropped; scoring needs the
// metrics on the full record. The minimum-works floor applies here too, so
// keyword-strategy candidates hydrated after the merge face the same bar as
// aggregation-only ones.
func (m *Merger) Hydrate(ctx context.Context, candidates CandidateMap) {
	for id, c := range candidates {
		if c.Source == nil {
			src, err := m.provider.GetSource(ctx, id)
			if err != nil {
				m.logger.Debug().Err(err).Str("source_id", id).Msg("hydration failed, dropping candidate")
				delete(candidates, id)
				continue
			}
			c.Source = src
			if c.Name == "" {
				c.Name = src.DisplayName
			}
		}
		if c.Source.WorksCount < m.minWorksFloor {
			m.logger.Debug().Str("source_id", id).Int("works_count", c.Source.WorksCount).Msg("below works floor, dropping candidate")
			delete(candidates, id)
		}
	}
}

func index(list []*Candidate, id string) (*Candidate, bool) {
	for _, c := range list {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}
