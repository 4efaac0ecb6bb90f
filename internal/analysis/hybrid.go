package analysis

import (
	"context"
	"sort"

	"github.com/helixir/journal-recommender-service/internal/domain"
)

const (
	// DefaultHybridMinResults is the ML result count below which the
	// keyword detector takes over.
	DefaultHybridMinResults = 2

	// corroborationBoost multiplies confidence when both detectors agree on
	// a subfield.
	corroborationBoost = 1.2

	// DefaultMLSourceWeight and DefaultKeywordSourceWeight order merged
	// results by confidence x source weight.
	DefaultMLSourceWeight      = 0.7
	DefaultKeywordSourceWeight = 0.3
)

// HybridDetectorConfig configures the hybrid discipline detector.
type HybridDetectorConfig struct {
	// PreferUniversal attempts ML detection first.
	PreferUniversal bool

	// MinResults is the ML result count considered sufficient.
	MinResults int

	// MLWeight and KeywordWeight are the source weights for merge-mode
	// ordering.
	MLWeight      float64
	KeywordWeight float64
}

// applyDefaults fills zero-valued fields.
func (c *HybridDetectorConfig) applyDefaults() {
	if c.MinResults <= 0 {
		c.MinResults = DefaultHybridMinResults
	}
	if c.MLWeight <= 0 {
		c.MLWeight = DefaultMLSourceWeight
	}
	if c.KeywordWeight <= 0 {
		c.KeywordWeight = DefaultKeywordSourceWeight
	}
}

// HybridDisciplineDetector composes the ML and keyword detectors: ML-first
// with keyword fallback, plus a merge mode combining both signals.
type HybridDisciplineDetector struct {
	ml      *MLDisciplineDetector
	keyword *KeywordDisciplineDetector
	cfg     HybridDetectorConfig
}

// NewHybridDisciplineDetector creates a hybrid detector over the two
// strategies.
func NewHybridDisciplineDetector(ml *MLDisciplineDetector, keyword *KeywordDisciplineDetector, cfg HybridDetectorConfig) *HybridDisciplineDetector {
	cfg.applyDefaults()
	return &HybridDisciplineDetector{ml: ml, keyword: keyword, cfg: cfg}
}

// Detect returns the unified discipline list. When PreferUniversal is set,
// ML detection runs first and is returned as-is if it yields at least
// MinResults entries; otherwise the keyword detector's output is returned in
// the same shape. An empty ML result counts as insufficient, not failed.
func (d *HybridDisciplineDetector) Detect(ctx context.Context, title, abstract string, keywords []string) []domain.DetectedDiscipline {
	if d.cfg.PreferUniversal {
		analysis := d.ml.Analyze(ctx, title, abstract, keywords)
		if len(analysis.Disciplines) >= d.cfg.MinResults {
			return analysis.Disciplines
		}
	}
	return d.keyword.Detect(title, abstract, keywords)
}

// Merge runs both detectors unconditionally and merges their outputs keyed
// by numeric subfield ID. ML results take precedence on ID collision; a
// subfield found by both gets its confidence boosted by 1.2x (clamped to
// 1.0). The merged list is sorted by confidence x source weight descending.
func (d *HybridDisciplineDetector) Merge(ctx context.Context, title, abstract string, keywords []string) []domain.DetectedDiscipline {
	analysis := d.ml.Analyze(ctx, title, abstract, keywords)
	mlResults := analysis.Disciplines
	kwResults := d.keyword.Detect(title, abstract, keywords)
	return d.merge(mlResults, kwResults)
}

// merge combines detector outputs per the collision and boost rules.
func (d *HybridDisciplineDetector) merge(mlResults, kwResults []domain.DetectedDiscipline) []domain.DetectedDiscipline {
	byID := make(map[int]*domain.DetectedDiscipline)
	var order []int

	for i := range mlResults {
		disc := mlResults[i]
		if _, ok := byID[disc.SubfieldID]; ok {
			continue
		}
		byID[disc.SubfieldID] = &disc
		order = append(order, disc.SubfieldID)
	}

	for i := range kwResults {
		disc := kwResults[i]
		if existing, ok := byID[disc.SubfieldID]; ok {
			// Corroborated by both detectors.
			boosted := existing.Confidence * corroborationBoost
			if boosted > 1.0 {
				boosted = 1.0
			}
			existing.Confidence = boosted
			existing.Evidence = append(existing.Evidence, disc.Evidence...)
			continue
		}
		byID[disc.SubfieldID] = &disc
		order = append(order, disc.SubfieldID)
	}

	merged := make([]domain.DetectedDiscipline, 0, len(order))
	for _, id := range order {
		merged = append(merged, *byID[id])
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return d.sortKey(merged[i]) > d.sortKey(merged[j])
	})
	return merged
}

// sortKey weighs confidence by detection source.
func (d *HybridDisciplineDetector) sortKey(disc domain.DetectedDiscipline) float64 {
	if disc.Source == domain.DisciplineSourceOpenAlexML {
		return disc.Confidence * d.cfg.MLWeight
	}
	return disc.Confidence * d.cfg.KeywordWeight
}
