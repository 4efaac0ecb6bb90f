package recommend

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/journal-recommender-service/internal/domain"
	"github.com/helixir/journal-recommender-service/internal/openalex"
)

func fullSource(id, name string, hIndex int) openalex.Source {
	return openalex.Source{
		ID:           "https://openalex.org/" + id,
		DisplayName:  name,
		Type:         "journal",
		WorksCount:   20000,
		SummaryStats: openalex.SummaryStats{HIndex: hIndex},
		Topics:       []openalex.Topic{{DisplayName: "Cardiology and Cardiovascular Medicine"}},
	}
}

func pipelineAnalysis() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		SearchTerms: []string{"arrhythmia detection"},
		TopicIDs:    []string{"T10036"},
		Disciplines: []domain.DetectedDiscipline{
			{Name: "cardiology", SubfieldID: 2705, SubfieldName: "Cardiology and Cardiovascular Medicine", Confidence: 0.9},
		},
	}
}

func TestRecommendFullPipeline(t *testing.T) {
	records := map[string]openalex.Source{
		"S1": fullSource("S1", "Circulation", 350),
		"S2": fullSource("S2", "Heart Rhythm", 150),
		"S3": fullSource("S3", "Europace", 95),
	}
	provider := &fakeProvider{
		searchWorks: func(string, openalex.WorkSearchOptions) (*openalex.WorksResponse, error) {
			return &openalex.WorksResponse{Results: []openalex.Work{
				journalWork("S1", "Circulation"),
				journalWork("S1", "Circulation"),
				journalWork("S2", "Heart Rhythm"),
				journalWork("S3", "Europace"),
			}}, nil
		},
		groupWorks: func(filters []string) ([]openalex.GroupCount, error) {
			return []openalex.GroupCount{
				{Key: "https://openalex.org/S1", KeyDisplayName: "Circulation", Count: 80},
			}, nil
		},
		searchSources: func(string, int) (*openalex.SourcesResponse, error) {
			return &openalex.SourcesResponse{}, nil
		},
		getSource: func(id string) (*openalex.Source, error) {
			src, ok := records[id]
			if !ok {
				return nil, domain.NewNotFoundError("source", id)
			}
			return &src, nil
		},
	}

	r := New(Config{}, provider, zerolog.Nop())
	journals, err := r.Recommend(context.Background(), pipelineAnalysis())

	require.NoError(t, err)
	require.Len(t, journals, 3)
	assert.Equal(t, "Circulation", journals[0].Name, "corroborated candidate wins")
	assert.InDelta(t, 1.0, journals[0].RelevanceScore, 0.001)
	for _, j := range journals[1:] {
		assert.Less(t, j.RelevanceScore, 1.0)
		assert.Greater(t, j.RelevanceScore, 0.0)
	}
}

func TestRecommendBroadensThinResults(t *testing.T) {
	sourcesCalls := 0
	provider := &fakeProvider{
		searchWorks: func(string, openalex.WorkSearchOptions) (*openalex.WorksResponse, error) {
			return &openalex.WorksResponse{Results: []openalex.Work{
				journalWork("S1", "Circulation"),
			}}, nil
		},
		getSource: func(id string) (*openalex.Source, error) {
			src := fullSource(id, "Circulation", 350)
			return &src, nil
		},
		searchSources: func(string, int) (*openalex.SourcesResponse, error) {
			sourcesCalls++
			if sourcesCalls == 1 {
				// The direct-source pass finds nothing.
				return &openalex.SourcesResponse{}, nil
			}
			return &openalex.SourcesResponse{Results: []openalex.Source{
				fullSource("S5", "Cardiovascular Research", 120),
				fullSource("S6", "International Journal of Cardiology", 110),
				fullSource("S7", "Open Heart", 40),
			}}, nil
		},
	}

	analysis := &domain.AnalysisResult{SearchTerms: []string{"arrhythmia detection"}}
	r := New(Config{}, provider, zerolog.Nop())
	journals, err := r.Recommend(context.Background(), analysis)

	require.NoError(t, err)
	require.Len(t, journals, 4)
	assert.InDelta(t, 1.0, journals[0].RelevanceScore, 0.001)
	for _, j := range journals[1:] {
		assert.Equal(t, "broader search result", j.MatchReason)
		assert.InDelta(t, broadenScore, j.RelevanceScore, 0.001)
	}
}

func TestRecommendInsufficientData(t *testing.T) {
	r := New(Config{}, &fakeProvider{}, zerolog.Nop())

	journals, err := r.Recommend(context.Background(), &domain.AnalysisResult{
		SearchTerms: []string{"unfindable topic"},
	})

	assert.Nil(t, journals)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestRecommendTruncatesToMaxResults(t *testing.T) {
	provider := &fakeProvider{
		searchSources: func(string, int) (*openalex.SourcesResponse, error) {
			return &openalex.SourcesResponse{Results: []openalex.Source{
				fullSource("S1", "Circulation", 350),
				fullSource("S2", "Heart Rhythm", 150),
				fullSource("S3", "Europace", 95),
				fullSource("S4", "Cardiovascular Research", 120),
				fullSource("S5", "Open Heart", 40),
			}}, nil
		},
	}

	analysis := &domain.AnalysisResult{SearchTerms: []string{"cardiology"}}
	r := New(Config{MaxResults: 2}, provider, zerolog.Nop())
	journals, err := r.Recommend(context.Background(), analysis)

	require.NoError(t, err)
	assert.Len(t, journals, 2)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()
	assert.Equal(t, DefaultMaxResults, cfg.MaxResults)
	assert.Equal(t, DefaultMinWorksFloor, cfg.MinWorksFloor)
}
