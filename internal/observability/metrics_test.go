package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: prometheus/promauto registers metrics globally, so we need to use
// unique namespaces per test to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	// Use unique namespace to avoid conflicts with other tests
	m := NewMetrics("test_journalrec_new")

	assert.NotNil(t, m.AnalysesStarted)
	assert.NotNil(t, m.AnalysesCompleted)
	assert.NotNil(t, m.AnalysesFailed)
	assert.NotNil(t, m.AnalysisDuration)
	assert.NotNil(t, m.DisciplinesDetected)
	assert.NotNil(t, m.RecommendationsStarted)
	assert.NotNil(t, m.RecommendationsCompleted)
	assert.NotNil(t, m.RecommendationsFailed)
	assert.NotNil(t, m.JournalsReturned)
	assert.NotNil(t, m.BroadenedSearches)
	assert.NotNil(t, m.CandidatesByStrategy)
	assert.NotNil(t, m.ProviderRequestsTotal)
	assert.NotNil(t, m.ProviderRequestsFailed)
	assert.NotNil(t, m.LLMRequestsTotal)
	assert.NotNil(t, m.VerificationsTotal)
}

func TestRecordAnalysisStarted(t *testing.T) {
	m := NewMetrics("test_analysis_started")

	initial := testutil.ToFloat64(m.AnalysesStarted)
	m.RecordAnalysisStarted()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.AnalysesStarted))
}

func TestRecordAnalysisCompleted(t *testing.T) {
	m := NewMetrics("test_analysis_completed")

	initial := testutil.ToFloat64(m.AnalysesCompleted)
	m.RecordAnalysisCompleted(5.5, 0.72)
	assert.Equal(t, initial+1, testutil.ToFloat64(m.AnalysesCompleted))

	// Check histogram
	histCount, err := getHistogramSampleCount(m.AnalysisDuration)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), histCount)
}

func TestRecordAnalysisFailed(t *testing.T) {
	m := NewMetrics("test_analysis_failed")

	initial := testutil.ToFloat64(m.AnalysesFailed)
	m.RecordAnalysisFailed(3.0)
	assert.Equal(t, initial+1, testutil.ToFloat64(m.AnalysesFailed))
}

func TestRecordDisciplinesDetected(t *testing.T) {
	m := NewMetrics("test_disciplines_detected")

	m.RecordDisciplinesDetected("keyword", 3)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.DisciplinesDetected.WithLabelValues("keyword")))
}

func TestRecordRecommendationStarted(t *testing.T) {
	m := NewMetrics("test_rec_started")

	initial := testutil.ToFloat64(m.RecommendationsStarted)
	m.RecordRecommendationStarted()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.RecommendationsStarted))
}

func TestRecordRecommendationCompleted(t *testing.T) {
	m := NewMetrics("test_rec_completed")

	m.RecordRecommendationCompleted(8, 2.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RecommendationsCompleted))

	histCount, err := getHistogramSampleCount(m.JournalsReturned)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), histCount)
}

func TestRecordRecommendationFailed(t *testing.T) {
	m := NewMetrics("test_rec_failed")

	initial := testutil.ToFloat64(m.RecommendationsFailed)
	m.RecordRecommendationFailed(1.0)
	assert.Equal(t, initial+1, testutil.ToFloat64(m.RecommendationsFailed))
}

func TestRecordBroadenedSearch(t *testing.T) {
	m := NewMetrics("test_broadened")

	initial := testutil.ToFloat64(m.BroadenedSearches)
	m.RecordBroadenedSearch()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.BroadenedSearches))
}

func TestRecordCandidates(t *testing.T) {
	m := NewMetrics("test_candidates")

	m.RecordCandidates("works_based", 25)
	assert.Equal(t, float64(25), testutil.ToFloat64(m.CandidatesByStrategy.WithLabelValues("works_based")))
}

func TestRecordProviderRequest(t *testing.T) {
	m := NewMetrics("test_provider_request")

	m.RecordProviderRequest("works", 0.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("works")))
}

func TestRecordProviderRequestFailed(t *testing.T) {
	m := NewMetrics("test_provider_request_failed")

	m.RecordProviderRequestFailed("sources", "timeout")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ProviderRequestsFailed.WithLabelValues("sources", "timeout")))
}

func TestRecordProviderRateLimited(t *testing.T) {
	m := NewMetrics("test_provider_rate_limited")

	initial := testutil.ToFloat64(m.ProviderRateLimited)
	m.RecordProviderRateLimited()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.ProviderRateLimited))
}

func TestRecordLLMRequest(t *testing.T) {
	m := NewMetrics("test_llm_request")

	m.RecordLLMRequest("paper_analysis", "claude-3-sonnet-20240229", 2.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("paper_analysis", "claude-3-sonnet-20240229")))
}

func TestRecordLLMRequestFailed(t *testing.T) {
	m := NewMetrics("test_llm_request_failed")

	m.RecordLLMRequestFailed("paper_analysis", "gpt-4-turbo", "rate_limit")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LLMRequestsFailed.WithLabelValues("paper_analysis", "gpt-4-turbo", "rate_limit")))
}

func TestRecordVerification(t *testing.T) {
	m := NewMetrics("test_verification")

	m.RecordVerification("verified")
	m.RecordVerification("verified")
	m.RecordVerification("verification unavailable")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.VerificationsTotal.WithLabelValues("verified")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.VerificationsTotal.WithLabelValues("verification unavailable")))
}

// Helper to get histogram sample count
func getHistogramSampleCount(h prometheus.Histogram) (uint64, error) {
	ch := make(chan prometheus.Metric, 1)
	h.Collect(ch)
	close(ch)

	var m prometheus.Metric
	for m = range ch {
		break
	}

	var dto = &dto.Metric{}
	if err := m.Write(dto); err != nil {
		return 0, err
	}

	return dto.Histogram.GetSampleCount(), nil
}
