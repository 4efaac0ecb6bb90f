package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the journal recommender
// service. Metrics are organized by subsystem: analyses, recommendations,
// provider requests, LLM enrichment, and verification. All counters and
// histograms are registered via promauto with the default registry.
type Metrics struct {
	// AnalysesStarted counts manuscript analyses initiated.
	AnalysesStarted prometheus.Counter

	// AnalysesCompleted counts analyses that finished successfully.
	AnalysesCompleted prometheus.Counter

	// AnalysesFailed counts analyses that ended in failure.
	AnalysesFailed prometheus.Counter

	// AnalysisDuration observes end-to-end analysis duration in seconds.
	AnalysisDuration prometheus.Histogram

	// DisciplinesDetected counts detected disciplines, labeled by detection source.
	DisciplinesDetected *prometheus.CounterVec

	// AnalysisConfidence observes the overall confidence score distribution.
	AnalysisConfidence prometheus.Histogram

	// RecommendationsStarted counts recommendation requests initiated.
	RecommendationsStarted prometheus.Counter

	// RecommendationsCompleted counts recommendation requests that succeeded.
	RecommendationsCompleted prometheus.Counter

	// RecommendationsFailed counts recommendation requests that failed.
	RecommendationsFailed prometheus.Counter

	// RecommendationDuration observes recommendation pipeline duration in seconds.
	RecommendationDuration prometheus.Histogram

	// JournalsReturned observes the result list size distribution.
	JournalsReturned prometheus.Histogram

	// BroadenedSearches counts requests that needed the fallback search.
	BroadenedSearches prometheus.Counter

	// CandidatesByStrategy counts retrieved candidates, labeled by retrieval strategy.
	CandidatesByStrategy *prometheus.CounterVec

	// ProviderRequestsTotal counts HTTP requests to the bibliographic provider, labeled by endpoint.
	ProviderRequestsTotal *prometheus.CounterVec

	// ProviderRequestsFailed counts failed provider requests, labeled by endpoint and error type.
	ProviderRequestsFailed *prometheus.CounterVec

	// ProviderRequestDuration observes provider request duration in seconds, labeled by endpoint.
	ProviderRequestDuration *prometheus.HistogramVec

	// ProviderRateLimited counts rate-limited provider responses.
	ProviderRateLimited prometheus.Counter

	// LLMRequestsTotal counts LLM API requests, labeled by mode and model.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed LLM API requests, labeled by mode, model, and error type.
	LLMRequestsFailed *prometheus.CounterVec

	// LLMRequestDuration observes LLM API request duration in seconds, labeled by mode and model.
	LLMRequestDuration *prometheus.HistogramVec

	// VerificationsTotal counts journal verifications, labeled by status.
	VerificationsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Analyses
		AnalysesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_started_total",
			Help:      "Total number of manuscript analyses started",
		}),
		AnalysesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_completed_total",
			Help:      "Total number of manuscript analyses completed successfully",
		}),
		AnalysesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_failed_total",
			Help:      "Total number of manuscript analyses that failed",
		}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of manuscript analyses in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		DisciplinesDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disciplines_detected_total",
			Help:      "Total number of disciplines detected by detection source",
		}, []string{"source"}),
		AnalysisConfidence: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_confidence",
			Help:      "Overall confidence score of completed analyses",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),

		// Recommendations
		RecommendationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_started_total",
			Help:      "Total number of recommendation requests started",
		}),
		RecommendationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_completed_total",
			Help:      "Total number of recommendation requests completed successfully",
		}),
		RecommendationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_failed_total",
			Help:      "Total number of recommendation requests that failed",
		}),
		RecommendationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_duration_seconds",
			Help:      "Duration of recommendation requests in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		JournalsReturned: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "journals_returned",
			Help:      "Number of journals returned per recommendation request",
			Buckets:   []float64{0, 1, 3, 5, 7, 10, 15, 25},
		}),
		BroadenedSearches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadened_searches_total",
			Help:      "Total number of requests that fell back to a broadened search",
		}),
		CandidatesByStrategy: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_by_strategy_total",
			Help:      "Total number of journal candidates retrieved by strategy",
		}, []string{"strategy"}),

		// Provider
		ProviderRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of requests to the bibliographic provider",
		}, []string{"endpoint"}),
		ProviderRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_failed_total",
			Help:      "Total number of failed requests to the bibliographic provider",
		}, []string{"endpoint", "error_type"}),
		ProviderRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of requests to the bibliographic provider in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		ProviderRateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_rate_limited_total",
			Help:      "Total number of rate limit responses from the bibliographic provider",
		}),

		// LLM
		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM enrichment requests by mode",
		}, []string{"mode", "model"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM enrichment requests by mode",
		}, []string{"mode", "model", "error_type"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM enrichment requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"mode", "model"}),

		// Verification
		VerificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Total number of journal verifications by status",
		}, []string{"status"}),
	}
}

// RecordAnalysisStarted records that an analysis has started.
func (m *Metrics) RecordAnalysisStarted() {
	m.AnalysesStarted.Inc()
}

// RecordAnalysisCompleted records a successful analysis with its confidence.
func (m *Metrics) RecordAnalysisCompleted(durationSeconds, confidence float64) {
	m.AnalysesCompleted.Inc()
	m.AnalysisDuration.Observe(durationSeconds)
	m.AnalysisConfidence.Observe(confidence)
}

// RecordAnalysisFailed records a failed analysis.
func (m *Metrics) RecordAnalysisFailed(durationSeconds float64) {
	m.AnalysesFailed.Inc()
	m.AnalysisDuration.Observe(durationSeconds)
}

// RecordDisciplinesDetected records detected disciplines by source.
func (m *Metrics) RecordDisciplinesDetected(source string, count int) {
	m.DisciplinesDetected.WithLabelValues(source).Add(float64(count))
}

// RecordRecommendationStarted records that a recommendation request started.
func (m *Metrics) RecordRecommendationStarted() {
	m.RecommendationsStarted.Inc()
}

// RecordRecommendationCompleted records a successful recommendation request.
func (m *Metrics) RecordRecommendationCompleted(journalCount int, durationSeconds float64) {
	m.RecommendationsCompleted.Inc()
	m.RecommendationDuration.Observe(durationSeconds)
	m.JournalsReturned.Observe(float64(journalCount))
}

// RecordRecommendationFailed records a failed recommendation request.
func (m *Metrics) RecordRecommendationFailed(durationSeconds float64) {
	m.RecommendationsFailed.Inc()
	m.RecommendationDuration.Observe(durationSeconds)
}

// RecordBroadenedSearch records a fallback to the broadened search.
func (m *Metrics) RecordBroadenedSearch() {
	m.BroadenedSearches.Inc()
}

// RecordCandidates records retrieved candidates for one strategy.
func (m *Metrics) RecordCandidates(strategy string, count int) {
	m.CandidatesByStrategy.WithLabelValues(strategy).Add(float64(count))
}

// RecordProviderRequest records a request to the bibliographic provider.
func (m *Metrics) RecordProviderRequest(endpoint string, durationSeconds float64) {
	m.ProviderRequestsTotal.WithLabelValues(endpoint).Inc()
	m.ProviderRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordProviderRequestFailed records a failed provider request.
func (m *Metrics) RecordProviderRequestFailed(endpoint, errorType string) {
	m.ProviderRequestsFailed.WithLabelValues(endpoint, errorType).Inc()
}

// RecordProviderRateLimited records a rate limit response from the provider.
func (m *Metrics) RecordProviderRateLimited() {
	m.ProviderRateLimited.Inc()
}

// RecordLLMRequest records an LLM enrichment request.
func (m *Metrics) RecordLLMRequest(mode, model string, durationSeconds float64) {
	m.LLMRequestsTotal.WithLabelValues(mode, model).Inc()
	m.LLMRequestDuration.WithLabelValues(mode, model).Observe(durationSeconds)
}

// RecordLLMRequestFailed records a failed LLM enrichment request.
func (m *Metrics) RecordLLMRequestFailed(mode, model, errorType string) {
	m.LLMRequestsFailed.WithLabelValues(mode, model, errorType).Inc()
}

// RecordVerification records a journal verification outcome.
func (m *Metrics) RecordVerification(status string) {
	m.VerificationsTotal.WithLabelValues(status).Inc()
}
