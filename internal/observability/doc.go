// Package observability provides logging and metrics support for the
// journal recommender service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for analyses, recommendations, and provider calls
//   - Context helpers for propagating observability data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("request_id", reqID).Msg("analysis started")
//
// Add request scope to logger:
//
//	logger = observability.WithRequestScope(logger, requestID, userID)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("journal_recommender")
//
// Record metrics:
//
//	metrics.RecordAnalysisStarted()
//	metrics.RecordCandidates("works_based", 25)
//	metrics.RecordProviderRequest("works", elapsed.Seconds())
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithUserID(ctx, userID)
//
//	reqID := observability.RequestIDFromContext(ctx)
//	userID := observability.UserIDFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: Recommendation request identifier
//   - user_id: User identifier
//   - search_id: Persisted search log identifier
//   - query: Free-text search query sent to the provider
//   - strategy: Retrieval strategy (works_based, direct_source, topic_agg, subfield)
//   - journal_id: Provider source identifier
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
