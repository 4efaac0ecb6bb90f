// Package server provides the HTTP REST API for the journal recommender
// service: manuscript analysis, journal recommendations, user profiles,
// saved searches, feedback, and share links.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/helixir/journal-recommender-service/internal/analysis"
	"github.com/helixir/journal-recommender-service/internal/database"
	"github.com/helixir/journal-recommender-service/internal/domain"
	"github.com/helixir/journal-recommender-service/internal/events"
	"github.com/helixir/journal-recommender-service/internal/observability"
	"github.com/helixir/journal-recommender-service/internal/repository"
	"github.com/helixir/journal-recommender-service/internal/verification"
)

// Analyzer runs the manuscript analysis pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, query domain.ManuscriptQuery, opts analysis.AnalyzeOptions) *domain.AnalysisResult
}

// Recommender produces a ranked journal list for an analyzed manuscript.
type Recommender interface {
	Recommend(ctx context.Context, analysis *domain.AnalysisResult) ([]domain.Journal, error)
}

// Verifier checks recommended journals against fresh provider records.
type Verifier interface {
	VerifyBatch(ctx context.Context, journals []domain.Journal) []verification.Result
}

// Server is the HTTP REST API server.
type Server struct {
	router       chi.Router
	httpServer   *http.Server
	analyzer     Analyzer
	recommender  Recommender
	verifier     Verifier
	profileRepo  repository.ProfileRepository
	searchRepo   repository.SearchRepository
	feedbackRepo repository.FeedbackRepository
	shareRepo    repository.ShareRepository
	publisher    events.Publisher
	metrics      *observability.Metrics
	db           *database.DB
	validate     *validator.Validate
	logger       zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MetricsEnabled mounts the Prometheus handler at MetricsPath.
	MetricsEnabled bool
	MetricsPath    string
}

// Deps bundles the server's collaborators. Repos, verifier, publisher and
// metrics may be nil; the corresponding endpoints or hooks degrade to
// disabled.
type Deps struct {
	Analyzer     Analyzer
	Recommender  Recommender
	Verifier     Verifier
	ProfileRepo  repository.ProfileRepository
	SearchRepo   repository.SearchRepository
	FeedbackRepo repository.FeedbackRepository
	ShareRepo    repository.ShareRepository
	Publisher    events.Publisher
	Metrics      *observability.Metrics
	DB           *database.DB
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(cfg Config, deps Deps, logger zerolog.Logger) *Server {
	s := &Server{
		analyzer:     deps.Analyzer,
		recommender:  deps.Recommender,
		verifier:     deps.Verifier,
		profileRepo:  deps.ProfileRepo,
		searchRepo:   deps.SearchRepo,
		feedbackRepo: deps.FeedbackRepo,
		shareRepo:    deps.ShareRepo,
		publisher:    deps.Publisher,
		metrics:      deps.Metrics,
		db:           deps.DB,
		validate:     validator.New(),
		logger:       logger.With().Str("component", "http-server").Logger(),
	}
	if s.publisher == nil {
		s.publisher = events.NoopPublisher{}
	}

	s.router = s.buildRouter(cfg)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter(cfg Config) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestScopeMiddleware)
	r.Use(s.requestLogMiddleware)
	r.Use(jsonContentTypeMiddleware)

	// Health endpoints (no auth)
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	if cfg.MetricsEnabled {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.analyzeManuscript)
		r.Post("/recommendations", s.recommendJournals)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Use(userContextMiddleware)

			r.Get("/profile", s.getProfile)
			r.Put("/profile", s.upsertProfile)

			r.Post("/saved-searches", s.saveSearch)
			r.Get("/saved-searches", s.listSavedSearches)
			r.Get("/saved-searches/{searchID}", s.getSavedSearch)
			r.Delete("/saved-searches/{searchID}", s.deleteSavedSearch)

			r.Get("/searches", s.listSearchHistory)
			r.Post("/feedback", s.submitFeedback)
			r.Post("/shares", s.createShare)
			r.Delete("/shares/{shareID}", s.deleteShare)
		})

		r.Get("/journals/{journalID}/feedback", s.listJournalFeedback)
		r.Get("/shares/{token}", s.resolveShare)
	})

	return r
}

// Router exposes the underlying handler, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	health := s.db.Health(r.Context())
	if health.Status == "healthy" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": health.Status})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status":   "unhealthy",
		"database": health.Status,
		"error":    health.Error,
	})
}

// readinessHandler reports whether the service can take traffic.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		health := s.db.Health(r.Context())
		if health.Status != "healthy" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "not_ready",
				"database": health.Status,
				"error":    health.Error,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInsufficientData):
		writeError(w, http.StatusUnprocessableEntity, "no suitable journals found for this manuscript")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
