// Package main provides the entry point for the journal recommender service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/helixir/journal-recommender-service/internal/analysis"
	"github.com/helixir/journal-recommender-service/internal/config"
	"github.com/helixir/journal-recommender-service/internal/database"
	"github.com/helixir/journal-recommender-service/internal/events"
	"github.com/helixir/journal-recommender-service/internal/llm"
	"github.com/helixir/journal-recommender-service/internal/observability"
	"github.com/helixir/journal-recommender-service/internal/openalex"
	"github.com/helixir/journal-recommender-service/internal/recommend"
	"github.com/helixir/journal-recommender-service/internal/repository"
	"github.com/helixir/journal-recommender-service/internal/server"
	"github.com/helixir/journal-recommender-service/internal/verification"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("journal-recommender-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// Run migrations if configured.
	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			if closeErr := migrator.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close migrator")
			}
		}()

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Create repositories.
	profileRepo := repository.NewPgProfileRepository(db)
	searchRepo := repository.NewPgSearchRepository(db)
	feedbackRepo := repository.NewPgFeedbackRepository(db)
	shareRepo := repository.NewPgShareRepository(db)

	// Create the bibliographic provider client.
	provider := openalex.New(openalex.Config{
		BaseURL:   cfg.OpenAlex.BaseURL,
		Email:     cfg.OpenAlex.Mailto,
		Timeout:   cfg.OpenAlex.Timeout,
		RateLimit: cfg.OpenAlex.RateLimit,
	})
	logger.Info().
		Str("base_url", cfg.OpenAlex.BaseURL).
		Float64("rate_limit", cfg.OpenAlex.RateLimit).
		Msg("provider client created")

	// Create the LLM enricher when enabled. A factory error degrades
	// enrichment to disabled rather than failing startup.
	var enricher llm.Enricher
	if cfg.LLM.Enabled {
		enricher, err = llm.NewEnricher(llm.FactoryConfig{
			Provider:   cfg.LLM.Provider,
			Timeout:    cfg.LLM.Timeout,
			MaxRetries: cfg.LLM.MaxRetries,
			OpenAI: llm.OpenAIConfig{
				APIKey:  cfg.LLM.OpenAI.APIKey,
				Model:   cfg.LLM.OpenAI.Model,
				BaseURL: cfg.LLM.OpenAI.BaseURL,
			},
			Anthropic: llm.AnthropicConfig{
				APIKey:  cfg.LLM.Anthropic.APIKey,
				Model:   cfg.LLM.Anthropic.Model,
				BaseURL: cfg.LLM.Anthropic.BaseURL,
			},
		})
		if err != nil {
			logger.Warn().Err(err).Msg("LLM enrichment disabled")
			enricher = nil
		} else {
			logger.Info().Str("provider", cfg.LLM.Provider).Msg("LLM enrichment enabled")
		}
	}

	// Assemble the analysis pipeline.
	mlDetector := analysis.NewMLDisciplineDetector(provider, 0, 0, logger)
	keywordDetector := analysis.NewKeywordDisciplineDetector(0)
	hybridDetector := analysis.NewHybridDisciplineDetector(mlDetector, keywordDetector, analysis.HybridDetectorConfig{
		PreferUniversal: true,
	})
	analyzer := analysis.NewSmartAnalyzer(
		analysis.AnalyzerConfig{EnableLLM: cfg.LLM.Enabled && enricher != nil},
		analysis.NewTermExtractor(0),
		mlDetector,
		hybridDetector,
		analysis.NewKeywordEnricher(0, 0),
		analysis.NewConfidenceScorer(),
		analysis.NewTriggerDetector(),
		enricher,
		logger,
	)

	// Assemble the recommendation pipeline.
	recommender := recommend.New(recommend.Config{
		MaxResults:    cfg.Recommend.MaxResults,
		MinWorksFloor: cfg.Recommend.MinWorksFloor,
		UseUniversal:  cfg.Recommend.UseUniversal,
	}, provider, logger)

	// Journal verification.
	var verifier server.Verifier
	if cfg.Verification.Enabled {
		verifier = verification.New(provider, cfg.Verification.Concurrency, logger)
	}

	// Search analytics publisher.
	publisher := events.NewPublisher(cfg.Kafka, logger)
	defer func() {
		if closeErr := publisher.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close event publisher")
		}
	}()

	// Metrics registry.
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("journalrec")
	}

	// Create the HTTP server.
	srv := server.NewServer(server.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsPath:     cfg.Metrics.Path,
	}, server.Deps{
		Analyzer:     analyzer,
		Recommender:  recommender,
		Verifier:     verifier,
		ProfileRepo:  profileRepo,
		SearchRepo:   searchRepo,
		FeedbackRepo: feedbackRepo,
		ShareRepo:    shareRepo,
		Publisher:    publisher,
		Metrics:      metrics,
		DB:           db,
	}, logger)

	// Channel to collect server errors.
	errCh := make(chan error, 1)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("http_address", cfg.Server.HTTPAddress()).
		Msg("journal-recommender-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down journal-recommender-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("journal-recommender-service shutdown complete")
	return nil
}
