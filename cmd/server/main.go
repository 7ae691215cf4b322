// Package main provides the entry point for the course service HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ddalkkak/course-service/internal/cache"
	"github.com/ddalkkak/course-service/internal/collection"
	"github.com/ddalkkak/course-service/internal/config"
	"github.com/ddalkkak/course-service/internal/curation"
	"github.com/ddalkkak/course-service/internal/database"
	"github.com/ddalkkak/course-service/internal/generation"
	"github.com/ddalkkak/course-service/internal/llm"
	"github.com/ddalkkak/course-service/internal/observability"
	"github.com/ddalkkak/course-service/internal/placesearch"
	"github.com/ddalkkak/course-service/internal/repository"
	httpserver "github.com/ddalkkak/course-service/internal/server/http"
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
	logger.Info().Msg("course-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

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

	placeRepo := repository.NewPgPlaceRepository(db)

	// Response cache over an embedded store.
	var responseCache *cache.ResponseCache
	if cfg.Cache.Enabled {
		store, err := cache.NewBadgerStore(cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("open cache store: %w", err)
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close cache store")
			}
		}()
		responseCache = cache.New(store, cfg.Cache.TTL, logger, metrics)
		logger.Info().Str("path", cfg.Cache.Path).Dur("ttl", cfg.Cache.TTL).Msg("response cache enabled")
	}

	// LLM client shared by curation and generation.
	completer := llm.NewAnthropicClient(llm.ClientConfig{
		APIKey:        cfg.Claude.APIKey,
		BaseURL:       cfg.Claude.BaseURL,
		Model:         cfg.Claude.Model,
		MaxTokens:     cfg.Claude.MaxTokens,
		Timeout:       cfg.Claude.Timeout,
		MaxRetries:    cfg.Claude.MaxRetries,
		RetryDelay:    cfg.Claude.RetryDelay,
		MaxRetryDelay: cfg.Claude.MaxRetryDelay,
	})

	// Place search client.
	searchClient := placesearch.New(placesearch.Config{
		APIKey:        cfg.Kakao.APIKey,
		BaseURL:       cfg.Kakao.BaseURL,
		Timeout:       cfg.Kakao.Timeout,
		MaxRetries:    cfg.Kakao.MaxRetries,
		RetryDelay:    cfg.Kakao.RetryDelay,
		MaxRetryDelay: cfg.Kakao.MaxRetryDelay,
		Pacing:        cfg.Kakao.RequestPacing,
		RateLimit:     cfg.Kakao.RateLimit,
	}, logger)

	// Curation pipeline.
	curator := curation.NewCurator(completer, logger, metrics)
	runner := curation.NewRunner(curator, placeRepo, cfg.Curation.Pacing, logger, metrics)

	// Collection orchestrator.
	collector := collection.NewOrchestrator(searchClient, placeRepo, runner, collection.Config{
		QuotaPerRegion:    cfg.Collection.QuotaPerRegion,
		SearchRadius:      cfg.Collection.SearchRadius,
		CurationBatchSize: cfg.Curation.BatchSize,
	}, logger, metrics)

	// Generation pipeline: LLM generator behind a circuit breaker with a
	// rule-based fallback, fronted by the response cache.
	generator := generation.NewLLMGenerator(completer, logger, metrics)
	breaker := generation.NewBreaker(generator, generation.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
		HalfOpenRequests: cfg.Breaker.HalfOpenRequests,
	}, logger, metrics)
	sink := observability.NewLogSink(logger)
	genOrchestrator := generation.NewOrchestrator(breaker, responseCache, sink, logger, metrics)

	// HTTP server.
	httpSrv := httpserver.NewServer(httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, genOrchestrator, collector, db, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().Str("http_address", cfg.Server.HTTPAddress()).Msg("course-service is ready")

	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down course-service")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("course-service shutdown complete")
	return nil
}
