package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ddalkkak/course-service/internal/cache"
	"github.com/ddalkkak/course-service/internal/domain"
	"github.com/ddalkkak/course-service/internal/observability"
)

// Orchestrator drives one course generation end to end: request validation,
// cache lookup, the breaker-guarded LLM call, cache write-back, and trace
// events.
type Orchestrator struct {
	breaker *Breaker
	cache   *cache.ResponseCache
	sink    observability.Sink
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewOrchestrator creates a generation orchestrator. A nil cache disables
// caching; a nil sink disables trace events.
func NewOrchestrator(breaker *Breaker, responseCache *cache.ResponseCache, sink observability.Sink, logger zerolog.Logger, metrics *observability.Metrics) *Orchestrator {
	if sink == nil {
		sink = observability.NopSink{}
	}
	return &Orchestrator{
		breaker: breaker,
		cache:   responseCache,
		sink:    sink,
		logger:  logger.With().Str("component", "generation_orchestrator").Logger(),
		metrics: metrics,
	}
}

// Generate produces courses for the request. Invalid requests are rejected
// before any dependency is touched; after validation the call cannot fail
// short of a programming error, because dependency failures route to the
// rule-based fallback.
func (o *Orchestrator) Generate(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	logger := observability.WithGenerationContext(o.logger, req.Region, req.DateType, req.Budget)

	if cached, ok := o.cache.Get(*req); ok {
		logger.Info().Str("request_id", cached.RequestID).Msg("serving cached generation result")
		return cached, nil
	}

	requestID := uuid.NewString()
	start := time.Now()
	o.sink.Event(requestID, "generation.started", map[string]any{
		"region":    req.Region,
		"date_type": req.DateType,
		"budget":    req.Budget,
	})

	result, err := o.breaker.Invoke(ctx, req)
	if err != nil {
		o.sink.Error(requestID, "generation", err.Error())
		o.metrics.RecordGeneration("error", time.Since(start).Seconds())
		return nil, err
	}

	result.RequestID = requestID
	result.GeneratedAt = time.Now().UTC()

	o.cache.Put(*req, result)

	outcome := "llm"
	if result.Fallback {
		outcome = "fallback"
	}
	o.metrics.RecordGeneration(outcome, time.Since(start).Seconds())
	o.sink.Event(requestID, "generation.completed", map[string]any{
		"courses":     len(result.Courses),
		"fallback":    result.Fallback,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	logger.Info().
		Str("request_id", requestID).
		Int("courses", len(result.Courses)).
		Bool("fallback", result.Fallback).
		Msg("generation finished")

	return result, nil
}

// validateRequest enforces the request constraints before any dependency call.
func validateRequest(req *domain.GenerationRequest) error {
	if req == nil {
		return domain.NewValidationError("request", "generation request must not be nil")
	}
	if req.Region == "" {
		return domain.NewValidationError("region", "region must not be empty")
	}
	if req.DateType == "" {
		return domain.NewValidationError("dateType", "dateType must not be empty")
	}
	if req.Budget < domain.MinBudget {
		return domain.NewValidationError("budget", fmt.Sprintf("budget must be at least %d won", domain.MinBudget))
	}
	return nil
}
