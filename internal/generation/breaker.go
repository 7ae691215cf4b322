package generation

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ddalkkak/course-service/internal/domain"
	"github.com/ddalkkak/course-service/internal/observability"
)

// BreakerConfig tunes the circuit breaker around the LLM generation path.
type BreakerConfig struct {
	// Name identifies the breaker in logs and metrics.
	Name string

	// FailureThreshold is the consecutive-failure count that opens the breaker.
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration

	// HalfOpenRequests is how many probe requests the half-open state allows.
	HalfOpenRequests uint32
}

func (c *BreakerConfig) applyDefaults() {
	if c.Name == "" {
		c.Name = "course-generation"
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.OpenTimeout == 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.HalfOpenRequests == 0 {
		c.HalfOpenRequests = 1
	}
}

// Breaker guards the LLM generator with a circuit breaker and routes every
// dependency failure, including an open circuit, to the rule-based fallback.
// Invoke therefore always produces a result for a valid request.
type Breaker struct {
	cb        *gobreaker.CircuitBreaker[*domain.GenerationResult]
	generator Generator
	fallback  FallbackGenerator
	logger    zerolog.Logger
}

// NewBreaker wraps the generator in a circuit breaker.
func NewBreaker(generator Generator, cfg BreakerConfig, logger zerolog.Logger, metrics *observability.Metrics) *Breaker {
	cfg.applyDefaults()
	log := logger.With().Str("component", "generation_breaker").Logger()

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(from.String(), to.String())
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &Breaker{
		cb:        gobreaker.NewCircuitBreaker[*domain.GenerationResult](settings),
		generator: generator,
		logger:    log,
	}
}

// State returns the current breaker state as a string.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Invoke runs the guarded generation. A nil request is a programming error
// and surfaces as an error; every dependency failure yields the fallback
// result instead.
func (b *Breaker) Invoke(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error) {
	if req == nil {
		return nil, domain.NewValidationError("request", "generation request must not be nil")
	}

	result, err := b.cb.Execute(func() (*domain.GenerationResult, error) {
		return b.generator.Generate(ctx, req)
	})
	if err != nil {
		b.logger.Warn().
			Err(err).
			Str("state", b.cb.State().String()).
			Msg("generation failed, serving rule-based fallback")
		return b.fallback.Generate(req), nil
	}

	return result, nil
}
