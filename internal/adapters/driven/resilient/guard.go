// Package resilient wraps AI provider adapters with rate limiting, a circuit
// breaker and tracing spans.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/logger"
)

var log = logger.With("resilient")

const tracerName = "github.com/custodia-labs/lexrag/resilient"

// Config controls the limiter and breaker.
type Config struct {
	// Name identifies the breaker in logs and spans.
	Name string

	// RequestsPerMinute caps outgoing calls. Zero or less disables limiting.
	RequestsPerMinute int

	// BatchSize is the number of texts per embedding call (default 5).
	BatchSize int

	// MaxFailures opens the breaker after this many consecutive failures (default 5).
	MaxFailures int

	// BreakerTimeout is how long the breaker stays open (default 30s).
	BreakerTimeout time.Duration
}

// ConfigFrom builds a Config from resilience settings.
func ConfigFrom(name string, s domain.ResilienceSettings) Config {
	return Config{
		Name:              name,
		RequestsPerMinute: s.RequestsPerMinute,
		BatchSize:         s.BatchSize,
		MaxFailures:       s.MaxFailures,
		BreakerTimeout:    s.BreakerTimeout,
	}
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "ai"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = 30 * time.Second
	}
	return c
}

// guard runs calls through the limiter and breaker inside a span.
type guard struct {
	name        string
	unavailable error
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	tracer  trace.Tracer
}

func newGuard(cfg Config, unavailable error) *guard {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), max(1, cfg.RequestsPerMinute/10))
	}

	maxFailures := uint32(cfg.MaxFailures) //nolint:gosec // bounded by settings validation
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker %s: %s -> %s", name, from, to)
		},
		IsSuccessful: countsAsSuccess,
	})

	return &guard{
		name:        cfg.Name,
		unavailable: unavailable,
		limiter:     limiter,
		breaker:     breaker,
		tracer:      otel.Tracer(tracerName),
	}
}

// countsAsSuccess keeps caller mistakes and cancellations from tripping the breaker.
func countsAsSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, context.Canceled)
}

// do waits for the limiter and runs fn through the breaker in a span.
func (g *guard) do(ctx context.Context, op string, fn func(ctx context.Context) (any, error), attrs ...attribute.KeyValue) (any, error) {
	ctx, span := g.tracer.Start(ctx, g.name+"."+op)
	defer span.End()
	span.SetAttributes(attrs...)

	if err := g.limiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("ai.rate_limited", true))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%s: rate limiter: %w", g.name, err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			span.SetAttributes(attribute.Bool("ai.circuit_open", true))
			err = fmt.Errorf("%s: %w: %w", g.name, g.unavailable, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

// State reports the breaker state, for status output.
func (g *guard) State() gobreaker.State {
	return g.breaker.State()
}
