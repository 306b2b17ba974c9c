// Package aiguard throttles and circuit-breaks calls to generative model APIs.
package aiguard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/zatekoja/erwaittime/internal/domain/providers"
)

// Settings configures a Guard. A negative RateLimitRPM disables throttling.
type Settings struct {
	Provider         string
	Model            string
	RateLimitRPM     int
	RateLimitBurst   int
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Guard wraps model calls with a rate limiter, a circuit breaker and request metrics.
type Guard struct {
	provider string
	model    string
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
}

// New creates a guard for one provider and model.
func New(s Settings) *Guard {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	threshold := s.FailureThreshold

	return &Guard{
		provider: s.Provider,
		model:    s.Model,
		limiter:  newLimiter(s.RateLimitRPM, s.RateLimitBurst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        s.Provider,
			MaxRequests: 1,
			Timeout:     s.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("AI provider circuit breaker changed state")
			},
		}),
	}
}

// Do waits for a rate limit token and runs call through the circuit breaker.
// While the breaker is open the call is skipped and the returned error wraps
// providers.ErrTextGenerationUnavailable.
func (g *Guard) Do(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	if g.limiter != nil {
		waitStart := time.Now()
		if err := g.limiter.Wait(ctx); err != nil {
			g.record(ctx, 0, err)
			return "", err
		}
		g.recordWait(ctx, time.Since(waitStart))
	}

	start := time.Now()
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return call(ctx)
	})
	g.record(ctx, time.Since(start), err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", providers.ErrTextGenerationUnavailable, err)
		}
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state, mainly for health output.
func (g *Guard) State() string {
	return g.breaker.State().String()
}

func newLimiter(rpm, burst int) *rate.Limiter {
	if rpm == 0 {
		rpm = 60
	}
	if rpm < 0 {
		return nil
	}
	if burst <= 0 {
		burst = 5
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst)
}

type guardMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	rateLimitWait   metric.Float64Histogram
}

var (
	metricsOnce sync.Once
	metricsInst *guardMetrics
)

func ensureMetrics() *guardMetrics {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/zatekoja/erwaittime/ai")

		requestCount, err := meter.Int64Counter(
			"ai.request.count",
			metric.WithDescription("Number of generative model requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"ai.request.duration",
			metric.WithDescription("Generative model request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"ai.request.errors",
			metric.WithDescription("Number of generative model request errors"),
		)
		if err != nil {
			return
		}
		rateLimitWait, err := meter.Float64Histogram(
			"ai.rate_limit.wait",
			metric.WithDescription("Time spent waiting for the request rate limiter in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}

		metricsInst = &guardMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
			rateLimitWait:   rateLimitWait,
		}
	})
	return metricsInst
}

func (g *Guard) attrs() metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("ai.provider", g.provider),
		attribute.String("ai.model", g.model),
	)
}

func (g *Guard) record(ctx context.Context, duration time.Duration, err error) {
	m := ensureMetrics()
	if m == nil {
		return
	}
	m.requestCount.Add(ctx, 1, g.attrs())
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), g.attrs())
	if err != nil {
		m.requestErrors.Add(ctx, 1, g.attrs())
	}
}

func (g *Guard) recordWait(ctx context.Context, wait time.Duration) {
	m := ensureMetrics()
	if m == nil {
		return
	}
	m.rateLimitWait.Record(ctx, float64(wait.Milliseconds()), g.attrs())
}
