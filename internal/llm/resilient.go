package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"
)

// ResilientProvider decorates a Provider with fortify patterns. The call
// chain is rate limit, then circuit breaker, then retry, then bulkhead, so
// retries re-enter the concurrency gate but not the breaker.
type ResilientProvider struct {
	inner   Provider
	breaker circuitbreaker.CircuitBreaker[*Response]
	retrier retry.Retry[*Response]
	gate    bulkhead.Bulkhead[*Response]
	limiter ratelimit.RateLimiter
	logger  *slog.Logger
}

// ResilientConfig selects which patterns to apply. The zero value applies
// none and makes the wrapper a passthrough.
type ResilientConfig struct {
	EnableCircuitBreaker bool
	EnableRetry          bool
	EnableBulkhead       bool
	EnableRateLimit      bool

	// MaxConcurrent bounds in-flight calls when the bulkhead is enabled
	// (default 5).
	MaxConcurrent int

	// RatePerSecond caps the steady call rate when rate limiting is enabled
	// (default 2).
	RatePerSecond int

	Logger *slog.Logger
}

// DefaultResilientConfig enables every pattern with limits sized for a
// single local daemon talking to one LLM vendor.
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		EnableCircuitBreaker: true,
		EnableRetry:          true,
		EnableBulkhead:       true,
		EnableRateLimit:      true,
		MaxConcurrent:        5,
		RatePerSecond:        2,
	}
}

func NewResilientProvider(inner Provider, cfg ResilientConfig) *ResilientProvider {
	rp := &ResilientProvider{inner: inner, logger: cfg.Logger}

	if cfg.EnableCircuitBreaker {
		rp.breaker = circuitbreaker.New[*Response](circuitbreaker.Config{
			MaxRequests: 2,
			Interval:    10 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				if rp.logger != nil {
					rp.logger.Warn("circuit breaker state change",
						"provider", inner.Name(), "from", from.String(), "to", to.String())
				}
			},
		})
	}

	if cfg.EnableRetry {
		rp.retrier = retry.New[*Response](retry.Config{
			MaxAttempts:   3,
			InitialDelay:  2 * time.Second,
			MaxDelay:      60 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryableHTTPError,
		})
	}

	if cfg.EnableBulkhead {
		n := cfg.MaxConcurrent
		if n <= 0 {
			n = 5
		}
		rp.gate = bulkhead.New[*Response](bulkhead.Config{
			MaxConcurrent: n,
			MaxQueue:      n * 2,
			QueueTimeout:  30 * time.Second,
		})
	}

	if cfg.EnableRateLimit {
		rate := cfg.RatePerSecond
		if rate <= 0 {
			rate = 2
		}
		rp.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     rate,
			Burst:    rate * 3,
			Interval: time.Second,
		})
	}

	return rp
}

func (p *ResilientProvider) Name() string { return p.inner.Name() }

func (p *ResilientProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	if p.limiter != nil && !p.limiter.Allow(ctx, p.inner.Name()) {
		return nil, fmt.Errorf("rate limit exceeded for provider %s", p.inner.Name())
	}

	var op func(ctx context.Context) (*Response, error) = func(ctx context.Context) (*Response, error) {
		return p.inner.Generate(ctx, req)
	}
	if p.gate != nil {
		inner := op
		op = func(ctx context.Context) (*Response, error) {
			return p.gate.Execute(ctx, func(ctx context.Context) (*Response, error) {
				return inner(ctx)
			})
		}
	}
	if p.retrier != nil {
		inner := op
		op = func(ctx context.Context) (*Response, error) {
			return p.retrier.Do(ctx, func(ctx context.Context) (*Response, error) {
				return inner(ctx)
			})
		}
	}
	if p.breaker != nil {
		inner := op
		op = func(ctx context.Context) (*Response, error) {
			return p.breaker.Execute(ctx, func(ctx context.Context) (*Response, error) {
				return inner(ctx)
			})
		}
	}

	return op(ctx)
}

// Close releases limiter resources.
func (p *ResilientProvider) Close() error {
	if p.limiter != nil {
		return p.limiter.Close()
	}
	return nil
}

// isRetryableHTTPError matches transient upstream failures by the status
// code the provider error carries.
func isRetryableHTTPError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, code := range []string{"status 429", "status 500", "status 502", "status 503", "status 504"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
