// Package resilience provides the shared retry/backoff helper used by every
// HTTP client in this repo, replacing the per-call-site retry loops the
// scrapers would otherwise each grow.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls retry behavior with exponential backoff and jitter.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts (including the first try).
	// A value of 1 means no retries. Default: 3.
	MaxAttempts int

	// InitialBackoff is the base delay before the first retry. Default: 500ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration. Default: 30s.
	MaxBackoff time.Duration

	// Multiplier scales the backoff after each attempt. Default: 2.0.
	Multiplier float64

	// JitterFraction adds random jitter as a fraction of the computed delay
	// (0 = none). Jitter is additive only, so waits never shrink below the
	// exponential schedule. Default: 0.25.
	JitterFraction float64

	// ShouldRetry optionally overrides the default transient-error check.
	// If nil, IsTransient is used.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry sleep with attempt number and error.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns a sensible retry configuration for API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

// Do executes fn, retrying transient errors with exponential backoff. When a
// failed attempt carries a server-supplied retry delay (a numeric Retry-After
// on a 429, wrapped via NewRateLimitedError), that delay is honored instead
// of the computed backoff. Context cancellation stops retries immediately.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for functions that return a value.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = applyDefaults(cfg)

	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
		if !shouldRetry(lastErr) {
			return zero, lastErr
		}
		if attempt >= cfg.MaxAttempts-1 {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, lastErr)
		}

		delay := retryDelay(lastErr, attempt, cfg)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// retryDelay prefers the server-supplied delay when present, else the
// exponential schedule.
func retryDelay(err error, attempt int, cfg RetryConfig) time.Duration {
	if ra, ok := RetryAfter(err); ok && ra > 0 {
		if ra > cfg.MaxBackoff {
			return cfg.MaxBackoff
		}
		return ra
	}
	return computeBackoff(attempt, cfg)
}

func applyDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.JitterFraction < 0 {
		cfg.JitterFraction = 0
	}
	return cfg
}

func computeBackoff(attempt int, cfg RetryConfig) time.Duration {
	delay := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxBackoff) {
		delay = float64(cfg.MaxBackoff)
	}

	// Additive jitter in [0, JitterFraction*delay]: waits stay monotonically
	// non-decreasing across attempts.
	if cfg.JitterFraction > 0 {
		delay += rand.Float64() * delay * cfg.JitterFraction
	}

	if delay > float64(cfg.MaxBackoff) {
		delay = float64(cfg.MaxBackoff)
	}
	return time.Duration(delay)
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
