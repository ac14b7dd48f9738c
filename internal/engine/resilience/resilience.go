// Package resilience wraps the engine's retry and circuit-breaking
// concerns around github.com/cenkalti/backoff/v4 and
// github.com/sony/gobreaker/v2, replacing the teacher's hand-rolled
// infrastructure/resilience package with the equivalent real libraries.
package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// RetryConfig configures exponential backoff retry attempts.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig mirrors the teacher's DefaultRetryConfig defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

func (cfg RetryConfig) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialDelay
	if b.InitialInterval <= 0 {
		b.InitialInterval = 100 * time.Millisecond
	}
	b.MaxInterval = cfg.MaxDelay
	if b.MaxInterval <= 0 {
		b.MaxInterval = 10 * time.Second
	}
	if cfg.Multiplier > 0 {
		b.Multiplier = cfg.Multiplier
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return backoff.WithMaxRetries(b, uint64(maxAttempts-1))
}

// Retry runs fn with exponential backoff until it succeeds, cfg's attempts
// are exhausted, or ctx is cancelled.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	return backoff.Retry(fn, backoff.WithContext(cfg.backOff(), ctx))
}

// Backoff paces repeated retries one step at a time, for callers (fsm's
// ErrorHandler) that drive their own retry loop instead of calling Retry.
type Backoff struct {
	bo backoff.BackOff
}

// NewBackoff builds a Backoff from cfg.
func NewBackoff(cfg RetryConfig) *Backoff {
	return &Backoff{bo: cfg.backOff()}
}

// Next returns the delay before the next attempt, or false once cfg's
// attempts are exhausted.
func (b *Backoff) Next() (time.Duration, bool) {
	d := b.bo.NextBackOff()
	if d == backoff.Stop {
		return 0, false
	}
	return d, true
}

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	MaxFailures uint32
	Timeout     time.Duration
	HalfOpenMax uint32
}

// DefaultBreakerConfig mirrors the teacher's DefaultConfig defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{MaxFailures: 5, Timeout: 30 * time.Second, HalfOpenMax: 3}
}

// Breaker wraps gobreaker.CircuitBreaker, opening after MaxFailures
// consecutive failures and trialing HalfOpenMax requests after Timeout
// elapses, matching the teacher's circuit_breaker.go state machine.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

// NewBreaker builds a named Breaker from cfg.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenMax == 0 {
		cfg.HalfOpenMax = 3
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMax,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// State returns the breaker's current state (closed/open/half-open).
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// Guard runs fn through the circuit breaker, returning the breaker's own
// error (gobreaker.ErrOpenState / ErrTooManyRequests) without calling fn
// while the breaker is open.
func Guard[R any](b *Breaker, fn func() (R, error)) (R, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return res.(R), nil
}
