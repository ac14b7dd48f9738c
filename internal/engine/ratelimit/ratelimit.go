// Package ratelimit bounds per-tool and per-LLM-provider call rates
// (spec §5 timeouts/suspension points, domain stack §11.9), adapted from
// the teacher's infrastructure/ratelimit.RateLimiter to key a distinct
// token bucket per named tool/provider instead of a single process-wide
// limiter.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Config configures one key's token bucket.
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig matches the teacher's infrastructure/ratelimit default.
func DefaultConfig() Config {
	return Config{RequestsPerSecond: 100, Burst: 200}
}

// Limiter keys an independent rate.Limiter per name (tool type or LLM
// provider), so a slow/abusive tool cannot starve another's budget.
type Limiter struct {
	mu       sync.Mutex
	cfg      Config
	limiters map[string]*rate.Limiter
}

// New builds a Limiter applying cfg to every key unless overridden via
// SetLimit.
func New(cfg Config) *Limiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 100
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond * 2)
	}
	return &Limiter{cfg: cfg, limiters: make(map[string]*rate.Limiter)}
}

// SetLimit overrides the bucket configuration for one key.
func (l *Limiter) SetLimit(key string, cfg Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[key] = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
}

func (l *Limiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)
		l.limiters[key] = lim
	}
	return lim
}

// Allow reports whether a call for key may proceed immediately, without
// blocking.
func (l *Limiter) Allow(key string) bool {
	return l.limiterFor(key).Allow()
}

// Wait blocks until a call for key may proceed, or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.limiterFor(key).Wait(ctx)
}

// Reset rebuilds every key's bucket from its last-configured rate,
// clearing accumulated burst debt.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, lim := range l.limiters {
		l.limiters[key] = rate.NewLimiter(lim.Limit(), lim.Burst())
	}
}
