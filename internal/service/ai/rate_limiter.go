package ai

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"polyglot/internal/logger"
)

// DefaultRateLimit is the default QPS limit.
const DefaultRateLimit = 10

// slowWait is how long a provider call may queue before it is logged.
const slowWait = 500 * time.Millisecond

// RateLimiter bounds provider calls across every device of every session.
// A batch translation costs one token; its per-language fallback costs one
// token per target.
type RateLimiter struct {
	limiter *rate.Limiter
	mu      sync.RWMutex
}

func NewRateLimiter(qps int) *RateLimiter {
	if qps <= 0 {
		qps = DefaultRateLimit
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(qps), qps),
	}
}

// Wait blocks until a call translating from source may start. It returns the
// context's error if the session gave up first.
func (r *RateLimiter) Wait(ctx context.Context, source string) error {
	r.mu.RLock()
	limiter := r.limiter
	r.mu.RUnlock()

	start := time.Now()
	err := limiter.Wait(ctx)
	waited := time.Since(start)
	switch {
	case err != nil:
		logger.Warn("provider call abandoned in rate limit queue", "module", "ai", "action", "wait", "resource", "rate_limit", "result", "failed", "source", source, "waited_ms", waited.Milliseconds(), "error", err)
	case waited >= slowWait:
		logger.Debug("provider call delayed by rate limit", "module", "ai", "action", "wait", "resource", "rate_limit", "result", "ok", "source", source, "waited_ms", waited.Milliseconds())
	}
	return err
}

// SetLimit updates the limit from the AI settings.
func (r *RateLimiter) SetLimit(qps int) {
	if qps <= 0 {
		qps = DefaultRateLimit
	}
	r.mu.Lock()
	r.limiter.SetLimit(rate.Limit(qps))
	r.limiter.SetBurst(qps)
	r.mu.Unlock()
	logger.Info("ai rate limit updated", "module", "ai", "action", "update", "resource", "rate_limit", "result", "ok", "qps", qps)
}

func (r *RateLimiter) GetLimit() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int(r.limiter.Limit())
}
