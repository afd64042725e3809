package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between consecutive outbound
// requests. A nil limiter never blocks, so callers can wire it in
// unconditionally.
type RateLimiter struct {
	interval time.Duration
	mu       sync.Mutex
	lastSent time.Time
	log      *slog.Logger
}

func New(interval time.Duration, log *slog.Logger) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		log:      log,
	}
}

// Wait blocks until the next request may be sent or the context is
// canceled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil || rl.interval <= 0 {
		return nil
	}

	rl.mu.Lock()
	var delay time.Duration
	if !rl.lastSent.IsZero() {
		delay = max(rl.interval-time.Since(rl.lastSent), 0)
	}
	rl.mu.Unlock()

	if delay > 0 {
		rl.log.DebugContext(ctx, "Rate limiting request",
			"delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	rl.mu.Lock()
	rl.lastSent = time.Now()
	rl.mu.Unlock()

	return nil
}
