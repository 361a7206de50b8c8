package util

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token-bucket limiter that admits at most perMinute
// acquisitions per rolling minute. Each collection worker owns its own
// instance; there is no cross-worker coordination, so callers must divide the
// global API budget by the worker count when provisioning.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration // time between replenished tokens
	next     time.Time     // earliest instant the next token is available
}

// NewRateLimiter creates a RateLimiter admitting perMinute acquisitions per
// minute. perMinute values below 1 are treated as 1.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &RateLimiter{
		interval: time.Minute / time.Duration(perMinute),
		next:     time.Now(),
	}
}

// Wait blocks until a token is available or ctx is cancelled. The wait
// duration is computed up front, so a blocked caller wakes exactly once.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	now := time.Now()
	at := rl.next
	if at.Before(now) {
		at = now
	}
	rl.next = at.Add(rl.interval)
	rl.mu.Unlock()

	wait := time.Until(at)
	if wait <= 0 {
		// Still honor a cancelled context even when no wait is needed.
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
