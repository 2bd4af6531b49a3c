package ratelimit

import (
	"context"
	"log"
	"time"
)

// Result reports the outcome of a quota check for one identity.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Counter is the per-identity usage backend. Implementations must make Incr
// atomic; the limiter layers policy (ceiling, fail-open) on top.
type Counter interface {
	// Incr counts one use against the identity's current window, starting a
	// fresh window when none exists or the previous one expired. When the
	// window's count has already reached limit, the count is left untouched
	// and ok is false.
	Incr(ctx context.Context, identity string, limit int) (count int, resetAt time.Time, ok bool, err error)
	// Peek reports current usage without incrementing.
	Peek(ctx context.Context, identity string) (count int, resetAt time.Time, err error)
}

// Limiter enforces a daily request ceiling per visitor identity.
type Limiter struct {
	counter  Counter
	limit    int
	window   time.Duration
	failOpen bool
}

// New builds a limiter over the given counter backend. failOpen selects the
// behavior when the backend errors: allow with full quota reported, or reject.
func New(counter Counter, limit int, window time.Duration, failOpen bool) *Limiter {
	return &Limiter{counter: counter, limit: limit, window: window, failOpen: failOpen}
}

// Limit returns the configured ceiling.
func (l *Limiter) Limit() int {
	return l.limit
}

// Check consumes one quota slot on the allowed path. Check-and-increment is a
// single backend operation; there is no separate commit step.
func (l *Limiter) Check(ctx context.Context, identity string) Result {
	count, resetAt, ok, err := l.counter.Incr(ctx, identity, l.limit)
	if err != nil {
		log.Printf("[ratelimit] counter backend error: %v", err)
		return l.onBackendError()
	}
	if !ok {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}
	return Result{Allowed: true, Remaining: l.remaining(count), ResetAt: resetAt}
}

// Status reports current usage without consuming quota. Idempotent.
func (l *Limiter) Status(ctx context.Context, identity string) Result {
	count, resetAt, err := l.counter.Peek(ctx, identity)
	if err != nil {
		log.Printf("[ratelimit] counter backend error: %v", err)
		return l.onBackendError()
	}
	return Result{Allowed: count < l.limit, Remaining: l.remaining(count), ResetAt: resetAt}
}

func (l *Limiter) remaining(count int) int {
	if count >= l.limit {
		return 0
	}
	return l.limit - count
}

// onBackendError trades strictness for availability when configured to: a
// broken counter backend should not take the chat down.
func (l *Limiter) onBackendError() Result {
	resetAt := time.Now().Add(l.window)
	if l.failOpen {
		return Result{Allowed: true, Remaining: l.limit, ResetAt: resetAt}
	}
	return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}
}
