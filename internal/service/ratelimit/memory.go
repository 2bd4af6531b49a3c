package ratelimit

import (
	"context"
	"sync"
	"time"
)

type record struct {
	count   int
	resetAt time.Time
}

// MemoryCounter is the in-process fallback backend. Windows roll from first
// use: the first counted request opens a window that expires one window
// duration later, and an expired record is replaced, never incremented.
type MemoryCounter struct {
	mu      sync.Mutex
	window  time.Duration
	records map[string]*record
}

// NewMemoryCounter returns an empty in-process counter.
func NewMemoryCounter(window time.Duration) *MemoryCounter {
	return &MemoryCounter{window: window, records: make(map[string]*record)}
}

func (c *MemoryCounter) Incr(_ context.Context, identity string, limit int) (int, time.Time, bool, error) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, exists := c.records[identity]
	if !exists || now.After(rec.resetAt) {
		rec = &record{count: 1, resetAt: now.Add(c.window)}
		c.records[identity] = rec
		return rec.count, rec.resetAt, true, nil
	}

	if rec.count >= limit {
		return rec.count, rec.resetAt, false, nil
	}

	rec.count++
	return rec.count, rec.resetAt, true, nil
}

func (c *MemoryCounter) Peek(_ context.Context, identity string) (int, time.Time, error) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, exists := c.records[identity]
	if !exists || now.After(rec.resetAt) {
		return 0, now.Add(c.window), nil
	}
	return rec.count, rec.resetAt, nil
}
