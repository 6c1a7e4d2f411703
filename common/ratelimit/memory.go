package ratelimit

import (
	"context"
	"sync"
	"time"
)

// pruneThreshold is the number of tracked keys above which expired windows are dropped
const pruneThreshold = 1024

// MemoryLimiter keeps counters in process
type MemoryLimiter struct {
	limit  int64
	window time.Duration

	mu      sync.Mutex
	windows map[string]*fixedWindow
	now     func() time.Time
}

type fixedWindow struct {
	start time.Time
	count int64
}

// NewMemoryLimiter creates a limiter allowing limit requests per window
func NewMemoryLimiter(limit int64, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		windows: make(map[string]*fixedWindow),
		now:     time.Now,
	}
}

// Allow counts one request against key
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if len(m.windows) > pruneThreshold {
		m.prune(now)
	}

	w, ok := m.windows[key]
	if !ok || now.Sub(w.start) >= m.window {
		w = &fixedWindow{start: now}
		m.windows[key] = w
	}
	w.count++

	result := &Result{
		Allowed:      w.count <= m.limit,
		CurrentCount: w.count,
		Limit:        m.limit,
	}
	if !result.Allowed {
		remaining := w.start.Add(m.window).Sub(now)
		result.RetryAfterSeconds = int64((remaining + time.Second - 1) / time.Second)
	}
	return result, nil
}

// Reset clears the counter for key
func (m *MemoryLimiter) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.windows, key)
	return nil
}

func (m *MemoryLimiter) prune(now time.Time) {
	for key, w := range m.windows {
		if now.Sub(w.start) >= m.window {
			delete(m.windows, key)
		}
	}
}
