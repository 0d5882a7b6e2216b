package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepInterval is how often Run evicts expired windows.
const sweepInterval = time.Minute

// MemoryLimiter is an in-process fixed-window limiter.
type MemoryLimiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	count     int
	windowEnd time.Time
}

// NewMemoryLimiter creates a MemoryLimiter. Call Run to evict stale keys.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow implements Limiter. It never fails.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	if key == "" || m.cfg.Limit <= 0 || m.cfg.Window <= 0 {
		return true, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	b, ok := m.buckets[key]
	if !ok || !now.Before(b.windowEnd) {
		m.buckets[key] = &bucket{count: 1, windowEnd: now.Add(m.cfg.Window)}
		return true, nil
	}
	if b.count >= m.cfg.Limit {
		return false, nil
	}
	b.count++
	return true, nil
}

// Len returns the number of keys currently tracked.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

// Run evicts expired windows every minute until ctx is cancelled.
func (m *MemoryLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *MemoryLimiter) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, b := range m.buckets {
		if !now.Before(b.windowEnd) {
			delete(m.buckets, key)
		}
	}
}
