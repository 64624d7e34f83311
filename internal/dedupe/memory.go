package dedupe

import (
	"context"
	"sync"
	"time"
)

// Memory is the single-process Admitter. Expired keys are swept on every
// Admit call, so the map never outgrows the number of keys seen in one ttl.
type Memory struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

type MemoryOption func(*Memory)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Admit(_ context.Context, key string, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, firstSeen := range m.seen {
		if now.Sub(firstSeen) > ttl {
			delete(m.seen, k)
		}
	}

	if _, ok := m.seen[key]; ok {
		return false
	}
	m.seen[key] = now
	return true
}

// Len reports how many keys are currently retained.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}
