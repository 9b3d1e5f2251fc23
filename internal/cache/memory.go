package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	val       []byte
	expiresAt time.Time
}

// Memory is an in-process Cache. Expired entries are dropped lazily on
// access and by Sweep.
type Memory struct {
	mu      sync.Mutex
	items   map[string]entry
	nowFunc func() time.Time
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithNowFunc overrides the clock for testing.
func WithNowFunc(f func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.nowFunc = f
	}
}

// NewMemory creates an empty in-process cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		items:   make(map[string]entry),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of the stored value, or ErrMiss.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		return nil, ErrMiss
	}
	if !m.nowFunc().Before(e.expiresAt) {
		delete(m.items, key)
		return nil, ErrMiss
	}
	return append([]byte(nil), e.val...), nil
}

// Set stores a copy of val for ttl. A non-positive ttl deletes the key.
func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl <= 0 {
		delete(m.items, key)
		return nil
	}
	m.items[key] = entry{
		val:       append([]byte(nil), val...),
		expiresAt: m.nowFunc().Add(ttl),
	}
	return nil
}

// Ping always succeeds.
func (*Memory) Ping(context.Context) error { return nil }

// Sweep drops every expired entry and returns how many were removed. It
// never fails.
func (m *Memory) Sweep(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	removed := 0
	for k, e := range m.items {
		if !now.Before(e.expiresAt) {
			delete(m.items, k)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, including expired ones not yet
// swept.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
