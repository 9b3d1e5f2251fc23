// Package cache provides the TTL key-value stores used to hold upstream
// listing responses.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a byte-oriented key-value store with per-entry expiry. Get and Set
// must be atomic per key; concurrent writers for one key are last-write-wins.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// Noop never stores anything. It backs the "none" cache backend.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

// Set discards the value.
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Ping always succeeds.
func (Noop) Ping(context.Context) error { return nil }
