package reso

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrQuotaExhausted is returned by Limiter.Wait once the daily quota is spent.
var ErrQuotaExhausted = errors.New("daily upstream quota exhausted")

// Limiter throttles upstream calls with a token bucket and, optionally, a
// rolling 24-hour call quota. Most RESO Web API vendors enforce both.
type Limiter struct {
	bucket *rate.Limiter
	quota  int64

	mu      sync.Mutex
	used    int64
	resetAt time.Time
	nowFunc func() time.Time
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithLimiterNowFunc overrides the clock for testing.
func WithLimiterNowFunc(f func() time.Time) LimiterOption {
	return func(l *Limiter) {
		l.nowFunc = f
	}
}

// NewLimiter allows perSecond calls with the given burst. A quota of zero or
// less disables the daily cap.
func NewLimiter(perSecond float64, burst int, quota int64, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		bucket:  rate.NewLimiter(rate.Limit(perSecond), burst),
		quota:   quota,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.resetAt = l.nowFunc().Add(24 * time.Hour)
	return l
}

// Wait reserves one call, blocking for a token. It fails without waiting when
// the quota is spent.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.reserve(); err != nil {
		return err
	}
	if err := l.bucket.Wait(ctx); err != nil {
		l.release()
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return nil
}

// Quota returns the configured daily cap, or zero when there is none.
func (l *Limiter) Quota() int64 {
	return max(l.quota, 0)
}

// ResetAt returns when the current 24-hour window ends.
func (l *Limiter) ResetAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollLocked()
	return l.resetAt
}

// DailyCount returns the calls made in the current window.
func (l *Limiter) DailyCount() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollLocked()
	return l.used
}

// Remaining returns the calls left in the current window, or -1 when no
// quota is configured.
func (l *Limiter) Remaining() int64 {
	if l.quota <= 0 {
		return -1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollLocked()
	return max(l.quota-l.used, 0)
}

func (l *Limiter) reserve() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollLocked()
	if l.quota > 0 && l.used >= l.quota {
		return fmt.Errorf("%w (%d/%d, resets %s)",
			ErrQuotaExhausted, l.used, l.quota, l.resetAt.Format(time.RFC3339))
	}
	l.used++
	return nil
}

func (l *Limiter) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.used > 0 {
		l.used--
	}
}

func (l *Limiter) rollLocked() {
	now := l.nowFunc()
	if now.After(l.resetAt) {
		l.used = 0
		l.resetAt = now.Add(24 * time.Hour)
	}
}
