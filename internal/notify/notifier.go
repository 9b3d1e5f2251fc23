// Package notify delivers operational alerts about the cache warmer.
package notify

import (
	"context"
	"time"
)

// FailedSearch is one saved search that could not be warmed.
type FailedSearch struct {
	Name string
	Kind string // reso.ErrorKind, or "cancelled"
}

// WarmReport summarizes a warm cycle that had failures.
type WarmReport struct {
	Total    int
	Failed   []FailedSearch
	Duration time.Duration
}

// AllFailed reports whether no saved search succeeded.
func (r *WarmReport) AllFailed() bool {
	return r.Total > 0 && len(r.Failed) >= r.Total
}

// Notifier sends warm failure reports.
type Notifier interface {
	SendWarmReport(ctx context.Context, report *WarmReport) error
}
