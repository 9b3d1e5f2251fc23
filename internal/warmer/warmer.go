// Package warmer periodically replays saved listing searches so their cache
// entries are refilled shortly after they expire.
package warmer

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/reso-listings/internal/config"
	"github.com/donaldgifford/reso-listings/internal/metrics"
	"github.com/donaldgifford/reso-listings/internal/notify"
	"github.com/donaldgifford/reso-listings/internal/reso"
	"github.com/donaldgifford/reso-listings/pkg/odata"
)

const (
	defaultRunTimeout = 30 * time.Second
	notifyTimeout     = 10 * time.Second
)

// Search is a named saved search.
type Search struct {
	Name   string
	Params odata.Params
}

// SearchesFromConfig converts configured saved searches, coercing their
// values the same way the HTTP API coerces query strings.
func SearchesFromConfig(saved []config.SavedSearch) []Search {
	out := make([]Search, 0, len(saved))
	for _, s := range saved {
		out = append(out, Search{
			Name:   s.Name,
			Params: odata.ParamsFromValues(s.Values()),
		})
	}
	return out
}

// Sweeper drops expired entries from a cache that does not expire them on
// its own.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Option configures a Warmer.
type Option func(*Warmer)

// WithSweeper registers a second job that sweeps expired cache entries
// every interval.
func WithSweeper(s Sweeper, interval time.Duration) Option {
	return func(w *Warmer) {
		w.sweeper = s
		w.sweepInterval = interval
	}
}

// WithNotifier reports scheduled cycles that had failures.
func WithNotifier(n notify.Notifier) Option {
	return func(w *Warmer) {
		w.notifier = n
	}
}

// WithRunTimeout bounds a single warm cycle.
func WithRunTimeout(d time.Duration) Option {
	return func(w *Warmer) {
		w.runTimeout = d
	}
}

// Warmer runs saved searches on a cron schedule.
type Warmer struct {
	cron          *cron.Cron
	fetcher       reso.Fetcher
	searches      []Search
	sweeper       Sweeper
	sweepInterval time.Duration
	runTimeout    time.Duration
	notifier      notify.Notifier
	log           *slog.Logger
}

// New creates a Warmer that replays searches every interval. With no
// searches only the sweep job, if any, is scheduled.
func New(
	fetcher reso.Fetcher,
	searches []Search,
	interval time.Duration,
	log *slog.Logger,
	opts ...Option,
) (*Warmer, error) {
	w := &Warmer{
		cron:       cron.New(),
		fetcher:    fetcher,
		searches:   searches,
		runTimeout: defaultRunTimeout,
		log:        log,
	}
	for _, opt := range opts {
		opt(w)
	}

	if len(searches) > 0 {
		if _, err := w.cron.AddFunc("@every "+interval.String(), w.runScheduled); err != nil {
			return nil, err
		}
	}

	if w.sweeper != nil && w.sweepInterval > 0 {
		if _, err := w.cron.AddFunc("@every "+w.sweepInterval.String(), w.sweep); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// Start begins running scheduled jobs.
func (w *Warmer) Start() {
	w.log.Info("cache warmer started", "searches", len(w.searches))
	w.cron.Start()
}

// Stop stops the scheduler; the returned context is done once running jobs
// have finished.
func (w *Warmer) Stop() context.Context {
	w.log.Info("cache warmer stopping")
	return w.cron.Stop()
}

// Entries returns the registered cron entries.
func (w *Warmer) Entries() []cron.Entry {
	return w.cron.Entries()
}

// RunOnce replays every saved search once and returns the number that
// failed. A failed search does not stop the cycle; searches skipped because
// ctx ended count as failed.
func (w *Warmer) RunOnce(ctx context.Context) int {
	return len(w.run(ctx))
}

func (w *Warmer) run(ctx context.Context) []notify.FailedSearch {
	metrics.WarmRunsTotal.Inc()

	var failed []notify.FailedSearch
	for i, s := range w.searches {
		if err := ctx.Err(); err != nil {
			remaining := w.searches[i:]
			for _, r := range remaining {
				failed = append(failed, notify.FailedSearch{Name: r.Name, Kind: "cancelled"})
			}
			metrics.WarmFailuresTotal.Add(float64(len(remaining)))
			w.log.Warn("cache warm cycle cancelled", "remaining", len(remaining), "error", err)
			return failed
		}

		res := w.fetcher.FetchListings(ctx, s.Params)
		if res.Failed() {
			failed = append(failed, notify.FailedSearch{Name: s.Name, Kind: string(res.Error)})
			metrics.WarmFailuresTotal.Inc()
			w.log.Warn("saved search warm failed", "search", s.Name, "kind", res.Error)
			continue
		}

		w.log.Debug("saved search warmed", "search", s.Name, "items", len(res.Items), "total", res.Total)
	}

	return failed
}

func (w *Warmer) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), w.runTimeout)
	defer cancel()

	start := time.Now()
	failed := w.run(ctx)
	duration := time.Since(start)
	w.log.Info("cache warm cycle complete",
		"searches", len(w.searches),
		"failed", len(failed),
		"duration", duration,
	)

	if len(failed) > 0 && w.notifier != nil {
		w.report(&notify.WarmReport{
			Total:    len(w.searches),
			Failed:   failed,
			Duration: duration,
		})
	}
}

// report sends r with its own deadline so a slow cycle does not starve it.
func (w *Warmer) report(r *notify.WarmReport) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := w.notifier.SendWarmReport(ctx, r); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		w.log.Warn("sending warm report failed", "error", err)
		return
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
}

func (w *Warmer) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), w.runTimeout)
	defer cancel()

	n, err := w.sweeper.Sweep(ctx)
	if err != nil {
		w.log.Warn("cache sweep failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Debug("expired cache entries swept", "count", n)
	}
}
