package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/reso-listings/internal/api"
	"github.com/donaldgifford/reso-listings/internal/cache"
	"github.com/donaldgifford/reso-listings/internal/config"
	"github.com/donaldgifford/reso-listings/internal/reso"
	"github.com/donaldgifford/reso-listings/internal/tracing"
	"github.com/donaldgifford/reso-listings/internal/warmer"
	"github.com/donaldgifford/reso-listings/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var warmOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and cache warmer",
		Long: "Start the HTTP API. Listing searches are proxied to the configured\n" +
			"RESO Web API with response caching; saved searches in the warm\n" +
			"section of the config are replayed on a schedule.",
		Example: `  # Serve with config.yaml in the working directory
  reso-listings serve

  # Use another config and secrets from a dotenv file
  reso-listings serve --config /etc/reso/config.yaml --env-file /etc/reso/.env`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), warmOnStart)
		},
	}
	cmd.Flags().
		BoolVar(&warmOnStart, "warm-on-start", false, "run saved searches once before accepting requests")

	return cmd
}

func runServe(parent context.Context, warmOnStart bool) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Reso.BaseURL == "" {
		return errors.New("reso.base_url is required to serve")
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Error("tracing shutdown failed", "error", err)
		}
	}()

	store, closeCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeCache(); err != nil {
			log.Error("closing cache", "error", err)
		}
	}()

	limiter := newLimiter(cfg.Reso.RateLimit)
	client := newResoClient(cfg.Reso, cfg.Cache, store, limiter, log)
	log.Info("upstream configured",
		"endpoint", client.Endpoint(),
		"cache", cfg.Cache.Backend,
		"extended_filters", cfg.Reso.ExtendedFiltersEnabled(),
	)

	w, err := newWarmer(cfg, client, store, log)
	if err != nil {
		return fmt.Errorf("creating warmer: %w", err)
	}
	if w != nil {
		if warmOnStart {
			if failed := w.RunOnce(ctx); failed > 0 {
				log.Warn("initial cache warm incomplete", "failed", failed)
			}
		}
		w.Start()
		defer func() { <-w.Stop().Done() }()
	}

	deps := api.Deps{
		Fetcher:            client,
		Cache:              store,
		Logger:             log,
		Version:            Version,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
	}
	if limiter != nil {
		deps.Quota = limiter
	}

	e := api.NewServer(deps)
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr, "version", Version)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// newWarmer returns nil when there is nothing to schedule: warming is off
// and the cache expires entries on its own.
func newWarmer(
	cfg *config.Config,
	fetcher *reso.Client,
	store cache.Cache,
	log *slog.Logger,
) (*warmer.Warmer, error) {
	var (
		searches []warmer.Search
		opts     []warmer.Option
	)
	if cfg.Warm.Enabled {
		searches = warmer.SearchesFromConfig(cfg.Warm.Searches)
		opts = append(opts, warmer.WithNotifier(newNotifier(cfg.Notify, log)))
	}
	s, sweeps := store.(warmer.Sweeper)
	if sweeps {
		opts = append(opts, warmer.WithSweeper(s, cfg.Cache.SweepInterval))
	}
	if len(searches) == 0 && !sweeps {
		return nil, nil
	}

	return warmer.New(fetcher, searches, cfg.Warm.Interval, log, opts...)
}
