package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/donaldgifford/reso-listings/internal/cache"
	"github.com/donaldgifford/reso-listings/internal/config"
	"github.com/donaldgifford/reso-listings/internal/notify"
	"github.com/donaldgifford/reso-listings/internal/reso"
	"github.com/donaldgifford/reso-listings/internal/tracing"
	"github.com/donaldgifford/reso-listings/pkg/odata"
)

const (
	retryWaitMin  = 200 * time.Millisecond
	retryWaitMax  = 2 * time.Second
	notifyTimeout = 10 * time.Second
)

// newCache builds the configured cache backend. The returned close function
// is never nil on success.
func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, func() error, error) {
	noClose := func() error { return nil }

	switch cfg.Backend {
	case config.CacheMemory:
		return cache.NewMemory(), noClose, nil
	case config.CacheRedis:
		r := cache.NewRedis(cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		return r, r.Close, nil
	case config.CachePostgres:
		pg, err := cache.NewPostgres(ctx, cache.PostgresOptions{
			DSN:      cfg.Postgres.DSN,
			Prefix:   cfg.Postgres.Prefix,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting postgres cache: %w", err)
		}
		return pg, pg.Close, nil
	case config.CacheNone:
		return cache.Noop{}, noClose, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// newLimiter returns nil when upstream rate limiting is off.
func newLimiter(cfg config.RateLimitConfig) *reso.Limiter {
	if cfg.PerSecond <= 0 {
		return nil
	}
	return reso.NewLimiter(cfg.PerSecond, cfg.Burst, cfg.DailyLimit)
}

func newBuilder(cfg config.ResoConfig) *odata.Builder {
	return odata.NewBuilder(
		odata.WithRentalType(cfg.RentalType),
		odata.WithExcludedStatuses(cfg.ExcludedStatuses),
		odata.WithExtendedFilters(cfg.ExtendedFiltersEnabled()),
	)
}

// newHTTPClient returns the traced upstream HTTP client. cfg.Timeout bounds
// the whole call; with MaxRetries set, transport errors and 5xx responses
// are retried inside that same deadline.
func newHTTPClient(cfg config.ResoConfig, log *slog.Logger) *http.Client {
	base := &http.Client{
		Transport: tracing.Transport(nil),
		Timeout:   cfg.Timeout,
	}
	if cfg.MaxRetries <= 0 {
		return base
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = base
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = retryWaitMin
	rc.RetryWaitMax = retryWaitMax
	rc.Logger = log
	// Hand the last response back so status classification stays with the
	// RESO client.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &http.Client{
		Transport: rc.StandardClient().Transport,
		Timeout:   cfg.Timeout,
	}
}

func newResoClient(
	cfg config.ResoConfig,
	cacheCfg config.CacheConfig,
	store cache.Cache,
	limiter *reso.Limiter,
	log *slog.Logger,
) *reso.Client {
	opts := []reso.Option{
		reso.WithHTTPClient(newHTTPClient(cfg, log)),
		reso.WithCache(store),
		reso.WithCacheTTL(cacheCfg.TTL),
		reso.WithBuilder(newBuilder(cfg)),
		reso.WithResultsExtractor(reso.PathExtractor(cfg.ResultsPath)),
		reso.WithCountField(cfg.CountField),
		reso.WithLogger(log),
	}
	if limiter != nil {
		opts = append(opts, reso.WithRateLimiter(limiter))
	}

	return reso.NewClient(reso.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL}, opts...)
}

// newNotifier posts warm reports to Discord when a webhook is configured and
// only logs them otherwise.
func newNotifier(cfg config.NotifyConfig, log *slog.Logger) notify.Notifier {
	if cfg.DiscordWebhookURL == "" {
		return notify.NewNoOpNotifier(log)
	}
	return notify.NewDiscordNotifier(cfg.DiscordWebhookURL,
		notify.WithHTTPClient(&http.Client{
			Transport: tracing.Transport(nil),
			Timeout:   notifyTimeout,
		}),
	)
}
