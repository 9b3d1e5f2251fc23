// Package reso provides a client for the RESO Web API Property resource with
// response caching and normalized error reporting.
package reso

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/donaldgifford/reso-listings/internal/cache"
	"github.com/donaldgifford/reso-listings/pkg/odata"
)

const (
	defaultTimeout  = 12 * time.Second
	defaultCacheTTL = 5 * time.Minute

	cacheKeyPrefix = "reso:listings:"
	propertyPath   = "/Property"
)

// Config holds the upstream credentials. An empty APIKey is allowed; the
// server decides whether to accept unauthenticated calls.
type Config struct {
	APIKey  string
	BaseURL string
}

// Fetcher is the read surface consumed by HTTP handlers and the warmer.
type Fetcher interface {
	FetchListings(ctx context.Context, p odata.Params) ListingResult
	FetchListingByKey(ctx context.Context, key string) SingleResult
	ListURL(p odata.Params) string
}

// Client executes OData queries against {BaseURL}/Property.
type Client struct {
	cfg      Config
	endpoint string
	http     *http.Client
	cache    cache.Cache
	cacheTTL time.Duration
	builder  *odata.Builder
	extract  ResultsExtractor
	countKey string
	limiter  *Limiter
	log      *slog.Logger
	inflight singleflight.Group
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client (12s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithCache sets the response cache. Without one, nothing is cached.
func WithCache(store cache.Cache) Option {
	return func(c *Client) {
		c.cache = store
	}
}

// WithCacheTTL overrides the five minute cache lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// WithBuilder replaces the default query builder.
func WithBuilder(b *odata.Builder) Option {
	return func(c *Client) {
		c.builder = b
	}
}

// WithResultsExtractor overrides where listings are read from in the
// response body.
func WithResultsExtractor(f ResultsExtractor) Option {
	return func(c *Client) {
		c.extract = f
	}
}

// WithCountField overrides the field holding the total match count.
func WithCountField(field string) Option {
	return func(c *Client) {
		c.countKey = field
	}
}

// WithRateLimiter throttles upstream calls. Cached responses bypass it.
func WithRateLimiter(l *Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a Client for cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:      cfg,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + propertyPath,
		http:     &http.Client{Timeout: defaultTimeout},
		cache:    cache.Noop{},
		cacheTTL: defaultCacheTTL,
		builder:  odata.NewBuilder(),
		extract:  PathExtractor(DefaultResultsPath),
		countKey: DefaultCountField,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the resolved Property URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Builder returns the query builder in use.
func (c *Client) Builder() *odata.Builder {
	return c.builder
}

// ListURL returns the full upstream URL FetchListings would request for p.
func (c *Client) ListURL(p odata.Params) string {
	return c.builder.Build(p).URL(c.endpoint)
}

// CacheKey fingerprints q against this client's endpoint.
func (c *Client) CacheKey(q odata.Query) string {
	sum := sha256.Sum256([]byte(c.endpoint + "?" + q.Encode()))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
