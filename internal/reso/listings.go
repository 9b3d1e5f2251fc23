package reso

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/reso-listings/internal/cache"
	"github.com/donaldgifford/reso-listings/internal/metrics"
	"github.com/donaldgifford/reso-listings/pkg/odata"
)

const (
	variantList   = "list"
	variantDetail = "detail"

	maxBodyBytes = 32 << 20
	logBodyBytes = 500
)

var tracer = otel.Tracer("github.com/donaldgifford/reso-listings/internal/reso")

// FetchListings returns one page of listings for p. Successful responses are
// cached for the configured TTL; failures are never cached. The returned
// envelope is always well formed, with Error set on failure.
func (c *Client) FetchListings(ctx context.Context, p odata.Params) ListingResult {
	q := c.builder.Build(p)
	key := c.CacheKey(q)

	ctx, span := tracer.Start(ctx, "reso.FetchListings",
		trace.WithAttributes(attribute.String("reso.cache_key", key)))
	defer span.End()

	if res, ok := c.lookup(ctx, key); ok {
		span.SetAttributes(attribute.Bool("reso.cache_hit", true))
		return res
	}
	span.SetAttributes(attribute.Bool("reso.cache_hit", false))

	// The shared fetch outlives any single caller; each caller only stops
	// waiting when its own context ends.
	ch := c.inflight.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		defer cancel()

		res := c.fetchList(fetchCtx, q)
		if !res.Failed() {
			c.store(fetchCtx, key, res)
		}
		return res, nil
	})

	var res ListingResult
	select {
	case r := <-ch:
		res = r.Val.(ListingResult) //nolint:forcetypeassert // only ListingResult is stored
	case <-ctx.Done():
		c.log.Warn("listing search abandoned by caller", "key", key, "error", ctx.Err())
		res = failedList(KindTransport)
	}

	if res.Failed() {
		span.SetStatus(codes.Error, string(res.Error))
	}
	return res
}

// FetchListingByKey returns the listing with the given ListingKey. It always
// goes to the network so detail views are never stale.
func (c *Client) FetchListingByKey(ctx context.Context, key string) SingleResult {
	ctx, span := tracer.Start(ctx, "reso.FetchListingByKey",
		trace.WithAttributes(attribute.String("reso.listing_key", key)))
	defer span.End()

	body, kind := c.get(ctx, variantDetail, c.builder.BuildDetail(key))
	if kind != "" {
		span.SetStatus(codes.Error, string(kind))
		return failedSingle(kind)
	}

	obj, ok := c.decodeObject(variantDetail, body)
	if !ok {
		span.SetStatus(codes.Error, string(KindBadResponse))
		return failedSingle(KindBadResponse)
	}

	items := c.extract(obj)
	if len(items) == 0 {
		return SingleResult{Item: RawListing{}}
	}
	return SingleResult{Item: items[0]}
}

func (c *Client) fetchList(ctx context.Context, q odata.Query) ListingResult {
	body, kind := c.get(ctx, variantList, q)
	if kind != "" {
		return failedList(kind)
	}

	obj, ok := c.decodeObject(variantList, body)
	if !ok {
		return failedList(KindBadResponse)
	}

	items := c.extract(obj)
	total, ok := countOf(obj, c.countKey)
	if !ok {
		total = len(items)
	}
	return ListingResult{Items: items, Total: total}
}

// get performs one authenticated GET and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, variant string, q odata.Query) ([]byte, ErrorKind) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if errors.Is(err, ErrQuotaExhausted) {
				metrics.UpstreamQuotaRejections.Inc()
			}
			c.log.Warn("upstream call refused by rate limiter", "variant", variant, "error", err)
			metrics.UpstreamRequestsTotal.WithLabelValues(variant, string(KindTransport)).Inc()
			return nil, KindTransport
		}
		metrics.UpstreamDailyUsage.Set(float64(c.limiter.DailyCount()))
	}

	start := time.Now()
	body, status, err := c.do(ctx, q.URL(c.endpoint))
	metrics.UpstreamDuration.WithLabelValues(variant).Observe(time.Since(start).Seconds())

	if err != nil {
		c.log.Warn("upstream request failed", "variant", variant, "endpoint", c.endpoint, "error", err)
		metrics.UpstreamRequestsTotal.WithLabelValues(variant, string(KindTransport)).Inc()
		return nil, KindTransport
	}

	if status != http.StatusOK {
		c.log.Warn("upstream returned unexpected status",
			"variant", variant,
			"status", status,
			"body", snippet(body),
		)
		metrics.UpstreamRequestsTotal.WithLabelValues(variant, string(KindBadResponse)).Inc()
		return nil, KindBadResponse
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(variant, "ok").Inc()
	return body, ""
}

func (c *Client) do(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

// decodeObject parses body as a single JSON object.
func (c *Client) decodeObject(variant string, body []byte) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var obj map[string]any
	err := dec.Decode(&obj)
	if err == nil {
		if _, tokErr := dec.Token(); !errors.Is(tokErr, io.EOF) {
			err = errors.New("trailing data after JSON object")
		}
	}
	if err != nil || obj == nil {
		c.log.Warn("upstream returned malformed JSON",
			"variant", variant,
			"error", err,
			"body", snippet(body),
		)
		return nil, false
	}
	return obj, true
}

func (c *Client) lookup(ctx context.Context, key string) (ListingResult, bool) {
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.log.Warn("cache get failed", "key", key, "error", err)
			metrics.CacheErrorsTotal.WithLabelValues("get").Inc()
		}
		metrics.CacheMissesTotal.Inc()
		return ListingResult{}, false
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var res ListingResult
	if err := dec.Decode(&res); err != nil {
		c.log.Warn("discarding undecodable cache entry", "key", key, "error", err)
		metrics.CacheErrorsTotal.WithLabelValues("decode").Inc()
		metrics.CacheMissesTotal.Inc()
		return ListingResult{}, false
	}
	if res.Items == nil {
		res.Items = []RawListing{}
	}

	metrics.CacheHitsTotal.Inc()
	return res, true
}

func (c *Client) store(ctx context.Context, key string, res ListingResult) {
	raw, err := json.Marshal(res)
	if err != nil {
		c.log.Warn("encoding cache entry failed", "key", key, "error", err)
		metrics.CacheErrorsTotal.WithLabelValues("encode").Inc()
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.cacheTTL); err != nil {
		c.log.Warn("cache set failed", "key", key, "error", err)
		metrics.CacheErrorsTotal.WithLabelValues("set").Inc()
	}
}

func snippet(body []byte) string {
	if len(body) > logBodyBytes {
		return string(body[:logBodyBytes])
	}
	return string(body)
}
