package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/reso-listings/internal/metrics"
)

// RateLimit returns Echo middleware allowing perMinute requests per client IP.
// Requests over the limit get 429 with a problem+json body and never reach
// the upstream quota. Probe and scrape paths are exempt. A non-positive
// perMinute disables limiting.
func RateLimit(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	limiter := httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			metrics.HTTPRateLimited.Inc()
			w.Header().Set(echo.HeaderContentType, "application/problem+json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"title":"Too Many Requests","status":429,"detail":"rate limit exceeded"}`))
		}),
	)

	wrapped := echo.WrapMiddleware(limiter)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		limited := wrapped(next)
		return func(c echo.Context) error {
			if _, exempt := metricsSkipPaths[c.Path()]; exempt {
				return next(c)
			}
			return limited(c)
		}
	}
}
