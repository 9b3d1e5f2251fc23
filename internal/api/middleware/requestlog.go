package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

type ctxKey struct{}

// probePaths are logged once on first success and on every failure.
var probePaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestIDFromContext returns the request ID stored by RequestLog, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// RequestLog returns Echo middleware that logs each request with structured
// fields. It reuses an incoming X-Request-ID or generates one, echoes it on
// the response and stores it on both the echo and request contexts. 5xx
// responses log at error, 4xx and failed probes at warn.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var probesSeen sync.Map

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := req.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set(requestIDKey, reqID)
			c.SetRequest(req.WithContext(context.WithValue(req.Context(), ctxKey{}, reqID)))
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			path := req.URL.Path

			if _, probe := probePaths[path]; probe && status < http.StatusBadRequest {
				if _, seen := probesSeen.LoadOrStore(path, struct{}{}); seen {
					return nil
				}
			}

			log.Log(req.Context(), levelFor(path, status), "request",
				"method", req.Method,
				"path", path,
				"query", req.URL.RawQuery,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			)

			return nil
		}
	}
}

func levelFor(path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		if _, probe := probePaths[path]; probe {
			return slog.LevelWarn
		}
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
