// Package api assembles the Echo server and huma operations for the
// reso-listings HTTP API.
package api

import (
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/donaldgifford/reso-listings/api/openapi"
	"github.com/donaldgifford/reso-listings/internal/api/handlers"
	"github.com/donaldgifford/reso-listings/internal/api/middleware"
	"github.com/donaldgifford/reso-listings/internal/reso"
)

// Title is the OpenAPI document title.
const Title = "RESO Listings API"

// Deps are the collaborators the server routes to.
type Deps struct {
	Fetcher reso.Fetcher
	Cache   handlers.Pinger

	// Quota may be nil when upstream calls are not rate limited.
	Quota              handlers.QuotaSource
	Logger             *slog.Logger
	Version            string
	RateLimitPerMinute int
}

// NewServer returns an Echo instance with middleware, probes, metrics and
// the listing operations registered.
func NewServer(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(
		middleware.RequestLog(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.Metrics(),
		middleware.RateLimit(d.RateLimitPerMinute),
	)

	handlers.RegisterHealthRoutes(e, handlers.NewHealthHandler(d.Cache))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	openapi.RegisterRoutes(e, Title)

	humaAPI := humaecho.New(e, huma.DefaultConfig(Title, d.Version))
	handlers.RegisterListingRoutes(humaAPI, handlers.NewListingsHandler(d.Fetcher, d.Logger))
	handlers.RegisterQuotaRoutes(humaAPI, handlers.NewQuotaHandler(d.Quota))

	return e
}
