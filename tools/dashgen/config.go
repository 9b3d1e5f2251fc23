package main

import "errors"

// KnownMetrics is the set of metric names exported by reso-listings plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"reso_http_request_duration_seconds_bucket": true,
	"reso_http_requests_total":                  true,
	"reso_http_requests_in_flight":              true,
	"reso_http_rate_limited_total":              true,

	// Health metrics.
	"reso_healthz_up": true,
	"reso_readyz_up":  true,

	// Upstream metrics.
	"reso_upstream_requests_total":                  true,
	"reso_upstream_request_duration_seconds_bucket": true,
	"reso_upstream_daily_usage":                     true,
	"reso_upstream_quota_rejections_total":          true,

	// Cache metrics.
	"reso_cache_hits_total":   true,
	"reso_cache_misses_total": true,
	"reso_cache_errors_total": true,

	// Warmer metrics.
	"reso_warm_runs_total":     true,
	"reso_warm_failures_total": true,
	"reso_notifications_total": true,

	// Recording rules.
	"reso:http_requests:rate5m":     true,
	"reso:http_errors:rate5m":       true,
	"reso:upstream_requests:rate5m": true,
	"reso:upstream_errors:rate5m":   true,
	"reso:cache_hits:rate5m":        true,
	"reso:cache_misses:rate5m":      true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
