// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Reso    ResoConfig    `yaml:"reso"`
	Cache   CacheConfig   `yaml:"cache"`
	Warm    WarmConfig    `yaml:"warm"`
	Notify  NotifyConfig  `yaml:"notify"`
	Tracing TracingConfig `yaml:"tracing"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// RateLimitPerMinute caps API requests per client IP. Zero disables it.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

// ResoConfig defines the upstream RESO Web API settings.
type ResoConfig struct {
	// APIKey may be empty; the upstream decides whether that is acceptable.
	APIKey           string          `yaml:"api_key"`
	BaseURL          string          `yaml:"base_url"`
	// Timeout bounds one upstream call including every retry.
	Timeout          time.Duration   `yaml:"timeout"`
	MaxRetries       int             `yaml:"max_retries"`
	RentalType       string          `yaml:"rental_type"`
	ExcludedStatuses []string        `yaml:"excluded_statuses"`
	ExtendedFilters  *bool           `yaml:"extended_filters"`
	ResultsPath      string          `yaml:"results_path"`
	CountField       string          `yaml:"count_field"`
	RateLimit        RateLimitConfig `yaml:"rate_limit"`
}

// ExtendedFiltersEnabled reports whether the full filter set is on. It
// defaults to true.
func (r *ResoConfig) ExtendedFiltersEnabled() bool {
	return r.ExtendedFilters == nil || *r.ExtendedFilters
}

// RateLimitConfig defines upstream rate limiting. A zero PerSecond disables
// limiting entirely.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// Cache backends.
const (
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CachePostgres = "postgres"
	CacheNone     = "none"
)

// CacheConfig defines the response cache.
type CacheConfig struct {
	Backend       string         `yaml:"backend"` // memory, redis, postgres, none
	TTL           time.Duration  `yaml:"ttl"`
	SweepInterval time.Duration  `yaml:"sweep_interval"`
	Redis         RedisConfig    `yaml:"redis"`
	Postgres      PostgresConfig `yaml:"postgres"`
}

// RedisConfig defines Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// PostgresConfig defines the PostgreSQL cache table connection.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
	Prefix   string `yaml:"prefix"`
}

// WarmConfig defines scheduled cache warming.
type WarmConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Searches []SavedSearch `yaml:"searches"`
}

// SavedSearch is a named set of listing query parameters, spelled the same
// way as the HTTP API query string (city, min_price, rental, ...).
type SavedSearch struct {
	Name   string            `yaml:"name"`
	Params map[string]string `yaml:"params"`
}

// Values returns the search parameters as url.Values.
func (s SavedSearch) Values() url.Values {
	v := url.Values{}
	for k, val := range s.Params {
		v.Set(k, val)
	}
	return v
}

// NotifyConfig defines where warm failure reports are sent. An empty
// webhook URL disables delivery.
type NotifyConfig struct {
	DiscordWebhookURL string `yaml:"discord_webhook_url"`
}

// TracingConfig defines OpenTelemetry export settings.
type TracingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Endpoint      string `yaml:"endpoint"`
	Insecure      bool   `yaml:"insecure"`
	ServiceName   string `yaml:"service_name"`
	ExportMetrics bool   `yaml:"export_metrics"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML config content, applying env substitution, defaults and
// validation.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyResoDefaults(&cfg.Reso)
	applyCacheDefaults(&cfg.Cache)
	applyWarmDefaults(&cfg.Warm, cfg.Cache.TTL)
	applyTracingDefaults(&cfg.Tracing)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyResoDefaults(r *ResoConfig) {
	if r.Timeout == 0 {
		r.Timeout = 12 * time.Second
	}
	if r.RentalType == "" {
		r.RentalType = "Residential Lease"
	}
	if r.ExcludedStatuses == nil {
		r.ExcludedStatuses = []string{"Closed", "Canceled", "Expired"}
	}
	if r.ResultsPath == "" {
		r.ResultsPath = "value"
	}
	if r.CountField == "" {
		r.CountField = "@odata.count"
	}
	if r.RateLimit.PerSecond > 0 && r.RateLimit.Burst == 0 {
		r.RateLimit.Burst = 1
	}
}

func applyCacheDefaults(c *CacheConfig) {
	if c.Backend == "" {
		c.Backend = CacheMemory
	}
	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = time.Minute
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "reso-listings:"
	}
	if c.Postgres.Prefix == "" {
		c.Postgres.Prefix = "reso-listings:"
	}
}

func applyWarmDefaults(w *WarmConfig, ttl time.Duration) {
	if w.Interval == 0 {
		w.Interval = ttl
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.Endpoint == "" {
		t.Endpoint = "localhost:4317"
	}
	if t.ServiceName == "" {
		t.ServiceName = "reso-listings"
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Reso.BaseURL != "" {
		u, err := url.Parse(cfg.Reso.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("reso.base_url must be an absolute URL (got %q)", cfg.Reso.BaseURL))
		}
	}
	if cfg.Reso.Timeout < 0 {
		errs = append(errs, errors.New("reso.timeout must not be negative"))
	}
	if cfg.Reso.MaxRetries < 0 {
		errs = append(errs, errors.New("reso.max_retries must not be negative"))
	}
	if cfg.Server.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("server.rate_limit_per_minute must not be negative"))
	}
	if cfg.Reso.RateLimit.PerSecond < 0 {
		errs = append(errs, errors.New("reso.rate_limit.per_second must not be negative"))
	}

	switch cfg.Cache.Backend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if cfg.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr is required when backend is redis"))
		}
	case CachePostgres:
		if cfg.Cache.Postgres.DSN == "" {
			errs = append(errs, errors.New("cache.postgres.dsn is required when backend is postgres"))
		}
		if cfg.Cache.Postgres.MaxConns < 0 {
			errs = append(errs, errors.New("cache.postgres.max_conns must not be negative"))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"cache.backend must be one of: memory, redis, postgres, none (got %q)",
			cfg.Cache.Backend,
		))
	}
	if cfg.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}

	if cfg.Warm.Enabled {
		if cfg.Warm.Interval <= 0 {
			errs = append(errs, errors.New("warm.interval must be positive when warming is enabled"))
		}
		if len(cfg.Warm.Searches) == 0 {
			errs = append(errs, errors.New("warm.searches must not be empty when warming is enabled"))
		}
	}

	if u := cfg.Notify.DiscordWebhookURL; u != "" {
		parsed, err := url.Parse(u)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errs = append(errs, errors.New("notify.discord_webhook_url must be an absolute URL"))
		}
	}

	return errors.Join(errs...)
}
