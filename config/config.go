// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Config is the full service configuration.
type Config struct {
	HTTP      HTTPConfig
	Upstream  UpstreamConfig
	Retry     RetryConfig
	Breaker   BreakerConfig
	Cache     CacheConfig
	Telemetry TelemetryConfig
}

// HTTPConfig configures the inbound server.
type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" env-default:":5000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" env-default:"5s"`
}

// UpstreamConfig configures the catalog client and call protection.
type UpstreamConfig struct {
	BaseURL       string        `env:"UPSTREAM_BASE_URL" env-default:"http://localhost:3001"`
	MaxConcurrent int           `env:"UPSTREAM_MAX_CONCURRENT" env-default:"0"`
	BulkheadWait  time.Duration `env:"UPSTREAM_BULKHEAD_WAIT" env-default:"100ms"`
	FanoutLimit   int           `env:"FANOUT_LIMIT" env-default:"0"`
	CallTimeout   time.Duration `env:"CALL_TIMEOUT" env-default:"1s"`
}

// RetryConfig configures retries of transient failures.
type RetryConfig struct {
	MaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" env-default:"3"`
	Delay       time.Duration `env:"RETRY_DELAY" env-default:"100ms"`
	MaxDelay    time.Duration `env:"RETRY_MAX_DELAY" env-default:"2s"`
	Backoff     string        `env:"RETRY_BACKOFF" env-default:"constant"`
	Jitter      bool          `env:"RETRY_JITTER" env-default:"false"`
}

// BreakerConfig configures the upstream circuit breakers.
type BreakerConfig struct {
	FailureRatio   float64       `env:"BREAKER_FAILURE_RATIO" env-default:"0.5"`
	MinRequests    int           `env:"BREAKER_MIN_REQUESTS" env-default:"5"`
	WindowSize     int           `env:"BREAKER_WINDOW_SIZE" env-default:"10"`
	OpenTimeout    time.Duration `env:"BREAKER_OPEN_TIMEOUT" env-default:"10s"`
	HalfOpenProbes int           `env:"BREAKER_HALF_OPEN_PROBES" env-default:"1"`
	Scope          string        `env:"BREAKER_SCOPE" env-default:"operation"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	Backend       string        `env:"CACHE_BACKEND" env-default:"memory"`
	TTL           time.Duration `env:"CACHE_TTL" env-default:"5m"`
	MaxEntries    int           `env:"CACHE_MAX_ENTRIES" env-default:"10000"`
	RedisAddr     string        `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" env-default:"0"`
}

// TelemetryConfig configures logging, tracing and metrics.
type TelemetryConfig struct {
	ServiceName      string  `env:"SERVICE_NAME" env-default:"similar-products"`
	Version          string  `env:"SERVICE_VERSION" env-default:"dev"`
	LogLevel         string  `env:"LOG_LEVEL" env-default:"info"`
	TracingExporter  string  `env:"TRACING_EXPORTER" env-default:"none"`
	TracingSamplePct float64 `env:"TRACING_SAMPLE_PCT" env-default:"1.0"`
	MetricsExporter  string  `env:"METRICS_EXPORTER" env-default:"prometheus"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads the configuration from a yaml, json, toml or env file.
// Environment variables override file values.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Usage describes every supported environment variable.
func Usage() string {
	var cfg Config
	desc, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return desc
}

// Validate rejects out-of-range values.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.HTTP.Addr != "", "HTTP_ADDR is empty")
	check(c.HTTP.ShutdownTimeout > 0, "SHUTDOWN_TIMEOUT must be positive")
	check(c.HTTP.RequestTimeout > 0, "REQUEST_TIMEOUT must be positive")

	check(c.Upstream.BaseURL != "", "UPSTREAM_BASE_URL is empty")
	check(c.Upstream.MaxConcurrent >= 0, "UPSTREAM_MAX_CONCURRENT must not be negative")
	check(c.Upstream.BulkheadWait >= 0, "UPSTREAM_BULKHEAD_WAIT must not be negative")
	check(c.Upstream.FanoutLimit >= 0, "FANOUT_LIMIT must not be negative")
	check(c.Upstream.CallTimeout > 0, "CALL_TIMEOUT must be positive")

	check(c.Retry.MaxAttempts >= 1, "RETRY_MAX_ATTEMPTS must be at least 1")
	check(c.Retry.Delay > 0, "RETRY_DELAY must be positive")
	check(c.Retry.MaxDelay >= c.Retry.Delay, "RETRY_MAX_DELAY must be at least RETRY_DELAY")
	check(slices.Contains([]string{"constant", "linear", "exponential"}, c.Retry.Backoff),
		"RETRY_BACKOFF %q", c.Retry.Backoff)

	check(c.Breaker.FailureRatio > 0 && c.Breaker.FailureRatio <= 1,
		"BREAKER_FAILURE_RATIO %v not in (0, 1]", c.Breaker.FailureRatio)
	check(c.Breaker.MinRequests >= 1, "BREAKER_MIN_REQUESTS must be at least 1")
	check(c.Breaker.WindowSize >= c.Breaker.MinRequests, "BREAKER_WINDOW_SIZE must be at least BREAKER_MIN_REQUESTS")
	check(c.Breaker.OpenTimeout > 0, "BREAKER_OPEN_TIMEOUT must be positive")
	check(c.Breaker.HalfOpenProbes >= 1, "BREAKER_HALF_OPEN_PROBES must be at least 1")
	check(slices.Contains([]string{"operation", "shared"}, c.Breaker.Scope),
		"BREAKER_SCOPE %q", c.Breaker.Scope)

	check(slices.Contains([]string{CacheMemory, CacheRedis, CacheNone}, c.Cache.Backend),
		"CACHE_BACKEND %q", c.Cache.Backend)
	if c.Cache.Backend != CacheNone {
		check(c.Cache.TTL > 0, "CACHE_TTL must be positive")
	}
	check(c.Cache.MaxEntries >= 0, "CACHE_MAX_ENTRIES must not be negative")
	if c.Cache.Backend == CacheRedis {
		check(c.Cache.RedisAddr != "", "REDIS_ADDR is empty")
	}

	check(c.Telemetry.ServiceName != "", "SERVICE_NAME is empty")

	return errors.Join(errs...)
}
