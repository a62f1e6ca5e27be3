package config

import (
	"github.com/jonwraymond/similarity/cache"
	"github.com/jonwraymond/similarity/catalog"
	"github.com/jonwraymond/similarity/observe"
	"github.com/jonwraymond/similarity/resilience"
)

// Resilience returns the retry policy.
func (c RetryConfig) Resilience() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:  c.MaxAttempts,
		InitialDelay: c.Delay,
		MaxDelay:     c.MaxDelay,
		Strategy:     resilience.ParseBackoffStrategy(c.Backoff),
		Jitter:       c.Jitter,
	}
}

// Resilience returns the breaker template. OnStateChange is left for the
// caller to set.
func (c BreakerConfig) Resilience() resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		FailureRatio:   c.FailureRatio,
		MinRequests:    c.MinRequests,
		WindowSize:     c.WindowSize,
		OpenTimeout:    c.OpenTimeout,
		HalfOpenProbes: c.HalfOpenProbes,
	}
}

// BreakerScope returns the configured breaker scope.
func (c BreakerConfig) BreakerScope() resilience.BreakerScope {
	return resilience.ParseBreakerScope(c.Scope)
}

// Bulkhead returns the bulkhead settings, or false when it is disabled.
func (c UpstreamConfig) Bulkhead() (resilience.BulkheadConfig, bool) {
	if c.MaxConcurrent <= 0 {
		return resilience.BulkheadConfig{}, false
	}
	return resilience.BulkheadConfig{MaxConcurrent: c.MaxConcurrent, MaxWait: c.BulkheadWait}, true
}

// Client returns the catalog client settings.
func (c UpstreamConfig) Client() catalog.HTTPClientConfig {
	return catalog.HTTPClientConfig{BaseURL: c.BaseURL}
}

// Policy returns the cache policy. The none backend disables caching.
func (c CacheConfig) Policy() cache.Policy {
	if c.Backend == CacheNone {
		return cache.NoCachePolicy()
	}
	return cache.Policy{
		DefaultTTL: c.TTL,
		MaxTTL:     c.TTL,
		MaxEntries: c.MaxEntries,
	}
}

// Redis returns the redis connection settings.
func (c CacheConfig) Redis() cache.RedisConfig {
	return cache.RedisConfig{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// Observe returns the telemetry settings. Exporters set to "none" are
// disabled.
func (c TelemetryConfig) Observe() observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Version:     c.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.TracingExporter != "none",
			Exporter:  c.TracingExporter,
			SamplePct: c.TracingSamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.MetricsExporter != "none",
			Exporter: c.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.LogLevel,
		},
	}
}
