package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/similarity/cache"
	"github.com/jonwraymond/similarity/catalog"
	"github.com/jonwraymond/similarity/config"
	"github.com/jonwraymond/similarity/health"
	"github.com/jonwraymond/similarity/observe"
	"github.com/jonwraymond/similarity/resilience"
	"github.com/jonwraymond/similarity/server"
	"github.com/jonwraymond/similarity/similar"
)

// app is the assembled service.
type app struct {
	handler  http.Handler
	logger   observe.Logger
	service  *similar.Service
	breakers *resilience.BreakerSet
	closers  []func(context.Context) error
}

// newApp wires every component from cfg.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	obsCfg := cfg.Telemetry.Observe()
	obsCfg.Metrics.Registerer = reg
	obs, err := observe.NewObserver(ctx, obsCfg)
	if err != nil {
		return nil, fmt.Errorf("observer: %w", err)
	}
	a.closers = append(a.closers, obs.Shutdown)

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, a.fail(ctx, err)
	}
	a.logger = mw.Logger()

	upstream, err := catalog.NewHTTPClient(cfg.Upstream.Client())
	if err != nil {
		return nil, a.fail(ctx, fmt.Errorf("upstream client: %w", err))
	}

	template := cfg.Breaker.Resilience()
	template.OnStateChange = similar.BreakerTransitionHook(mw.Metrics(), a.logger)
	a.breakers = resilience.NewBreakerSet(template, cfg.Breaker.BreakerScope())

	callerOpts := []resilience.CallerOption{
		resilience.WithBreakers(a.breakers),
		resilience.WithRetry(cfg.Retry.Resilience()),
		resilience.WithTimeout(cfg.Upstream.CallTimeout),
		resilience.WithClassifier(similar.Classify),
		resilience.WithRetryHook(similar.RetryLogHook(a.logger)),
	}
	if bc, ok := cfg.Upstream.Bulkhead(); ok {
		callerOpts = append(callerOpts, resilience.WithBulkhead(resilience.NewBulkhead(bc)))
	}
	caller := resilience.NewCaller(callerOpts...)

	agg := health.NewAggregator(2 * time.Second)
	agg.Register(health.NewBreakerChecker(a.breakers))

	svcOpts := []similar.Option{
		similar.WithMiddleware(mw),
		similar.WithFanoutLimit(cfg.Upstream.FanoutLimit),
	}
	rc, err := a.resultCache(ctx, cfg.Cache, agg, template)
	if err != nil {
		return nil, a.fail(ctx, err)
	}
	if rc != nil {
		svcOpts = append(svcOpts, similar.WithCache(rc))
	}

	a.service, err = similar.NewService(upstream, caller, svcOpts...)
	if err != nil {
		return nil, a.fail(ctx, err)
	}

	var metricsHandler http.Handler
	if cfg.Telemetry.MetricsExporter == "prometheus" {
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}
	a.handler, err = server.New(a.service, server.Options{
		Logger:         a.logger,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Health:         agg,
		Metrics:        metricsHandler,
		Registerer:     reg,
	})
	if err != nil {
		return nil, a.fail(ctx, err)
	}

	a.logger.Info(ctx, "service configured",
		observe.F("upstream", cfg.Upstream.BaseURL),
		observe.F("cache", cfg.Cache.Backend),
		observe.F("breaker_scope", cfg.Breaker.Scope),
		observe.F("metrics", cfg.Telemetry.MetricsExporter),
		observe.F("tracing", cfg.Telemetry.TracingExporter))
	return a, nil
}

// resultCache builds the configured cache backend. It returns nil when
// caching is disabled.
func (a *app) resultCache(ctx context.Context, cfg config.CacheConfig, agg *health.Aggregator, breaker resilience.CircuitBreakerConfig) (*similar.ResultCache, error) {
	policy := cfg.Policy()
	if !policy.ShouldCache() {
		return nil, nil
	}

	var backend cache.Cache
	switch cfg.Backend {
	case config.CacheRedis:
		client, err := cache.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return closeRedis(client) })

		breaker.Name = "cache"
		rc := cache.NewRedisCache(client,
			cache.WithBreaker(resilience.NewCircuitBreaker(breaker)),
			cache.WithErrorHook(func(op string, err error) {
				a.logger.Warn(context.Background(), "cache backend error",
					observe.F("op", op), observe.F("error", err))
			}))
		agg.Register(health.NewPingChecker("cache", rc, time.Second))
		backend = rc
	default:
		backend = cache.NewMemoryCache(policy)
	}

	return similar.NewResultCache(backend, policy)
}

func closeRedis(client *redis.Client) error {
	if err := client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// fail releases what was acquired so far and returns err.
func (a *app) fail(ctx context.Context, err error) error {
	_ = a.close(ctx)
	return err
}
