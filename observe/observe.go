package observe

import (
	"context"
	"errors"
	"fmt"
	"slices"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/similarity/observe/exporters"
)

// Config selects the telemetry backends.
type Config struct {
	ServiceName string
	Version     string
	Tracing     TracingConfig
	Metrics     MetricsConfig
	Logging     LoggingConfig
}

// TracingConfig selects the span exporter and sampling ratio.
type TracingConfig struct {
	Enabled bool
	// Exporter is one of otlp, jaeger, stdout or none.
	Exporter string
	// SamplePct is the fraction of root spans sampled, in [0, 1].
	SamplePct float64
}

// MetricsConfig selects the metrics reader.
type MetricsConfig struct {
	Enabled bool
	// Exporter is one of otlp, prometheus, stdout or none.
	Exporter string

	// Registerer receives the prometheus collector. Nil means
	// prometheus.DefaultRegisterer.
	Registerer promclient.Registerer
}

// LoggingConfig selects the minimum log level.
type LoggingConfig struct {
	Enabled bool
	// Level is one of debug, info, warn or error.
	Level string
}

var (
	tracingExporters = []string{"", "none", "stdout", "otlp", "jaeger"}
	metricsExporters = []string{"", "none", "stdout", "otlp", "prometheus"}
	logLevels        = []string{"", "debug", "info", "warn", "error"}
)

// Validate reports the first problem found. Disabled subsystems are not
// checked.
func (c *Config) Validate() error {
	switch {
	case c.ServiceName == "":
		return ErrMissingServiceName
	case c.Tracing.Enabled && !slices.Contains(tracingExporters, c.Tracing.Exporter):
		return fmt.Errorf("%w: %q", ErrInvalidTracingExporter, c.Tracing.Exporter)
	case c.Tracing.Enabled && (c.Tracing.SamplePct < 0 || c.Tracing.SamplePct > 1):
		return fmt.Errorf("%w: %v", ErrInvalidSamplePct, c.Tracing.SamplePct)
	case c.Metrics.Enabled && !slices.Contains(metricsExporters, c.Metrics.Exporter):
		return fmt.Errorf("%w: %q", ErrInvalidMetricsExporter, c.Metrics.Exporter)
	case c.Logging.Enabled && !slices.Contains(logLevels, c.Logging.Level):
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	return nil
}

// Observer provides access to telemetry primitives.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Shutdown must honor cancellation/deadlines.
// - Errors: Shutdown should be idempotent and return the first error encountered.
type Observer interface {
	// Tracer returns the configured tracer.
	Tracer() trace.Tracer

	// Meter returns the configured meter.
	Meter() metric.Meter

	// Logger returns the configured logger.
	Logger() Logger

	// Shutdown gracefully shuts down all telemetry providers.
	Shutdown(ctx context.Context) error
}

// Logger is a minimal structured logging interface.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: logging must be best-effort and must not panic.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)

	// With returns a logger that adds fields to every entry.
	With(fields ...Field) Logger
}

// Field represents a structured log field.
type Field struct {
	Key   string
	Value any
}

// F is shorthand for constructing a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// instrumentationName is the scope name of the service's tracer and meter.
const instrumentationName = "github.com/jonwraymond/similarity"

type observer struct {
	tracer    trace.Tracer
	meter     metric.Meter
	logger    Logger
	shutdowns []func(context.Context) error
}

// NewObserver builds the providers selected by cfg and installs them as the
// otel globals, so instrumented libraries such as otelhttp report through
// them. Disabled subsystems get no-op implementations.
func NewObserver(ctx context.Context, cfg Config) (Observer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.Version),
	))
	if err != nil {
		return nil, fmt.Errorf("observe: resource: %w", err)
	}

	o := &observer{
		tracer: tracenoop.NewTracerProvider().Tracer(instrumentationName),
		meter:  noop.NewMeterProvider().Meter(instrumentationName),
		logger: NopLogger(),
	}

	if cfg.Tracing.Enabled {
		tp, err := newTracerProvider(ctx, cfg.Tracing, res)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{}))
		o.tracer = tp.Tracer(instrumentationName)
		o.shutdowns = append(o.shutdowns, tp.Shutdown)
	}

	if cfg.Metrics.Enabled {
		mp, err := newMeterProvider(ctx, cfg.Metrics, res)
		if err != nil {
			_ = o.Shutdown(ctx)
			return nil, err
		}
		otel.SetMeterProvider(mp)
		o.meter = mp.Meter(instrumentationName)
		o.shutdowns = append(o.shutdowns, mp.Shutdown)
	}

	if cfg.Logging.Enabled {
		o.logger = NewLogger(cfg.Logging.Level).With(F("service", cfg.ServiceName))
	}
	return o, nil
}

func newTracerProvider(ctx context.Context, cfg TracingConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exp, err := exporters.NewTracingExporter(ctx, cfg.Exporter)
	if err != nil {
		return nil, fmt.Errorf("observe: tracing: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplePct))),
	}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

func newMeterProvider(ctx context.Context, cfg MetricsConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	var opts []exporters.Option
	if cfg.Registerer != nil {
		opts = append(opts, exporters.WithRegisterer(cfg.Registerer))
	}
	reader, err := exporters.NewMetricsReader(ctx, cfg.Exporter, opts...)
	if err != nil {
		return nil, fmt.Errorf("observe: metrics: %w", err)
	}

	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if reader != nil {
		mpOpts = append(mpOpts, sdkmetric.WithReader(reader))
	}
	return sdkmetric.NewMeterProvider(mpOpts...), nil
}

func (o *observer) Tracer() trace.Tracer { return o.tracer }
func (o *observer) Meter() metric.Meter  { return o.meter }
func (o *observer) Logger() Logger       { return o.logger }

// Shutdown flushes and stops the providers in reverse order of creation.
func (o *observer) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(o.shutdowns) - 1; i >= 0; i-- {
		if err := o.shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	o.shutdowns = nil
	return errors.Join(errs...)
}
