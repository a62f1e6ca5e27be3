// Package exporters builds OpenTelemetry span exporters and metric readers
// from short exporter names.
package exporters

import (
	"context"
	"fmt"
	"io"
	"os"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type settings struct {
	out io.Writer
	reg promclient.Registerer
}

// Option adjusts exporter construction.
type Option func(*settings)

// WithWriter redirects the stdout exporters. Defaults to os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(s *settings) { s.out = w }
}

// WithRegisterer registers the prometheus reader's collector with r instead of
// the global default registerer.
func WithRegisterer(r promclient.Registerer) Option {
	return func(s *settings) { s.reg = r }
}

func apply(opts []Option) settings {
	s := settings{out: os.Stdout}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// firstEnv returns the first non-empty value among the named variables.
func firstEnv(names ...string) (string, bool) {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v, true
		}
	}
	return "", false
}

func endpointError(signal string, names ...string) error {
	return fmt.Errorf("exporters: no %s endpoint configured (set one of %v)", signal, names)
}

// NewTracingExporter returns the span exporter called name: stdout, otlp or
// jaeger. "none" and "" return a nil exporter.
func NewTracingExporter(ctx context.Context, name string, opts ...Option) (sdktrace.SpanExporter, error) {
	s := apply(opts)

	switch name {
	case "", "none":
		return nil, nil
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(s.out))
	case "otlp":
		vars := []string{"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"}
		if _, ok := firstEnv(vars...); !ok {
			return nil, endpointError("trace", vars...)
		}
		return otlptracegrpc.New(ctx)
	case "jaeger":
		// Jaeger accepts OTLP directly.
		url, ok := firstEnv("OTEL_EXPORTER_JAEGER_ENDPOINT")
		if !ok {
			return nil, endpointError("jaeger", "OTEL_EXPORTER_JAEGER_ENDPOINT")
		}
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(url))
	}
	return nil, fmt.Errorf("exporters: unknown exporter %q", name)
}

// NewMetricsReader returns the metric reader called name: stdout, otlp or
// prometheus. "none" and "" return a nil reader.
func NewMetricsReader(ctx context.Context, name string, opts ...Option) (sdkmetric.Reader, error) {
	s := apply(opts)

	switch name {
	case "", "none":
		return nil, nil
	case "stdout":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(s.out))
		if err != nil {
			return nil, fmt.Errorf("exporters: stdout metrics: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	case "otlp":
		vars := []string{"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"}
		if _, ok := firstEnv(vars...); !ok {
			return nil, endpointError("metrics", vars...)
		}
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("exporters: otlp metrics: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	case "prometheus":
		var popts []prometheus.Option
		if s.reg != nil {
			popts = append(popts, prometheus.WithRegisterer(s.reg))
		}
		exp, err := prometheus.New(popts...)
		if err != nil {
			return nil, fmt.Errorf("exporters: prometheus: %w", err)
		}
		return exp, nil
	}
	return nil, fmt.Errorf("exporters: unknown metrics exporter %q", name)
}
