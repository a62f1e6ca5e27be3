package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records upstream, breaker, cache and aggregation metrics.
//
// Label values are plain strings so that callers can pass the String form of
// their own enums.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordAttempt records the duration of one upstream attempt.
	RecordAttempt(ctx context.Context, meta CallMeta, duration time.Duration, err error)

	// RecordCall records the final outcome of a resilient call and how many
	// attempts it took.
	RecordCall(ctx context.Context, operation, outcome string, attempts int)

	// RecordBreakerTransition records a circuit breaker state change.
	RecordBreakerTransition(ctx context.Context, scope, from, to string)

	// RecordCacheLookup records a result cache hit or miss.
	RecordCacheLookup(ctx context.Context, hit bool)

	// RecordDropped records a candidate dropped from an aggregation.
	RecordDropped(ctx context.Context, reason string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	callTotal    metric.Int64Counter
	durationHist metric.Float64Histogram
	attemptsHist metric.Int64Histogram
	transitions  metric.Int64Counter
	cacheLookups metric.Int64Counter
	dropped      metric.Int64Counter
}

// NewMetrics creates the instruments on the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	callTotal, err := meter.Int64Counter(
		"upstream.call.total",
		metric.WithDescription("Total number of resilient upstream calls by outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"upstream.call.duration_ms",
		metric.WithDescription("Upstream attempt duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	attemptsHist, err := meter.Int64Histogram(
		"upstream.call.attempts",
		metric.WithDescription("Attempts made per resilient upstream call"),
		metric.WithUnit("{attempt}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 5, 8),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter(
		"breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Result cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	dropped, err := meter.Int64Counter(
		"aggregation.items.dropped",
		metric.WithDescription("Candidates dropped from aggregations by reason"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		callTotal:    callTotal,
		durationHist: durationHist,
		attemptsHist: attemptsHist,
		transitions:  transitions,
		cacheLookups: cacheLookups,
		dropped:      dropped,
	}, nil
}

func (m *metricsImpl) RecordAttempt(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(
		attribute.String("operation", meta.Operation),
		attribute.Bool("error", err != nil),
	)
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordCall(ctx context.Context, operation, outcome string, attempts int) {
	m.callTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
	m.attemptsHist.Record(ctx, int64(attempts), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

func (m *metricsImpl) RecordBreakerTransition(ctx context.Context, scope, from, to string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *metricsImpl) RecordCacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *metricsImpl) RecordDropped(ctx context.Context, reason string) {
	m.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return noopMetrics{}
}

func (noopMetrics) RecordAttempt(context.Context, CallMeta, time.Duration, error)   {}
func (noopMetrics) RecordCall(context.Context, string, string, int)                 {}
func (noopMetrics) RecordBreakerTransition(context.Context, string, string, string) {}
func (noopMetrics) RecordCacheLookup(context.Context, bool)                         {}
func (noopMetrics) RecordDropped(context.Context, string)                           {}
