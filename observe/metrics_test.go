package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*metricsImpl, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

// findMetric returns the metric with the given name, or nil.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumFor returns the counter value for the data point whose attributes
// include every given attribute.
func sumFor(t *testing.T, rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()

	m := findMetric(rm, name)
	if m == nil {
		t.Fatalf("%s metric not found", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", name, m.Data)
	}

	var total int64
	for _, dp := range sum.DataPoints {
		match := true
		for _, kv := range attrs {
			if v, ok := dp.Attributes.Value(kv.Key); !ok || v.Emit() != kv.Value.Emit() {
				match = false
				break
			}
		}
		if match {
			total += dp.Value
		}
	}
	return total
}

func TestMetrics_RecordCall(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCall(ctx, "getDetail", "success", 1)
	m.RecordCall(ctx, "getDetail", "transient", 3)
	m.RecordCall(ctx, "getSimilarIds", "success", 1)

	rm := collect(t, reader)

	if got := sumFor(t, rm, "upstream.call.total", attribute.String("operation", "getDetail")); got != 2 {
		t.Errorf("getDetail calls = %d, want 2", got)
	}
	if got := sumFor(t, rm, "upstream.call.total",
		attribute.String("operation", "getDetail"), attribute.String("outcome", "transient")); got != 1 {
		t.Errorf("getDetail transient calls = %d, want 1", got)
	}

	found := findMetric(rm, "upstream.call.attempts")
	if found == nil {
		t.Fatal("upstream.call.attempts metric not found")
	}
	hist, ok := found.Data.(metricdata.Histogram[int64])
	if !ok {
		t.Fatalf("expected Histogram[int64], got %T", found.Data)
	}
	var count uint64
	var sum int64
	for _, dp := range hist.DataPoints {
		count += dp.Count
		sum += dp.Sum
	}
	if count != 3 || sum != 5 {
		t.Errorf("attempts count/sum = %d/%d, want 3/5", count, sum)
	}
}

func TestMetrics_RecordAttempt(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordAttempt(context.Background(), CallMeta{Operation: "getDetail"}, 250*time.Millisecond, nil)
	m.RecordAttempt(context.Background(), CallMeta{Operation: "getDetail"}, 50*time.Millisecond, errors.New("boom"))

	found := findMetric(collect(t, reader), "upstream.call.duration_ms")
	if found == nil {
		t.Fatal("upstream.call.duration_ms metric not found")
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) != 2 {
		t.Fatalf("got %d data points, want one per error label", len(hist.DataPoints))
	}
	var sum float64
	for _, dp := range hist.DataPoints {
		sum += dp.Sum
	}
	if sum != 300 {
		t.Errorf("duration sum = %v, want 300", sum)
	}
}

func TestMetrics_BreakerCacheDropped(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordBreakerTransition(ctx, "getDetail", "closed", "open")
	m.RecordCacheLookup(ctx, true)
	m.RecordCacheLookup(ctx, false)
	m.RecordCacheLookup(ctx, false)
	m.RecordDropped(ctx, "internal")

	rm := collect(t, reader)

	if got := sumFor(t, rm, "breaker.transitions",
		attribute.String("scope", "getDetail"), attribute.String("to", "open")); got != 1 {
		t.Errorf("breaker.transitions = %d, want 1", got)
	}
	if got := sumFor(t, rm, "cache.lookups", attribute.String("result", "miss")); got != 2 {
		t.Errorf("cache misses = %d, want 2", got)
	}
	if got := sumFor(t, rm, "cache.lookups", attribute.String("result", "hit")); got != 1 {
		t.Errorf("cache hits = %d, want 1", got)
	}
	if got := sumFor(t, rm, "aggregation.items.dropped", attribute.String("reason", "internal")); got != 1 {
		t.Errorf("dropped = %d, want 1", got)
	}
}

func TestNopMetrics_NoPanic(t *testing.T) {
	m := NopMetrics()
	ctx := context.Background()

	m.RecordAttempt(ctx, CallMeta{Operation: "getDetail"}, time.Millisecond, nil)
	m.RecordCall(ctx, "getDetail", "success", 1)
	m.RecordBreakerTransition(ctx, "upstream", "closed", "open")
	m.RecordCacheLookup(ctx, true)
	m.RecordDropped(ctx, "transient")
}
