package observe

import (
	"context"
	"testing"
	"time"
)

func TestLoggerContract_Nop(t *testing.T) {
	logger := NopLogger()
	if logger.With(F("k", "v")) == nil {
		t.Fatal("With should return non-nil logger")
	}
	logger.Error(context.Background(), "discarded", F("error", "x"))
}

func TestMetricsContract_NoPanic(t *testing.T) {
	metrics := NopMetrics()
	metrics.RecordAttempt(context.Background(), CallMeta{Operation: "getDetail"}, 10*time.Millisecond, nil)
}

func TestTracerContract_NoPanic(t *testing.T) {
	tracer := newNoopTracer()
	_, span := tracer.StartSpan(context.Background(), CallMeta{Operation: "getDetail"})
	tracer.EndSpan(span, nil)
}
