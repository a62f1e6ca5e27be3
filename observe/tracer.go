package observe

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CallMeta identifies one upstream call in spans, metrics and logs.
type CallMeta struct {
	Operation string // getDetail or getSimilarIds
	Key       string // product id, if any
	Attempt   int    // 1-based, 0 when unknown
}

// SpanName is "upstream.<operation>".
func (m CallMeta) SpanName() string { return "upstream." + m.Operation }

func (m CallMeta) attributes() []attribute.KeyValue {
	kv := []attribute.KeyValue{attribute.String("upstream.operation", m.Operation)}
	if m.Key != "" {
		kv = append(kv, attribute.String("product.id", m.Key))
	}
	if m.Attempt > 0 {
		kv = append(kv, attribute.Int("upstream.attempt", m.Attempt))
	}
	return kv
}

func (m CallMeta) fields() []Field {
	f := []Field{F("operation", m.Operation)}
	if m.Key != "" {
		f = append(f, F("product_id", m.Key))
	}
	if m.Attempt > 0 {
		f = append(f, F("attempt", m.Attempt))
	}
	return f
}

// Tracer opens and closes client spans around upstream calls. Implementations
// are safe for concurrent use and EndSpan never panics.
type Tracer interface {
	StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer adapts an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func newNoopTracer() Tracer {
	return NewTracer(tracenoop.NewTracerProvider().Tracer(instrumentationName))
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("upstream.error", false))
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
}

// EndSpan marks the span ok or failed and ends it. Cancellation by the caller
// only adds a "canceled" event.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	defer span.End()

	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	if errors.Is(err, context.Canceled) {
		span.AddEvent("canceled")
		return
	}
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("upstream.error", true))
	span.SetStatus(codes.Error, err.Error())
}
