package observe

import (
	"context"
	"errors"
	"time"
)

// CallFunc is a single upstream attempt.
type CallFunc func(ctx context.Context, meta CallMeta) error

// Middleware decorates upstream attempts with a client span, attempt metrics
// and a log entry. Nil components passed to NewMiddleware are replaced by
// no-ops. Errors from the wrapped call are returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	m := &Middleware{tracer: tracer, metrics: metrics, logger: logger}
	if m.tracer == nil {
		m.tracer = newNoopTracer()
	}
	if m.metrics == nil {
		m.metrics = NopMetrics()
	}
	if m.logger == nil {
		m.logger = NopLogger()
	}
	return m
}

// NopMiddleware records nothing.
func NopMiddleware() *Middleware { return NewMiddleware(nil, nil, nil) }

// Wrap returns fn decorated with the middleware. The result is safe for
// concurrent use.
func (m *Middleware) Wrap(fn CallFunc) CallFunc {
	return func(ctx context.Context, meta CallMeta) error {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()
		err := fn(ctx, meta)
		elapsed := time.Since(start)

		m.tracer.EndSpan(span, err)
		m.metrics.RecordAttempt(ctx, meta, elapsed, err)
		m.logAttempt(ctx, meta, elapsed, err)
		return err
	}
}

func (m *Middleware) logAttempt(ctx context.Context, meta CallMeta, elapsed time.Duration, err error) {
	fields := append(meta.fields(), F("duration_ms", float64(elapsed.Microseconds())/1000))
	if err == nil {
		m.logger.Debug(ctx, "upstream call completed", fields...)
		return
	}
	if errors.Is(err, context.Canceled) {
		m.logger.Debug(ctx, "upstream call canceled", fields...)
		return
	}
	m.logger.Warn(ctx, "upstream call failed", append(fields, F("error", err))...)
}

func (m *Middleware) Metrics() Metrics { return m.metrics }
func (m *Middleware) Logger() Logger   { return m.logger }

// MiddlewareFromObserver builds a Middleware from obs's tracer, meter and
// logger.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
