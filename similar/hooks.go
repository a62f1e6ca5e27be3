package similar

import (
	"context"
	"time"

	"github.com/jonwraymond/similarity/observe"
	"github.com/jonwraymond/similarity/resilience"
)

// BreakerTransitionHook returns a CircuitBreakerConfig.OnStateChange callback
// that records and logs every transition. It must not call back into the
// breaker.
func BreakerTransitionHook(metrics observe.Metrics, logger observe.Logger) func(name string, from, to resilience.State) {
	if metrics == nil {
		metrics = observe.NopMetrics()
	}
	if logger == nil {
		logger = observe.NopLogger()
	}
	return func(name string, from, to resilience.State) {
		ctx := context.Background()
		metrics.RecordBreakerTransition(ctx, name, from.String(), to.String())

		fields := []observe.Field{
			observe.F("breaker", name),
			observe.F("from", from.String()),
			observe.F("to", to.String()),
		}
		if to == resilience.StateOpen {
			logger.Warn(ctx, "circuit opened", fields...)
			return
		}
		logger.Info(ctx, "circuit state changed", fields...)
	}
}

// RetryLogHook returns a resilience.WithRetryHook callback that logs retries.
func RetryLogHook(logger observe.Logger) func(operation string, attempt int, err error, delay time.Duration) {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return func(operation string, attempt int, err error, delay time.Duration) {
		logger.Debug(context.Background(), "retrying upstream call",
			observe.F("operation", operation),
			observe.F("attempt", attempt),
			observe.F("delay_ms", delay.Milliseconds()),
			observe.F("error", err))
	}
}
