// Package resilience protects calls to an unreliable upstream.
//
// The patterns can be used on their own or composed through a Caller:
//
//   - Circuit Breaker: a failure-ratio breaker over a rolling window of recent
//     outcomes. While half-open it admits a single probe at a time.
//
//   - Retry: retries transient failures with constant, linear or exponential
//     backoff.
//
//   - Timeout: bounds a single attempt and abandons it when the deadline fires.
//
//   - Bulkhead: limits concurrent attempts.
//
// # Usage
//
//	breakers := resilience.NewBreakerSet(resilience.CircuitBreakerConfig{
//	    FailureRatio: 0.5,
//	    MinRequests:  5,
//	    OpenTimeout:  10 * time.Second,
//	}, resilience.ScopeOperation)
//
//	caller := resilience.NewCaller(
//	    resilience.WithBreakers(breakers),
//	    resilience.WithRetry(resilience.RetryConfig{MaxAttempts: 3}),
//	    resilience.WithTimeout(time.Second),
//	    resilience.WithClassifier(classify),
//	)
//
//	out := resilience.Call(ctx, caller, "getDetail", id, fetchDetail)
//	switch out.Kind {
//	case resilience.KindSuccess:
//	    use(out.Value)
//	case resilience.KindNotFound:
//	    // definitive answer, never retried
//	default:
//	    // transient or internal; out.Err holds the cause
//	}
package resilience
