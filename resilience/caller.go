package resilience

import (
	"context"
	"errors"
	"time"
)

// Kind classifies the outcome of a resilient call.
type Kind int

const (
	// KindSuccess means the upstream returned a value.
	KindSuccess Kind = iota
	// KindNotFound means the upstream definitively reported absence.
	KindNotFound
	// KindTransient means the upstream failed, timed out, or was not contacted
	// because the circuit is open.
	KindTransient
	// KindInternal means a contract or programming fault unrelated to upstream
	// availability, such as a malformed response.
	KindInternal
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of one resilient call.
type Outcome[T any] struct {
	// Value is set only when Kind is KindSuccess.
	Value T
	Kind  Kind
	// Err is the cause for every kind except KindSuccess.
	Err error
	// Attempts is the number of times the upstream operation was started.
	Attempts int
}

// OK reports whether the call succeeded.
func (o Outcome[T]) OK() bool {
	return o.Kind == KindSuccess
}

// Classifier maps an upstream error to an outcome kind. It is never called
// with a nil error.
type Classifier func(err error) Kind

// DefaultClassifier treats every error as transient.
func DefaultClassifier(error) Kind {
	return KindTransient
}

// Caller wraps single upstream operations with bulkhead, circuit breaker,
// timeout and retry protection.
//
// Contract:
// - Concurrency: safe for concurrent use; breakers are the only shared state.
// - Context: every wait (bulkhead slot, attempt, retry delay) honors ctx.
// - Errors: Call never returns a raw error; the cause is kept in Outcome.Err.
type Caller struct {
	breakers *BreakerSet
	retry    RetryConfig
	timeout  *Timeout
	bulkhead *Bulkhead
	classify Classifier
	onRetry  func(operation string, attempt int, err error, delay time.Duration)
}

// CallerOption configures a Caller.
type CallerOption func(*Caller)

// NewCaller creates a new resilient caller. Without options it makes a single
// unguarded attempt per call.
func NewCaller(opts ...CallerOption) *Caller {
	c := &Caller{
		retry:    RetryConfig{MaxAttempts: 1},
		classify: DefaultClassifier,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithBreakers gates every attempt through the breaker for its operation.
func WithBreakers(set *BreakerSet) CallerOption {
	return func(c *Caller) {
		c.breakers = set
	}
}

// WithRetry retries transient failures. RetryIf is replaced by the caller's
// own policy; OnRetry is ignored in favour of WithRetryHook.
func WithRetry(config RetryConfig) CallerOption {
	return func(c *Caller) {
		c.retry = config
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(timeout time.Duration) CallerOption {
	return func(c *Caller) {
		c.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// WithBulkhead limits concurrent attempts across all callers sharing b.
func WithBulkhead(b *Bulkhead) CallerOption {
	return func(c *Caller) {
		c.bulkhead = b
	}
}

// WithClassifier sets the error classifier.
func WithClassifier(classify Classifier) CallerOption {
	return func(c *Caller) {
		if classify != nil {
			c.classify = classify
		}
	}
}

// WithRetryHook registers a callback invoked before each retry.
func WithRetryHook(fn func(operation string, attempt int, err error, delay time.Duration)) CallerOption {
	return func(c *Caller) {
		c.onRetry = fn
	}
}

// Breakers returns the breaker set, or nil if none is configured.
func (c *Caller) Breakers() *BreakerSet {
	return c.breakers
}

// callError carries the classification of a failed attempt through Retry.
type callError struct {
	kind Kind
	err  error
}

func (e *callError) Error() string { return e.err.Error() }
func (e *callError) Unwrap() error { return e.err }

// Call runs fn for key under the caller's policies.
//
// Each attempt is admitted by the operation's breaker, bounded by the timeout
// and classified. NotFound and Internal outcomes end the call immediately;
// transient outcomes are retried until attempts run out, the breaker rejects
// an attempt, or ctx ends.
func Call[T any](ctx context.Context, c *Caller, operation, key string, fn func(context.Context, string) (T, error)) Outcome[T] {
	var (
		value    T
		attempts int
	)

	attempt := func(ctx context.Context) error {
		var got T
		started, err := c.attempt(ctx, operation, func(ctx context.Context) error {
			v, err := fn(ctx, key)
			if err != nil {
				return err
			}
			got = v
			return nil
		})
		if started {
			attempts++
		}
		if err == nil {
			value = got
		}
		return err
	}

	cfg := c.retry
	cfg.RetryIf = func(err error) bool {
		var ce *callError
		if !errors.As(err, &ce) || ce.kind != KindTransient {
			return false
		}
		if errors.Is(ce.err, ErrCircuitOpen) || c.circuitOpen(operation) {
			return false
		}
		return ctx.Err() == nil
	}
	cfg.OnRetry = nil
	if c.onRetry != nil {
		cfg.OnRetry = func(n int, err error, delay time.Duration) {
			c.onRetry(operation, n, err, delay)
		}
	}

	err := NewRetry(cfg).Execute(ctx, attempt)
	if err == nil {
		return Outcome[T]{Value: value, Kind: KindSuccess, Attempts: attempts}
	}

	var ce *callError
	if errors.As(err, &ce) {
		return Outcome[T]{Kind: ce.kind, Err: ce.err, Attempts: attempts}
	}
	return Outcome[T]{Kind: KindTransient, Err: err, Attempts: attempts}
}

// circuitOpen reports whether the breaker for operation is open.
func (c *Caller) circuitOpen(operation string) bool {
	return c.breakers != nil && c.breakers.For(operation).State() == StateOpen
}

// attempt runs op once. started reports whether op was invoked.
func (c *Caller) attempt(ctx context.Context, operation string, op func(context.Context) error) (started bool, err error) {
	if c.bulkhead != nil {
		if err := c.bulkhead.Acquire(ctx); err != nil {
			return false, &callError{kind: KindTransient, err: err}
		}
		defer c.bulkhead.Release()
	}

	var ticket *Ticket
	if c.breakers != nil {
		t, err := c.breakers.For(operation).Allow()
		if err != nil {
			return false, &callError{kind: KindTransient, err: err}
		}
		ticket = t
		defer func() {
			if p := recover(); p != nil {
				ticket.Done(ResultFailure)
				panic(p)
			}
		}()
	}

	if c.timeout != nil {
		err = c.timeout.Execute(ctx, op)
	} else {
		err = op(ctx)
	}

	kind := KindSuccess
	switch {
	case err == nil:
	case errors.Is(err, ErrTimeout):
		kind = KindTransient
	case ctx.Err() != nil:
		// The caller gave up; the upstream did not fail.
		if ticket != nil {
			ticket.Done(ResultIgnored)
		}
		return true, &callError{kind: KindTransient, err: ctx.Err()}
	default:
		kind = c.classify(err)
	}

	if ticket != nil {
		switch kind {
		case KindSuccess, KindNotFound:
			ticket.Done(ResultSuccess)
		case KindTransient:
			ticket.Done(ResultFailure)
		default:
			ticket.Done(ResultIgnored)
		}
	}

	if kind == KindSuccess {
		return true, nil
	}
	return true, &callError{kind: kind, err: err}
}
