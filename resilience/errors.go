package resilience

import "errors"

var (
	// ErrCircuitOpen means the breaker refused the attempt without contacting
	// the upstream.
	ErrCircuitOpen = errors.New("resilience: circuit open, call rejected")

	// ErrBulkheadFull means no concurrency slot was free in time.
	ErrBulkheadFull = errors.New("resilience: no bulkhead slot available")

	// ErrTimeout means a single attempt outlived its deadline.
	ErrTimeout = errors.New("resilience: attempt deadline exceeded")
)
