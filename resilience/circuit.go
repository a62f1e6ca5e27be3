package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is probing whether the upstream recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in state change callbacks.
	Name string

	// FailureRatio is the failure ratio within the window that opens the circuit.
	// Default: 0.5
	FailureRatio float64

	// MinRequests is the minimum number of samples in the window before the
	// failure ratio is evaluated.
	// Default: 5
	MinRequests int

	// WindowSize is the number of most recent outcomes kept while closed.
	// Default: 10 (never smaller than MinRequests)
	WindowSize int

	// OpenTimeout is how long the circuit stays open before probing.
	// Default: 30 seconds
	OpenTimeout time.Duration

	// HalfOpenProbes is the number of consecutive successful probes needed to
	// close the circuit. Probes run one at a time.
	// Default: 1
	HalfOpenProbes int

	// OnStateChange is called after the circuit state changes. It runs with the
	// breaker lock held and must not call back into the breaker.
	OnStateChange func(name string, from, to State)
}

// CircuitBreaker implements a failure-ratio circuit breaker over a count-based
// rolling window.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	window     []bool // true marks a failure
	next       int
	samples    int
	failures   int
	openedAt   time.Time
	probing    bool
	probesOK   int

	totalSuccesses int64
	totalFailures  int64
	rejected       int64
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.FailureRatio <= 0 || config.FailureRatio > 1 {
		config.FailureRatio = 0.5
	}
	if config.MinRequests <= 0 {
		config.MinRequests = 5
	}
	if config.WindowSize <= 0 {
		config.WindowSize = 10
	}
	if config.WindowSize < config.MinRequests {
		config.WindowSize = config.MinRequests
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = 30 * time.Second
	}
	if config.HalfOpenProbes <= 0 {
		config.HalfOpenProbes = 1
	}

	return &CircuitBreaker{
		config: config,
		now:    time.Now,
		state:  StateClosed,
		window: make([]bool, config.WindowSize),
	}
}

// Name returns the configured breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// Result is the outcome reported for an admitted request.
type Result int

const (
	// ResultSuccess counts towards closing (or keeping closed) the circuit.
	ResultSuccess Result = iota
	// ResultFailure counts towards opening the circuit.
	ResultFailure
	// ResultIgnored releases the admission without touching the window.
	ResultIgnored
)

// Ticket is an admission granted by Allow. Done must be called exactly once
// with the outcome of the guarded request.
type Ticket struct {
	cb         *CircuitBreaker
	generation uint64
	probe      bool
	once       sync.Once
}

// Done reports the outcome of the admitted request.
func (t *Ticket) Done(r Result) {
	t.once.Do(func() {
		t.cb.afterRequest(t.generation, t.probe, r)
	})
}

// Allow asks the breaker to admit one request. It returns ErrCircuitOpen when
// the circuit is open, or half-open with a probe already in flight.
func (cb *CircuitBreaker) Allow() (*Ticket, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked() {
	case StateOpen:
		cb.rejected++
		return nil, ErrCircuitOpen
	case StateHalfOpen:
		if cb.probing {
			cb.rejected++
			return nil, ErrCircuitOpen
		}
		cb.probing = true
		return &Ticket{cb: cb, generation: cb.generation, probe: true}, nil
	}

	return &Ticket{cb: cb, generation: cb.generation}, nil
}

// Execute runs the operation through the circuit breaker. Any non-nil error
// counts as a failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	ticket, err := cb.Allow()
	if err != nil {
		return err
	}

	err = op(ctx)
	if err != nil {
		ticket.Done(ResultFailure)
	} else {
		ticket.Done(ResultSuccess)
	}
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// Reset resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.setStateLocked(StateClosed)
}

func (cb *CircuitBreaker) afterRequest(generation uint64, probe bool, r Result) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if generation != cb.generation {
		// Issued before the last transition; its outcome is stale.
		return
	}

	switch r {
	case ResultSuccess:
		cb.totalSuccesses++
	case ResultFailure:
		cb.totalFailures++
	}

	switch cb.state {
	case StateClosed:
		if r == ResultIgnored {
			return
		}
		cb.recordLocked(r == ResultFailure)
		if cb.samples >= cb.config.MinRequests &&
			float64(cb.failures)/float64(cb.samples) >= cb.config.FailureRatio {
			cb.setStateLocked(StateOpen)
		}

	case StateHalfOpen:
		if !probe {
			return
		}
		cb.probing = false
		switch r {
		case ResultFailure:
			cb.setStateLocked(StateOpen)
		case ResultSuccess:
			cb.probesOK++
			if cb.probesOK >= cb.config.HalfOpenProbes {
				cb.setStateLocked(StateClosed)
			}
		}
	}
}

func (cb *CircuitBreaker) recordLocked(failure bool) {
	if cb.samples == len(cb.window) {
		if cb.window[cb.next] {
			cb.failures--
		}
	} else {
		cb.samples++
	}
	cb.window[cb.next] = failure
	if failure {
		cb.failures++
	}
	cb.next = (cb.next + 1) % len(cb.window)
}

func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.config.OpenTimeout {
		cb.setStateLocked(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) setStateLocked(state State) {
	from := cb.state
	cb.state = state
	cb.generation++
	cb.probing = false
	cb.probesOK = 0

	switch state {
	case StateClosed:
		for i := range cb.window {
			cb.window[i] = false
		}
		cb.next, cb.samples, cb.failures = 0, 0, 0
	case StateOpen:
		cb.openedAt = cb.now()
	}

	if from != state && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, state)
	}
}

// Metrics returns current circuit breaker metrics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerMetrics{
		State:          cb.currentStateLocked(),
		WindowSamples:  cb.samples,
		WindowFailures: cb.failures,
		Successes:      cb.totalSuccesses,
		Failures:       cb.totalFailures,
		Rejected:       cb.rejected,
		OpenedAt:       cb.openedAt,
	}
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	State          State
	WindowSamples  int
	WindowFailures int
	Successes      int64
	Failures       int64
	Rejected       int64
	OpenedAt       time.Time
}
