package resilience

import (
	"context"
	"errors"
	"time"
)

// TimeoutConfig bounds a single attempt.
type TimeoutConfig struct {
	// Timeout defaults to one second.
	Timeout time.Duration
}

// Timeout runs operations under a per-call deadline.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout returns a Timeout, defaulting the deadline to one second.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = time.Second
	}
	return &Timeout{config: config}
}

// Config returns the effective configuration.
func (t *Timeout) Config() TimeoutConfig { return t.config }

// Execute starts op in its own goroutine and waits for it or the deadline,
// whichever is first. On expiry it returns ErrTimeout without waiting for op;
// op's context is cancelled and its eventual result is dropped. When the
// parent ctx ends first, the parent's error is returned.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- op(attemptCtx) }()

	var err error
	select {
	case err = <-result:
		if err == nil {
			return nil
		}
	case <-attemptCtx.Done():
	}
	return t.expired(ctx, attemptCtx, err)
}

// expired decides which error the caller sees once op failed or the attempt
// context ended.
func (t *Timeout) expired(parent, attempt context.Context, opErr error) error {
	if perr := parent.Err(); perr != nil {
		if opErr != nil {
			return opErr
		}
		return perr
	}
	if errors.Is(attempt.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return opErr
}
