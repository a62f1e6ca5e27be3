package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy selects how the wait between attempts grows.
type BackoffStrategy int

const (
	// BackoffConstant waits InitialDelay before every retry.
	BackoffConstant BackoffStrategy = iota
	// BackoffLinear waits InitialDelay times the attempt number.
	BackoffLinear
	// BackoffExponential waits InitialDelay times Multiplier^(attempt-1).
	BackoffExponential
)

var backoffNames = map[BackoffStrategy]string{
	BackoffConstant:    "constant",
	BackoffLinear:      "linear",
	BackoffExponential: "exponential",
}

// ParseBackoffStrategy maps a configuration value to a strategy. Anything
// unrecognised is treated as constant.
func ParseBackoffStrategy(s string) BackoffStrategy {
	for strategy, name := range backoffNames {
		if name == s {
			return strategy
		}
	}
	return BackoffConstant
}

func (s BackoffStrategy) String() string {
	if name, ok := backoffNames[s]; ok {
		return name
	}
	return backoffNames[BackoffConstant]
}

// RetryConfig describes how many times an operation is attempted and how long
// to wait in between. Zero values are replaced by NewRetry.
type RetryConfig struct {
	// MaxAttempts counts the first attempt too. Default 3.
	MaxAttempts int
	// InitialDelay is the base wait. Default 100ms.
	InitialDelay time.Duration
	// MaxDelay bounds any single wait before jitter. Default 30s.
	MaxDelay time.Duration
	// Multiplier scales exponential backoff. Default 2.
	Multiplier float64
	Strategy   BackoffStrategy
	// Jitter stretches each wait by a random amount below 25%.
	Jitter bool

	// RetryIf reports whether err is worth another attempt. Nil retries every
	// error.
	RetryIf func(err error) bool
	// OnRetry observes each scheduled retry before the wait starts.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2
	}
	if c.RetryIf == nil {
		c.RetryIf = func(err error) bool { return err != nil }
	}
	return c
}

// Retry re-runs a failing operation according to a RetryConfig.
type Retry struct {
	config RetryConfig
}

// NewRetry returns a Retry with defaults filled in.
func NewRetry(config RetryConfig) *Retry {
	return &Retry{config: config.withDefaults()}
}

// Config returns the effective configuration.
func (r *Retry) Config() RetryConfig { return r.config }

// Execute calls op until it succeeds, RetryIf declines the error, or
// MaxAttempts is reached. The last error is returned unchanged. A context that
// ends during a wait aborts with ctx.Err().
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	attempt := 1
	for {
		err := op(ctx)
		if err == nil || !r.config.RetryIf(err) || attempt == r.config.MaxAttempts {
			return err
		}

		delay := r.calculateDelay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}
		if werr := sleep(ctx, delay); werr != nil {
			return werr
		}
		attempt++
	}
}

// calculateDelay returns the wait that follows the given failed attempt.
func (r *Retry) calculateDelay(attempt int) time.Duration {
	base := float64(r.config.InitialDelay)
	switch r.config.Strategy {
	case BackoffLinear:
		base *= float64(attempt)
	case BackoffExponential:
		base *= math.Pow(r.config.Multiplier, float64(attempt-1))
	}

	delay := r.config.MaxDelay
	if base < float64(r.config.MaxDelay) {
		delay = time.Duration(base)
	}

	if r.config.Jitter && delay >= 4 {
		// #nosec G404 -- timing variance only.
		delay += time.Duration(rand.Int64N(int64(delay) / 4))
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
