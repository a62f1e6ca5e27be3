package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRetry_Defaults(t *testing.T) {
	r := NewRetry(RetryConfig{})

	if r.config.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", r.config.MaxAttempts)
	}
	if r.config.InitialDelay != 100*time.Millisecond {
		t.Errorf("InitialDelay = %v, want 100ms", r.config.InitialDelay)
	}
	if r.config.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", r.config.MaxDelay)
	}
	if r.config.Strategy != BackoffConstant {
		t.Errorf("Strategy = %v, want constant", r.config.Strategy)
	}
}

func TestRetry_Attempts(t *testing.T) {
	testErr := errors.New("upstream unavailable")

	tests := []struct {
		name         string
		failUntil    int
		maxAttempts  int
		wantErr      error
		wantAttempts int
	}{
		{"first attempt succeeds", 0, 3, nil, 1},
		{"succeeds on third attempt", 2, 3, nil, 3},
		{"exhausted", 10, 3, testErr, 3},
		{"single attempt", 10, 1, testErr, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetry(RetryConfig{
				MaxAttempts:  tt.maxAttempts,
				InitialDelay: time.Millisecond,
			})

			attempts := 0
			err := r.Execute(context.Background(), func(ctx context.Context) error {
				attempts++
				if attempts <= tt.failUntil {
					return testErr
				}
				return nil
			})

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Execute() error = %v, want %v", err, tt.wantErr)
			}
			if attempts != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", attempts, tt.wantAttempts)
			}
		})
	}
}

func TestRetry_ContextCancelledDuringDelay(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxAttempts:  10,
		InitialDelay: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := r.Execute(ctx, func(ctx context.Context) error {
		return errors.New("fail")
	})

	if err != context.Canceled {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Execute() waited %v after cancellation", elapsed)
	}
}

func TestRetry_RetryIfStopsEarly(t *testing.T) {
	permanent := errors.New("permanent")

	r := NewRetry(RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		RetryIf: func(err error) bool {
			return !errors.Is(err, permanent)
		},
	})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return permanent
	})

	if err != permanent {
		t.Errorf("Execute() error = %v, want %v", err, permanent)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_OnRetry(t *testing.T) {
	var delays []time.Duration

	r := NewRetry(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			delays = append(delays, delay)
		},
	})

	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("fail")
	})

	if len(delays) != 2 {
		t.Fatalf("OnRetry called %d times, want 2", len(delays))
	}
	for i, d := range delays {
		if d != time.Millisecond {
			t.Errorf("delay[%d] = %v, want 1ms", i, d)
		}
	}
}

func TestRetry_CalculateDelay(t *testing.T) {
	tests := []struct {
		name    string
		config  RetryConfig
		attempt int
		want    time.Duration
	}{
		{
			name:    "constant",
			config:  RetryConfig{InitialDelay: 10 * time.Millisecond, Strategy: BackoffConstant},
			attempt: 3,
			want:    10 * time.Millisecond,
		},
		{
			name:    "linear",
			config:  RetryConfig{InitialDelay: 10 * time.Millisecond, Strategy: BackoffLinear},
			attempt: 3,
			want:    30 * time.Millisecond,
		},
		{
			name:    "exponential",
			config:  RetryConfig{InitialDelay: 10 * time.Millisecond, Multiplier: 2, Strategy: BackoffExponential},
			attempt: 3,
			want:    40 * time.Millisecond,
		},
		{
			name: "capped",
			config: RetryConfig{
				InitialDelay: time.Second,
				MaxDelay:     5 * time.Second,
				Multiplier:   10,
				Strategy:     BackoffExponential,
			},
			attempt: 5,
			want:    5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetry(tt.config)
			if got := r.calculateDelay(tt.attempt); got != tt.want {
				t.Errorf("calculateDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestRetry_JitterBounds(t *testing.T) {
	r := NewRetry(RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		Strategy:     BackoffConstant,
		Jitter:       true,
	})

	for i := 0; i < 100; i++ {
		d := r.calculateDelay(1)
		if d < 100*time.Millisecond || d >= 125*time.Millisecond {
			t.Fatalf("calculateDelay() = %v, want within [100ms, 125ms)", d)
		}
	}
}

func TestParseBackoffStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want BackoffStrategy
	}{
		{"constant", BackoffConstant},
		{"linear", BackoffLinear},
		{"exponential", BackoffExponential},
		{"", BackoffConstant},
		{"fibonacci", BackoffConstant},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseBackoffStrategy(tt.in); got != tt.want {
				t.Errorf("ParseBackoffStrategy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
