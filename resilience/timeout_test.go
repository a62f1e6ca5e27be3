package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewTimeout_Default(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{})

	if timeout.Config().Timeout != time.Second {
		t.Errorf("Timeout = %v, want 1s", timeout.Config().Timeout)
	}
}

func TestTimeout_Execute(t *testing.T) {
	testErr := errors.New("upstream error")

	tests := []struct {
		name    string
		timeout time.Duration
		op      func(ctx context.Context) error
		wantErr error
	}{
		{
			name:    "success",
			timeout: time.Second,
			op:      func(ctx context.Context) error { return nil },
		},
		{
			name:    "error passes through",
			timeout: time.Second,
			op:      func(ctx context.Context) error { return testErr },
			wantErr: testErr,
		},
		{
			name:    "slow operation times out",
			timeout: 10 * time.Millisecond,
			op: func(ctx context.Context) error {
				time.Sleep(100 * time.Millisecond)
				return nil
			},
			wantErr: ErrTimeout,
		},
		{
			name:    "deadline error from operation maps to timeout",
			timeout: 10 * time.Millisecond,
			op: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
			wantErr: ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewTimeout(TimeoutConfig{Timeout: tt.timeout}).Execute(context.Background(), tt.op)
			if err != tt.wantErr {
				t.Errorf("Execute() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeout_AbandonsWaitAndCancelsOperation(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: 20 * time.Millisecond})

	cancelled := make(chan bool, 1)
	start := time.Now()
	err := timeout.Execute(context.Background(), func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			cancelled <- true
		case <-time.After(time.Second):
			cancelled <- false
		}
		return nil
	})

	if err != ErrTimeout {
		t.Errorf("Execute() error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Execute() returned after %v, want prompt return", elapsed)
	}

	select {
	case ok := <-cancelled:
		if !ok {
			t.Error("operation context was not cancelled")
		}
	case <-time.After(200 * time.Millisecond):
		t.Error("operation goroutine did not observe cancellation")
	}
}

func TestTimeout_ParentCancellation(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	err := timeout.Execute(ctx, func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})

	if err != context.Canceled {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestTimeout_ParentDeadlineIsNotTimeout(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := timeout.Execute(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if err != context.DeadlineExceeded {
		t.Errorf("Execute() error = %v, want context.DeadlineExceeded", err)
	}
}
