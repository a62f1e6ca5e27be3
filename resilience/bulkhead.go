package resilience

import (
	"context"
	"sync"
	"time"
)

// BulkheadConfig sizes a Bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent defaults to 10.
	MaxConcurrent int
	// MaxWait is how long Acquire queues for a slot. Zero rejects at once.
	MaxWait time.Duration
}

// BulkheadMetrics is a point-in-time view of a Bulkhead.
type BulkheadMetrics struct {
	Active        int
	MaxActive     int
	Available     int
	MaxConcurrent int
	Rejected      int64
}

// Bulkhead bounds how many upstream attempts run at once across the process.
type Bulkhead struct {
	config BulkheadConfig
	slots  chan struct{}

	mu    sync.Mutex
	stats BulkheadMetrics
}

// NewBulkhead returns a Bulkhead with config.MaxConcurrent slots.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	return &Bulkhead{
		config: config,
		slots:  make(chan struct{}, config.MaxConcurrent),
		stats:  BulkheadMetrics{MaxConcurrent: config.MaxConcurrent},
	}
}

// Acquire claims a slot. It fails with ErrBulkheadFull when none frees up
// within MaxWait, and with ctx.Err() if ctx ends first.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	if b.tryAcquire() {
		return nil
	}
	if b.config.MaxWait <= 0 {
		return b.rejected()
	}

	wait := time.NewTimer(b.config.MaxWait)
	defer wait.Stop()

	select {
	case b.slots <- struct{}{}:
		b.track(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wait.C:
		return b.rejected()
	}
}

// Release frees a slot claimed by Acquire. Extra calls are ignored.
func (b *Bulkhead) Release() {
	select {
	case <-b.slots:
		b.track(-1)
	default:
	}
}

// Execute runs op while holding a slot.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()
	return op(ctx)
}

// Metrics returns a snapshot of slot usage.
func (b *Bulkhead) Metrics() BulkheadMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.stats
	m.Available = m.MaxConcurrent - m.Active
	return m
}

func (b *Bulkhead) tryAcquire() bool {
	select {
	case b.slots <- struct{}{}:
		b.track(1)
		return true
	default:
		return false
	}
}

func (b *Bulkhead) track(delta int) {
	b.mu.Lock()
	b.stats.Active += delta
	b.stats.MaxActive = max(b.stats.MaxActive, b.stats.Active)
	b.mu.Unlock()
}

func (b *Bulkhead) rejected() error {
	b.mu.Lock()
	b.stats.Rejected++
	b.mu.Unlock()
	return ErrBulkheadFull
}
