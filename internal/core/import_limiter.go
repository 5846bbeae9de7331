package core

// import_limiter.go gates imports into the store.
//
// An import rewrites the whole product collection, so imports run one at a
// time by default. A second caller waits up to maxWait for the slot and then
// fails with ErrTooManyImports. WaitForDrain lets shutdown finish an
// in-flight import before the process exits.

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultImportSlots is the number of imports allowed to run at once.
const DefaultImportSlots = 1

// DefaultImportWait is how long to wait for a slot before rejecting.
const DefaultImportWait = 30 * time.Second

// ImportLimiter is a semaphore around import work.
type ImportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int32
}

// NewImportLimiter creates a limiter with the given number of slots.
func NewImportLimiter(slots int, maxWait time.Duration) *ImportLimiter {
	if slots <= 0 {
		slots = DefaultImportSlots
	}
	if maxWait <= 0 {
		maxWait = DefaultImportWait
	}
	return &ImportLimiter{
		slots:   make(chan struct{}, slots),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting at most maxWait. The caller must Release.
func (l *ImportLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-timer.C:
		return errors.WithHint(ErrTooManyImports, "another import is still running")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *ImportLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *ImportLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Do runs fn while holding a slot.
func (l *ImportLimiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}

// ActiveCount returns the number of imports in progress.
func (l *ImportLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// Available returns the number of free slots.
func (l *ImportLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no import is running or ctx is done.
func (l *ImportLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for l.ActiveCount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// ImportLimiterStatus is a snapshot of limiter state.
type ImportLimiterStatus struct {
	Active    int `json:"active"`
	Available int `json:"available"`
	Slots     int `json:"slots"`
}

// Status reports the current limiter state.
func (l *ImportLimiter) Status() ImportLimiterStatus {
	return ImportLimiterStatus{
		Active:    l.ActiveCount(),
		Available: l.Available(),
		Slots:     cap(l.slots),
	}
}
