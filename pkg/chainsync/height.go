package chainsync

import (
	"context"
	"sync"
	"time"
)

// Tracker publishes the synced block-height frontier. Advancing the height
// wakes every waiter at once by closing the current broadcast channel and
// replacing it, so a waiter never observes the frontier moving backwards.
type Tracker struct {
	mu     sync.RWMutex
	height uint64
	wake   chan struct{}
}

// NewTracker creates a tracker at height zero.
func NewTracker() *Tracker {
	return &Tracker{wake: make(chan struct{})}
}

// Height returns the current synced height.
func (t *Tracker) Height() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.height
}

// Advance moves the frontier to height and wakes all waiters. Calls with a
// height at or below the current frontier are ignored.
func (t *Tracker) Advance(height uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if height <= t.height {
		return
	}
	t.height = height
	close(t.wake)
	t.wake = make(chan struct{})
}

func (t *Tracker) snapshot() (uint64, <-chan struct{}) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.height, t.wake
}

// WaitForHeight blocks until the frontier exceeds after, the timeout elapses,
// or ctx is done. It returns the frontier at the time of wakeup and whether
// the frontier actually advanced past after.
func (t *Tracker) WaitForHeight(ctx context.Context, after uint64, timeout time.Duration) (uint64, bool, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		height, wake := t.snapshot()
		if height > after {
			return height, true, nil
		}
		select {
		case <-wake:
		case <-deadline.C:
			return height, false, nil
		case <-ctx.Done():
			return height, false, ctx.Err()
		}
	}
}
