// Package progress drives the playback position display. A Timer produces
// the optimistic once-per-interval ticks and a Reconciler arbitrates
// between those ticks and the authoritative positions pushed by the
// receiver.
package progress

import (
	"context"
	"sync"
	"time"
)

// Timer is the cancellable ticker behind the optimistic progress path.
// Start replaces any running ticker, so at most one is ever active.
type Timer struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

func NewTimer() *Timer {
	return &Timer{}
}

// Start cancels any previous runner and spins a new one. The callback runs
// on the ticker goroutine. A runner that was superseded before its tick
// fired never invokes its callback again.
func (t *Timer) Start(interval time.Duration, tick func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.running = true

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				tick()
			}
		}
	}()
}

// Stop is idempotent and safe on a never-started timer.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
}

func (t *Timer) stopLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.running = false
}

// Running reports whether a runner is active.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.running
}
