package progress

import (
	"sync"
	"time"
)

const (
	// DefaultSuppression is how long a receiver push outranks timer ticks.
	DefaultSuppression = 1 * time.Second

	// DefaultBarWidth is the progress bar width in cells when the caller
	// does not size it.
	DefaultBarWidth = 40
)

// Snapshot carries everything a render sink needs to draw the progress bar.
type Snapshot struct {
	Position float64
	Duration float64
	Fill     int
	Offset   int
	Width    int
}

// Reconciler decides which writes to the position win. Receiver pushes are
// authoritative: they apply immediately and open a suppression window
// during which optimistic ticks are discarded, so fresh receiver truth is
// not stomped by the very next tick.
type Reconciler struct {
	mu         sync.Mutex
	width      int
	window     time.Duration
	position   float64
	duration   float64
	suppressed bool
	clear      *time.Timer
}

func NewReconciler(width int, window time.Duration) *Reconciler {
	if width <= 0 {
		width = DefaultBarWidth
	}
	if window <= 0 {
		window = DefaultSuppression
	}

	return &Reconciler{
		width:  width,
		window: window,
	}
}

// Push applies an authoritative position and (re)opens the suppression
// window. Negative positions and non-positive durations leave the stored
// values untouched.
func (r *Reconciler) Push(position, duration float64) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if position >= 0 {
		r.position = position
	}
	if duration > 0 {
		r.duration = duration
	}

	r.suppressed = true
	if r.clear != nil {
		r.clear.Stop()
	}
	r.clear = time.AfterFunc(r.window, func() {
		r.mu.Lock()
		r.suppressed = false
		r.mu.Unlock()
	})

	return r.snapshotLocked()
}

// Tick advances the optimistic position by step seconds. It reports
// whether the tick was applied and whether the position reached the end of
// the media. An unknown duration never finishes.
func (r *Reconciler) Tick(step float64) (snap Snapshot, applied, finished bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.suppressed {
		return r.snapshotLocked(), false, false
	}

	r.position += step
	if r.duration > 0 && r.position >= r.duration {
		r.position = r.duration
		finished = true
	}

	return r.snapshotLocked(), true, finished
}

// SetDuration primes the media duration without touching the position or
// the suppression window.
func (r *Reconciler) SetDuration(duration float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if duration >= 0 {
		r.duration = duration
	}
}

// Reset zeroes the position and duration, closes the suppression window
// and cancels its pending clear.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.position = 0
	r.duration = 0
	r.suppressed = false
	if r.clear != nil {
		r.clear.Stop()
		r.clear = nil
	}
}

func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshotLocked()
}

func (r *Reconciler) snapshotLocked() Snapshot {
	snap := Snapshot{
		Position: r.position,
		Duration: r.duration,
		Width:    r.width,
	}

	if r.duration <= 0 {
		return snap
	}

	frac := r.position / r.duration
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}

	snap.Fill = int(frac * float64(r.width))
	snap.Offset = snap.Fill
	if snap.Offset >= r.width {
		snap.Offset = r.width - 1
	}

	return snap
}
