package progress

import (
	"testing"
	"time"
)

func waitTicks(t *testing.T, ch <-chan struct{}, n int, timeout time.Duration) {
	t.Helper()

	deadline := time.After(timeout)
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-deadline:
			t.Fatalf("timed out waiting for tick %d of %d", i+1, n)
		}
	}
}

func TestTimerStartAndStop(t *testing.T) {
	ticks := make(chan struct{}, 64)

	tm := NewTimer()
	if tm.Running() {
		t.Fatal("new timer should not be running")
	}

	tm.Start(5*time.Millisecond, func() { ticks <- struct{}{} })
	if !tm.Running() {
		t.Fatal("timer should be running after Start")
	}

	waitTicks(t, ticks, 3, 2*time.Second)

	tm.Stop()
	if tm.Running() {
		t.Fatal("timer should not be running after Stop")
	}
}

func TestTimerStartReplacesRunner(t *testing.T) {
	first := make(chan struct{}, 64)
	second := make(chan struct{}, 64)

	tm := NewTimer()
	tm.Start(5*time.Millisecond, func() { first <- struct{}{} })
	waitTicks(t, first, 2, 2*time.Second)

	tm.Start(5*time.Millisecond, func() { second <- struct{}{} })
	leftover := len(first)

	waitTicks(t, second, 4, 2*time.Second)

	// The first runner was cancelled before the replacement started
	// ticking. At most one in-flight tick may still have slipped out.
	if extra := len(first) - leftover; extra > 1 {
		t.Fatalf("superseded runner fired %d more times", extra)
	}
	if !tm.Running() {
		t.Fatal("timer should still be running after restart")
	}

	tm.Stop()
}

func TestTimerStopIsIdempotent(t *testing.T) {
	tm := NewTimer()

	// Safe on a never-started timer.
	tm.Stop()
	tm.Stop()

	tm.Start(5*time.Millisecond, func() {})
	tm.Stop()
	tm.Stop()

	if tm.Running() {
		t.Fatal("timer should not be running after Stop")
	}
}

func TestTimerStopHaltsTicks(t *testing.T) {
	ticks := make(chan struct{}, 64)

	tm := NewTimer()
	tm.Start(5*time.Millisecond, func() { ticks <- struct{}{} })
	waitTicks(t, ticks, 2, 2*time.Second)

	tm.Stop()

	// Drain anything in flight, then ensure silence.
	time.Sleep(20 * time.Millisecond)
	for len(ticks) > 0 {
		<-ticks
	}
	time.Sleep(30 * time.Millisecond)

	if len(ticks) != 0 {
		t.Fatalf("timer ticked %d times after Stop", len(ticks))
	}
}
