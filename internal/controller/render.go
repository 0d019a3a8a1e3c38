package controller

import (
	"github.com/mjsorribas/PopcornCast/internal/screen"
	"github.com/mjsorribas/PopcornCast/internal/timefmt"
)

// renderLocked rebuilds the drawable state and hands it to the sink.
// Caller holds the lock; sinks must not call back into the controller
// from Render.
func (c *Controller) renderLocked(message string) {
	c.message = message
	if c.sink == nil {
		return
	}
	c.sink.Render(c.renderStateLocked())
}

func (c *Controller) renderStateLocked() screen.RenderState {
	snap := c.reconciler.Snapshot()

	total := "--:--"
	if snap.Duration > 0 {
		total = timefmt.Format(snap.Duration)
	}

	return screen.RenderState{
		Message:      c.message,
		MediaTitle:   c.title,
		ReceiverName: c.receiver,
		Mode:         c.modeLocked().String(),
		DeviceState:  c.deviceState.String(),
		CastState:    c.castState.String(),
		LocalState:   c.localState.String(),
		Elapsed:      timefmt.Format(snap.Position),
		Total:        total,
		Fill:         snap.Fill,
		Offset:       snap.Offset,
		BarWidth:     snap.Width,
		VolumeLevel:  c.volume,
		Muted:        c.muted,
	}
}

// RenderState snapshots the current drawable state, for sinks that
// need an initial frame before any transition happened.
func (c *Controller) RenderState() screen.RenderState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderStateLocked()
}
