package drift

import "time"

// Driver turns wall-clock ticks into clamped simulation steps. It never
// sleeps or schedules; the host (ebiten, a terminal ticker, a test) calls
// Tick once per display refresh.
type Driver struct {
	update   func(dt float64)
	render   func()
	maxDelta float64

	last    time.Time
	started bool
	visible bool
	frames  uint64
}

// NewDriver returns a driver that calls update then render on every visible
// tick. A non-positive maxDelta disables clamping.
func NewDriver(maxDelta float64, update func(dt float64), render func()) *Driver {
	return &Driver{update: update, render: render, maxDelta: maxDelta, visible: true}
}

// Tick advances one frame at now. While hidden nothing runs; the first
// visible tick after a hidden stretch, and the very first tick, step with
// dt = 0 so a long pause never turns into one huge step. Tick reports
// whether a frame ran.
func (d *Driver) Tick(now time.Time, visible bool) bool {
	if !visible {
		d.visible = false
		return false
	}
	if !d.started || !d.visible {
		d.last = now
		d.started = true
		d.visible = true
	}

	dt := now.Sub(d.last).Seconds()
	d.last = now
	if dt < 0 {
		dt = 0
	}
	if d.maxDelta > 0 && dt > d.maxDelta {
		dt = d.maxDelta
	}

	if d.update != nil {
		d.update(dt)
	}
	if d.render != nil {
		d.render()
	}
	d.frames++
	return true
}

// Frames returns the number of frames run.
func (d *Driver) Frames() uint64 { return d.frames }
