package drift

// syntheticPointerEvent is a single injected pointer event in normalised
// viewport coordinates (Y up).
type syntheticPointerEvent struct {
	x, y  float64
	leave bool
}

// InjectMove queues a pointer move. The event is consumed on the next
// frame's Update, one event per frame.
func (p *Pointer) InjectMove(x, y float64) {
	p.injectQueue = append(p.injectQueue, syntheticPointerEvent{x: x, y: y})
}

// InjectLeave queues the pointer leaving the surface.
func (p *Pointer) InjectLeave() {
	p.injectQueue = append(p.injectQueue, syntheticPointerEvent{leave: true})
}

// InjectSweep queues a straight-line move from (fromX, fromY) to (toX, toY)
// spread over frames frames. Minimum frames is 2 (both endpoints).
func (p *Pointer) InjectSweep(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(frames-1)
		p.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
}

// PendingInjected returns the number of queued synthetic events.
func (p *Pointer) PendingInjected() int {
	return len(p.injectQueue)
}

// processInjected pops one event from the queue and applies it.
// Returns true if an event was consumed.
func (p *Pointer) processInjected() bool {
	if len(p.injectQueue) == 0 {
		return false
	}
	evt := p.injectQueue[0]
	copy(p.injectQueue, p.injectQueue[1:])
	p.injectQueue = p.injectQueue[:len(p.injectQueue)-1]

	if evt.leave {
		p.Leave()
	} else {
		p.Move(evt.x, evt.y)
	}
	return true
}
