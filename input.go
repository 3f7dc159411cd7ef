package drift

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// defaultPointerSmoothing is the exponential smoothing factor applied to
// raw pointer velocity each frame.
const defaultPointerSmoothing = 0.25

// Pointer tracks one pointer in normalised viewport space (Y up) and a
// smoothed velocity. Position is (-1, -1) until the first event.
//
// Move and Leave record raw events; Update runs once per frame from the
// pool and turns the latest position into velocity.
type Pointer struct {
	// Smoothing is the fraction of the raw velocity blended in per frame.
	Smoothing float64

	x, y   float64
	px, py float64
	vx, vy float64
	active bool

	injectQueue []syntheticPointerEvent
}

// NewPointer returns an inactive pointer.
func NewPointer() *Pointer {
	return &Pointer{
		Smoothing: defaultPointerSmoothing,
		x:         -1, y: -1,
		px: -1, py: -1,
	}
}

// Move records a pointer position. Covers hover, drag, and press.
func (p *Pointer) Move(x, y float64) {
	p.active = true
	p.x = x
	p.y = y
}

// Leave marks the pointer inactive and zeroes its velocity. Covers leaving
// the surface and releasing a button or touch.
func (p *Pointer) Leave() {
	p.active = false
	p.vx = 0
	p.vy = 0
}

// Update consumes one injected event, if any, then advances the smoothed
// velocity. The first frame after activation only records the position.
func (p *Pointer) Update(dt float64) {
	p.processInjected()

	if !p.active || dt <= 0 || p.px < 0 {
		p.px, p.py = p.x, p.y
		return
	}

	rawVX := (p.x - p.px) / dt
	rawVY := (p.y - p.py) / dt
	p.vx += (rawVX - p.vx) * p.Smoothing
	p.vy += (rawVY - p.vy) * p.Smoothing

	p.px, p.py = p.x, p.y
}

// Position returns the latest normalised position.
func (p *Pointer) Position() Vec2 { return Vec2{p.x, p.y} }

// Velocity returns the smoothed velocity in viewport units per second.
func (p *Pointer) Velocity() Vec2 { return Vec2{p.vx, p.vy} }

// Active reports whether the pointer is on the surface.
func (p *Pointer) Active() bool { return p.active }

// normalizePointer converts a layout-space position to normalised viewport
// coordinates with Y flipped. ok is false when the point lies outside.
func normalizePointer(cx, cy float64, w, h int) (pos Vec2, ok bool) {
	if w <= 0 || h <= 0 {
		return Vec2{}, false
	}
	pos = Vec2{X: cx / float64(w), Y: 1 - cy/float64(h)}
	ok = pos.X >= 0 && pos.X <= 1 && pos.Y >= 0 && pos.Y <= 1
	return pos, ok
}

// ebitenInput polls ebiten's mouse and touch state and feeds a Pointer.
// Touch takes precedence over the mouse while any finger is down.
type ebitenInput struct {
	pointer  *Pointer
	touchIDs []ebiten.TouchID
	lastX    int
	lastY    int
	touching bool
}

// poll reads this tick's input for a w x h layout.
func (in *ebitenInput) poll(w, h int) {
	in.touchIDs = ebiten.AppendTouchIDs(in.touchIDs[:0])
	if len(in.touchIDs) > 0 {
		tx, ty := ebiten.TouchPosition(in.touchIDs[0])
		if pos, ok := normalizePointer(float64(tx), float64(ty), w, h); ok {
			in.pointer.Move(pos.X, pos.Y)
		}
		in.touching = true
		return
	}
	if in.touching {
		// Finger lifted.
		in.touching = false
		in.pointer.Leave()
		return
	}

	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		in.pointer.Leave()
		return
	}

	mx, my := ebiten.CursorPosition()
	pos, inside := normalizePointer(float64(mx), float64(my), w, h)
	if !inside || !ebiten.IsFocused() {
		if in.pointer.Active() {
			in.pointer.Leave()
		}
		return
	}
	moved := mx != in.lastX || my != in.lastY
	in.lastX, in.lastY = mx, my
	if moved || inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) || in.pointer.Active() {
		in.pointer.Move(pos.X, pos.Y)
	}
}
