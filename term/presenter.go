// Package term presents a drift App in a terminal. Every character cell
// shows two framebuffer pixels with the upper half block: the foreground
// is the upper pixel and the background the lower one.
package term

import (
	"context"
	"image"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/zivucreative/drift"
)

// halfBlock is drawn in every cell.
const halfBlock = '▀'

// Presenter draws an App's frames to a tcell screen and feeds mouse and key
// events back into it. It does not own the screen; the caller runs Init and
// Fini.
type Presenter struct {
	screen tcell.Screen
	app    *drift.App

	cols, rows int
}

// New returns a presenter sized to the screen.
func New(screen tcell.Screen, app *drift.App) *Presenter {
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.HideCursor()
	p := &Presenter{screen: screen, app: app}
	p.Resize()
	return p
}

// Resize re-reads the screen size and resizes the scene to one pixel per
// column and two per row.
func (p *Presenter) Resize() {
	p.cols, p.rows = p.screen.Size()
	p.app.Resize(p.cols, p.rows*2)
}

// Size returns the terminal size in cells.
func (p *Presenter) Size() (cols, rows int) {
	return p.cols, p.rows
}

// HandleEvent applies one terminal event. It returns false when the user
// asked to quit.
func (p *Presenter) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch keyAction(ev.Key(), ev.Rune()) {
		case actionQuit:
			return false
		case actionToggle:
			p.app.Toggle()
		}
	case *tcell.EventMouse:
		x, y := ev.Position()
		if x < 0 || y < 0 || x >= p.cols || y >= p.rows {
			p.app.Pointer.Leave()
			return true
		}
		p.app.Pointer.Move(cellToViewport(x, y, p.cols, p.rows))
	case *tcell.EventResize:
		p.screen.Sync()
		p.Resize()
	}
	return true
}

type action uint8

const (
	actionNone action = iota
	actionQuit
	actionToggle
)

// keyAction maps a key press to what the presenter does with it.
func keyAction(k tcell.Key, r rune) action {
	switch k {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return actionQuit
	case tcell.KeyEnter:
		return actionToggle
	case tcell.KeyRune:
		switch r {
		case 'q', 'Q':
			return actionQuit
		case ' ':
			return actionToggle
		}
	}
	return actionNone
}

// cellToViewport maps the centre of a cell to normalised viewport
// coordinates, Y up.
func cellToViewport(x, y, cols, rows int) (float64, float64) {
	return (float64(x) + 0.5) / float64(cols), 1 - (float64(y)+0.5)/float64(rows)
}

// Draw copies the current frame to the screen.
func (p *Presenter) Draw() {
	frame := p.app.Scene.Frame()
	for y := 0; y < p.rows; y++ {
		for x := 0; x < p.cols; x++ {
			upper, lower := cellColors(frame, x, y)
			st := tcell.StyleDefault.Foreground(upper).Background(lower)
			p.screen.SetContent(x, y, halfBlock, nil, st)
		}
	}
	p.screen.Show()
}

// cellColors returns the colors of the two pixels behind cell (x, y).
func cellColors(frame *image.RGBA, x, y int) (upper, lower tcell.Color) {
	return pixelColor(frame, x, 2*y), pixelColor(frame, x, 2*y+1)
}

func pixelColor(frame *image.RGBA, x, y int) tcell.Color {
	if !(image.Point{X: x, Y: y}).In(frame.Rect) {
		return tcell.ColorBlack
	}
	c := frame.RGBAAt(x, y)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// Run drives the app at fps frames per second until ctx is cancelled or
// the user quits.
func (p *Presenter) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := p.screen.PollEvent()
			if ev == nil {
				// Screen finalised.
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !p.HandleEvent(ev) {
				return nil
			}
		case now := <-ticker.C:
			if p.app.Tick(now, true) {
				p.Draw()
			}
		}
	}
}
