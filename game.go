package drift

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title  string
	Width  int
	Height int
	// RunWhenUnfocused keeps the animation going in a background window.
	RunWhenUnfocused bool
	// ShowFPS draws the debug overlay.
	ShowFPS bool
}

// Game adapts an App to ebiten.Game. The App renders in software; Draw
// uploads the finished frame and stretches it over the window.
type Game struct {
	app   *App
	input ebitenInput
	cfg   RunConfig
	fps   *fpsOverlay

	frame          *ebiten.Image
	layoutW        int
	layoutH        int
	lastOverlayDt  time.Time
	uploadedFrames uint64
}

// NewGame wraps app for ebiten.
func NewGame(app *App, rc RunConfig) *Game {
	g := &Game{app: app, cfg: rc}
	g.input.pointer = app.Pointer
	if rc.ShowFPS {
		g.fps = newFPSOverlay()
	}
	return g
}

// Update polls input, handles the toggle keys, and ticks the driver.
func (g *Game) Update() error {
	g.input.poll(g.layoutW, g.layoutH)
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.app.Toggle()
	}

	now := time.Now()
	visible := !ebiten.IsWindowMinimized() && (g.cfg.RunWhenUnfocused || ebiten.IsFocused())
	g.app.Tick(now, visible)

	if g.fps != nil {
		dt := 0.0
		if !g.lastOverlayDt.IsZero() {
			dt = now.Sub(g.lastOverlayDt).Seconds()
		}
		g.lastOverlayDt = now
		g.fps.update(dt, g.app)
	}
	return nil
}

// Draw uploads the last rendered frame when it changed and scales it to
// the screen.
func (g *Game) Draw(screen *ebiten.Image) {
	frame := g.app.Scene.Frame()
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	if g.frame == nil || g.frame.Bounds().Dx() != w || g.frame.Bounds().Dy() != h {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(w, h)
		g.uploadedFrames = 0
	}
	if n := g.app.Driver.Frames(); n != g.uploadedFrames {
		g.frame.WritePixels(frame.Pix)
		g.uploadedFrames = n
	}

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(float64(sw)/float64(w), float64(sh)/float64(h))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(g.frame, &op)

	if g.fps != nil {
		g.fps.draw(screen)
	}
}

// Layout keeps the logical screen at the window size and sizes the
// software backing store from it.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.layoutW, g.layoutH = outsideWidth, outsideHeight
	scale := 1.0
	if m := ebiten.Monitor(); m != nil {
		scale = m.DeviceScaleFactor()
	}
	cfg := g.app.Config
	bw, bh := BackingSize(outsideWidth, outsideHeight, scale, cfg.PixelRatioCap, cfg.RenderScale)
	g.app.Resize(bw, bh)
	return outsideWidth, outsideHeight
}

// Run opens a window and drives app until it is closed.
func Run(app *App, rc RunConfig) error {
	if rc.Title == "" {
		rc.Title = "drift"
	}
	if rc.Width <= 0 || rc.Height <= 0 {
		rc.Width, rc.Height = 1280, 720
	}
	ebiten.SetWindowTitle(rc.Title)
	ebiten.SetWindowSize(rc.Width, rc.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(ebiten.SyncWithFPS)
	ebiten.SetRunnableOnUnfocused(rc.RunWhenUnfocused)
	return ebiten.RunGame(NewGame(app, rc))
}
