package drift

import (
	"context"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"time"
)

// AppOptions carries the host-specific inputs of NewApp.
type AppOptions struct {
	// Rand drives every random choice. Nil seeds from the runtime.
	Rand *rand.Rand
	// Width and Height are the initial backing size in pixels.
	Width, Height int
	// FontData overrides Config.FontPath with an in-memory font.
	FontData []byte
}

// App wires the particle system, the text layer, and the media library to
// a scene and a frame driver, and owns the on/off toggle.
type App struct {
	Config   *Config
	Scene    *Scene
	System   *System
	Text     *TextLayer
	Textures *Textures
	Pointer  *Pointer
	Driver   *Driver

	runner  *TestRunner
	watcher *MediaWatcher

	isOn      bool
	animating bool

	// One pending toggle continuation, run when delay reaches zero.
	delay   float64
	pending func()
}

// NewApp builds the scene, text layer, and dormant particle system. Call
// LoadMedia (optional) and then Start.
func NewApp(cfg *Config, opts AppOptions) (*App, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	fontData := opts.FontData
	if fontData == nil && cfg.FontPath != "" {
		data, err := os.ReadFile(cfg.FontPath)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		fontData = data
	}

	a := &App{
		Config:   cfg,
		Scene:    NewScene(cfg),
		Textures: NewTextures(rng),
		Pointer:  NewPointer(),
	}
	if opts.Width > 0 && opts.Height > 0 {
		a.Scene.Resize(opts.Width, opts.Height)
	}

	text, err := NewTextLayer(cfg, a.Scene, fontData)
	if err != nil {
		return nil, err
	}
	a.Text = text
	a.System = NewSystem(cfg, a.Scene, a.Textures, a.Pointer, rng)
	a.Driver = NewDriver(cfg.MaxDelta, a.Step, a.Render)
	return a, nil
}

// LoadMedia loads Config.Media from fsys, or every image at its root when
// the list is empty. Textures must be loaded before Start to be used by the
// seeded particles.
func (a *App) LoadMedia(ctx context.Context, fsys fs.FS) error {
	items := a.Config.Media
	if len(items) == 0 {
		scanned, err := ScanMedia(fsys)
		if err != nil {
			return err
		}
		items = scanned
	}
	return a.Textures.Load(ctx, fsys, items)
}

// WatchMedia hot-reloads images in dir until Close.
func (a *App) WatchMedia(dir string) error {
	w, err := a.Textures.Watch(dir)
	if err != nil {
		return err
	}
	a.watcher = w
	return nil
}

// Start seeds the sleeping particles and wakes them. The text starts shown.
func (a *App) Start() {
	a.System.Init()
	a.System.Wake()
	a.Text.Show()
}

// Toggle flips the on state. Turning on hides the text and poofs every
// particle at once; turning off waits ToggleDelay before waking the
// particles and showing the text. Toggles while a transition is still
// running are ignored; Toggle reports whether this one was accepted.
func (a *App) Toggle() bool {
	if a.animating {
		return false
	}
	a.animating = true
	a.isOn = !a.isOn

	if a.isOn {
		a.Text.Hide()
		a.System.Poof()
		a.after(a.Config.ToggleDelay, func() { a.animating = false })
	} else {
		a.after(a.Config.ToggleDelay, func() {
			a.System.Wake()
			a.Text.Show()
			a.animating = false
		})
	}
	return true
}

// On reports whether the toggle is on (particles poofed, text hidden).
func (a *App) On() bool { return a.isOn }

// Animating reports whether a toggle transition is in progress.
func (a *App) Animating() bool { return a.animating }

// after schedules fn on simulation time, so a paused frame loop pauses the
// toggle too.
func (a *App) after(delay float64, fn func()) {
	a.delay = delay
	a.pending = fn
}

// SetTestRunner attaches a scripted input runner, stepped at the top of
// every Step.
func (a *App) SetTestRunner(r *TestRunner) {
	a.runner = r
}

// Resize changes the backing size.
func (a *App) Resize(w, h int) {
	a.Scene.Resize(w, h)
}

// Step advances the simulation by dt seconds.
func (a *App) Step(dt float64) {
	start := time.Now()

	a.Textures.Poll()
	if a.runner != nil {
		a.runner.step(a)
	}
	if a.pending != nil {
		a.delay -= dt
		if a.delay <= 0 {
			fn := a.pending
			a.pending = nil
			fn()
		}
	}

	a.System.Update(dt)
	a.Text.Update(dt)

	a.Scene.recordUpdate(time.Since(start))
}

// Render draws the current state into the scene framebuffer.
func (a *App) Render() {
	a.Scene.Render()
}

// Tick runs one driver frame; see Driver.Tick.
func (a *App) Tick(now time.Time, visible bool) bool {
	return a.Driver.Tick(now, visible)
}

// Close stops the media watcher and releases the text layer.
func (a *App) Close() error {
	var err error
	if a.watcher != nil {
		err = a.watcher.Close()
		a.watcher = nil
	}
	a.Text.Close()
	return err
}
