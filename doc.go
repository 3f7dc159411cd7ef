// Package drift renders a hero-section particle field: rounded squircle
// shapes drift left to right across the viewport, grow as they travel, and
// show a photo wherever two or more of them overlap. A headline sits on
// top, white over empty background and black over any shape.
//
// # Quick start
//
// The simplest way to get started is [Run], which opens a window and drives
// the frame loop for you:
//
//	app, err := drift.NewApp(drift.DefaultConfig(), drift.AppOptions{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	_ = app.LoadMedia(ctx, os.DirFS("media"))
//	app.Start()
//	drift.Run(app, drift.RunConfig{Title: "drift", Width: 1280, Height: 720})
//
// For headless use, size the scene with [App.Resize], call [App.Step] and
// [App.Render] yourself, and read [Scene.Frame]. The terminal presenter in
// drift/term does exactly that.
//
// # Particles
//
// A [Particle] is SLEEPING (seeded, waiting for a wake), LIVE (drifting,
// growing, reacting to the pointer), or POOFING (expelled and shrinking).
// The [System] owns the pool: it seeds SLEEPING particles, spawns new ones
// at a cadence derived from the average crossing time, applies the pointer
// impulse, and bleeds each disturbed particle's excess velocity into its
// neighbours once per frame.
//
// # Rendering
//
// Every particle contributes the same [Geometry] to three buckets. The
// [Scene] draws five passes into a software [Framebuffer] with a GL-style
// stencil plane:
//
//  1. stencil: count covering shapes per pixel, no color writes
//  2. solid: fill where exactly one shape covers
//  3. image: texture where two or more overlap, topmost first
//  4. text over empty background
//  5. text over any shape
//
// # Input
//
// [Pointer] holds the smoothed pointer in normalised viewport space with Y
// up. Hosts feed it with Move and Leave; tests and capture scripts queue
// events with InjectMove, InjectSweep, and InjectLeave, or drive a whole
// sequence through a [TestRunner].
package drift
