package drift

import (
	"math"
	"testing"
)

// testConfig returns the defaults with the random stagger removed so
// particle timing is predictable.
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.WakeDelay = Range{0, 0}
	cfg.WakeDuration = Range{0.5, 0.5}
	cfg.PoofDuration = Range{0.5, 0.5}
	cfg.Velocity = Range{0.025, 0.025}
	return cfg
}

func newTestParticle(t *testing.T, cfg *Config, s *Scene) *Particle {
	t.Helper()
	return newParticle(cfg, s, nil, 0, NewRand(1))
}

// makeLive puts p straight into LIVE at (x, y) with a fully faded-in body.
func makeLive(p *Particle, x, y float64) {
	p.state = StateLive
	p.x, p.y = x, y
	p.targetY = y
	p.vx, p.vy = p.velocity, 0
	p.fadeAge = p.cfg.FadeInDuration
	p.size = p.naturalSize()
	p.opacity = 1
	p.applyTransform()
}

func TestNewParticleRegistersThreeNodes(t *testing.T) {
	s := newTestScene(100, 100)
	p := newTestParticle(t, testConfig(), s)

	if s.Len(BucketStencil) != 1 || s.Len(BucketSolid) != 1 || s.Len(BucketImage) != 1 {
		t.Fatalf("bucket sizes = %d/%d/%d, want 1/1/1",
			s.Len(BucketStencil), s.Len(BucketSolid), s.Len(BucketImage))
	}
	st, solid, img := p.Nodes()
	if st.Geometry != solid.Geometry || solid.Geometry != img.Geometry {
		t.Error("the three nodes must share one geometry")
	}
	if p.State() != StateSleeping || !p.Alive() {
		t.Errorf("state = %v alive = %v, want sleeping and alive", p.State(), p.Alive())
	}
	if p.Size() != 0 || p.Opacity() != 0 {
		t.Errorf("sleeping particle size %v opacity %v, want 0", p.Size(), p.Opacity())
	}
	if img.Color != solid.Color {
		t.Error("image layer without a texture should fall back to the fill color")
	}
}

func TestParticleImageOrderFollowsZ(t *testing.T) {
	s := newTestScene(100, 100)
	cfg := testConfig()
	a := newParticle(cfg, s, nil, 3, NewRand(1))
	b := newParticle(cfg, s, nil, 4, NewRand(2))
	_, _, ia := a.Nodes()
	_, _, ib := b.Nodes()
	if !(ia.RenderOrder < ib.RenderOrder) {
		t.Errorf("render order %v !< %v", ia.RenderOrder, ib.RenderOrder)
	}
}

func TestParticleTextureFit(t *testing.T) {
	s := newTestScene(100, 100)
	tex := &Texture{Name: "wide", Aspect: 2}
	p := newParticle(testConfig(), s, tex, 0, NewRand(1))
	_, _, img := p.Nodes()
	if img.Texture != tex {
		t.Fatal("image node should carry the texture")
	}
	assertNear(t, "repeatX", img.Fit.RepeatX, 0.5)
	assertNear(t, "offsetX", img.Fit.OffsetX, 0.25)
}

func TestSleepingParticleInertUntilWoken(t *testing.T) {
	s := newTestScene(100, 100)
	p := newTestParticle(t, testConfig(), s)
	x := p.Position().X
	for i := 0; i < 120; i++ {
		p.Update(1.0 / 60)
	}
	if p.State() != StateSleeping || p.Position().X != x || p.Size() != 0 {
		t.Errorf("unarmed sleeper moved: state %v x %v size %v", p.State(), p.Position().X, p.Size())
	}
}

func TestWakeMaterialisesThenGoesLive(t *testing.T) {
	s := newTestScene(100, 100)
	cfg := testConfig()
	p := newTestParticle(t, cfg, s)
	p.Wake()

	p.Update(0.25)
	if p.State() != StateSleeping {
		t.Fatalf("state = %v mid-wake, want sleeping", p.State())
	}
	if !(p.Opacity() > 0 && p.Opacity() < 1) {
		t.Errorf("mid-wake opacity = %v, want in (0,1)", p.Opacity())
	}
	assertNear(t, "opacity", p.Opacity(), easeOutCubic(0.5))

	p.Update(0.25)
	if p.State() != StateLive {
		t.Fatalf("state = %v after wake duration, want live", p.State())
	}
	assertNear(t, "opacity", p.Opacity(), 1)
}

func TestWakeIgnoredWhenNotSleeping(t *testing.T) {
	s := newTestScene(100, 100)
	p := newTestParticle(t, testConfig(), s)
	makeLive(p, 0.5, 0.5)
	p.Poof()
	p.Wake()
	if p.State() != StatePoofing {
		t.Errorf("wake during poof changed state to %v", p.State())
	}
	p.Update(0.1)
	if p.State() != StatePoofing {
		t.Errorf("poofing particle reverted to %v", p.State())
	}
}

func TestPoofOnSleepingIsNoop(t *testing.T) {
	s := newTestScene(100, 100)
	p := newTestParticle(t, testConfig(), s)
	p.Poof()
	if p.State() != StateSleeping {
		t.Errorf("state = %v, want sleeping", p.State())
	}
}

func TestPoofShrinkCurve(t *testing.T) {
	s := newTestScene(100, 100)
	p := newTestParticle(t, testConfig(), s)
	makeLive(p, 0.5, 0.5)
	p.Poof()
	p.sizeAtPoof = 0.3
	p.poofDuration = 0.5

	p.Update(0.25)
	if math.Abs(p.Size()-0.2625) > 1e-6 {
		t.Errorf("size at t=0.25 = %v, want 0.2625", p.Size())
	}
	if !p.Alive() {
		t.Fatal("destroyed before poof duration")
	}

	p.Update(0.25)
	if p.Alive() {
		t.Error("particle should be destroyed at t >= poof duration")
	}
	if s.Len(BucketStencil)+s.Len(BucketSolid)+s.Len(BucketImage) != 0 {
		t.Error("destroyed particle still registered")
	}
}

func TestPoofMovesAndDecelerates(t *testing.T) {
	s := newTestScene(100, 100)
	p := newTestParticle(t, testConfig(), s)
	makeLive(p, 0.5, 0.5)
	p.Poof()
	start := p.Position()
	p.Update(0.1)
	moved := p.Position()
	if moved == start {
		t.Error("poofing particle did not move")
	}
}

func TestDestroyIdempotent(t *testing.T) {
	s := newTestScene(100, 100)
	p := newTestParticle(t, testConfig(), s)
	p.Destroy()
	p.Destroy()
	if p.Alive() {
		t.Error("still alive after Destroy")
	}
	if !p.geometry.Released() {
		t.Error("geometry not released")
	}
	p.Update(1) // no panic, no-op
}

func TestDisarmShrinksMaterialisingSleeper(t *testing.T) {
	s := newTestScene(100, 100)
	p := newTestParticle(t, testConfig(), s)
	p.Wake()
	p.Update(0.25)
	size, opacity := p.Size(), p.Opacity()
	if opacity <= 0 {
		t.Fatal("expected a partly materialised sleeper")
	}

	p.disarm()
	if p.Size() != size || p.Opacity() != opacity {
		t.Errorf("disarm snapped size/opacity to %v/%v, want %v/%v", p.Size(), p.Opacity(), size, opacity)
	}

	// Poof duration is 0.5s; half way the in-cubic has taken off 1/8.
	p.Update(0.25)
	assertNear(t, "opacity", p.Opacity(), opacity*0.875)
	assertNear(t, "size", p.Size(), size*0.875)
	if p.State() != StateSleeping {
		t.Errorf("state = %v, want sleeping", p.State())
	}

	p.Update(0.25)
	if p.Size() != 0 || p.Opacity() != 0 {
		t.Errorf("size/opacity = %v/%v after retracting, want 0", p.Size(), p.Opacity())
	}
	x := p.Position().X
	p.Update(1)
	if p.Position().X != x || p.Opacity() != 0 {
		t.Error("disarmed sleeper moved or reappeared")
	}
}

func TestDisarmUnwokenSleeperStaysHidden(t *testing.T) {
	s := newTestScene(100, 100)
	p := newTestParticle(t, testConfig(), s)
	p.disarm()
	if p.retracting {
		t.Error("invisible sleeper should not retract")
	}
}

func TestWakeDuringRetractWaitsForIt(t *testing.T) {
	s := newTestScene(100, 100)
	p := newTestParticle(t, testConfig(), s)
	p.Wake()
	p.Update(0.25)
	p.disarm()
	p.Wake()

	prev := p.Opacity()
	for i := 0; i < 4; i++ {
		p.Update(0.1)
		if p.Opacity() > prev {
			t.Fatalf("opacity rose to %v while retracting", p.Opacity())
		}
		prev = p.Opacity()
	}
	p.Update(0.2)
	if p.Opacity() != 0 {
		t.Fatalf("opacity = %v after the retract, want 0", p.Opacity())
	}
	p.Update(0.6)
	if p.State() != StateLive {
		t.Errorf("state = %v, want live once the wake completes", p.State())
	}
}

func TestApplyImpulseInsideRadius(t *testing.T) {
	s := newTestScene(100, 100)
	cfg := testConfig()
	p := newTestParticle(t, cfg, s)
	makeLive(p, 0.5, 0.5)
	before := p.Velocity()

	p.ApplyImpulse(Vec2{0.45, 0.5}, Vec2{})
	after := p.Velocity()
	if !(after.X > before.X) {
		t.Errorf("vx %v -> %v, want pushed right (away from cursor)", before.X, after.X)
	}
	assertNear(t, "vy", after.Y, before.Y)

	// Cubic falloff at distance 0.05 of 0.18.
	w := math.Pow(1-0.05/cfg.InteractionRadius, 3)
	assertNear(t, "dvx", after.X-before.X, w*cfg.ImpulseStrength)
}

func TestApplyImpulseScalesWithCursorSpeed(t *testing.T) {
	s := newTestScene(100, 100)
	cfg := testConfig()
	a := newTestParticle(t, cfg, s)
	b := newTestParticle(t, cfg, s)
	makeLive(a, 0.5, 0.5)
	makeLive(b, 0.5, 0.5)

	a.ApplyImpulse(Vec2{0.5, 0.45}, Vec2{})
	b.ApplyImpulse(Vec2{0.5, 0.45}, Vec2{X: 2})
	da := a.Velocity().Y
	db := b.Velocity().Y
	assertNear(t, "ratio", db/da, 1+2*cfg.VelocityScale)
}

func TestApplyImpulseOutsideRadiusOrCoincident(t *testing.T) {
	s := newTestScene(100, 100)
	p := newTestParticle(t, testConfig(), s)
	makeLive(p, 0.5, 0.5)
	before := p.Velocity()

	p.ApplyImpulse(Vec2{0.1, 0.1}, Vec2{X: 5})
	p.ApplyImpulse(Vec2{0.5, 0.5}, Vec2{X: 5})
	if p.Velocity() != before {
		t.Errorf("velocity changed: %v -> %v", before, p.Velocity())
	}
}

func TestApplyImpulseSleepingIgnored(t *testing.T) {
	s := newTestScene(100, 100)
	p := newTestParticle(t, testConfig(), s)
	before := p.Velocity()
	p.ApplyImpulse(p.Position(), Vec2{})
	p.ApplyImpulse(Vec2{p.Position().X - 0.01, p.Position().Y}, Vec2{})
	if p.Velocity() != before {
		t.Error("sleeping particle reacted to the pointer")
	}
}

func TestLiveExcessDecays(t *testing.T) {
	s := newTestScene(100, 100)
	p := newTestParticle(t, testConfig(), s)
	makeLive(p, 0.4, 0.5)
	p.vx += 0.2
	first := p.Excess().Len()
	for i := 0; i < 60; i++ {
		p.Update(1.0 / 60)
	}
	if !(p.Excess().Len() < first*0.01) {
		t.Errorf("excess %v did not decay from %v", p.Excess().Len(), first)
	}
}

func TestLiveFadeOutNearExit(t *testing.T) {
	s := newTestScene(100, 100)
	cfg := testConfig()
	p := newTestParticle(t, cfg, s)
	makeLive(p, cfg.FadeOutStart+(cfg.ExitX-cfg.FadeOutStart)/2, 0.5)
	p.Update(0)
	assertNear(t, "opacity", p.Opacity(), 0.5)
}

func TestLiveGrowsWithX(t *testing.T) {
	s := newTestScene(100, 100)
	p := newTestParticle(t, testConfig(), s)
	makeLive(p, 0.3, 0.5)
	small := p.Size()
	makeLive(p, 0.9, 0.5)
	if !(p.Size() > small) {
		t.Errorf("size at x=0.9 (%v) not larger than at x=0.3 (%v)", p.Size(), small)
	}
}

func TestSingleParticleCrossing(t *testing.T) {
	s := newTestScene(160, 90)
	cfg := testConfig()
	p := newTestParticle(t, cfg, s)
	p.x = 0.33
	p.Wake()

	const dt = 1.0 / 60
	frames := 0
	for p.Alive() && frames < 3000 {
		p.Update(dt)
		frames++
	}
	if p.Alive() {
		t.Fatalf("particle still alive at x=%v after %d frames", p.Position().X, frames)
	}
	elapsed := float64(frames) * dt
	want := (cfg.ExitX - 0.33) / 0.025
	if math.Abs(elapsed-want) > 0.5 {
		t.Errorf("crossing took %.2fs, want about %.2fs", elapsed, want)
	}
}

func TestParticleScaleCompensatesAspect(t *testing.T) {
	s := newTestScene(200, 100)
	p := newTestParticle(t, testConfig(), s)
	makeLive(p, 0.5, 0.5)
	st, _, _ := p.Nodes()
	assertNear(t, "scaleX", st.ScaleX, p.Size()/2)
	assertNear(t, "scaleY", st.ScaleY, p.Size())
}

func TestParticleStateString(t *testing.T) {
	if StateLive.String() != "live" || StatePoofing.String() != "poofing" || StateSleeping.String() != "sleeping" {
		t.Error("unexpected state names")
	}
}
