package drift

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// ParticleState is the lifecycle phase of a Particle.
type ParticleState uint8

const (
	StateSleeping ParticleState = iota // zero scale until woken and the stagger elapses
	StateLive                          // full physics and pointer interaction
	StatePoofing                       // irreversible burst-and-shrink to destruction
)

func (s ParticleState) String() string {
	switch s {
	case StateSleeping:
		return "sleeping"
	case StateLive:
		return "live"
	case StatePoofing:
		return "poofing"
	default:
		return "unknown"
	}
}

// maxDriftX caps the X used in the drift strength so particles near the
// right edge still centre slightly.
const maxDriftX = 0.8

// minImpulseDistance guards the impulse direction against division by ~0.
const minImpulseDistance = 0.001

// Particle is one squircle shape drawn three times: into the stencil bucket,
// the solid bucket, and the image bucket. It owns its geometry and nodes.
type Particle struct {
	cfg   *Config
	scene *Scene
	rng   *rand.Rand

	zOrder   int
	geometry *Geometry
	texture  *Texture

	stencilNode *Node
	solidNode   *Node
	imageNode   *Node

	state ParticleState
	alive bool

	// Normalised viewport position and velocity.
	x, y     float64
	vx, vy   float64
	velocity float64
	targetY  float64
	// aspect is the viewport width over height at the last update.
	aspect float64

	size      float64
	opacity   float64
	startSize float64
	maxSize   float64
	fadeAge   float64

	armed        bool
	retracting   bool // shrinking a half-materialised sleeper back to nothing
	wakeTimer    float64
	wakeDelay    float64
	wakeDuration float64

	poofVX, poofVY float64
	poofTimer      float64
	poofDuration   float64
	sizeAtPoof     float64
	opacityAtPoof  float64
}

// newParticle builds a SLEEPING particle, registers its three nodes with
// scene, and applies its initial (invisible) transform. tex may be nil.
func newParticle(cfg *Config, scene *Scene, tex *Texture, zOrder int, rng *rand.Rand) *Particle {
	p := &Particle{
		cfg:     cfg,
		scene:   scene,
		rng:     rng,
		zOrder:  zOrder,
		texture: tex,
	}
	p.buildGeometry()
	p.buildNodes()
	p.initState()
	return p
}

func (p *Particle) buildGeometry() {
	cfg := p.cfg
	p.geometry = BuildSquircle(SquircleParams{
		Segments:  cfg.Segments.RandomInt(p.rng),
		Exponent:  cfg.SquircleExponent.Random(p.rng),
		Aspect:    cfg.ShapeAspect.Random(p.rng),
		Noise:     cfg.VertexNoise.Random(p.rng),
		NoiseSeed: p.rng.Int64(),
	})
}

func (p *Particle) buildNodes() {
	cfg := p.cfg
	fill := cfg.ColorDark
	if p.rng.Float64() < cfg.WhiteProbability {
		fill = cfg.ColorWhite
	}

	name := fmt.Sprintf("particle-%d", p.zOrder)
	p.stencilNode = NewMeshNode(name+"/stencil", p.geometry)
	p.stencilNode.RenderOrder = RenderOrderStencil

	p.solidNode = NewMeshNode(name+"/solid", p.geometry)
	p.solidNode.RenderOrder = RenderOrderSolid
	p.solidNode.Color = fill

	p.imageNode = NewMeshNode(name+"/image", p.geometry)
	p.imageNode.RenderOrder = RenderOrderImage + float64(p.zOrder)*imageOrderStep
	// Without a texture the overlap region degrades to the fill color.
	p.imageNode.Color = fill
	if p.texture != nil {
		p.imageNode.Texture = p.texture
		// The mesh scale already compensates for the screen aspect, so the
		// shape reads as square on screen.
		p.imageNode.Fit = p.texture.Fit(1)
	}

	p.scene.Add(BucketStencil, p.stencilNode)
	p.scene.Add(BucketSolid, p.solidNode)
	p.scene.Add(BucketImage, p.imageNode)
}

func (p *Particle) initState() {
	cfg := p.cfg
	p.aspect = p.scene.Aspect()

	p.x = cfg.SpawnXOffset + (p.rng.Float64()-0.5)*2*cfg.SpawnXSpread
	p.y = cfg.SpawnYCenter + (p.rng.Float64()-0.5)*2*cfg.SpawnYSpread
	p.targetY = cfg.SpawnYCenter + (p.rng.Float64()-0.5)*2*cfg.MaxYSpread

	p.startSize = cfg.StartSize.Random(p.rng) * cfg.SizeScale
	sizeRange := cfg.MaxSize
	if p.rng.Float64() < cfg.SmallProbability {
		sizeRange = cfg.SmallMaxSize
	}
	p.maxSize = sizeRange.Random(p.rng) * cfg.SizeScale
	p.velocity = cfg.Velocity.Random(p.rng)

	p.vx = p.velocity
	p.vy = 0

	p.state = StateSleeping
	p.alive = true

	p.wakeDelay = cfg.WakeDelay.Random(p.rng)
	p.wakeDuration = cfg.WakeDuration.Random(p.rng)

	p.applyTransform()
}

// Wake arms the wake countdown. Ignored unless SLEEPING.
func (p *Particle) Wake() {
	if p.state != StateSleeping || !p.alive {
		return
	}
	p.armed = true
	p.wakeTimer = 0
}

// disarm returns a SLEEPING particle to its unwoken pose: zero size and
// opacity, countdown cleared. The next Wake starts the stagger over. A
// sleeper that had already begun materialising shrinks away over a poof
// duration instead of vanishing in one frame.
func (p *Particle) disarm() {
	if p.state != StateSleeping || !p.alive {
		return
	}
	p.armed = false
	p.wakeTimer = 0
	if p.size <= 0 && p.opacity <= 0 {
		return
	}
	p.retracting = true
	p.sizeAtPoof = p.size
	p.opacityAtPoof = p.opacity
	p.poofTimer = 0
	p.poofDuration = p.cfg.PoofDuration.Random(p.rng)
}

// Poof starts the burst-and-shrink exit. Only a LIVE particle reacts.
func (p *Particle) Poof() {
	if p.state != StateLive || !p.alive {
		return
	}
	cfg := p.cfg
	p.state = StatePoofing
	p.sizeAtPoof = p.size
	p.poofTimer = 0
	p.poofDuration = cfg.PoofDuration.Random(p.rng)

	angle := p.rng.Float64() * 2 * math.Pi
	speed := cfg.PoofSpeed.Random(p.rng)
	sin, cos := math.Sincos(angle)
	p.poofVX = cos * speed
	p.poofVY = sin * speed
}

// ApplyImpulse pushes a LIVE particle away from the cursor with a cubic
// falloff over the interaction radius. Distances are aspect-corrected so the
// radius is circular on screen.
func (p *Particle) ApplyImpulse(cursor, vel Vec2) {
	if p.state != StateLive {
		return
	}
	cfg := p.cfg
	dx := (p.x - cursor.X) * p.aspect
	dy := p.y - cursor.Y
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist > cfg.InteractionRadius || dist < minImpulseDistance {
		return
	}

	proximity := 1 - dist/cfg.InteractionRadius
	weight := proximity * proximity * proximity
	magnitude := weight * cfg.ImpulseStrength * (1 + vel.Len()*cfg.VelocityScale)

	p.vx += dx / dist * magnitude
	p.vy += dy / dist * magnitude
}

// Update advances the particle by dt seconds.
func (p *Particle) Update(dt float64) {
	if !p.alive {
		return
	}
	switch p.state {
	case StateSleeping:
		p.updateSleeping(dt)
	case StateLive:
		p.updateLive(dt)
	case StatePoofing:
		p.updatePoofing(dt)
	}
}

func (p *Particle) updateSleeping(dt float64) {
	if p.retracting {
		p.updateRetract(dt)
		return
	}
	if !p.armed {
		return
	}
	p.wakeTimer += dt
	if p.wakeTimer < p.wakeDelay {
		return
	}

	progress := math.Min(1, (p.wakeTimer-p.wakeDelay)/p.wakeDuration)
	eased := easeOutCubic(progress)

	// Travel and drift while materialising.
	p.x += p.vx * dt
	p.y += (p.targetY - p.y) * p.driftStrength() * dt

	p.size = p.naturalSize() * eased
	p.opacity = eased

	if progress >= 1 {
		p.state = StateLive
		p.fadeAge = p.cfg.FadeInDuration
	}

	p.applyTransform()
}

// updateRetract shrinks a disarmed sleeper in place. A pending wake
// countdown starts once it is gone.
func (p *Particle) updateRetract(dt float64) {
	p.poofTimer += dt
	t := 1.0
	if p.poofDuration > 0 {
		t = math.Min(1, p.poofTimer/p.poofDuration)
	}
	shrink := easeInCubic(t)
	p.size = p.sizeAtPoof * (1 - shrink)
	p.opacity = p.opacityAtPoof * (1 - shrink)
	if t >= 1 {
		p.retracting = false
		p.size, p.opacity = 0, 0
	}
	p.applyTransform()
}

func (p *Particle) updateLive(dt float64) {
	cfg := p.cfg
	p.fadeAge += dt
	p.aspect = p.scene.Aspect()

	naturalVY := p.naturalVY()
	exX := (p.vx - p.velocity) * cfg.Friction
	exY := (p.vy - naturalVY) * cfg.Friction
	restore := 1 - cfg.FlowRestore*dt
	p.vx = p.velocity + exX*restore
	p.vy = naturalVY + exY*restore

	p.x += p.vx * dt
	p.y += p.vy * dt

	p.size = p.naturalSize()

	fadeIn := math.Min(1, p.fadeAge/cfg.FadeInDuration)
	fadeOut := 1.0
	if p.x > cfg.FadeOutStart {
		fadeOut = 1 - (p.x-cfg.FadeOutStart)/(cfg.ExitX-cfg.FadeOutStart)
	}
	p.opacity = math.Min(fadeIn, math.Max(0, fadeOut))

	if p.x > cfg.ExitX {
		p.Destroy()
		return
	}

	p.applyTransform()
}

func (p *Particle) updatePoofing(dt float64) {
	p.poofTimer += dt
	t := math.Min(1, p.poofTimer/p.poofDuration)
	decel := 1 - t*t

	p.x += p.poofVX * decel * dt
	p.y += p.poofVY * decel * dt

	shrink := easeInCubic(t)
	p.size = p.sizeAtPoof * (1 - shrink)
	p.opacity = 1 - shrink

	if t >= 1 {
		p.Destroy()
		return
	}

	p.applyTransform()
}

// driftStrength is stronger the further left the particle is.
func (p *Particle) driftStrength() float64 {
	return p.cfg.YDriftSpeed * (1 - math.Min(p.x, maxDriftX))
}

// naturalVY is the Y velocity of pure drift toward the target.
func (p *Particle) naturalVY() float64 {
	return (p.targetY - p.y) * p.driftStrength()
}

// naturalSize is the size at the current X: an ease on horizontal travel.
func (p *Particle) naturalSize() float64 {
	progress := clamp01(p.x)
	eased := math.Pow(progress, 1/p.cfg.GrowthEase)
	return p.startSize + (p.maxSize-p.startSize)*eased
}

// Excess returns how far the velocity deviates from natural flow.
func (p *Particle) Excess() Vec2 {
	return Vec2{X: p.vx - p.velocity, Y: p.vy - p.naturalVY()}
}

// ReceiveWake adds a force propagated from a neighbour. LIVE only.
func (p *Particle) ReceiveWake(force Vec2) {
	if p.state != StateLive {
		return
	}
	p.vx += force.X
	p.vy += force.Y
}

// applyTransform copies position, scale, depth, visibility, and opacity to
// all three nodes.
func (p *Particle) applyTransform() {
	aspect := p.aspect
	if aspect <= 0 {
		aspect = 1
	}
	scaleX := p.size / aspect
	scaleY := p.size
	z := float64(p.zOrder%100)*0.08 - 4
	visible := p.opacity > 0

	for _, n := range [...]*Node{p.stencilNode, p.solidNode, p.imageNode} {
		n.Visible = visible
		n.SetPosition(p.x, p.y, z)
		n.SetScale(scaleX, scaleY)
		n.SetAlpha(p.opacity)
	}
}

// Destroy unregisters the nodes and releases the geometry. Idempotent.
func (p *Particle) Destroy() {
	if !p.alive {
		return
	}
	p.alive = false
	p.scene.Remove(BucketStencil, p.stencilNode)
	p.scene.Remove(BucketSolid, p.solidNode)
	p.scene.Remove(BucketImage, p.imageNode)
	p.stencilNode.Dispose()
	p.solidNode.Dispose()
	p.imageNode.Dispose()
	p.geometry.Release()
}

// Alive reports whether the particle has not been destroyed.
func (p *Particle) Alive() bool { return p.alive }

// State returns the lifecycle phase.
func (p *Particle) State() ParticleState { return p.state }

// ZOrder returns the spawn sequence number.
func (p *Particle) ZOrder() int { return p.zOrder }

// Position returns the normalised viewport position.
func (p *Particle) Position() Vec2 { return Vec2{p.x, p.y} }

// Velocity returns the current velocity.
func (p *Particle) Velocity() Vec2 { return Vec2{p.vx, p.vy} }

// Size returns the current size in viewport heights.
func (p *Particle) Size() float64 { return p.size }

// Opacity returns the current opacity.
func (p *Particle) Opacity() float64 { return p.opacity }

// Nodes returns the stencil, solid, and image nodes.
func (p *Particle) Nodes() (stencil, solid, img *Node) {
	return p.stencilNode, p.solidNode, p.imageNode
}
