package drift

import (
	"math"
	"math/rand/v2"
)

// SystemState is the global phase of the particle pool.
type SystemState uint8

const (
	SystemDormant SystemState = iota // seeded, waiting for the first wake
	SystemRunning                    // spawning and updating
	SystemPoofing                    // every particle poofing, no spawns
)

func (s SystemState) String() string {
	switch s {
	case SystemDormant:
		return "dormant"
	case SystemRunning:
		return "running"
	case SystemPoofing:
		return "poofing"
	default:
		return "unknown"
	}
}

// minPropagationDistance skips coincident particles.
const minPropagationDistance = 0.001

// TextureSource hands out the texture for each new particle. Next may
// return nil, in which case the particle draws flat color.
type TextureSource interface {
	Next() *Texture
}

// PointerSource is the smoothed pointer the pool reads once per frame.
type PointerSource interface {
	Update(dt float64)
	Position() Vec2
	Velocity() Vec2
	Active() bool
}

// System owns the particle collection. Only its own Update adds (spawn) or
// removes (cull) particles; everything else mutates velocities of existing
// particles.
type System struct {
	cfg      *Config
	scene    *Scene
	textures TextureSource
	pointer  PointerSource
	rng      *rand.Rand

	particles []*Particle
	excess    []Vec2 // propagation snapshot, high-water mark
	zCounter  int
	state     SystemState

	spawnTimer    float64
	spawnInterval float64
	firstWake     bool

	failures int
}

// NewSystem creates a DORMANT pool. textures and pointer may be nil.
func NewSystem(cfg *Config, scene *Scene, textures TextureSource, pointer PointerSource, rng *rand.Rand) *System {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s := &System{
		cfg:       cfg,
		scene:     scene,
		textures:  textures,
		pointer:   pointer,
		rng:       rng,
		state:     SystemDormant,
		firstWake: true,
	}
	scene.OnResize(func(w, h int) { s.syncAspect() })
	return s
}

// syncAspect re-reads the screen aspect into every particle so shapes stay
// round after a resize.
func (s *System) syncAspect() {
	aspect := s.scene.Aspect()
	for _, p := range s.particles {
		if !p.alive {
			continue
		}
		p.aspect = aspect
		p.applyTransform()
	}
}

// Init computes the first spawn interval and seeds SeedCount sleeping
// particles spread between SpawnXOffset and SeedSpanEnd.
func (s *System) Init() {
	s.updateSpawnInterval()

	cfg := s.cfg
	n := cfg.SeedCount
	for i := 0; i < n; i++ {
		x := cfg.SpawnXOffset
		if n > 1 {
			x += float64(i) / float64(n-1) * (cfg.SeedSpanEnd - cfg.SpawnXOffset)
		}
		p := s.newParticle()
		p.x = x
		p.applyTransform()
		s.particles = append(s.particles, p)
	}
}

// Wake switches to RUNNING, resets the spawn timer, and wakes every
// surviving particle. The first wake shortens the spawn interval until the
// next recompute.
func (s *System) Wake() {
	s.state = SystemRunning
	s.spawnTimer = 0
	if s.firstWake {
		s.spawnInterval *= s.cfg.FirstWakeSpawnFactor
		s.firstWake = false
	} else {
		s.updateSpawnInterval()
	}
	for _, p := range s.particles {
		p.Wake()
	}
}

// Poof switches to POOFING and poofs every particle. Spawning stops.
// Sleepers go back to sleep so they don't surface while the pool is off;
// any that had started materialising shrink away first.
func (s *System) Poof() {
	s.state = SystemPoofing
	for _, p := range s.particles {
		p.Poof()
		p.disarm()
	}
}

// Update advances the pool by dt seconds: pointer, impulse, propagation,
// particle updates with culling, then spawning.
func (s *System) Update(dt float64) {
	if s.pointer != nil {
		s.pointer.Update(dt)
		if s.pointer.Active() {
			cursor, vel := s.pointer.Position(), s.pointer.Velocity()
			for _, p := range s.particles {
				p.ApplyImpulse(cursor, vel)
			}
		}
	}

	s.propagate()
	s.updateParticles(dt)

	if s.state == SystemRunning && len(s.particles) < s.cfg.PeakCount {
		s.spawnTimer += dt
		if s.spawnTimer >= s.spawnInterval {
			s.spawnTimer = 0
			s.spawnLiveAt(s.cfg.SpawnXOffset)
			s.updateSpawnInterval()
		}
	}
}

// propagate bleeds each disturbed LIVE particle's excess velocity into its
// LIVE neighbours. Sources are snapshotted first, so a particle disturbed
// this frame only becomes a source on the next frame.
func (s *System) propagate() {
	cfg := s.cfg
	n := len(s.particles)
	if cap(s.excess) < n {
		s.excess = make([]Vec2, n)
	}
	s.excess = s.excess[:n]
	for i, p := range s.particles {
		if p.alive && p.state == StateLive {
			s.excess[i] = p.Excess()
		} else {
			s.excess[i] = Vec2{}
		}
	}

	for i, a := range s.particles {
		ex := s.excess[i]
		if ex.Len() < cfg.PropThreshold || ex == (Vec2{}) {
			continue
		}
		aspect := a.aspect
		if aspect <= 0 {
			aspect = 1
		}
		for j, b := range s.particles {
			if i == j || !b.alive || b.state != StateLive {
				continue
			}
			dx := (b.x - a.x) * aspect
			dy := b.y - a.y
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist >= cfg.PropRadius || dist < minPropagationDistance {
				continue
			}
			t := 1 - dist/cfg.PropRadius
			transfer := t * t * t * cfg.PropStrength * cfg.PropDecay
			b.ReceiveWake(Vec2{X: ex.X * transfer, Y: ex.Y * transfer})
		}
	}
}

// updateParticles advances every particle and removes the dead ones,
// preserving creation order.
func (s *System) updateParticles(dt float64) {
	kept := s.particles[:0]
	for _, p := range s.particles {
		s.safeUpdate(p, dt)
		if p.Alive() {
			kept = append(kept, p)
		}
	}
	clear(s.particles[len(kept):])
	s.particles = kept
}

// safeUpdate isolates a failing particle: it is logged and destroyed so the
// rest of the pool keeps updating.
func (s *System) safeUpdate(p *Particle, dt float64) {
	defer func() {
		if r := recover(); r != nil {
			s.failures++
			warnf("particle %d update failed: %v", p.zOrder, r)
			p.Destroy()
		}
	}()
	p.Update(dt)
}

func (s *System) newParticle() *Particle {
	var tex *Texture
	if s.textures != nil {
		tex = s.textures.Next()
	}
	p := newParticle(s.cfg, s.scene, tex, s.zCounter, s.rng)
	s.zCounter++
	return p
}

// spawnLiveAt adds a particle at x that starts its wake countdown now.
func (s *System) spawnLiveAt(x float64) *Particle {
	p := s.newParticle()
	p.x = x
	p.Wake()
	s.particles = append(s.particles, p)
	return p
}

// updateSpawnInterval sets the interval from the average crossing time
// spread over the peak population, with jitter.
func (s *System) updateSpawnInterval() {
	cfg := s.cfg
	avgLifetime := cfg.CrossingDistance / cfg.Velocity.Mid()
	s.spawnInterval = avgLifetime / float64(cfg.PeakCount) * cfg.SpawnJitter.Random(s.rng)
}

// State returns the pool's global phase.
func (s *System) State() SystemState { return s.state }

// Len returns the number of particles in the pool.
func (s *System) Len() int { return len(s.particles) }

// Particles returns the pool in creation order. The returned slice MUST NOT
// be mutated.
func (s *System) Particles() []*Particle { return s.particles }

// SpawnInterval returns the current spawn interval in seconds.
func (s *System) SpawnInterval() float64 { return s.spawnInterval }

// Failures returns how many particle updates have panicked.
func (s *System) Failures() int { return s.failures }
