package drift

import (
	"math"

	perlin "github.com/aquilax/go-perlin"
)

// Construction-time clamps. Outside these ranges the rim either degenerates
// (too few segments, non-positive exponent or aspect) or overflows uint16
// indices.
const (
	minSegments = 8
	maxSegments = 1024
	minExponent = 0.5
	maxExponent = 16
	minAspect   = 0.25
	maxAspect   = 4
)

// Vertex is a mesh vertex in local space with its texture coordinate.
type Vertex struct {
	X, Y float64
	U, V float64
}

// SquircleParams describes a superellipse outline.
type SquircleParams struct {
	Segments int
	// Exponent controls roundness: 2 is an ellipse, larger values approach a
	// rectangle.
	Exponent float64
	// Aspect stretches the shape horizontally.
	Aspect float64
	// Noise is the amplitude of radial Perlin noise on the rim. Zero disables it.
	Noise     float64
	NoiseSeed int64
}

// clamped returns p with every field forced into its valid range.
func (p SquircleParams) clamped() SquircleParams {
	if p.Segments < minSegments {
		p.Segments = minSegments
	}
	if p.Segments > maxSegments {
		p.Segments = maxSegments
	}
	if !(p.Exponent >= minExponent) {
		p.Exponent = minExponent
	}
	p.Exponent = math.Min(p.Exponent, maxExponent)
	if !(p.Aspect >= minAspect) {
		p.Aspect = minAspect
	}
	p.Aspect = math.Min(p.Aspect, maxAspect)
	if math.IsNaN(p.Noise) || p.Noise < 0 {
		p.Noise = 0
	}
	return p
}

// Geometry is a triangle-fan mesh shared by the three render nodes of one
// particle. Index 0 is the centre; indices 1..Segments+1 walk the rim with
// the last rim vertex coinciding with the first so the seam closes.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint16
	// Aspect is the horizontal stretch the rim was built with. Texture
	// coordinates are normalised by it.
	Aspect float64

	aabb     Rect
	released bool
}

// BuildSquircle generates a fan-triangulated superellipse with
// Segments+2 vertices and 3*Segments indices. Every vertex carries
// u = (x/aspect + 1)/2, v = (y + 1)/2, which places the rim on the unit
// square's inscribed shape.
func BuildSquircle(p SquircleParams) *Geometry {
	p = p.clamped()
	n := p.Segments

	var noise *perlin.Perlin
	if p.Noise != 0 {
		noise = perlin.NewPerlin(2, 2, 3, p.NoiseSeed)
	}

	verts := make([]Vertex, n+2)
	inds := make([]uint16, n*3)

	// Hub.
	verts[0] = Vertex{X: 0, Y: 0, U: 0.5, V: 0.5}

	for i := 0; i <= n; i++ {
		theta := float64(i) / float64(n) * 2 * math.Pi
		sin, cos := math.Sincos(theta)
		r := squircleRadius(sin, cos, p.Exponent)
		if noise != nil {
			// Sample on the unit circle so the seam vertex gets the same value.
			r *= 1 + p.Noise*noise.Noise2D(cos, sin)
		}
		x := r * cos * p.Aspect
		y := r * sin
		verts[i+1] = Vertex{
			X: x,
			Y: y,
			U: (x/p.Aspect + 1) * 0.5,
			V: (y + 1) * 0.5,
		}
	}

	for i := 0; i < n; i++ {
		inds[i*3+0] = 0
		inds[i*3+1] = uint16(i + 1)
		inds[i*3+2] = uint16(i + 2)
	}

	g := &Geometry{Vertices: verts, Indices: inds, Aspect: p.Aspect}
	g.aabb = computeGeometryAABB(verts)
	return g
}

// squircleRadius returns the superellipse radius at the direction (cos, sin):
// (|cos|^n + |sin|^n)^(-1/n).
func squircleRadius(sin, cos, exponent float64) float64 {
	s := math.Pow(math.Abs(cos), exponent) + math.Pow(math.Abs(sin), exponent)
	return math.Pow(s, -1/exponent)
}

// newQuadGeometry returns a unit square centred on the origin, used by the
// full-viewport text meshes.
func newQuadGeometry() *Geometry {
	verts := []Vertex{
		{X: -0.5, Y: -0.5, U: 0, V: 0},
		{X: 0.5, Y: -0.5, U: 1, V: 0},
		{X: 0.5, Y: 0.5, U: 1, V: 1},
		{X: -0.5, Y: 0.5, U: 0, V: 1},
	}
	g := &Geometry{
		Vertices: verts,
		Indices:  []uint16{0, 1, 2, 0, 2, 3},
		Aspect:   1,
	}
	g.aabb = computeGeometryAABB(verts)
	return g
}

// computeGeometryAABB returns the local-space bounding box of verts.
func computeGeometryAABB(verts []Vertex) Rect {
	if len(verts) == 0 {
		return Rect{}
	}
	minX, minY := verts[0].X, verts[0].Y
	maxX, maxY := minX, minY
	for _, v := range verts[1:] {
		minX = math.Min(minX, v.X)
		maxX = math.Max(maxX, v.X)
		minY = math.Min(minY, v.Y)
		maxY = math.Max(maxY, v.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Bounds returns the local-space bounding box.
func (g *Geometry) Bounds() Rect {
	return g.aabb
}

// Release drops the vertex data. Safe to call more than once.
func (g *Geometry) Release() {
	if g.released {
		return
	}
	g.released = true
	g.Vertices = nil
	g.Indices = nil
}

// Released reports whether Release has been called.
func (g *Geometry) Released() bool {
	return g.released
}
