package drift

import "image"

// NodeType distinguishes rendering behavior for a Node.
type NodeType uint8

const (
	NodeTypeMesh NodeType = iota // renders Geometry through the stencil device
	NodeTypeText                 // renders a device-space coverage map through a quad
)

// Render order of the three particle layers. Image layers add
// zOrder*imageOrderStep so later particles draw over earlier ones.
const (
	RenderOrderStencil = 0
	RenderOrderSolid   = 1
	RenderOrderImage   = 2
	imageOrderStep     = 0.001
)

// --- ID counter ---

// nodeIDCounter is a plain counter (no atomic: the frame thread owns all nodes).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// --- Node ---

// Node is one drawable in a render bucket. A single flat struct is used for
// both node types to avoid interface dispatch on the hot path. A Node does
// not own its Geometry; the particle that built it releases it.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Type NodeType

	// Transform (world space, Y up, [0,1] across the viewport)
	X, Y   float64
	Z      float64
	ScaleX float64
	ScaleY float64

	// Visibility
	Alpha   float64
	Visible bool

	// Ordering
	RenderOrder float64

	// Material
	Color    Color
	Geometry *Geometry
	Texture  *Texture
	Fit      Fit

	// Text fields (NodeTypeText): per-pixel coverage in device space.
	Coverage *image.Alpha

	// Internal
	seq      int // insertion order within its bucket, breaks sort ties
	disposed bool
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.ScaleX = 1
	n.ScaleY = 1
	n.Alpha = 1
	n.Color = ColorWhite
	n.Fit = identityFit
	n.Visible = true
}

// NewMeshNode creates a node that draws g.
func NewMeshNode(name string, g *Geometry) *Node {
	n := &Node{Name: name, Type: NodeTypeMesh, Geometry: g}
	nodeDefaults(n)
	return n
}

// NewTextNode creates a full-viewport node that paints tint through coverage.
// The node covers world [0,1] x [0,1].
func NewTextNode(name string, coverage *image.Alpha, tint Color) *Node {
	n := &Node{
		Name:     name,
		Type:     NodeTypeText,
		Geometry: newQuadGeometry(),
	}
	nodeDefaults(n)
	n.Coverage = coverage
	n.Color = tint
	n.X, n.Y = 0.5, 0.5
	return n
}

// --- Disposal ---

// Dispose marks the node as disposed and drops its material references.
// Safe to call more than once, and on a nil node.
func (n *Node) Dispose() {
	if n == nil || n.disposed {
		return
	}
	n.disposed = true
	n.ID = 0
	n.Visible = false
	n.Geometry = nil
	n.Texture = nil
	n.Coverage = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// drawable reports whether the node would produce fragments.
func (n *Node) drawable() bool {
	if n.disposed || !n.Visible || n.Alpha <= 0 || n.Geometry == nil || n.Geometry.released {
		return false
	}
	return n.Type != NodeTypeText || n.Coverage != nil
}
