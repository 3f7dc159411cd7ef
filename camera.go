package drift

import "math"

// Camera is the fixed orthographic view onto the [0,1] x [0,1] world. World
// Y points up; device Y points down.
type Camera struct {
	// Left, Right, Bottom, Top bound the visible world region.
	Left, Right, Bottom, Top float64
	// Viewport is the device-pixel rectangle this camera renders into.
	Viewport Rect

	// CullEnabled skips nodes whose device AABB doesn't intersect the viewport.
	CullEnabled bool

	viewMatrix    [6]float64
	invViewMatrix [6]float64
	dirty         bool
}

// newCamera creates a Camera over the unit square with the given viewport.
func newCamera(viewport Rect) *Camera {
	return &Camera{
		Left:        0,
		Right:       1,
		Bottom:      0,
		Top:         1,
		Viewport:    viewport,
		CullEnabled: true,
		dirty:       true,
	}
}

// SetViewport changes the device-pixel viewport.
func (c *Camera) SetViewport(r Rect) {
	if c.Viewport == r {
		return
	}
	c.Viewport = r
	c.dirty = true
}

// Aspect returns the viewport's width divided by its height, or 1 for an
// empty viewport.
func (c *Camera) Aspect() float64 {
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return 1
	}
	return c.Viewport.Width / c.Viewport.Height
}

// computeViewMatrix recomputes the cached world-to-device matrix if dirty.
//
//	dx = vx + (wx - Left)  / (Right - Left)  * vw
//	dy = vy + (Top  - wy)  / (Top - Bottom)  * vh
func (c *Camera) computeViewMatrix() [6]float64 {
	if !c.dirty {
		return c.viewMatrix
	}
	c.dirty = false

	spanX := c.Right - c.Left
	spanY := c.Top - c.Bottom
	if spanX == 0 || spanY == 0 {
		c.viewMatrix = identityTransform
		c.invViewMatrix = identityTransform
		return c.viewMatrix
	}
	sx := c.Viewport.Width / spanX
	sy := -c.Viewport.Height / spanY
	tx := c.Viewport.X - c.Left*sx
	ty := c.Viewport.Y + c.Top*c.Viewport.Height/spanY

	c.viewMatrix = [6]float64{sx, 0, 0, sy, tx, ty}
	c.invViewMatrix = invertAffine(c.viewMatrix)
	return c.viewMatrix
}

// WorldToScreen converts world coordinates to device pixel coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	c.computeViewMatrix()
	sx, sy = transformPoint(c.viewMatrix, wx, wy)
	return
}

// ScreenToWorld converts device pixel coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	c.computeViewMatrix()
	wx, wy = transformPoint(c.invViewMatrix, sx, sy)
	return
}

// VisibleBounds returns the world-space rectangle covered by the viewport.
func (c *Camera) VisibleBounds() Rect {
	c.computeViewMatrix()
	vp := c.Viewport
	return transformAABB(c.invViewMatrix, vp)
}

// --- Culling ---

// nodeDeviceAABB returns the device-space bounds of a node drawn with m
// (view * local).
func nodeDeviceAABB(n *Node, m [6]float64) Rect {
	return transformAABB(m, n.Geometry.aabb)
}

// shouldCull returns true if the node lies entirely outside the viewport.
func (c *Camera) shouldCull(n *Node, m [6]float64) bool {
	if !c.CullEnabled {
		return false
	}
	aabb := nodeDeviceAABB(n, m)
	return !aabb.Intersects(c.Viewport)
}

// BackingSize returns the backing-buffer size for a layout of w x h logical
// pixels: the device scale is capped at pixelRatioCap and then multiplied by
// renderScale. Both dimensions are at least 1.
func BackingSize(w, h int, deviceScale, pixelRatioCap, renderScale float64) (int, int) {
	scale := deviceScale
	if pixelRatioCap > 0 {
		scale = math.Min(scale, pixelRatioCap)
	}
	if renderScale > 0 {
		scale *= renderScale
	}
	bw := int(math.Round(float64(w) * scale))
	bh := int(math.Round(float64(h) * scale))
	return max(bw, 1), max(bh, 1)
}
