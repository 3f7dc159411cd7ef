package drift

import "time"

// stencilPass is the fixed device state for one render bucket.
type stencilPass struct {
	bucket     Bucket
	colorWrite bool
	writeMask  uint8
	fn         CompareFunc
	ref        uint8
	fail       StencilOp
	depthFail  StencilOp
	pass       StencilOp
}

// renderPasses run in this order every frame after the color clear and
// stencil reset to 0. Pass 1 counts overlapping shapes, pass 2 paints flat
// color where exactly one shape covers a pixel, pass 3 paints image layers
// where two or more overlap and consumes one level per layer, and the text
// passes split on whether any shape covers the pixel.
var renderPasses = [bucketCount]stencilPass{
	{bucket: BucketStencil, colorWrite: false, writeMask: 0xFF, fn: CompareAlways, ref: 1, fail: OpKeep, depthFail: OpKeep, pass: OpIncr},
	{bucket: BucketSolid, colorWrite: true, writeMask: 0x00, fn: CompareEqual, ref: 1, fail: OpKeep, depthFail: OpKeep, pass: OpKeep},
	{bucket: BucketImage, colorWrite: true, writeMask: 0xFF, fn: CompareLEqual, ref: 2, fail: OpKeep, depthFail: OpKeep, pass: OpDecr},
	{bucket: BucketTextBackground, colorWrite: true, writeMask: 0x00, fn: CompareEqual, ref: 0, fail: OpKeep, depthFail: OpKeep, pass: OpKeep},
	{bucket: BucketTextShape, colorWrite: true, writeMask: 0x00, fn: CompareLEqual, ref: 1, fail: OpKeep, depthFail: OpKeep, pass: OpKeep},
}

// drawCommand is a single draw instruction emitted for a visible node.
type drawCommand struct {
	node      *Node
	transform [6]float64 // local -> device
	order     float64
	z         float64
	seq       int
}

// Render clears the framebuffer and runs the five stencil passes in order.
// Must be called on the frame thread.
func (s *Scene) Render() {
	start := time.Now()
	fb := s.fb
	fb.Clear(s.ClearColor)
	view := s.camera.computeViewMatrix()

	s.stats.culled = 0
	for i, p := range renderPasses {
		passStart := time.Now()
		fb.ColorMask(p.colorWrite)
		fb.StencilMask(p.writeMask)
		fb.StencilFunc(p.fn, p.ref, 0xFF)
		fb.StencilOp(p.fail, p.depthFail, p.pass)
		s.drawBucket(p.bucket, view)
		s.stats.passTimes[i] = time.Since(passStart)
	}

	s.stats.renderTime = time.Since(start)
	s.stats.drawCount, s.stats.fragmentCount = fb.resetStats()
	if s.debug {
		s.debugLog()
	}
	if len(s.screenshotQueue) > 0 {
		s.flushScreenshots(fb.Image())
	}
}

// drawBucket emits, sorts, and submits the commands for one bucket.
func (s *Scene) drawBucket(b Bucket, view [6]float64) {
	s.commands = s.commands[:0]
	for _, n := range s.buckets[b] {
		if !n.drawable() {
			continue
		}
		m := multiplyAffine(view, computeLocalTransform(n))
		if s.camera.shouldCull(n, m) {
			s.stats.culled++
			continue
		}
		s.commands = append(s.commands, drawCommand{
			node:      n,
			transform: m,
			order:     n.RenderOrder,
			z:         n.Z,
			seq:       n.seq,
		})
	}
	s.mergeSort()
	for i := range s.commands {
		s.submit(&s.commands[i])
	}
}

// submit transforms a command's geometry to device space and draws it.
func (s *Scene) submit(cmd *drawCommand) {
	n := cmd.node
	g := n.Geometry
	s.devicePts = transformVertices(g.Vertices, s.devicePts, cmd.transform)

	paint := Paint{Color: n.Color, Alpha: n.Alpha}
	if n.Type == NodeTypeText {
		paint.Coverage = n.Coverage
	} else if n.Texture != nil && n.Texture.Image != nil {
		paint.Image = n.Texture.Image
		paint.ImageTransform = textureToDevice(cmd.transform, g.Aspect, n.Texture, n.Fit)
	}
	s.fb.DrawTriangles(s.devicePts, g.Indices, paint)
}

// --- Merge sort ---

// commandLessOrEqual returns true if a should sort before or at the same position as b.
// Using <= for seq ensures stability.
func commandLessOrEqual(a, b drawCommand) bool {
	if a.order != b.order {
		return a.order < b.order
	}
	if a.z != b.z {
		return a.z < b.z
	}
	return a.seq <= b.seq
}

// mergeSort sorts s.commands in-place using s.sortBuf as scratch space.
// Bottom-up merge sort: zero allocations after the sort buffer reaches high-water mark.
func (s *Scene) mergeSort() {
	n := len(s.commands)
	if n <= 1 {
		return
	}
	if cap(s.sortBuf) < n {
		s.sortBuf = make([]drawCommand, n)
	}
	s.sortBuf = s.sortBuf[:n]

	a := s.commands
	b := s.sortBuf
	swapped := false

	for width := 1; width < n; width *= 2 {
		for i := 0; i < n; i += 2 * width {
			lo := i
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeRun(a, b, lo, mid, hi)
		}
		a, b = b, a
		swapped = !swapped
	}

	if swapped {
		copy(s.commands, s.sortBuf)
	}
}

// mergeRun merges two sorted runs [lo, mid) and [mid, hi) from src into dst.
func mergeRun(src, dst []drawCommand, lo, mid, hi int) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if commandLessOrEqual(src[i], src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	for i < mid {
		dst[k] = src[i]
		i++
		k++
	}
	for j < hi {
		dst[k] = src[j]
		j++
		k++
	}
}
