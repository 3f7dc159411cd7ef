package drift

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// CompareFunc is a stencil comparison. The test evaluates
// (ref & readMask) OP (stored & readMask), so CompareLEqual with ref 2
// passes where the stored value is at least 2.
type CompareFunc uint8

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLEqual
	CompareGreater
	CompareNotEqual
	CompareGEqual
	CompareAlways
)

// test evaluates ref OP stored.
func (f CompareFunc) test(ref, stored uint8) bool {
	switch f {
	case CompareNever:
		return false
	case CompareLess:
		return ref < stored
	case CompareEqual:
		return ref == stored
	case CompareLEqual:
		return ref <= stored
	case CompareGreater:
		return ref > stored
	case CompareNotEqual:
		return ref != stored
	case CompareGEqual:
		return ref >= stored
	default:
		return true
	}
}

// StencilOp is the update applied to a stored stencil value.
type StencilOp uint8

const (
	OpKeep StencilOp = iota
	OpZero
	OpReplace
	OpIncr     // saturating
	OpIncrWrap // wraps at 255
	OpDecr     // saturating
	OpDecrWrap // wraps at 0
	OpInvert
)

func (op StencilOp) apply(stored, ref uint8) uint8 {
	switch op {
	case OpZero:
		return 0
	case OpReplace:
		return ref
	case OpIncr:
		if stored == math.MaxUint8 {
			return stored
		}
		return stored + 1
	case OpIncrWrap:
		return stored + 1
	case OpDecr:
		if stored == 0 {
			return 0
		}
		return stored - 1
	case OpDecrWrap:
		return stored - 1
	case OpInvert:
		return ^stored
	default:
		return stored
	}
}

// fragmentThreshold is the minimum coverage (of 255) for a pixel to count as
// a fragment. Partially covered edge pixels below it neither test nor
// update the stencil.
const fragmentThreshold = 128

// Paint describes what a draw writes into the color buffer for each passing
// fragment.
type Paint struct {
	// Color is used when Image is nil.
	Color Color
	// Alpha multiplies the fragment coverage.
	Alpha float64
	// Image, when set, is sampled through ImageTransform (image pixel to
	// device pixel).
	Image          image.Image
	ImageTransform [6]float64
	// Coverage, when set, multiplies each fragment by its device-space alpha.
	Coverage *image.Alpha
}

// Framebuffer is a software render target with an 8-bit stencil plane that
// behaves like a GL stencil buffer: one stencil value per pixel, a write
// mask, a compare function with reference and read mask, and per-outcome
// update ops. There is no depth buffer; the depth test always passes.
type Framebuffer struct {
	color   *image.RGBA
	stencil []uint8
	w, h    int

	colorWrite bool
	writeMask  uint8
	fn         CompareFunc
	ref        uint8
	readMask   uint8
	opFail     StencilOp
	opDepth    StencilOp
	opPass     StencilOp

	raster  *vector.Rasterizer
	cover   []uint8 // coverage scratch, high-water mark
	mask    []uint8 // per-fragment paint weight scratch
	scratch []uint8 // sampled image scratch (RGBA)

	fragments int
	draws     int
}

// NewFramebuffer creates a w x h framebuffer with default state: color
// writes on, stencil mask 0xFF, CompareAlways, all ops Keep.
func NewFramebuffer(w, h int) *Framebuffer {
	f := &Framebuffer{raster: vector.NewRasterizer(1, 1)}
	f.Resize(w, h)
	f.ColorMask(true)
	f.StencilMask(0xFF)
	f.StencilFunc(CompareAlways, 0, 0xFF)
	f.StencilOp(OpKeep, OpKeep, OpKeep)
	return f
}

// Resize reallocates the buffers. Contents are cleared.
func (f *Framebuffer) Resize(w, h int) {
	w, h = max(w, 1), max(h, 1)
	if f.color != nil && f.w == w && f.h == h {
		return
	}
	f.w, f.h = w, h
	f.color = image.NewRGBA(image.Rect(0, 0, w, h))
	f.stencil = make([]uint8, w*h)
}

// Bounds returns the framebuffer rectangle.
func (f *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.w, f.h)
}

// Image returns the color buffer. It is reused across frames.
func (f *Framebuffer) Image() *image.RGBA {
	return f.color
}

// Clear fills the color buffer with c and resets the stencil plane to 0.
func (f *Framebuffer) Clear(c Color) {
	rgba := c.toRGBA()
	pix := f.color.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = rgba.R
		pix[i+1] = rgba.G
		pix[i+2] = rgba.B
		pix[i+3] = rgba.A
	}
	clear(f.stencil)
}

// ColorMask enables or disables color writes.
func (f *Framebuffer) ColorMask(enabled bool) { f.colorWrite = enabled }

// StencilMask sets which stencil bits may be written.
func (f *Framebuffer) StencilMask(mask uint8) { f.writeMask = mask }

// StencilFunc sets the stencil comparison, reference value, and read mask.
func (f *Framebuffer) StencilFunc(fn CompareFunc, ref, readMask uint8) {
	f.fn = fn
	f.ref = ref
	f.readMask = readMask
}

// StencilOp sets the update applied when the stencil test fails, when the
// depth test fails (never, here), and when both pass.
func (f *Framebuffer) StencilOp(fail, depthFail, pass StencilOp) {
	f.opFail = fail
	f.opDepth = depthFail
	f.opPass = pass
}

// Stencil returns the stencil value at (x, y), or 0 outside the buffer.
func (f *Framebuffer) Stencil(x, y int) uint8 {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return 0
	}
	return f.stencil[y*f.w+x]
}

// DrawTriangles rasterises the indexed device-space triangles, runs every
// fragment through the stencil test, applies the stencil update, and
// composites paint over the fragments that pass. Overlapping triangles of
// one draw produce one fragment per pixel.
func (f *Framebuffer) DrawTriangles(pts []Vec2, indices []uint16, paint Paint) {
	if len(indices) < 3 || len(pts) == 0 {
		return
	}
	f.draws++

	box := f.trianglesBounds(pts)
	if box.Empty() {
		return
	}
	w, h := box.Dx(), box.Dy()

	cover := f.rasterize(pts, indices, box)

	alpha := clamp01(paint.Alpha)
	f.mask = growBuffer(f.mask, w*h)
	mask := f.mask
	painted := false

	for y := 0; y < h; y++ {
		sy := box.Min.Y + y
		row := sy * f.w
		for x := 0; x < w; x++ {
			mi := y*w + x
			mask[mi] = 0
			c := cover[mi]
			if c < fragmentThreshold {
				continue
			}
			f.fragments++
			sx := box.Min.X + x
			si := row + sx
			stored := f.stencil[si]
			pass := f.fn.test(f.ref&f.readMask, stored&f.readMask)
			op := f.opFail
			if pass {
				op = f.opPass
			}
			if op != OpKeep && f.writeMask != 0 {
				nv := op.apply(stored, f.ref)
				f.stencil[si] = (stored &^ f.writeMask) | (nv & f.writeMask)
			}
			if !pass || !f.colorWrite {
				continue
			}
			a := float64(c) / 255 * alpha
			if paint.Coverage != nil {
				a *= float64(paint.Coverage.AlphaAt(sx, sy).A) / 255
			}
			if m := uint8(a*255 + 0.5); m != 0 {
				mask[mi] = m
				painted = true
			}
		}
	}
	if !painted {
		return
	}

	maskImg := &image.Alpha{Pix: mask[:w*h], Stride: w, Rect: box}
	if paint.Image != nil {
		src := f.sample(paint.Image, paint.ImageTransform, box)
		xdraw.DrawMask(f.color, box, src, box.Min, maskImg, box.Min, xdraw.Over)
		return
	}
	xdraw.DrawMask(f.color, box, image.NewUniform(paint.Color.toRGBA()), image.Point{}, maskImg, box.Min, xdraw.Over)
}

// trianglesBounds returns the integer device bounds of pts clipped to the
// framebuffer.
func (f *Framebuffer) trianglesBounds(pts []Vec2) image.Rectangle {
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	r := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
	return r.Intersect(f.Bounds())
}

// rasterize returns per-pixel coverage of the triangles within box, indexed
// relative to box.Min.
func (f *Framebuffer) rasterize(pts []Vec2, indices []uint16, box image.Rectangle) []uint8 {
	w, h := box.Dx(), box.Dy()
	ox, oy := float64(box.Min.X), float64(box.Min.Y)

	z := f.raster
	z.Reset(w, h)
	z.DrawOp = xdraw.Src
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := pts[indices[i]], pts[indices[i+1]], pts[indices[i+2]]
		z.MoveTo(float32(a.X-ox), float32(a.Y-oy))
		z.LineTo(float32(b.X-ox), float32(b.Y-oy))
		z.LineTo(float32(c.X-ox), float32(c.Y-oy))
		z.ClosePath()
	}

	f.cover = growBuffer(f.cover, w*h)
	dst := &image.Alpha{Pix: f.cover[:w*h], Stride: w, Rect: image.Rect(0, 0, w, h)}
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return dst.Pix
}

// sample resamples img into a box-sized scratch image using the
// image-to-device transform m.
func (f *Framebuffer) sample(img image.Image, m [6]float64, box image.Rectangle) *image.RGBA {
	w, h := box.Dx(), box.Dy()
	f.scratch = growBuffer(f.scratch, w*h*4)
	pix := f.scratch[:w*h*4]
	clear(pix)
	dst := &image.RGBA{Pix: pix, Stride: w * 4, Rect: box}
	xdraw.ApproxBiLinear.Transform(dst, toAff3(m), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// resetStats zeroes the per-frame counters and returns the previous values.
func (f *Framebuffer) resetStats() (draws, fragments int) {
	draws, fragments = f.draws, f.fragments
	f.draws, f.fragments = 0, 0
	return
}

// growBuffer returns buf with at least n bytes, reusing its backing array
// when large enough (high-water mark, never shrinks).
func growBuffer(buf []uint8, n int) []uint8 {
	if cap(buf) < n {
		return make([]uint8, n)
	}
	return buf[:n]
}
