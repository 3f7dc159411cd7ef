package drift

import (
	"image"
	"image/color"
	"testing"
)

var quadIndices = []uint16{0, 1, 2, 0, 2, 3}

// quadPts returns device-space corners of the pixel rectangle [x0,x1)x[y0,y1).
func quadPts(x0, y0, x1, y1 float64) []Vec2 {
	return []Vec2{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func TestCompareFunc(t *testing.T) {
	cases := []struct {
		fn          CompareFunc
		ref, stored uint8
		want        bool
	}{
		{CompareNever, 0, 0, false},
		{CompareAlways, 9, 0, true},
		{CompareEqual, 1, 1, true},
		{CompareEqual, 1, 2, false},
		{CompareLEqual, 2, 1, false},
		{CompareLEqual, 2, 2, true},
		{CompareLEqual, 2, 5, true},
		{CompareLEqual, 1, 0, false},
		{CompareLess, 1, 2, true},
		{CompareLess, 2, 2, false},
		{CompareGreater, 3, 2, true},
		{CompareGEqual, 2, 2, true},
		{CompareNotEqual, 0, 1, true},
	}
	for _, c := range cases {
		if got := c.fn.test(c.ref, c.stored); got != c.want {
			t.Errorf("fn %d: test(%d, %d) = %v, want %v", c.fn, c.ref, c.stored, got, c.want)
		}
	}
}

func TestStencilOpApply(t *testing.T) {
	cases := []struct {
		op          StencilOp
		stored, ref uint8
		want        uint8
	}{
		{OpKeep, 7, 1, 7},
		{OpZero, 7, 1, 0},
		{OpReplace, 7, 3, 3},
		{OpIncr, 7, 0, 8},
		{OpIncr, 255, 0, 255},
		{OpIncrWrap, 255, 0, 0},
		{OpDecr, 7, 0, 6},
		{OpDecr, 0, 0, 0},
		{OpDecrWrap, 0, 0, 255},
		{OpInvert, 0x0F, 0, 0xF0},
	}
	for _, c := range cases {
		if got := c.op.apply(c.stored, c.ref); got != c.want {
			t.Errorf("op %d: apply(%d) = %d, want %d", c.op, c.stored, got, c.want)
		}
	}
}

func TestFramebufferClear(t *testing.T) {
	fb := NewFramebuffer(4, 3)
	fb.Clear(ColorFromHex(0x161616))
	got := fb.Image().RGBAAt(3, 2)
	if got != (color.RGBA{0x16, 0x16, 0x16, 0xff}) {
		t.Errorf("clear color = %v", got)
	}
	if fb.Stencil(1, 1) != 0 {
		t.Error("stencil should be 0 after clear")
	}
}

func TestDrawTrianglesIncrementCountsShapes(t *testing.T) {
	fb := NewFramebuffer(10, 10)
	fb.Clear(ColorBlack)
	fb.ColorMask(false)
	fb.StencilFunc(CompareAlways, 1, 0xFF)
	fb.StencilOp(OpKeep, OpKeep, OpIncr)

	fb.DrawTriangles(quadPts(2, 2, 8, 8), quadIndices, Paint{Color: ColorWhite, Alpha: 1})
	fb.DrawTriangles(quadPts(5, 2, 10, 8), quadIndices, Paint{Color: ColorWhite, Alpha: 1})

	if got := fb.Stencil(3, 3); got != 1 {
		t.Errorf("single coverage stencil = %d, want 1", got)
	}
	if got := fb.Stencil(6, 4); got != 2 {
		t.Errorf("overlap stencil = %d, want 2", got)
	}
	if got := fb.Stencil(0, 0); got != 0 {
		t.Errorf("uncovered stencil = %d, want 0", got)
	}
	if got := fb.Image().RGBAAt(6, 4); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("color written with color mask off: %v", got)
	}
}

func TestDrawTrianglesSharedEdgeIsOneFragment(t *testing.T) {
	// The diagonal shared by the quad's two triangles must not count twice.
	fb := NewFramebuffer(10, 10)
	fb.ColorMask(false)
	fb.StencilFunc(CompareAlways, 1, 0xFF)
	fb.StencilOp(OpKeep, OpKeep, OpIncr)
	fb.DrawTriangles(quadPts(0, 0, 10, 10), quadIndices, Paint{Alpha: 1})
	for i := 0; i < 10; i++ {
		if got := fb.Stencil(i, i); got != 1 {
			t.Fatalf("diagonal pixel %d stencil = %d, want 1", i, got)
		}
	}
}

func TestDrawTrianglesWriteMask(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	fb.StencilMask(0)
	fb.ColorMask(false)
	fb.StencilFunc(CompareAlways, 1, 0xFF)
	fb.StencilOp(OpKeep, OpKeep, OpIncr)
	fb.DrawTriangles(quadPts(0, 0, 4, 4), quadIndices, Paint{Alpha: 1})
	if got := fb.Stencil(1, 1); got != 0 {
		t.Errorf("stencil = %d with write mask 0, want 0", got)
	}
}

func TestDrawTrianglesEqualGatesColor(t *testing.T) {
	fb := NewFramebuffer(10, 10)
	fb.Clear(ColorBlack)
	fb.ColorMask(false)
	fb.StencilFunc(CompareAlways, 1, 0xFF)
	fb.StencilOp(OpKeep, OpKeep, OpIncr)
	fb.DrawTriangles(quadPts(0, 0, 5, 10), quadIndices, Paint{Alpha: 1})

	fb.ColorMask(true)
	fb.StencilMask(0)
	fb.StencilFunc(CompareEqual, 1, 0xFF)
	fb.StencilOp(OpKeep, OpKeep, OpKeep)
	fb.DrawTriangles(quadPts(0, 0, 10, 10), quadIndices, Paint{Color: Color{1, 0, 0, 1}, Alpha: 1})

	if got := fb.Image().RGBAAt(2, 5); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("stencil 1 pixel = %v, want red", got)
	}
	if got := fb.Image().RGBAAt(7, 5); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("stencil 0 pixel = %v, want untouched black", got)
	}
}

func TestDrawTrianglesLEqualDecrementsOncePerLayer(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	fb.Clear(ColorBlack)
	fb.ColorMask(false)
	fb.StencilFunc(CompareAlways, 1, 0xFF)
	fb.StencilOp(OpKeep, OpKeep, OpIncr)
	for i := 0; i < 3; i++ {
		fb.DrawTriangles(quadPts(0, 0, 4, 4), quadIndices, Paint{Alpha: 1})
	}

	fb.ColorMask(true)
	fb.StencilMask(0xFF)
	fb.StencilFunc(CompareLEqual, 2, 0xFF)
	fb.StencilOp(OpKeep, OpKeep, OpDecr)

	colors := []Color{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}}
	for _, c := range colors {
		fb.DrawTriangles(quadPts(0, 0, 4, 4), quadIndices, Paint{Color: c, Alpha: 1})
	}
	// 3 -> 2 (red) -> 1 (green) -> blue fails.
	if got := fb.Stencil(1, 1); got != 1 {
		t.Errorf("stencil = %d, want 1", got)
	}
	if got := fb.Image().RGBAAt(1, 1); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("color = %v, want green", got)
	}
}

func TestDrawTrianglesCoverageWeightsPaint(t *testing.T) {
	fb := NewFramebuffer(4, 1)
	fb.Clear(ColorBlack)
	cov := image.NewAlpha(image.Rect(0, 0, 4, 1))
	cov.SetAlpha(0, 0, color.Alpha{255})
	cov.SetAlpha(1, 0, color.Alpha{0})
	fb.DrawTriangles(quadPts(0, 0, 4, 1), quadIndices, Paint{Color: ColorWhite, Alpha: 1, Coverage: cov})

	if got := fb.Image().RGBAAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("covered pixel = %v, want white", got)
	}
	if got := fb.Image().RGBAAt(1, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("uncovered pixel = %v, want black", got)
	}
}

func TestDrawTrianglesImage(t *testing.T) {
	fb := NewFramebuffer(8, 8)
	fb.Clear(ColorBlack)
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetRGBA(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	// Scale the 2x2 image up to the full 8x8 buffer.
	m := [6]float64{4, 0, 0, 4, 0, 0}
	fb.DrawTriangles(quadPts(0, 0, 8, 8), quadIndices, Paint{Alpha: 1, Image: img, ImageTransform: m})
	if got := fb.Image().RGBAAt(4, 4); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("image pixel = %v, want blue", got)
	}
}

func TestDrawTrianglesOffscreenIsNoop(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	fb.ColorMask(false)
	fb.StencilFunc(CompareAlways, 1, 0xFF)
	fb.StencilOp(OpKeep, OpKeep, OpIncr)
	fb.DrawTriangles(quadPts(10, 10, 20, 20), quadIndices, Paint{Alpha: 1})
	_, frags := fb.resetStats()
	if frags != 0 {
		t.Errorf("fragments = %d, want 0", frags)
	}
}

func TestFramebufferResize(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	fb.Resize(16, 9)
	if b := fb.Bounds(); b.Dx() != 16 || b.Dy() != 9 {
		t.Errorf("bounds = %v", b)
	}
	fb.Resize(0, -3)
	if b := fb.Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Errorf("bounds = %v, want 1x1", b)
	}
}
