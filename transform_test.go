package drift

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want [6]float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

// --- computeLocalTransform ---

func TestLocalTransformIdentity(t *testing.T) {
	n := NewMeshNode("test", newQuadGeometry())
	got := computeLocalTransform(n)
	assertMatrix(t, "identity", got, [6]float64{1, 0, 0, 1, 0, 0})
}

func TestLocalTransformTranslation(t *testing.T) {
	n := NewMeshNode("test", newQuadGeometry())
	n.SetPosition(0.25, 0.75, -3)
	got := computeLocalTransform(n)
	assertMatrix(t, "translation", got, [6]float64{1, 0, 0, 1, 0.25, 0.75})
}

func TestLocalTransformScale(t *testing.T) {
	n := NewMeshNode("test", newQuadGeometry())
	n.SetScale(2, 3)
	got := computeLocalTransform(n)
	assertMatrix(t, "scale", got, [6]float64{2, 0, 0, 3, 0, 0})
}

func TestLocalTransformDepthIgnored(t *testing.T) {
	a := NewMeshNode("a", newQuadGeometry())
	b := NewMeshNode("b", newQuadGeometry())
	a.SetPosition(0.5, 0.5, -4)
	b.SetPosition(0.5, 0.5, 3.9)
	assertMatrix(t, "depth", computeLocalTransform(a), computeLocalTransform(b))
}

// --- multiplyAffine / invertAffine ---

func TestMultiplyAffineIdentity(t *testing.T) {
	m := [6]float64{2, 0, 0, 3, 10, 20}
	assertMatrix(t, "I*m", multiplyAffine(identityTransform, m), m)
	assertMatrix(t, "m*I", multiplyAffine(m, identityTransform), m)
}

func TestMultiplyAffineTranslations(t *testing.T) {
	a := [6]float64{1, 0, 0, 1, 10, 20}
	b := [6]float64{1, 0, 0, 1, 5, 7}
	assertMatrix(t, "a*b", multiplyAffine(a, b), [6]float64{1, 0, 0, 1, 15, 27})
}

func TestMultiplyAffineScaleThenTranslate(t *testing.T) {
	view := [6]float64{100, 0, 0, -50, 0, 50}
	local := [6]float64{0.2, 0, 0, 0.4, 0.5, 0.5}
	m := multiplyAffine(view, local)
	x, y := transformPoint(m, 0, 0)
	assertNear(t, "x", x, 50)
	assertNear(t, "y", y, 25)
	x, y = transformPoint(m, 0.5, 0.5)
	assertNear(t, "x", x, 60)
	assertNear(t, "y", y, 15)
}

func TestInvertAffine(t *testing.T) {
	m := [6]float64{2, 0, 0, 4, 10, 20}
	inv := invertAffine(m)
	assertMatrix(t, "m*inv", multiplyAffine(m, inv), identityTransform)
}

func TestInvertAffineComplex(t *testing.T) {
	m := [6]float64{1.5, 0.3, -0.2, 0.8, 7, -3}
	inv := invertAffine(m)
	assertMatrix(t, "inv*m", multiplyAffine(inv, m), identityTransform)
}

func TestInvertAffineSingularReturnsIdentity(t *testing.T) {
	m := [6]float64{0, 0, 0, 0, 5, 5}
	assertMatrix(t, "singular", invertAffine(m), identityTransform)
}

// --- toAff3 / transformAABB ---

func TestToAff3RowMajor(t *testing.T) {
	m := [6]float64{1, 2, 3, 4, 5, 6}
	got := toAff3(m)
	want := [6]float64{1, 3, 5, 2, 4, 6}
	for i := range want {
		assertNear(t, "aff3", got[i], want[i])
	}
}

func TestTransformAABBFlip(t *testing.T) {
	m := [6]float64{100, 0, 0, -100, 0, 100}
	r := transformAABB(m, Rect{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5})
	assertNear(t, "x", r.X, 25)
	assertNear(t, "y", r.Y, 25)
	assertNear(t, "w", r.Width, 50)
	assertNear(t, "h", r.Height, 50)
}

func BenchmarkMultiplyAffine(b *testing.B) {
	p := [6]float64{1.5, 0.3, -0.2, 0.8, 7, -3}
	c := [6]float64{0.2, 0, 0, 0.4, 0.5, 0.5}
	var r [6]float64
	for i := 0; i < b.N; i++ {
		r = multiplyAffine(p, c)
	}
	_ = r
}
