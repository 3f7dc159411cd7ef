package drift

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TextLine is one line of headline text. Positions are normalised to the
// viewport with Y measured from the top, like page layout; Size is a
// fraction of the viewport height.
type TextLine struct {
	Content string  `json:"content"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Size    float64 `json:"size"`
}

// TextLayer rasterises the headline once into a device-sized coverage map
// and draws it twice: tinted TextColor where no shape covers the pixel and
// TextShapeColor where any shape does.
type TextLayer struct {
	cfg   *Config
	scene *Scene
	font  *opentype.Font

	coverage  *image.Alpha
	bgNode    *Node
	shapeNode *Node
	fade      *Fade
}

// NewTextLayer parses fontData (nil selects Go Regular), registers the two
// text nodes with scene, and redraws on every resize.
func NewTextLayer(cfg *Config, scene *Scene, fontData []byte) (*TextLayer, error) {
	if fontData == nil {
		fontData = goregular.TTF
	}
	f, err := opentype.Parse(fontData)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	t := &TextLayer{
		cfg:   cfg,
		scene: scene,
		font:  f,
		fade:  NewFade(1, cfg.TextFadeSpeed),
	}
	t.bgNode = NewTextNode("text/background", nil, cfg.TextColor)
	t.shapeNode = NewTextNode("text/shape", nil, cfg.TextShapeColor)
	scene.Add(BucketTextBackground, t.bgNode)
	scene.Add(BucketTextShape, t.shapeNode)

	scene.OnResize(func(w, h int) {
		if err := t.Redraw(); err != nil {
			warnf("text: %v", err)
		}
	})
	if err := t.Redraw(); err != nil {
		return nil, err
	}
	return t, nil
}

// Redraw re-rasterises every line at the scene's current size.
func (t *TextLayer) Redraw() error {
	w, h := t.scene.Size()
	if t.coverage == nil || t.coverage.Rect.Dx() != w || t.coverage.Rect.Dy() != h {
		t.coverage = image.NewAlpha(image.Rect(0, 0, w, h))
	} else {
		clear(t.coverage.Pix)
	}

	for _, line := range t.cfg.Text {
		if line.Content == "" || line.Size <= 0 {
			continue
		}
		if err := t.drawLine(line, w, h); err != nil {
			return err
		}
	}

	t.bgNode.Coverage = t.coverage
	t.shapeNode.Coverage = t.coverage
	return nil
}

func (t *TextLayer) drawLine(line TextLine, w, h int) error {
	px := line.Size * float64(h)
	face, err := opentype.NewFace(t.font, &opentype.FaceOptions{
		Size:    px,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return fmt.Errorf("text face %.1fpx: %w", px, err)
	}
	defer face.Close()

	// Y is the top of the line box; the drawer wants the baseline.
	ascent := face.Metrics().Ascent
	d := font.Drawer{
		Dst:  t.coverage,
		Src:  image.Opaque,
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(math.Round(line.X * float64(w) * 64)),
			Y: fixed.Int26_6(math.Round(line.Y*float64(h)*64)) + ascent,
		},
	}
	d.DrawString(line.Content)
	return nil
}

// Show fades the text in.
func (t *TextLayer) Show() { t.fade.To(1) }

// Hide fades the text out.
func (t *TextLayer) Hide() { t.fade.To(0) }

// Update advances the fade and copies the opacity to both nodes.
func (t *TextLayer) Update(dt float64) {
	t.fade.Update(dt)
	a := t.fade.Value()
	t.bgNode.Alpha = a
	t.shapeNode.Alpha = a
}

// Opacity returns the current text opacity.
func (t *TextLayer) Opacity() float64 { return t.fade.Value() }

// Coverage returns the rasterised glyph coverage in device pixels.
func (t *TextLayer) Coverage() *image.Alpha { return t.coverage }

// Close unregisters the text nodes.
func (t *TextLayer) Close() {
	t.scene.Remove(BucketTextBackground, t.bgNode)
	t.scene.Remove(BucketTextShape, t.shapeNode)
	t.bgNode.Dispose()
	t.shapeNode.Dispose()
}
