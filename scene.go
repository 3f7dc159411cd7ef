package drift

import "image"

// Bucket identifies one of the five render lists. Each is drawn by exactly
// one stencil pass, in declaration order.
type Bucket uint8

const (
	BucketStencil        Bucket = iota // shape counts, color writes off
	BucketSolid                        // flat fill where one shape covers
	BucketImage                        // textures where shapes overlap
	BucketTextBackground               // text over empty background
	BucketTextShape                    // text over any shape
	bucketCount
)

var bucketNames = [bucketCount]string{"stencil", "solid", "image", "text-background", "text-shape"}

func (b Bucket) String() string {
	if b < bucketCount {
		return bucketNames[b]
	}
	return "unknown"
}

const defaultCommandCap = 64

// Scene owns the render buckets, the camera, the framebuffer, and the
// per-frame scratch buffers.
type Scene struct {
	config *Config
	debug  bool

	// ClearColor fills the color buffer before the first pass.
	ClearColor Color
	// ScreenshotDir is where queued screenshots are written.
	ScreenshotDir string

	camera  *Camera
	fb      *Framebuffer
	buckets [bucketCount][]*Node
	nextSeq int

	// Render state
	commands  []drawCommand
	sortBuf   []drawCommand
	devicePts []Vec2

	onResize        []func(w, h int)
	screenshotQueue []string
	stats           debugStats
}

// NewScene creates a scene with a 1x1 framebuffer. Call Resize before the
// first Render.
func NewScene(cfg *Config) *Scene {
	s := &Scene{
		config:        cfg,
		ClearColor:    cfg.Background,
		ScreenshotDir: "screenshots",
		camera:        newCamera(Rect{Width: 1, Height: 1}),
		fb:            NewFramebuffer(1, 1),
		commands:      make([]drawCommand, 0, defaultCommandCap),
		sortBuf:       make([]drawCommand, 0, defaultCommandCap),
	}
	return s
}

// Add registers n in bucket b. Adding a node already in b is a no-op.
func (s *Scene) Add(b Bucket, n *Node) {
	if b >= bucketCount || n == nil {
		return
	}
	for _, existing := range s.buckets[b] {
		if existing == n {
			return
		}
	}
	s.nextSeq++
	n.seq = s.nextSeq
	s.buckets[b] = append(s.buckets[b], n)
}

// Remove unregisters n from bucket b and reports whether it was present.
func (s *Scene) Remove(b Bucket, n *Node) bool {
	if b >= bucketCount {
		return false
	}
	list := s.buckets[b]
	for i, c := range list {
		if c == n {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			s.buckets[b] = list[:len(list)-1]
			return true
		}
	}
	return false
}

// Nodes returns the nodes in bucket b. The returned slice MUST NOT be mutated.
func (s *Scene) Nodes(b Bucket) []*Node {
	if b >= bucketCount {
		return nil
	}
	return s.buckets[b]
}

// Len returns the number of nodes in bucket b.
func (s *Scene) Len(b Bucket) int {
	return len(s.Nodes(b))
}

// Resize sets the backing-buffer size in device pixels. Resize callbacks run
// when the size changes. Returns true if it changed.
func (s *Scene) Resize(w, h int) bool {
	w, h = max(w, 1), max(h, 1)
	if s.fb.w == w && s.fb.h == h {
		return false
	}
	s.fb.Resize(w, h)
	s.camera.SetViewport(Rect{Width: float64(w), Height: float64(h)})
	for _, fn := range s.onResize {
		fn(w, h)
	}
	return true
}

// OnResize registers fn to run after every size change.
func (s *Scene) OnResize(fn func(w, h int)) {
	s.onResize = append(s.onResize, fn)
}

// Size returns the backing-buffer size in device pixels.
func (s *Scene) Size() (w, h int) {
	return s.fb.w, s.fb.h
}

// Aspect returns the viewport width over height.
func (s *Scene) Aspect() float64 {
	return s.camera.Aspect()
}

// Camera returns the scene's camera.
func (s *Scene) Camera() *Camera {
	return s.camera
}

// Framebuffer returns the render target.
func (s *Scene) Framebuffer() *Framebuffer {
	return s.fb
}

// Frame returns the most recently rendered color buffer. The image is reused
// by the next Render.
func (s *Scene) Frame() *image.RGBA {
	return s.fb.Image()
}

// SetDebugMode enables or disables debug mode. When enabled, per-frame
// timing and draw stats are logged.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
}
