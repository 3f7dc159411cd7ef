package drift

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"math/rand/v2"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnsupportedMedia is returned for media kinds that cannot be turned
	// into a static texture (self-hosted video).
	ErrUnsupportedMedia = errors.New("unsupported media")
	// ErrNoThumbnail is returned when an oEmbed response has no thumbnail.
	ErrNoThumbnail = errors.New("no thumbnail_url in response")
)

// maxConcurrentLoads bounds parallel decodes and fetches in Textures.Load.
const maxConcurrentLoads = 4

// defaultOEmbedEndpoint is Vimeo's public oEmbed API.
const defaultOEmbedEndpoint = "https://vimeo.com/api/oembed.json"

// MediaKind selects how a MediaItem is loaded.
type MediaKind uint8

const (
	MediaImage MediaKind = iota // a local image file
	MediaVideo                  // a self-hosted video (not decodable here)
	MediaVimeo                  // a Vimeo video, loaded as its thumbnail
)

// MediaItem is one entry of the media list. In JSON an image is a plain
// path string; videos are {"type":"video","src":...} and Vimeo items
// {"type":"vimeo","id":...}.
type MediaItem struct {
	Kind MediaKind
	Src  string
	ID   string
}

// ImageItem returns an image MediaItem.
func ImageItem(path string) MediaItem { return MediaItem{Kind: MediaImage, Src: path} }

// VideoItem returns a self-hosted video MediaItem.
func VideoItem(src string) MediaItem { return MediaItem{Kind: MediaVideo, Src: src} }

// VimeoItem returns a Vimeo MediaItem. id may be a bare number or a URL.
func VimeoItem(id string) MediaItem { return MediaItem{Kind: MediaVimeo, ID: id} }

func (m MediaItem) String() string {
	switch m.Kind {
	case MediaVideo:
		return "video:" + m.Src
	case MediaVimeo:
		return "vimeo:" + m.ID
	default:
		return m.Src
	}
}

// MarshalJSON writes the compact form described on MediaItem.
func (m MediaItem) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case MediaVideo:
		return json.Marshal(struct {
			Type string `json:"type"`
			Src  string `json:"src"`
		}{"video", m.Src})
	case MediaVimeo:
		return json.Marshal(struct {
			Type string `json:"type"`
			ID   string `json:"id"`
		}{"vimeo", m.ID})
	default:
		return json.Marshal(m.Src)
	}
}

// UnmarshalJSON accepts a path string or a typed object.
func (m *MediaItem) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = ImageItem(s)
		return nil
	}
	var obj struct {
		Type string          `json:"type"`
		Src  string          `json:"src"`
		ID   json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("media item: %w", err)
	}
	switch obj.Type {
	case "video":
		*m = VideoItem(obj.Src)
	case "vimeo":
		// Vimeo IDs appear both as numbers and strings.
		id := strings.Trim(string(obj.ID), `"`)
		*m = VimeoItem(id)
	case "image":
		*m = ImageItem(obj.Src)
	default:
		return fmt.Errorf("media item: unknown type %q", obj.Type)
	}
	return nil
}

// Fit is the texture-coordinate repeat and offset applied on top of the
// geometry's UVs.
type Fit struct {
	RepeatX, RepeatY float64
	OffsetX, OffsetY float64
}

var identityFit = Fit{RepeatX: 1, RepeatY: 1}

// CoverFit crops an image of imageAspect to fill shapeAspect without
// distortion, the way CSS object-fit: cover does. The crop is centred.
func CoverFit(imageAspect, shapeAspect float64) Fit {
	if imageAspect <= 0 || shapeAspect <= 0 {
		return identityFit
	}
	f := identityFit
	if imageAspect > shapeAspect {
		f.RepeatX = shapeAspect / imageAspect
	} else {
		f.RepeatY = imageAspect / shapeAspect
	}
	f.OffsetX = (1 - f.RepeatX) / 2
	f.OffsetY = (1 - f.RepeatY) / 2
	return f
}

// Texture is a decoded image ready for sampling.
type Texture struct {
	Name  string
	Image *image.RGBA
	// Aspect is the image's width over height.
	Aspect float64
}

// NewTexture converts img to RGBA with its origin at (0, 0).
func NewTexture(name string, img image.Image) *Texture {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	aspect := 1.0
	if b.Dy() > 0 {
		aspect = float64(b.Dx()) / float64(b.Dy())
	}
	return &Texture{Name: name, Image: rgba, Aspect: aspect}
}

// Fit returns the cover fit of this texture into a shape of shapeAspect.
func (t *Texture) Fit(shapeAspect float64) Fit {
	return CoverFit(t.Aspect, shapeAspect)
}

// textureEvent is a change reported by a MediaWatcher.
type textureEvent struct {
	add    *Texture
	remove string
}

// Textures is the texture source for particles. Next hands out textures
// round-robin. Load and Poll run on the frame thread; the watcher only
// talks to it through a channel.
type Textures struct {
	// OEmbedEndpoint is the Vimeo oEmbed URL. Overridable for tests.
	OEmbedEndpoint string
	// Client performs oEmbed and thumbnail requests.
	Client *http.Client

	rng      *rand.Rand
	textures []*Texture
	cursor   int
	events   chan textureEvent
}

// NewTextures returns an empty source. rng drives the post-load shuffle.
func NewTextures(rng *rand.Rand) *Textures {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Textures{
		OEmbedEndpoint: defaultOEmbedEndpoint,
		Client:         &http.Client{Timeout: 15 * time.Second},
		rng:            rng,
		events:         make(chan textureEvent, 16),
	}
}

// Load decodes items from fsys concurrently, skipping (and logging) any that
// fail, shuffles the survivors, and appends them. It only returns an error
// if ctx is cancelled.
func (t *Textures) Load(ctx context.Context, fsys fs.FS, items []MediaItem) error {
	results := make([]*Texture, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tex, err := t.loadItem(gctx, fsys, item)
			if err != nil {
				warnf("media: %s: %v", item, err)
				return nil
			}
			results[i] = tex
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load media: %w", err)
	}

	valid := results[:0]
	for _, tex := range results {
		if tex != nil {
			valid = append(valid, tex)
		}
	}
	t.rng.Shuffle(len(valid), func(i, j int) { valid[i], valid[j] = valid[j], valid[i] })
	t.textures = append(t.textures, valid...)
	logf("media: %d/%d loaded", len(valid), len(items))
	return nil
}

func (t *Textures) loadItem(ctx context.Context, fsys fs.FS, item MediaItem) (*Texture, error) {
	switch item.Kind {
	case MediaImage:
		return loadImageFile(fsys, item.Src)
	case MediaVideo:
		return nil, fmt.Errorf("video %s: %w", item.Src, ErrUnsupportedMedia)
	case MediaVimeo:
		return t.fetchVimeoThumbnail(ctx, item.ID)
	default:
		return nil, fmt.Errorf("kind %d: %w", item.Kind, ErrUnsupportedMedia)
	}
}

// loadImageFile decodes name from fsys.
func loadImageFile(fsys fs.FS, name string) (*Texture, error) {
	if fsys == nil {
		return nil, fmt.Errorf("image %s: no media filesystem", name)
	}
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return decodeTexture(name, f)
}

// decodeTexture decodes any registered format (JPEG, PNG, GIF, BMP, WebP).
func decodeTexture(name string, r io.Reader) (*Texture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return NewTexture(name, img), nil
}

// vimeoIDPattern matches the trailing numeric path segment, ignoring any
// query or fragment.
var vimeoIDPattern = regexp.MustCompile(`(\d+)/?(?:[?#].*)?$`)

// vimeoID extracts the numeric ID from a bare ID or a Vimeo URL.
func vimeoID(s string) (string, bool) {
	m := vimeoIDPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// fetchVimeoThumbnail resolves the video's thumbnail through oEmbed and
// decodes it.
func (t *Textures) fetchVimeoThumbnail(ctx context.Context, raw string) (*Texture, error) {
	id, ok := vimeoID(raw)
	if !ok {
		return nil, fmt.Errorf("vimeo: could not parse id from %q", raw)
	}

	q := url.Values{}
	q.Set("url", "https://vimeo.com/"+id)
	q.Set("width", "1280")
	var meta struct {
		ThumbnailURL string `json:"thumbnail_url"`
	}
	body, err := t.get(ctx, t.OEmbedEndpoint+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("vimeo %s: %w", id, err)
	}
	err = json.NewDecoder(body).Decode(&meta)
	body.Close()
	if err != nil {
		return nil, fmt.Errorf("vimeo %s: decode oembed: %w", id, err)
	}
	if meta.ThumbnailURL == "" {
		return nil, fmt.Errorf("vimeo %s: %w", id, ErrNoThumbnail)
	}

	img, err := t.get(ctx, meta.ThumbnailURL)
	if err != nil {
		return nil, fmt.Errorf("vimeo %s: thumbnail: %w", id, err)
	}
	defer img.Close()
	return decodeTexture("vimeo-"+id, img)
}

func (t *Textures) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", rawURL, resp.Status)
	}
	return resp.Body, nil
}

// Add appends a texture.
func (t *Textures) Add(tex *Texture) {
	if tex != nil {
		t.textures = append(t.textures, tex)
	}
}

// Remove drops every texture named name and reports whether any matched.
// Particles already holding the texture keep drawing it.
func (t *Textures) Remove(name string) bool {
	kept := t.textures[:0]
	for _, tex := range t.textures {
		if tex.Name != name {
			kept = append(kept, tex)
		}
	}
	removed := len(kept) != len(t.textures)
	clear(t.textures[len(kept):])
	t.textures = kept
	return removed
}

// Next returns the next texture round-robin, or nil when empty.
func (t *Textures) Next() *Texture {
	if t == nil || len(t.textures) == 0 {
		return nil
	}
	tex := t.textures[t.cursor%len(t.textures)]
	t.cursor++
	return tex
}

// Len returns the number of loaded textures.
func (t *Textures) Len() int {
	return len(t.textures)
}

// Poll applies pending watcher changes. Call once per frame; returns the
// number of changes applied.
func (t *Textures) Poll() int {
	n := 0
	for {
		select {
		case ev := <-t.events:
			if ev.add != nil {
				t.Remove(ev.add.Name)
				t.Add(ev.add)
				logf("media: added %s", ev.add.Name)
			} else if t.Remove(ev.remove) {
				logf("media: removed %s", ev.remove)
			}
			n++
		default:
			return n
		}
	}
}

// imageExtensions lists the file extensions ScanMedia picks up.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".webp": true,
}

func isImageFile(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// ScanMedia lists the image files at the root of fsys, sorted by name.
func ScanMedia(fsys fs.FS) ([]MediaItem, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("scan media: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && isImageFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	items := make([]MediaItem, len(names))
	for i, name := range names {
		items[i] = ImageItem(name)
	}
	return items, nil
}
