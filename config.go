package drift

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Config holds every tunable of the effect. Build one at startup with
// DefaultConfig (or LoadConfig) and pass it to NewScene, NewSystem,
// NewTextLayer, and NewApp. Components keep the pointer and read it; nothing
// reads configuration from package state.
type Config struct {
	// PeakCount is the population the spawner fills up to.
	PeakCount int `json:"peak_count"`

	// SpawnXOffset is the normalised X where new particles appear.
	SpawnXOffset float64 `json:"spawn_x_offset"`
	// SpawnXSpread is the half-width of the random X jitter at construction.
	SpawnXSpread float64 `json:"spawn_x_spread"`

	// SizeScale multiplies every size range below.
	SizeScale float64 `json:"size_scale"`
	StartSize Range   `json:"start_size"`
	MaxSize   Range   `json:"max_size"`
	// SmallProbability is the chance a particle uses SmallMaxSize as its
	// growth ceiling instead of MaxSize.
	SmallProbability float64 `json:"small_probability"`
	SmallMaxSize     Range   `json:"small_max_size"`

	// FadeInDuration is the LIVE fade-in time in seconds.
	FadeInDuration float64 `json:"fade_in_duration"`
	// FadeOutStart is the normalised X where the exit fade begins. Opacity
	// reaches zero at ExitX so large shapes never pop off the edge.
	FadeOutStart float64 `json:"fade_out_start"`
	// ExitX is the normalised X past which a LIVE particle is destroyed.
	ExitX float64 `json:"exit_x"`

	// Velocity is the natural rightward speed range in viewport widths per second.
	Velocity Range `json:"velocity"`

	SpawnYCenter float64 `json:"spawn_y_center"`
	SpawnYSpread float64 `json:"spawn_y_spread"`
	// MaxYSpread is the half-range of the funnel target Y around SpawnYCenter.
	MaxYSpread float64 `json:"max_y_spread"`
	// YDriftSpeed scales how strongly particles drift toward their target Y.
	YDriftSpeed float64 `json:"y_drift_speed"`

	WhiteProbability float64 `json:"white_probability"`
	ColorWhite       Color   `json:"color_white"`
	ColorDark        Color   `json:"color_dark"`
	Background       Color   `json:"background"`

	SquircleExponent Range `json:"squircle_exponent"`
	// VertexNoise is the amplitude range of Perlin rim noise (0 disables it).
	VertexNoise Range `json:"vertex_noise"`
	Segments    Range `json:"segments"`
	ShapeAspect Range `json:"shape_aspect"`

	// GrowthEase is the exponent of the size-vs-X growth curve.
	GrowthEase float64 `json:"growth_ease"`

	InteractionRadius float64 `json:"interaction_radius"`
	ImpulseStrength   float64 `json:"impulse_strength"`
	VelocityScale     float64 `json:"velocity_scale"`
	// FlowRestore is how quickly natural flow reasserts, per second.
	FlowRestore float64 `json:"flow_restore"`
	// Friction multiplies excess velocity every frame.
	Friction float64 `json:"friction"`

	PropRadius   float64 `json:"prop_radius"`
	PropStrength float64 `json:"prop_strength"`
	PropDecay    float64 `json:"prop_decay"`
	// PropThreshold is the excess speed below which a particle does not
	// disturb its neighbours.
	PropThreshold float64 `json:"prop_threshold"`

	WakeDelay    Range `json:"wake_delay"`
	WakeDuration Range `json:"wake_duration"`
	PoofSpeed    Range `json:"poof_speed"`
	PoofDuration Range `json:"poof_duration"`

	// SeedCount sleeping particles are placed between SpawnXOffset and
	// SeedSpanEnd by System.Init.
	SeedCount   int     `json:"seed_count"`
	SeedSpanEnd float64 `json:"seed_span_end"`
	// FirstWakeSpawnFactor shortens the spawn interval on the first wake.
	FirstWakeSpawnFactor float64 `json:"first_wake_spawn_factor"`
	// SpawnJitter multiplies each recomputed spawn interval.
	SpawnJitter Range `json:"spawn_jitter"`
	// CrossingDistance is the travel distance used to estimate lifetime.
	CrossingDistance float64 `json:"crossing_distance"`

	// PixelRatioCap caps the device scale factor of the backing buffer.
	PixelRatioCap float64 `json:"pixel_ratio_cap"`
	// RenderScale further scales the backing buffer (software rendering cost).
	RenderScale float64 `json:"render_scale"`
	// MaxDelta caps the frame delta time in seconds.
	MaxDelta float64 `json:"max_delta"`

	TextColor      Color      `json:"text_color"`
	TextShapeColor Color      `json:"text_shape_color"`
	TextFadeSpeed  float64    `json:"text_fade_speed"`
	Text           []TextLine `json:"text"`
	// FontPath selects a TrueType or OpenType font; empty uses Go Regular.
	FontPath string `json:"font_path"`

	// ToggleDelay is how long Toggle waits before waking particles again.
	ToggleDelay float64 `json:"toggle_delay"`

	Media      []MediaItem `json:"media"`
	MediaDir   string      `json:"media_dir"`
	WatchMedia bool        `json:"watch_media"`
}

// smallScreenWidth is the layout width at or below which the small-screen
// tuning applies.
const smallScreenWidth = 600

// DefaultConfig returns the desktop tuning.
func DefaultConfig() *Config {
	return &Config{
		PeakCount: 18,

		SpawnXOffset: 0.33,
		SpawnXSpread: 0.08,

		SizeScale:        0.8,
		StartSize:        Range{0.02, 0.05},
		MaxSize:          Range{0.20, 0.42},
		SmallProbability: 0.34,
		SmallMaxSize:     Range{0.05, 0.10},

		FadeInDuration: 0.9,
		FadeOutStart:   0.92,
		ExitX:          1.18,

		Velocity: Range{0.019, 0.040},

		SpawnYCenter: 0.50,
		SpawnYSpread: 0.08,
		MaxYSpread:   0.44,
		YDriftSpeed:  0.18,

		WhiteProbability: 0.75,
		ColorWhite:       ColorFromHex(0xffffff),
		ColorDark:        ColorFromHex(0x050505),
		Background:       ColorFromHex(0x161616),

		SquircleExponent: Range{2.5, 4.5},
		VertexNoise:      Range{0, 0},
		Segments:         Range{80, 120},
		ShapeAspect:      Range{0.82, 1.22},

		GrowthEase: 2.2,

		InteractionRadius: 0.18,
		ImpulseStrength:   0.18,
		VelocityScale:     0.5,
		FlowRestore:       0.6,
		Friction:          0.92,

		PropRadius:    0.22,
		PropStrength:  0.08,
		PropDecay:     0.55,
		PropThreshold: 0.0005,

		WakeDelay:    Range{0.0, 0.15},
		WakeDuration: Range{0.4, 0.8},
		PoofSpeed:    Range{0.08, 0.28},
		PoofDuration: Range{0.35, 0.95},

		SeedCount:            3,
		SeedSpanEnd:          0.82,
		FirstWakeSpawnFactor: 0.35,
		SpawnJitter:          Range{0.7, 1.4},
		CrossingDistance:     1.15,

		PixelRatioCap: 2,
		RenderScale:   0.5,
		MaxDelta:      0.05,

		TextColor:      ColorWhite,
		TextShapeColor: ColorBlack,
		TextFadeSpeed:  3.5,
		Text: []TextLine{
			{Content: "Create", X: 0.08, Y: 0.30, Size: 0.16},
			{Content: "experiences", X: 0.08, Y: 0.48, Size: 0.16},
		},

		ToggleDelay: 0.34,
	}
}

// DefaultConfigForWidth returns the tuning for a layout of the given width:
// small screens get a slightly larger population of much smaller shapes.
func DefaultConfigForWidth(width int) *Config {
	cfg := DefaultConfig()
	if width > 0 && width <= smallScreenWidth {
		cfg.PeakCount = 20
		cfg.SizeScale = 0.29
	}
	return cfg
}

// LoadConfig reads a JSON config file on top of DefaultConfig. Unknown keys
// are reported as warnings; out-of-range values are clamped by Sanitize and
// anything unrecoverable is returned by Validate.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// decode overlays JSON data onto cfg and warns about unrecognised keys.
func (cfg *Config) decode(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	known := knownKeys(Config{})
	var unknown []string
	for key := range raw {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		warnf("config: unrecognised key %q", key)
	}
	return json.Unmarshal(data, cfg)
}

// knownKeys collects the json tag names of v's fields.
func knownKeys(v any) map[string]bool {
	keys := make(map[string]bool)
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name != "-" {
			keys[name] = true
		}
	}
	return keys
}

// Sanitize clamps values that would otherwise produce invalid geometry or
// runaway physics. Each adjustment is logged.
func (cfg *Config) Sanitize() {
	clampRange("segments", &cfg.Segments, minSegments, maxSegments)
	clampRange("squircle_exponent", &cfg.SquircleExponent, minExponent, maxExponent)
	clampRange("shape_aspect", &cfg.ShapeAspect, minAspect, maxAspect)
	clampRange("vertex_noise", &cfg.VertexNoise, 0, 0.5)
	clampRange("spawn_jitter", &cfg.SpawnJitter, 0.1, 10)
	clampValue("small_probability", &cfg.SmallProbability, 0, 1)
	clampValue("white_probability", &cfg.WhiteProbability, 0, 1)
	clampValue("friction", &cfg.Friction, 0, 1)
	clampValue("prop_decay", &cfg.PropDecay, 0, 1)
	clampValue("prop_strength", &cfg.PropStrength, 0, 1)
	clampValue("first_wake_spawn_factor", &cfg.FirstWakeSpawnFactor, 0.01, 1)
	clampValue("pixel_ratio_cap", &cfg.PixelRatioCap, 0.25, 4)
	clampValue("render_scale", &cfg.RenderScale, 0.05, 1)
	clampValue("max_delta", &cfg.MaxDelta, 0.001, 0.25)
	if cfg.GrowthEase <= 0 {
		warnf("config: growth_ease %.3f must be positive, using 1", cfg.GrowthEase)
		cfg.GrowthEase = 1
	}
	if cfg.SeedCount < 0 {
		cfg.SeedCount = 0
	}
}

// Validate reports configuration problems that cannot be clamped away.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.PeakCount < 1 {
		errs = append(errs, fmt.Errorf("peak_count %d must be at least 1", cfg.PeakCount))
	}
	if cfg.Velocity.Min <= 0 || cfg.Velocity.Max < cfg.Velocity.Min {
		errs = append(errs, fmt.Errorf("velocity range [%g, %g] must be positive and ordered", cfg.Velocity.Min, cfg.Velocity.Max))
	}
	if cfg.ExitX <= cfg.FadeOutStart {
		errs = append(errs, fmt.Errorf("exit_x %g must exceed fade_out_start %g", cfg.ExitX, cfg.FadeOutStart))
	}
	if cfg.FadeInDuration <= 0 {
		errs = append(errs, errors.New("fade_in_duration must be positive"))
	}
	if cfg.WakeDuration.Min <= 0 || cfg.WakeDuration.Max < cfg.WakeDuration.Min {
		errs = append(errs, errors.New("wake_duration must be a positive ordered range"))
	}
	if cfg.PoofDuration.Min <= 0 || cfg.PoofDuration.Max < cfg.PoofDuration.Min {
		errs = append(errs, errors.New("poof_duration must be a positive ordered range"))
	}
	if cfg.InteractionRadius <= 0 {
		errs = append(errs, errors.New("interaction_radius must be positive"))
	}
	if cfg.PropRadius <= 0 {
		errs = append(errs, errors.New("prop_radius must be positive"))
	}
	if cfg.CrossingDistance <= 0 {
		errs = append(errs, errors.New("crossing_distance must be positive"))
	}
	return errors.Join(errs...)
}

func clampRange(name string, r *Range, lo, hi float64) {
	orig := *r
	if r.Max < r.Min {
		r.Min, r.Max = r.Max, r.Min
	}
	r.Min = clamp(r.Min, lo, hi)
	r.Max = clamp(r.Max, lo, hi)
	if *r != orig {
		warnf("config: %s [%g, %g] clamped to [%g, %g]", name, orig.Min, orig.Max, r.Min, r.Max)
	}
}

func clampValue(name string, v *float64, lo, hi float64) {
	orig := *v
	*v = clamp(*v, lo, hi)
	if *v != orig {
		warnf("config: %s %g clamped to %g", name, orig, *v)
	}
}

// MarshalJSON writes the color as a "#rrggbb" hex string.
func (c Color) MarshalJSON() ([]byte, error) {
	cc := colorful.Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B)}
	return json.Marshal(cc.Hex())
}

// UnmarshalJSON accepts a "#rrggbb" hex string or an {"r","g","b","a"} object.
func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		cc, err := colorful.Hex(s)
		if err != nil {
			return fmt.Errorf("color %q: %w", s, err)
		}
		*c = Color{R: cc.R, G: cc.G, B: cc.B, A: 1}
		return nil
	}
	var obj struct {
		R, G, B float64
		A       *float64
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("color: %w", err)
	}
	*c = Color{R: obj.R, G: obj.G, B: obj.B, A: 1}
	if obj.A != nil {
		c.A = *obj.A
	}
	return nil
}
