package drift

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drift.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestDefaultConfigForWidth(t *testing.T) {
	tests := []struct {
		width     int
		peak      int
		sizeScale float64
	}{
		{1280, 18, 0.8},
		{601, 18, 0.8},
		{600, 20, 0.29},
		{375, 20, 0.29},
		{0, 18, 0.8},
	}
	for _, tt := range tests {
		cfg := DefaultConfigForWidth(tt.width)
		if cfg.PeakCount != tt.peak || cfg.SizeScale != tt.sizeScale {
			t.Errorf("width %d: peak=%d scale=%v, want %d %v",
				tt.width, cfg.PeakCount, cfg.SizeScale, tt.peak, tt.sizeScale)
		}
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	captureLog(t)
	path := writeConfig(t, `{
		"peak_count": 30,
		"background": "#102030",
		"velocity": {"min": 0.01, "max": 0.02},
		"text": [{"content": "Hi", "x": 0.1, "y": 0.2, "size": 0.1}],
		"media": ["a.png", {"type": "vimeo", "id": 42}]
	}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PeakCount != 30 {
		t.Errorf("peak_count = %d, want 30", cfg.PeakCount)
	}
	if cfg.Velocity != (Range{0.01, 0.02}) {
		t.Errorf("velocity = %+v", cfg.Velocity)
	}
	if cfg.Background.toRGBA() != ColorFromHex(0x102030).toRGBA() {
		t.Errorf("background = %+v", cfg.Background)
	}
	if len(cfg.Text) != 1 || cfg.Text[0].Content != "Hi" {
		t.Errorf("text = %+v", cfg.Text)
	}
	if len(cfg.Media) != 2 || cfg.Media[1] != VimeoItem("42") {
		t.Errorf("media = %+v", cfg.Media)
	}
	// Untouched keys keep their defaults.
	if cfg.ExitX != DefaultConfig().ExitX {
		t.Errorf("exit_x = %v, want default", cfg.ExitX)
	}
}

func TestLoadConfigWarnsUnknownKeys(t *testing.T) {
	buf := captureLog(t)
	path := writeConfig(t, `{"peak_count": 10, "zzz": 1, "aaa": true}`)
	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	out := buf.String()
	ia := strings.Index(out, `unrecognised key "aaa"`)
	iz := strings.Index(out, `unrecognised key "zzz"`)
	if ia < 0 || iz < 0 {
		t.Fatalf("missing warnings: %q", out)
	}
	if ia > iz {
		t.Error("warnings should be sorted by key")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	captureLog(t)
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"peak_count": `},
		{"bad color", `{"background": "not-a-color"}`},
		{"invalid value", `{"peak_count": 0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestSanitizeClamps(t *testing.T) {
	buf := captureLog(t)
	cfg := DefaultConfig()
	cfg.Segments = Range{200, 2}
	cfg.Friction = 1.5
	cfg.RenderScale = 0
	cfg.GrowthEase = -1
	cfg.SeedCount = -2
	cfg.Sanitize()

	if cfg.Segments != (Range{minSegments, 200}) {
		t.Errorf("segments = %+v, want swapped and clamped", cfg.Segments)
	}
	if cfg.Friction != 1 {
		t.Errorf("friction = %v, want 1", cfg.Friction)
	}
	if cfg.RenderScale != 0.05 {
		t.Errorf("render_scale = %v, want 0.05", cfg.RenderScale)
	}
	if cfg.GrowthEase != 1 || cfg.SeedCount != 0 {
		t.Errorf("growth_ease = %v seed_count = %d", cfg.GrowthEase, cfg.SeedCount)
	}
	if !strings.Contains(buf.String(), "friction 1.5 clamped to 1") {
		t.Errorf("clamp not logged: %q", buf.String())
	}
}

func TestSanitizeLeavesDefaultsAlone(t *testing.T) {
	buf := captureLog(t)
	cfg := DefaultConfig()
	cfg.Sanitize()
	if buf.Len() != 0 {
		t.Errorf("defaults were adjusted: %q", buf.String())
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PeakCount = 0
	cfg.ExitX = 0.5
	cfg.Velocity = Range{0.02, 0.01}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"peak_count", "exit_x", "velocity"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestColorJSON(t *testing.T) {
	c := ColorFromHex(0x161616)
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"#161616"` {
		t.Errorf("Marshal = %s, want \"#161616\"", data)
	}

	var back Color
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.toRGBA() != c.toRGBA() {
		t.Errorf("roundtrip = %+v, want %+v", back, c)
	}

	var obj Color
	if err := json.Unmarshal([]byte(`{"r": 1, "g": 0.5, "b": 0, "a": 0.25}`), &obj); err != nil {
		t.Fatal(err)
	}
	if obj != (Color{1, 0.5, 0, 0.25}) {
		t.Errorf("object color = %+v", obj)
	}

	var opaque Color
	if err := json.Unmarshal([]byte(`{"r": 0, "g": 0, "b": 1}`), &opaque); err != nil {
		t.Fatal(err)
	}
	if opaque.A != 1 {
		t.Errorf("alpha = %v, want default 1", opaque.A)
	}
}

func TestKnownKeys(t *testing.T) {
	keys := knownKeys(&Config{})
	for _, k := range []string{"peak_count", "background", "text", "media", "toggle_delay"} {
		if !keys[k] {
			t.Errorf("missing key %q", k)
		}
	}
}
