package condition

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/metcalfc/flowread/internal/token"
)

func required() map[string]any {
	return map[string]any{
		"tokenization": map[string]any{},
		"typography":   map[string]any{},
		"motion":       map[string]any{},
	}
}

func TestNormalizeMalformed(t *testing.T) {
	tests := []struct {
		name      string
		candidate any
	}{
		{"nil", nil},
		{"string", "hello"},
		{"array", []any{1, 2}},
		{"missing motion", map[string]any{"tokenization": map[string]any{}, "typography": map[string]any{}}},
		{"missing tokenization", map[string]any{"motion": map[string]any{}, "typography": map[string]any{}}},
		{"typography not object", map[string]any{"tokenization": map[string]any{}, "motion": map[string]any{}, "typography": 3.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.candidate)
			if !errors.Is(err, ErrMalformedConfig) {
				t.Fatalf("Normalize() error = %v, want ErrMalformedConfig", err)
			}
			var mce *MalformedConfigError
			if !errors.As(err, &mce) || mce.Reason == "" {
				t.Errorf("expected a reason, got %v", err)
			}
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	spec, err := Normalize(required())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if spec != Default() {
		t.Errorf("Normalize(empty sections) = %+v, want defaults %+v", spec, Default())
	}
}

func TestNormalizeLegacyWPM(t *testing.T) {
	doc := required()
	doc["motion"] = map[string]any{"speed": map[string]any{"unit": "wpm", "value": 120.0}}

	spec, err := Normalize(doc)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if spec.Motion.Speed != (Speed{Unit: CharsPerSecond, Value: 10}) {
		t.Errorf("speed = %+v, want 10 cps", spec.Motion.Speed)
	}
}

func TestNormalizeRateControl(t *testing.T) {
	tests := []struct {
		name     string
		min, max any
		wantMin  float64
		wantMax  float64
	}{
		{"swapped", 50.0, 10.0, 10, 50},
		{"ordered", 10.0, 50.0, 10, 50},
		{"below one", -5.0, 0.0, 1, 1},
		{"strings", "7", "9", 7, 9},
		{"garbage min", "fast", 30.0, 5, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := required()
			doc["motion"] = map[string]any{"rateControl": map[string]any{"minCps": tt.min, "maxCps": tt.max}}
			spec, err := Normalize(doc)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			rc := spec.Motion.RateControl
			if rc.MinCps != tt.wantMin || rc.MaxCps != tt.wantMax {
				t.Errorf("min/max = %v/%v, want %v/%v", rc.MinCps, rc.MaxCps, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestNormalizeCoercion(t *testing.T) {
	doc := map[string]any{
		"tokenization": map[string]any{"unit": "CHAR", "chunkSize": "3"},
		"typography":   map[string]any{"fontSizePx": math.Inf(1), "letterSpacingPx": "1.5", "lineHeight": -2.0},
		"motion": map[string]any{
			"autoplay":           "true",
			"speed":              map[string]any{"unit": "pxps", "value": 0.0},
			"direction":          "vertical",
			"progression":        "continuous",
			"pauseAtPunctuation": map[string]any{"enabled": false, "delayMs": -40.0},
		},
		"mode":   "continuous",
		"window": map[string]any{"size": 3.0, "step": 9.0, "viewportWidthPx": "nope"},
	}
	spec, err := Normalize(doc)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	d := Default()

	if spec.Tokenization != (Tokenization{Unit: token.Char, ChunkSize: 3}) {
		t.Errorf("tokenization = %+v", spec.Tokenization)
	}
	if spec.Typography.FontSizePx != d.Typography.FontSizePx {
		t.Errorf("non-finite font size should default, got %v", spec.Typography.FontSizePx)
	}
	if spec.Typography.LetterSpacingPx != 1.5 {
		t.Errorf("letter spacing = %v, want 1.5", spec.Typography.LetterSpacingPx)
	}
	if spec.Typography.LineHeight != d.Typography.LineHeight {
		t.Errorf("negative line height should default, got %v", spec.Typography.LineHeight)
	}
	if !spec.Motion.Autoplay {
		t.Error("autoplay should parse from string")
	}
	if spec.Motion.Speed != (Speed{Unit: PixelsPerSecond, Value: d.Motion.Speed.Value}) {
		t.Errorf("speed = %+v", spec.Motion.Speed)
	}
	if spec.Motion.Direction != Vertical || spec.Motion.Progression != Continuous {
		t.Errorf("direction/progression = %v/%v", spec.Motion.Direction, spec.Motion.Progression)
	}
	if spec.Motion.PauseAtPunctuation != (PunctuationPause{Enabled: false, DelayMs: 0}) {
		t.Errorf("pause = %+v", spec.Motion.PauseAtPunctuation)
	}
	if spec.Mode != Paragraph {
		t.Errorf("mode = %v, want paragraph", spec.Mode)
	}
	if spec.Window.Size != 3 || spec.Window.Step != 3 || spec.Window.ViewportWidthPx != d.Window.ViewportWidthPx {
		t.Errorf("window = %+v", spec.Window)
	}
}

func TestNormalizeUnknownMode(t *testing.T) {
	doc := required()
	doc["mode"] = "kaleidoscope"
	spec, err := Normalize(doc)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if spec.Mode != RSVP {
		t.Errorf("mode = %v, want rsvp", spec.Mode)
	}
}

func TestImport(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		if _, err := Import([]byte("{")); !errors.Is(err, ErrMalformedConfig) {
			t.Errorf("Import error = %v, want ErrMalformedConfig", err)
		}
	})

	t.Run("wpm", func(t *testing.T) {
		spec, err := Import([]byte(`{"tokenization":{},"typography":{},"motion":{"speed":{"unit":"wpm","value":120}}}`))
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if spec.Motion.Speed.Unit != CharsPerSecond || spec.Motion.Speed.Value != 10 {
			t.Errorf("speed = %+v, want 10 cps", spec.Motion.Speed)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		want := Default()
		want.Tokenization = Tokenization{Unit: token.Sentence, ChunkSize: 2}
		want.Motion.RateControl.Enabled = true
		want.Motion.Speed = Speed{Unit: PixelsPerSecond, Value: 140.5}
		want.Mode = Paragraph
		want.Window = Window{Size: 3, Step: 2, ViewportWidthPx: 1024, ViewportHeightPx: 300}

		data, err := Export(want)
		if err != nil {
			t.Fatalf("Export: %v", err)
		}
		got, err := Import(data)
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if got != want {
			t.Errorf("round trip = %+v, want %+v", got, want)
		}
	})
}

func TestFileRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	want := Default()
	want.Motion.Direction = Vertical
	want.Motion.PauseAtPunctuation.DelayMs = 400

	for _, name := range []string{"spec.json", "spec.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(tmpDir, name)
			if err := SaveFile(path, want); err != nil {
				t.Fatalf("SaveFile: %v", err)
			}
			got, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if got != want {
				t.Errorf("LoadFile = %+v, want %+v", got, want)
			}
		})
	}

	if _, err := LoadFile(filepath.Join(tmpDir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCharsPerSecond(t *testing.T) {
	spec := Default()
	spec.Motion.Speed = Speed{Unit: PixelsPerSecond, Value: 176}
	spec.Typography.FontSizePx = 20
	spec.Typography.LetterSpacingPx = 0
	if got := spec.CharsPerSecond(); math.Abs(got-16) > 1e-9 {
		t.Errorf("CharsPerSecond() = %v, want 16", got)
	}

	spec.Motion.Speed = Speed{Unit: CharsPerSecond, Value: 12}
	if got := spec.CharsPerSecond(); got != 12 {
		t.Errorf("CharsPerSecond() = %v, want 12", got)
	}
}

func TestEffectiveStep(t *testing.T) {
	tests := []struct{ size, step, expected int }{
		{1, 1, 1}, {3, 2, 2}, {3, 5, 3}, {2, 0, 1}, {0, 4, 1},
	}
	for _, tt := range tests {
		spec := Default()
		spec.Window.Size, spec.Window.Step = tt.size, tt.step
		if got := spec.EffectiveStep(); got != tt.expected {
			t.Errorf("EffectiveStep(size=%d, step=%d) = %d, want %d", tt.size, tt.step, got, tt.expected)
		}
	}
}

func TestNormalizeBounds(t *testing.T) {
	tests := []struct {
		name       string
		window     map[string]any
		typography map[string]any
		wantWindow Window
	}{
		{
			name:       "huge window",
			window:     map[string]any{"size": 2147483647.0, "step": 100.0},
			typography: map[string]any{},
			wantWindow: Window{Size: MaxWindowSize, Step: MaxWindowSize},
		},
		{
			name:       "window at the bound",
			window:     map[string]any{"size": 64.0, "step": 8.0},
			typography: map[string]any{},
			wantWindow: Window{Size: 64, Step: 8},
		},
		{
			name:       "negative letter spacing",
			window:     map[string]any{},
			typography: map[string]any{"fontSizePx": 32.0, "letterSpacingPx": -20.0},
			wantWindow: Window{Size: 1, Step: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := required()
			doc["window"] = tt.window
			doc["typography"] = tt.typography
			spec, err := Normalize(doc)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if spec.Window.Size != tt.wantWindow.Size || spec.Window.Step != tt.wantWindow.Step {
				t.Errorf("window = %+v, want size %d step %d", spec.Window, tt.wantWindow.Size, tt.wantWindow.Step)
			}
			if px := spec.Typography.ApproxCharPx(); px < MinCharPx {
				t.Errorf("ApproxCharPx = %v, want at least %v", px, MinCharPx)
			}
		})
	}
}

func TestApproxCharPxFloor(t *testing.T) {
	tests := []struct {
		size, spacing float64
		want          float64
	}{
		{20, 0, 11},
		{20, 2, 13},
		{32, -20, MinCharPx},
		{10, -100, MinCharPx},
	}
	for _, tt := range tests {
		typo := Typography{FontSizePx: tt.size, LetterSpacingPx: tt.spacing}
		if got := typo.ApproxCharPx(); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ApproxCharPx(%v, %v) = %v, want %v", tt.size, tt.spacing, got, tt.want)
		}
	}
}

func TestWindowClamped(t *testing.T) {
	tests := []struct {
		in   Window
		want Window
	}{
		{Window{Size: 0, Step: 0}, Window{Size: 1, Step: 1}},
		{Window{Size: 3, Step: 9}, Window{Size: 3, Step: 3}},
		{Window{Size: 1 << 30, Step: 2}, Window{Size: MaxWindowSize, Step: 2}},
		{Window{Size: 5, Step: 2, ViewportWidthPx: 640}, Window{Size: 5, Step: 2, ViewportWidthPx: 640}},
	}
	for _, tt := range tests {
		if got := tt.in.Clamped(); got != tt.want {
			t.Errorf("%+v.Clamped() = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
