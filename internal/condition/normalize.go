package condition

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/metcalfc/flowread/internal/token"
)

// ErrMalformedConfig matches every configuration rejected by Normalize.
var ErrMalformedConfig = errors.New("malformed config")

// MalformedConfigError carries the human-readable reason an import was rejected.
type MalformedConfigError struct {
	Reason string
}

func (e *MalformedConfigError) Error() string {
	return "malformed config: " + e.Reason
}

func (e *MalformedConfigError) Is(target error) bool {
	return target == ErrMalformedConfig
}

func malformed(format string, args ...any) error {
	return &MalformedConfigError{Reason: fmt.Sprintf(format, args...)}
}

var requiredSections = []string{"tokenization", "motion", "typography"}

// Normalize validates a decoded configuration document and upgrades it to a Spec.
// Missing or unusable leaves take their defaults; only a non-object candidate
// or a missing required section is an error.
func Normalize(candidate any) (Spec, error) {
	root, ok := object(candidate)
	if !ok {
		return Spec{}, malformed("configuration must be an object")
	}
	for _, name := range requiredSections {
		if _, ok := object(root[name]); !ok {
			return Spec{}, malformed("missing %q object", name)
		}
	}

	spec := Default()
	tok, _ := object(root["tokenization"])
	typo, _ := object(root["typography"])
	motion, _ := object(root["motion"])

	spec.Tokenization = normalizeTokenization(tok, spec.Tokenization)
	spec.Typography = normalizeTypography(typo, spec.Typography)
	spec.Motion = normalizeMotion(motion, spec.Motion)
	spec.Mode = normalizeMode(root["mode"])
	if win, ok := object(root["window"]); ok {
		spec.Window = normalizeWindow(win, spec.Window)
	}
	return spec, nil
}

func normalizeTokenization(m map[string]any, d Tokenization) Tokenization {
	out := d
	if u, ok := token.ParseUnit(text(m["unit"], "")); ok {
		out.Unit = u
	}
	out.ChunkSize = max(integer(m["chunkSize"], d.ChunkSize), 1)
	return out
}

// Letter spacing is raised until a glyph is at least MinCharPx wide.
func normalizeTypography(m map[string]any, d Typography) Typography {
	size := positive(m["fontSizePx"], d.FontSizePx)
	return Typography{
		FontFamily:      text(m["fontFamily"], d.FontFamily),
		FontSizePx:      size,
		LetterSpacingPx: max(number(m["letterSpacingPx"], d.LetterSpacingPx), MinCharPx-size*charWidthFactor),
		LineHeight:      positive(m["lineHeight"], d.LineHeight),
	}
}

func normalizeMotion(m map[string]any, d Motion) Motion {
	out := d
	out.Autoplay = boolean(m["autoplay"], d.Autoplay)
	if speed, ok := object(m["speed"]); ok {
		out.Speed = normalizeSpeed(speed, d.Speed)
	}
	switch Direction(strings.ToLower(text(m["direction"], ""))) {
	case Horizontal:
		out.Direction = Horizontal
	case Vertical:
		out.Direction = Vertical
	}
	switch Progression(strings.ToLower(text(m["progression"], ""))) {
	case Step:
		out.Progression = Step
	case Continuous:
		out.Progression = Continuous
	}
	if pause, ok := object(m["pauseAtPunctuation"]); ok {
		out.PauseAtPunctuation = PunctuationPause{
			Enabled: boolean(pause["enabled"], d.PauseAtPunctuation.Enabled),
			DelayMs: max(integer(pause["delayMs"], d.PauseAtPunctuation.DelayMs), 0),
		}
	}
	if rc, ok := object(m["rateControl"]); ok {
		out.RateControl = normalizeRateControl(rc, d.RateControl)
	}
	return out
}

func normalizeSpeed(m map[string]any, d Speed) Speed {
	value := positive(m["value"], d.Value)
	switch SpeedUnit(strings.ToLower(text(m["unit"], string(d.Unit)))) {
	case CharsPerSecond:
		return Speed{Unit: CharsPerSecond, Value: value}
	case PixelsPerSecond:
		return Speed{Unit: PixelsPerSecond, Value: value}
	case WordsPerMinute:
		return Speed{Unit: CharsPerSecond, Value: max(WPMToCPS(value), 1)}
	}
	return d
}

func normalizeRateControl(m map[string]any, d RateControl) RateControl {
	lo := max(number(m["minCps"], d.MinCps), 1)
	hi := max(number(m["maxCps"], d.MaxCps), 1)
	minCps := min(lo, hi)
	return RateControl{
		Enabled:      boolean(m["enabled"], d.Enabled),
		MinCps:       minCps,
		MaxCps:       max(minCps, hi),
		Invert:       boolean(m["invert"], d.Invert),
		ResetOnLeave: boolean(m["resetOnLeave"], d.ResetOnLeave),
	}
}

func normalizeMode(v any) Mode {
	switch strings.ToLower(text(v, "")) {
	case string(Paragraph), "continuous":
		return Paragraph
	}
	return RSVP
}

func normalizeWindow(m map[string]any, d Window) Window {
	return Window{
		Size:             integer(m["size"], d.Size),
		Step:             integer(m["step"], d.Step),
		ViewportWidthPx:  positive(m["viewportWidthPx"], d.ViewportWidthPx),
		ViewportHeightPx: positive(m["viewportHeightPx"], d.ViewportHeightPx),
	}.Clamped()
}

func object(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}

// number coerces JSON/TOML numbers and numeric strings, falling back to def
// for anything unparsable or non-finite.
func number(v any, def float64) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return def
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

func positive(v any, def float64) float64 {
	if f := number(v, def); f > 0 {
		return f
	}
	return def
}

func integer(v any, def int) int {
	f := number(v, math.NaN())
	if math.IsNaN(f) || math.Abs(f) > math.MaxInt32 {
		return def
	}
	return int(math.Round(f))
}

func boolean(v any, def bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed
		}
	}
	return def
}

func text(v any, def string) string {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return def
}
