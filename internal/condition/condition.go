// Package condition defines the reading configuration (a ConditionSpec) and the
// normalizer every externally supplied configuration passes through.
package condition

import (
	"math"

	"github.com/metcalfc/flowread/internal/token"
)

// SpeedUnit is the unit Speed.Value is expressed in.
type SpeedUnit string

const (
	CharsPerSecond  SpeedUnit = "cps"
	PixelsPerSecond SpeedUnit = "pxps"
	// WordsPerMinute is only accepted on import and converted to cps.
	WordsPerMinute SpeedUnit = "wpm"
)

// Direction is the scroll axis of continuous progression.
type Direction string

const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

// Progression selects the engine that drives playback.
type Progression string

const (
	Step       Progression = "step"
	Continuous Progression = "continuous"
)

// Mode is how the step engine's position is displayed.
type Mode string

const (
	// RSVP shows only the current window.
	RSVP Mode = "rsvp"
	// Paragraph shows the whole text with the current window highlighted.
	Paragraph Mode = "paragraph"
)

// Spec is the root reading configuration. It is a value: callers replace it
// whole rather than editing a shared copy.
type Spec struct {
	Tokenization Tokenization `json:"tokenization" toml:"tokenization"`
	Typography   Typography   `json:"typography" toml:"typography"`
	Motion       Motion       `json:"motion" toml:"motion"`
	Mode         Mode         `json:"mode" toml:"mode"`
	Window       Window       `json:"window" toml:"window"`
}

type Tokenization struct {
	Unit      token.Unit `json:"unit" toml:"unit"`
	ChunkSize int        `json:"chunkSize" toml:"chunkSize"`
}

// Typography is only used to estimate pixel rates; rendering belongs to the front end.
type Typography struct {
	FontFamily      string  `json:"fontFamily" toml:"fontFamily"`
	FontSizePx      float64 `json:"fontSizePx" toml:"fontSizePx"`
	LetterSpacingPx float64 `json:"letterSpacingPx" toml:"letterSpacingPx"`
	LineHeight      float64 `json:"lineHeight" toml:"lineHeight"`
}

type Speed struct {
	Unit  SpeedUnit `json:"unit" toml:"unit"`
	Value float64   `json:"value" toml:"value"`
}

type PunctuationPause struct {
	Enabled bool `json:"enabled" toml:"enabled"`
	DelayMs int  `json:"delayMs" toml:"delayMs"`
}

type RateControl struct {
	Enabled      bool    `json:"enabled" toml:"enabled"`
	MinCps       float64 `json:"minCps" toml:"minCps"`
	MaxCps       float64 `json:"maxCps" toml:"maxCps"`
	Invert       bool    `json:"invert" toml:"invert"`
	ResetOnLeave bool    `json:"resetOnLeave" toml:"resetOnLeave"`
}

type Motion struct {
	Autoplay           bool             `json:"autoplay" toml:"autoplay"`
	Speed              Speed            `json:"speed" toml:"speed"`
	Direction          Direction        `json:"direction" toml:"direction"`
	Progression        Progression      `json:"progression" toml:"progression"`
	PauseAtPunctuation PunctuationPause `json:"pauseAtPunctuation" toml:"pauseAtPunctuation"`
	RateControl        RateControl      `json:"rateControl" toml:"rateControl"`
}

// Window sizes what is shown per step and the viewport the scroll cycle covers.
type Window struct {
	Size             int     `json:"size" toml:"size"`
	Step             int     `json:"step" toml:"step"`
	ViewportWidthPx  float64 `json:"viewportWidthPx" toml:"viewportWidthPx"`
	ViewportHeightPx float64 `json:"viewportHeightPx" toml:"viewportHeightPx"`
}

// charWidthFactor approximates the average glyph advance as a fraction of the font size.
const charWidthFactor = 0.55

// MinCharPx is the floor of ApproxCharPx, whatever the letter spacing.
const MinCharPx = 1

// MaxWindowSize bounds how many tokens one window shows.
const MaxWindowSize = 64

// Default returns the configuration used when nothing else is supplied.
func Default() Spec {
	return Spec{
		Tokenization: Tokenization{Unit: token.Word, ChunkSize: 1},
		Typography: Typography{
			FontFamily:      "sans-serif",
			FontSizePx:      32,
			LetterSpacingPx: 0,
			LineHeight:      1.4,
		},
		Motion: Motion{
			Autoplay:           false,
			Speed:              Speed{Unit: CharsPerSecond, Value: 25},
			Direction:          Horizontal,
			Progression:        Step,
			PauseAtPunctuation: PunctuationPause{Enabled: true, DelayMs: 250},
			RateControl: RateControl{
				Enabled:      false,
				MinCps:       5,
				MaxCps:       60,
				ResetOnLeave: true,
			},
		},
		Mode: RSVP,
		Window: Window{
			Size:             1,
			Step:             1,
			ViewportWidthPx:  800,
			ViewportHeightPx: 600,
		},
	}
}

// ContinuousProgression reports whether the continuous animator drives playback.
func (s Spec) ContinuousProgression() bool {
	return s.Motion.Progression == Continuous
}

// EffectiveStep is the window step clamped into [1, window size].
func (s Spec) EffectiveStep() int {
	size := s.Window.Size
	if size < 1 {
		size = 1
	}
	step := s.Window.Step
	if step < 1 {
		step = 1
	}
	if step > size {
		step = size
	}
	return step
}

// ApproxCharPx estimates the width of an average glyph.
func (t Typography) ApproxCharPx() float64 {
	return max(t.FontSizePx*charWidthFactor+t.LetterSpacingPx, MinCharPx)
}

// Clamped bounds the size into [1, MaxWindowSize] and the step into [1, size].
func (w Window) Clamped() Window {
	w.Size = min(max(w.Size, 1), MaxWindowSize)
	w.Step = min(max(w.Step, 1), w.Size)
	return w
}

// LineHeightPx is the distance between baselines.
func (t Typography) LineHeightPx() float64 {
	lh := t.LineHeight
	if lh <= 0 {
		lh = 1
	}
	return t.FontSizePx * lh
}

// CharsPerSecond converts the configured speed to characters per second.
func (s Spec) CharsPerSecond() float64 {
	switch s.Motion.Speed.Unit {
	case PixelsPerSecond:
		if px := s.Typography.ApproxCharPx(); px > 0 {
			return s.Motion.Speed.Value / px
		}
		return 1
	case WordsPerMinute:
		return WPMToCPS(s.Motion.Speed.Value)
	}
	return s.Motion.Speed.Value
}

// WPMToCPS converts words per minute to characters per second for an
// average word of five characters.
func WPMToCPS(wpm float64) float64 {
	return math.Round(wpm / 12)
}

// ViewportExtent is the viewport size along the scroll axis.
func (s Spec) ViewportExtent() float64 {
	if s.Motion.Direction == Vertical {
		return s.Window.ViewportHeightPx
	}
	return s.Window.ViewportWidthPx
}

// Joiner assembles the full text for continuous scrolling.
func (d Direction) Joiner() string {
	if d == Vertical {
		return "\n"
	}
	return " "
}

// SameTokenization reports whether a and b produce the same token sequence from the same text.
func SameTokenization(a, b Spec) bool {
	return a.Tokenization.Unit == b.Tokenization.Unit &&
		max(a.Tokenization.ChunkSize, 1) == max(b.Tokenization.ChunkSize, 1)
}
