package main

import (
	"testing"

	"github.com/metcalfc/flowread/internal/condition"
	"github.com/metcalfc/flowread/internal/reader"
	"github.com/metcalfc/flowread/internal/token"
)

func TestStatusText(t *testing.T) {
	r := reader.NewReader("a b c d e", condition.Default(), nil)
	if got, want := statusText(r), "Word 1/5 | 25 cps | rsvp"; got != want {
		t.Errorf("statusText = %q, want %q", got, want)
	}

	r.SetChapters([]reader.Chapter{
		{Title: "Intro", WordStart: 0, WordEnd: 1},
		{Title: "Body", WordStart: 2, WordEnd: 4},
	}, nil)
	r.JumpToChapter(3)
	if got, want := statusText(r), "Word 4/5 | 25 cps | rsvp | Body (3 words)"; got != want {
		t.Errorf("statusText = %q, want %q", got, want)
	}

	spec := condition.Default()
	spec.Motion.Progression = condition.Continuous
	spec.Motion.Speed = condition.Speed{Unit: condition.PixelsPerSecond, Value: 120}
	r.SetCondition(spec)
	if got, want := statusText(r), "Word 4/5 | 120 px/s | continuous | Body (3 words)"; got != want {
		t.Errorf("statusText = %q, want %q", got, want)
	}
}

func TestNextUnitCycles(t *testing.T) {
	u := token.Char
	var seen []token.Unit
	for range 3 {
		u = nextUnit(u)
		seen = append(seen, u)
	}
	want := []token.Unit{token.Word, token.Sentence, token.Char}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("cycle step %d = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestRatePosition(t *testing.T) {
	spec := condition.Default()
	spec.Motion.RateControl = condition.RateControl{MinCps: 10, MaxCps: 50}
	tests := []struct {
		cps    float64
		invert bool
		want   float64
	}{
		{10, false, 0},
		{30, false, 0.5},
		{50, false, 1},
		{80, false, 1},
		{20, true, 0.75},
	}
	for _, tt := range tests {
		spec.Motion.Speed = condition.Speed{Unit: condition.CharsPerSecond, Value: tt.cps}
		spec.Motion.RateControl.Invert = tt.invert
		if got := ratePosition(spec); got != tt.want {
			t.Errorf("ratePosition(%v cps, invert %v) = %v, want %v", tt.cps, tt.invert, got, tt.want)
		}
	}
}
