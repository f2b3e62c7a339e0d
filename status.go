package main

import (
	"fmt"

	"github.com/metcalfc/flowread/internal/condition"
	"github.com/metcalfc/flowread/internal/reader"
	"github.com/metcalfc/flowread/internal/token"
)

// statusText summarizes position, speed and engine for the status line.
func statusText(r *reader.Reader) string {
	spec := r.Condition()
	current, total := r.Progress()

	engine := string(spec.Motion.Progression)
	if !spec.ContinuousProgression() {
		engine = string(spec.Mode)
	}
	speed := fmt.Sprintf("%.0f cps", spec.CharsPerSecond())
	if spec.Motion.Speed.Unit == condition.PixelsPerSecond {
		speed = fmt.Sprintf("%.0f px/s", spec.Motion.Speed.Value)
	}

	s := fmt.Sprintf("%s %d/%d | %s | %s", unitLabel(spec.Tokenization.Unit), current, total, speed, engine)
	if title := r.CurrentChapterTitle(); title != "" {
		s += fmt.Sprintf(" | %s (%d words)", title, r.Chapters[r.CurrentChapter].Words())
	}
	return s
}

func unitLabel(u token.Unit) string {
	switch u {
	case token.Char:
		return "Char"
	case token.Sentence:
		return "Sentence"
	case token.Chunk:
		return "Chunk"
	default:
		return "Word"
	}
}

func nextUnit(u token.Unit) token.Unit {
	switch u {
	case token.Char:
		return token.Word
	case token.Word:
		return token.Sentence
	default:
		return token.Char
	}
}

// ratePosition places the current speed on the rate control surface, in [0, 1].
func ratePosition(spec condition.Spec) float64 {
	rc := spec.Motion.RateControl
	p := 0.0
	if rc.MaxCps > rc.MinCps {
		p = (spec.CharsPerSecond() - rc.MinCps) / (rc.MaxCps - rc.MinCps)
	}
	if rc.Invert {
		p = 1 - p
	}
	return min(max(p, 0), 1)
}
