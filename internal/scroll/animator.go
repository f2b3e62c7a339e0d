// Package scroll drives the wrapping pixel offset of continuous progression.
package scroll

import (
	"math"
	"time"

	"github.com/metcalfc/flowread/internal/condition"
)

// MinPixelsPerSecond keeps slow configurations visibly moving.
const MinPixelsPerSecond = 10

// Animator accumulates a pixel offset from frame callbacks.
//
// Each Start or Restart begins a new frame generation; a frame callback
// registered for an older generation is ignored, which is how a host's
// pending callback is cancelled.
type Animator struct {
	offset  float64
	last    time.Time
	hasLast bool
	running bool
	gen     uint64
}

func (a *Animator) Offset() float64 { return a.offset }
func (a *Animator) Running() bool   { return a.running }

// Gen is the generation frame callbacks must carry.
func (a *Animator) Gen() uint64 { return a.gen }

// Start begins animating and returns the generation for the first frame.
// It returns false when already running.
func (a *Animator) Start() (uint64, bool) {
	if a.running {
		return 0, false
	}
	a.running = true
	return a.Restart(), true
}

// Restart drops frame delta tracking, so the next frame contributes no motion,
// and invalidates any registered callback.
func (a *Animator) Restart() uint64 {
	a.hasLast = false
	a.gen++
	return a.gen
}

// Stop suspends the animator. The offset is kept.
func (a *Animator) Stop() bool {
	if !a.running {
		return false
	}
	a.running = false
	a.hasLast = false
	a.gen++
	return true
}

// Reset returns the offset to the start of the cycle.
func (a *Animator) Reset() {
	a.offset = 0
	a.hasLast = false
}

// Frame advances by the time elapsed since the previous frame of generation gen.
// It reports false for stale generations or while stopped.
func (a *Animator) Frame(gen uint64, now time.Time, pxPerSecond, cycle float64) bool {
	if !a.running || gen != a.gen {
		return false
	}
	dt := 0.0
	if a.hasLast {
		dt = max(now.Sub(a.last).Seconds(), 0)
	}
	a.last = now
	a.hasLast = true
	a.Advance(dt, pxPerSecond, cycle)
	return true
}

// Advance moves the offset by pxPerSecond*dt. Passing the end of the cycle
// cuts straight back to 0 rather than carrying the remainder.
func (a *Animator) Advance(dt, pxPerSecond, cycle float64) {
	if cycle <= 0 {
		a.offset = 0
		return
	}
	a.offset += pxPerSecond * dt
	if a.offset > cycle || a.offset < 0 || math.IsNaN(a.offset) {
		a.offset = 0
	}
}

// PixelsPerSecond derives the scroll rate from the configured speed.
func PixelsPerSecond(spec condition.Spec) float64 {
	var px float64
	switch spec.Motion.Speed.Unit {
	case condition.PixelsPerSecond:
		px = spec.Motion.Speed.Value
	default:
		px = spec.CharsPerSecond() * spec.Typography.ApproxCharPx()
	}
	if math.IsNaN(px) || px < MinPixelsPerSecond {
		return MinPixelsPerSecond
	}
	return px
}

// CycleLength is the distance scrolled before wrapping: the content extent
// plus the viewport, so the content fully leaves before it restarts.
func CycleLength(content, viewport float64) float64 {
	return max(content, 0) + max(viewport, 0)
}
