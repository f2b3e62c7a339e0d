// Package rate maps a one-dimensional pointer position onto reading speed.
package rate

import (
	"math"

	"github.com/metcalfc/flowread/internal/condition"
)

// Map converts pointer position p in [0, 1] to a speed in characters per second.
func Map(rc condition.RateControl, p float64) float64 {
	if math.IsNaN(p) {
		p = 0
	}
	p = min(max(p, 0), 1)
	if rc.Invert {
		p = 1 - p
	}
	return clamp(math.Round(rc.MinCps+(rc.MaxCps-rc.MinCps)*p), rc)
}

func clamp(v float64, rc condition.RateControl) float64 {
	return min(max(v, rc.MinCps), rc.MaxCps)
}

// Controller remembers the speed in force before the pointer took over, so it
// can be restored when the pointer leaves.
type Controller struct {
	base     condition.Speed
	captured bool
}

// Captured reports whether a base speed is being held.
func (c *Controller) Captured() bool { return c.captured }

// Sample applies pointer position p and returns the updated spec.
// With rate control disabled the spec is returned untouched and any held
// base speed is dropped.
func (c *Controller) Sample(spec condition.Spec, p float64) condition.Spec {
	rc := spec.Motion.RateControl
	if !rc.Enabled {
		c.Disable()
		return spec
	}
	if !c.captured {
		c.base = spec.Motion.Speed
		c.captured = true
	}
	spec.Motion.Speed = condition.Speed{Unit: condition.CharsPerSecond, Value: Map(rc, p)}
	return spec
}

// Leave ends pointer control. With ResetOnLeave the held speed is restored.
func (c *Controller) Leave(spec condition.Spec) condition.Spec {
	if !c.captured {
		return spec
	}
	rc := spec.Motion.RateControl
	if rc.Enabled && rc.ResetOnLeave {
		restored := c.base
		if restored.Unit == condition.CharsPerSecond {
			restored.Value = clamp(restored.Value, rc)
		}
		spec.Motion.Speed = restored
	}
	c.Disable()
	return spec
}

// Disable forgets the held speed without touching the current one.
func (c *Controller) Disable() {
	c.base = condition.Speed{}
	c.captured = false
}
