package scroll

import (
	"testing"
	"time"

	"github.com/metcalfc/flowread/internal/condition"
)

func TestAdvanceWrapsInOneFrame(t *testing.T) {
	var a Animator
	dts := []float64{0.3, 0.3, 0.3, 0.3, 0.3}
	// 100 px/s over a 100 px cycle.
	want := []float64{30, 60, 90, 0, 30}
	for i, dt := range dts {
		a.Advance(dt, 100, 100)
		got := a.Offset()
		if got < 0 || got > 100 {
			t.Fatalf("frame %d: offset %v out of range", i, got)
		}
		if diff := got - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("frame %d: offset = %v, want %v", i, got, want[i])
		}
	}
}

func TestAdvanceExactEndDoesNotWrap(t *testing.T) {
	var a Animator
	a.Advance(1, 100, 100)
	if a.Offset() != 100 {
		t.Errorf("offset = %v, want 100", a.Offset())
	}
	a.Advance(0.01, 100, 100)
	if a.Offset() != 0 {
		t.Errorf("offset = %v, want 0 after passing the cycle", a.Offset())
	}
}

func TestAdvanceShrunkCycle(t *testing.T) {
	var a Animator
	a.Advance(0.8, 100, 100)
	a.Advance(0, 100, 50)
	if a.Offset() != 0 {
		t.Errorf("offset = %v, want 0 once the cycle shrinks below it", a.Offset())
	}
	a.Advance(1, 100, 0)
	if a.Offset() != 0 {
		t.Errorf("offset = %v, want 0 for an empty cycle", a.Offset())
	}
}

func TestFrameDelta(t *testing.T) {
	var a Animator
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if a.Frame(a.Gen(), t0, 100, 1000) {
		t.Fatal("frame while stopped should be ignored")
	}

	gen, ok := a.Start()
	if !ok {
		t.Fatal("Start failed")
	}
	if _, ok := a.Start(); ok {
		t.Error("second Start should be a no-op")
	}

	a.Frame(gen, t0, 100, 1000)
	if a.Offset() != 0 {
		t.Errorf("first frame moved to %v, want 0", a.Offset())
	}
	a.Frame(gen, t0.Add(500*time.Millisecond), 100, 1000)
	if a.Offset() != 50 {
		t.Errorf("offset = %v, want 50", a.Offset())
	}

	// A speed or direction switch restarts delta tracking.
	next := a.Restart()
	if a.Frame(gen, t0.Add(time.Second), 100, 1000) {
		t.Error("old generation should be ignored after restart")
	}
	a.Frame(next, t0.Add(2*time.Second), 100, 1000)
	if a.Offset() != 50 {
		t.Errorf("first frame after restart moved to %v, want 50", a.Offset())
	}
	a.Frame(next, t0.Add(2100*time.Millisecond), 100, 1000)
	if a.Offset() != 60 {
		t.Errorf("offset = %v, want 60", a.Offset())
	}

	if !a.Stop() {
		t.Fatal("Stop failed")
	}
	if a.Frame(next, t0.Add(3*time.Second), 100, 1000) {
		t.Error("frame after Stop should be ignored")
	}
	if a.Offset() != 60 {
		t.Errorf("Stop changed offset to %v", a.Offset())
	}

	gen, _ = a.Start()
	a.Frame(gen, t0.Add(10*time.Second), 100, 1000)
	if a.Offset() != 60 {
		t.Errorf("first frame after resume moved to %v, want 60", a.Offset())
	}
	a.Reset()
	if a.Offset() != 0 {
		t.Errorf("Reset left offset at %v", a.Offset())
	}
}

func TestPixelsPerSecond(t *testing.T) {
	spec := condition.Default()
	spec.Typography.FontSizePx = 20
	spec.Typography.LetterSpacingPx = 1

	spec.Motion.Speed = condition.Speed{Unit: condition.PixelsPerSecond, Value: 240}
	if got := PixelsPerSecond(spec); got != 240 {
		t.Errorf("pxps = %v, want 240", got)
	}

	// 10 cps at (20*0.55 + 1) px per char.
	spec.Motion.Speed = condition.Speed{Unit: condition.CharsPerSecond, Value: 10}
	if got := PixelsPerSecond(spec); got < 119.99 || got > 120.01 {
		t.Errorf("cps conversion = %v, want 120", got)
	}

	spec.Motion.Speed = condition.Speed{Unit: condition.CharsPerSecond, Value: 0.1}
	if got := PixelsPerSecond(spec); got != MinPixelsPerSecond {
		t.Errorf("slow speed = %v, want floor %v", got, MinPixelsPerSecond)
	}
}

func TestCycleLength(t *testing.T) {
	if got := CycleLength(400, 800); got != 1200 {
		t.Errorf("CycleLength = %v, want 1200", got)
	}
	if got := CycleLength(-5, 800); got != 800 {
		t.Errorf("CycleLength = %v, want 800", got)
	}
}
