package client

import (
	"math"
	"testing"
)

func TestInterpolatorConverges(t *testing.T) {
	ip := Interpolator{Lerp: 0.15, Snap: 1}
	target := Vec2{100, -40}
	render := Vec2{0, 0}

	bound := ip.ticksToConverge(100) + 1
	prev := math.Inf(1)
	for i := 0; i < bound; i++ {
		render = ip.Advance(render, target)
		dist := math.Hypot(target.X-render.X, target.Y-render.Y)
		if dist >= prev {
			t.Fatalf("tick %d: distance did not decrease (%v -> %v)", i, prev, dist)
		}
		prev = dist
		if render == target {
			return
		}
	}
	t.Fatalf("did not reach target within %d ticks, render=%+v", bound, render)
}

func TestInterpolatorSnapsWithinThreshold(t *testing.T) {
	ip := Interpolator{Lerp: 0.15, Snap: 1}
	got := ip.Advance(Vec2{9.5, 20.2}, Vec2{10, 20})
	if got != (Vec2{10, 20}) {
		t.Fatalf("expected exact snap, got %+v", got)
	}
}

func TestInterpolatorLerpsBothAxes(t *testing.T) {
	ip := Interpolator{Lerp: 0.5, Snap: 1}
	got := ip.Advance(Vec2{0, 0}, Vec2{10, 0.5})
	if got.X != 5 || got.Y != 0.25 {
		t.Fatalf("unexpected step: %+v", got)
	}
}

func TestInterpolatorStepKeepsDiscreteState(t *testing.T) {
	reg := NewRegistry("me")
	reg.Upsert(joinUpdate("p2", 0, 0))
	moving := true
	reg.Upsert(ActorUpdate{ID: "p2", Position: &Vec2{50, 0}, Direction: DirRight, IsMoving: &moving})

	frames := Interpolator{Lerp: 0.15, Snap: 1}.Step(reg)
	if len(frames) != 1 {
		t.Fatalf("expected one frame, got %d", len(frames))
	}
	f := frames[0]
	if f.Direction != DirRight || !f.IsMoving {
		t.Fatalf("discrete state should be applied immediately: %+v", f)
	}
	if math.Abs(f.X-7.5) > 1e-9 {
		t.Fatalf("expected x=7.5 after one step, got %v", f.X)
	}
	a, _ := reg.Get("p2")
	if a.Render.X != f.X || a.Target.X != 50 {
		t.Fatalf("render not advanced in registry: %+v", a)
	}
}

func TestInterpolatorStepOrdersByID(t *testing.T) {
	reg := NewRegistry("me")
	for _, id := range []string{"c", "a", "b"} {
		reg.Upsert(joinUpdate(id, 0, 0))
	}
	frames := Interpolator{Lerp: 0.15, Snap: 1}.Step(reg)
	for i, want := range []string{"a", "b", "c"} {
		if frames[i].ID != want {
			t.Fatalf("frame %d: got %s want %s", i, frames[i].ID, want)
		}
	}
}
