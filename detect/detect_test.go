package detect

import (
	"errors"
	"testing"

	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/elaborate"
	"github.com/AnthraxisBR/physlang/parser"
	"github.com/AnthraxisBR/physlang/physics"
	"github.com/AnthraxisBR/physlang/world"
)

func buildWorld(t *testing.T, src string) *world.World {
	t.Helper()
	bag := diagnostic.NewBag(50, false)
	p := parser.New("t.phys", src, bag)
	prog := p.Parse()
	if bag.HasErrors() {
		t.Fatalf("parse errors: %v", bag.All())
	}
	w := elaborate.Elaborate(prog, bag)
	if bag.HasErrors() {
		t.Fatalf("elaborate errors: %v", bag.All())
	}
	return w
}

func TestEvaluatePreservesDeclarationOrder(t *testing.T) {
	w := buildWorld(t, `particle a at (0, 0) mass 1;
particle b at (2, 0) mass 1;
force spring(a, b) k=1 rest=1;
simulate dt 0.1 steps 5;
detect dist = distance(a, b);
detect ax = position(a);`)
	rs := world.NewRuntimeState(w)
	for i := 0; i < w.Simulate.Steps; i++ {
		if err := physics.Step(w, rs); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	results, err := Evaluate(w, rs)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Name != "dist" || results[1].Name != "ax" {
		t.Fatalf("expected declaration order [dist, ax], got [%s, %s]", results[0].Name, results[1].Name)
	}
}

func TestDistanceIsXOnlyNotEuclidean(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{
			{Index: 0, Name: "a", X0: 0, Y0: 0, Mass: 1},
			{Index: 1, Name: "b", X0: 3, Y0: 4, Mass: 1},
		},
		Detectors: []world.Detector{{Name: "d", Kind: world.DetectDistance, Args: []int{0, 1}}},
	}
	rs := world.NewRuntimeState(w)
	results, err := Evaluate(w, rs)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if results[0].Value != 3 {
		t.Fatalf("expected Distance to be |x_b - x_a| = 3 (not the Euclidean 5), got %v", results[0].Value)
	}
}

func TestPositionXReturnsFinalX(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{{Index: 0, Name: "a", X0: 7, Y0: 0, Mass: 1}},
		Detectors: []world.Detector{{Name: "ax", Kind: world.DetectPositionX, Args: []int{0}}},
	}
	rs := world.NewRuntimeState(w)
	results, err := Evaluate(w, rs)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if results[0].Value != 7 {
		t.Fatalf("PositionX = %v, want 7", results[0].Value)
	}
}

func TestEvaluateReturnsErrUnknownParticleForOutOfRangeArg(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{{Index: 0, Name: "a", X0: 0, Y0: 0, Mass: 1}},
		Detectors: []world.Detector{{Name: "bad", Kind: world.DetectPositionX, Args: []int{5}}},
	}
	rs := world.NewRuntimeState(w)
	_, err := Evaluate(w, rs)
	if err == nil {
		t.Fatalf("expected an error for a detector argument with no matching particle")
	}
	if !errors.Is(err, world.ErrUnknownParticle) {
		t.Fatalf("expected errors.Is(err, world.ErrUnknownParticle), got %v", err)
	}
}

func TestSpeedReturnsVelocityMagnitude(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{{Index: 0, Name: "a", X0: 0, Y0: 0, Mass: 1}},
		Detectors: []world.Detector{{Name: "s", Kind: world.DetectSpeed, Args: []int{0}}},
	}
	rs := world.NewRuntimeState(w)
	rs.Particles[0].VX = 3
	rs.Particles[0].VY = 4
	results, err := Evaluate(w, rs)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if results[0].Value != 5 {
		t.Fatalf("Speed = %v, want 5", results[0].Value)
	}
}
