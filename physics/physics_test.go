package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/elaborate"
	"github.com/AnthraxisBR/physlang/parser"
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

func TestSpringPullsParticlesTowardRestLength(t *testing.T) {
	w := buildWorld(t, `particle a at (0, 0) mass 1;
particle b at (2, 0) mass 1;
force spring(a, b) k=1 rest=1;
simulate dt 0.1 steps 5;`)
	rs := world.NewRuntimeState(w)
	for i := 0; i < w.Simulate.Steps; i++ {
		if err := Step(w, rs); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	d := rs.Particles[1].X - rs.Particles[0].X
	if !(d > 0 && d < 2 && !math.IsNaN(d)) {
		t.Fatalf("expected the spring to have pulled the particles closer than their initial separation of 2, got %v", d)
	}
}

func TestPushLoopPositionNonDecreasingAndFinite(t *testing.T) {
	w := buildWorld(t, `particle a at (0, 0) mass 1;
loop for 10 cycles with frequency 1.0 damping 0.0 on a {
	push(a) magnitude 0.5 direction (1, 0);
};
simulate dt 0.01 steps 500;`)
	rs := world.NewRuntimeState(w)
	prevX := rs.Particles[0].X
	for i := 0; i < w.Simulate.Steps; i++ {
		if err := Step(w, rs); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		x := rs.Particles[0].X
		if math.IsNaN(x) || math.IsInf(x, 0) {
			t.Fatalf("step %d: position(a).x is not finite: %v", i, x)
		}
		if x < prevX {
			t.Fatalf("step %d: position(a).x decreased from %v to %v", i, prevX, x)
		}
		prevX = x
	}
	if prevX <= 0 {
		t.Fatalf("expected position(a).x to have advanced past 0, got %v", prevX)
	}
}

func TestWhileLoopGuardDeactivatesNearWellThreshold(t *testing.T) {
	w := buildWorld(t, `particle a at (0, 0) mass 1;
well on a if position(a).x >= 5.0 depth 10.0;
loop while position(a).x < 5.0 with frequency 1.0 damping 0.0 on a {
	push(a) magnitude 0.3 direction (1, 0);
};
simulate dt 0.01 steps 4000;`)
	rs := world.NewRuntimeState(w)
	for i := 0; i < w.Simulate.Steps; i++ {
		if err := Step(w, rs); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if rs.Loops[0].Active {
		t.Fatalf("expected the while-loop to have deactivated once position(a).x reached 5.0, still active at x=%v", rs.Particles[0].X)
	}
	if x := rs.Particles[0].X; x < 4.5 || x > 6.0 {
		t.Fatalf("expected position(a).x to settle near the well threshold 5.0, got %v", x)
	}
}

func TestLoopFiresFloorOfFrequencyTimesDtTimesSteps(t *testing.T) {
	w := buildWorld(t, `particle a at (0, 0) mass 1;
loop for 20 cycles with frequency 1.57 damping 0.0 on a {
	push(a) magnitude 0.01 direction (1, 0);
};
simulate dt 0.02 steps 100;`)
	rs := world.NewRuntimeState(w)
	fires := 0
	for i := 0; i < w.Simulate.Steps; i++ {
		if err := Step(w, rs); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if rs.Loops[0].FiredThisStep {
			fires++
		}
	}
	want := int(math.Floor(1.57 * 0.02 * 100))
	if fires != want {
		t.Fatalf("expected floor(f*dt*steps) = %d fires, got %d", want, fires)
	}
}

func TestForLoopAppliesItsCycleExhaustingFire(t *testing.T) {
	// frequency 50 with dt 0.01 wraps the oscillator phase every 2 steps
	// (2*pi / (2*pi*50*0.01) = 2), so a 3-cycle loop runs out of cycles
	// well inside the 50-step run. With no other forces acting on the
	// particle, velocity must end at exactly 3*magnitude: the exhausting
	// fire is still a fire and must still push (§4.7-C).
	w := buildWorld(t, `particle a at (0, 0) mass 1;
loop for 3 cycles with frequency 50 damping 0.0 on a {
	push(a) magnitude 2 direction (1, 0);
};
simulate dt 0.01 steps 50;`)
	rs := world.NewRuntimeState(w)
	fires := 0
	for i := 0; i < w.Simulate.Steps; i++ {
		if err := Step(w, rs); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if rs.Loops[0].FiredThisStep {
			fires++
		}
	}
	if fires != 3 {
		t.Fatalf("expected exactly 3 fires before the loop exhausted its cycles, got %d", fires)
	}
	if rs.Loops[0].Active {
		t.Fatalf("expected the loop to have deactivated once its cycles ran out")
	}
	want := 3 * 2.0
	if rs.Particles[0].VX != want {
		t.Fatalf("VX = %v, want exactly %v (3 pushes of magnitude 2, including the cycle-exhausting one)", rs.Particles[0].VX, want)
	}
}

func TestStepReturnsRuntimeErrorOnVelocityOverflow(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{
			{Index: 0, Name: "a", X0: 0, Y0: 0, Mass: 1},
			{Index: 1, Name: "b", X0: 1e-5, Y0: 0, Mass: 1},
		},
		Forces:   []world.BinaryForce{{Kind: world.ForceSpring, A: 0, B: 1, K: 1e20, Rest: 1}},
		Simulate: world.SimulateConfig{Dt: 1, Steps: 1},
	}
	rs := world.NewRuntimeState(w)
	err := Step(w, rs)
	if err == nil {
		t.Fatalf("expected a runtime error from the velocity overflow, got nil")
	}
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected a *RuntimeError, got %T: %v", err, err)
	}
	if rerr.Step != 0 {
		t.Fatalf("expected the failure to be reported at step 0, got %d", rerr.Step)
	}
}

func TestSessionPeekDoesNotMutateSessionState(t *testing.T) {
	w := buildWorld(t, `particle a at (0, 0) mass 1;
particle b at (2, 0) mass 1;
force spring(a, b) k=1 rest=1;
simulate dt 0.1 steps 5;`)
	s := NewSession(w)
	before := s.State()
	peeked, err := s.Peek()
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	after := s.State()
	if before.CurrentStep != after.CurrentStep {
		t.Fatalf("expected Peek not to advance the session, before=%d after=%d", before.CurrentStep, after.CurrentStep)
	}
	if peeked.Particles[0].X == before.Particles[0].X && peeked.CurrentStep == before.CurrentStep {
		t.Fatalf("expected the peeked state to differ from the unmodified session state")
	}
}

func TestSessionRunToStopsOnRuntimeError(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{
			{Index: 0, Name: "a", X0: 0, Y0: 0, Mass: 1},
			{Index: 1, Name: "b", X0: 1e-5, Y0: 0, Mass: 1},
		},
		Forces:   []world.BinaryForce{{Kind: world.ForceSpring, A: 0, B: 1, K: 1e20, Rest: 1}},
		Simulate: world.SimulateConfig{Dt: 1, Steps: 10},
	}
	s := NewSession(w)
	err := s.RunTo(10)
	if err == nil {
		t.Fatalf("expected RunTo to stop with a runtime error")
	}
	again := s.Step()
	if again == nil {
		t.Fatalf("expected a halted session to keep returning the runtime error")
	}
}
