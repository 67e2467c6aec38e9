// Package physics implements PhysLang's fixed-step physics runtime (C7,
// §4.7): given a frozen world.World and the mutable world.RuntimeState it
// owns exclusively, Step advances the simulation by exactly one Δt using
// the five-phase recurrence (§4.7-A through §4.7-E) and Session wraps
// repeated stepping behind the stepwise iterator the public API exposes
// (§6 "Program.step_iter() -> Session").
//
// Grounded on the teacher's engine.Engine: Step(dt)/Run/Simulate/GetState
// naming and the read-only-snapshot pattern for State/Peek, with every
// piece of engine.Engine's concurrency (sync.RWMutex, goroutine, ticker,
// context cancellation) dropped — §5 mandates a single-threaded,
// cooperative, synchronous runtime with no shared mutable state.
package physics

import (
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/eval"
	"github.com/AnthraxisBR/physlang/world"
)

// Epsilon is the division-by-zero guard named in the glossary, shared
// with eval so the ε-floor used inside a pure function body and the one
// used by the force accumulator never drift apart. MaxPosition and
// MaxVelocity are phase E's numeric bounds.
var Epsilon = eval.Epsilon()

const (
	MaxPosition = 1e12
	MaxVelocity = 1e10
)

// RuntimeError reports a §4.7-E validation failure: a particular
// particle's position or velocity left the valid numeric range on a
// specific step. Simulation halts immediately and detectors do not run
// (§4.8 "After steps successful steps").
type RuntimeError struct {
	Step     int
	Particle int
	Cause    string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at step %d, particle %d: %s", e.Step, e.Particle, e.Cause)
}

// Step advances rs by exactly one Δt according to w, running phases A-E
// in the fixed order §4.7 requires. It returns a *RuntimeError if phase E
// rejects any particle's resulting state; rs is left exactly as it stood
// after phase D in that case (the caller is expected to stop, not retry).
func Step(w *world.World, rs *world.RuntimeState) error {
	dt := w.Simulate.Dt
	advancePhases(w, rs, dt)
	accumulateForces(w, rs)
	applyImpulses(w, rs)
	integrate(w, rs, dt)
	if err := validate(rs, rs.CurrentStep); err != nil {
		return err
	}
	rs.CurrentStep++
	return nil
}

// advancePhases runs §4.7-A: every loop's oscillator phase advances and
// decays, firing (and for for-loops, counting down) when it wraps past
// 2π, with while-loops additionally deactivated the moment their guard
// goes false.
func advancePhases(w *world.World, rs *world.RuntimeState, dt float64) {
	for i := range w.Loops {
		l := &w.Loops[i]
		rt := &rs.Loops[i]
		rt.FiredThisStep = false
		if !rt.Active {
			continue
		}

		rt.Phase = (rt.Phase + 2*math.Pi*l.Frequency*dt) * (1 - l.Damping*dt)
		if rt.Phase >= 2*math.Pi {
			rt.Phase -= 2 * math.Pi
			rt.FiredThisStep = true
		}

		if l.Kind == world.LoopWhile {
			ok, err := evalGuard(l.Cond, rs)
			if err != nil || !ok {
				rt.Active = false
				rt.FiredThisStep = false
			}
			continue
		}

		if rt.FiredThisStep {
			rt.RemainingCycles--
			if rt.RemainingCycles <= 0 {
				rt.Active = false
			}
		}
	}
}

// accumulateForces runs §4.7-B: zero every particle's scratch force
// accumulator, then add each binary force and well contribution in
// declaration order.
func accumulateForces(w *world.World, rs *world.RuntimeState) {
	for i := range rs.Particles {
		rs.Particles[i].FX = 0
		rs.Particles[i].FY = 0
	}

	for _, f := range w.Forces {
		a, b := &rs.Particles[f.A], &rs.Particles[f.B]
		rx, ry := b.X-a.X, b.Y-a.Y
		d := math.Max(math.Hypot(rx, ry), Epsilon)
		dirX, dirY := rx/d, ry/d

		var mag float64
		switch f.Kind {
		case world.ForceGravity:
			ma, mb := wmass(w, f.A), wmass(w, f.B)
			mag = f.G * ma * mb / (d * d)
		case world.ForceSpring:
			mag = f.K * (d - f.Rest)
		}

		a.FX += mag * dirX
		a.FY += mag * dirY
		b.FX -= mag * dirX
		b.FY -= mag * dirY
	}

	for _, well := range w.Wells {
		p := &rs.Particles[well.Owner]
		if p.X >= well.Threshold {
			p.FX += -well.Depth * (p.X - well.Threshold)
		}
	}
}

func wmass(w *world.World, i int) float64 { return w.Particles[i].Mass }

// applyImpulses runs §4.7-C: every push belonging to a loop that fired
// this step adds its impulse directly to the target's velocity, bypassing
// the force accumulator entirely. Firing is gated on FiredThisStep alone,
// not on Active: a for-loop's cycle-exhausting fire sets both flags in
// the same phase-A step, and that last firing still has to apply its push.
func applyImpulses(w *world.World, rs *world.RuntimeState) {
	for i, l := range w.Loops {
		rt := &rs.Loops[i]
		if !rt.FiredThisStep {
			continue
		}
		for _, push := range l.Body {
			d := math.Hypot(push.Dx, push.Dy)
			if d < Epsilon {
				continue
			}
			dirX, dirY := push.Dx/d, push.Dy/d
			p := &rs.Particles[push.Target]
			p.VX += push.Magnitude * dirX
			p.VY += push.Magnitude * dirY
		}
	}
}

// integrate runs §4.7-D, semi-implicit Euler: velocity updates from the
// accumulated force first, then position updates from the *new*
// velocity, which is what makes the method symplectic.
func integrate(w *world.World, rs *world.RuntimeState, dt float64) {
	for i := range rs.Particles {
		p := &rs.Particles[i]
		m := w.Particles[i].Mass
		ax, ay := p.FX/m, p.FY/m
		p.VX += ax * dt
		p.VY += ay * dt
		p.X += p.VX * dt
		p.Y += p.VY * dt
	}
}

// validate runs §4.7-E over every particle's resulting state.
func validate(rs *world.RuntimeState, step int) error {
	for i, p := range rs.Particles {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return &RuntimeError{Step: step, Particle: i, Cause: "position is NaN or Inf"}
		}
		if math.IsNaN(p.VX) || math.IsInf(p.VX, 0) || math.IsNaN(p.VY) || math.IsInf(p.VY, 0) {
			return &RuntimeError{Step: step, Particle: i, Cause: "velocity is NaN or Inf"}
		}
		if math.Abs(p.X) > MaxPosition || math.Abs(p.Y) > MaxPosition {
			mag := math.Max(math.Abs(p.X), math.Abs(p.Y))
			return &RuntimeError{Step: step, Particle: i, Cause: diagnostic.NoteMagnitude(
				fmt.Sprintf("position exceeds MAX_POSITION (%g)", MaxPosition), mag)}
		}
		if math.Abs(p.VX) > MaxVelocity || math.Abs(p.VY) > MaxVelocity {
			mag := math.Max(math.Abs(p.VX), math.Abs(p.VY))
			return &RuntimeError{Step: step, Particle: i, Cause: diagnostic.NoteMagnitude(
				fmt.Sprintf("velocity exceeds MAX_VELOCITY (%g)", MaxVelocity), mag)}
		}
	}
	return nil
}

// Session is a stepwise simulation handle (§6 "Program.step_iter() ->
// Session"), grounded on engine.Engine's synchronous Step/GetState shape
// with every concurrency primitive removed: a Session is owned by
// exactly one caller and is never shared across goroutines (§5 "there is
// none").
type Session struct {
	w      *world.World
	rs     *world.RuntimeState
	log    zerolog.Logger
	halted error
}

// NewSession builds a Session over w with fresh initial runtime state
// (§4.6 "initial velocities are (0,0)").
func NewSession(w *world.World) *Session {
	return &Session{w: w, rs: world.NewRuntimeState(w), log: log.With().Str("phase", "physics").Logger()}
}

// Step advances the session by one Δt. Once a Step call returns a
// *RuntimeError the session is halted: further Step calls return the
// same error without mutating state (§5 "a runtime failure cancels the
// run immediately").
func (s *Session) Step() error {
	if s.halted != nil {
		return s.halted
	}
	if err := Step(s.w, s.rs); err != nil {
		s.halted = err
		s.log.Error().Err(err).Int("step", s.rs.CurrentStep).Msg("runtime validation failed")
		return err
	}
	return nil
}

// RunTo steps the session forward until rs.CurrentStep == target,
// stopping early on the first runtime error (§6 "run_to(step_index)").
func (s *Session) RunTo(target int) error {
	for s.rs.CurrentStep < target {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// State returns a read-only snapshot of the current runtime state,
// independent of further Step calls (§6 "Session.state() exposes
// read-only snapshots").
func (s *Session) State() *world.RuntimeState { return s.rs.Clone() }

// Snapshot encodes the current runtime state as CBOR, the one wire
// format the stepwise API commits to for an out-of-process visualizer
// (SPEC_FULL §2). It is equivalent to cbor.Marshal(s.State()) but avoids
// the intermediate clone's allocation getting thrown away immediately.
func (s *Session) Snapshot() ([]byte, error) {
	return cbor.Marshal(s.rs)
}

// Peek reports what the runtime state would be after one more Step
// without mutating the session (§6 "peek(state)"), by stepping a cloned
// copy of the current state.
func (s *Session) Peek() (*world.RuntimeState, error) {
	if s.halted != nil {
		return nil, s.halted
	}
	clone := s.rs.Clone()
	if err := Step(s.w, clone); err != nil {
		return nil, err
	}
	return clone, nil
}

// Reset discards all progress and returns the session to its initial
// state (§6 "reset()").
func (s *Session) Reset() {
	s.rs = world.NewRuntimeState(s.w)
	s.halted = nil
}
