// Package detect implements PhysLang's detector evaluator (C8, §4.8):
// after a simulation's steps complete successfully, compute each
// declared detector against the final runtime state and return an
// ordered list of (name, scalar) pairs preserving declaration order.
//
// Grounded on the teacher's results package: a small, final read-only
// pass over a finished run that projects internal state down to the
// named scalars a caller actually asked for, run once, never
// incrementally.
package detect

import (
	"fmt"
	"math"

	"github.com/AnthraxisBR/physlang/world"
)

// Result is one named scalar readout (§4.8 "ordered list of (name,
// scalar) pairs").
type Result struct {
	Name  string
	Value float64
}

// Evaluate computes every detector in w in declaration order against
// rs, the state after the simulation's final successful step. It
// assumes rs has already passed §4.7-E validation for every step; it
// does not re-validate. Distance follows §4.8's literal definition,
// |x_b - x_a|, not a full 2D Euclidean norm.
func Evaluate(w *world.World, rs *world.RuntimeState) ([]Result, error) {
	out := make([]Result, 0, len(w.Detectors))
	for _, d := range w.Detectors {
		v, err := evalOne(w, d, rs)
		if err != nil {
			return nil, fmt.Errorf("detect %q: %w", d.Name, err)
		}
		out = append(out, Result{Name: d.Name, Value: v})
	}
	return out, nil
}

// evalOne checks every particle index a detector names against w before
// indexing into rs — rs.Particles and w.Particles share the same length
// and ordering, so w.ParticleByIndex's bounds check stands in for one
// against rs directly, turning a would-be out-of-range panic into the
// world.ErrUnknownParticle sentinel instead.
func evalOne(w *world.World, d world.Detector, rs *world.RuntimeState) (float64, error) {
	switch d.Kind {
	case world.DetectPositionX:
		if _, err := w.ParticleByIndex(d.Args[0]); err != nil {
			return 0, err
		}
		return rs.Particles[d.Args[0]].X, nil
	case world.DetectDistance:
		if _, err := w.ParticleByIndex(d.Args[0]); err != nil {
			return 0, err
		}
		if _, err := w.ParticleByIndex(d.Args[1]); err != nil {
			return 0, err
		}
		a, b := rs.Particles[d.Args[0]], rs.Particles[d.Args[1]]
		return math.Abs(b.X - a.X), nil
	case world.DetectSpeed:
		if _, err := w.ParticleByIndex(d.Args[0]); err != nil {
			return 0, err
		}
		p := rs.Particles[d.Args[0]]
		return math.Hypot(p.VX, p.VY), nil
	}
	return 0, fmt.Errorf("detect: unhandled detector kind %v for %q", d.Kind, d.Name)
}
