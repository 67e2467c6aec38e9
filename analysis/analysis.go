// Package analysis implements PhysLang's static analyzer (C5, §4.5): a
// pass over the frozen world.World (plus a few elaboration-time usage
// facts elaborate records as it goes) that emits the diagnostics §4.5
// groups under "after (or interleaved with) elaboration": referential
// integrity, stability warnings, and optional dimensional analysis.
//
// Uniqueness, parameter validity, and the core type judgments are already
// enforced inline by elaborate as each declaration is built (§4.4); this
// package covers the checks that only make sense, or are only cheap,
// once the whole elaborated world is in hand.
//
// Grounded on the teacher's validation.Validator (checks.go): a small
// ordered list of independent passes run over a finished structural
// model, each appending issues to a shared accumulator rather than
// failing fast.
package analysis

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/AnthraxisBR/physlang/ast"
	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/world"
)

// Options configures the optional, opt-in parts of the analyzer (§4.5
// "Dimensional analysis (optional, opt-in)").
type Options struct {
	// StrictDimensions promotes dimensional-mismatch warnings (W1201,
	// W1202) to errors (E1201, E1202) when CheckDimensions is also set
	// (§4.5 "errors in strict mode").
	StrictDimensions bool
	// CheckDimensions enables the dimensional-analysis pass at all; it
	// is off by default since dimension tags are not part of PhysLang's
	// surface syntax and inference is necessarily approximate (see
	// dimension.go).
	CheckDimensions bool
}

// Analyze runs every static-analysis pass over prog/w, appending
// diagnostics to bag. It never mutates prog or w. prog may be nil (the
// caller only has a World, as in most tests), in which case the
// unused-binding check is skipped.
func Analyze(prog *ast.Program, w *world.World, bag *diagnostic.Bag, opts Options) {
	checkReferentialIntegrity(w, bag)
	checkStability(w, bag)
	if prog != nil {
		checkUnusedBindings(prog.Items, bag)
	}
	if opts.CheckDimensions {
		checkDimensions(w, bag, opts.StrictDimensions)
	}
}

// checkReferentialIntegrity marks every particle index reached from a
// force, well, loop target/push, or detector argument in a bitset sized
// to len(w.Particles), then reports any particle never marked as an I1
// info-level note (§4.5 "Referential integrity", SPEC_FULL §2 bitset
// wiring). Indices themselves are already guaranteed valid by elaborate
// (§9 "pointer-free identity"); this pass is about *reachability*, not
// validity.
func checkReferentialIntegrity(w *world.World, bag *diagnostic.Bag) {
	if len(w.Particles) == 0 {
		return
	}
	referenced := bitset.New(uint(len(w.Particles)))
	mark := func(i int) {
		if i >= 0 && i < len(w.Particles) {
			referenced.Set(uint(i))
		}
	}
	for _, f := range w.Forces {
		mark(f.A)
		mark(f.B)
	}
	for _, well := range w.Wells {
		mark(well.Owner)
	}
	for _, l := range w.Loops {
		mark(l.Target)
		for _, p := range l.Body {
			mark(p.Target)
		}
	}
	for _, d := range w.Detectors {
		for _, a := range d.Args {
			mark(a)
		}
	}
	for _, p := range w.Particles {
		if !referenced.Test(uint(p.Index)) {
			bag.Add(diagnostic.Notef("I1001", p.Sp,
				"particle %q is declared but never referenced by a force, well, loop, or detector", p.Name))
		}
	}
}

// checkStability emits W1101/W1102/W1103 from the elaborated world's
// numeric parameters (§4.5 "Stability warning"). m_min ranges over every
// declared particle, matching the spec's global (not per-force) minimum.
func checkStability(w *world.World, bag *diagnostic.Bag) {
	dt := w.Simulate.Dt
	if dt <= 0 || len(w.Particles) == 0 {
		return
	}
	mMin := w.Particles[0].Mass
	for _, p := range w.Particles {
		if p.Mass < mMin {
			mMin = p.Mass
		}
		if p.Mass < 1e-4 {
			bag.Add(diagnostic.Warnf("W1103", p.Sp, "particle %q has a very small mass %v (< 1e-4), which amplifies numerical error", p.Name, p.Mass))
		}
	}
	bound := 4 / (dt * dt * mMin)
	for _, f := range w.Forces {
		if f.Kind != world.ForceSpring {
			continue
		}
		if f.K > bound {
			bag.Add(diagnostic.Warnf("W1101", f.Sp,
				"spring stiffness k=%v between particles %d and %d exceeds the stability bound %v (4/(dt^2 * m_min)) for dt=%v", f.K, f.A, f.B, bound, dt).
				WithNote(diagnostic.NoteMagnitude("stability bound", bound)))
		}
	}
	freqBound := 1 / (2 * dt)
	for _, l := range w.Loops {
		if l.Frequency > freqBound {
			bag.Add(diagnostic.Warnf("W1102", l.Sp,
				"loop frequency=%v exceeds the Nyquist-derived bound %v (1/(2*dt)) for dt=%v", l.Frequency, freqBound, dt).
				WithNote(diagnostic.NoteMagnitude("Nyquist bound", freqBound)))
		}
	}
}
