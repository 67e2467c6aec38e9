// Package world holds PhysLang's elaborated world model (§3 "Elaborated
// world") and the mutable runtime state C7 advances, grounded on the
// teacher's petri/net.go and petri/builder.go (a packed, index-addressed
// structural model built once and then driven by a separate stepping
// engine).
package world

import (
	"errors"
	"fmt"

	"github.com/AnthraxisBR/physlang/ast"
	"github.com/AnthraxisBR/physlang/token"
)

// ErrUnknownParticle is an internal-invariant error: every ParticleRef is
// supposed to be resolved to a valid index by elaborate before a World is
// ever constructed, so seeing this indicates a compiler bug, not a user
// error (contrast with the user-facing diagnostic.Bag), matching the
// teacher's tokenmodel/errors.go convention of a distinct sentinel error
// space for programmer/runtime invariant violations.
var ErrUnknownParticle = errors.New("world: unknown particle index")

// Particle is a mass point with program-lifetime identity (§3).
type Particle struct {
	Index  int
	Name   string // possibly mangled, e.g. "p_3"
	X0, Y0 float64
	Mass   float64
	Sp     token.Span
}

// ForceKind distinguishes the two binary force shapes (§3).
type ForceKind int

const (
	ForceGravity ForceKind = iota
	ForceSpring
)

func (k ForceKind) String() string {
	if k == ForceSpring {
		return "spring"
	}
	return "gravity"
}

// BinaryForce couples two particles by index (§3, §4.7-B).
type BinaryForce struct {
	Kind ForceKind
	A, B int
	G    float64 // ForceGravity only
	K    float64 // ForceSpring only
	Rest float64 // ForceSpring only
	Sp   token.Span
}

// Describe renders a short human-readable label for a visualizer, e.g.
// "gravity(0,1) G=6.7e-11" (SPEC_FULL §3, the kept introspection hook).
func (f BinaryForce) Describe() string {
	if f.Kind == ForceSpring {
		return fmt.Sprintf("spring(%d,%d) k=%g rest=%g", f.A, f.B, f.K, f.Rest)
	}
	return fmt.Sprintf("gravity(%d,%d) G=%g", f.A, f.B, f.G)
}

// Well is a one-sided potential injecting a restoring force once the
// owner's x-position reaches Threshold (§3, §4.7-B).
type Well struct {
	Owner     int
	Threshold float64
	Depth     float64
	Sp        token.Span
}

// Push is a single impulse record applied when its owning Loop fires
// (§3, §4.7-C).
type Push struct {
	Target    int
	Magnitude float64
	Dx, Dy    float64 // normalized at apply time, not at declaration time
}

// LoopKind distinguishes the two loop-termination shapes (§3).
type LoopKind int

const (
	LoopForCycles LoopKind = iota
	LoopWhile
)

// Loop is an oscillator-driven iteration (§3, §4.7-A/C). Cond is nil for
// LoopForCycles; for LoopWhile it is the pure, elaborated guard
// expression, re-evaluated against the *current* runtime state every
// step (§4.7-A) — the one place a World entity still carries an ast.Expr,
// since the guard cannot be pre-folded to a constant.
type Loop struct {
	Kind      LoopKind
	Cycles    int // LoopForCycles only
	Cond      ast.Expr
	Frequency float64
	Damping   float64
	Target    int
	Body      []Push
	Sp        token.Span
}

// DetectKind distinguishes the detector readouts (§3, plus Speed from
// SPEC_FULL §3).
type DetectKind int

const (
	DetectPositionX DetectKind = iota
	DetectDistance
	DetectSpeed
)

// Detector names a scalar output computed once from the final state
// (§3, §4.8).
type Detector struct {
	Name string
	Kind DetectKind
	Args []int // particle indices, arity 1 for PositionX/Speed, 2 for Distance
	Sp   token.Span
}

// SimulateConfig configures the fixed-step integrator (§3).
type SimulateConfig struct {
	Dt    float64
	Steps int
}

// World is the frozen, elaborated, index-addressed program (§3, §4.6).
// It is built once by elaborate and never mutated again; C7 reads it but
// owns its mutable state separately in RuntimeState (§9 "two-phase
// execution": no AST node is inspected during a simulation step except
// the handful of Loop.Cond guards, which are themselves frozen,
// elaborated expressions, not raw source).
type World struct {
	Particles []Particle
	Forces    []BinaryForce
	Wells     []Well
	Loops     []Loop
	Detectors []Detector
	Simulate  SimulateConfig
}

// ParticleByIndex returns w.Particles[i], returning ErrUnknownParticle if
// i is out of range — a defensive check for call sites (detect.evalOne)
// that index into the table directly rather than trusting elaborate's
// invariant.
func (w *World) ParticleByIndex(i int) (Particle, error) {
	if i < 0 || i >= len(w.Particles) {
		return Particle{}, fmt.Errorf("%w: index %d", ErrUnknownParticle, i)
	}
	return w.Particles[i], nil
}

// LoopRuntime is the mutable per-loop state advanced each step (§3
// "Runtime state"). The cbor tags let a RuntimeState snapshot travel to an
// external visualizer process as compact binary (SPEC_FULL §2) without
// dragging Go field names into the wire format.
type LoopRuntime struct {
	Phase           float64 `cbor:"phase"`
	Active          bool    `cbor:"active"`
	RemainingCycles int     `cbor:"remaining_cycles"` // LoopForCycles only
	FiredThisStep   bool    `cbor:"fired"`
}

// ParticleRuntime is the mutable per-particle state advanced each step
// (§3 "Runtime state"). FX/FY are omitted from the wire format: they are
// a scratch accumulator zeroed at the start of every step and carry no
// information a visualizer would want between frames.
type ParticleRuntime struct {
	X  float64 `cbor:"x"`
	Y  float64 `cbor:"y"`
	VX float64 `cbor:"vx"`
	VY float64 `cbor:"vy"`
	FX float64 `cbor:"-"` // scratch force accumulator, zeroed each step
	FY float64 `cbor:"-"`
}

// RuntimeState is the mutable state a simulation Session owns exclusively
// while World stays read-only (§3 "Ownership & lifecycle", §5 "Shared
// state: there is none").
type RuntimeState struct {
	Particles   []ParticleRuntime `cbor:"particles"`
	Loops       []LoopRuntime     `cbor:"loops"`
	CurrentStep int               `cbor:"current_step"`
}

// NewRuntimeState builds the initial mutable state for w: zero velocity,
// initial positions from each Particle's (X0,Y0), each loop's phase at 0
// and active (§4.6 "initial velocities are (0,0)").
func NewRuntimeState(w *World) *RuntimeState {
	rs := &RuntimeState{
		Particles: make([]ParticleRuntime, len(w.Particles)),
		Loops:     make([]LoopRuntime, len(w.Loops)),
	}
	for i, p := range w.Particles {
		rs.Particles[i] = ParticleRuntime{X: p.X0, Y: p.Y0}
	}
	for i, l := range w.Loops {
		rt := LoopRuntime{Active: true}
		if l.Kind == LoopForCycles {
			rt.RemainingCycles = l.Cycles
		}
		rs.Loops[i] = rt
	}
	return rs
}

// Clone deep-copies rs, used by the stepwise API's peek() to run a
// speculative step without mutating the session (SPEC_FULL §3).
func (rs *RuntimeState) Clone() *RuntimeState {
	out := &RuntimeState{
		Particles:   make([]ParticleRuntime, len(rs.Particles)),
		Loops:       make([]LoopRuntime, len(rs.Loops)),
		CurrentStep: rs.CurrentStep,
	}
	copy(out.Particles, rs.Particles)
	copy(out.Loops, rs.Loops)
	return out
}
