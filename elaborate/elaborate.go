// Package elaborate implements PhysLang's elaborator (C4, §4.4): it walks
// a parsed ast.Program in lexical order, maintaining stacked variable,
// function, and particle environments, and emits a frozen world.World.
//
// The walk is grounded on the teacher's tokenmodel/dsl.Interpreter
// (builder.go/interpret.go): a single recursive descent over a statement
// list that both evaluates and mutates an accumulator object in place,
// generalized here from flattening a Petri-net schema into flattening a
// physical world.
package elaborate

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AnthraxisBR/physlang/ast"
	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/eval"
	"github.com/AnthraxisBR/physlang/token"
	"github.com/AnthraxisBR/physlang/world"
)

const maxCallDepth = 256
const maxForIterations = 10000

// funcInfo is one registered function definition together with its
// classified effect (§4.4 "Effect classification").
type funcInfo struct {
	decl    *ast.FnDecl
	isWorld bool
	index   int // stable slot used by the call-depth cycle bitset
}

// Elaborator carries the mutable environments threaded through the
// lexical-order walk (§9 "Environment stacking").
type Elaborator struct {
	bag *diagnostic.Bag
	log zerolog.Logger

	world       world.World
	particles   map[string]int // mangled name -> index, global
	eliminated  map[string]token.Span // mangled name -> discarding if's condition span
	funcs       map[string]*funcInfo
	funcOrder   []string
	simulateSet bool

	callDepth int
	onStack   *bitset.BitSet

	mangle []string // active for-loop suffixes, outer-to-inner
}

// Elaborate runs the full elaboration pass over prog, returning the
// frozen world.World and accumulating diagnostics into bag. Callers should
// check bag.HasErrors() before trusting the returned World: elaborate
// keeps going past recoverable errors (within the statement it's on) so
// a single pass can surface as many problems as possible, matching §9
// "diagnostics as data".
func Elaborate(prog *ast.Program, bag *diagnostic.Bag) *world.World {
	e := &Elaborator{
		bag:        bag,
		log:        log.With().Str("phase", "elaborate").Logger(),
		particles:  make(map[string]int),
		eliminated: make(map[string]token.Span),
		funcs:      make(map[string]*funcInfo),
	}
	e.log.Debug().Int("items", len(prog.Items)).Msg("elaboration started")
	env := eval.NewEnv(e.callPure)
	e.elaborateStmts(prog.Items, env)
	e.log.Debug().Int("particles", len(e.world.Particles)).Int("errors", bag.ErrorCount()).Msg("elaboration finished")
	if !e.simulateSet {
		bag.Add(diagnostic.Errorf("E1005", e.endOfProgramSpan(prog), "missing required simulate directive"))
	}
	return &e.world
}

// endOfProgramSpan returns a reasonable anchor span for program-level
// diagnostics that have no single offending token, such as a missing
// simulate directive.
func (e *Elaborator) endOfProgramSpan(prog *ast.Program) token.Span {
	if len(prog.Items) == 0 {
		return token.Span{}
	}
	return prog.Items[len(prog.Items)-1].Span()
}
