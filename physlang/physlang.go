// Package physlang is PhysLang's public API (§6 "Public API (to the
// CLI/visualizer, the external collaborator)"): Compile turns source
// text into a Program or a Diagnostics list, Program.Run batch-simulates
// and returns ordered detector results, and Program.StepIter hands back
// a *physics.Session for stepwise, visualizer-driven advancement.
//
// Grounded on the teacher's cmd/pflow subcommand dispatch (main.go,
// simulate.go): a thin orchestration layer that wires the lexer/parser/
// elaborate/analysis/physics/detect pipeline together and translates
// its outputs into the shapes an external caller (here, cmd/physlang)
// consumes, carrying no simulation logic of its own.
package physlang

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AnthraxisBR/physlang/analysis"
	"github.com/AnthraxisBR/physlang/detect"
	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/elaborate"
	"github.com/AnthraxisBR/physlang/parser"
	"github.com/AnthraxisBR/physlang/physics"
	"github.com/AnthraxisBR/physlang/world"
)

// Options configures compilation and analysis (§6 "options include
// strict_dimensions, deny_warnings, max_errors").
type Options struct {
	StrictDimensions bool
	CheckDimensions  bool
	DenyWarnings     bool
	MaxErrors        int // 0 means the diagnostic.Bag default of 50

	// Filename labels diagnostic spans and the sources map a caller
	// passes to diagnostic.Render; it has no effect on compilation.
	// Defaults to "program.phys" when empty.
	Filename string
}

// Program is a successfully compiled, elaborated, analyzed world ready
// to run or step. ID gives every compiled program a stable identity
// useful for correlating logs and visualizer sessions across a long
// caller-held lifetime, matching the teacher's habit of tagging
// long-lived handles (petri.Net, results.Run) with a uuid.
type Program struct {
	ID       uuid.UUID
	Source   string
	World    *world.World
	Warnings []*diagnostic.Diagnostic
}

// Results is Program.Run's successful return shape (§6 "{ detectors:
// ordered list<name, scalar>, warnings: list }").
type Results struct {
	Detectors []detect.Result
	Warnings  []*diagnostic.Diagnostic
}

// Compile runs the full static pipeline — lex, parse, elaborate,
// analyze — and returns a Program once every phase completes with no
// errors, or the accumulated Diagnostics bag otherwise (§4.9 "stops when
// any error is present before advancing to the next phase").
func Compile(source string, opts Options) (*Program, *diagnostic.Bag) {
	maxErrors := opts.MaxErrors
	if maxErrors <= 0 {
		maxErrors = 50
	}
	bag := diagnostic.NewBag(maxErrors, opts.DenyWarnings)

	filename := opts.Filename
	if filename == "" {
		filename = "program.phys"
	}
	p := parser.New(filename, source, bag)
	prog := p.Parse()
	if bag.HasErrors() {
		return nil, bag
	}

	w := elaborate.Elaborate(prog, bag)
	if bag.HasErrors() {
		return nil, bag
	}

	analysis.Analyze(prog, w, bag, analysis.Options{
		StrictDimensions: opts.StrictDimensions,
		CheckDimensions:  opts.CheckDimensions,
	})
	if bag.HasErrors() {
		return nil, bag
	}

	id, err := uuid.NewRandom()
	if err != nil {
		// uuid generation only fails if the OS entropy source is
		// unavailable; fall back to the nil UUID rather than block
		// compilation on an identity label nothing downstream depends on.
		log.Warn().Err(err).Msg("uuid generation failed, using nil program id")
	}
	var warnings []*diagnostic.Diagnostic
	for _, d := range bag.All() {
		if d.Severity == diagnostic.SeverityWarning {
			warnings = append(warnings, d)
		}
	}
	return &Program{ID: id, Source: source, World: w, Warnings: warnings}, bag
}

// Run batch-simulates p to completion and returns its detector results
// (§6 "Program.run()"). A *physics.RuntimeError halts the run before
// detectors are evaluated (§4.7-E, §4.8 "detectors do not run").
func (p *Program) Run() (Results, error) {
	rs := world.NewRuntimeState(p.World)
	for i := 0; i < p.World.Simulate.Steps; i++ {
		if err := physics.Step(p.World, rs); err != nil {
			return Results{}, fmt.Errorf("program %s: %w", p.ID, err)
		}
	}
	results, err := detect.Evaluate(p.World, rs)
	if err != nil {
		return Results{}, err
	}
	return Results{Detectors: results, Warnings: p.Warnings}, nil
}

// StepIter hands back a stepwise session over p's world (§6
// "Program.step_iter() -> Session"), letting an external visualizer
// interleave Step/Peek calls with its own render loop.
func (p *Program) StepIter() *physics.Session {
	return physics.NewSession(p.World)
}

// Logger returns a copy of the global zerolog logger (log.Logger) that
// other PhysLang packages derive their loggers from. Changing the returned
// copy does not reconfigure them; assigning log.Logger does.
func Logger() zerolog.Logger { return log.Logger }
