package elaborate

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/AnthraxisBR/physlang/ast"
	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/eval"
	"github.com/AnthraxisBR/physlang/token"
	"github.com/AnthraxisBR/physlang/world"
)

// elaborateStmts walks stmts in lexical order under env, dispatching each
// to its declaration handler (§4.4 phase 1).
func (e *Elaborator) elaborateStmts(stmts []ast.Stmt, env *eval.Env) {
	for _, s := range stmts {
		e.elaborateStmt(s, env)
	}
}

func (e *Elaborator) elaborateStmt(s ast.Stmt, env *eval.Env) {
	switch n := s.(type) {
	case *ast.LetStmt:
		e.elaborateLet(n, env)
	case *ast.FnDecl:
		e.registerFn(n)
	case *ast.ParticleDecl:
		e.elaborateParticle(n, env)
	case *ast.ForceDecl:
		e.elaborateForce(n, env)
	case *ast.WellDecl:
		e.elaborateWell(n, env)
	case *ast.LoopDecl:
		e.elaborateLoop(n, env)
	case *ast.SimulateDecl:
		e.elaborateSimulate(n, env)
	case *ast.DetectDecl:
		e.elaborateDetect(n, env)
	case *ast.IfStmt:
		e.elaborateIf(n, env)
	case *ast.ForStmt:
		e.elaborateFor(n, env)
	case *ast.MatchStmt:
		e.elaborateMatch(n, env)
	case *ast.ModuleDecl:
		e.elaborateStmts(n.Body, env)
	case *ast.ImportDecl:
		// no-op: file resolution is the CLI collaborator's job (§1).
	case *ast.ExprStmt:
		e.elaborateExprStmt(n, env)
	case *ast.ReturnStmt:
		e.bag.Add(diagnostic.Errorf("E0211", n.Sp, "return is only valid inside a function body"))
	default:
		e.bag.Add(diagnostic.Errorf("E0399", s.Span(), "internal: unhandled statement kind %T", s))
	}
}

func (e *Elaborator) elaborateLet(n *ast.LetStmt, env *eval.Env) {
	v, ok := eval.Eval(n.Value, env, e.bag)
	if !ok {
		return
	}
	env.Set(n.Name, v)
}

// mangledName applies the outer-to-inner for-loop suffix chain to name
// (§4.4 item 3, §9 "Name mangling").
func (e *Elaborator) mangledName(name string) string {
	if len(e.mangle) == 0 {
		return name
	}
	return name + strings.Join(e.mangle, "")
}

func (e *Elaborator) declareParticle(name string, x0, y0, mass float64, sp token.Span) (int, bool) {
	mangled := e.mangledName(name)
	if _, exists := e.particles[mangled]; exists {
		e.bag.Add(diagnostic.Errorf("E0101", sp, "duplicate particle name %q", mangled))
		return 0, false
	}
	if mass <= 0 {
		e.bag.Add(diagnostic.Errorf("E1002", sp, "particle %q must have mass > 0, found %v", mangled, mass))
		return 0, false
	}
	idx := len(e.world.Particles)
	e.world.Particles = append(e.world.Particles, world.Particle{
		Index: idx, Name: mangled, X0: x0, Y0: y0, Mass: mass, Sp: sp,
	})
	e.particles[mangled] = idx
	return idx, true
}

func (e *Elaborator) elaborateParticle(n *ast.ParticleDecl, env *eval.Env) {
	x, ok1 := eval.Eval(n.X, env, e.bag)
	y, ok2 := eval.Eval(n.Y, env, e.bag)
	m, ok3 := eval.Eval(n.Mass, env, e.bag)
	if !ok1 || !ok2 || !ok3 {
		return
	}
	e.declareParticle(n.Name, eval.MustScalar(x), eval.MustScalar(y), eval.MustScalar(m), n.Sp)
}

// resolveParticleRef requires expr to be a bare *ast.Ident naming an
// already-declared particle (mangling-aware: a reference inside the same
// for-loop nest resolves against the currently active suffix chain).
func (e *Elaborator) resolveParticleRef(expr ast.Expr) (int, bool) {
	ident, ok := expr.(*ast.Ident)
	if !ok {
		e.bag.Add(diagnostic.Errorf("E0402", expr.Span(), "expected a particle reference"))
		return 0, false
	}
	if idx, ok := e.particles[e.mangledName(ident.Name)]; ok {
		return idx, true
	}
	if idx, ok := e.particles[ident.Name]; ok {
		return idx, true
	}
	if condSp, ok := e.eliminated[e.mangledName(ident.Name)]; ok {
		e.bag.Add(diagnostic.Errorf("E1001", ident.Sp,
			"particle %q was never declared: its declaration sits in a branch whose condition evaluated to false", ident.Name).
			WithLabel(condSp, "condition evaluated to false here"))
		return 0, false
	}
	if condSp, ok := e.eliminated[ident.Name]; ok {
		e.bag.Add(diagnostic.Errorf("E1001", ident.Sp,
			"particle %q was never declared: its declaration sits in a branch whose condition evaluated to false", ident.Name).
			WithLabel(condSp, "condition evaluated to false here"))
		return 0, false
	}
	e.bag.Add(diagnostic.Errorf("E0310", ident.Sp, "undefined particle %q", ident.Name))
	return 0, false
}

// recordEliminatedParticles walks a discarded if-branch's statement list,
// recording every particle name that would have been declared had the
// branch been taken, so a later reference to it can be reported as E1001
// ("eliminated by control flow") rather than a generic E0310 (§8 scenario
// 4). It only descends into other compile-time-control containers — a
// particle inside a pure function's body never reaches world state
// regardless of whether the function is called (§4.4 effect rules).
func (e *Elaborator) recordEliminatedParticles(stmts []ast.Stmt, condSp token.Span) {
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.ParticleDecl:
			e.eliminated[e.mangledName(n.Name)] = condSp
		case *ast.IfStmt:
			e.recordEliminatedParticles(n.Then, condSp)
			e.recordEliminatedParticles(n.Else, condSp)
		case *ast.ForStmt:
			e.recordEliminatedParticles(n.Body, condSp)
		case *ast.MatchStmt:
			for _, arm := range n.Arms {
				e.recordEliminatedParticles(arm.Body, condSp)
			}
		case *ast.ModuleDecl:
			e.recordEliminatedParticles(n.Body, condSp)
		}
	}
}

func (e *Elaborator) elaborateForce(n *ast.ForceDecl, env *eval.Env) {
	a, ok1 := e.resolveParticleRef(n.A)
	b, ok2 := e.resolveParticleRef(n.B)
	if !ok1 || !ok2 {
		return
	}
	f := world.BinaryForce{Kind: world.ForceKind(n.Kind), A: a, B: b, Sp: n.Sp}
	switch n.Kind {
	case ast.ForceGravity:
		g, ok := eval.Eval(n.G, env, e.bag)
		if !ok {
			return
		}
		f.G = eval.MustScalar(g)
		if f.G < 0 {
			e.bag.Add(diagnostic.Warnf("W1002", n.Sp, "negative gravitational constant %v produces repulsion", f.G))
		}
	case ast.ForceSpring:
		k, ok := eval.Eval(n.K, env, e.bag)
		if !ok {
			return
		}
		rest, ok := eval.Eval(n.Rest, env, e.bag)
		if !ok {
			return
		}
		fk, frest := eval.MustScalar(k), eval.MustScalar(rest)
		if fk < 0 {
			e.bag.Add(diagnostic.Errorf("E1003", n.Sp, "spring stiffness must be >= 0, found %v", fk))
			return
		}
		if frest < 0 {
			e.bag.Add(diagnostic.Errorf("E1004", n.Sp, "spring rest length must be >= 0, found %v", frest))
			return
		}
		f.K, f.Rest = fk, frest
	}
	e.world.Forces = append(e.world.Forces, f)
}

func (e *Elaborator) elaborateWell(n *ast.WellDecl, env *eval.Env) {
	owner, ok := e.resolveParticleRef(n.Owner)
	if !ok {
		return
	}
	threshold, ok := e.extractWellThreshold(n.Threshold, owner, env)
	if !ok {
		return
	}
	depth, ok := eval.Eval(n.Depth, env, e.bag)
	if !ok {
		return
	}
	fdepth := eval.MustScalar(depth)
	if fdepth < 0 {
		e.bag.Add(diagnostic.Warnf("W1003", n.Sp, "negative well depth %v", fdepth))
	}
	e.world.Wells = append(e.world.Wells, world.Well{Owner: owner, Threshold: threshold, Depth: fdepth, Sp: n.Sp})
}

func (e *Elaborator) elaborateLoop(n *ast.LoopDecl, env *eval.Env) {
	target, ok := e.resolveParticleRef(n.Target)
	if !ok {
		return
	}
	freq, ok := eval.Eval(n.Frequency, env, e.bag)
	if !ok {
		return
	}
	ffreq := eval.MustScalar(freq)
	if ffreq <= 0 {
		e.bag.Add(diagnostic.Errorf("E1006", n.Sp, "loop frequency must be > 0, found %v", ffreq))
		return
	}
	damp, ok := eval.Eval(n.Damping, env, e.bag)
	if !ok {
		return
	}
	fdamp := eval.MustScalar(damp)
	if fdamp < 0 {
		e.bag.Add(diagnostic.Warnf("W1004", n.Sp, "negative damping %v", fdamp))
	}

	l := world.Loop{Frequency: ffreq, Damping: fdamp, Target: target, Sp: n.Sp}
	switch n.Kind {
	case ast.LoopForCycles:
		cycles, ok := eval.Eval(n.Cycles, env, e.bag)
		if !ok {
			return
		}
		fcycles := eval.MustScalar(cycles)
		if fcycles <= 0 {
			e.bag.Add(diagnostic.Errorf("E1007", n.Sp, "loop cycle count must be > 0, found %v", fcycles))
			return
		}
		l.Kind = world.LoopForCycles
		l.Cycles = int(fcycles)
	case ast.LoopWhile:
		l.Kind = world.LoopWhile
		l.Cond = e.resolveRuntimeExpr(n.Cond, env)
	}
	for _, push := range n.Body {
		p, ok := e.elaboratePush(push, env)
		if !ok {
			return
		}
		l.Body = append(l.Body, p)
	}
	e.world.Loops = append(e.world.Loops, l)
}

func (e *Elaborator) elaboratePush(n *ast.PushStmt, env *eval.Env) (world.Push, bool) {
	target, ok := e.resolveParticleRef(n.Target)
	if !ok {
		return world.Push{}, false
	}
	mag, ok := eval.Eval(n.Magnitude, env, e.bag)
	if !ok {
		return world.Push{}, false
	}
	dx, ok := eval.Eval(n.Dx, env, e.bag)
	if !ok {
		return world.Push{}, false
	}
	dy, ok := eval.Eval(n.Dy, env, e.bag)
	if !ok {
		return world.Push{}, false
	}
	return world.Push{Target: target, Magnitude: eval.MustScalar(mag), Dx: eval.MustScalar(dx), Dy: eval.MustScalar(dy)}, true
}

func (e *Elaborator) elaborateSimulate(n *ast.SimulateDecl, env *eval.Env) {
	if e.simulateSet {
		e.bag.Add(diagnostic.Errorf("E0102", n.Sp, "duplicate simulate directive: at most one is allowed"))
		return
	}
	dt, ok := eval.Eval(n.Dt, env, e.bag)
	if !ok {
		return
	}
	steps, ok := eval.Eval(n.Steps, env, e.bag)
	if !ok {
		return
	}
	fdt, fsteps := eval.MustScalar(dt), eval.MustScalar(steps)
	if fdt <= 0 {
		e.bag.Add(diagnostic.Errorf("E1008", n.Sp, "dt must be > 0, found %v", fdt))
		return
	}
	if fsteps <= 0 || fsteps != float64(int(fsteps)) {
		e.bag.Add(diagnostic.Errorf("E1009", n.Sp, "steps must be a positive integer, found %v", fsteps))
		return
	}
	e.world.Simulate = world.SimulateConfig{Dt: fdt, Steps: int(fsteps)}
	e.simulateSet = true
}

func (e *Elaborator) elaborateDetect(n *ast.DetectDecl, env *eval.Env) {
	var args []int
	for _, a := range n.Args {
		idx, ok := e.resolveParticleRef(a)
		if !ok {
			return
		}
		args = append(args, idx)
	}
	if slices.ContainsFunc(e.world.Detectors, func(d world.Detector) bool { return d.Name == n.Name }) {
		e.bag.Add(diagnostic.Errorf("E0103", n.Sp, "duplicate detector name %q", n.Name))
		return
	}
	e.world.Detectors = append(e.world.Detectors, world.Detector{
		Name: n.Name, Kind: world.DetectKind(n.Kind), Args: args, Sp: n.Sp,
	})
}

func (e *Elaborator) elaborateIf(n *ast.IfStmt, env *eval.Env) {
	cond, ok := eval.Eval(n.Cond, env, e.bag)
	if !ok {
		return
	}
	if cond.Kind != eval.KindBool {
		e.bag.Add(diagnostic.Errorf("E0403", n.Cond.Span(), "if condition must be Bool, found Scalar"))
		return
	}
	taken, discarded := n.Else, n.Then
	if cond.Bool {
		taken, discarded = n.Then, n.Else
	}
	e.recordEliminatedParticles(discarded, n.Cond.Span())
	e.elaborateStmts(taken, env.Push())
}

func (e *Elaborator) elaborateFor(n *ast.ForStmt, env *eval.Env) {
	lo, hi, ok := e.forBounds(n, env)
	if !ok {
		return
	}
	for i := lo; i < hi; i++ {
		child := env.Push()
		child.Set(n.Var, eval.Value{Kind: eval.KindScalar, Num: float64(i)})
		e.mangle = append(e.mangle, mangleSuffix(i))
		e.elaborateStmts(n.Body, child)
		e.mangle = e.mangle[:len(e.mangle)-1]
	}
}

func mangleSuffix(i int) string { return fmt.Sprintf("_%d", i) }

func isIntegral(v float64) bool { return v == float64(int(v)) }

func (e *Elaborator) elaborateMatch(n *ast.MatchStmt, env *eval.Env) {
	chosen, ok := e.matchArm(n, env)
	if !ok || chosen == nil {
		return
	}
	e.elaborateStmts(chosen.Body, env.Push())
}

func (e *Elaborator) elaborateExprStmt(n *ast.ExprStmt, env *eval.Env) {
	e.callStatement(n.Call, env)
}
