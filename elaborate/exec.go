package elaborate

import (
	"github.com/AnthraxisBR/physlang/ast"
	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/eval"
)

// returnOutcome distinguishes why execBody returned no usable value,
// so a pure-function caller (callPure) can tell a `return;` with no
// expression (E0217) apart from a `return <expr>;` whose expression
// already failed to evaluate (diagnosed once, at the point of failure,
// by eval.Eval itself — no second diagnostic is warranted).
type returnOutcome int

const (
	returnNone       returnOutcome = iota // no return statement fired
	returnValue                           // returned a usable Scalar/Bool
	returnBare                            // `return;` with no expression
	returnEvalFailed                      // `return <expr>;` where expr failed to evaluate
	returnInvokeFailed                    // the call itself failed before the body ran (already diagnosed)
)

// execBody runs a function body, the one place elaborate needs
// early-return control flow rather than the flat top-level walk
// elaborateStmts performs. It returns (value, outcome): outcome is
// returnNone unless a `return` (with or without a value) has fired
// anywhere in the body, including inside a nested if/for/match block.
func (e *Elaborator) execBody(stmts []ast.Stmt, env *eval.Env) (eval.Value, returnOutcome) {
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.ReturnStmt:
			if n.Value == nil {
				return eval.Value{}, returnBare
			}
			v, ok := eval.Eval(n.Value, env, e.bag)
			if !ok {
				return eval.Value{}, returnEvalFailed
			}
			return v, returnValue

		case *ast.IfStmt:
			cond, ok := eval.Eval(n.Cond, env, e.bag)
			if !ok {
				continue
			}
			if cond.Kind != eval.KindBool {
				e.bag.Add(diagnostic.Errorf("E0403", n.Cond.Span(), "if condition must be Bool, found Scalar"))
				continue
			}
			branch := n.Else
			if cond.Bool {
				branch = n.Then
			}
			v, outcome := e.execBody(branch, env.Push())
			if outcome != returnNone {
				return v, outcome
			}

		case *ast.ForStmt:
			lo, hi, ok := e.forBounds(n, env)
			if !ok {
				continue
			}
			for i := lo; i < hi; i++ {
				child := env.Push()
				child.Set(n.Var, eval.Value{Kind: eval.KindScalar, Num: float64(i)})
				e.mangle = append(e.mangle, mangleSuffix(i))
				v, outcome := e.execBody(n.Body, child)
				e.mangle = e.mangle[:len(e.mangle)-1]
				if outcome != returnNone {
					return v, outcome
				}
			}

		case *ast.MatchStmt:
			chosen, ok := e.matchArm(n, env)
			if !ok {
				continue
			}
			if chosen != nil {
				v, outcome := e.execBody(chosen.Body, env.Push())
				if outcome != returnNone {
					return v, outcome
				}
			}

		case *ast.LetStmt:
			e.elaborateLet(n, env)
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
		case *ast.FnDecl:
			e.registerFn(n)
		case *ast.ModuleDecl:
			v, outcome := e.execBody(n.Body, env)
			if outcome != returnNone {
				return v, outcome
			}
		case *ast.ImportDecl:
			// no-op
		case *ast.ExprStmt:
			e.callStatement(n.Call, env)
		default:
			e.bag.Add(diagnostic.Errorf("E0399", s.Span(), "internal: unhandled statement kind %T in function body", s))
		}
	}
	return eval.Value{}, returnNone
}

// forBounds evaluates and range-checks a for statement's bounds, shared
// by the top-level walk (elaborateFor) and function-body execution
// (execBody).
func (e *Elaborator) forBounds(n *ast.ForStmt, env *eval.Env) (int, int, bool) {
	start, ok := eval.Eval(n.Start, env, e.bag)
	if !ok {
		return 0, 0, false
	}
	end, ok := eval.Eval(n.End, env, e.bag)
	if !ok {
		return 0, 0, false
	}
	if !isIntegral(start.Num) || !isIntegral(end.Num) {
		e.bag.Add(diagnostic.Errorf("E0404", n.Sp, "for bounds must be compile-time constant integers"))
		return 0, 0, false
	}
	lo, hi := int(start.Num), int(end.Num)
	count := hi - lo
	if count < 0 || count > maxForIterations {
		e.bag.Add(diagnostic.Errorf("E0312", n.Sp, "for iteration count %d is out of the allowed range [0, %d]", count, maxForIterations))
		return 0, 0, false
	}
	return lo, hi, true
}

// matchArm selects the arm a match statement would run, sharing the
// duplicate/exhaustiveness checks between the top-level walk
// (elaborateMatch) and function-body execution (execBody).
func (e *Elaborator) matchArm(n *ast.MatchStmt, env *eval.Env) (*ast.MatchArm, bool) {
	scrutinee, ok := eval.Eval(n.Scrutinee, env, e.bag)
	if !ok {
		return nil, false
	}
	if !isIntegral(scrutinee.Num) {
		e.bag.Add(diagnostic.Errorf("E0405", n.Scrutinee.Span(), "match scrutinee must be integer-valued"))
		return nil, false
	}
	v := int64(scrutinee.Num)

	seen := make(map[int64]bool)
	var wildcard, chosen *ast.MatchArm
	for i := range n.Arms {
		arm := &n.Arms[i]
		if arm.Pattern == nil {
			if wildcard != nil {
				e.bag.Add(diagnostic.Errorf("E0212", arm.Sp, "duplicate wildcard arm in match"))
				return nil, false
			}
			wildcard = arm
			continue
		}
		if seen[*arm.Pattern] {
			e.bag.Add(diagnostic.Errorf("E0213", arm.Sp, "duplicate match pattern %d", *arm.Pattern))
			return nil, false
		}
		seen[*arm.Pattern] = true
		if *arm.Pattern == v && chosen == nil {
			chosen = arm
		}
	}
	if chosen == nil {
		chosen = wildcard
	}
	if chosen == nil {
		e.bag.Add(diagnostic.Errorf("E0214", n.Sp, "non-exhaustive match: no arm matches %d and there is no wildcard", v))
		return nil, false
	}
	return chosen, true
}
