package elaborate

import (
	"github.com/AnthraxisBR/physlang/ast"
	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/eval"
	"github.com/AnthraxisBR/physlang/token"
)

// extractWellThreshold enforces the data model's current restriction
// that a Well is a fixed x-axis half-space test (§3 "currently x-axis
// >=-halfspace"): the surface syntax accepts a general boolean condition
// after `if`, but elaborate requires it to have the shape
// `position(owner).x >= threshold` and pulls out the scalar threshold,
// so world.Well only ever needs to carry a number, not an expression
// tree, at simulation time.
func (e *Elaborator) extractWellThreshold(cond ast.Expr, owner int, env *eval.Env) (float64, bool) {
	cmp, ok := cond.(*ast.CompareOp)
	if !ok || cmp.Op != token.Ge {
		e.badWellCondition(cond)
		return 0, false
	}
	field, ok := cmp.X.(*ast.FieldAccess)
	if !ok || field.Field != "x" {
		e.badWellCondition(cond)
		return 0, false
	}
	obs, ok := field.X.(*ast.Observable)
	if !ok || obs.Kind != ast.ObservePosition || len(obs.Args) != 1 {
		e.badWellCondition(cond)
		return 0, false
	}
	ownerRef, ok := e.resolveParticleRef(obs.Args[0])
	if !ok {
		return 0, false
	}
	if ownerRef != owner {
		e.bag.Add(diagnostic.Errorf("E0107", cond.Span(), "well condition observes a different particle than the one declared with `on`"))
		return 0, false
	}
	v, ok := eval.Eval(cmp.Y, env, e.bag)
	if !ok {
		return 0, false
	}
	return v.Num, true
}

func (e *Elaborator) badWellCondition(cond ast.Expr) {
	e.bag.Add(diagnostic.Errorf("E0106", cond.Span(), "well condition must have the form position(owner).x >= threshold"))
}

// resolveRuntimeExpr rewrites a while-loop guard for runtime
// re-evaluation each step (§4.7-A): every Ident naming a particle is
// replaced by a ResolvedParticleRef baked with its stable index, and
// every purely-scalar Ident (a compile-time let binding) is folded to its
// constant value, so the physics runtime never needs a name table to
// evaluate a guard (§9 "pointer-free identity").
func (e *Elaborator) resolveRuntimeExpr(expr ast.Expr, env *eval.Env) ast.Expr {
	switch n := expr.(type) {
	case *ast.NumberLit, *ast.StringLit:
		return n
	case *ast.Ident:
		if idx, ok := e.particles[e.mangledName(n.Name)]; ok {
			return &ast.ResolvedParticleRef{Index: idx, Sp: n.Sp}
		}
		if idx, ok := e.particles[n.Name]; ok {
			return &ast.ResolvedParticleRef{Index: idx, Sp: n.Sp}
		}
		v, ok := eval.Eval(n, env, e.bag)
		if !ok {
			return &ast.NumberLit{FloatValue: 0, Sp: n.Sp}
		}
		return &ast.NumberLit{FloatValue: v.Num, Sp: n.Sp}
	case *ast.UnaryOp:
		return &ast.UnaryOp{X: e.resolveRuntimeExpr(n.X, env), Sp: n.Sp}
	case *ast.BinaryOp:
		return &ast.BinaryOp{Op: n.Op, X: e.resolveRuntimeExpr(n.X, env), Y: e.resolveRuntimeExpr(n.Y, env), Sp: n.Sp}
	case *ast.CompareOp:
		return &ast.CompareOp{Op: n.Op, X: e.resolveRuntimeExpr(n.X, env), Y: e.resolveRuntimeExpr(n.Y, env), Sp: n.Sp}
	case *ast.FieldAccess:
		return &ast.FieldAccess{X: e.resolveRuntimeExpr(n.X, env), Field: n.Field, Sp: n.Sp}
	case *ast.BuiltinCall:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = e.resolveRuntimeExpr(a, env)
		}
		return &ast.BuiltinCall{Func: n.Func, Args: args, Sp: n.Sp}
	case *ast.Observable:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = e.resolveRuntimeExpr(a, env)
		}
		return &ast.Observable{Kind: n.Kind, Args: args, Sp: n.Sp}
	case *ast.ResolvedParticleRef:
		return n
	default:
		e.bag.Add(diagnostic.Errorf("E0406", expr.Span(), "unsupported expression inside a while-loop guard"))
		return &ast.NumberLit{FloatValue: 0, Sp: expr.Span()}
	}
}
