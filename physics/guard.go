package physics

import (
	"fmt"
	"math"

	"github.com/AnthraxisBR/physlang/ast"
	"github.com/AnthraxisBR/physlang/token"
	"github.com/AnthraxisBR/physlang/world"
)

// rkind distinguishes the three value shapes a while-loop guard can
// produce while it is being evaluated against live runtime state — an
// extra Vec2 case eval.Value has no use for, since eval never sees an
// Observable or a ResolvedParticleRef (§4.4's purity rule keeps those out
// of compile-time expressions entirely).
type rkind int

const (
	rScalar rkind = iota
	rBool
	rVec2
)

type rvalue struct {
	kind rkind
	num  float64
	x, y float64
	b    bool
}

func rNumber(v float64) rvalue { return rvalue{kind: rScalar, num: v} }
func rBoolean(b bool) rvalue   { return rvalue{kind: rBool, b: b} }
func rVector(x, y float64) rvalue { return rvalue{kind: rVec2, x: x, y: y} }

// evalGuard evaluates a while-loop's elaborated condition against the
// current runtime state (§4.7-A "For while-loops, evaluate the guard
// against the current world state"), grounded on eval.Eval's structure
// but over world.RuntimeState instead of a compile-time eval.Env — the
// live-state observables (Observable, ResolvedParticleRef) that eval
// structurally refuses to handle are exactly the nodes this evaluator
// exists for.
func evalGuard(cond ast.Expr, rs *world.RuntimeState) (bool, error) {
	v, err := evalRuntime(cond, rs)
	if err != nil {
		return false, err
	}
	if v.kind != rBool {
		return false, fmt.Errorf("while-loop guard did not evaluate to Bool")
	}
	return v.b, nil
}

func evalRuntime(expr ast.Expr, rs *world.RuntimeState) (rvalue, error) {
	switch n := expr.(type) {
	case *ast.NumberLit:
		if n.IsInt {
			return rNumber(float64(n.IntValue)), nil
		}
		return rNumber(n.FloatValue), nil

	case *ast.ResolvedParticleRef:
		return rvalue{}, fmt.Errorf("a bare particle reference has no scalar value outside an observable")

	case *ast.UnaryOp:
		x, err := evalRuntimeScalar(n.X, rs)
		if err != nil {
			return rvalue{}, err
		}
		return rNumber(-x), nil

	case *ast.BinaryOp:
		x, err := evalRuntimeScalar(n.X, rs)
		if err != nil {
			return rvalue{}, err
		}
		y, err := evalRuntimeScalar(n.Y, rs)
		if err != nil {
			return rvalue{}, err
		}
		switch n.Op {
		case token.Plus:
			return rNumber(x + y), nil
		case token.Minus:
			return rNumber(x - y), nil
		case token.Star:
			return rNumber(x * y), nil
		case token.Slash:
			if y == 0 {
				return rvalue{}, fmt.Errorf("division by zero in while-loop guard")
			}
			return rNumber(x / y), nil
		}
		return rvalue{}, fmt.Errorf("unhandled arithmetic operator %v in guard", n.Op)

	case *ast.CompareOp:
		x, err := evalRuntimeScalar(n.X, rs)
		if err != nil {
			return rvalue{}, err
		}
		y, err := evalRuntimeScalar(n.Y, rs)
		if err != nil {
			return rvalue{}, err
		}
		switch n.Op {
		case token.Eq:
			return rBoolean(x == y), nil
		case token.NotEq:
			return rBoolean(x != y), nil
		case token.Lt:
			return rBoolean(x < y), nil
		case token.Gt:
			return rBoolean(x > y), nil
		case token.Le:
			return rBoolean(x <= y), nil
		case token.Ge:
			return rBoolean(x >= y), nil
		}
		return rvalue{}, fmt.Errorf("unhandled comparison operator %v in guard", n.Op)

	case *ast.FieldAccess:
		v, err := evalRuntime(n.X, rs)
		if err != nil {
			return rvalue{}, err
		}
		if v.kind != rVec2 {
			return rvalue{}, fmt.Errorf("field access %q requires a Vec2 operand", n.Field)
		}
		if n.Field == "y" {
			return rNumber(v.y), nil
		}
		return rNumber(v.x), nil

	case *ast.BuiltinCall:
		return evalRuntimeBuiltin(n, rs)

	case *ast.Observable:
		return evalRuntimeObservable(n, rs)

	default:
		return rvalue{}, fmt.Errorf("unsupported expression kind %T in a while-loop guard", expr)
	}
}

func evalRuntimeScalar(expr ast.Expr, rs *world.RuntimeState) (float64, error) {
	v, err := evalRuntime(expr, rs)
	if err != nil {
		return 0, err
	}
	if v.kind != rScalar {
		return 0, fmt.Errorf("expected a Scalar in while-loop guard, found %v", v.kind)
	}
	return v.num, nil
}

func evalRuntimeBuiltin(n *ast.BuiltinCall, rs *world.RuntimeState) (rvalue, error) {
	switch n.Func {
	case token.Sin:
		x, err := evalRuntimeScalar(n.Args[0], rs)
		if err != nil {
			return rvalue{}, err
		}
		return rNumber(math.Sin(x)), nil
	case token.Cos:
		x, err := evalRuntimeScalar(n.Args[0], rs)
		if err != nil {
			return rvalue{}, err
		}
		return rNumber(math.Cos(x)), nil
	case token.Sqrt:
		x, err := evalRuntimeScalar(n.Args[0], rs)
		if err != nil {
			return rvalue{}, err
		}
		if x < 0 {
			return rvalue{}, fmt.Errorf("sqrt of a negative value (%v) in while-loop guard", x)
		}
		return rNumber(math.Sqrt(x)), nil
	case token.Clamp:
		x, err := evalRuntimeScalar(n.Args[0], rs)
		if err != nil {
			return rvalue{}, err
		}
		lo, err := evalRuntimeScalar(n.Args[1], rs)
		if err != nil {
			return rvalue{}, err
		}
		hi, err := evalRuntimeScalar(n.Args[2], rs)
		if err != nil {
			return rvalue{}, err
		}
		if lo > hi {
			return rvalue{}, fmt.Errorf("clamp bounds are inverted: lo=%v > hi=%v", lo, hi)
		}
		return rNumber(math.Min(math.Max(x, lo), hi)), nil
	}
	return rvalue{}, fmt.Errorf("unhandled builtin %v in while-loop guard", n.Func)
}

// particleIndex extracts the stable index a ResolvedParticleRef carries;
// Observable arguments are always exactly this node shape post-elaborate
// (§9 "pointer-free identity"), so this never needs the general
// evalRuntime dispatch.
func particleIndex(e ast.Expr) (int, error) {
	ref, ok := e.(*ast.ResolvedParticleRef)
	if !ok {
		return 0, fmt.Errorf("observable argument %T is not a resolved particle reference", e)
	}
	return ref.Index, nil
}

func evalRuntimeObservable(n *ast.Observable, rs *world.RuntimeState) (rvalue, error) {
	switch n.Kind {
	case ast.ObservePosition:
		i, err := particleIndex(n.Args[0])
		if err != nil {
			return rvalue{}, err
		}
		p := rs.Particles[i]
		return rVector(p.X, p.Y), nil
	case ast.ObserveDistance:
		a, err := particleIndex(n.Args[0])
		if err != nil {
			return rvalue{}, err
		}
		b, err := particleIndex(n.Args[1])
		if err != nil {
			return rvalue{}, err
		}
		pa, pb := rs.Particles[a], rs.Particles[b]
		return rNumber(math.Abs(pb.X - pa.X)), nil
	case ast.ObserveSpeed:
		i, err := particleIndex(n.Args[0])
		if err != nil {
			return rvalue{}, err
		}
		p := rs.Particles[i]
		return rNumber(math.Hypot(p.VX, p.VY)), nil
	}
	return rvalue{}, fmt.Errorf("unhandled observable kind %v", n.Kind)
}

func (k rkind) String() string {
	switch k {
	case rBool:
		return "Bool"
	case rVec2:
		return "Vec2"
	default:
		return "Scalar"
	}
}
