// Package eval implements PhysLang's pure scalar expression evaluator
// (§4.3), grounded on the teacher's tokenmodel/guard.Eval: a small
// recursive dispatch over an expression tree against a variable
// environment, returning a tagged Value rather than panicking on a type
// mismatch.
package eval

import (
	"fmt"
	"math"

	"github.com/AnthraxisBR/physlang/ast"
	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/token"
)

// Kind distinguishes the two value shapes Eval can produce. Vec2 and
// ParticleRef values only arise from observables and field access, which
// are resolved structurally by the elaborator, never by Eval itself
// (§4.4's purity requirement on if/for/match keeps them out of this
// evaluator's reach).
type Kind int

const (
	KindScalar Kind = iota
	KindBool
)

// Value is a tagged compile-time result: either a float32-precision
// scalar or a boolean, matching the Scalar/Bool half of the four-type
// judgment system used by the ones Eval can actually produce (§4.5).
type Value struct {
	Kind Kind
	Num  float64
	Bool bool
}

// Number wraps a scalar, rounding it to IEEE-754 binary32 precision
// per §4.3.
func Number(v float64) Value { return Value{Kind: KindScalar, Num: float64(float32(v))} }

// Boolean wraps a truth value.
func Boolean(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// CallFunc resolves a user function call to a scalar result, invoked by
// Eval when it encounters an ast.CallExpr. The elaborator supplies this
// hook (wired through Env) so eval never needs to import elaborate,
// keeping the call-depth cap and effect classification entirely the
// elaborator's concern (§4.4 phase 5).
type CallFunc func(name string, args []Value, sp token.Span) (Value, bool)

// Env is a single lexical scope: a small map plus a parent pointer,
// matching §9's "Environment stacking" guidance to favor a scope-delimited
// push/pop structure over a persistent map.
type Env struct {
	vars   map[string]Value
	parent *Env
	call   CallFunc
}

// NewEnv creates a root scope. call may be nil if the caller never
// expects a CallExpr to appear (e.g. evaluating a detector argument).
func NewEnv(call CallFunc) *Env {
	return &Env{vars: make(map[string]Value), call: call}
}

// Push creates a child scope; lookups fall through to parent on miss,
// and the call hook is inherited.
func (e *Env) Push() *Env {
	return &Env{vars: make(map[string]Value), parent: e, call: e.call}
}

// Set binds name in this scope, shadowing any outer binding of the same
// name for the lifetime of this scope.
func (e *Env) Set(name string, v Value) { e.vars[name] = v }

// Lookup resolves name against this scope then its ancestors, matching
// §4.3's "local → parameter → global" priority (each nested Push is a
// tighter scope than its parent).
func (e *Env) Lookup(name string) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

const epsilon = 1e-6

// Eval evaluates expr against env, reporting a diagnostic and returning
// ok=false on any failure (unbound name, wrong-kind operand, sqrt of a
// negative, clamp with lo>hi, division by zero, an undefined/
// impure/unreachable call). Failures are accumulated in bag rather than
// panicking, matching §9 "diagnostics as data".
func Eval(expr ast.Expr, env *Env, bag *diagnostic.Bag) (Value, bool) {
	switch n := expr.(type) {
	case *ast.NumberLit:
		if n.IsInt {
			return Value{Kind: KindScalar, Num: float64(n.IntValue)}, true
		}
		return Number(n.FloatValue), true

	case *ast.Ident:
		v, ok := env.Lookup(n.Name)
		if !ok {
			bag.Add(diagnostic.Errorf("E0302", n.Sp, "undefined name %q", n.Name))
			return Value{}, false
		}
		return v, true

	case *ast.UnaryOp:
		x, ok := evalScalar(n.X, env, bag)
		if !ok {
			return Value{}, false
		}
		return Number(-x), true

	case *ast.BinaryOp:
		return evalBinary(n, env, bag)

	case *ast.CompareOp:
		return evalCompare(n, env, bag)

	case *ast.BuiltinCall:
		return evalBuiltin(n, env, bag)

	case *ast.CallExpr:
		return evalCall(n, env, bag)

	case *ast.StringLit:
		bag.Add(diagnostic.Errorf("E0303", n.Sp, "a string literal cannot be used as a scalar expression"))
		return Value{}, false

	case *ast.FieldAccess:
		bag.Add(diagnostic.Errorf("E0304", n.Sp, "field access on a Vec2 is not a compile-time constant expression here"))
		return Value{}, false

	case *ast.Observable:
		bag.Add(diagnostic.Errorf("E0305", n.Sp, "an observable cannot be used in a compile-time-pure expression"))
		return Value{}, false

	default:
		bag.Add(diagnostic.Errorf("E0399", expr.Span(), "internal: unhandled expression kind %T", expr))
		return Value{}, false
	}
}

// evalScalar is a convenience wrapper used by operators that require a
// KindScalar operand, reporting E0401 on a kind mismatch.
func evalScalar(expr ast.Expr, env *Env, bag *diagnostic.Bag) (float64, bool) {
	v, ok := Eval(expr, env, bag)
	if !ok {
		return 0, false
	}
	if v.Kind != KindScalar {
		bag.Add(diagnostic.Errorf("E0401", expr.Span(), "expected a Scalar, found Bool"))
		return 0, false
	}
	return v.Num, true
}

func evalBinary(n *ast.BinaryOp, env *Env, bag *diagnostic.Bag) (Value, bool) {
	x, ok := evalScalar(n.X, env, bag)
	if !ok {
		return Value{}, false
	}
	y, ok := evalScalar(n.Y, env, bag)
	if !ok {
		return Value{}, false
	}
	switch n.Op {
	case token.Plus:
		return Number(x + y), true
	case token.Minus:
		return Number(x - y), true
	case token.Star:
		return Number(x * y), true
	case token.Slash:
		if y == 0 {
			bag.Add(diagnostic.Errorf("E0306", n.Sp, "division by zero"))
			return Value{}, false
		}
		return Number(x / y), true
	default:
		bag.Add(diagnostic.Errorf("E0399", n.Sp, "internal: unhandled arithmetic operator %v", n.Op))
		return Value{}, false
	}
}

func evalCompare(n *ast.CompareOp, env *Env, bag *diagnostic.Bag) (Value, bool) {
	x, ok := evalScalar(n.X, env, bag)
	if !ok {
		return Value{}, false
	}
	y, ok := evalScalar(n.Y, env, bag)
	if !ok {
		return Value{}, false
	}
	switch n.Op {
	case token.Eq:
		return Boolean(x == y), true
	case token.NotEq:
		return Boolean(x != y), true
	case token.Lt:
		return Boolean(x < y), true
	case token.Gt:
		return Boolean(x > y), true
	case token.Le:
		return Boolean(x <= y), true
	case token.Ge:
		return Boolean(x >= y), true
	default:
		bag.Add(diagnostic.Errorf("E0399", n.Sp, "internal: unhandled comparison operator %v", n.Op))
		return Value{}, false
	}
}

func evalBuiltin(n *ast.BuiltinCall, env *Env, bag *diagnostic.Bag) (Value, bool) {
	switch n.Func {
	case token.Sin:
		x, ok := evalScalar(n.Args[0], env, bag)
		if !ok {
			return Value{}, false
		}
		return Number(math.Sin(x)), true
	case token.Cos:
		x, ok := evalScalar(n.Args[0], env, bag)
		if !ok {
			return Value{}, false
		}
		return Number(math.Cos(x)), true
	case token.Sqrt:
		x, ok := evalScalar(n.Args[0], env, bag)
		if !ok {
			return Value{}, false
		}
		if x < 0 {
			bag.Add(diagnostic.Errorf("E0307", n.Sp, "sqrt of a negative value (%v)", x))
			return Value{}, false
		}
		return Number(math.Sqrt(x)), true
	case token.Clamp:
		x, ok := evalScalar(n.Args[0], env, bag)
		if !ok {
			return Value{}, false
		}
		lo, ok := evalScalar(n.Args[1], env, bag)
		if !ok {
			return Value{}, false
		}
		hi, ok := evalScalar(n.Args[2], env, bag)
		if !ok {
			return Value{}, false
		}
		if lo > hi {
			bag.Add(diagnostic.Errorf("E0308", n.Sp, "clamp bounds are inverted: lo=%v > hi=%v", lo, hi))
			return Value{}, false
		}
		return Number(math.Min(math.Max(x, lo), hi)), true
	default:
		bag.Add(diagnostic.Errorf("E0399", n.Sp, "internal: unhandled builtin %v", n.Func))
		return Value{}, false
	}
}

func evalCall(n *ast.CallExpr, env *Env, bag *diagnostic.Bag) (Value, bool) {
	if env.call == nil {
		bag.Add(diagnostic.Errorf("E0309", n.Sp, "function calls are not permitted in this expression context"))
		return Value{}, false
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, ok := Eval(a, env, bag)
		if !ok {
			return Value{}, false
		}
		args[i] = v
	}
	v, ok := env.call(n.Name, args, n.Sp)
	if !ok {
		// The call hook is responsible for adding its own diagnostic
		// (unknown name, non-pure in a pure context, call-depth cap).
		return Value{}, false
	}
	return v, true
}

// Epsilon exposes the division/normalization guard §4.7 names so
// physics and well evaluation share one constant rather than each
// hand-copying 1e-6.
func Epsilon() float64 { return epsilon }

// MustScalar panics if v is not a Scalar; used only in call sites that
// have already type-checked v via analysis and cannot fail here.
func MustScalar(v Value) float64 {
	if v.Kind != KindScalar {
		panic(fmt.Sprintf("eval: MustScalar called on a %v value", v.Kind))
	}
	return v.Num
}

func (k Kind) String() string {
	if k == KindBool {
		return "Bool"
	}
	return "Scalar"
}
