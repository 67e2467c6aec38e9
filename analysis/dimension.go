package analysis

import (
	"github.com/AnthraxisBR/physlang/ast"
	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/token"
	"github.com/AnthraxisBR/physlang/world"
)

// dim is a base-dimension vector (length, mass, time exponents), the
// inference target §4.5's dimensional-analysis paragraph describes
// ("positions L, masses M, dt T ... addition and comparison require
// matching dimensions; multiplication/division compose; trig requires
// dimensionless"). poly marks a bare numeric literal: its dimension is
// not yet fixed by context, so it is compatible with any other operand's
// dimension rather than only with dimless ones (5.0 must be allowed to
// compare against a Length without being flagged as a mismatch).
type dim struct {
	l, m, t int
	poly    bool
}

var (
	dimless   = dim{}
	dimLength = dim{l: 1}
	dimTime   = dim{t: 1}
	dimPoly   = dim{poly: true}
)

func (d dim) bare() dim { return dim{l: d.l, m: d.m, t: d.t} }

func (d dim) add(o dim) dim {
	if d.poly {
		return o
	}
	if o.poly {
		return d
	}
	return dim{l: d.l + o.l, m: d.m + o.m, t: d.t + o.t}
}

func (d dim) sub(o dim) dim {
	if d.poly {
		return dim{l: -o.l, m: -o.m, t: -o.t}
	}
	if o.poly {
		return d
	}
	return dim{l: d.l - o.l, m: d.m - o.m, t: d.t - o.t}
}

// matches reports whether d and o are compatible for addition/comparison:
// equal, or either side is an unfixed literal.
func (d dim) matches(o dim) bool {
	if d.poly || o.poly {
		return true
	}
	return d.bare() == o.bare()
}

func (d dim) isDimless() bool { return d.poly || d.bare() == dimless }

// checkDimensions runs the opt-in dimensional-analysis pass (§4.5). The
// only place World still carries a live expression tree after
// elaboration is a while-loop's guard (world.Loop.Cond); every other
// numeric quantity has already been reduced to a plain float64 by
// elaborate, so that is the only surface this pass can meaningfully
// check (see DESIGN.md for why full propagation through arbitrary
// compile-time expressions is out of scope: PhysLang's surface syntax
// carries no unit annotations to seed inference with, so any checker
// over pre-elaboration expressions would be guessing, not inferring).
func checkDimensions(w *world.World, bag *diagnostic.Bag, strict bool) {
	for _, l := range w.Loops {
		if l.Cond == nil {
			continue
		}
		inferDim(l.Cond, bag, strict)
	}
}

// inferDim infers e's dimension bottom-up, emitting a mismatch
// diagnostic (warning, or error in strict mode) the first time two
// operands disagree, and returning dimless from that point on so a
// single mismatch doesn't cascade into spurious repeats up the tree.
func inferDim(e ast.Expr, bag *diagnostic.Bag, strict bool) dim {
	switch n := e.(type) {
	case *ast.NumberLit:
		return dimPoly
	case *ast.ResolvedParticleRef:
		return dimless // not itself dimensioned; only its .x/.y projection is
	case *ast.UnaryOp:
		return inferDim(n.X, bag, strict)
	case *ast.BinaryOp:
		x, y := inferDim(n.X, bag, strict), inferDim(n.Y, bag, strict)
		switch n.Op {
		case token.Plus, token.Minus:
			if !x.matches(y) {
				reportMismatch("W1201", "E1201", n.Sp, bag, strict)
				return dimless
			}
			if x.poly {
				return y
			}
			return x
		case token.Star:
			return x.add(y)
		case token.Slash:
			return x.sub(y)
		}
		return dimless
	case *ast.CompareOp:
		x, y := inferDim(n.X, bag, strict), inferDim(n.Y, bag, strict)
		if !x.matches(y) {
			reportMismatch("W1202", "E1202", n.Sp, bag, strict)
		}
		return dimless // comparisons produce Bool, which carries no dimension
	case *ast.FieldAccess:
		base := inferDim(n.X, bag, strict)
		if base.bare() == dimLength {
			return dimLength // .x/.y narrows a Vec2 position without changing its dimension
		}
		return base
	case *ast.BuiltinCall:
		for _, a := range n.Args {
			d := inferDim(a, bag, strict)
			if n.Func != token.Clamp && !d.isDimless() {
				reportMismatch("W1203", "E1203", n.Sp, bag, strict)
			}
		}
		return dimless
	case *ast.Observable:
		switch n.Kind {
		case ast.ObservePosition, ast.ObserveDistance:
			return dimLength
		case ast.ObserveSpeed:
			return dimLength.sub(dimTime)
		}
		return dimless
	default:
		return dimless
	}
}

func reportMismatch(warnCode, errCode string, sp token.Span, bag *diagnostic.Bag, strict bool) {
	if strict {
		bag.Add(diagnostic.Errorf(errCode, sp, "dimensional mismatch in while-loop guard"))
		return
	}
	bag.Add(diagnostic.Warnf(warnCode, sp, "dimensional mismatch in while-loop guard"))
}
