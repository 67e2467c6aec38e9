package eval

import (
	"testing"

	"github.com/AnthraxisBR/physlang/ast"
	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/token"
)

func sp() token.Span { return token.Span{File: "t", Start: 0, End: 1} }

func numLit(v float64) *ast.NumberLit { return &ast.NumberLit{FloatValue: v, Sp: sp()} }

func TestEvalArithmetic(t *testing.T) {
	bag := diagnostic.NewBag(50, false)
	env := NewEnv(nil)
	expr := &ast.BinaryOp{Op: token.Plus, X: numLit(2), Y: &ast.BinaryOp{Op: token.Star, X: numLit(3), Y: numLit(4), Sp: sp()}, Sp: sp()}
	v, ok := Eval(expr, env, bag)
	if !ok {
		t.Fatalf("Eval failed: %v", bag.All())
	}
	if v.Num != 14 {
		t.Errorf("Num = %v, want 14", v.Num)
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	bag := diagnostic.NewBag(50, false)
	env := NewEnv(nil)
	expr := &ast.BinaryOp{Op: token.Slash, X: numLit(1), Y: numLit(0), Sp: sp()}
	_, ok := Eval(expr, env, bag)
	if ok {
		t.Fatalf("expected division by zero to fail")
	}
	if !bag.HasErrors() {
		t.Fatalf("expected a diagnostic for division by zero")
	}
}

func TestEvalSqrtNegative(t *testing.T) {
	bag := diagnostic.NewBag(50, false)
	env := NewEnv(nil)
	expr := &ast.BuiltinCall{Func: token.Sqrt, Args: []ast.Expr{numLit(-4)}, Sp: sp()}
	_, ok := Eval(expr, env, bag)
	if ok {
		t.Fatalf("expected sqrt(-4) to fail")
	}
}

func TestEvalClampInvertedBounds(t *testing.T) {
	bag := diagnostic.NewBag(50, false)
	env := NewEnv(nil)
	expr := &ast.BuiltinCall{Func: token.Clamp, Args: []ast.Expr{numLit(1), numLit(10), numLit(0)}, Sp: sp()}
	_, ok := Eval(expr, env, bag)
	if ok {
		t.Fatalf("expected clamp with lo>hi to fail")
	}
}

func TestEvalClampValid(t *testing.T) {
	bag := diagnostic.NewBag(50, false)
	env := NewEnv(nil)
	expr := &ast.BuiltinCall{Func: token.Clamp, Args: []ast.Expr{numLit(15), numLit(0), numLit(10)}, Sp: sp()}
	v, ok := Eval(expr, env, bag)
	if !ok {
		t.Fatalf("Eval failed: %v", bag.All())
	}
	if v.Num != 10 {
		t.Errorf("Num = %v, want 10", v.Num)
	}
}

func TestEvalComparison(t *testing.T) {
	bag := diagnostic.NewBag(50, false)
	env := NewEnv(nil)
	expr := &ast.CompareOp{Op: token.Lt, X: numLit(1), Y: numLit(2), Sp: sp()}
	v, ok := Eval(expr, env, bag)
	if !ok {
		t.Fatalf("Eval failed: %v", bag.All())
	}
	if v.Kind != KindBool || !v.Bool {
		t.Errorf("v = %+v, want Bool(true)", v)
	}
}

func TestEvalUndefinedName(t *testing.T) {
	bag := diagnostic.NewBag(50, false)
	env := NewEnv(nil)
	_, ok := Eval(&ast.Ident{Name: "missing", Sp: sp()}, env, bag)
	if ok {
		t.Fatalf("expected undefined name to fail")
	}
}

func TestEvalScopedLookup(t *testing.T) {
	env := NewEnv(nil)
	env.Set("x", Number(1))
	child := env.Push()
	child.Set("x", Number(2))
	bag := diagnostic.NewBag(50, false)
	v, ok := Eval(&ast.Ident{Name: "x", Sp: sp()}, child, bag)
	if !ok || v.Num != 2 {
		t.Fatalf("inner scope should shadow: v=%+v ok=%v", v, ok)
	}
	v, ok = Eval(&ast.Ident{Name: "x", Sp: sp()}, env, bag)
	if !ok || v.Num != 1 {
		t.Fatalf("outer scope unaffected: v=%+v ok=%v", v, ok)
	}
}

func TestEvalUserCall(t *testing.T) {
	bag := diagnostic.NewBag(50, false)
	env := NewEnv(func(name string, args []Value, sp token.Span) (Value, bool) {
		if name == "double" {
			return Number(args[0].Num * 2), true
		}
		return Value{}, false
	})
	expr := &ast.CallExpr{Name: "double", Args: []ast.Expr{numLit(21)}, Sp: sp()}
	v, ok := Eval(expr, env, bag)
	if !ok || v.Num != 42 {
		t.Fatalf("v=%+v ok=%v, want 42", v, ok)
	}
}
