package analysis

import (
	"github.com/AnthraxisBR/physlang/ast"
	"github.com/AnthraxisBR/physlang/diagnostic"
)

// checkUnusedBindings walks each block looking for a `let` whose name is
// never read again before the end of its own block or a shadowing
// re-declaration, emitting W1104 (SPEC_FULL §3 "pure let binding never
// read"). This is a pure syntactic check: it doesn't need a value
// environment, only whether the name appears as an Ident anywhere in the
// statements that follow the let within the same block.
func checkUnusedBindings(body []ast.Stmt, bag *diagnostic.Bag) {
	for i, s := range body {
		switch n := s.(type) {
		case *ast.LetStmt:
			rest := body[i+1:]
			if !identUsedInStmts(n.Name, rest) {
				bag.Add(diagnostic.Warnf("W1104", n.Sp, "let binding %q is never read", n.Name))
			}
		case *ast.IfStmt:
			checkUnusedBindings(n.Then, bag)
			checkUnusedBindings(n.Else, bag)
		case *ast.ForStmt:
			checkUnusedBindings(n.Body, bag)
		case *ast.MatchStmt:
			for _, arm := range n.Arms {
				checkUnusedBindings(arm.Body, bag)
			}
		case *ast.ModuleDecl:
			checkUnusedBindings(n.Body, bag)
		case *ast.FnDecl:
			checkUnusedBindings(n.Body, bag)
		}
	}
}

// identUsedInStmts reports whether name appears as an Ident anywhere
// inside stmts, recursing into every expression and nested block. A
// later `let` that shadows name stops the search in the statements
// after that re-declaration (SPEC_FULL: matching `let` scoping, a
// shadowed outer binding's own liveness is judged independently by the
// recursive call that visits the shadowing block).
func identUsedInStmts(name string, stmts []ast.Stmt) bool {
	for _, s := range stmts {
		if identUsedInStmt(name, s) {
			return true
		}
		if let, ok := s.(*ast.LetStmt); ok && let.Name == name {
			return false
		}
	}
	return false
}

func identUsedInStmt(name string, s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.LetStmt:
		return identUsedInExpr(name, n.Value)
	case *ast.ParticleDecl:
		return identUsedInExpr(name, n.X) || identUsedInExpr(name, n.Y) || identUsedInExpr(name, n.Mass)
	case *ast.ForceDecl:
		return identUsedInExpr(name, n.G) || identUsedInExpr(name, n.K) || identUsedInExpr(name, n.Rest)
	case *ast.WellDecl:
		return identUsedInExpr(name, n.Threshold) || identUsedInExpr(name, n.Depth)
	case *ast.LoopDecl:
		if identUsedInExpr(name, n.Cycles) || identUsedInExpr(name, n.Cond) ||
			identUsedInExpr(name, n.Frequency) || identUsedInExpr(name, n.Damping) {
			return true
		}
		for _, p := range n.Body {
			if identUsedInExpr(name, p.Magnitude) || identUsedInExpr(name, p.Dx) || identUsedInExpr(name, p.Dy) {
				return true
			}
		}
		return false
	case *ast.SimulateDecl:
		return identUsedInExpr(name, n.Dt) || identUsedInExpr(name, n.Steps)
	case *ast.IfStmt:
		return identUsedInExpr(name, n.Cond) || identUsedInStmts(name, n.Then) || identUsedInStmts(name, n.Else)
	case *ast.ForStmt:
		return identUsedInExpr(name, n.Start) || identUsedInExpr(name, n.End) || identUsedInStmts(name, n.Body)
	case *ast.MatchStmt:
		if identUsedInExpr(name, n.Scrutinee) {
			return true
		}
		for _, arm := range n.Arms {
			if identUsedInStmts(name, arm.Body) {
				return true
			}
		}
		return false
	case *ast.ReturnStmt:
		return identUsedInExpr(name, n.Value)
	case *ast.ExprStmt:
		for _, a := range n.Call.Args {
			if identUsedInExpr(name, a) {
				return true
			}
		}
		return false
	case *ast.ModuleDecl:
		return identUsedInStmts(name, n.Body)
	case *ast.FnDecl:
		return identUsedInStmts(name, n.Body)
	default:
		return false
	}
}

func identUsedInExpr(name string, e ast.Expr) bool {
	if e == nil {
		return false
	}
	switch n := e.(type) {
	case *ast.Ident:
		return n.Name == name
	case *ast.NumberLit, *ast.StringLit, *ast.ResolvedParticleRef:
		return false
	case *ast.UnaryOp:
		return identUsedInExpr(name, n.X)
	case *ast.BinaryOp:
		return identUsedInExpr(name, n.X) || identUsedInExpr(name, n.Y)
	case *ast.CompareOp:
		return identUsedInExpr(name, n.X) || identUsedInExpr(name, n.Y)
	case *ast.FieldAccess:
		return identUsedInExpr(name, n.X)
	case *ast.BuiltinCall:
		for _, a := range n.Args {
			if identUsedInExpr(name, a) {
				return true
			}
		}
		return false
	case *ast.CallExpr:
		for _, a := range n.Args {
			if identUsedInExpr(name, a) {
				return true
			}
		}
		return false
	case *ast.Observable:
		for _, a := range n.Args {
			if identUsedInExpr(name, a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
