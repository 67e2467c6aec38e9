package elaborate

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/AnthraxisBR/physlang/ast"
	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/eval"
	"github.com/AnthraxisBR/physlang/token"
)

// registerFn classifies fn's effect and adds it to the function
// environment (§4.4 "Effect classification"). Functions are pure by
// default; a function without an explicit `world` marker whose body
// scans as world-building is still treated as world for call-graph
// purposes (so its callers classify correctly), but the missing marker
// itself is reported as E0201 — effects must be declared, not silently
// inferred, which is also what makes §8 scenario 5 fail to compile.
func (e *Elaborator) registerFn(n *ast.FnDecl) {
	if _, exists := e.funcs[n.Name]; exists {
		e.bag.Add(diagnostic.Errorf("E0104", n.Sp, "duplicate function name %q", n.Name))
		return
	}
	needsWorld, offense := e.scanNeedsWorld(n.Body)
	isWorld := n.IsWorld || needsWorld
	if !n.IsWorld && needsWorld {
		e.bag.Add(diagnostic.Errorf("E0201", offense.Span(), "function %q builds world state but is not marked world", n.Name).
			WithLabel(n.Sp, "function %q declared here", n.Name).
			WithHelp("add the `world` marker to this function's definition").
			WithFix("mark function as world", n.Sp, "world fn "+n.Name))
	}
	if isWorld {
		if ret := firstValuedReturn(n.Body); ret != nil {
			e.bag.Add(diagnostic.Errorf("E0202", ret.Sp, "a world function body may not return a value"))
		}
	}
	fi := &funcInfo{decl: n, isWorld: isWorld, index: len(e.funcOrder)}
	e.funcs[n.Name] = fi
	e.funcOrder = append(e.funcOrder, n.Name)
	if e.onStack == nil || e.onStack.Len() < uint(len(e.funcOrder)) {
		e.onStack = bitset.New(uint(len(e.funcOrder)) + 8)
	}
}

// scanNeedsWorld recursively inspects body for a world-building
// declaration or a call to an already-known world function, returning
// the first offending node for diagnostic purposes.
func (e *Elaborator) scanNeedsWorld(body []ast.Stmt) (bool, ast.Stmt) {
	for _, s := range body {
		switch n := s.(type) {
		case *ast.ParticleDecl, *ast.ForceDecl, *ast.WellDecl, *ast.LoopDecl, *ast.DetectDecl, *ast.SimulateDecl:
			return true, s
		case *ast.ExprStmt:
			if fi, ok := e.funcs[n.Call.Name]; ok && fi.isWorld {
				return true, s
			}
		case *ast.IfStmt:
			if ok, off := e.scanNeedsWorld(n.Then); ok {
				return true, off
			}
			if ok, off := e.scanNeedsWorld(n.Else); ok {
				return true, off
			}
		case *ast.ForStmt:
			if ok, off := e.scanNeedsWorld(n.Body); ok {
				return true, off
			}
		case *ast.MatchStmt:
			for _, arm := range n.Arms {
				if ok, off := e.scanNeedsWorld(arm.Body); ok {
					return true, off
				}
			}
		case *ast.ModuleDecl:
			if ok, off := e.scanNeedsWorld(n.Body); ok {
				return true, off
			}
		}
	}
	return false, nil
}

// firstValuedReturn finds the first `return <expr>;` anywhere in body,
// recursing into nested control-flow blocks but not into nested function
// definitions (those carry their own, separately-checked effect).
func firstValuedReturn(body []ast.Stmt) *ast.ReturnStmt {
	for _, s := range body {
		switch n := s.(type) {
		case *ast.ReturnStmt:
			if n.Value != nil {
				return n
			}
		case *ast.IfStmt:
			if r := firstValuedReturn(n.Then); r != nil {
				return r
			}
			if r := firstValuedReturn(n.Else); r != nil {
				return r
			}
		case *ast.ForStmt:
			if r := firstValuedReturn(n.Body); r != nil {
				return r
			}
		case *ast.MatchStmt:
			for _, arm := range n.Arms {
				if r := firstValuedReturn(arm.Body); r != nil {
					return r
				}
			}
		case *ast.ModuleDecl:
			if r := firstValuedReturn(n.Body); r != nil {
				return r
			}
		}
	}
	return nil
}

// callPure is wired into eval.Env as the CallFunc hook, so a plain
// expression context (let value, particle coordinate, force parameter,
// ...) can invoke a user function but only a pure one (§4.4 phase 5).
func (e *Elaborator) callPure(name string, args []eval.Value, sp token.Span) (eval.Value, bool) {
	fi, ok := e.funcs[name]
	if !ok {
		e.bag.Add(diagnostic.Errorf("E0313", sp, "undefined function %q", name))
		return eval.Value{}, false
	}
	if fi.isWorld {
		e.bag.Add(diagnostic.Errorf("E0203", sp, "world function %q cannot be called in a pure expression context", name))
		return eval.Value{}, false
	}
	v, outcome := e.invoke(fi, args, sp)
	switch outcome {
	case returnValue:
		return v, true
	case returnBare:
		e.bag.Add(diagnostic.Errorf("E0217", sp, "pure function %q returned with no value", name))
	case returnNone:
		e.bag.Add(diagnostic.Errorf("E0216", sp, "pure function %q falls off the end without returning a value", name))
	case returnEvalFailed, returnInvokeFailed:
		// already diagnosed at the point the failure occurred.
	}
	return eval.Value{}, false
}

// callStatement evaluates a call's arguments and invokes it at statement
// position, where either a pure or a world function is legal (§4.4 phase
// 1: "a top-level user call invokes a world function").
func (e *Elaborator) callStatement(call *ast.CallExpr, env *eval.Env) {
	fi, ok := e.funcs[call.Name]
	if !ok {
		e.bag.Add(diagnostic.Errorf("E0313", call.Sp, "undefined function %q", call.Name))
		return
	}
	args := make([]eval.Value, len(call.Args))
	for i, a := range call.Args {
		v, ok := eval.Eval(a, env, e.bag)
		if !ok {
			return
		}
		args[i] = v
	}
	e.invoke(fi, args, call.Sp)
}

// invoke runs fi's body against a fresh parameter scope, enforcing the
// call-depth cap (§4.4 phase 5) and using the call-stack bitset to give a
// more specific diagnostic when the cap is hit during direct recursion.
// The returned outcome reports why no usable value came back when one
// didn't; callPure inspects it to flag a pure function that falls off
// the end without a value, callStatement ignores it since a world body
// is permitted to never return.
func (e *Elaborator) invoke(fi *funcInfo, args []eval.Value, sp token.Span) (eval.Value, returnOutcome) {
	if len(args) != len(fi.decl.Params) {
		e.bag.Add(diagnostic.Errorf("E0314", sp, "function %q expects %d argument(s), found %d", fi.decl.Name, len(fi.decl.Params), len(args)))
		return eval.Value{}, returnInvokeFailed
	}
	if e.callDepth >= maxCallDepth {
		if e.onStack.Test(uint(fi.index)) {
			e.bag.Add(diagnostic.Errorf("E0315", sp, "call depth exceeded %d while %q is still on the call stack (likely infinite recursion)", maxCallDepth, fi.decl.Name))
		} else {
			e.bag.Add(diagnostic.Errorf("E0315", sp, "call depth exceeded %d calling %q", maxCallDepth, fi.decl.Name))
		}
		return eval.Value{}, returnInvokeFailed
	}
	e.onStack.Set(uint(fi.index))
	e.callDepth++
	child := eval.NewEnv(e.callPure)
	for i, p := range fi.decl.Params {
		child.Set(p, args[i])
	}
	v, outcome := e.execBody(fi.decl.Body, child)
	e.callDepth--
	e.onStack.Clear(uint(fi.index))
	return v, outcome
}
