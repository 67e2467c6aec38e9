// Package ast defines the PhysLang abstract syntax tree produced by
// parser.Parser and consumed by eval and elaborate.
//
// Node shapes follow the teacher's tokenmodel/dsl.SchemaNode family: plain
// structs tagged by an enclosing sum type, never interfaces with behavior
// attached, matching §9 "AST as tagged variants" (the source's dynamic
// dispatch is replaced by explicit switches over a Kind field).
package ast

import "github.com/AnthraxisBR/physlang/token"

// Node is implemented by every AST node; it exposes the span used for
// diagnostics.
type Node interface {
	Span() token.Span
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every top-level or nested statement/declaration
// node.
type Stmt interface {
	Node
	stmtNode()
}

// ---- Expressions -----------------------------------------------------

// NumberLit is a numeric literal. IsInt is true when the literal was
// written without a decimal point; such literals keep integer identity in
// bound/pattern contexts per §4.3 and widen to Scalar everywhere else.
type NumberLit struct {
	IsInt      bool
	IntValue   int64
	FloatValue float64
	Sp         token.Span
}

func (n *NumberLit) Span() token.Span { return n.Sp }
func (*NumberLit) exprNode()          {}

// StringLit is a double-quoted string literal; PhysLang has no escape
// sequences (§4.1).
type StringLit struct {
	Value string
	Sp    token.Span
}

func (n *StringLit) Span() token.Span { return n.Sp }
func (*StringLit) exprNode()          {}

// Ident references a variable, parameter, particle, or function by name.
type Ident struct {
	Name string
	Sp   token.Span
}

func (n *Ident) Span() token.Span { return n.Sp }
func (*Ident) exprNode()          {}

// UnaryOp is unary negation; the grammar has no other unary operator.
type UnaryOp struct {
	X  Expr
	Sp token.Span
}

func (n *UnaryOp) Span() token.Span { return n.Sp }
func (*UnaryOp) exprNode()          {}

// BinaryOp is `+ - * /`, arithmetic only; comparisons are a distinct node
// kind (CompareOp) because the grammar makes comparison non-associative
// and lower precedence than additive/multiplicative (§4.2).
type BinaryOp struct {
	Op   token.Kind // Plus, Minus, Star, Slash
	X, Y Expr
	Sp   token.Span
}

func (n *BinaryOp) Span() token.Span { return n.Sp }
func (*BinaryOp) exprNode()          {}

// CompareOp is `== != < > <= >=`.
type CompareOp struct {
	Op   token.Kind
	X, Y Expr
	Sp   token.Span
}

func (n *CompareOp) Span() token.Span { return n.Sp }
func (*CompareOp) exprNode()          {}

// FieldAccess is `.x` or `.y` on a Vec2-typed expression.
type FieldAccess struct {
	X     Expr
	Field string // "x" or "y"
	Sp    token.Span
}

func (n *FieldAccess) Span() token.Span { return n.Sp }
func (*FieldAccess) exprNode()          {}

// BuiltinCall is a call to one of the fixed built-in math functions.
type BuiltinCall struct {
	Func token.Kind // Sin, Cos, Sqrt, Clamp
	Args []Expr
	Sp   token.Span
}

func (n *BuiltinCall) Span() token.Span { return n.Sp }
func (*BuiltinCall) exprNode()          {}

// CallExpr is a call to a user-defined function (pure or world).
type CallExpr struct {
	Name string
	Args []Expr
	Sp   token.Span
}

func (n *CallExpr) Span() token.Span { return n.Sp }
func (*CallExpr) exprNode()          {}

// ObservableKind distinguishes the three observables the language exposes.
type ObservableKind int

const (
	ObservePosition ObservableKind = iota // position(p) -> Vec2
	ObserveDistance                       // distance(a, b) -> Scalar
	ObserveSpeed                          // speed(p) -> Scalar
)

// Observable reads current particle state. It can only be evaluated once
// the world has been built (C6); it is never foldable at pure-expression
// time even though it parses as an ordinary call-shaped expression.
type Observable struct {
	Kind ObservableKind
	Args []Expr
	Sp   token.Span
}

func (n *Observable) Span() token.Span { return n.Sp }
func (*Observable) exprNode()          {}

// ResolvedParticleRef replaces an Ident naming a particle once elaborate
// has resolved it to a stable index. It only ever appears inside a
// LoopDecl's while-condition after elaboration rewrites that guard
// expression for runtime re-evaluation (§9 "pointer-free identity": the
// runtime never consults a name table, only indices). The parser never
// produces this node.
type ResolvedParticleRef struct {
	Index int
	Sp    token.Span
}

func (n *ResolvedParticleRef) Span() token.Span { return n.Sp }
func (*ResolvedParticleRef) exprNode()          {}
