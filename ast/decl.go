package ast

import "github.com/AnthraxisBR/physlang/token"

// LetStmt binds name to the value of an expression, either at top level
// (extends the global variable env) or inside a function/loop body
// (extends the local scope). See §4.4 phase 1.
type LetStmt struct {
	Name  string
	Value Expr
	Sp    token.Span
}

func (n *LetStmt) Span() token.Span { return n.Sp }
func (*LetStmt) stmtNode()          {}

// FnDecl is a function definition. IsWorld records an explicit `world`
// marker; the effect classifier in elaborate may still infer World even
// when IsWorld is false (§4.4 "Effect classification").
type FnDecl struct {
	Name    string
	Params  []string
	IsWorld bool
	Body    []Stmt
	Sp      token.Span
}

func (n *FnDecl) Span() token.Span { return n.Sp }
func (*FnDecl) stmtNode()          {}

// ParticleDecl declares a mass particle at a fixed initial position.
type ParticleDecl struct {
	Name string
	X, Y Expr
	Mass Expr
	Sp   token.Span
}

func (n *ParticleDecl) Span() token.Span { return n.Sp }
func (*ParticleDecl) stmtNode()          {}

// ForceKind distinguishes the two binary force shapes the grammar accepts.
type ForceKind int

const (
	ForceGravity ForceKind = iota
	ForceSpring
)

// ForceDecl declares a binary force between two particles.
type ForceDecl struct {
	Kind ForceKind
	A, B Expr // particle-ref expressions, normally *ast.Ident
	// Gravity uses G; Spring uses K and Rest. The unused field for a given
	// Kind is nil.
	G, K, Rest Expr
	Sp         token.Span
}

func (n *ForceDecl) Span() token.Span { return n.Sp }
func (*ForceDecl) stmtNode()          {}

// WellDecl declares a one-sided potential well owned by a particle.
type WellDecl struct {
	Owner     Expr
	Threshold Expr
	Depth     Expr
	Sp        token.Span
}

func (n *WellDecl) Span() token.Span { return n.Sp }
func (*WellDecl) stmtNode()          {}

// PushStmt is a single impulse record inside a LoopDecl body.
type PushStmt struct {
	Target    Expr
	Magnitude Expr
	Dx, Dy    Expr
	Sp        token.Span
}

func (n *PushStmt) Span() token.Span { return n.Sp }
func (*PushStmt) stmtNode()          {}

// LoopKind distinguishes the two loop-termination shapes.
type LoopKind int

const (
	LoopForCycles LoopKind = iota
	LoopWhile
)

// LoopDecl declares an oscillator-driven iteration loop (§4.7-A, §4.7-C).
type LoopDecl struct {
	Kind      LoopKind
	Cycles    Expr // LoopForCycles only
	Cond      Expr // LoopWhile only; must be pure per elaboration rules
	Frequency Expr
	Damping   Expr
	Target    Expr
	Body      []*PushStmt
	Sp        token.Span
}

func (n *LoopDecl) Span() token.Span { return n.Sp }
func (*LoopDecl) stmtNode()          {}

// SimulateDecl configures the fixed-step integrator. At most one may
// appear in a program (§4.5 uniqueness).
type SimulateDecl struct {
	Dt    Expr
	Steps Expr
	Sp    token.Span
}

func (n *SimulateDecl) Span() token.Span { return n.Sp }
func (*SimulateDecl) stmtNode()          {}

// DetectKind distinguishes the detector readouts the language supports.
// Speed is a SPEC_FULL.md §3 addition sourced from original_source/runtime.rs.
type DetectKind int

const (
	DetectPositionX DetectKind = iota
	DetectDistance
	DetectSpeed
)

// DetectDecl names a scalar output computed once from the final state.
type DetectDecl struct {
	Name string
	Kind DetectKind
	Args []Expr
	Sp   token.Span
}

func (n *DetectDecl) Span() token.Span { return n.Sp }
func (*DetectDecl) stmtNode()          {}

// IfStmt is compile-time control flow: exactly one branch is elaborated,
// the other is discarded before it can produce any declaration (§4.4
// phase 2).
type IfStmt struct {
	Cond       Expr
	Then, Else []Stmt
	Sp         token.Span
}

func (n *IfStmt) Span() token.Span { return n.Sp }
func (*IfStmt) stmtNode()          {}

// ForStmt is compile-time unrolling over a constant-integer range
// [Start, End) (§4.4 phase 3).
type ForStmt struct {
	Var        string
	Start, End Expr
	Body       []Stmt
	Sp         token.Span
}

func (n *ForStmt) Span() token.Span { return n.Sp }
func (*ForStmt) stmtNode()          {}

// MatchArm is one arm of a MatchStmt. Pattern is nil for the wildcard arm.
type MatchArm struct {
	Pattern *int64
	Body    []Stmt
	Sp      token.Span
}

// MatchStmt is compile-time dispatch over an integer-valued scrutinee
// (§4.4 phase 4).
type MatchStmt struct {
	Scrutinee Expr
	Arms      []MatchArm
	Sp        token.Span
}

func (n *MatchStmt) Span() token.Span { return n.Sp }
func (*MatchStmt) stmtNode()          {}

// ReturnStmt returns a scalar from a pure function body. World function
// bodies may not contain a ReturnStmt with a non-nil Value (§4.4 "Effect
// classification").
type ReturnStmt struct {
	Value Expr // nil for a bare `return;` inside a world function
	Sp    token.Span
}

func (n *ReturnStmt) Span() token.Span { return n.Sp }
func (*ReturnStmt) stmtNode()          {}

// ExprStmt is a top-level or nested statement consisting of a single user
// function call invoked for its world effect, or evaluated and discarded
// if pure (§4.4 phase 1: "a top-level user call invokes a world function").
type ExprStmt struct {
	Call *CallExpr
	Sp   token.Span
}

func (n *ExprStmt) Span() token.Span { return n.Sp }
func (*ExprStmt) stmtNode()          {}

// ModuleDecl is the v0.10 namespacing extension (§9 Open Question 3): it
// parses but has no elaboration effect beyond flattening its Body into
// the enclosing scope.
type ModuleDecl struct {
	Name string
	Body []Stmt
	Sp   token.Span
}

func (n *ModuleDecl) Span() token.Span { return n.Sp }
func (*ModuleDecl) stmtNode()          {}

// ImportDecl is the v0.10 namespacing extension's import form. It is
// parsed and otherwise ignored: file resolution is the CLI collaborator's
// job (§1 Out of scope).
type ImportDecl struct {
	Path string
	Sp   token.Span
}

func (n *ImportDecl) Span() token.Span { return n.Sp }
func (*ImportDecl) stmtNode()          {}

// Program is the root node: the full, lexically ordered top-level item
// sequence (§4.4 phase 1).
type Program struct {
	Items []Stmt
}
