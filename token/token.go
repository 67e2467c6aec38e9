// Package token defines the lexical tokens produced by lexer.Lexer and
// consumed by parser.Parser.
package token

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	EOF Kind = iota
	Illegal // a byte the lexer could not classify into any other Kind
	Ident
	Int
	Float
	String

	// punctuation
	LParen
	RParen
	LBrace
	RBrace
	Comma
	Dot
	Semicolon
	Assign
	Range // ..

	// comparison / arithmetic
	Plus
	Minus
	Star
	Slash
	Eq
	NotEq
	Lt
	Gt
	Le
	Ge

	// keywords
	Particle
	Force
	Gravity
	Spring
	Push
	Well
	On
	If
	Else
	Depth
	Loop
	For
	While
	Cycles
	With
	Frequency
	Damping
	At
	Mass
	G
	K
	Rest
	Magnitude
	Direction
	Simulate
	Dt
	Steps
	Detect
	Position
	Distance
	Let
	Fn
	Return
	World
	Match
	In
	Sin
	Cos
	Sqrt
	Clamp
	Module
	Import
	Speed
)

var keywords = map[string]Kind{
	"particle":  Particle,
	"force":     Force,
	"gravity":   Gravity,
	"spring":    Spring,
	"push":      Push,
	"well":      Well,
	"on":        On,
	"if":        If,
	"else":      Else,
	"depth":     Depth,
	"loop":      Loop,
	"for":       For,
	"while":     While,
	"cycles":    Cycles,
	"with":      With,
	"frequency": Frequency,
	"damping":   Damping,
	"at":        At,
	"mass":      Mass,
	"G":         G,
	"k":         K,
	"rest":      Rest,
	"magnitude": Magnitude,
	"direction": Direction,
	"simulate":  Simulate,
	"dt":        Dt,
	"steps":     Steps,
	"detect":    Detect,
	"position":  Position,
	"distance":  Distance,
	"let":       Let,
	"fn":        Fn,
	"return":    Return,
	"world":     World,
	"match":     Match,
	"in":        In,
	"sin":       Sin,
	"cos":       Cos,
	"sqrt":      Sqrt,
	"clamp":     Clamp,
	"module":    Module,
	"import":    Import,
	"speed":     Speed,
}

// Lookup classifies ident as a keyword Kind, or returns Ident if it is a
// plain identifier.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return Ident
}

// Span is a byte range within a single named source file, attached to every
// token, AST node, and diagnostic so errors can point back at source text.
type Span struct {
	File  string
	Start int
	End   int
}

// String renders a Span for debug output; diagnostic rendering computes
// line/column separately from the source text (see diagnostic.Render).
func (s Span) String() string {
	return fmt.Sprintf("%s[%d:%d]", s.File, s.Start, s.End)
}

// Join returns the smallest Span covering both s and other. Both must share
// the same File; Join does not check this since it is always called within
// a single parse.
func (s Span) Join(other Span) Span {
	start, end := s.Start, s.End
	if other.Start < start {
		start = other.Start
	}
	if other.End > end {
		end = other.End
	}
	return Span{File: s.File, Start: start, End: end}
}

// Token is a single lexical unit together with its source span.
type Token struct {
	Kind    Kind
	Literal string
	Span    Span
}

func (t Token) String() string {
	return fmt.Sprintf("Token{%v, %q, %v}", t.Kind, t.Literal, t.Span)
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

var kindNames = map[Kind]string{
	EOF: "EOF", Illegal: "ILLEGAL", Ident: "IDENT", Int: "INT", Float: "FLOAT", String: "STRING",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", Comma: ",", Dot: ".",
	Semicolon: ";", Assign: "=", Range: "..",
	Plus: "+", Minus: "-", Star: "*", Slash: "/",
	Eq: "==", NotEq: "!=", Lt: "<", Gt: ">", Le: "<=", Ge: ">=",
	Particle: "particle", Force: "force", Gravity: "gravity", Spring: "spring",
	Push: "push", Well: "well", On: "on", If: "if", Else: "else", Depth: "depth",
	Loop: "loop", For: "for", While: "while", Cycles: "cycles", With: "with",
	Frequency: "frequency", Damping: "damping", At: "at", Mass: "mass", G: "G",
	K: "k", Rest: "rest", Magnitude: "magnitude", Direction: "direction",
	Simulate: "simulate", Dt: "dt", Steps: "steps", Detect: "detect",
	Position: "position", Distance: "distance", Let: "let", Fn: "fn",
	Return: "return", World: "world", Match: "match", In: "in", Sin: "sin",
	Cos: "cos", Sqrt: "sqrt", Clamp: "clamp", Module: "module", Import: "import",
	Speed: "speed",
}
