package lexer

import (
	"testing"

	"github.com/AnthraxisBR/physlang/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeParticleDecl(t *testing.T) {
	src := `particle a at (0, 0) mass 1;`
	toks := Tokenize("test.phys", src)

	want := []token.Kind{
		token.Particle, token.Ident, token.At, token.LParen, token.Int,
		token.Comma, token.Int, token.RParen, token.Mass, token.Int,
		token.Semicolon, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("len(tokens) = %d, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTokenizeComment(t *testing.T) {
	src := "let x = 1; # trailing comment\nlet y = 2;"
	toks := Tokenize("test.phys", src)
	for _, tok := range toks {
		if tok.Kind == token.EOF && tok.Literal == "#" {
			t.Fatalf("comment leaked into token stream: %v", toks)
		}
	}
}

func TestTokenizeNegativeNumberIsMinusThenLiteral(t *testing.T) {
	// The grammar produces unary-minus + unsigned literal, never a signed
	// literal token (see §4.1: "optional sign in grammar positions but
	// typically produced as unary-minus + unsigned literal").
	toks := Tokenize("test.phys", "-5")
	if len(toks) != 3 { // Minus, Int, EOF
		t.Fatalf("got %d tokens, want 3: %v", len(toks), toks)
	}
	if toks[0].Kind != token.Minus || toks[1].Kind != token.Int || toks[1].Literal != "5" {
		t.Fatalf("unexpected tokens: %v", toks)
	}
}

func TestTokenizeFloatVsInt(t *testing.T) {
	toks := Tokenize("test.phys", "1 1.5 1..5")
	want := []token.Kind{token.Int, token.Float, token.Int, token.Range, token.Int, token.EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSpansCoverLiteral(t *testing.T) {
	src := "mass"
	toks := Tokenize("f.phys", src)
	if toks[0].Span.Start != 0 || toks[0].Span.End != len(src) {
		t.Fatalf("span = %v, want [0,%d]", toks[0].Span, len(src))
	}
}

func TestIllegalCharacterDoesNotTruncateTheStream(t *testing.T) {
	// A stray `!` not followed by `=`, and any other unrecognized byte,
	// must surface as an Illegal token rather than masquerading as EOF
	// (which would make Parser.Parse stop reading right there and
	// silently drop the rest of the source).
	toks := Tokenize("f.phys", "let x = 1 ! @ let y = 2;")
	want := []token.Kind{
		token.Let, token.Ident, token.Assign, token.Int,
		token.Illegal, token.Illegal,
		token.Let, token.Ident, token.Assign, token.Int, token.Semicolon,
		token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("len(tokens) = %d, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if toks[4].Literal != "!" || toks[5].Literal != "@" {
		t.Fatalf("expected Illegal literals \"!\" and \"@\", got %q and %q", toks[4].Literal, toks[5].Literal)
	}
}

func TestKeywordsAllRecognized(t *testing.T) {
	words := []string{
		"particle", "force", "gravity", "spring", "push", "well", "on", "if",
		"else", "depth", "loop", "for", "while", "cycles", "with", "frequency",
		"damping", "at", "mass", "G", "k", "rest", "magnitude", "direction",
		"simulate", "dt", "steps", "detect", "position", "distance", "let",
		"fn", "return", "world", "match", "in", "sin", "cos", "sqrt", "clamp",
	}
	for _, w := range words {
		toks := Tokenize("f.phys", w)
		if toks[0].Kind == token.Ident {
			t.Errorf("keyword %q lexed as plain identifier", w)
		}
	}
}
