// Package lexer turns PhysLang source bytes into a token.Token stream.
//
// The lexer is grounded on the teacher's tokenmodel/dsl.Lexer: a
// byte-at-a-time scanner over the input string, one current character
// (ch) and one lookahead (readPos), no buffering beyond that.
package lexer

import (
	"unicode"

	"github.com/AnthraxisBR/physlang/token"
)

// Lexer scans a single source file into tokens.
type Lexer struct {
	file    string
	input   string
	pos     int // current position (points to ch)
	readPos int // next position to read
	ch      byte
}

// New creates a Lexer over input, reporting spans against file.
func New(file, input string) *Lexer {
	l := &Lexer{file: file, input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '#' {
			for l.ch != 0 && l.ch != '\n' {
				l.readChar()
			}
			continue
		}
		break
	}
}

func (l *Lexer) span(start int) token.Span {
	return token.Span{File: l.file, Start: start, End: l.pos}
}

// Next returns the next token.Token in the stream, ending with an unbounded
// run of token.EOF once the input is exhausted.
func (l *Lexer) Next() token.Token {
	l.skipWhitespaceAndComments()
	start := l.pos

	switch {
	case l.ch == 0:
		return token.Token{Kind: token.EOF, Span: l.span(start)}
	case l.ch == '(':
		l.readChar()
		return token.Token{Kind: token.LParen, Literal: "(", Span: l.span(start)}
	case l.ch == ')':
		l.readChar()
		return token.Token{Kind: token.RParen, Literal: ")", Span: l.span(start)}
	case l.ch == '{':
		l.readChar()
		return token.Token{Kind: token.LBrace, Literal: "{", Span: l.span(start)}
	case l.ch == '}':
		l.readChar()
		return token.Token{Kind: token.RBrace, Literal: "}", Span: l.span(start)}
	case l.ch == ',':
		l.readChar()
		return token.Token{Kind: token.Comma, Literal: ",", Span: l.span(start)}
	case l.ch == ';':
		l.readChar()
		return token.Token{Kind: token.Semicolon, Literal: ";", Span: l.span(start)}
	case l.ch == '.':
		if l.peekChar() == '.' {
			l.readChar()
			l.readChar()
			return token.Token{Kind: token.Range, Literal: "..", Span: l.span(start)}
		}
		l.readChar()
		return token.Token{Kind: token.Dot, Literal: ".", Span: l.span(start)}
	case l.ch == '+':
		l.readChar()
		return token.Token{Kind: token.Plus, Literal: "+", Span: l.span(start)}
	case l.ch == '-':
		l.readChar()
		return token.Token{Kind: token.Minus, Literal: "-", Span: l.span(start)}
	case l.ch == '*':
		l.readChar()
		return token.Token{Kind: token.Star, Literal: "*", Span: l.span(start)}
	case l.ch == '/':
		l.readChar()
		return token.Token{Kind: token.Slash, Literal: "/", Span: l.span(start)}
	case l.ch == '=':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return token.Token{Kind: token.Eq, Literal: "==", Span: l.span(start)}
		}
		l.readChar()
		return token.Token{Kind: token.Assign, Literal: "=", Span: l.span(start)}
	case l.ch == '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return token.Token{Kind: token.NotEq, Literal: "!=", Span: l.span(start)}
		}
		l.readChar()
		return token.Token{Kind: token.Illegal, Literal: "!", Span: l.span(start)}
	case l.ch == '<':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return token.Token{Kind: token.Le, Literal: "<=", Span: l.span(start)}
		}
		l.readChar()
		return token.Token{Kind: token.Lt, Literal: "<", Span: l.span(start)}
	case l.ch == '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return token.Token{Kind: token.Ge, Literal: ">=", Span: l.span(start)}
		}
		l.readChar()
		return token.Token{Kind: token.Gt, Literal: ">", Span: l.span(start)}
	case l.ch == '"':
		return l.readString(start)
	case isDigit(l.ch):
		return l.readNumber(start)
	case isIdentStart(l.ch):
		return l.readIdentOrKeyword(start)
	default:
		bad := string(l.ch)
		l.readChar()
		return token.Token{Kind: token.Illegal, Literal: bad, Span: l.span(start)}
	}
}

func (l *Lexer) readString(start int) token.Token {
	l.readChar() // consume opening quote
	var out []byte
	for l.ch != 0 && l.ch != '"' {
		out = append(out, l.ch)
		l.readChar()
	}
	if l.ch == '"' {
		l.readChar()
	}
	return token.Token{Kind: token.String, Literal: string(out), Span: l.span(start)}
}

func (l *Lexer) readNumber(start int) token.Token {
	isFloat := false
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && l.peekChar() != '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	lit := l.input[start:l.pos]
	if isFloat {
		return token.Token{Kind: token.Float, Literal: lit, Span: l.span(start)}
	}
	return token.Token{Kind: token.Int, Literal: lit, Span: l.span(start)}
}

func (l *Lexer) readIdentOrKeyword(start int) token.Token {
	for isIdentChar(l.ch) {
		l.readChar()
	}
	lit := l.input[start:l.pos]
	return token.Token{Kind: token.Lookup(lit), Literal: lit, Span: l.span(start)}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || ch == '_'
}

func isIdentChar(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || unicode.IsDigit(rune(ch)) || ch == '_'
}

// Tokenize scans all of input under file and returns the full token stream,
// terminated by a single trailing token.EOF. It is a convenience wrapper
// used by tests and by callers that want to inspect tokens without driving
// a parser.Parser.
func Tokenize(file, input string) []token.Token {
	l := New(file, input)
	var toks []token.Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			break
		}
	}
	return toks
}
