// Package parser implements PhysLang's recursive-descent, one-token
// lookahead parser (§4.2), grounded on the teacher's metamodel/dsl.Parser
// (cur/peek token buffering, expect/expectSymbol helpers) generalized from
// an S-expression schema grammar to PhysLang's keyword-driven grammar.
package parser

import (
	"fmt"

	"github.com/AnthraxisBR/physlang/ast"
	"github.com/AnthraxisBR/physlang/diagnostic"
	"github.com/AnthraxisBR/physlang/lexer"
	"github.com/AnthraxisBR/physlang/token"
)

// Parser consumes a token.Token stream from lexer.Lexer and builds an
// ast.Program, collecting diagnostics rather than stopping at the first
// error (§4.2 "Error recovery").
type Parser struct {
	file string
	lex  *lexer.Lexer
	cur  token.Token
	peek token.Token
	bag  *diagnostic.Bag
}

// New creates a Parser over source text, reporting diagnostics into bag.
func New(file, src string, bag *diagnostic.Bag) *Parser {
	p := &Parser{file: file, lex: lexer.New(file, src), bag: bag}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *Parser) errorf(sp token.Span, format string, a ...any) {
	p.bag.Add(diagnostic.Errorf("E0301", sp, format, a...))
}

func (p *Parser) expect(k token.Kind) bool {
	if p.cur.Kind != k {
		p.errorf(p.cur.Span, "expected %v, found %v %q", k, p.cur.Kind, p.cur.Literal)
		return false
	}
	return true
}

// expectConsume advances past the current token if it matches k; otherwise
// it reports an error and leaves the current token in place, so callers can
// keep parsing a best-effort tree as if the single missing token were there.
func (p *Parser) expectConsume(k token.Kind) token.Token {
	tok := p.cur
	if !p.expect(k) {
		return tok
	}
	p.next()
	return tok
}

func (p *Parser) expectIdent() string {
	if p.cur.Kind != token.Ident {
		p.errorf(p.cur.Span, "expected identifier, found %v %q", p.cur.Kind, p.cur.Literal)
		return ""
	}
	name := p.cur.Literal
	p.next()
	return name
}

// atDeclStart reports whether cur begins a known top-level or body-level
// construct, used by resync to find a safe place to resume after an
// error (§4.2).
func (p *Parser) atDeclStart() bool {
	switch p.cur.Kind {
	case token.Particle, token.Force, token.Well, token.Loop, token.Simulate,
		token.Detect, token.Let, token.Fn, token.World, token.If, token.For,
		token.While, token.Match, token.Return, token.Push, token.Module,
		token.Import, token.RBrace, token.EOF:
		return true
	}
	return false
}

// resync skips tokens until a statement boundary: a semicolon (consumed),
// a closing brace (not consumed), or the start of a known declaration
// keyword, so multiple errors can be reported per pass (§4.2).
func (p *Parser) resync() {
	for {
		if p.cur.Kind == token.Semicolon {
			p.next()
			return
		}
		if p.atDeclStart() {
			return
		}
		p.next()
	}
}

// Parse runs the parser to completion. It always returns a best-effort
// ast.Program; callers should consult the diagnostic.Bag for errors
// before trusting the tree (§4.2, §7).
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{}
	for p.cur.Kind != token.EOF {
		if p.bag.AtCap() {
			break
		}
		before := p.cur
		stmt := p.parseTopLevelItem()
		if stmt != nil {
			prog.Items = append(prog.Items, stmt)
		}
		if p.cur == before {
			// parseTopLevelItem made no progress; force it so we don't loop.
			p.next()
		}
	}
	return prog
}

func (p *Parser) parseTopLevelItem() ast.Stmt {
	switch p.cur.Kind {
	case token.Let:
		return p.parseLet()
	case token.Fn, token.World:
		return p.parseFnDecl()
	case token.Particle:
		return p.parseParticleDecl()
	case token.Force:
		return p.parseForceDecl()
	case token.Well:
		return p.parseWellDecl()
	case token.Loop:
		return p.parseLoopDecl()
	case token.Simulate:
		return p.parseSimulateDecl()
	case token.Detect:
		return p.parseDetectDecl()
	case token.If:
		return p.parseIf()
	case token.For:
		return p.parseFor()
	case token.Match:
		return p.parseMatch()
	case token.Module:
		return p.parseModule()
	case token.Import:
		return p.parseImport()
	case token.Ident:
		return p.parseExprStmt()
	case token.Semicolon:
		// the optional ';' after a block construct's closing '}'
		p.next()
		return nil
	case token.Illegal:
		p.bag.Add(diagnostic.Errorf("E0302", p.cur.Span, "illegal character %q", p.cur.Literal))
		p.resync()
		return nil
	default:
		p.errorf(p.cur.Span, "unexpected token %v %q at top level", p.cur.Kind, p.cur.Literal)
		p.resync()
		return nil
	}
}

// parseBlockBody parses statements until a closing '}' (not consumed) or
// EOF, used for fn/if/for/match/loop bodies (§4.4 scopes).
func (p *Parser) parseBlockBody() []ast.Stmt {
	var body []ast.Stmt
	for p.cur.Kind != token.RBrace && p.cur.Kind != token.EOF {
		if p.bag.AtCap() {
			break
		}
		before := p.cur
		stmt := p.parseBodyItem()
		if stmt != nil {
			body = append(body, stmt)
		}
		if p.cur == before {
			p.next()
		}
	}
	return body
}

// parseBodyItem parses one statement valid inside a function/if/for/match
// body: everything parseTopLevelItem accepts, plus `return` and `push`
// (only meaningful inside a loop body; elaborate rejects a push found
// anywhere else with E0399).
func (p *Parser) parseBodyItem() ast.Stmt {
	switch p.cur.Kind {
	case token.Return:
		return p.parseReturn()
	case token.Push:
		return p.parsePush()
	default:
		return p.parseTopLevelItem()
	}
}

func (p *Parser) parseLet() ast.Stmt {
	start := p.cur.Span
	p.next() // 'let'
	name := p.expectIdent()
	p.expectConsume(token.Assign)
	val := p.parseExpr()
	end := p.cur.Span
	p.expectConsume(token.Semicolon)
	return &ast.LetStmt{Name: name, Value: val, Sp: start.Join(end)}
}

func (p *Parser) parseFnDecl() ast.Stmt {
	start := p.cur.Span
	isWorld := false
	if p.cur.Kind == token.World {
		isWorld = true
		p.next()
	}
	p.expectConsume(token.Fn)
	name := p.expectIdent()
	p.expectConsume(token.LParen)
	var params []string
	for p.cur.Kind != token.RParen && p.cur.Kind != token.EOF {
		params = append(params, p.expectIdent())
		if p.cur.Kind == token.Comma {
			p.next()
		}
	}
	p.expectConsume(token.RParen)
	p.expectConsume(token.LBrace)
	body := p.parseBlockBody()
	end := p.cur.Span
	p.expectConsume(token.RBrace)
	return &ast.FnDecl{Name: name, Params: params, IsWorld: isWorld, Body: body, Sp: start.Join(end)}
}

func (p *Parser) parseReturn() ast.Stmt {
	start := p.cur.Span
	p.next() // 'return'
	var val ast.Expr
	if p.cur.Kind != token.Semicolon {
		val = p.parseExpr()
	}
	end := p.cur.Span
	p.expectConsume(token.Semicolon)
	return &ast.ReturnStmt{Value: val, Sp: start.Join(end)}
}

func (p *Parser) parseParticleDecl() ast.Stmt {
	start := p.cur.Span
	p.next() // 'particle'
	name := p.expectIdent()
	p.expectConsume(token.At)
	p.expectConsume(token.LParen)
	x := p.parseExpr()
	p.expectConsume(token.Comma)
	y := p.parseExpr()
	p.expectConsume(token.RParen)
	p.expectConsume(token.Mass)
	mass := p.parseExpr()
	end := p.cur.Span
	p.expectConsume(token.Semicolon)
	return &ast.ParticleDecl{Name: name, X: x, Y: y, Mass: mass, Sp: start.Join(end)}
}

func (p *Parser) parseForceDecl() ast.Stmt {
	start := p.cur.Span
	p.next() // 'force'
	decl := &ast.ForceDecl{}
	switch p.cur.Kind {
	case token.Gravity:
		decl.Kind = ast.ForceGravity
		p.next()
	case token.Spring:
		decl.Kind = ast.ForceSpring
		p.next()
	default:
		p.errorf(p.cur.Span, "expected gravity or spring, found %v", p.cur.Kind)
	}
	p.expectConsume(token.LParen)
	decl.A = p.parseExpr()
	p.expectConsume(token.Comma)
	decl.B = p.parseExpr()
	p.expectConsume(token.RParen)
	if decl.Kind == ast.ForceGravity {
		p.expectConsume(token.G)
		p.expectConsume(token.Assign)
		decl.G = p.parseExpr()
	} else {
		p.expectConsume(token.K)
		p.expectConsume(token.Assign)
		decl.K = p.parseExpr()
		p.expectConsume(token.Rest)
		p.expectConsume(token.Assign)
		decl.Rest = p.parseExpr()
	}
	end := p.cur.Span
	p.expectConsume(token.Semicolon)
	decl.Sp = start.Join(end)
	return decl
}

func (p *Parser) parseWellDecl() ast.Stmt {
	start := p.cur.Span
	p.next() // 'well'
	p.expectConsume(token.On)
	owner := p.parseExpr()
	p.expectConsume(token.If)
	cond := p.parseExpr()
	p.expectConsume(token.Depth)
	depth := p.parseExpr()
	end := p.cur.Span
	p.expectConsume(token.Semicolon)
	return &ast.WellDecl{Owner: owner, Threshold: cond, Depth: depth, Sp: start.Join(end)}
}

func (p *Parser) parseLoopDecl() ast.Stmt {
	start := p.cur.Span
	p.next() // 'loop'
	decl := &ast.LoopDecl{}
	switch p.cur.Kind {
	case token.For:
		decl.Kind = ast.LoopForCycles
		p.next()
		decl.Cycles = p.parseExpr()
		p.expectConsume(token.Cycles)
	case token.While:
		decl.Kind = ast.LoopWhile
		p.next()
		decl.Cond = p.parseExpr()
	default:
		p.errorf(p.cur.Span, "expected for or while, found %v", p.cur.Kind)
	}
	p.expectConsume(token.With)
	p.expectConsume(token.Frequency)
	decl.Frequency = p.parseExpr()
	p.expectConsume(token.Damping)
	decl.Damping = p.parseExpr()
	p.expectConsume(token.On)
	decl.Target = p.parseExpr()
	p.expectConsume(token.LBrace)
	for p.cur.Kind == token.Push {
		decl.Body = append(decl.Body, p.parsePush().(*ast.PushStmt))
	}
	end := p.cur.Span
	p.expectConsume(token.RBrace)
	decl.Sp = start.Join(end)
	return decl
}

func (p *Parser) parsePush() ast.Stmt {
	start := p.cur.Span
	p.next() // 'push'
	p.expectConsume(token.LParen)
	target := p.parseExpr()
	p.expectConsume(token.RParen)
	p.expectConsume(token.Magnitude)
	mag := p.parseExpr()
	p.expectConsume(token.Direction)
	p.expectConsume(token.LParen)
	dx := p.parseExpr()
	p.expectConsume(token.Comma)
	dy := p.parseExpr()
	p.expectConsume(token.RParen)
	end := p.cur.Span
	p.expectConsume(token.Semicolon)
	return &ast.PushStmt{Target: target, Magnitude: mag, Dx: dx, Dy: dy, Sp: start.Join(end)}
}

func (p *Parser) parseSimulateDecl() ast.Stmt {
	start := p.cur.Span
	p.next() // 'simulate'
	p.expectConsume(token.Dt)
	dt := p.parseExpr()
	p.expectConsume(token.Steps)
	steps := p.parseExpr()
	end := p.cur.Span
	p.expectConsume(token.Semicolon)
	return &ast.SimulateDecl{Dt: dt, Steps: steps, Sp: start.Join(end)}
}

func (p *Parser) parseDetectDecl() ast.Stmt {
	start := p.cur.Span
	p.next() // 'detect'
	name := p.expectIdent()
	p.expectConsume(token.Assign)

	decl := &ast.DetectDecl{Name: name}
	switch p.cur.Kind {
	case token.Position:
		decl.Kind = ast.DetectPositionX
		p.next()
		p.expectConsume(token.LParen)
		decl.Args = append(decl.Args, p.parseExpr())
		p.expectConsume(token.RParen)
	case token.Distance:
		decl.Kind = ast.DetectDistance
		p.next()
		p.expectConsume(token.LParen)
		decl.Args = append(decl.Args, p.parseExpr())
		p.expectConsume(token.Comma)
		decl.Args = append(decl.Args, p.parseExpr())
		p.expectConsume(token.RParen)
	case token.Speed:
		decl.Kind = ast.DetectSpeed
		p.next()
		p.expectConsume(token.LParen)
		decl.Args = append(decl.Args, p.parseExpr())
		p.expectConsume(token.RParen)
	default:
		p.errorf(p.cur.Span, "expected position, distance, or speed, found %v", p.cur.Kind)
	}
	end := p.cur.Span
	p.expectConsume(token.Semicolon)
	decl.Sp = start.Join(end)
	return decl
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.cur.Span
	p.next() // 'if'
	cond := p.parseExpr()
	p.expectConsume(token.LBrace)
	then := p.parseBlockBody()
	end := p.cur.Span
	p.expectConsume(token.RBrace)
	var els []ast.Stmt
	if p.cur.Kind == token.Else {
		p.next()
		p.expectConsume(token.LBrace)
		els = p.parseBlockBody()
		end = p.cur.Span
		p.expectConsume(token.RBrace)
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: els, Sp: start.Join(end)}
}

func (p *Parser) parseFor() ast.Stmt {
	start := p.cur.Span
	p.next() // 'for'
	v := p.expectIdent()
	p.expectConsume(token.In)
	from := p.parseExpr()
	p.expectConsume(token.Range)
	to := p.parseExpr()
	p.expectConsume(token.LBrace)
	body := p.parseBlockBody()
	end := p.cur.Span
	p.expectConsume(token.RBrace)
	return &ast.ForStmt{Var: v, Start: from, End: to, Body: body, Sp: start.Join(end)}
}

func (p *Parser) parseMatch() ast.Stmt {
	start := p.cur.Span
	p.next() // 'match'
	scrutinee := p.parseExpr()
	p.expectConsume(token.LBrace)
	var arms []ast.MatchArm
	for p.cur.Kind != token.RBrace && p.cur.Kind != token.EOF {
		armStart := p.cur.Span
		var pattern *int64
		if p.cur.Kind == token.Ident && p.cur.Literal == "_" {
			p.next()
		} else if p.cur.Kind == token.Int {
			v, err := parseIntLiteral(p.cur.Literal)
			if err != nil {
				p.errorf(p.cur.Span, "invalid match pattern: %v", err)
			}
			pattern = &v
			p.next()
		} else {
			p.errorf(p.cur.Span, "expected integer literal or _, found %v", p.cur.Kind)
			p.resync()
			continue
		}
		p.expectConsume(token.LBrace)
		body := p.parseBlockBody()
		armEnd := p.cur.Span
		p.expectConsume(token.RBrace)
		arms = append(arms, ast.MatchArm{Pattern: pattern, Body: body, Sp: armStart.Join(armEnd)})
	}
	end := p.cur.Span
	p.expectConsume(token.RBrace)
	return &ast.MatchStmt{Scrutinee: scrutinee, Arms: arms, Sp: start.Join(end)}
}

func (p *Parser) parseModule() ast.Stmt {
	start := p.cur.Span
	p.next() // 'module'
	name := p.expectIdent()
	p.expectConsume(token.LBrace)
	body := p.parseBlockBody()
	end := p.cur.Span
	p.expectConsume(token.RBrace)
	return &ast.ModuleDecl{Name: name, Body: body, Sp: start.Join(end)}
}

func (p *Parser) parseImport() ast.Stmt {
	start := p.cur.Span
	p.next() // 'import'
	var path string
	if p.cur.Kind == token.String {
		path = p.cur.Literal
		p.next()
	} else {
		p.errorf(p.cur.Span, "expected string literal import path, found %v", p.cur.Kind)
	}
	end := p.cur.Span
	p.expectConsume(token.Semicolon)
	return &ast.ImportDecl{Path: path, Sp: start.Join(end)}
}

func (p *Parser) parseExprStmt() ast.Stmt {
	start := p.cur.Span
	expr := p.parseExpr()
	end := p.cur.Span
	p.expectConsume(token.Semicolon)
	call, ok := expr.(*ast.CallExpr)
	if !ok {
		p.errorf(start, "expected a function call statement")
		return nil
	}
	return &ast.ExprStmt{Call: call, Sp: start.Join(end)}
}

// ---- Expressions: comparison < additive < multiplicative < unary < primary (§4.2) ----

func (p *Parser) parseExpr() ast.Expr { return p.parseComparison() }

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	switch p.cur.Kind {
	case token.Eq, token.NotEq, token.Lt, token.Gt, token.Le, token.Ge:
		op := p.cur.Kind
		p.next()
		right := p.parseAdditive()
		return &ast.CompareOp{Op: op, X: left, Y: right, Sp: left.Span().Join(right.Span())}
	default:
		return left
	}
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.cur.Kind == token.Plus || p.cur.Kind == token.Minus {
		op := p.cur.Kind
		p.next()
		right := p.parseMultiplicative()
		left = &ast.BinaryOp{Op: op, X: left, Y: right, Sp: left.Span().Join(right.Span())}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.cur.Kind == token.Star || p.cur.Kind == token.Slash {
		op := p.cur.Kind
		p.next()
		right := p.parseUnary()
		left = &ast.BinaryOp{Op: op, X: left, Y: right, Sp: left.Span().Join(right.Span())}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	if p.cur.Kind == token.Minus {
		start := p.cur.Span
		p.next()
		x := p.parseUnary()
		return &ast.UnaryOp{X: x, Sp: start.Join(x.Span())}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for p.cur.Kind == token.Dot {
		start := p.cur.Span
		p.next()
		field := p.expectIdent()
		if field != "x" && field != "y" {
			p.errorf(start, "expected field x or y, found %q", field)
		}
		x = &ast.FieldAccess{X: x, Field: field, Sp: x.Span().Join(p.cur.Span)}
	}
	return x
}

func (p *Parser) parsePrimary() ast.Expr {
	switch p.cur.Kind {
	case token.Int:
		return p.parseIntLit()
	case token.Float:
		return p.parseFloatLit()
	case token.String:
		lit := &ast.StringLit{Value: p.cur.Literal, Sp: p.cur.Span}
		p.next()
		return lit
	case token.LParen:
		p.next()
		x := p.parseExpr()
		p.expectConsume(token.RParen)
		return x
	case token.Sin, token.Cos, token.Sqrt:
		return p.parseUnaryBuiltin()
	case token.Clamp:
		return p.parseClamp()
	case token.Position:
		return p.parsePositionObservable()
	case token.Distance:
		return p.parseDistanceObservable()
	case token.Speed:
		return p.parseSpeedObservable()
	case token.Ident:
		return p.parseIdentOrCall()
	default:
		sp := p.cur.Span
		p.errorf(sp, "unexpected token %v %q in expression", p.cur.Kind, p.cur.Literal)
		p.next()
		return &ast.Ident{Name: "", Sp: sp}
	}
}

func parseIntLiteral(lit string) (int64, error) {
	var v int64
	_, err := fmt.Sscanf(lit, "%d", &v)
	return v, err
}

func (p *Parser) parseIntLit() ast.Expr {
	v, err := parseIntLiteral(p.cur.Literal)
	if err != nil {
		p.errorf(p.cur.Span, "invalid integer literal %q", p.cur.Literal)
	}
	lit := &ast.NumberLit{IsInt: true, IntValue: v, FloatValue: float64(v), Sp: p.cur.Span}
	p.next()
	return lit
}

func (p *Parser) parseFloatLit() ast.Expr {
	var v float64
	_, err := fmt.Sscanf(p.cur.Literal, "%g", &v)
	if err != nil {
		p.errorf(p.cur.Span, "invalid float literal %q", p.cur.Literal)
	}
	lit := &ast.NumberLit{IsInt: false, FloatValue: v, Sp: p.cur.Span}
	p.next()
	return lit
}

func (p *Parser) parseUnaryBuiltin() ast.Expr {
	start := p.cur.Span
	fn := p.cur.Kind
	p.next()
	p.expectConsume(token.LParen)
	arg := p.parseExpr()
	end := p.cur.Span
	p.expectConsume(token.RParen)
	return &ast.BuiltinCall{Func: fn, Args: []ast.Expr{arg}, Sp: start.Join(end)}
}

func (p *Parser) parseClamp() ast.Expr {
	start := p.cur.Span
	p.next() // 'clamp'
	p.expectConsume(token.LParen)
	x := p.parseExpr()
	p.expectConsume(token.Comma)
	lo := p.parseExpr()
	p.expectConsume(token.Comma)
	hi := p.parseExpr()
	end := p.cur.Span
	p.expectConsume(token.RParen)
	return &ast.BuiltinCall{Func: token.Clamp, Args: []ast.Expr{x, lo, hi}, Sp: start.Join(end)}
}

func (p *Parser) parsePositionObservable() ast.Expr {
	start := p.cur.Span
	p.next() // 'position'
	p.expectConsume(token.LParen)
	arg := p.parseExpr()
	end := p.cur.Span
	p.expectConsume(token.RParen)
	return &ast.Observable{Kind: ast.ObservePosition, Args: []ast.Expr{arg}, Sp: start.Join(end)}
}

func (p *Parser) parseDistanceObservable() ast.Expr {
	start := p.cur.Span
	p.next() // 'distance'
	p.expectConsume(token.LParen)
	a := p.parseExpr()
	p.expectConsume(token.Comma)
	b := p.parseExpr()
	end := p.cur.Span
	p.expectConsume(token.RParen)
	return &ast.Observable{Kind: ast.ObserveDistance, Args: []ast.Expr{a, b}, Sp: start.Join(end)}
}

func (p *Parser) parseSpeedObservable() ast.Expr {
	start := p.cur.Span
	p.next() // 'speed'
	p.expectConsume(token.LParen)
	arg := p.parseExpr()
	end := p.cur.Span
	p.expectConsume(token.RParen)
	return &ast.Observable{Kind: ast.ObserveSpeed, Args: []ast.Expr{arg}, Sp: start.Join(end)}
}

func (p *Parser) parseIdentOrCall() ast.Expr {
	start := p.cur.Span
	name := p.cur.Literal
	p.next()
	if p.cur.Kind != token.LParen {
		return &ast.Ident{Name: name, Sp: start}
	}
	p.next() // '('
	var args []ast.Expr
	for p.cur.Kind != token.RParen && p.cur.Kind != token.EOF {
		args = append(args, p.parseExpr())
		if p.cur.Kind == token.Comma {
			p.next()
		}
	}
	end := p.cur.Span
	p.expectConsume(token.RParen)
	return &ast.CallExpr{Name: name, Args: args, Sp: start.Join(end)}
}
