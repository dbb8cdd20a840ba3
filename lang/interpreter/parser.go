// Package interpreter implements the secondary, tree-walking evaluation
// path: a recursive-descent Parser producing a package ast tree from the
// same token stream the bytecode compiler consumes, and an Interpreter
// that walks that tree directly. It exists for expression-level test
// harnesses and for the query-style header surface; the primary execution
// path is package vm.
package interpreter

import (
	"fmt"

	"github.com/mna/mint/lang/ast"
	"github.com/mna/mint/lang/lexer"
	"github.com/mna/mint/lang/token"
)

// ParseError is a single diagnostic raised while parsing.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string { return fmt.Sprintf("%d: %s", e.Line, e.Msg) }

// ParseErrors collects every diagnostic from one Parse call.
type ParseErrors []*ParseError

func (es ParseErrors) Error() string {
	if len(es) == 1 {
		return es[0].Error()
	}
	msg := fmt.Sprintf("%d parse errors:\n", len(es))
	for _, e := range es {
		msg += "\t" + e.Error() + "\n"
	}
	return msg
}

// Parser is a recursive-descent parser over the same grammar the bytecode
// compiler's Pratt parser accepts, building an explicit ast tree instead
// of emitting bytecode.
type Parser struct {
	lx   *lexer.Lexer
	toks []token.Token // the whole token stream, scanned up front by NewParser
	next int           // index in toks of the token that follows cur
	prev token.Token
	cur  token.Token

	errs ParseErrors
}

// NewParser scans the whole of source into tokens (so that GetToken and
// AllTokensValid cover the entire stream) and returns a Parser ready to
// parse it.
func NewParser(source string) *Parser {
	p := &Parser{lx: lexer.New(source)}
	for {
		t := p.lx.Scan()
		p.toks = append(p.toks, t)
		if t.Kind == token.Eof {
			break
		}
	}
	p.advance()
	return p
}

// AllTokensValid reports whether the lexer produced no Invalid tokens.
func (p *Parser) AllTokensValid() bool { return p.lx.AllTokensValid() }

// GetToken returns the i'th token of the source (0-based), mirroring the
// reference implementation's token-introspection surface used by tests.
func (p *Parser) GetToken(i int) token.Token { return p.toks[i] }

func (p *Parser) advance() {
	p.prev = p.cur
	for {
		p.cur = p.toks[p.next]
		if p.next < len(p.toks)-1 {
			p.next++
		}
		if p.cur.Kind != token.Invalid {
			break
		}
		p.errorAtCurrent("invalid character %q", p.cur.Lexeme)
	}
}

func (p *Parser) check(k token.Kind) bool { return p.cur.Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(k token.Kind, msg string) token.Token {
	if p.check(k) {
		t := p.cur
		p.advance()
		return t
	}
	p.errorAtCurrent("%s", msg)
	return p.cur
}

func (p *Parser) errorAtCurrent(format string, args ...any) {
	p.errs = append(p.errs, &ParseError{Line: p.cur.Line, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) error(format string, args ...any) {
	p.errs = append(p.errs, &ParseError{Line: p.prev.Line, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) isTypeKeyword(k token.Kind) bool {
	switch k {
	case token.IntKw, token.StrKw, token.BoolKw, token.FunrefKw:
		return true
	default:
		return false
	}
}

// ParseExpr parses a single expression (the GetAST surface used by the
// expression-evaluation test harness) and returns the accumulated errors,
// if any.
func (p *Parser) ParseExpr() (ast.Expr, error) {
	e := p.expression()
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return e, nil
}

// ParseProgram parses a full program (the GetStatements surface) and
// returns its top-level statement list.
func (p *Parser) ParseProgram() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.check(token.Eof) {
		stmts = append(stmts, p.declaration())
	}
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return stmts, nil
}

// --- expressions, lowest to highest precedence ---

func (p *Parser) expression() ast.Expr { return p.assignment() }

func (p *Parser) assignment() ast.Expr {
	expr := p.or()
	if p.match(token.Assign) {
		name, ok := expr.(*ast.Variable)
		value := p.assignment()
		if !ok {
			p.error("invalid assignment target")
			return expr
		}
		return &ast.Assign{Name: name.Name, Value: value}
	}
	return expr
}

func (p *Parser) or() ast.Expr {
	expr := p.and()
	for p.check(token.Or) {
		op := p.cur
		p.advance()
		expr = &ast.Logical{Op: op, Left: expr, Right: p.and()}
	}
	return expr
}

func (p *Parser) and() ast.Expr {
	expr := p.equality()
	for p.check(token.And) {
		op := p.cur
		p.advance()
		expr = &ast.Logical{Op: op, Left: expr, Right: p.equality()}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	expr := p.comparison()
	for p.check(token.IsEqual) || p.check(token.NotEqual) {
		op := p.cur
		p.advance()
		expr = &ast.Binary{Op: op, Left: expr, Right: p.comparison()}
	}
	return expr
}

func (p *Parser) comparison() ast.Expr {
	expr := p.term()
	for p.check(token.LessThan) || p.check(token.GreaterThan) ||
		p.check(token.LessThanEqual) || p.check(token.GreaterThanEqual) {
		op := p.cur
		p.advance()
		expr = &ast.Binary{Op: op, Left: expr, Right: p.term()}
	}
	return expr
}

func (p *Parser) term() ast.Expr {
	expr := p.factor()
	for p.check(token.Plus) || p.check(token.Minus) {
		op := p.cur
		p.advance()
		expr = &ast.Binary{Op: op, Left: expr, Right: p.factor()}
	}
	return expr
}

func (p *Parser) factor() ast.Expr {
	expr := p.unary()
	for p.check(token.Multiply) || p.check(token.Divide) || p.check(token.Modulo) {
		op := p.cur
		p.advance()
		expr = &ast.Binary{Op: op, Left: expr, Right: p.unary()}
	}
	return expr
}

func (p *Parser) unary() ast.Expr {
	if p.check(token.Minus) || p.check(token.Not) {
		op := p.cur
		p.advance()
		return &ast.Unary{Op: op, Operand: p.unary()}
	}
	return p.call()
}

func (p *Parser) call() ast.Expr {
	expr := p.primary()
	for p.match(token.OpenParen) {
		v, ok := expr.(*ast.Variable)
		if !ok {
			p.error("only named functions can be called")
		}
		paren := p.prev
		var args []ast.Expr
		if !p.check(token.CloseParen) {
			for {
				args = append(args, p.expression())
				if !p.match(token.Comma) {
					break
				}
			}
		}
		p.consume(token.CloseParen, "expect ')' after arguments")
		var name token.Token
		if ok {
			name = v.Name
		}
		expr = &ast.Call{Callee: name, Paren: paren, Args: args}
	}
	return expr
}

func (p *Parser) primary() ast.Expr {
	switch {
	case p.match(token.Number), p.match(token.String), p.match(token.True), p.match(token.False):
		return &ast.Literal{Tok: p.prev}
	case p.match(token.Identifier):
		return &ast.Variable{Name: p.prev}
	case p.match(token.OpenParen):
		inner := p.expression()
		p.consume(token.CloseParen, "expect ')' after expression")
		return inner
	}
	p.errorAtCurrent("expect expression, got %s", p.cur)
	p.advance()
	return &ast.Literal{Tok: token.Token{Kind: token.Invalid, Line: p.cur.Line}}
}

// --- statements and declarations ---

func (p *Parser) declaration() ast.Stmt {
	switch {
	case p.match(token.Fun):
		return p.funDecl()
	case p.isTypeKeyword(p.cur.Kind):
		typ := p.cur
		p.advance()
		return p.varDecl(typ)
	case p.check(token.OpenBracket):
		return p.queryHeader()
	default:
		return p.statement()
	}
}

func (p *Parser) varDecl(typ token.Token) ast.Stmt {
	name := p.consume(token.Identifier, "expect variable name")
	var value ast.Expr
	if p.match(token.Assign) {
		value = p.expression()
	}
	p.consume(token.Semicolon, "expect ';' after variable declaration")
	return &ast.VarDecl{Type: typ, Name: name, Value: value}
}

func (p *Parser) funDecl() ast.Stmt {
	name := p.consume(token.Identifier, "expect function name")
	p.consume(token.OpenParen, "expect '(' after function name")
	var params []ast.Param
	if !p.check(token.CloseParen) {
		for {
			if !p.isTypeKeyword(p.cur.Kind) {
				p.errorAtCurrent("expect parameter type")
			}
			typ := p.cur
			p.advance()
			pname := p.consume(token.Identifier, "expect parameter name")
			params = append(params, ast.Param{Type: typ, Name: pname})
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.consume(token.CloseParen, "expect ')' after parameters")
	p.consume(token.OpenBrace, "expect '{' before function body")
	body := p.block()
	return &ast.FunDecl{Name: name, Params: params, Body: body}
}

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(token.Print):
		return p.printStmt()
	case p.match(token.If):
		return p.ifStmt()
	case p.match(token.While):
		return p.whileStmt()
	case p.match(token.For):
		return p.forStmt()
	case p.match(token.Return):
		return p.returnStmt()
	case p.match(token.OpenBrace):
		return p.block()
	default:
		return p.exprStmt()
	}
}

func (p *Parser) block() *ast.Block {
	var stmts []ast.Stmt
	for !p.check(token.CloseBrace) && !p.check(token.Eof) {
		stmts = append(stmts, p.declaration())
	}
	p.consume(token.CloseBrace, "expect '}' after block")
	return &ast.Block{Stmts: stmts}
}

func (p *Parser) printStmt() ast.Stmt {
	tok := p.prev
	expr := p.expression()
	p.consume(token.Semicolon, "expect ';' after value")
	return &ast.PrintStmt{Tok: tok, Expr: expr}
}

func (p *Parser) exprStmt() ast.Stmt {
	expr := p.expression()
	p.consume(token.Semicolon, "expect ';' after expression")
	return &ast.ExprStmt{Expr: expr}
}

func (p *Parser) ifStmt() ast.Stmt {
	p.consume(token.OpenParen, "expect '(' after 'if'")
	cond := p.expression()
	p.consume(token.CloseParen, "expect ')' after condition")
	then := p.statement()
	var els ast.Stmt
	if p.match(token.Else) {
		els = p.statement()
	}
	return &ast.If{Cond: cond, Then: then, Else: els}
}

func (p *Parser) whileStmt() ast.Stmt {
	p.consume(token.OpenParen, "expect '(' after 'while'")
	cond := p.expression()
	p.consume(token.CloseParen, "expect ')' after condition")
	return &ast.While{Cond: cond, Body: p.statement()}
}

func (p *Parser) forStmt() ast.Stmt {
	p.consume(token.OpenParen, "expect '(' after 'for'")

	var init ast.Stmt
	switch {
	case p.match(token.Semicolon):
		// no initializer
	case p.isTypeKeyword(p.cur.Kind):
		typ := p.cur
		p.advance()
		init = p.varDecl(typ)
	default:
		init = p.exprStmt()
	}

	var cond ast.Expr
	if !p.check(token.Semicolon) {
		cond = p.expression()
	}
	p.consume(token.Semicolon, "expect ';' after loop condition")

	var step ast.Expr
	if !p.check(token.CloseParen) {
		step = p.expression()
	}
	p.consume(token.CloseParen, "expect ')' after for clauses")

	return &ast.For{Init: init, Cond: cond, Step: step, Body: p.statement()}
}

func (p *Parser) returnStmt() ast.Stmt {
	tok := p.prev
	if p.match(token.Semicolon) {
		return &ast.Return{Tok: tok}
	}
	value := p.expression()
	p.consume(token.Semicolon, "expect ';' after return value")
	return &ast.Return{Tok: tok, Value: value}
}

// queryHeader parses `[ Name ] ( (type name (, type name)*)? )? { expr-or-stmts }`. Per
// the language's own open question on this surface, it is parsed only —
// nothing in package interpreter or package vm executes a QueryHeader.
func (p *Parser) queryHeader() ast.Stmt {
	p.consume(token.OpenBracket, "expect '['")
	var nameParts []string
	for !p.check(token.CloseBracket) && !p.check(token.Eof) {
		nameParts = append(nameParts, p.cur.Lexeme)
		p.advance()
	}
	p.consume(token.CloseBracket, "expect ']'")

	name := ""
	for i, part := range nameParts {
		if i > 0 {
			name += " "
		}
		name += part
	}

	var params []ast.Param
	if p.match(token.OpenParen) {
		if !p.check(token.CloseParen) {
			for {
				if !p.isTypeKeyword(p.cur.Kind) {
					p.errorAtCurrent("expect parameter type")
				}
				typ := p.cur
				p.advance()
				pname := p.consume(token.Identifier, "expect parameter name")
				params = append(params, ast.Param{Type: typ, Name: pname})
				if !p.match(token.Comma) {
					break
				}
			}
		}
		p.consume(token.CloseParen, "expect ')' after query parameters")
	}

	p.consume(token.OpenBrace, "expect '{' after query header")
	body := p.queryBody()
	return &ast.QueryHeader{Name: name, Params: params, Body: body}
}

// queryBody accepts either a bare expression or a statement list before the
// closing brace, since the reference surface shows both forms (`{ Genre ==
// 'Pop' }` and `{ return Mood != 'Dinner'; }`).
func (p *Parser) queryBody() *ast.Block {
	var stmts []ast.Stmt
	for !p.check(token.CloseBrace) && !p.check(token.Eof) {
		if p.check(token.Return) {
			p.advance()
			stmts = append(stmts, p.returnStmt())
			continue
		}
		expr := p.expression()
		if p.match(token.Semicolon) {
			stmts = append(stmts, &ast.ExprStmt{Expr: expr})
		} else {
			stmts = append(stmts, &ast.ExprStmt{Expr: expr})
			break
		}
	}
	p.consume(token.CloseBrace, "expect '}' after query body")
	return &ast.Block{Stmts: stmts}
}
