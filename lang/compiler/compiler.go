// Package compiler implements the single-pass Pratt parser that compiles
// mint source text directly to bytecode, with no intermediate AST, tracking
// lexical scopes, local slot allocation, and upvalue resolution for nested
// functions as it goes.
package compiler

import (
	"strconv"
	"strings"

	"github.com/mna/mint/lang/chunk"
	"github.com/mna/mint/lang/lexer"
	"github.com/mna/mint/lang/token"
	"github.com/mna/mint/lang/value"
)

// MaxLocals and MaxUpvalues bound a single function's local and upvalue
// count, since both are addressed by a one-byte operand.
const (
	MaxLocals   = 256
	MaxUpvalues = 256
)

type funcType int

const (
	funcTypeScript funcType = iota
	funcTypeFunction
)

type localVar struct {
	name       string
	depth      int
	isCaptured bool
}

// funcState holds the compiler state for one function (or the implicit
// top-level script function), chained to its enclosing function's state so
// that upvalue resolution can walk outward.
type funcState struct {
	enclosing *funcState
	function  *chunk.CompiledFunction
	ftype     funcType
	locals    []localVar
	upvalues  []chunk.UpvalueDesc
	scopeDepth int
}

func newFuncState(enclosing *funcState, ftype funcType, name string) *funcState {
	fs := &funcState{
		enclosing: enclosing,
		ftype:     ftype,
		function:  &chunk.CompiledFunction{Name: name, Chunk: chunk.New()},
	}
	// Slot 0 is reserved for the callee itself (the closure being called),
	// matching the runtime calling convention in package vm.
	fs.locals = append(fs.locals, localVar{name: "", depth: 0})
	return fs
}

// Compiler is the single-pass Pratt compiler. Create one implicitly via
// Compile; there is no reason to reuse a Compiler across programs.
type Compiler struct {
	lx   *lexer.Lexer
	prev token.Token
	cur  token.Token

	fs *funcState

	panicMode bool
	errs      ParseErrors
}

// Compile compiles source into a top-level CompiledFunction (arity 0,
// unnamed), ready to be wrapped in a Closure and run by the virtual
// machine. On error it returns nil and a ParseErrors describing every
// diagnostic collected during the pass (no partial Chunk is returned).
func Compile(source string) (*chunk.CompiledFunction, error) {
	c := &Compiler{lx: lexer.New(source)}
	c.fs = newFuncState(nil, funcTypeScript, "")

	c.advance()
	for !c.match(token.Eof) {
		c.declaration()
	}
	fn, _ := c.endFunction()

	if len(c.errs) > 0 {
		return nil, c.errs
	}
	return fn, nil
}

func (c *Compiler) currentChunk() *chunk.Chunk { return c.fs.function.Chunk }

// --- token stream helpers ---

func (c *Compiler) advance() {
	c.prev = c.cur
	for {
		c.cur = c.lx.Scan()
		if c.cur.Kind != token.Invalid {
			break
		}
		c.errorAtCurrent("invalid character %q", c.cur.Lexeme)
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.cur.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, msg string) {
	if c.check(k) {
		c.advance()
		return
	}
	c.errorAtCurrent("%s", msg)
}

func (c *Compiler) isTypeKeyword(k token.Kind) bool {
	switch k {
	case token.IntKw, token.StrKw, token.BoolKw, token.FunrefKw:
		return true
	default:
		return false
	}
}

// --- bytecode emission helpers ---

func (c *Compiler) emitByte(b byte) { c.currentChunk().Write(b, c.prev.Line) }
func (c *Compiler) emitOp(op chunk.OpCode) { c.currentChunk().WriteOp(op, c.prev.Line) }
func (c *Compiler) emitOpByte(op chunk.OpCode, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) emitJump(op chunk.OpCode) int {
	c.emitOp(op)
	return c.currentChunk().WriteUint16(0xFFFF, c.prev.Line)
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.currentChunk().Code) - offset - 2
	if jump > 0xFFFF {
		c.error("too much code to jump over")
		return
	}
	c.currentChunk().PatchUint16(offset, uint16(jump))
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(chunk.Loop)
	back := len(c.currentChunk().Code) + 2 - loopStart
	if back > 0xFFFF {
		c.error("loop body too large")
		return
	}
	c.currentChunk().WriteUint16(uint16(back), c.prev.Line)
}

func (c *Compiler) makeConstant(v value.Value) byte {
	idx := c.currentChunk().AddConstant(v)
	if idx >= chunk.MaxConstants {
		c.error("too many constants in one chunk")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitOpByte(chunk.Constant, c.makeConstant(v))
}

func (c *Compiler) identifierConstant(name string) byte {
	return c.makeConstant(value.StrValue(name))
}

// endFunction closes the current function's compiler state, returning its
// CompiledFunction and the upvalue descriptors its enclosing function must
// emit alongside the Closure instruction that creates it.
func (c *Compiler) endFunction() (*chunk.CompiledFunction, []chunk.UpvalueDesc) {
	c.emitOp(chunk.Nil)
	c.emitOp(chunk.Return)

	fn := c.fs.function
	fn.NumLocals = len(c.fs.locals)
	fn.Upvalues = c.fs.upvalues
	upvalues := c.fs.upvalues
	c.fs = c.fs.enclosing
	return fn, upvalues
}

// --- scopes and locals ---

func (c *Compiler) beginScope() { c.fs.scopeDepth++ }

func (c *Compiler) endScope() {
	c.fs.scopeDepth--
	for len(c.fs.locals) > 0 && c.fs.locals[len(c.fs.locals)-1].depth > c.fs.scopeDepth {
		last := c.fs.locals[len(c.fs.locals)-1]
		if last.isCaptured {
			c.emitOp(chunk.CloseUpvalue)
		} else {
			c.emitOp(chunk.Pop)
		}
		c.fs.locals = c.fs.locals[:len(c.fs.locals)-1]
	}
}

func (c *Compiler) addLocal(name string) {
	if len(c.fs.locals) >= MaxLocals {
		c.error("too many local variables in function")
		return
	}
	for i := len(c.fs.locals) - 1; i >= 0; i-- {
		l := c.fs.locals[i]
		if l.depth < c.fs.scopeDepth {
			break
		}
		if l.name == name {
			c.error("already a variable named %q in this scope", name)
		}
	}
	c.fs.locals = append(c.fs.locals, localVar{name: name, depth: c.fs.scopeDepth})
}

func resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return i
		}
	}
	return -1
}

func addUpvalue(fs *funcState, index byte, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.Index == index && uv.IsLocal == isLocal {
			return i
		}
	}
	fs.upvalues = append(fs.upvalues, chunk.UpvalueDesc{IsLocal: isLocal, Index: index})
	return len(fs.upvalues) - 1
}

// resolveUpvalue implements the upvalue-chain resolution: if name is a
// local of the immediately enclosing function, capture it directly
// (IsLocal=true); otherwise recurse outward, chaining an upvalue-of-an-
// upvalue (IsLocal=false) through every intermediate function.
func resolveUpvalue(fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if slot := resolveLocal(fs.enclosing, name); slot != -1 {
		fs.enclosing.locals[slot].isCaptured = true
		return addUpvalue(fs, byte(slot), true)
	}
	if uv := resolveUpvalue(fs.enclosing, name); uv != -1 {
		return addUpvalue(fs, byte(uv), false)
	}
	return -1
}

// --- Pratt expression parsing ---

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	rule := ruleFor(c.prev.Kind)
	if rule.prefix == nil {
		c.error("expect expression, got %s", c.prev)
		return
	}
	canAssign := prec <= precAssignment
	rule.prefix(c, canAssign)

	for {
		infixRule := ruleFor(c.cur.Kind)
		if infixRule.prec < prec {
			break
		}
		c.advance()
		infixRule.infix(c, canAssign)
	}

	if canAssign && c.match(token.Assign) {
		c.error("invalid assignment target")
	}
}

func (c *Compiler) number(_ bool) {
	lexeme := c.prev.Lexeme
	if strings.Contains(lexeme, ".") {
		c.error("floating-point literals are not supported")
		return
	}
	n, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		c.error("invalid number literal %q", lexeme)
		return
	}
	c.emitConstant(value.IntValue(n))
}

func (c *Compiler) string(_ bool) {
	c.emitConstant(value.StrValue(c.prev.Lexeme))
}

func (c *Compiler) literal(_ bool) {
	switch c.prev.Kind {
	case token.True:
		c.emitOp(chunk.True)
	case token.False:
		c.emitOp(chunk.False)
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.CloseParen, "expect ')' after expression")
}

func (c *Compiler) unary(_ bool) {
	opKind := c.prev.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case token.Minus:
		c.emitOp(chunk.Negate)
	case token.Not:
		c.emitOp(chunk.Not)
	}
}

func (c *Compiler) binary(_ bool) {
	opKind := c.prev.Kind
	rule := ruleFor(opKind)
	c.parsePrecedence(rule.prec + 1)

	switch opKind {
	case token.Plus:
		c.emitOp(chunk.Add)
	case token.Minus:
		c.emitOp(chunk.Subtract)
	case token.Multiply:
		c.emitOp(chunk.Multiply)
	case token.Divide:
		c.emitOp(chunk.Divide)
	case token.Modulo:
		c.emitOp(chunk.Modulo)
	case token.IsEqual:
		c.emitOp(chunk.Equal)
	case token.NotEqual:
		c.emitOp(chunk.NotEqual)
	case token.GreaterThan:
		c.emitOp(chunk.Greater)
	case token.LessThan:
		c.emitOp(chunk.Less)
	case token.LessThanEqual:
		// a <= b  ==  not(a > b)
		c.emitOp(chunk.Greater)
		c.emitOp(chunk.Not)
	case token.GreaterThanEqual:
		// a >= b  ==  not(a < b)
		c.emitOp(chunk.Less)
		c.emitOp(chunk.Not)
	}
}

func (c *Compiler) and(_ bool) {
	endJump := c.emitJump(chunk.JumpIfFalse)
	c.emitOp(chunk.Pop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(_ bool) {
	elseJump := c.emitJump(chunk.JumpIfFalse)
	endJump := c.emitJump(chunk.Jump)
	c.patchJump(elseJump)
	c.emitOp(chunk.Pop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(_ bool) {
	argc := c.argumentList()
	c.emitOpByte(chunk.Call, byte(argc))
}

func (c *Compiler) argumentList() int {
	argc := 0
	if !c.check(token.CloseParen) {
		for {
			c.expression()
			if argc == 255 {
				c.error("too many arguments")
			}
			argc++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.CloseParen, "expect ')' after arguments")
	return argc
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.prev.Lexeme, canAssign)
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp chunk.OpCode
	var arg byte

	if slot := resolveLocal(c.fs, name); slot != -1 {
		arg, getOp, setOp = byte(slot), chunk.GetLocal, chunk.SetLocal
	} else if uv := resolveUpvalue(c.fs, name); uv != -1 {
		arg, getOp, setOp = byte(uv), chunk.GetUpvalue, chunk.SetUpvalue
	} else {
		arg, getOp, setOp = c.identifierConstant(name), chunk.GetGlobal, chunk.SetGlobal
	}

	if canAssign && c.match(token.Assign) {
		c.expression()
		c.emitOpByte(setOp, arg)
	} else {
		c.emitOpByte(getOp, arg)
	}
}

// --- statements and declarations ---

func (c *Compiler) declaration() {
	switch {
	case c.check(token.Fun):
		c.advance()
		c.funDeclaration()
	case c.isTypeKeyword(c.cur.Kind):
		c.advance()
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	c.consume(token.Identifier, "expect variable name")
	name := c.prev.Lexeme
	isLocal := c.fs.scopeDepth > 0

	var nameConst byte
	if !isLocal {
		nameConst = c.identifierConstant(name)
	}

	if c.match(token.Assign) {
		c.expression()
	} else {
		c.emitOp(chunk.Nil)
	}
	c.consume(token.Semicolon, "expect ';' after variable declaration")

	if isLocal {
		c.addLocal(name)
	} else {
		c.emitOpByte(chunk.DefineGlobal, nameConst)
	}
}

func (c *Compiler) funDeclaration() {
	c.consume(token.Identifier, "expect function name")
	name := c.prev.Lexeme
	isLocal := c.fs.scopeDepth > 0

	var nameConst byte
	if isLocal {
		// Declared before compiling the body so a recursive call inside the
		// function resolves to this same local/upvalue slot.
		c.addLocal(name)
	} else {
		nameConst = c.identifierConstant(name)
	}

	c.function(name, funcTypeFunction)

	if !isLocal {
		c.emitOpByte(chunk.DefineGlobal, nameConst)
	}
}

func (c *Compiler) function(name string, ftype funcType) {
	enclosing := c.fs
	c.fs = newFuncState(enclosing, ftype, name)
	c.beginScope()

	c.consume(token.OpenParen, "expect '(' after function name")
	if !c.check(token.CloseParen) {
		for {
			c.fs.function.Arity++
			if c.fs.function.Arity > 255 {
				c.errorAtCurrent("too many parameters")
			}
			if !c.isTypeKeyword(c.cur.Kind) {
				c.errorAtCurrent("expect parameter type")
			} else {
				c.advance()
			}
			c.consume(token.Identifier, "expect parameter name")
			c.addLocal(c.prev.Lexeme)
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.CloseParen, "expect ')' after parameters")
	c.consume(token.OpenBrace, "expect '{' before function body")
	c.block()

	fn, upvalues := c.endFunction()
	if len(upvalues) > MaxUpvalues {
		c.error("too many closure variables in function")
	}

	constIdx := c.makeConstant(value.ObjectValue(fn))
	c.emitOpByte(chunk.Closure, constIdx)
	for _, uv := range upvalues {
		if uv.IsLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(uv.Index)
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.Print):
		c.printStatement()
	case c.match(token.If):
		c.ifStatement()
	case c.match(token.While):
		c.whileStatement()
	case c.match(token.For):
		c.forStatement()
	case c.match(token.Return):
		c.returnStatement()
	case c.match(token.OpenBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.CloseBrace) && !c.check(token.Eof) {
		c.declaration()
	}
	c.consume(token.CloseBrace, "expect '}' after block")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.Semicolon, "expect ';' after value")
	c.emitOp(chunk.Print)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "expect ';' after expression")
	c.emitOp(chunk.Pop)
}

func (c *Compiler) ifStatement() {
	c.consume(token.OpenParen, "expect '(' after 'if'")
	c.expression()
	c.consume(token.CloseParen, "expect ')' after condition")

	thenJump := c.emitJump(chunk.JumpIfFalse)
	c.emitOp(chunk.Pop)
	c.statement()

	elseJump := c.emitJump(chunk.Jump)
	c.patchJump(thenJump)
	c.emitOp(chunk.Pop)

	if c.match(token.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.currentChunk().Code)
	c.consume(token.OpenParen, "expect '(' after 'while'")
	c.expression()
	c.consume(token.CloseParen, "expect ')' after condition")

	exitJump := c.emitJump(chunk.JumpIfFalse)
	c.emitOp(chunk.Pop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(chunk.Pop)
}

func (c *Compiler) forStatement() {
	c.beginScope()

	c.consume(token.OpenParen, "expect '(' after 'for'")
	switch {
	case c.match(token.Semicolon):
		// no initializer
	case c.isTypeKeyword(c.cur.Kind):
		c.advance()
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.currentChunk().Code)
	exitJump := -1
	if !c.check(token.Semicolon) {
		c.expression()
		c.consume(token.Semicolon, "expect ';' after loop condition")
		exitJump = c.emitJump(chunk.JumpIfFalse)
		c.emitOp(chunk.Pop)
	} else {
		c.advance()
	}

	if !c.check(token.CloseParen) {
		bodyJump := c.emitJump(chunk.Jump)
		incrementStart := len(c.currentChunk().Code)
		c.expression()
		c.emitOp(chunk.Pop)
		c.consume(token.CloseParen, "expect ')' after for clauses")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.advance()
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(chunk.Pop)
	}
	c.endScope()
}

func (c *Compiler) returnStatement() {
	if c.fs.ftype == funcTypeScript {
		c.error("cannot return from top-level code")
	}
	if c.match(token.Semicolon) {
		c.emitOp(chunk.Nil)
		c.emitOp(chunk.Return)
		return
	}
	c.expression()
	c.consume(token.Semicolon, "expect ';' after return value")
	c.emitOp(chunk.Return)
}
