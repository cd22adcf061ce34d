// Package compiler implements the single-pass Pratt-parsing compiler that
// turns source bytes into a Chunk of bytecode, plus the Chunk/OpCode wire
// format it emits into and the disassembler used to inspect it.
package compiler

import (
	"fmt"
	"strconv"

	"github.com/loxlang/clox/lang/scanner"
	"github.com/loxlang/clox/lang/token"
)

// FuncType distinguishes the kind of function a funcState is compiling,
// since methods and initializers resolve "this" and "return" differently
// than plain functions or the top-level script.
type FuncType int

const (
	TypeScript FuncType = iota
	TypeFunction
	TypeMethod
	TypeInitializer
)

const maxLocals = 256
const maxUpvalues = 256
const maxArgs = 255

type local struct {
	name       string
	depth      int // -1 means "declared but not yet initialized"
	isCaptured bool
}

type upvalueDesc struct {
	index   byte
	isLocal bool
}

// funcState is one nested compiler context: every function body (including
// the top-level script) pushes one of these, forming a stack via enclosing.
type funcState struct {
	enclosing *funcState
	proto     *FunctionProto
	fnType    FuncType

	locals     []local
	upvalues   []upvalueDesc
	scopeDepth int
}

func newFuncState(enclosing *funcState, fnType FuncType, name string) *funcState {
	fs := &funcState{
		enclosing: enclosing,
		fnType:    fnType,
		proto:     &FunctionProto{Name: name, Chunk: &Chunk{}},
	}
	// slot 0 is reserved: "this" in methods/initializers, empty otherwise.
	slotName := ""
	if fnType == TypeMethod || fnType == TypeInitializer {
		slotName = "this"
	}
	fs.locals = append(fs.locals, local{name: slotName, depth: 0})
	return fs
}

// classState tracks the class currently being compiled, so that `super` and
// `this` can be rejected at compile time outside of a class body.
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// Parser drives the single-pass compile: it owns the scanner, the current
// lookahead token, and the stack of nested function/class compiler
// contexts.
type Parser struct {
	sc *scanner.Scanner

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errs      ErrorList

	fs *funcState
	cs *classState
}

// Compile compiles source into a top-level FunctionProto (the "script"
// function). On failure it returns a nil proto and a non-nil error
// aggregating every diagnostic collected, so the caller can tell a failed
// compile from a successful one without a function to run.
func Compile(source []byte) (*FunctionProto, error) {
	p := &Parser{sc: scanner.New(source)}
	p.fs = newFuncState(nil, TypeScript, "")

	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}
	proto := p.endFunction()

	p.errs.Sort()
	if err := p.errs.Err(); err != nil {
		return nil, err
	}
	return proto, nil
}

// --- token stream plumbing ---

func (p *Parser) advance() {
	p.previous = p.current
	for {
		p.current = p.sc.Scan()
		if p.current.Kind != token.ERROR {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *Parser) check(k token.Kind) bool { return p.current.Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(k token.Kind, msg string) {
	if p.current.Kind == k {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *Parser) errorAtCurrent(msg string) { p.errorAt(p.current, msg) }
func (p *Parser) error(msg string)           { p.errorAt(p.previous, msg) }

func (p *Parser) errorAt(tok token.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	where := fmt.Sprintf(" at '%s'", tok.Lexeme)
	if tok.Kind == token.EOF {
		where = " at end"
	} else if tok.Kind == token.ERROR {
		where = ""
	}
	p.errs.Add(tok.Line, fmt.Sprintf("[line %d] Error%s: %s", tok.Line, where, msg))
}

// synchronize recovers from a compile error by discarding tokens until it
// reaches a statement boundary, so that a single mistake does not cascade
// into a wall of spurious errors.
func (p *Parser) synchronize() {
	p.panicMode = false
	for p.current.Kind != token.EOF {
		if p.previous.Kind == token.SEMICOLON {
			return
		}
		switch p.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

// --- chunk emission helpers ---

func (p *Parser) chunk() *Chunk { return p.fs.proto.Chunk }

func (p *Parser) emitByte(b byte)      { p.chunk().Write(b, p.previous.Line) }
func (p *Parser) emitOp(op OpCode)     { p.chunk().WriteOp(op, p.previous.Line) }
func (p *Parser) emitOpByte(op OpCode, b byte) {
	p.emitOp(op)
	p.emitByte(b)
}

// emitJump emits op followed by a two-byte placeholder and returns the
// offset of the first placeholder byte, to be patched later.
func (p *Parser) emitJump(op OpCode) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return p.chunk().Count() - 2
}

func (p *Parser) patchJump(offset int) {
	jump := p.chunk().Count() - offset - 2
	if jump > 65535 {
		p.error("Too much code to jump over.")
	}
	p.chunk().Code[offset] = byte(jump >> 8)
	p.chunk().Code[offset+1] = byte(jump)
}

func (p *Parser) emitLoop(loopStart int) {
	p.emitOp(OP_LOOP)
	offset := p.chunk().Count() - loopStart + 2
	if offset > 65535 {
		p.error("Loop body too large.")
	}
	p.emitByte(byte(offset >> 8))
	p.emitByte(byte(offset))
}

func (p *Parser) emitReturn() {
	if p.fs.fnType == TypeInitializer {
		p.emitOpByte(OP_GET_LOCAL, 0)
	} else {
		p.emitOp(OP_NIL)
	}
	p.emitOp(OP_RETURN)
}

func (p *Parser) makeConstant(v any) byte {
	idx, err := p.chunk().AddConstant(v)
	if err != nil {
		p.error(err.Error())
		return 0
	}
	return byte(idx)
}

func (p *Parser) emitConstant(v any) {
	p.emitOpByte(OP_CONSTANT, p.makeConstant(v))
}

func (p *Parser) endFunction() *FunctionProto {
	p.emitReturn()
	proto := p.fs.proto
	proto.UpvalueCount = len(p.fs.upvalues)
	if p.fs.enclosing != nil {
		p.fs = p.fs.enclosing
	}
	return proto
}

// --- scopes & variable resolution ---

func (p *Parser) beginScope() { p.fs.scopeDepth++ }

func (p *Parser) endScope() {
	p.fs.scopeDepth--
	locals := p.fs.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > p.fs.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			p.emitOp(OP_CLOSE_UPVALUE)
		} else {
			p.emitOp(OP_POP)
		}
		locals = locals[:len(locals)-1]
	}
	p.fs.locals = locals
}

func identifiersEqual(a, b string) bool { return a == b }

func (p *Parser) identifierConstant(name string) byte {
	return p.makeConstant(name)
}

func (p *Parser) declareVariable(name string) {
	if p.fs.scopeDepth == 0 {
		return
	}
	for i := len(p.fs.locals) - 1; i >= 0; i-- {
		l := p.fs.locals[i]
		if l.depth != -1 && l.depth < p.fs.scopeDepth {
			break
		}
		if identifiersEqual(l.name, name) {
			p.error("Already a variable with this name in this scope.")
		}
	}
	p.addLocal(name)
}

func (p *Parser) addLocal(name string) {
	if len(p.fs.locals) >= maxLocals {
		p.error("Too many local variables in function.")
		return
	}
	p.fs.locals = append(p.fs.locals, local{name: name, depth: -1})
}

func (p *Parser) markInitialized() {
	if p.fs.scopeDepth == 0 {
		return
	}
	p.fs.locals[len(p.fs.locals)-1].depth = p.fs.scopeDepth
}

func resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if identifiersEqual(fs.locals[i].name, name) {
			return i
		}
	}
	return -1
}

func (p *Parser) resolveLocalChecked(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if identifiersEqual(fs.locals[i].name, name) {
			if fs.locals[i].depth == -1 {
				p.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func addUpvalue(p *Parser, fs *funcState, index byte, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) >= maxUpvalues {
		p.error("Too many closure variables in function.")
		return 0
	}
	fs.upvalues = append(fs.upvalues, upvalueDesc{index: index, isLocal: isLocal})
	return len(fs.upvalues) - 1
}

func resolveUpvalue(p *Parser, fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if local := p.resolveLocalChecked(fs.enclosing, name); local != -1 {
		fs.enclosing.locals[local].isCaptured = true
		return addUpvalue(p, fs, byte(local), true)
	}
	if uv := resolveUpvalue(p, fs.enclosing, name); uv != -1 {
		return addUpvalue(p, fs, byte(uv), false)
	}
	return -1
}

func (p *Parser) parseVariable(errMsg string) byte {
	p.consume(token.IDENTIFIER, errMsg)
	name := p.previous.Lexeme
	p.declareVariable(name)
	if p.fs.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(name)
}

func (p *Parser) defineVariable(global byte) {
	if p.fs.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitOpByte(OP_DEFINE_GLOBAL, global)
}

func (p *Parser) namedVariable(name string, canAssign bool) {
	var getOp, setOp OpCode
	arg := p.resolveLocalChecked(p.fs, name)
	if arg != -1 {
		getOp, setOp = OP_GET_LOCAL, OP_SET_LOCAL
	} else if arg = resolveUpvalue(p, p.fs, name); arg != -1 {
		getOp, setOp = OP_GET_UPVALUE, OP_SET_UPVALUE
	} else {
		arg = int(p.identifierConstant(name))
		getOp, setOp = OP_GET_GLOBAL, OP_SET_GLOBAL
	}

	if canAssign && p.match(token.EQUAL) {
		p.expression()
		p.emitOpByte(setOp, byte(arg))
	} else {
		p.emitOpByte(getOp, byte(arg))
	}
}

// --- statements ---

func (p *Parser) declaration() {
	switch {
	case p.match(token.CLASS):
		p.classDeclaration()
	case p.match(token.FUN):
		p.funDeclaration()
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.LEFT_BRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after value.")
	p.emitOp(OP_PRINT)
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")
	p.emitOp(OP_POP)
}

func (p *Parser) block() {
	for !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RIGHT_BRACE, "Expect '}' after block.")
}

func (p *Parser) ifStatement() {
	p.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	thenJump := p.emitJump(OP_JUMP_IF_FALSE)
	p.emitOp(OP_POP)
	p.statement()

	elseJump := p.emitJump(OP_JUMP)
	p.patchJump(thenJump)
	p.emitOp(OP_POP)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := p.chunk().Count()
	p.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	exitJump := p.emitJump(OP_JUMP_IF_FALSE)
	p.emitOp(OP_POP)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(OP_POP)
}

func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")

	switch {
	case p.match(token.SEMICOLON):
		// no initializer
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := p.chunk().Count()
	exitJump := -1
	if !p.match(token.SEMICOLON) {
		p.expression()
		p.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = p.emitJump(OP_JUMP_IF_FALSE)
		p.emitOp(OP_POP)
	}

	if !p.match(token.RIGHT_PAREN) {
		bodyJump := p.emitJump(OP_JUMP)
		incrementStart := p.chunk().Count()
		p.expression()
		p.emitOp(OP_POP)
		p.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(OP_POP)
	}

	p.endScope()
}

func (p *Parser) returnStatement() {
	if p.fs.fnType == TypeScript {
		p.error("Can't return from top-level code.")
	}
	if p.match(token.SEMICOLON) {
		p.emitReturn()
		return
	}
	if p.fs.fnType == TypeInitializer {
		p.error("Can't return a value from an initializer.")
	}
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after return value.")
	p.emitOp(OP_RETURN)
}

func (p *Parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")
	if p.match(token.EQUAL) {
		p.expression()
	} else {
		p.emitOp(OP_NIL)
	}
	p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	p.defineVariable(global)
}

func (p *Parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.markInitialized()
	p.function(TypeFunction)
	p.defineVariable(global)
}

func (p *Parser) classDeclaration() {
	p.consume(token.IDENTIFIER, "Expect class name.")
	className := p.previous.Lexeme
	nameConstant := p.identifierConstant(className)
	p.declareVariable(className)

	p.emitOpByte(OP_CLASS, nameConstant)
	p.defineVariable(nameConstant)

	p.cs = &classState{enclosing: p.cs}

	if p.match(token.LESS) {
		p.consume(token.IDENTIFIER, "Expect superclass name.")
		p.variable(false)
		if className == p.previous.Lexeme {
			p.error("A class can't inherit from itself.")
		}

		p.beginScope()
		p.addLocal("super")
		p.defineVariable(0)

		p.namedVariable(className, false)
		p.emitOp(OP_INHERIT)
		p.cs.hasSuperclass = true
	}

	p.namedVariable(className, false)
	p.consume(token.LEFT_BRACE, "Expect '{' before class body.")
	for !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
		p.method()
	}
	p.consume(token.RIGHT_BRACE, "Expect '}' after class body.")
	p.emitOp(OP_POP)

	if p.cs.hasSuperclass {
		p.endScope()
	}
	p.cs = p.cs.enclosing
}

func (p *Parser) method() {
	p.consume(token.IDENTIFIER, "Expect method name.")
	name := p.previous.Lexeme
	nameConstant := p.identifierConstant(name)

	fnType := TypeMethod
	if name == "init" {
		fnType = TypeInitializer
	}
	p.function(fnType)
	p.emitOpByte(OP_METHOD, nameConstant)
}

// function compiles a nested function body in a fresh funcState, then emits
// OP_CLOSURE in the *enclosing* chunk followed by one (isLocal, index) byte
// pair per captured upvalue.
func (p *Parser) function(fnType FuncType) {
	name := p.previous.Lexeme
	p.fs = newFuncState(p.fs, fnType, name)
	p.beginScope()

	p.consume(token.LEFT_PAREN, "Expect '(' after function name.")
	if !p.check(token.RIGHT_PAREN) {
		for {
			p.fs.proto.Arity++
			if p.fs.proto.Arity > maxArgs {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := p.parseVariable("Expect parameter name.")
			p.defineVariable(constant)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")
	p.consume(token.LEFT_BRACE, "Expect '{' before function body.")
	p.block()

	var outer *Chunk
	if p.fs.enclosing != nil {
		outer = p.fs.enclosing.proto.Chunk
	}
	upvalues := p.fs.upvalues
	proto := p.endFunction()
	proto.UpvalueCount = len(upvalues)

	if outer == nil {
		// top level has no enclosing function to emit a CLOSURE into; only
		// reachable when compiling a function at the very top level is
		// itself the script, which never happens (function() is only
		// called from inside funDeclaration/method, which always has an
		// enclosing script funcState).
		return
	}
	idx, err := outer.AddConstant(proto)
	if err != nil {
		p.error(err.Error())
		return
	}
	outer.WriteOp(OP_CLOSURE, p.previous.Line)
	outer.Write(byte(idx), p.previous.Line)
	for _, uv := range upvalues {
		b := byte(0)
		if uv.isLocal {
			b = 1
		}
		outer.Write(b, p.previous.Line)
		outer.Write(uv.index, p.previous.Line)
	}
}

// --- expressions (Pratt parser) ---

type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(p *Parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LEFT_PAREN:  {(*Parser).grouping, (*Parser).call, precCall},
		token.DOT:         {nil, (*Parser).dot, precCall},
		token.MINUS:       {(*Parser).unary, (*Parser).binary, precTerm},
		token.PLUS:        {nil, (*Parser).binary, precTerm},
		token.SLASH:       {nil, (*Parser).binary, precFactor},
		token.STAR:        {nil, (*Parser).binary, precFactor},
		token.BANG:        {(*Parser).unary, nil, precNone},
		token.BANG_EQUAL:  {nil, (*Parser).binary, precEquality},
		token.EQUAL_EQUAL: {nil, (*Parser).binary, precEquality},
		token.GREATER:     {nil, (*Parser).binary, precComparison},
		token.GREATER_EQUAL: {nil, (*Parser).binary, precComparison},
		token.LESS:          {nil, (*Parser).binary, precComparison},
		token.LESS_EQUAL:    {nil, (*Parser).binary, precComparison},
		token.IDENTIFIER:    {(*Parser).variableExpr, nil, precNone},
		token.STRING:        {(*Parser).stringExpr, nil, precNone},
		token.NUMBER:        {(*Parser).number, nil, precNone},
		token.AND:           {nil, (*Parser).and_, precAnd},
		token.FALSE:         {(*Parser).literal, nil, precNone},
		token.NIL:           {(*Parser).literal, nil, precNone},
		token.OR:            {nil, (*Parser).or_, precOr},
		token.SUPER:         {(*Parser).super_, nil, precNone},
		token.THIS:           {(*Parser).this_, nil, precNone},
		token.TRUE:           {(*Parser).literal, nil, precNone},
	}
}

func (p *Parser) rule(k token.Kind) parseRule { return rules[k] }

func (p *Parser) expression() { p.parsePrecedence(precAssignment) }

func (p *Parser) parsePrecedence(prec precedence) {
	p.advance()
	prefix := p.rule(p.previous.Kind).prefix
	if prefix == nil {
		p.error("Expect expression.")
		return
	}
	canAssign := prec <= precAssignment
	prefix(p, canAssign)

	for prec <= p.rule(p.current.Kind).precedence {
		p.advance()
		infix := p.rule(p.previous.Kind).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.EQUAL) {
		p.error("Invalid assignment target.")
	}
}

func (p *Parser) number(_ bool) {
	v, err := strconv.ParseFloat(p.previous.Lexeme, 64)
	if err != nil {
		p.error("Invalid number literal.")
		return
	}
	p.emitConstant(v)
}

func (p *Parser) stringExpr(_ bool) {
	// strip the surrounding quotes
	lexeme := p.previous.Lexeme
	s := lexeme[1 : len(lexeme)-1]
	p.emitConstant(s)
}

func (p *Parser) variableExpr(canAssign bool) {
	p.namedVariable(p.previous.Lexeme, canAssign)
}

// variable is used internally (not via the rule table) to read an
// identifier token already consumed, e.g. the superclass name.
func (p *Parser) variable(canAssign bool) {
	p.namedVariable(p.previous.Lexeme, canAssign)
}

func (p *Parser) grouping(_ bool) {
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
}

func (p *Parser) unary(_ bool) {
	opKind := p.previous.Kind
	p.parsePrecedence(precUnary)
	switch opKind {
	case token.BANG:
		p.emitOp(OP_NOT)
	case token.MINUS:
		p.emitOp(OP_NEGATE)
	}
}

func (p *Parser) binary(_ bool) {
	opKind := p.previous.Kind
	rule := p.rule(opKind)
	p.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.BANG_EQUAL:
		p.emitOp(OP_EQUAL)
		p.emitOp(OP_NOT)
	case token.EQUAL_EQUAL:
		p.emitOp(OP_EQUAL)
	case token.GREATER:
		p.emitOp(OP_GREATER)
	case token.GREATER_EQUAL:
		p.emitOp(OP_LESS)
		p.emitOp(OP_NOT)
	case token.LESS:
		p.emitOp(OP_LESS)
	case token.LESS_EQUAL:
		p.emitOp(OP_GREATER)
		p.emitOp(OP_NOT)
	case token.PLUS:
		p.emitOp(OP_ADD)
	case token.MINUS:
		p.emitOp(OP_SUBTRACT)
	case token.STAR:
		p.emitOp(OP_MULTIPLY)
	case token.SLASH:
		p.emitOp(OP_DIVIDE)
	}
}

func (p *Parser) literal(_ bool) {
	switch p.previous.Kind {
	case token.FALSE:
		p.emitOp(OP_FALSE)
	case token.NIL:
		p.emitOp(OP_NIL)
	case token.TRUE:
		p.emitOp(OP_TRUE)
	}
}

func (p *Parser) and_(_ bool) {
	endJump := p.emitJump(OP_JUMP_IF_FALSE)
	p.emitOp(OP_POP)
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func (p *Parser) or_(_ bool) {
	elseJump := p.emitJump(OP_JUMP_IF_FALSE)
	endJump := p.emitJump(OP_JUMP)

	p.patchJump(elseJump)
	p.emitOp(OP_POP)

	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func (p *Parser) call(_ bool) {
	argc := p.argumentList()
	p.emitOpByte(OP_CALL, argc)
}

func (p *Parser) argumentList() byte {
	var argc int
	if !p.check(token.RIGHT_PAREN) {
		for {
			p.expression()
			if argc == maxArgs {
				p.error("Can't have more than 255 arguments.")
			}
			argc++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return byte(argc)
}

func (p *Parser) dot(canAssign bool) {
	p.consume(token.IDENTIFIER, "Expect property name after '.'.")
	name := p.identifierConstant(p.previous.Lexeme)

	switch {
	case canAssign && p.match(token.EQUAL):
		p.expression()
		p.emitOpByte(OP_SET_PROPERTY, name)
	case p.match(token.LEFT_PAREN):
		argc := p.argumentList()
		p.emitOp(OP_INVOKE)
		p.emitByte(name)
		p.emitByte(argc)
	default:
		p.emitOpByte(OP_GET_PROPERTY, name)
	}
}

func (p *Parser) this_(_ bool) {
	if p.cs == nil {
		p.error("Can't use 'this' outside of a class.")
		return
	}
	p.variableExpr(false)
}

func (p *Parser) super_(_ bool) {
	switch {
	case p.cs == nil:
		p.error("Can't use 'super' outside of a class.")
	case !p.cs.hasSuperclass:
		p.error("Can't use 'super' in a class with no superclass.")
	}

	p.consume(token.DOT, "Expect '.' after 'super'.")
	p.consume(token.IDENTIFIER, "Expect superclass method name.")
	name := p.identifierConstant(p.previous.Lexeme)

	p.namedVariable("this", false)
	if p.match(token.LEFT_PAREN) {
		argc := p.argumentList()
		p.namedVariable("super", false)
		p.emitOp(OP_SUPER_INVOKE)
		p.emitByte(name)
		p.emitByte(argc)
	} else {
		p.namedVariable("super", false)
		p.emitOpByte(OP_GET_SUPER, name)
	}
}
