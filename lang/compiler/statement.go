package compiler

import (
	"github.com/evie-lang/evie/lang/token"
	"github.com/evie-lang/evie/lang/value"
)

// declaration parses one top-level-or-block item: a var/fun/class
// declaration, or a fall-through to statement. On a syntax error it
// synchronizes to the next likely statement boundary so compilation can
// keep collecting diagnostics (spec §7).
func (c *Compiler) declaration() {
	switch {
	case c.match(token.VAR):
		c.varDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.CLASS):
		c.classDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("expected variable name")
	if c.match(token.EQUAL) {
		c.expression()
	} else {
		c.emitOp(value.OpNil)
	}
	c.consume(token.SEMICOLON, "expected ';' after variable declaration")
	c.defineVariable(global)
}

// parseVariable consumes an identifier, declares it if we're inside a local
// scope, and returns the constant-pool index to use with DEFINE_GLOBAL if
// it turns out to be a global (the index is meaningless for locals).
func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(token.IDENT, errMsg)
	name := c.previous.Lexeme
	if c.cur.scopeDepth > 0 {
		c.declareLocal(name)
		return 0
	}
	return c.identifierConstant(name)
}

func (c *Compiler) defineVariable(global byte) {
	if c.cur.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(value.OpDefineGlobal, global)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("expected function name")
	c.markInitialized()
	c.function(functionFn)
	c.defineVariable(global)
}

// function compiles a function body (or method body, for kind == methodFn
// or initializerFn) into a freshly pushed compilerState, then emits a
// CLOSURE instruction in the *enclosing* state's chunk referencing the
// compiled ObjFunction plus its upvalue-capture trailer bytes.
func (c *Compiler) function(kind functionKind) {
	name := c.previous.Lexeme
	enclosing := c.cur
	c.cur = &compilerState{
		enclosing: enclosing,
		function:  c.alloc.NewFunction(name, 0),
		kind:      kind,
	}
	if kind == methodFn || kind == initializerFn {
		c.cur.locals = append(c.cur.locals, local{name: "this", depth: 0})
	} else {
		c.cur.locals = append(c.cur.locals, local{name: "", depth: 0})
	}

	c.beginScope()
	c.consume(token.LEFT_PAREN, "expected '(' after function name")
	if !c.check(token.RIGHT_PAREN) {
		for {
			c.cur.function.Arity++
			paramConst := c.parseVariable("expected parameter name")
			c.defineVariable(paramConst)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_PAREN, "expected ')' after parameters")
	c.consume(token.LEFT_BRACE, "expected '{' before function body")
	c.block()

	fn, upvalues := c.endCompiler()

	idx, err := enclosing.function.Chunk.AddConstant(value.FromObj(&fn.Obj))
	if err != nil {
		c.error(err.Error())
		return
	}
	// c.cur is back to enclosing after endCompiler, so the CLOSURE
	// instruction and its upvalue trailer below land in the right chunk.
	c.emitOpByte(value.OpClosure, byte(idx))
	for _, uv := range upvalues {
		if uv.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(uv.index)
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(token.IDENT, "expected class name")
	name := c.previous.Lexeme
	nameConst := c.identifierConstant(name)
	c.declareLocal(name)

	c.emitOpByte(value.OpClass, nameConst)
	c.defineVariable(nameConst)

	c.class = &classState{enclosing: c.class}

	c.namedVariable(name, false) // push the class back for METHOD to target
	c.consume(token.LEFT_BRACE, "expected '{' before class body")
	for !c.check(token.RIGHT_BRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RIGHT_BRACE, "expected '}' after class body")
	c.emitOp(value.OpPop) // drop the class reference pushed above

	c.class = c.class.enclosing
}

func (c *Compiler) method() {
	c.consume(token.IDENT, "expected method name")
	name := c.previous.Lexeme
	nameConst := c.identifierConstant(name)

	kind := methodFn
	if name == "init" {
		kind = initializerFn
	}
	c.function(kind)
	c.emitOpByte(value.OpMethod, nameConst)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.LEFT_BRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RIGHT_BRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RIGHT_BRACE, "expected '}' after block")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "expected ';' after value")
	c.emitOp(value.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "expected ';' after expression")
	c.emitOp(value.OpPop)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LEFT_PAREN, "expected '(' after 'if'")
	c.expression()
	c.consume(token.RIGHT_PAREN, "expected ')' after condition")

	thenJump := c.emitJump(value.OpJumpIfFalse)
	c.emitOp(value.OpPop)
	c.statement()

	elseJump := c.emitJump(value.OpJump)
	c.patchJump(thenJump)
	c.emitOp(value.OpPop)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(token.LEFT_PAREN, "expected '(' after 'while'")
	c.expression()
	c.consume(token.RIGHT_PAREN, "expected ')' after condition")

	exitJump := c.emitJump(value.OpJumpIfFalse)
	c.emitOp(value.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(value.OpPop)
}

// forStatement desugars the C-style for loop into the init/condition/
// increment pieces built from while's jump/loop primitives (spec §6: "for
// (desugared)"); it introduces its own scope so a `var` initializer doesn't
// leak.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LEFT_PAREN, "expected '(' after 'for'")

	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "expected ';' after loop condition")
		exitJump = c.emitJump(value.OpJumpIfFalse)
		c.emitOp(value.OpPop)
	}

	if !c.match(token.RIGHT_PAREN) {
		bodyJump := c.emitJump(value.OpJump)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(value.OpPop)
		c.consume(token.RIGHT_PAREN, "expected ')' after for clauses")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(value.OpPop)
	}
	c.endScope()
}

func (c *Compiler) returnStatement() {
	if c.cur.kind == scriptFn {
		c.error("can't return from top-level code")
	}
	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	if c.cur.kind == initializerFn {
		c.error("can't return a value from an initializer")
	}
	c.expression()
	c.consume(token.SEMICOLON, "expected ';' after return value")
	c.emitOp(value.OpReturn)
}
