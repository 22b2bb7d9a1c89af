// Package compiler implements evie's single-pass compiler: a Pratt
// expression parser fused with bytecode emission directly into a
// value.Chunk, with lexical-scope local resolution and cross-function
// upvalue resolution (spec component E). There is no separate AST stage:
// each parse rule emits bytecode as it recognizes syntax.
package compiler

import (
	"fmt"

	"github.com/evie-lang/evie/lang/evieerr"
	"github.com/evie-lang/evie/lang/scanner"
	"github.com/evie-lang/evie/lang/token"
	"github.com/evie-lang/evie/lang/value"
)

// maxLocals and maxUpvalues bound locals[]/upvalues[] at 256 entries: both
// are addressed by a single unsigned byte operand (GET_LOCAL/GET_UPVALUE).
const (
	maxLocals   = 256
	maxUpvalues = 256
)

// functionKind distinguishes the four contexts a compilerState can compile
// a body for, since `this` and bare `return` are legal in some and not
// others.
type functionKind uint8

const (
	scriptFn functionKind = iota
	functionFn
	methodFn
	initializerFn
)

// local is one entry of a compilerState's lexical scope stack.
type local struct {
	name       string
	depth      int // -1 means "declared but not yet initialized"
	isCaptured bool
}

// upvalueRef is one entry of a compilerState's upvalue table, mirroring the
// trailer bytes a CLOSURE instruction reads.
type upvalueRef struct {
	index   byte
	isLocal bool
}

// compilerState is one frame of the compiler's state stack: entering a
// function or method body pushes a new one, and leaving it resumes the
// enclosing state (spec §4.E "Compiler state").
type compilerState struct {
	enclosing *compilerState
	function  *value.ObjFunction
	kind      functionKind

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

// classState tracks the class body currently being compiled, so `this` can
// be rejected outside of one and so nested class declarations restore the
// enclosing class correctly.
type classState struct {
	enclosing *classState
}

// Compiler drives the scanner and emits bytecode for one compilation unit.
// It is not reentrant: create a fresh Compiler per call to Compile.
type Compiler struct {
	scanner *scanner.Scanner
	alloc   *value.Allocator

	previous token.Token
	current  token.Token

	cur   *compilerState
	class *classState

	scanErrs  evieerr.ErrorList
	parseErrs evieerr.ErrorList
	panicMode bool

	hadResolutionError bool
}

// Compile compiles src into a top-level ObjFunction (the implicit script
// function, with Name == ""), ready to be wrapped in a closure and run by
// the VM. On failure it returns a *evieerr.PhaseError wrapping either the
// scan or the parse diagnostics collected (scan errors take precedence,
// since a lexically broken source can't be meaningfully parsed).
func Compile(src string, alloc *value.Allocator) (*value.ObjFunction, error) {
	c := &Compiler{alloc: alloc}
	c.scanner = scanner.New(src, func(line int, msg string) {
		c.scanErrs.Add(evieerr.Pos(line), msg)
	})

	c.cur = &compilerState{
		function: alloc.NewFunction("", 0),
		kind:     scriptFn,
	}
	// Slot 0 of every frame is reserved: for functions it is unused (the
	// zero value), for methods it holds `this`.
	c.cur.locals = append(c.cur.locals, local{name: "", depth: 0})

	c.advance()
	for !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.EOF, "expected end of expression")
	fn, _ := c.endCompiler()

	if len(c.scanErrs) > 0 {
		c.scanErrs.Sort()
		return nil, evieerr.Wrap(evieerr.ScanPhase, c.scanErrs.Err())
	}
	if len(c.parseErrs) > 0 {
		c.parseErrs.Sort()
		phase := evieerr.ParsePhase
		if c.hadResolutionError {
			phase = evieerr.ResolutionPhase
		}
		return nil, evieerr.Wrap(phase, c.parseErrs.Err())
	}
	return fn, nil
}

// endCompiler finishes the current compilerState (emitting the implicit
// trailing return) and pops back to the enclosing one, returning the
// compiled function together with the upvalue table the caller needs to
// emit the CLOSURE trailer bytes in the *enclosing* chunk.
func (c *Compiler) endCompiler() (*value.ObjFunction, []upvalueRef) {
	c.emitReturn()
	fn := c.cur.function
	upvalues := c.cur.upvalues
	fn.UpvalueCount = len(upvalues)
	c.cur = c.cur.enclosing
	return fn, upvalues
}

func (c *Compiler) chunk() *value.Chunk { return &c.cur.function.Chunk }

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.Next()
		if c.current.Kind != token.ILLEGAL {
			break
		}
		// the scanner already reported the lexical error; keep pulling
		// tokens so the parser can still try to make progress.
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.current.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, msg string) {
	if c.current.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

// --- error reporting ----------------------------------------------------

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	if tok.Kind == token.EOF {
		c.parseErrs.Add(evieerr.Pos(tok.Line), fmt.Sprintf("at end: %s", msg))
	} else {
		c.parseErrs.Add(evieerr.Pos(tok.Line), fmt.Sprintf("at '%s': %s", tok.Lexeme, msg))
	}
}

// resolutionError flags msg as belonging to the Resolution error kind
// (spec §7: reading a local in its own initializer, redeclaring a local in
// the same scope). It is recorded and synchronized past like a parse error,
// but once any has been recorded the whole compile fails with
// ResolutionPhase.
func (c *Compiler) resolutionError(msg string) {
	c.hadResolutionError = true
	c.errorAt(c.previous, msg)
}

// synchronize skips tokens until it reaches a likely statement boundary, so
// the compiler can keep parsing after a syntax error and report more than
// one diagnostic per compile (spec §7 "compiler may synchronize").
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.SEMICOLON {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- bytecode emission --------------------------------------------------

func (c *Compiler) emitByte(b byte) { c.chunk().Write(b, c.previous.Line) }

func (c *Compiler) emitOp(op value.Opcode) { c.emitByte(byte(op)) }

func (c *Compiler) emitOpByte(op value.Opcode, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) emitReturn() {
	if c.cur.kind == initializerFn {
		// an initializer implicitly returns `this` (stack slot 0).
		c.emitOpByte(value.OpGetLocal, 0)
	} else {
		c.emitOp(value.OpNil)
	}
	c.emitOp(value.OpReturn)
}

func (c *Compiler) emitConstant(v value.Value) {
	idx, err := c.chunk().AddConstant(v)
	if err != nil {
		c.error(err.Error())
		return
	}
	c.emitOpByte(value.OpConstant, byte(idx))
}

// emitJump emits op followed by a two-byte placeholder offset and returns
// the offset of the first placeholder byte, for a later patchJump.
func (c *Compiler) emitJump(op value.Opcode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("too much code to jump over")
		return
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(value.OpLoop)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("loop body too large")
		return
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

// identifierConstant interns name and adds it to the current chunk's
// constant pool, returning its index.
func (c *Compiler) identifierConstant(name string) byte {
	idx, err := c.chunk().AddConstant(value.FromObj(&c.alloc.InternString(name).Obj))
	if err != nil {
		c.error(err.Error())
		return 0
	}
	return byte(idx)
}
