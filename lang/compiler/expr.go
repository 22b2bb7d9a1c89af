package compiler

import (
	"github.com/evie-lang/evie/lang/token"
	"github.com/evie-lang/evie/lang/value"
)

// precedence orders evie's binary operators from loosest to tightest
// binding (spec §4.E "parse rule { prefix, infix, precedence }").
type precedence uint8

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

type (
	prefixParseFn func(c *Compiler, canAssign bool)
	infixParseFn  func(c *Compiler, canAssign bool)
)

type parseRule struct {
	prefix     prefixParseFn
	infix      infixParseFn
	precedence precedence
}

var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LEFT_PAREN:    {prefix: grouping, infix: call, precedence: precCall},
		token.DOT:           {infix: dot, precedence: precCall},
		token.MINUS:         {prefix: unary, infix: binary, precedence: precTerm},
		token.PLUS:          {infix: binary, precedence: precTerm},
		token.SLASH:         {infix: binary, precedence: precFactor},
		token.STAR:          {infix: binary, precedence: precFactor},
		token.BANG:          {prefix: unary},
		token.BANG_EQUAL:    {infix: binary, precedence: precEquality},
		token.EQUAL_EQUAL:   {infix: binary, precedence: precEquality},
		token.GREATER:       {infix: binary, precedence: precComparison},
		token.GREATER_EQUAL: {infix: binary, precedence: precComparison},
		token.LESS:          {infix: binary, precedence: precComparison},
		token.LESS_EQUAL:    {infix: binary, precedence: precComparison},
		token.IDENT:         {prefix: variable},
		token.STRING:        {prefix: stringLiteral},
		token.NUMBER:        {prefix: numberLiteral},
		token.AND:           {infix: and_, precedence: precAnd},
		token.OR:            {infix: or_, precedence: precOr},
		token.FALSE:         {prefix: literal},
		token.NIL:           {prefix: literal},
		token.TRUE:          {prefix: literal},
		token.THIS:          {prefix: this_},
	}
}

func ruleFor(k token.Kind) parseRule { return rules[k] }

// expression parses one full expression at precAssignment, the loosest
// level (spec §6: "assignment `=` (right-associative)").
func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefixRule := ruleFor(c.previous.Kind).prefix
	if prefixRule == nil {
		c.error("expected expression")
		return
	}
	canAssign := prec <= precAssignment
	prefixRule(c, canAssign)

	for prec <= ruleFor(c.current.Kind).precedence {
		c.advance()
		infixRule := ruleFor(c.previous.Kind).infix
		infixRule(c, canAssign)
	}

	if canAssign && c.match(token.EQUAL) {
		c.error("invalid assignment target")
	}
}

func numberLiteral(c *Compiler, _ bool) {
	c.emitConstant(value.Number(c.previous.Number))
}

func stringLiteral(c *Compiler, _ bool) {
	str := c.alloc.InternString(c.previous.Literal)
	c.emitConstant(value.FromObj(&str.Obj))
}

func literal(c *Compiler, _ bool) {
	switch c.previous.Kind {
	case token.NIL:
		c.emitOp(value.OpNil)
	case token.TRUE:
		c.emitOp(value.OpTrue)
	case token.FALSE:
		c.emitOp(value.OpFalse)
	}
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RIGHT_PAREN, "expected ')' after expression")
}

func unary(c *Compiler, _ bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case token.MINUS:
		c.emitOp(value.OpNegate)
	case token.BANG:
		c.emitOp(value.OpNot)
	}
}

func binary(c *Compiler, _ bool) {
	opKind := c.previous.Kind
	rule := ruleFor(opKind)
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.BANG_EQUAL:
		c.emitOp(value.OpNotEqual)
	case token.EQUAL_EQUAL:
		c.emitOp(value.OpEqual)
	case token.GREATER:
		c.emitOp(value.OpGreater)
	case token.GREATER_EQUAL:
		c.emitOp(value.OpGreaterEqual)
	case token.LESS:
		c.emitOp(value.OpLess)
	case token.LESS_EQUAL:
		c.emitOp(value.OpLessEqual)
	case token.PLUS:
		c.emitOp(value.OpAdd)
	case token.MINUS:
		c.emitOp(value.OpSubtract)
	case token.STAR:
		c.emitOp(value.OpMultiply)
	case token.SLASH:
		c.emitOp(value.OpDivide)
	}
}

// and_ implements short-circuit `and`: evaluate LHS; JUMP_IF_FALSE end;
// POP; evaluate RHS; end: (spec §4.E).
func and_(c *Compiler, _ bool) {
	endJump := c.emitJump(value.OpJumpIfFalse)
	c.emitOp(value.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

// or_ is and_'s mirror image with JUMP_IF_TRUE.
func or_(c *Compiler, _ bool) {
	endJump := c.emitJump(value.OpJumpIfTrue)
	c.emitOp(value.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.previous.Lexeme, canAssign)
}

func this_(c *Compiler, _ bool) {
	if c.class == nil {
		c.error("can't use 'this' outside of a method")
		return
	}
	c.namedVariable("this", false)
}

// namedVariable resolves name against the local/upvalue/global tiers (spec
// §4.E) and emits the matching GET_*/SET_* opcode. canAssign gates whether
// a following `=` is allowed to turn this into an assignment (preventing
// `a + b = c` from parsing as an assignment, since `+` parses its right
// operand at a precedence tighter than assignment).
func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp value.Opcode
	var arg int

	if arg = resolveLocal(c.cur, c, name); arg != -1 {
		getOp, setOp = value.OpGetLocal, value.OpSetLocal
	} else if arg = resolveUpvalue(c.cur, c, name); arg != -1 {
		getOp, setOp = value.OpGetUpvalue, value.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = value.OpGetGlobal, value.OpSetGlobal
	}

	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}

// call parses the argument list of a `f(args)` call expression. callee was
// already pushed onto the stack by the preceding prefix/infix parse.
func call(c *Compiler, _ bool) {
	argc := c.argumentList()
	c.emitOpByte(value.OpCall, argc)
}

func (c *Compiler) argumentList() byte {
	var argc int
	if !c.check(token.RIGHT_PAREN) {
		for {
			c.expression()
			argc++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_PAREN, "expected ')' after arguments")
	return byte(argc)
}

// dot parses `.name`, `.name = value`, or the fused `.name(args)` call
// (INVOKE), whichever follows (spec §4.F "INVOKE: fused GET_PROPERTY+CALL").
func dot(c *Compiler, canAssign bool) {
	c.consume(token.IDENT, "expected property name after '.'")
	name := c.previous.Lexeme
	nameConst := c.identifierConstant(name)

	switch {
	case canAssign && c.match(token.EQUAL):
		c.expression()
		c.emitOpByte(value.OpSetProperty, nameConst)
	case c.match(token.LEFT_PAREN):
		argc := c.argumentList()
		c.emitOp(value.OpInvoke)
		c.emitByte(nameConst)
		c.emitByte(argc)
	default:
		c.emitOpByte(value.OpGetProperty, nameConst)
	}
}
