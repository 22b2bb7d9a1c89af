package value

// Opcode identifies one VM instruction (§4.F). Operands, where present, are
// byte-wide, except that JUMP/LOOP operands are two bytes (hi, lo), and
// CLOSURE's trailer is two bytes per captured upvalue.
type Opcode uint8

//nolint:revive
const (
	OpConstant Opcode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpGetUpvalue
	OpSetUpvalue
	OpCloseUpvalue
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNegate
	OpNot
	OpPrint
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue
	OpLoop
	OpCall
	OpClosure
	OpReturn
	OpClass
	OpMethod
	OpGetProperty
	OpSetProperty
	OpInvoke
)

var opcodeNames = [...]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetUpvalue:   "OP_GET_UPVALUE",
	OpSetUpvalue:   "OP_SET_UPVALUE",
	OpCloseUpvalue: "OP_CLOSE_UPVALUE",
	OpEqual:        "OP_EQUAL",
	OpNotEqual:     "OP_NOT_EQUAL",
	OpGreater:      "OP_GREATER",
	OpGreaterEqual: "OP_GREATER_EQUAL",
	OpLess:         "OP_LESS",
	OpLessEqual:    "OP_LESS_EQUAL",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNegate:       "OP_NEGATE",
	OpNot:          "OP_NOT",
	OpPrint:        "OP_PRINT",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpJumpIfTrue:   "OP_JUMP_IF_TRUE",
	OpLoop:         "OP_LOOP",
	OpCall:         "OP_CALL",
	OpClosure:      "OP_CLOSURE",
	OpReturn:       "OP_RETURN",
	OpClass:        "OP_CLASS",
	OpMethod:       "OP_METHOD",
	OpGetProperty:  "OP_GET_PROPERTY",
	OpSetProperty:  "OP_SET_PROPERTY",
	OpInvoke:       "OP_INVOKE",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "OP_UNKNOWN"
}
