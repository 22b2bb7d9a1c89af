package value

import (
	"math"
	"strconv"
)

// numberEpsilon is the tolerance used by Equal for the two NUMBER operands
// of EQUAL/NOT_EQUAL (§3: "numbers compare with an epsilon-tolerant
// equality").
const numberEpsilon = 1e-9

// IsFalsey implements evie truthiness: nil and false are falsey, everything
// else (including the number 0 and the empty string) is truthy.
func (v Value) IsFalsey() bool {
	return v.IsNil() || (v.IsBool() && !v.AsBool())
}

// TypeName names v's dynamic type, for error messages.
func (v Value) TypeName() string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		return "bool"
	case v.IsNumber():
		return "number"
	case v.IsObj():
		return v.AsObj().Kind.String()
	default:
		return "unknown"
	}
}

// Equal implements the EQUAL/NOT_EQUAL opcode contract (§4.G): same-variant
// only, epsilon-tolerant for numbers, pointer identity for objects (sound
// because strings are interned — see Allocator.InternString).
func (v Value) Equal(other Value) bool {
	switch {
	case v.IsNil() && other.IsNil():
		return true
	case v.IsBool() && other.IsBool():
		return v.AsBool() == other.AsBool()
	case v.IsNumber() && other.IsNumber():
		return math.Abs(v.AsNumber()-other.AsNumber()) < numberEpsilon
	case v.IsObj() && other.IsObj():
		return v.AsObj() == other.AsObj()
	default:
		return false
	}
}

// String renders v the way PRINT and to_string do.
func (v Value) String() string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		if v.AsBool() {
			return "true"
		}
		return "false"
	case v.IsNumber():
		return formatNumber(v.AsNumber())
	case v.IsObj():
		return ObjToString(v.AsObj())
	default:
		return "<invalid value>"
	}
}

// formatNumber prints integral doubles without a trailing ".0" (so `print
// 2;` prints "2", not "2.0"), matching the reference implementation's
// Display for its Number value.
func formatNumber(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
