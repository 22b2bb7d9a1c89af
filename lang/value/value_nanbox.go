//go:build nanbox

package value

import (
	"math"
	"unsafe"
)

// This file implements the NaN-boxed Value representation described in §3 of
// the specification: every Value is one 64-bit word. A number is its raw
// IEEE-754 bit pattern. Every non-number value is encoded as a quiet NaN: the
// low two bits of the mantissa distinguish nil/false/true, and an object
// reference is a quiet NaN with the sign bit set and the pointer packed into
// the low 48 bits (more than enough for any real heap address on amd64/arm64).
//
// Build with `-tags nanbox` to select this file over value_tagged.go; both
// expose the identical exported API (this file plus value_common.go).
//
// Liveness note: Value never holds a real Go pointer type once boxed, so the
// garbage collector cannot trace references through the operand stack. That
// is fine here because the VM does not rely on Go's GC to keep heap objects
// alive: the Allocator's own intrusive `next` list (a genuine *Obj chain) is
// what keeps every live evie object reachable from Go's point of view, and
// this package's own mark-sweep collector (alloc.go) decides what to free.

type Value uint64

const (
	qnan      Value = 0x7ffc000000000000
	signBit   Value = 1 << 63
	tagNil    Value = 1
	tagFalse  Value = 2
	tagTrue   Value = 3
	ptrMask   Value = (1 << 48) - 1
	objTagged       = qnan | signBit
)

// Nil is the unit value.
var Nil = qnan | tagNil

var valFalse = qnan | tagFalse
var valTrue = qnan | tagTrue

// Bool constructs a boolean value.
func Bool(b bool) Value {
	if b {
		return valTrue
	}
	return valFalse
}

// Number constructs a numeric value.
func Number(f float64) Value { return Value(math.Float64bits(f)) }

// FromObj wraps a heap object pointer in a Value.
func FromObj(o *Obj) Value {
	return objTagged | (Value(uintptr(unsafe.Pointer(o))) & ptrMask)
}

func (v Value) IsNumber() bool { return v&qnan != qnan }
func (v Value) IsNil() bool    { return v == Nil }
func (v Value) IsBool() bool   { return v == valTrue || v == valFalse }
func (v Value) IsObj() bool    { return v&objTagged == objTagged }

func (v Value) AsNumber() float64 {
	if !v.IsNumber() {
		panic("value: kind mismatch")
	}
	return math.Float64frombits(uint64(v))
}

func (v Value) AsBool() bool {
	if !v.IsBool() {
		panic("value: kind mismatch")
	}
	return v == valTrue
}

func (v Value) AsObj() *Obj {
	if !v.IsObj() {
		panic("value: kind mismatch")
	}
	return (*Obj)(unsafe.Pointer(uintptr(v & ptrMask)))
}

// IsObjKind reports whether v holds an object of the given kind, without
// panicking on mismatch.
func (v Value) IsObjKind(k ObjKind) bool { return v.IsObj() && v.AsObj().Kind == k }
