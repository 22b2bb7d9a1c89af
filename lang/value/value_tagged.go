//go:build !nanbox

package value

// This file implements the "tagged" Value representation: an explicit kind
// tag plus a payload big enough for either a float64 or an object pointer.
// Build without the `nanbox` tag to get this representation; build with
// `-tags nanbox` to get the single-word encoding in value_nanbox.go instead.
// Both files expose the exact same exported API (this file plus
// value_common.go) so the compiler and VM never branch on which one is
// active.

type valueKind uint8

const (
	kindNil valueKind = iota
	kindBool
	kindNumber
	kindObject
)

// Value is a dynamically-typed evie runtime value: unit (nil), boolean,
// IEEE-754 double, or a heap object reference.
type Value struct {
	kind valueKind
	num  float64 // number payload, or 0/1 for bool
	obj  *Obj
}

// Nil is the unit value.
var Nil = Value{kind: kindNil}

// Bool constructs a boolean value.
func Bool(b bool) Value {
	if b {
		return Value{kind: kindBool, num: 1}
	}
	return Value{kind: kindBool, num: 0}
}

// Number constructs a numeric value.
func Number(f float64) Value { return Value{kind: kindNumber, num: f} }

// FromObj wraps a heap object pointer in a Value.
func FromObj(o *Obj) Value { return Value{kind: kindObject, obj: o} }

func (v Value) IsNil() bool    { return v.kind == kindNil }
func (v Value) IsBool() bool   { return v.kind == kindBool }
func (v Value) IsNumber() bool { return v.kind == kindNumber }
func (v Value) IsObj() bool    { return v.kind == kindObject }

func (v Value) AsBool() bool {
	assertKind(v.kind, kindBool)
	return v.num != 0
}

func (v Value) AsNumber() float64 {
	assertKind(v.kind, kindNumber)
	return v.num
}

func (v Value) AsObj() *Obj {
	assertKind(v.kind, kindObject)
	return v.obj
}

func assertKind(got, want valueKind) {
	if got != want {
		panic("value: kind mismatch")
	}
}

// IsObjKind reports whether v holds an object of the given kind, without
// panicking on mismatch (unlike AsObj followed by a kind check).
func (v Value) IsObjKind(k ObjKind) bool { return v.kind == kindObject && v.obj.Kind == k }
