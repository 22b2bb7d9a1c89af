package value

import (
	"fmt"
	"unsafe"
)

// An ObjKind discriminates the variant held by an Obj header. Every heap
// object's first field is an Obj (the invariant AsString/AsFunction/... rely
// on to recover the concrete type from a bare *Obj via unsafe.Pointer).
type ObjKind uint8

//nolint:revive
const (
	ObjStringKind ObjKind = iota
	ObjFunctionKind
	ObjNativeKind
	ObjClosureKind
	ObjClassKind
	ObjInstanceKind
	ObjBoundMethodKind
	ObjUpvalueKind
)

func (k ObjKind) String() string {
	switch k {
	case ObjStringKind:
		return "string"
	case ObjFunctionKind:
		return "function"
	case ObjNativeKind:
		return "native"
	case ObjClosureKind:
		return "closure"
	case ObjClassKind:
		return "class"
	case ObjInstanceKind:
		return "instance"
	case ObjBoundMethodKind:
		return "bound method"
	case ObjUpvalueKind:
		return "upvalue"
	default:
		return "unknown"
	}
}

// Obj is the header every heap-allocated object embeds as its first field.
// The Allocator threads every live object through the intrusive `next`
// list; the VM's mark-sweep collector flips `marked` during the mark phase.
type Obj struct {
	Kind    ObjKind
	marked  bool
	next    *Obj
	bytes   int // size charged to Allocator.bytesAllocated when this object was allocated
}

// ObjString is an immutable, interned, UTF-8 byte sequence.
type ObjString struct {
	Obj
	Chars string
	hash  uint32
}

func (s *ObjString) String() string { return s.Chars }

// NativeFn is a host callable registered as a global. args never includes
// the callee itself; alloc lets a native allocate (e.g. intern a result
// string) in the same heap as the rest of the VM (spec §4.H: "(args,
// allocator) → Value"). Returning an error produces a runtime error in the
// calling frame.
type NativeFn func(alloc *Allocator, args []Value) (Value, error)

// ObjFunction is the compiled, immutable form of a function or the top-level
// script, before it is wrapped in a Closure.
type ObjFunction struct {
	Obj
	Name         string // empty for the top-level script
	Arity        int
	UpvalueCount int
	Chunk        Chunk
}

func (f *ObjFunction) String() string {
	if f.Name == "" {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name)
}

// ObjNative wraps a host function so it can be stored as a Value and called
// like any other callable.
type ObjNative struct {
	Obj
	Name  string
	Arity int
	Fn    NativeFn
}

func (n *ObjNative) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }

// ObjUpvalue is the indirection cell through which a closure reaches a
// variable declared in an enclosing function. While Location points at a
// stack slot the upvalue is "open"; Close copies that slot's value into
// Closed and repoints Location at it, making the upvalue "closed".
type ObjUpvalue struct {
	Obj
	Location   *Value
	Closed     Value
	StackIndex int         // meaningful only while open
	NextOpen   *ObjUpvalue // VM's open-upvalues list, sorted by StackIndex descending
}

func (u *ObjUpvalue) String() string { return "upvalue" }

func (u *ObjUpvalue) isOpen() bool { return u.Location != &u.Closed }

// Close promotes the upvalue from Stack(i) to Heap(v): it snapshots the
// current value of the stack slot it points at and repoints Location at its
// own Closed field so it survives the enclosing frame's return.
func (u *ObjUpvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// ObjClosure pairs an ObjFunction with the upvalues it captured at the point
// its CLOSURE instruction ran. len(Upvalues) == Function.UpvalueCount always.
type ObjClosure struct {
	Obj
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) String() string { return c.Function.String() }

// ObjClass is a class declaration: a name and a method table shared by every
// instance. evie classes are single-level: no inheritance, no super.
type ObjClass struct {
	Obj
	Name    string
	Methods *MethodTable
}

func (c *ObjClass) String() string { return fmt.Sprintf("<class %s>", c.Name) }

// ObjInstance is a live object of a class, with its own per-instance field
// table. Fields shadow methods of the same name (§4.G property access).
type ObjInstance struct {
	Obj
	Class  *ObjClass
	Fields *FieldTable
}

func (i *ObjInstance) String() string { return fmt.Sprintf("<%s instance>", i.Class.Name) }

// ObjBoundMethod pairs a receiver instance with one of its class's closures,
// so that calling it implicitly binds `this` to the receiver.
type ObjBoundMethod struct {
	Obj
	Receiver Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) String() string { return b.Method.String() }

// asObj recovers the concrete object type behind a header pointer. It is
// unsafe in the literal sense: it relies on Obj being the first field of
// every concrete object struct above so the pointer can be reinterpreted in
// place, with no allocation or copy. This is what lets both the tagged and
// the NaN-boxed Value representations share one extractor implementation.
func asObj[T any](o *Obj, want ObjKind) *T {
	if o == nil || o.Kind != want {
		panic(fmt.Sprintf("value: object kind mismatch: want %s, got %v", want, objKindOf(o)))
	}
	return (*T)(unsafe.Pointer(o))
}

func objKindOf(o *Obj) string {
	if o == nil {
		return "<nil>"
	}
	return o.Kind.String()
}

// objHeader returns the shared header of any concrete object pointer, again
// relying on Obj being each struct's first field.
func objHeader[T any](v *T) *Obj { return (*Obj)(unsafe.Pointer(v)) }

// IsStringObj, IsFunctionObj, ... report whether an object pointer holds the named
// variant, without panicking.
func IsStringObj(o *Obj) bool      { return o != nil && o.Kind == ObjStringKind }
func IsFunctionObj(o *Obj) bool    { return o != nil && o.Kind == ObjFunctionKind }
func IsNativeObj(o *Obj) bool      { return o != nil && o.Kind == ObjNativeKind }
func IsClosureObj(o *Obj) bool     { return o != nil && o.Kind == ObjClosureKind }
func IsClassObj(o *Obj) bool       { return o != nil && o.Kind == ObjClassKind }
func IsInstanceObj(o *Obj) bool    { return o != nil && o.Kind == ObjInstanceKind }
func IsBoundMethodObj(o *Obj) bool { return o != nil && o.Kind == ObjBoundMethodKind }
func IsUpvalueObj(o *Obj) bool     { return o != nil && o.Kind == ObjUpvalueKind }

// AsString, AsFunction, ... extract the concrete object, panicking if the
// header's Kind does not match (callers must check with the Is* predicates,
// or with Value.IsObjKind, before calling when the kind is not already
// statically known).
func AsString(o *Obj) *ObjString           { return asObj[ObjString](o, ObjStringKind) }
func AsFunction(o *Obj) *ObjFunction       { return asObj[ObjFunction](o, ObjFunctionKind) }
func AsNative(o *Obj) *ObjNative           { return asObj[ObjNative](o, ObjNativeKind) }
func AsClosure(o *Obj) *ObjClosure         { return asObj[ObjClosure](o, ObjClosureKind) }
func AsClass(o *Obj) *ObjClass             { return asObj[ObjClass](o, ObjClassKind) }
func AsInstance(o *Obj) *ObjInstance       { return asObj[ObjInstance](o, ObjInstanceKind) }
func AsBoundMethod(o *Obj) *ObjBoundMethod { return asObj[ObjBoundMethod](o, ObjBoundMethodKind) }
func AsUpvalue(o *Obj) *ObjUpvalue         { return asObj[ObjUpvalue](o, ObjUpvalueKind) }

// ObjToString returns the Go string form of any object, for printing and for
// `to_string`.
func ObjToString(o *Obj) string {
	switch o.Kind {
	case ObjStringKind:
		return AsString(o).String()
	case ObjFunctionKind:
		return AsFunction(o).String()
	case ObjNativeKind:
		return AsNative(o).String()
	case ObjClosureKind:
		return AsClosure(o).String()
	case ObjClassKind:
		return AsClass(o).String()
	case ObjInstanceKind:
		return AsInstance(o).String()
	case ObjBoundMethodKind:
		return AsBoundMethod(o).String()
	case ObjUpvalueKind:
		return AsUpvalue(o).String()
	default:
		return "<object>"
	}
}
