package value

import (
	"unsafe"

	"github.com/dolthub/swiss"
)

// GCRoots is implemented by whatever owns the live Values an Allocator must
// not collect: the VM's value stack, call frames, open upvalues and globals
// table (§3 "Lifecycles", §9 "Cyclic heap graphs"). MarkRoots must call mark
// once for every currently-reachable Value.
type GCRoots interface {
	MarkRoots(mark func(Value))
}

// Allocator owns every heap object's lifetime: it allocates, interns
// strings, and (optionally) reclaims garbage with a stop-the-world
// mark-sweep pass rooted at whatever GCRoots supplies. A collector is not
// required for a correct evie implementation (§9 permits "the reference
// design may leak deliberately"), but this one is cheap enough to always
// run.
type Allocator struct {
	head           *Obj // intrusive linked list of every live object
	bytesAllocated int64
	nextGC         int64
	intern         *swiss.Map[string, *ObjString]
}

// defaultNextGC is the byte threshold for the first collection; afterwards
// the threshold is raised to twice the post-collection live size whenever
// that is larger than the current threshold, and is never lowered (a
// "size-threshold doubling policy", per §9's design notes).
const defaultNextGC = 1 << 20

// NewAllocator returns an empty allocator ready to serve a single VM/Thread.
func NewAllocator() *Allocator {
	return &Allocator{
		intern: swiss.NewMap[string, *ObjString](64),
		nextGC: defaultNextGC,
	}
}

// BytesAllocated returns the number of bytes currently charged to live
// objects (§4.A contract: monotone between alloc and free of the same
// object).
func (a *Allocator) BytesAllocated() int64 { return a.bytesAllocated }

func (a *Allocator) track(o *Obj, size int) {
	o.bytes = size
	o.next = a.head
	a.head = o
	a.bytesAllocated += int64(size)
}

// InternString returns the canonical ObjString for bytes, allocating one the
// first time bytes is seen. Equal-content strings always get the same
// pointer (§3 invariant, required for the NaN-boxed representation's
// pointer-identity equality to be sound).
func (a *Allocator) InternString(s string) *ObjString {
	if existing, ok := a.intern.Get(s); ok {
		return existing
	}
	str := &ObjString{Obj: Obj{Kind: ObjStringKind}, Chars: s, hash: fnv32(s)}
	a.track(&str.Obj, int(unsafe.Sizeof(*str))+len(s))
	a.intern.Put(s, str)
	return str
}

func fnv32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h *= prime32
		h ^= uint32(s[i])
	}
	return h
}

// NewFunction allocates a user function object. Its Chunk is filled in by
// the caller (the compiler) after allocation since compilation writes to it
// incrementally.
func (a *Allocator) NewFunction(name string, arity int) *ObjFunction {
	fn := &ObjFunction{Obj: Obj{Kind: ObjFunctionKind}, Name: name, Arity: arity}
	a.track(&fn.Obj, int(unsafe.Sizeof(*fn)))
	return fn
}

// NewNative allocates a native (host) function object.
func (a *Allocator) NewNative(name string, arity int, fn NativeFn) *ObjNative {
	n := &ObjNative{Obj: Obj{Kind: ObjNativeKind}, Name: name, Arity: arity, Fn: fn}
	a.track(&n.Obj, int(unsafe.Sizeof(*n)))
	return n
}

// NewClosure allocates a closure over fn with len(upvalues) == fn.UpvalueCount.
func (a *Allocator) NewClosure(fn *ObjFunction, upvalues []*ObjUpvalue) *ObjClosure {
	c := &ObjClosure{Obj: Obj{Kind: ObjClosureKind}, Function: fn, Upvalues: upvalues}
	a.track(&c.Obj, int(unsafe.Sizeof(*c)))
	return c
}

// NewUpvalue allocates an open upvalue pointing at a live stack slot.
func (a *Allocator) NewUpvalue(slot *Value, stackIndex int) *ObjUpvalue {
	u := &ObjUpvalue{Obj: Obj{Kind: ObjUpvalueKind}, Location: slot, StackIndex: stackIndex}
	a.track(&u.Obj, int(unsafe.Sizeof(*u)))
	return u
}

// NewClass allocates an empty class named name.
func (a *Allocator) NewClass(name string) *ObjClass {
	cls := &ObjClass{Obj: Obj{Kind: ObjClassKind}, Name: name, Methods: NewMethodTable(4)}
	a.track(&cls.Obj, int(unsafe.Sizeof(*cls)))
	return cls
}

// NewInstance allocates a fresh instance of cls with an empty field table.
func (a *Allocator) NewInstance(cls *ObjClass) *ObjInstance {
	inst := &ObjInstance{Obj: Obj{Kind: ObjInstanceKind}, Class: cls, Fields: NewFieldTable(4)}
	a.track(&inst.Obj, int(unsafe.Sizeof(*inst)))
	return inst
}

// NewBoundMethod allocates a method bound to receiver.
func (a *Allocator) NewBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	b := &ObjBoundMethod{Obj: Obj{Kind: ObjBoundMethodKind}, Receiver: receiver, Method: method}
	a.track(&b.Obj, int(unsafe.Sizeof(*b)))
	return b
}

// ShouldCollect reports whether the bytes currently charged (the live size
// left by the last collection plus everything allocated since) have crossed
// the doubling threshold. The VM calls this (cheaply) between
// instructions and calls Collect when it returns true.
func (a *Allocator) ShouldCollect() bool { return a.bytesAllocated > a.nextGC }

// Collect runs one stop-the-world mark-sweep pass, rooted at roots.
// Unreachable objects are unlinked from the intrusive list (and, for
// strings, from the intern table) so Go's own garbage collector can in turn
// reclaim them; reachable ones have their mark bit cleared for next time.
func (a *Allocator) Collect(roots GCRoots) {
	roots.MarkRoots(a.markValue)

	var kept *Obj
	var live int64
	for o := a.head; o != nil; {
		next := o.next
		if o.marked {
			o.marked = false
			o.next = kept
			kept = o
			live += int64(o.bytes)
		} else {
			if o.Kind == ObjStringKind {
				a.intern.Delete(AsString(o).Chars)
			}
		}
		o = next
	}
	a.head = kept
	a.bytesAllocated = live
	if a.nextGC < live*2 {
		a.nextGC = live * 2
	}
}

func (a *Allocator) markValue(v Value) {
	if !v.IsObj() {
		return
	}
	a.markObj(v.AsObj())
}

func (a *Allocator) markObj(o *Obj) {
	if o == nil || o.marked {
		return
	}
	o.marked = true
	switch o.Kind {
	case ObjFunctionKind:
		fn := AsFunction(o)
		for _, k := range fn.Chunk.Constants {
			a.markValue(k)
		}
	case ObjClosureKind:
		c := AsClosure(o)
		a.markObj(&c.Function.Obj)
		for _, uv := range c.Upvalues {
			a.markObj(&uv.Obj)
		}
	case ObjUpvalueKind:
		u := AsUpvalue(o)
		a.markValue(*u.Location)
	case ObjClassKind:
		cls := AsClass(o)
		cls.Methods.m.Iter(func(_ string, m *ObjClosure) bool {
			a.markObj(&m.Obj)
			return true
		})
	case ObjInstanceKind:
		inst := AsInstance(o)
		a.markObj(&inst.Class.Obj)
		inst.Fields.m.Iter(func(_ string, v Value) bool {
			a.markValue(v)
			return true
		})
	case ObjBoundMethodKind:
		b := AsBoundMethod(o)
		a.markValue(b.Receiver)
		a.markObj(&b.Method.Obj)
	}
}
