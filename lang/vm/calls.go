package vm

import "github.com/evie-lang/evie/lang/value"

// callValue dispatches CALL/INVOKE's callee-kind tie-break (spec §4.G
// "Calls"): Closure, Class (construction), BoundMethod, NativeFunction, or
// a runtime error for anything else.
func (vm *VM) callValue(callee value.Value, argc int) error {
	if !callee.IsObj() {
		return vm.runtimeError("can only call a function/closure, constructor or a class method.")
	}
	obj := callee.AsObj()
	switch obj.Kind {
	case value.ObjClosureKind:
		return vm.callClosure(value.AsClosure(obj), argc)
	case value.ObjClassKind:
		return vm.callClass(value.AsClass(obj), argc)
	case value.ObjBoundMethodKind:
		bound := value.AsBoundMethod(obj)
		vm.stack[vm.sp-argc-1] = bound.Receiver
		return vm.callClosure(bound.Method, argc)
	case value.ObjNativeKind:
		return vm.callNative(value.AsNative(obj), argc)
	default:
		return vm.runtimeError("can only call a function/closure, constructor or a class method.")
	}
}

func (vm *VM) callClosure(closure *value.ObjClosure, argc int) error {
	if closure.Function.Arity != argc {
		return vm.runtimeError("Expected %d arguments but got %d for <fn %s>.",
			closure.Function.Arity, argc, closure.Function.Name)
	}
	if len(vm.frames) >= maxFrames {
		return vm.runtimeError("stack overflow")
	}
	vm.frames = append(vm.frames, frame{closure: closure, base: vm.sp - argc - 1})
	return nil
}

// callClass implements class construction: allocate an instance in place
// of the class on the stack, then run `init` as an ordinary closure call
// if the class defines one (spec §4.G "Class" case).
func (vm *VM) callClass(cls *value.ObjClass, argc int) error {
	inst := vm.alloc.NewInstance(cls)
	vm.stack[vm.sp-argc-1] = value.FromObj(&inst.Obj)

	if init, ok := cls.Methods.Get("init"); ok {
		if init.Function.Arity != argc {
			return vm.runtimeError("Expected %d arguments but got %d for %s constructor.",
				init.Function.Arity, argc, cls.Name)
		}
		return vm.callClosure(init, argc)
	}
	if argc != 0 {
		return vm.runtimeError("Expected 0 arguments but got %d for %s constructor.", argc, cls.Name)
	}
	return nil
}

// callNative invokes a host function synchronously and does not push a
// call frame: the callee slot is replaced by the return value directly
// (spec §4.G "NativeFunction").
func (vm *VM) callNative(native *value.ObjNative, argc int) error {
	if native.Arity >= 0 && native.Arity != argc {
		return vm.runtimeError("Expected %d arguments but got %d for <fn %s>.", native.Arity, argc, native.Name)
	}
	base := vm.sp - argc
	args := make([]value.Value, argc)
	copy(args, vm.stack[base:vm.sp])

	result, err := native.Fn(vm.alloc, args)
	if err != nil {
		return vm.runtimeError("%s", err.Error())
	}
	vm.sp = base - 1
	vm.push(result)
	return nil
}

// getProperty implements GET_PROPERTY: fields shadow methods of the same
// name, and a method hit allocates a BoundMethod (spec §4.G "Property
// access").
func (vm *VM) getProperty(fr *frame) error {
	name := value.AsString(vm.readConstant(fr).AsObj())
	receiver := vm.peek(0)
	if !receiver.IsObj() || !value.IsInstanceObj(receiver.AsObj()) {
		return vm.runtimeError("Only instances have properties.")
	}
	inst := value.AsInstance(receiver.AsObj())

	if v, ok := inst.Fields.Get(name.Chars); ok {
		vm.pop()
		vm.push(v)
		return nil
	}
	if method, ok := inst.Class.Methods.Get(name.Chars); ok {
		vm.pop()
		bound := vm.alloc.NewBoundMethod(receiver, method)
		vm.push(value.FromObj(&bound.Obj))
		return nil
	}
	return vm.runtimeError("Undefined property '%s'.", name.Chars)
}

// setProperty implements SET_PROPERTY: the receiver must be an instance,
// and the expression's value is the assignment's result (`a.b = x`
// evaluates to `x`).
func (vm *VM) setProperty(fr *frame) error {
	name := value.AsString(vm.readConstant(fr).AsObj())
	receiver := vm.peek(1)
	if !receiver.IsObj() || !value.IsInstanceObj(receiver.AsObj()) {
		return vm.runtimeError("Only instances have properties.")
	}
	inst := value.AsInstance(receiver.AsObj())
	val := vm.peek(0)
	inst.Fields.Set(name.Chars, val)

	vm.pop()
	vm.pop()
	vm.push(val)
	return nil
}

// invoke implements INVOKE, the GET_PROPERTY+CALL fusion for `recv.name(args)`.
// A field holding a callable still works (it's read, then called), matching
// field-shadows-method precedence.
func (vm *VM) invoke(fr *frame) error {
	name := value.AsString(vm.readConstant(fr).AsObj())
	argc := int(vm.readByte(fr))

	receiver := vm.peek(argc)
	if !receiver.IsObj() || !value.IsInstanceObj(receiver.AsObj()) {
		return vm.runtimeError("Only instances have properties.")
	}
	inst := value.AsInstance(receiver.AsObj())

	if v, ok := inst.Fields.Get(name.Chars); ok {
		vm.stack[vm.sp-argc-1] = v
		return vm.callValue(v, argc)
	}
	method, ok := inst.Class.Methods.Get(name.Chars)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.callClosure(method, argc)
}

// captureUpvalue returns the open upvalue for stack slot stackIndex,
// reusing an existing one if two closures capture the same variable (spec
// §4.G: "Identity matters"). The open list is kept sorted descending by
// stack index so closeUpvalues can stop at the first entry below its
// threshold.
func (vm *VM) captureUpvalue(stackIndex int) *value.ObjUpvalue {
	var prev *value.ObjUpvalue
	cur := vm.openUpvalues
	for cur != nil && cur.StackIndex > stackIndex {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && cur.StackIndex == stackIndex {
		return cur
	}

	created := vm.alloc.NewUpvalue(&vm.stack[stackIndex], stackIndex)
	created.NextOpen = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues promotes every open upvalue at or above fromIndex from
// Stack(i) to Heap(v), then drops it from the open list.
func (vm *VM) closeUpvalues(fromIndex int) {
	for vm.openUpvalues != nil && vm.openUpvalues.StackIndex >= fromIndex {
		uv := vm.openUpvalues
		uv.Close()
		vm.openUpvalues = uv.NextOpen
	}
}
