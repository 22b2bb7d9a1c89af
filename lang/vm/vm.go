// Package vm implements evie's bytecode virtual machine: the dispatch
// loop, the value stack, the call-frame stack, and the open-upvalue list
// (spec component G).
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/evie-lang/evie/lang/compiler"
	"github.com/evie-lang/evie/lang/natives"
	"github.com/evie-lang/evie/lang/value"
)

// StackSize is the fixed capacity of the value stack, chosen per the
// original implementation's vm.rs (spec leaves the choice open at
// "≥ 256").
const StackSize = 1024

// maxFrames bounds the call-frame stack; exceeding it is reported as a
// "stack overflow" runtime error rather than exhausting process memory.
const maxFrames = 256

// frame is one entry of the call-frame stack: a closure, its instruction
// pointer, and the base stack slot its locals start at.
type frame struct {
	closure *value.ObjClosure
	ip      int
	base    int
}

// VM executes compiled chunks. Configure it by setting exported fields
// before calling Interpret, the same construct-then-set-fields pattern the
// teacher's machine.Thread uses (no builder, no options type).
type VM struct {
	// Stdout and Stderr are where PRINT output and, when Trace is set,
	// execution tracing go. nil means os.Stdout / os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Trace, when true, prints the value stack and the next instruction to
	// Stderr before every dispatch step.
	Trace bool

	alloc   *value.Allocator
	globals *value.GlobalTable

	stack [StackSize]value.Value
	sp    int

	frames []frame

	openUpvalues *value.ObjUpvalue
}

// New returns a VM with an empty allocator and globals table, with every
// required native function (spec §4.H) already registered.
func New() *VM {
	vm := &VM{
		alloc:   value.NewAllocator(),
		globals: value.NewGlobalTable(),
	}
	natives.Register(vm.alloc, vm.globals)
	return vm
}

// Globals exposes the globals table so lang/natives can register built-ins
// into it (and so host embedders can define additional ones).
func (vm *VM) Globals() *value.GlobalTable { return vm.globals }

// Allocator exposes the VM's allocator, e.g. for a native function that
// needs to intern a returned string.
func (vm *VM) Allocator() *value.Allocator { return vm.alloc }

func (vm *VM) stdout() io.Writer {
	if vm.Stdout != nil {
		return vm.Stdout
	}
	return os.Stdout
}

func (vm *VM) stderr() io.Writer {
	if vm.Stderr != nil {
		return vm.Stderr
	}
	return os.Stderr
}

// Interpret compiles src and runs it to completion. The VM resets its call
// stack and value stack before running (spec §7); the allocator and
// globals persist across calls, so successive Interpret calls on the same
// VM share state the way a REPL needs them to.
func (vm *VM) Interpret(src string) error {
	fn, err := compiler.Compile(src, vm.alloc)
	if err != nil {
		return err
	}

	vm.sp = 0
	vm.frames = vm.frames[:0]
	vm.openUpvalues = nil

	closure := vm.alloc.NewClosure(fn, nil)
	vm.push(value.FromObj(&closure.Obj))
	if err := vm.callClosure(closure, 0); err != nil {
		return err
	}
	return vm.run()
}

func (vm *VM) push(v value.Value) {
	if vm.sp >= StackSize {
		panic(stackOverflow{})
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() value.Value {
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) peek(distance int) value.Value { return vm.stack[vm.sp-1-distance] }

// stackOverflow is panicked by push when the value stack is full and
// recovered by run, which turns it into a regular *evieerr.RuntimeError
// (spec §8 invariant 1: overflow must be a runtime error, not memory
// corruption).
type stackOverflow struct{}

func (vm *VM) readByte(fr *frame) byte {
	b := fr.closure.Function.Chunk.Code[fr.ip]
	fr.ip++
	return b
}

func (vm *VM) readShort(fr *frame) uint16 {
	hi := vm.readByte(fr)
	lo := vm.readByte(fr)
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstant(fr *frame) value.Value {
	idx := vm.readByte(fr)
	return fr.closure.Function.Chunk.Constants[idx]
}

// run is the dispatch loop: decode one byte as an opcode, branch, repeat,
// until the outermost frame returns.
func (vm *VM) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(stackOverflow); ok {
				err = vm.runtimeError("stack overflow")
				return
			}
			panic(r)
		}
	}()

	for {
		if vm.alloc.ShouldCollect() {
			vm.alloc.Collect(vm)
		}

		fr := &vm.frames[len(vm.frames)-1]
		if vm.Trace {
			vm.traceStep(fr)
		}

		switch op := value.Opcode(vm.readByte(fr)); op {
		case value.OpConstant:
			vm.push(vm.readConstant(fr))
		case value.OpNil:
			vm.push(value.Nil)
		case value.OpTrue:
			vm.push(value.Bool(true))
		case value.OpFalse:
			vm.push(value.Bool(false))
		case value.OpPop:
			vm.pop()

		case value.OpGetLocal:
			slot := vm.readByte(fr)
			vm.push(vm.stack[fr.base+int(slot)])
		case value.OpSetLocal:
			slot := vm.readByte(fr)
			vm.stack[fr.base+int(slot)] = vm.peek(0)

		case value.OpGetGlobal:
			name := value.AsString(vm.readConstant(fr).AsObj())
			v, ok := vm.globals.Get(name.Chars)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)
		case value.OpDefineGlobal:
			name := value.AsString(vm.readConstant(fr).AsObj())
			vm.globals.Set(name.Chars, vm.peek(0))
			vm.pop()
		case value.OpSetGlobal:
			name := value.AsString(vm.readConstant(fr).AsObj())
			if !vm.globals.Has(name.Chars) {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.globals.Set(name.Chars, vm.peek(0))

		case value.OpGetUpvalue:
			slot := vm.readByte(fr)
			vm.push(*fr.closure.Upvalues[slot].Location)
		case value.OpSetUpvalue:
			slot := vm.readByte(fr)
			*fr.closure.Upvalues[slot].Location = vm.peek(0)
		case value.OpCloseUpvalue:
			vm.closeUpvalues(vm.sp - 1)
			vm.pop()

		case value.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(a.Equal(b)))
		case value.OpNotEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(!a.Equal(b)))
		case value.OpGreater, value.OpGreaterEqual, value.OpLess, value.OpLessEqual:
			if err := vm.comparison(op); err != nil {
				return err
			}
		case value.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case value.OpSubtract, value.OpMultiply, value.OpDivide:
			if err := vm.arithmetic(op); err != nil {
				return err
			}
		case value.OpNegate:
			if err := vm.negate(); err != nil {
				return err
			}
		case value.OpNot:
			vm.push(value.Bool(vm.pop().IsFalsey()))

		case value.OpPrint:
			fmt.Fprintln(vm.stdout(), vm.pop().String())

		case value.OpJump:
			offset := vm.readShort(fr)
			fr.ip += int(offset)
		case value.OpJumpIfFalse:
			offset := vm.readShort(fr)
			if vm.peek(0).IsFalsey() {
				fr.ip += int(offset)
			}
		case value.OpJumpIfTrue:
			offset := vm.readShort(fr)
			if !vm.peek(0).IsFalsey() {
				fr.ip += int(offset)
			}
		case value.OpLoop:
			offset := vm.readShort(fr)
			fr.ip -= int(offset)

		case value.OpCall:
			argc := int(vm.readByte(fr))
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				return err
			}
		case value.OpClosure:
			if err := vm.closureOp(fr); err != nil {
				return err
			}
		case value.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(fr.base)
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				vm.pop() // the top-level script closure pushed by Interpret
				return nil
			}
			vm.sp = fr.base
			vm.push(result)

		case value.OpClass:
			name := value.AsString(vm.readConstant(fr).AsObj())
			cls := vm.alloc.NewClass(name.Chars)
			vm.push(value.FromObj(&cls.Obj))
		case value.OpMethod:
			name := value.AsString(vm.readConstant(fr).AsObj())
			method := value.AsClosure(vm.peek(0).AsObj())
			cls := value.AsClass(vm.peek(1).AsObj())
			cls.Methods.Set(name.Chars, method)
			vm.pop()

		case value.OpGetProperty:
			if err := vm.getProperty(fr); err != nil {
				return err
			}
		case value.OpSetProperty:
			if err := vm.setProperty(fr); err != nil {
				return err
			}
		case value.OpInvoke:
			if err := vm.invoke(fr); err != nil {
				return err
			}

		default:
			return vm.runtimeError("unknown opcode %d", op)
		}
	}
}

func (vm *VM) closureOp(fr *frame) error {
	fnVal := vm.readConstant(fr)
	fn := value.AsFunction(fnVal.AsObj())
	upvalues := make([]*value.ObjUpvalue, fn.UpvalueCount)
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := vm.readByte(fr)
		index := vm.readByte(fr)
		if isLocal == 1 {
			upvalues[i] = vm.captureUpvalue(fr.base + int(index))
		} else {
			upvalues[i] = fr.closure.Upvalues[index]
		}
	}
	closure := vm.alloc.NewClosure(fn, upvalues)
	vm.push(value.FromObj(&closure.Obj))
	return nil
}

func (vm *VM) traceStep(fr *frame) {
	w := vm.stderr()
	fmt.Fprint(w, "          ")
	for i := 0; i < vm.sp; i++ {
		fmt.Fprintf(w, "[ %s ]", vm.stack[i].String())
	}
	fmt.Fprintln(w)
	value.DisassembleInstruction(w, &fr.closure.Function.Chunk, fr.ip)
}
