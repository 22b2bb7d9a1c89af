package vm

import (
	"github.com/evie-lang/evie/lang/evieerr"
	"github.com/evie-lang/evie/lang/value"
)

// runtimeError builds a *evieerr.RuntimeError carrying the call stack
// currently active (innermost frame first, per spec §8's error-path
// scenario), formats it with format/args, and tags it RuntimePhase.
func (vm *VM) runtimeError(format string, args ...any) error {
	stack := make([]evieerr.Frame, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		stack = append(stack, evieerr.Frame{
			Line:     fr.closure.Function.Chunk.LineAt(fr.ip - 1),
			FuncName: fr.closure.Function.Name,
		})
	}
	return evieerr.Wrap(evieerr.RuntimePhase, evieerr.NewRuntimeError(stack, format, args...))
}

// MarkRoots implements value.GCRoots: every Value live on the value stack
// prefix, every open upvalue's referent, every active frame's closure, and
// every global (spec §9 "Cyclic heap graphs").
func (vm *VM) MarkRoots(mark func(value.Value)) {
	for i := 0; i < vm.sp; i++ {
		mark(vm.stack[i])
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.NextOpen {
		mark(*uv.Location)
	}
	for i := range vm.frames {
		mark(value.FromObj(&vm.frames[i].closure.Obj))
	}
	vm.globals.Iterate(func(_ string, v value.Value) bool {
		mark(v)
		return true
	})
}
