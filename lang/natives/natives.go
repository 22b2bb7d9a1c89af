// Package natives registers evie's built-in host functions (spec component
// H) as globals on a VM's allocator/globals pair.
package natives

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/exp/maps"

	"github.com/evie-lang/evie/lang/value"
)

// Register installs every required native function (spec §4.H: `clock`,
// `to_string`) into globals, allocating each as an ObjNative via alloc.
// `globals` itself is a debug aid for listing every currently registered
// name (including user globals defined so far) in a stable order.
func Register(alloc *value.Allocator, globals *value.GlobalTable) {
	register(alloc, globals, "clock", 0, clock)
	register(alloc, globals, "to_string", 1, toString)
	register(alloc, globals, "globals", 0, globalNames(globals))
}

func register(alloc *value.Allocator, globals *value.GlobalTable, name string, arity int, fn value.NativeFn) {
	native := alloc.NewNative(name, arity, fn)
	globals.Set(name, value.FromObj(&native.Obj))
}

// clock returns seconds since the Unix epoch as a double.
func clock(_ *value.Allocator, _ []value.Value) (value.Value, error) {
	return value.Number(float64(time.Now().UnixNano()) / 1e9), nil
}

// toString renders its single argument the way PRINT does, as a freshly
// interned string.
func toString(alloc *value.Allocator, args []value.Value) (value.Value, error) {
	str := alloc.InternString(args[0].String())
	return value.FromObj(&str.Obj), nil
}

// globalNames returns a native that lists every name currently defined in
// globals (built-ins and user globals alike), comma-joined in a stable
// sorted order. Useful from a REPL session to see what is in scope without
// re-reading the whole script.
func globalNames(globals *value.GlobalTable) value.NativeFn {
	return func(alloc *value.Allocator, _ []value.Value) (value.Value, error) {
		snapshot := make(map[string]struct{})
		globals.Iterate(func(name string, _ value.Value) bool {
			snapshot[name] = struct{}{}
			return true
		})
		names := maps.Keys(snapshot)
		sort.Strings(names)
		str := alloc.InternString(strings.Join(names, ", "))
		return value.FromObj(&str.Obj), nil
	}
}
