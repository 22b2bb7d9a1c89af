package vm

import "github.com/evie-lang/evie/lang/value"

// add implements ADD: numeric addition, or string concatenation when both
// operands are strings; any other combination is a runtime error (spec
// §4.F).
func (vm *VM) add() error {
	b, a := vm.pop(), vm.pop()
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.push(value.Number(a.AsNumber() + b.AsNumber()))
	case a.IsObjKind(value.ObjStringKind) && b.IsObjKind(value.ObjStringKind):
		concat := value.AsString(a.AsObj()).Chars + value.AsString(b.AsObj()).Chars
		str := vm.alloc.InternString(concat)
		vm.push(value.FromObj(&str.Obj))
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	return nil
}

func (vm *VM) arithmetic(op value.Opcode) error {
	b, a := vm.pop(), vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	switch op {
	case value.OpSubtract:
		vm.push(value.Number(a.AsNumber() - b.AsNumber()))
	case value.OpMultiply:
		vm.push(value.Number(a.AsNumber() * b.AsNumber()))
	case value.OpDivide:
		vm.push(value.Number(a.AsNumber() / b.AsNumber()))
	}
	return nil
}

func (vm *VM) comparison(op value.Opcode) error {
	b, a := vm.pop(), vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	an, bn := a.AsNumber(), b.AsNumber()
	var result bool
	switch op {
	case value.OpGreater:
		result = an > bn
	case value.OpGreaterEqual:
		result = an >= bn
	case value.OpLess:
		result = an < bn
	case value.OpLessEqual:
		result = an <= bn
	}
	vm.push(value.Bool(result))
	return nil
}

func (vm *VM) negate() error {
	if !vm.peek(0).IsNumber() {
		return vm.runtimeError("Operand must be a number.")
	}
	v := vm.pop()
	vm.push(value.Number(-v.AsNumber()))
	return nil
}
