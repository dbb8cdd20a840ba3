package vm

import (
	"github.com/mna/mint/lang/chunk"
	"github.com/mna/mint/lang/value"
)

// Closure binds a CompiledFunction to the upvalue cells it captured at the
// point its Closure instruction executed.
type Closure struct {
	Function *chunk.CompiledFunction
	Upvalues []*Upvalue
}

// ObjectKind implements value.Object.
func (c *Closure) ObjectKind() value.Kind { return value.Func }

// String implements value.Object: the canonical print form of a funref.
func (c *Closure) String() string { return c.Function.String() }

// Upvalue is a shared mutable cell referencing a captured variable. While
// open, it aliases a live slot on the VM's value stack (identified by
// Slot); once that slot leaves the stack (its block ends or its frame
// returns), close copies the value out and the cell is self-contained
// ("closed").
type Upvalue struct {
	Slot   int
	closed bool
	value  value.Value
}

func (u *Upvalue) get(vm *VirtualMachine) value.Value {
	if u.closed {
		return u.value
	}
	return vm.stack[u.Slot]
}

func (u *Upvalue) set(vm *VirtualMachine, v value.Value) {
	if u.closed {
		u.value = v
		return
	}
	vm.stack[u.Slot] = v
}

func (u *Upvalue) close(vm *VirtualMachine) {
	u.value = vm.stack[u.Slot]
	u.closed = true
}
