package vm

import (
	"fmt"
	"time"

	"github.com/mna/mint/lang/value"
)

// NativeFunction is a host-provided callable made available to guest code
// under a global name. Arity is checked by the VM before Fn is invoked;
// pass -1 to accept any argument count.
type NativeFunction struct {
	Name  string
	Arity int
	Fn    func(args []value.Value) (value.Value, error)
}

// ObjectKind implements value.Object.
func (n *NativeFunction) ObjectKind() value.Kind { return value.NativeFn }

// String implements value.Object.
func (n *NativeFunction) String() string { return fmt.Sprintf("<native %s>", n.Name) }

func (vm *VirtualMachine) registerDefaultNatives() {
	vm.AddNativeFunction("clock", 0, func(args []value.Value) (value.Value, error) {
		return value.IntValue(time.Now().UnixNano()), nil
	})
	vm.AddNativeFunction("square", 1, func(args []value.Value) (value.Value, error) {
		if args[0].Kind() != value.Int {
			return value.Value{}, fmt.Errorf("square expects an int argument")
		}
		n := args[0].AsInt()
		return value.IntValue(n * n), nil
	})
}
