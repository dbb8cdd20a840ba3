// Package vm implements the stack-based virtual machine that executes
// compiled mint bytecode: a value stack, a bounded call-frame stack,
// closures with captured upvalues, and a small native-function registry.
package vm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dolthub/swiss"

	"github.com/mna/mint/lang/chunk"
	"github.com/mna/mint/lang/compiler"
	"github.com/mna/mint/lang/value"
)

// MaxFrames bounds call depth by default; exceeding it is a RuntimeError
// ("stack overflow") rather than a crash.
const MaxFrames = 64

// VirtualMachine is the embedding surface: one self-contained instance with
// its own stack, globals, and native registry. It is not safe for
// concurrent use from multiple goroutines; distinct instances are
// independent.
type VirtualMachine struct {
	stack        []value.Value
	frames       []CallFrame
	openUpvalues []*Upvalue

	globals *swiss.Map[string, value.Value]
	natives map[string]*NativeFunction

	output    strings.Builder
	maxFrames int
}

// New returns a ready-to-use VirtualMachine with the default native
// functions (clock, square) registered.
func New() *VirtualMachine {
	vm := &VirtualMachine{
		stack:     make([]value.Value, 0, 256),
		globals:   swiss.NewMap[string, value.Value](uint32(8)),
		natives:   make(map[string]*NativeFunction),
		maxFrames: MaxFrames,
	}
	vm.registerDefaultNatives()
	return vm
}

// Interpret compiles and runs source against this VM instance. Globals set
// by a prior Interpret call remain visible; call Reset first for a clean
// slate.
func (vm *VirtualMachine) Interpret(source string) error {
	fn, err := compiler.Compile(source)
	if err != nil {
		return err
	}
	return vm.InterpretCompiled(fn)
}

// InterpretCompiled runs a pre-compiled top-level function directly,
// mirroring the lower-level Compile/Interpret(&Chunk) surface: callers that
// already hold a *chunk.CompiledFunction (built by hand or by
// compiler.Compile) can execute it without recompiling from source.
func (vm *VirtualMachine) InterpretCompiled(fn *chunk.CompiledFunction) error {
	closure := &Closure{Function: fn}

	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openUpvalues = nil

	vm.push(value.ObjectValue(closure))
	vm.frames = append(vm.frames, CallFrame{closure: closure, base: 0})

	if err := vm.run(); err != nil {
		vm.stack = vm.stack[:0]
		vm.frames = vm.frames[:0]
		vm.openUpvalues = nil
		return err
	}
	return nil
}

// Reset clears the output buffer and all globals, but keeps every
// registered native function (including ones added by AddNativeFunction).
func (vm *VirtualMachine) Reset() {
	vm.output.Reset()
	vm.globals = swiss.NewMap[string, value.Value](uint32(8))
	for name, nf := range vm.natives {
		vm.globals.Put(name, value.ObjectValue(nf))
	}
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openUpvalues = nil
}

// GetOutput returns the accumulated print buffer, with a single trailing
// newline removed so the externally visible form never trails whitespace.
func (vm *VirtualMachine) GetOutput() string {
	return strings.TrimSuffix(vm.output.String(), "\n")
}

// AddNativeFunction registers a host function under name, callable from
// guest code like any other funref global. Registration is expected to
// happen before Interpret is called (though nothing stops re-registering
// later; the new global takes effect immediately).
func (vm *VirtualMachine) AddNativeFunction(name string, arity int, fn func(args []value.Value) (value.Value, error)) {
	nf := &NativeFunction{Name: name, Arity: arity, Fn: fn}
	vm.natives[name] = nf
	vm.globals.Put(name, value.ObjectValue(nf))
}

func (vm *VirtualMachine) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VirtualMachine) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VirtualMachine) peek(distance int) value.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VirtualMachine) readByte(f *CallFrame) byte {
	b := f.closure.Function.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (vm *VirtualMachine) readUint16(f *CallFrame) uint16 {
	hi := vm.readByte(f)
	lo := vm.readByte(f)
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VirtualMachine) runtimeError(f *CallFrame, format string, args ...any) error {
	line := 0
	if f != nil && f.ip-1 >= 0 {
		line = f.closure.Function.Chunk.Line(f.ip - 1)
	}
	return &RuntimeError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// run executes instructions from the topmost call frame until the frame
// stack empties (successful completion) or a RuntimeError occurs.
func (vm *VirtualMachine) run() error {
	for {
		frame := &vm.frames[len(vm.frames)-1]
		op := chunk.OpCode(vm.readByte(frame))

		switch op {
		case chunk.Constant:
			idx := vm.readByte(frame)
			vm.push(frame.closure.Function.Chunk.Constants[idx])

		case chunk.Nil:
			vm.push(value.NilValue())
		case chunk.True:
			vm.push(value.BoolValue(true))
		case chunk.False:
			vm.push(value.BoolValue(false))
		case chunk.Pop:
			vm.pop()

		case chunk.GetLocal:
			slot := vm.readByte(frame)
			vm.push(vm.stack[frame.base+int(slot)])
		case chunk.SetLocal:
			slot := vm.readByte(frame)
			vm.stack[frame.base+int(slot)] = vm.peek(0)

		case chunk.GetGlobal:
			idx := vm.readByte(frame)
			name := frame.closure.Function.Chunk.Constants[idx].AsStr()
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError(frame, "undefined variable %q", name)
			}
			vm.push(v)
		case chunk.SetGlobal:
			idx := vm.readByte(frame)
			name := frame.closure.Function.Chunk.Constants[idx].AsStr()
			if _, ok := vm.globals.Get(name); !ok {
				return vm.runtimeError(frame, "undefined variable %q", name)
			}
			vm.globals.Put(name, vm.peek(0))
		case chunk.DefineGlobal:
			idx := vm.readByte(frame)
			name := frame.closure.Function.Chunk.Constants[idx].AsStr()
			vm.globals.Put(name, vm.pop())

		case chunk.GetUpvalue:
			idx := vm.readByte(frame)
			vm.push(frame.closure.Upvalues[idx].get(vm))
		case chunk.SetUpvalue:
			idx := vm.readByte(frame)
			frame.closure.Upvalues[idx].set(vm, vm.peek(0))

		case chunk.Equal:
			b, a := vm.pop(), vm.pop()
			vm.push(value.BoolValue(value.Equal(a, b)))
		case chunk.NotEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.BoolValue(!value.Equal(a, b)))
		case chunk.Greater:
			b, a := vm.pop(), vm.pop()
			cmp, ok := value.Compare(a, b)
			if !ok {
				return vm.runtimeError(frame, "cannot compare %s and %s", a.Kind(), b.Kind())
			}
			vm.push(value.BoolValue(cmp > 0))
		case chunk.Less:
			b, a := vm.pop(), vm.pop()
			cmp, ok := value.Compare(a, b)
			if !ok {
				return vm.runtimeError(frame, "cannot compare %s and %s", a.Kind(), b.Kind())
			}
			vm.push(value.BoolValue(cmp < 0))

		case chunk.Add:
			b, a := vm.pop(), vm.pop()
			res, err := value.Add(a, b)
			if err != nil {
				return vm.runtimeError(frame, "%s", err)
			}
			vm.push(res)
		case chunk.Subtract:
			b, a := vm.pop(), vm.pop()
			res, err := value.Subtract(a, b)
			if err != nil {
				return vm.runtimeError(frame, "%s", err)
			}
			vm.push(res)
		case chunk.Multiply:
			b, a := vm.pop(), vm.pop()
			res, err := value.Multiply(a, b)
			if err != nil {
				return vm.runtimeError(frame, "%s", err)
			}
			vm.push(res)
		case chunk.Divide:
			b, a := vm.pop(), vm.pop()
			res, err := value.Divide(a, b)
			if err != nil {
				return vm.runtimeError(frame, "%s", err)
			}
			vm.push(res)
		case chunk.Modulo:
			b, a := vm.pop(), vm.pop()
			res, err := value.Modulo(a, b)
			if err != nil {
				return vm.runtimeError(frame, "%s", err)
			}
			vm.push(res)

		case chunk.Not:
			vm.push(value.Not(vm.pop()))
		case chunk.Negate:
			res, err := value.Negate(vm.pop())
			if err != nil {
				return vm.runtimeError(frame, "%s", err)
			}
			vm.push(res)

		case chunk.Print:
			v := vm.pop()
			vm.output.WriteString(v.String())
			vm.output.WriteByte('\n')

		case chunk.Jump:
			offset := vm.readUint16(frame)
			frame.ip += int(offset)
		case chunk.JumpIfFalse:
			offset := vm.readUint16(frame)
			if !vm.peek(0).Truth() {
				frame.ip += int(offset)
			}
		case chunk.Loop:
			offset := vm.readUint16(frame)
			frame.ip -= int(offset)

		case chunk.Call:
			argc := int(vm.readByte(frame))
			if err := vm.callValue(frame, vm.peek(argc), argc); err != nil {
				return err
			}

		case chunk.Closure:
			idx := vm.readByte(frame)
			fn, _ := frame.closure.Function.Chunk.Constants[idx].AsObject().(*chunk.CompiledFunction)
			closure := &Closure{Function: fn, Upvalues: make([]*Upvalue, len(fn.Upvalues))}
			for i := range fn.Upvalues {
				isLocal := vm.readByte(frame) != 0
				index := vm.readByte(frame)
				if isLocal {
					closure.Upvalues[i] = vm.captureUpvalue(frame.base + int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			vm.push(value.ObjectValue(closure))

		case chunk.CloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()

		case chunk.Return:
			result := vm.pop()
			vm.closeUpvalues(frame.base)
			vm.stack = vm.stack[:frame.base]
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return nil
			}
			vm.push(result)

		default:
			return vm.runtimeError(frame, "invalid opcode %d", byte(op))
		}
	}
}

// callValue implements the Call opcode: argc arguments sit atop the stack,
// with the callee itself argc slots below them.
func (vm *VirtualMachine) callValue(frame *CallFrame, callee value.Value, argc int) error {
	switch callee.Kind() {
	case value.NativeFn:
		native, _ := callee.AsObject().(*NativeFunction)
		if native.Arity >= 0 && argc != native.Arity {
			return vm.runtimeError(frame, "expected %d arguments but got %d", native.Arity, argc)
		}
		args := vm.stack[len(vm.stack)-argc:]
		result, err := native.Fn(args)
		if err != nil {
			return vm.runtimeError(frame, "%s", err)
		}
		vm.stack = vm.stack[:len(vm.stack)-argc-1]
		vm.push(result)
		return nil

	case value.Func:
		closure, _ := callee.AsObject().(*Closure)
		if argc != closure.Function.Arity {
			return vm.runtimeError(frame, "expected %d arguments but got %d", closure.Function.Arity, argc)
		}
		if len(vm.frames) >= vm.maxFrames {
			return vm.runtimeError(frame, "stack overflow")
		}
		vm.frames = append(vm.frames, CallFrame{closure: closure, base: len(vm.stack) - argc - 1})
		return nil

	default:
		return vm.runtimeError(frame, "attempt to call a non-callable value of type %s", callee.Kind())
	}
}

func (vm *VirtualMachine) captureUpvalue(slot int) *Upvalue {
	for _, uv := range vm.openUpvalues {
		if uv.Slot == slot {
			return uv
		}
	}
	uv := &Upvalue{Slot: slot}
	vm.openUpvalues = append(vm.openUpvalues, uv)
	return uv
}

// closeUpvalues closes every open upvalue referencing a stack slot at or
// above fromSlot, highest slot first, i.e. in reverse declaration order (a
// local declared later sits in a higher slot), and drops them from
// openUpvalues; the upvalues that stay open keep their order.
func (vm *VirtualMachine) closeUpvalues(fromSlot int) {
	var closing, kept []*Upvalue
	for _, uv := range vm.openUpvalues {
		if uv.Slot >= fromSlot {
			closing = append(closing, uv)
		} else {
			kept = append(kept, uv)
		}
	}
	sort.Slice(closing, func(i, j int) bool { return closing[i].Slot > closing[j].Slot })
	for _, uv := range closing {
		uv.close(vm)
	}
	vm.openUpvalues = kept
}
