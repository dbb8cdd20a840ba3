// Package chunk defines the bytecode container emitted by the compiler and
// executed by the virtual machine: a flat byte buffer, a run-length-encoded
// line table, and a constant pool.
package chunk

import (
	"fmt"

	"github.com/mna/mint/lang/value"
)

// OpCode identifies a single bytecode instruction. Operand widths are fixed
// per opcode (documented alongside each constant) rather than varint-
// encoded, since the compiler emits directly in one pass with no separate
// CFG-linearization step.
type OpCode byte

const (
	// Constant(u8): push Constants[operand].
	Constant OpCode = iota
	// Nil: push Nil.
	Nil
	// True: push Bool(true).
	True
	// False: push Bool(false).
	False
	// Pop: discard the top of stack.
	Pop
	// GetLocal(u8): push the value at frame slot operand.
	GetLocal
	// SetLocal(u8): store the top of stack into frame slot operand, leaving
	// it on the stack.
	SetLocal
	// GetGlobal(u8): push the value of global Constants[operand] (a Str).
	GetGlobal
	// SetGlobal(u8): store the top of stack into global Constants[operand].
	SetGlobal
	// DefineGlobal(u8): pop the top of stack into a newly defined global
	// named Constants[operand].
	DefineGlobal
	// GetUpvalue(u8): push the value of the current closure's upvalue cell
	// operand.
	GetUpvalue
	// SetUpvalue(u8): store the top of stack into upvalue cell operand.
	SetUpvalue
	// Equal: pop b, a; push Bool(a == b).
	Equal
	// NotEqual: pop b, a; push Bool(a != b).
	NotEqual
	// Greater: pop b, a; push Bool(a > b).
	Greater
	// Less: pop b, a; push Bool(a < b).
	Less
	// Add: pop b, a; push a + b.
	Add
	// Subtract: pop b, a; push a - b.
	Subtract
	// Multiply: pop b, a; push a * b.
	Multiply
	// Divide: pop b, a; push a / b.
	Divide
	// Modulo: pop b, a; push a % b.
	Modulo
	// Not: pop a; push Bool(!truth(a)).
	Not
	// Negate: pop a; push -a.
	Negate
	// Print: pop a; append its print form plus a newline to the output
	// buffer.
	Print
	// Jump(u16): unconditionally advance ip by the two-byte operand.
	Jump
	// JumpIfFalse(u16): peek (does not pop) the top of stack; if falsy,
	// advance ip by the two-byte operand.
	JumpIfFalse
	// Loop(u16): unconditionally rewind ip by the two-byte operand.
	Loop
	// Call(u8): call the callable sitting operand slots below the top of
	// stack, passing the operand topmost values as arguments.
	Call
	// Closure(u8): read CompiledFunction Constants[operand], then its
	// UpvalueDesc list, capturing each upvalue; push the resulting Closure.
	Closure
	// CloseUpvalue: close every open upvalue at or above the current top of
	// stack, then pop.
	CloseUpvalue
	// Return: pop the return value, close upvalues at or above the current
	// frame base, pop the frame.
	Return

	maxOpCode
)

var opCodeNames = [...]string{
	Constant:     "Constant",
	Nil:          "Nil",
	True:         "True",
	False:        "False",
	Pop:          "Pop",
	GetLocal:     "GetLocal",
	SetLocal:     "SetLocal",
	GetGlobal:    "GetGlobal",
	SetGlobal:    "SetGlobal",
	DefineGlobal: "DefineGlobal",
	GetUpvalue:   "GetUpvalue",
	SetUpvalue:   "SetUpvalue",
	Equal:        "Equal",
	NotEqual:     "NotEqual",
	Greater:      "Greater",
	Less:         "Less",
	Add:          "Add",
	Subtract:     "Subtract",
	Multiply:     "Multiply",
	Divide:       "Divide",
	Modulo:       "Modulo",
	Not:          "Not",
	Negate:       "Negate",
	Print:        "Print",
	Jump:         "Jump",
	JumpIfFalse:  "JumpIfFalse",
	Loop:         "Loop",
	Call:         "Call",
	Closure:      "Closure",
	CloseUpvalue: "CloseUpvalue",
	Return:       "Return",
}

func (op OpCode) String() string {
	if int(op) < len(opCodeNames) {
		return opCodeNames[op]
	}
	return fmt.Sprintf("OpCode(%d)", byte(op))
}

// MaxConstants is the largest number of constants a single Chunk can hold;
// constants are addressed by a one-byte index.
const MaxConstants = 256

// lineRun is one run of consecutive instruction bytes sharing a source line,
// for the parallel run-length-encoded line table.
type lineRun struct {
	line  int
	count int
}

// Chunk is an append-only bytecode buffer: instruction bytes, a parallel
// line-number table (RLE-compressed), and a constant pool.
type Chunk struct {
	Code      []byte
	Constants []value.Value
	lines     []lineRun
}

// New returns an empty Chunk.
func New() *Chunk {
	return &Chunk{}
}

// Write appends one instruction byte attributed to the given source line.
func (c *Chunk) Write(b byte, line int) int {
	c.Code = append(c.Code, b)
	if n := len(c.lines); n > 0 && c.lines[n-1].line == line {
		c.lines[n-1].count++
	} else {
		c.lines = append(c.lines, lineRun{line: line, count: 1})
	}
	return len(c.Code) - 1
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op OpCode, line int) int {
	return c.Write(byte(op), line)
}

// WriteUint16 appends a two-byte big-endian operand (used for jump offsets).
func (c *Chunk) WriteUint16(v uint16, line int) int {
	start := c.Write(byte(v>>8), line)
	c.Write(byte(v), line)
	return start
}

// PatchUint16 overwrites the two-byte operand at offset, used to back-patch
// a jump once its target address is known.
func (c *Chunk) PatchUint16(offset int, v uint16) {
	c.Code[offset] = byte(v >> 8)
	c.Code[offset+1] = byte(v)
}

// Line returns the source line attributed to the instruction byte at
// offset.
func (c *Chunk) Line(offset int) int {
	remaining := offset
	for _, run := range c.lines {
		if remaining < run.count {
			return run.line
		}
		remaining -= run.count
	}
	if len(c.lines) > 0 {
		return c.lines[len(c.lines)-1].line
	}
	return 0
}

// AddConstant appends v to the constant pool and returns its index. It is
// the caller's responsibility to reject a pool that would overflow
// MaxConstants (a compile error per the language spec, reported with source
// position by the compiler).
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// UpvalueDesc describes how a Closure instruction should capture one
// upvalue slot: either directly from the enclosing frame's local (IsLocal)
// or from the enclosing closure's own upvalue list.
type UpvalueDesc struct {
	IsLocal bool
	Index   byte
}

// CompiledFunction is a function's static, immutable description: its
// arity, optional name, bytecode Chunk, upvalue descriptors, and declared
// local count. A Closure (package vm) binds one of these to its captured
// upvalue cells at runtime.
type CompiledFunction struct {
	Name      string
	Arity     int
	Chunk     *Chunk
	Upvalues  []UpvalueDesc
	NumLocals int
}

// ObjectKind implements value.Object.
func (f *CompiledFunction) ObjectKind() value.Kind { return value.Func }

// String implements value.Object: the canonical print form of a bare
// compiled function (a Closure wrapping it prints the same way).
func (f *CompiledFunction) String() string {
	if f.Name == "" {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name)
}
