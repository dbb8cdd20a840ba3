// Package value implements the runtime value representation shared by the
// bytecode virtual machine and the tree-walking interpreter.
//
// Value is a tagged union, not an interface hierarchy: equality and
// printing are exhaustive switches over Kind rather than dynamic dispatch,
// per the language's own design notes on avoiding runtime class hierarchies
// for a small closed set of variants.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int8

const (
	Nil Kind = iota
	Int
	Bool
	Str
	Func
	NativeFn
)

func (k Kind) String() string {
	switch k {
	case Nil:
		return "nil"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Str:
		return "str"
	case Func:
		return "funref"
	case NativeFn:
		return "funref"
	default:
		return "invalid"
	}
}

// Object is implemented by heap-allocated values referenced from a Value:
// compiled functions and closures (package chunk/vm) and native functions
// (package vm). Routing them through this interface lets value.Value hold a
// handle to them without value importing chunk or vm, which would otherwise
// cycle back to value.
type Object interface {
	// String returns the value's print form, e.g. "<fn NAME>".
	String() string
	// ObjectKind reports which Value Kind this object backs (Func or
	// NativeFn).
	ObjectKind() Kind
}

// Value is a mint runtime value: exactly one of Nil, an Int, a Bool, a Str,
// or an Object handle (Func/NativeFn).
type Value struct {
	kind Kind
	num  int64  // Int (as int64) and Bool (0/1)
	str  string // Str
	obj  Object // Func, NativeFn
}

func NilValue() Value           { return Value{kind: Nil} }
func IntValue(n int64) Value    { return Value{kind: Int, num: n} }
func BoolValue(b bool) Value    { return Value{kind: Bool, num: boolToInt(b)} }
func StrValue(s string) Value   { return Value{kind: Str, str: s} }
func ObjectValue(o Object) Value { return Value{kind: o.ObjectKind(), obj: o} }

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) Kind() Kind { return v.kind }

// AsInt returns the Int payload; only valid when Kind() == Int.
func (v Value) AsInt() int64 { return v.num }

// AsBool returns the Bool payload; only valid when Kind() == Bool.
func (v Value) AsBool() bool { return v.num != 0 }

// AsStr returns the Str payload; only valid when Kind() == Str.
func (v Value) AsStr() string { return v.str }

// AsObject returns the Object payload; only valid when Kind() is Func or
// NativeFn.
func (v Value) AsObject() Object { return v.obj }

// Truth implements guest truthiness: only Bool(false) and Nil are falsy.
func (v Value) Truth() bool {
	switch v.kind {
	case Nil:
		return false
	case Bool:
		return v.num != 0
	default:
		return true
	}
}

// String returns the canonical print form of v: decimal for Int, "true"/
// "false" for Bool, raw bytes for Str, the object's own form for Func/
// NativeFn, and "nil" for Nil.
func (v Value) String() string {
	switch v.kind {
	case Nil:
		return "nil"
	case Int:
		return strconv.FormatInt(v.num, 10)
	case Bool:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case Str:
		return v.str
	case Func, NativeFn:
		return v.obj.String()
	default:
		return "<invalid value>"
	}
}

// asInt coerces v to an int64 per the language's Int/Str/Bool coercion
// rules: Int passes through, Bool is 1/0, Str coerces only if it parses as a
// base-10 integer. ok is false when no coercion applies.
func asInt(v Value) (n int64, ok bool) {
	switch v.kind {
	case Int:
		return v.num, true
	case Bool:
		return v.num, true
	case Str:
		n, err := strconv.ParseInt(strings.TrimSpace(v.str), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Equal implements ==: same-variant structural equality, plus the Int/Str
// coercion where a string that parses as an integer compares equal to that
// integer (and symmetrically).
func Equal(a, b Value) bool {
	if a.kind == b.kind {
		switch a.kind {
		case Nil:
			return true
		case Int, Bool:
			return a.num == b.num
		case Str:
			return a.str == b.str
		case Func, NativeFn:
			return a.obj == b.obj
		}
	}
	if (a.kind == Int && b.kind == Str) || (a.kind == Str && b.kind == Int) {
		an, aok := asInt(a)
		bn, bok := asInt(b)
		return aok && bok && an == bn
	}
	return false
}

// Compare implements <, >, <=, >= by returning -1, 0, or 1. It is defined
// only where both sides coerce to Int (Int, Bool, or a Str that parses as an
// integer); ok is false otherwise.
func Compare(a, b Value) (cmp int, ok bool) {
	an, aok := asInt(a)
	bn, bok := asInt(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case an < bn:
		return -1, true
	case an > bn:
		return 1, true
	default:
		return 0, true
	}
}

// Add implements +. Int-coercion is tried first, so a Str that parses as an
// integer (e.g. "0") is added numerically rather than triggering
// concatenation. Only when at least one operand is a Str that fails
// int-coercion does the result fall back to concatenating the printed form
// of both operands.
func Add(a, b Value) (Value, error) {
	an, aok := asInt(a)
	bn, bok := asInt(b)
	if aok && bok {
		return IntValue(an + bn), nil
	}
	if a.kind == Str || b.kind == Str {
		return StrValue(a.String() + b.String()), nil
	}
	return Value{}, fmt.Errorf("cannot add %s and %s", a.kind, b.kind)
}

func arith(op string, a, b Value, f func(x, y int64) (int64, error)) (Value, error) {
	an, aok := asInt(a)
	bn, bok := asInt(b)
	if !aok || !bok {
		return Value{}, fmt.Errorf("cannot %s %s and %s", op, a.kind, b.kind)
	}
	n, err := f(an, bn)
	if err != nil {
		return Value{}, err
	}
	return IntValue(n), nil
}

// Subtract implements binary -.
func Subtract(a, b Value) (Value, error) {
	return arith("subtract", a, b, func(x, y int64) (int64, error) { return x - y, nil })
}

// Multiply implements *.
func Multiply(a, b Value) (Value, error) {
	return arith("multiply", a, b, func(x, y int64) (int64, error) { return x * y, nil })
}

// Divide implements / as truncating-toward-zero integer division.
func Divide(a, b Value) (Value, error) {
	return arith("divide", a, b, func(x, y int64) (int64, error) {
		if y == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return x / y, nil
	})
}

// Modulo implements % following the sign of the dividend (Go's native %
// already does this for int64).
func Modulo(a, b Value) (Value, error) {
	return arith("take the modulo of", a, b, func(x, y int64) (int64, error) {
		if y == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return x % y, nil
	})
}

// Negate implements unary -.
func Negate(a Value) (Value, error) {
	n, ok := asInt(a)
	if !ok {
		return Value{}, fmt.Errorf("cannot negate %s", a.kind)
	}
	return IntValue(-n), nil
}

// Not implements unary logical !, defined over every Value via Truth.
func Not(a Value) Value {
	return BoolValue(!a.Truth())
}
