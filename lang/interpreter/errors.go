package interpreter

import "fmt"

// RuntimeError is returned when tree-walking evaluation fails: incompatible
// types, division by zero, an undefined variable, or calling a
// non-callable value. Mirrors vm.RuntimeError's shape since both paths
// share the same error taxonomy (spec-level "kind + message + line").
type RuntimeError struct {
	Line int
	Msg  string
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d: %s", e.Line, e.Msg)
	}
	return e.Msg
}
