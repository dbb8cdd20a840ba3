package interpreter

import (
	"fmt"

	"github.com/mna/mint/lang/value"
)

// environment is a lexical scope: a flat name table plus a link to the
// enclosing scope it nests inside. Function calls and blocks each push a
// fresh environment parented to the one active when they started.
type environment struct {
	parent *environment
	vars   map[string]value.Value
}

func newEnvironment(parent *environment) *environment {
	return &environment{parent: parent, vars: make(map[string]value.Value)}
}

func (e *environment) define(name string, v value.Value) {
	e.vars[name] = v
}

func (e *environment) get(name string) (value.Value, error) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, nil
		}
	}
	return value.Value{}, fmt.Errorf("undefined variable %q", name)
}

func (e *environment) assign(name string, v value.Value) error {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.vars[name]; ok {
			env.vars[name] = v
			return nil
		}
	}
	return fmt.Errorf("undefined variable %q", name)
}
