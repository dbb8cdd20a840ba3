package interpreter

import (
	"fmt"
	"strings"
	"time"

	"github.com/mna/mint/lang/ast"
	"github.com/mna/mint/lang/token"
	"github.com/mna/mint/lang/value"
)

// function is the tree-walking path's callable value: a FunDecl closed
// over the environment active at the point of declaration, letting nested
// functions see their enclosing locals the same way package vm's Closure
// captures upvalues.
type function struct {
	decl *ast.FunDecl
	env  *environment
}

func (f *function) ObjectKind() value.Kind { return value.Func }
func (f *function) String() string         { return fmt.Sprintf("<fn %s>", f.decl.Name.Lexeme) }

type native struct {
	name  string
	arity int
	fn    func(args []value.Value) (value.Value, error)
}

func (n *native) ObjectKind() value.Kind { return value.NativeFn }
func (n *native) String() string         { return fmt.Sprintf("<native %s>", n.name) }

// returnSignal is not an error a caller should surface: it unwinds
// execStmt/execBlock back to the call site that's waiting for it, carrying
// the returned Value.
type returnSignal struct{ value value.Value }

func (r *returnSignal) Error() string { return "return outside of call" }

// Interpreter is the secondary, tree-walking evaluator: it shares Value
// and the token/lexer front end with the bytecode path but executes an
// ast tree directly instead of compiling to Chunk bytecode.
type Interpreter struct {
	globals *environment
	env     *environment
	output  strings.Builder
}

// New returns an Interpreter with the default natives (clock, square)
// registered, mirroring package vm's registry.
func New() *Interpreter {
	it := &Interpreter{globals: newEnvironment(nil)}
	it.env = it.globals
	it.globals.define("clock", value.ObjectValue(&native{
		name: "clock", arity: 0,
		fn: func(args []value.Value) (value.Value, error) {
			return value.IntValue(time.Now().UnixNano()), nil
		},
	}))
	it.globals.define("square", value.ObjectValue(&native{
		name: "square", arity: 1,
		fn: func(args []value.Value) (value.Value, error) {
			if args[0].Kind() != value.Int {
				return value.Value{}, fmt.Errorf("square expects an int argument")
			}
			n := args[0].AsInt()
			return value.IntValue(n * n), nil
		},
	}))
	return it
}

// GetOutput returns the accumulated print buffer, trailing newline removed.
func (it *Interpreter) GetOutput() string {
	return strings.TrimSuffix(it.output.String(), "\n")
}

// Execute runs a top-level statement list (the GetStatements surface),
// e.g. a whole parsed program including its function declarations.
func (it *Interpreter) Execute(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := it.exec(s); err != nil {
			if _, ok := err.(*returnSignal); ok {
				return &RuntimeError{Line: s.Line(), Msg: "cannot return from top-level code"}
			}
			return err
		}
	}
	return nil
}

// Evaluate evaluates a single expression (the GetAST/expression-evaluation
// test harness surface) against the interpreter's global environment.
func (it *Interpreter) Evaluate(e ast.Expr) (value.Value, error) {
	return it.eval(e)
}

func (it *Interpreter) exec(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.ExprStmt:
		_, err := it.eval(s.Expr)
		return err

	case *ast.PrintStmt:
		v, err := it.eval(s.Expr)
		if err != nil {
			return err
		}
		it.output.WriteString(v.String())
		it.output.WriteByte('\n')
		return nil

	case *ast.VarDecl:
		var v value.Value
		if s.Value != nil {
			var err error
			v, err = it.eval(s.Value)
			if err != nil {
				return err
			}
		}
		it.env.define(s.Name.Lexeme, v)
		return nil

	case *ast.Block:
		return it.execBlock(s.Stmts, newEnvironment(it.env))

	case *ast.If:
		cond, err := it.eval(s.Cond)
		if err != nil {
			return err
		}
		if cond.Truth() {
			return it.exec(s.Then)
		}
		if s.Else != nil {
			return it.exec(s.Else)
		}
		return nil

	case *ast.While:
		for {
			cond, err := it.eval(s.Cond)
			if err != nil {
				return err
			}
			if !cond.Truth() {
				return nil
			}
			if err := it.exec(s.Body); err != nil {
				return err
			}
		}

	case *ast.For:
		outer := it.env
		it.env = newEnvironment(outer)
		defer func() { it.env = outer }()

		if s.Init != nil {
			if err := it.exec(s.Init); err != nil {
				return err
			}
		}
		for {
			if s.Cond != nil {
				cond, err := it.eval(s.Cond)
				if err != nil {
					return err
				}
				if !cond.Truth() {
					return nil
				}
			}
			if err := it.exec(s.Body); err != nil {
				return err
			}
			if s.Step != nil {
				if _, err := it.eval(s.Step); err != nil {
					return err
				}
			}
		}

	case *ast.Return:
		var v value.Value
		if s.Value != nil {
			var err error
			v, err = it.eval(s.Value)
			if err != nil {
				return err
			}
		}
		return &returnSignal{value: v}

	case *ast.FunDecl:
		it.env.define(s.Name.Lexeme, value.ObjectValue(&function{decl: s, env: it.env}))
		return nil

	case *ast.QueryHeader:
		// Parse-only surface; no binding semantics are specified.
		return nil

	default:
		return fmt.Errorf("unsupported statement %T", s)
	}
}

func (it *Interpreter) execBlock(stmts []ast.Stmt, env *environment) error {
	outer := it.env
	it.env = env
	defer func() { it.env = outer }()

	for _, s := range stmts {
		if err := it.exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) eval(e ast.Expr) (value.Value, error) {
	switch e := e.(type) {
	case *ast.Literal:
		return it.literal(e)

	case *ast.Variable:
		v, err := it.env.get(e.Name.Lexeme)
		if err != nil {
			return value.Value{}, &RuntimeError{Line: e.Name.Line, Msg: err.Error()}
		}
		return v, nil

	case *ast.Assign:
		v, err := it.eval(e.Value)
		if err != nil {
			return value.Value{}, err
		}
		if err := it.env.assign(e.Name.Lexeme, v); err != nil {
			return value.Value{}, &RuntimeError{Line: e.Name.Line, Msg: err.Error()}
		}
		return v, nil

	case *ast.Unary:
		operand, err := it.eval(e.Operand)
		if err != nil {
			return value.Value{}, err
		}
		switch e.Op.Kind {
		case token.Minus:
			v, err := value.Negate(operand)
			if err != nil {
				return value.Value{}, &RuntimeError{Line: e.Op.Line, Msg: err.Error()}
			}
			return v, nil
		case token.Not:
			return value.Not(operand), nil
		}
		return value.Value{}, &RuntimeError{Line: e.Op.Line, Msg: "invalid unary operator"}

	case *ast.Binary:
		return it.binary(e)

	case *ast.Logical:
		left, err := it.eval(e.Left)
		if err != nil {
			return value.Value{}, err
		}
		if e.Op.Kind == token.Or {
			if left.Truth() {
				return left, nil
			}
		} else if !left.Truth() {
			return left, nil
		}
		return it.eval(e.Right)

	case *ast.Call:
		return it.call(e)

	default:
		return value.Value{}, fmt.Errorf("unsupported expression %T", e)
	}
}

func (it *Interpreter) literal(e *ast.Literal) (value.Value, error) {
	switch e.Tok.Kind {
	case token.Number:
		if strings.Contains(e.Tok.Lexeme, ".") {
			return value.Value{}, &RuntimeError{Line: e.Tok.Line, Msg: "floating-point literals are not supported"}
		}
		var n int64
		if _, err := fmt.Sscanf(e.Tok.Lexeme, "%d", &n); err != nil {
			return value.Value{}, &RuntimeError{Line: e.Tok.Line, Msg: "invalid number literal"}
		}
		return value.IntValue(n), nil
	case token.String:
		return value.StrValue(e.Tok.Lexeme), nil
	case token.True:
		return value.BoolValue(true), nil
	case token.False:
		return value.BoolValue(false), nil
	default:
		return value.Value{}, &RuntimeError{Line: e.Tok.Line, Msg: "invalid literal"}
	}
}

func (it *Interpreter) binary(e *ast.Binary) (value.Value, error) {
	left, err := it.eval(e.Left)
	if err != nil {
		return value.Value{}, err
	}
	right, err := it.eval(e.Right)
	if err != nil {
		return value.Value{}, err
	}

	var res value.Value
	switch e.Op.Kind {
	case token.Plus:
		res, err = value.Add(left, right)
	case token.Minus:
		res, err = value.Subtract(left, right)
	case token.Multiply:
		res, err = value.Multiply(left, right)
	case token.Divide:
		res, err = value.Divide(left, right)
	case token.Modulo:
		res, err = value.Modulo(left, right)
	case token.IsEqual:
		return value.BoolValue(value.Equal(left, right)), nil
	case token.NotEqual:
		return value.BoolValue(!value.Equal(left, right)), nil
	case token.GreaterThan, token.LessThan, token.GreaterThanEqual, token.LessThanEqual:
		cmp, ok := value.Compare(left, right)
		if !ok {
			return value.Value{}, &RuntimeError{Line: e.Op.Line, Msg: fmt.Sprintf("cannot compare %s and %s", left.Kind(), right.Kind())}
		}
		switch e.Op.Kind {
		case token.GreaterThan:
			return value.BoolValue(cmp > 0), nil
		case token.LessThan:
			return value.BoolValue(cmp < 0), nil
		case token.GreaterThanEqual:
			return value.BoolValue(cmp >= 0), nil
		default:
			return value.BoolValue(cmp <= 0), nil
		}
	default:
		return value.Value{}, &RuntimeError{Line: e.Op.Line, Msg: "invalid binary operator"}
	}
	if err != nil {
		return value.Value{}, &RuntimeError{Line: e.Op.Line, Msg: err.Error()}
	}
	return res, nil
}

func (it *Interpreter) call(e *ast.Call) (value.Value, error) {
	callee, err := it.env.get(e.Callee.Lexeme)
	if err != nil {
		return value.Value{}, &RuntimeError{Line: e.Paren.Line, Msg: err.Error()}
	}

	args := make([]value.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := it.eval(a)
		if err != nil {
			return value.Value{}, err
		}
		args[i] = v
	}

	switch callee.Kind() {
	case value.NativeFn:
		n := callee.AsObject().(*native)
		if len(args) != n.arity {
			return value.Value{}, &RuntimeError{Line: e.Paren.Line, Msg: fmt.Sprintf("expected %d arguments but got %d", n.arity, len(args))}
		}
		v, err := n.fn(args)
		if err != nil {
			return value.Value{}, &RuntimeError{Line: e.Paren.Line, Msg: err.Error()}
		}
		return v, nil

	case value.Func:
		fn := callee.AsObject().(*function)
		if len(args) != len(fn.decl.Params) {
			return value.Value{}, &RuntimeError{Line: e.Paren.Line, Msg: fmt.Sprintf("expected %d arguments but got %d", len(fn.decl.Params), len(args))}
		}
		callEnv := newEnvironment(fn.env)
		for i, param := range fn.decl.Params {
			callEnv.define(param.Name.Lexeme, args[i])
		}

		outer := it.env
		it.env = callEnv
		err := it.execStmts(fn.decl.Body.Stmts)
		it.env = outer

		if rs, ok := err.(*returnSignal); ok {
			return rs.value, nil
		}
		if err != nil {
			return value.Value{}, err
		}
		return value.NilValue(), nil

	default:
		return value.Value{}, &RuntimeError{Line: e.Paren.Line, Msg: fmt.Sprintf("attempt to call a non-callable value of type %s", callee.Kind())}
	}
}

func (it *Interpreter) execStmts(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := it.exec(s); err != nil {
			return err
		}
	}
	return nil
}
