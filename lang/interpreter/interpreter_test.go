package interpreter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/mint/lang/interpreter"
)

func evalSrc(t *testing.T, src string) (string, error) {
	t.Helper()
	p := interpreter.NewParser(src)
	expr, err := p.ParseExpr()
	require.NoError(t, err)
	v, err := interpreter.New().Evaluate(expr)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func TestEvaluateSimpleSum(t *testing.T) {
	got, err := evalSrc(t, "1 + 2 * 3")
	require.NoError(t, err)
	assert.Equal(t, "7", got)
}

func TestEvaluateGroupedDivision(t *testing.T) {
	got, err := evalSrc(t, "(42 + 1) / (2 * 3)")
	require.NoError(t, err)
	assert.Equal(t, "7", got)
}

func TestEvaluateStringConcatenation(t *testing.T) {
	got, err := evalSrc(t, `"id" + "42"`)
	require.NoError(t, err)
	assert.Equal(t, "id42", got)
}

func TestEvaluateIntStrBoolCoercionChain(t *testing.T) {
	got, err := evalSrc(t, `(42 + "0") / "23" * true`)
	require.NoError(t, err)
	assert.Equal(t, "1", got)
}

func TestExecuteFibonacciProgram(t *testing.T) {
	src := `
	fun fib(int n) {
		if (n < 2) { return n; }
		return fib(n - 1) + fib(n - 2);
	}
	for (int i = 0; i < 10; i = i + 1) {
		print fib(i);
	}
	`
	p := interpreter.NewParser(src)
	stmts, err := p.ParseProgram()
	require.NoError(t, err)

	it := interpreter.New()
	require.NoError(t, it.Execute(stmts))

	want := "0\n1\n1\n2\n3\n5\n8\n13\n21\n34"
	assert.Equal(t, want, it.GetOutput())
}

func TestExecuteRecursiveExponent(t *testing.T) {
	src := `
	fun exp(int base, int n) {
		if (n == 0) { return 1; }
		return base * exp(base, n - 1);
	}
	print exp(2, 0);
	print exp(2, 5);
	`
	p := interpreter.NewParser(src)
	stmts, err := p.ParseProgram()
	require.NoError(t, err)

	it := interpreter.New()
	require.NoError(t, it.Execute(stmts))
	assert.Equal(t, "1\n32", it.GetOutput())
}

func TestExecuteClosureCapturesEnclosingLocal(t *testing.T) {
	src := `
	fun makeAdder(int n) {
		fun adder(int x) {
			return x + n;
		}
		return adder;
	}
	funref add5 = makeAdder(5);
	print add5(10);
	`
	p := interpreter.NewParser(src)
	stmts, err := p.ParseProgram()
	require.NoError(t, err)

	it := interpreter.New()
	require.NoError(t, it.Execute(stmts))
	assert.Equal(t, "15", it.GetOutput())
}

func TestExecuteReturnAtTopLevelIsAnError(t *testing.T) {
	p := interpreter.NewParser("return 1;")
	stmts, err := p.ParseProgram()
	require.NoError(t, err)

	it := interpreter.New()
	err = it.Execute(stmts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot return from top-level code")
}

func TestExecuteCallingNonCallableIsAnError(t *testing.T) {
	p := interpreter.NewParser(`
	int x = 1;
	x();
	`)
	stmts, err := p.ParseProgram()
	require.NoError(t, err)

	it := interpreter.New()
	err = it.Execute(stmts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-callable")
}

func TestExecuteArityMismatchIsAnError(t *testing.T) {
	p := interpreter.NewParser(`
	fun f(int a) { return a; }
	f(1, 2);
	`)
	stmts, err := p.ParseProgram()
	require.NoError(t, err)

	it := interpreter.New()
	err = it.Execute(stmts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1 arguments but got 2")
}

func TestExecuteUndefinedVariableIsAnError(t *testing.T) {
	p := interpreter.NewParser("print missing;")
	stmts, err := p.ParseProgram()
	require.NoError(t, err)

	it := interpreter.New()
	err = it.Execute(stmts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined variable")
}

func TestExecuteNativeSquare(t *testing.T) {
	p := interpreter.NewParser("print square(7);")
	stmts, err := p.ParseProgram()
	require.NoError(t, err)

	it := interpreter.New()
	require.NoError(t, it.Execute(stmts))
	assert.Equal(t, "49", it.GetOutput())
}

func TestExecuteQueryHeaderIsParsedButInert(t *testing.T) {
	p := interpreter.NewParser(`[Dinner]{ return 1 != 2; }`)
	stmts, err := p.ParseProgram()
	require.NoError(t, err)

	it := interpreter.New()
	require.NoError(t, it.Execute(stmts))
	assert.Equal(t, "", it.GetOutput())
}
