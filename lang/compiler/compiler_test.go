package compiler_test

import (
	"testing"

	"github.com/mna/mint/lang/chunk"
	"github.com/mna/mint/lang/compiler"
	"github.com/stretchr/testify/require"
)

func TestCompileSimpleProgram(t *testing.T) {
	fn, err := compiler.Compile(`print (42 + 1) / (2 * 3) - 4;`)
	require.NoError(t, err)
	require.NotNil(t, fn)
	require.Equal(t, 0, fn.Arity)
	require.NotEmpty(t, fn.Chunk.Code)
}

func TestCompileEmptyProgramProducesNoOpcodesBeyondImplicitReturn(t *testing.T) {
	fn, err := compiler.Compile(``)
	require.NoError(t, err)
	require.NotNil(t, fn)
	require.Equal(t, []byte{byte(chunk.Nil), byte(chunk.Return)}, fn.Chunk.Code)
}

func TestMissingSemicolonIsParseError(t *testing.T) {
	_, err := compiler.Compile(`print 1`)
	require.Error(t, err)
}

func TestReturnOutsideFunctionIsParseError(t *testing.T) {
	_, err := compiler.Compile(`return 1;`)
	require.Error(t, err)
}

func TestInvalidAssignmentTargetIsParseError(t *testing.T) {
	_, err := compiler.Compile(`1 = 2;`)
	require.Error(t, err)
}

func TestFloatLiteralIsRejected(t *testing.T) {
	_, err := compiler.Compile(`print 42.42;`)
	require.Error(t, err)
}

func TestPanicModeRecoversToReportMultipleErrors(t *testing.T) {
	_, err := compiler.Compile(`print 1 print 2 print 3;`)
	require.Error(t, err)
	errs, ok := err.(compiler.ParseErrors)
	require.True(t, ok)
	require.Len(t, errs, 2)
}

func TestFunctionDeclarationAndClosureCompile(t *testing.T) {
	src := `
fun outer() {
	int a = 1;
	fun inner() {
		print a;
	}
	return inner;
}
funref f = outer();
f();
`
	fn, err := compiler.Compile(src)
	require.NoError(t, err)
	require.NotNil(t, fn)
}

func TestTooManyConstantsIsCompileError(t *testing.T) {
	src := "int x = 0;\n"
	for i := 0; i < 300; i++ {
		src += "print \"c\";\n"
	}
	_, err := compiler.Compile(src)
	require.Error(t, err)
}
