package value_test

import (
	"testing"

	"github.com/mna/mint/lang/value"
	"github.com/stretchr/testify/require"
)

func TestTruth(t *testing.T) {
	require.True(t, value.IntValue(0).Truth())
	require.True(t, value.StrValue("").Truth())
	require.False(t, value.NilValue().Truth())
	require.False(t, value.BoolValue(false).Truth())
	require.True(t, value.BoolValue(true).Truth())
}

func TestPrintForms(t *testing.T) {
	require.Equal(t, "42", value.IntValue(42).String())
	require.Equal(t, "true", value.BoolValue(true).String())
	require.Equal(t, "false", value.BoolValue(false).String())
	require.Equal(t, "nil", value.NilValue().String())
	require.Equal(t, "tea", value.StrValue("tea").String())
}

func TestIntStrCoercionEquality(t *testing.T) {
	// (42 + "0") / "23" * true == 1
	sum, err := value.Add(value.IntValue(42), value.StrValue("0"))
	require.NoError(t, err)
	require.Equal(t, value.Int, sum.Kind())
	require.Equal(t, int64(42), sum.AsInt())

	div, err := value.Divide(sum, value.StrValue("23"))
	require.NoError(t, err)
	require.Equal(t, value.Int, div.Kind())
	require.Equal(t, int64(1), div.AsInt())

	mul, err := value.Multiply(div, value.BoolValue(true))
	require.NoError(t, err)
	require.True(t, value.Equal(mul, value.IntValue(1)))
}

func TestStrThatParsesAsIntComparesEqual(t *testing.T) {
	require.True(t, value.Equal(value.IntValue(7), value.StrValue("7")))
	require.True(t, value.Equal(value.StrValue("7"), value.IntValue(7)))
	require.False(t, value.Equal(value.IntValue(7), value.StrValue("seven")))
}

func TestCrossVariantEqualityOtherwiseFalse(t *testing.T) {
	require.False(t, value.Equal(value.NilValue(), value.IntValue(0)))
	require.False(t, value.Equal(value.BoolValue(false), value.StrValue("")))
}

func TestCompareOnlyDefinedOnIntCoercible(t *testing.T) {
	cmp, ok := value.Compare(value.IntValue(3), value.IntValue(5))
	require.True(t, ok)
	require.Equal(t, -1, cmp)

	_, ok = value.Compare(value.StrValue("abc"), value.IntValue(1))
	require.False(t, ok)
}

func TestConcatenationCoercesNonStrings(t *testing.T) {
	s, err := value.Add(value.StrValue("beignets with "), value.StrValue("tea"))
	require.NoError(t, err)
	require.Equal(t, "beignets with tea", s.AsStr())

	// Int + Str and Str + Int are both string concatenation (symmetric).
	a, err := value.Add(value.IntValue(1), value.StrValue("x"))
	require.NoError(t, err)
	require.Equal(t, value.Str, a.Kind())
	require.Equal(t, "1x", a.AsStr())

	b, err := value.Add(value.StrValue("x"), value.IntValue(1))
	require.NoError(t, err)
	require.Equal(t, value.Str, b.Kind())
	require.Equal(t, "x1", b.AsStr())
}

func TestDivisionTruncatesTowardZero(t *testing.T) {
	d, err := value.Divide(value.IntValue(-7), value.IntValue(2))
	require.NoError(t, err)
	require.Equal(t, int64(-3), d.AsInt())
}

func TestModuloFollowsDividendSign(t *testing.T) {
	m, err := value.Modulo(value.IntValue(-7), value.IntValue(3))
	require.NoError(t, err)
	require.Equal(t, int64(-1), m.AsInt())
}

func TestDivisionByZeroIsError(t *testing.T) {
	_, err := value.Divide(value.IntValue(1), value.IntValue(0))
	require.Error(t, err)
}

func TestBooleansParticipateInArithmeticAsZeroOne(t *testing.T) {
	sum, err := value.Add(value.BoolValue(true), value.BoolValue(true))
	require.NoError(t, err)
	require.Equal(t, int64(2), sum.AsInt())
}
