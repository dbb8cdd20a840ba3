package interpreter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/mint/lang/interpreter"
	"github.com/mna/mint/lang/token"
)

func TestTokenStreamQueryHeader(t *testing.T) {
	p := interpreter.NewParser(`[80s Pop]{ Genre=='Pop' and Year > 1990 and Year<=2000 }`)
	require.True(t, p.AllTokensValid())

	want := []token.Token{
		{Kind: token.OpenBracket, Lexeme: "["},
		{Kind: token.Number, Lexeme: "80"},
		{Kind: token.Identifier, Lexeme: "s"},
		{Kind: token.Identifier, Lexeme: "Pop"},
		{Kind: token.CloseBracket, Lexeme: "]"},
		{Kind: token.OpenBrace, Lexeme: "{"},
		{Kind: token.Identifier, Lexeme: "Genre"},
		{Kind: token.IsEqual, Lexeme: "=="},
		{Kind: token.String, Lexeme: "Pop"},
		{Kind: token.And, Lexeme: "and"},
		{Kind: token.Identifier, Lexeme: "Year"},
		{Kind: token.GreaterThan, Lexeme: ">"},
		{Kind: token.Number, Lexeme: "1990"},
		{Kind: token.And, Lexeme: "and"},
		{Kind: token.Identifier, Lexeme: "Year"},
		{Kind: token.LessThanEqual, Lexeme: "<="},
		{Kind: token.Number, Lexeme: "2000"},
		{Kind: token.CloseBrace, Lexeme: "}"},
	}
	for i, w := range want {
		got := p.GetToken(i)
		assert.Equal(t, w.Kind, got.Kind, "token %d kind", i)
		assert.Equal(t, w.Lexeme, got.Lexeme, "token %d lexeme", i)
	}
}

func TestKeywordPrefixDoesNotMisclassifyIdentifiers(t *testing.T) {
	p := interpreter.NewParser("orchid == nottingham")
	require.True(t, p.AllTokensValid())
	assert.Equal(t, token.Identifier, p.GetToken(0).Kind)
	assert.Equal(t, "orchid", p.GetToken(0).Lexeme)
	assert.Equal(t, token.IsEqual, p.GetToken(1).Kind)
	assert.Equal(t, token.Identifier, p.GetToken(2).Kind)
	assert.Equal(t, "nottingham", p.GetToken(2).Lexeme)

	p = interpreter.NewParser("facts0_ == true")
	require.True(t, p.AllTokensValid())
	assert.Equal(t, token.Identifier, p.GetToken(0).Kind)
	assert.Equal(t, "facts0_", p.GetToken(0).Lexeme)
	assert.Equal(t, token.True, p.GetToken(2).Kind)
}

func TestParseExprPrecedence(t *testing.T) {
	p := interpreter.NewParser("1 + 2 * 3")
	require.True(t, p.AllTokensValid())
	expr, err := p.ParseExpr()
	require.NoError(t, err)

	v, err := interpreter.New().Evaluate(expr)
	require.NoError(t, err)
	assert.Equal(t, "7", v.String())
}

func TestParseExprGroupingIsTransparent(t *testing.T) {
	p := interpreter.NewParser("(42 + 1) / (2 * 3)")
	expr, err := p.ParseExpr()
	require.NoError(t, err)

	v, err := interpreter.New().Evaluate(expr)
	require.NoError(t, err)
	assert.Equal(t, "7", v.String())
}

func TestParseExprStringConcatenation(t *testing.T) {
	p := interpreter.NewParser(`"id" + "42"`)
	expr, err := p.ParseExpr()
	require.NoError(t, err)

	v, err := interpreter.New().Evaluate(expr)
	require.NoError(t, err)
	assert.Equal(t, "id42", v.String())
}

func TestParseExprIntStrCoercion(t *testing.T) {
	p := interpreter.NewParser(`(42 + "0") / "23" * true`)
	expr, err := p.ParseExpr()
	require.NoError(t, err)

	v, err := interpreter.New().Evaluate(expr)
	require.NoError(t, err)
	assert.Equal(t, "1", v.String())
}

func TestParseUnbalancedParensIsAnError(t *testing.T) {
	p := interpreter.NewParser("(")
	_, err := p.ParseExpr()
	require.Error(t, err)

	p = interpreter.NewParser(")")
	_, err = p.ParseExpr()
	require.Error(t, err)
}

func TestParseQueryHeaderWithParams(t *testing.T) {
	p := interpreter.NewParser(`[By Composer](str composer){ Composer == composer }`)
	require.True(t, p.AllTokensValid())
	_, err := p.ParseProgram()
	require.NoError(t, err)
}
