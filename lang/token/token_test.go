package token_test

import (
	"testing"

	"github.com/mna/mint/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "+", token.Plus.String())
	assert.Equal(t, "identifier", token.Identifier.String())
	assert.Equal(t, "'+'", token.Plus.GoString())
	assert.Equal(t, "identifier", token.Identifier.GoString())
}

func TestKeywordsDoNotMisclassifyPrefixedIdentifiers(t *testing.T) {
	for _, name := range []string{"orchid", "nottingham", "facts0_", "ifs", "fortune"} {
		_, ok := token.Keywords[name]
		assert.False(t, ok, "%s should not be a keyword", name)
	}
	for kw, kind := range token.Keywords {
		assert.NotEqual(t, token.Identifier, kind, "keyword %s", kw)
	}
}

func TestTokenString(t *testing.T) {
	tok := token.Token{Kind: token.Number, Lexeme: "42", Line: 3}
	require.Equal(t, "42", tok.String())

	tok2 := token.Token{Kind: token.Eof, Line: 1}
	require.Equal(t, "end of file", tok2.String())
}

func TestErrorList(t *testing.T) {
	var errs token.ErrorList
	errs.Add(token.NewError(1, "unterminated string").Pos, "unterminated string")
	errs.Add(token.NewError(2, "invalid character '@'").Pos, "invalid character '@'")
	require.Len(t, errs, 2)
	require.Error(t, errs.Err())
}
