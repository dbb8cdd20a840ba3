package lexer_test

import (
	"testing"

	"github.com/mna/mint/lang/lexer"
	"github.com/mna/mint/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	l := lexer.New(src)
	var toks []token.Token
	for {
		tok := l.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.Eof {
			break
		}
	}
	return toks
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll(t, "( ) { } [ ] , . ; + - * / % ! = == != < > <= >=")
	want := []token.Kind{
		token.OpenParen, token.CloseParen, token.OpenBrace, token.CloseBrace,
		token.OpenBracket, token.CloseBracket, token.Comma, token.Dot,
		token.Semicolon, token.Plus, token.Minus, token.Multiply, token.Divide,
		token.Modulo, token.Not, token.Assign, token.IsEqual, token.NotEqual,
		token.LessThan, token.GreaterThan, token.LessThanEqual, token.GreaterThanEqual,
		token.Eof,
	}
	require.Len(t, toks, len(want))
	for i, k := range want {
		require.Equalf(t, k, toks[i].Kind, "token %d", i)
	}
}

func TestKeywordsNotConfusedWithIdentifiers(t *testing.T) {
	toks := scanAll(t, "orchid nottingham facts0_ fun if")
	require.Equal(t, token.Identifier, toks[0].Kind)
	require.Equal(t, token.Identifier, toks[1].Kind)
	require.Equal(t, token.Identifier, toks[2].Kind)
	require.Equal(t, token.Fun, toks[3].Kind)
	require.Equal(t, token.If, toks[4].Kind)
}

func TestStringLiteralsBothQuoteKinds(t *testing.T) {
	toks := scanAll(t, `'foo' "bar"`)
	require.Equal(t, token.String, toks[0].Kind)
	require.Equal(t, "foo", toks[0].Lexeme)
	require.Equal(t, token.String, toks[1].Kind)
	require.Equal(t, "bar", toks[1].Lexeme)
}

func TestUnterminatedStringIsInvalidButLexingContinues(t *testing.T) {
	l := lexer.New("'oops\nprint 1;")
	first := l.Scan()
	require.Equal(t, token.Invalid, first.Kind)
	require.False(t, l.AllTokensValid())

	second := l.Scan()
	require.Equal(t, token.Print, second.Kind)
}

func TestLineCounting(t *testing.T) {
	toks := scanAll(t, "int a = 1;\nint b = 2;\nprint a;")
	require.Equal(t, 1, toks[0].Line)
	// "print" is token 10 (0-indexed), on line 3.
	var printTok token.Token
	for _, tok := range toks {
		if tok.Kind == token.Print {
			printTok = tok
		}
	}
	require.Equal(t, 3, printTok.Line)
}

func TestLineCommentsSkipped(t *testing.T) {
	toks := scanAll(t, "print 1; // a comment\nprint 2;")
	var prints int
	for _, tok := range toks {
		if tok.Kind == token.Print {
			prints++
		}
	}
	require.Equal(t, 2, prints)
}

func TestInvalidCharacterReportsLineAndContinues(t *testing.T) {
	l := lexer.New("print 1 @ 2;")
	var kinds []token.Kind
	for {
		tok := l.Scan()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.Eof {
			break
		}
	}
	require.Contains(t, kinds, token.Invalid)
	require.False(t, l.AllTokensValid())
	require.Len(t, l.Errs(), 1)
}

func TestNumberLiteralLexeme(t *testing.T) {
	toks := scanAll(t, "12345")
	require.Equal(t, token.Number, toks[0].Kind)
	require.Equal(t, "12345", toks[0].Lexeme)
}
