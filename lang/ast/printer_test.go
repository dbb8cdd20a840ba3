package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mna/mint/lang/ast"
	"github.com/mna/mint/lang/token"
)

func num(lexeme string) *ast.Literal {
	return &ast.Literal{Tok: token.Token{Kind: token.Number, Lexeme: lexeme}}
}

func str(lexeme string) *ast.Literal {
	return &ast.Literal{Tok: token.Token{Kind: token.String, Lexeme: lexeme}}
}

func TestPrintSimpleSum(t *testing.T) {
	// 1 + 2 * 3
	tree := &ast.Binary{
		Op:   token.Token{Kind: token.Plus, Lexeme: "+"},
		Left: num("1"),
		Right: &ast.Binary{
			Op:    token.Token{Kind: token.Multiply, Lexeme: "*"},
			Left:  num("2"),
			Right: num("3"),
		},
	}
	want := "+ [Plus]\n" +
		"  1\n" +
		"  * [Multiply]\n" +
		"    2\n" +
		"    3\n"
	assert.Equal(t, want, ast.Sprint(tree))
}

func TestPrintParenthesizedIsTransparent(t *testing.T) {
	// (42 + 1) / (2 * 3) -- the parser never wraps grouped expressions in a
	// distinct node, so the tree (and its printed form) is identical to the
	// unparenthesized shape.
	tree := &ast.Binary{
		Op: token.Token{Kind: token.Divide, Lexeme: "/"},
		Left: &ast.Binary{
			Op:    token.Token{Kind: token.Plus, Lexeme: "+"},
			Left:  num("42"),
			Right: num("1"),
		},
		Right: &ast.Binary{
			Op:    token.Token{Kind: token.Multiply, Lexeme: "*"},
			Left:  num("2"),
			Right: num("3"),
		},
	}
	want := "/ [Divide]\n" +
		"  + [Plus]\n" +
		"    42\n" +
		"    1\n" +
		"  * [Multiply]\n" +
		"    2\n" +
		"    3\n"
	assert.Equal(t, want, ast.Sprint(tree))
}

func TestPrintStringConcatenation(t *testing.T) {
	// "id" + "42"
	tree := &ast.Binary{
		Op:    token.Token{Kind: token.Plus, Lexeme: "+"},
		Left:  str("id"),
		Right: str("42"),
	}
	want := "+ [Plus]\n" +
		"  \"id\"\n" +
		"  \"42\"\n"
	assert.Equal(t, want, ast.Sprint(tree))
}
