// Package lexer implements the single-pass tokenizer shared by the bytecode
// compiler and the tree-walking interpreter.
package lexer

import (
	"fmt"

	"github.com/mna/mint/lang/token"
)

// Lexer scans mint source text into a stream of tokens in a single forward
// pass. Create one with New and call Scan repeatedly until it returns a
// token.Eof token.
type Lexer struct {
	src  string
	pos  int // next unread byte
	line int

	errs token.ErrorList
}

// New returns a Lexer ready to scan src.
func New(src string) *Lexer {
	return &Lexer{src: src, pos: 0, line: 1}
}

// Errs returns the accumulated lexical errors, or nil if there were none.
func (l *Lexer) Errs() token.ErrorList { return l.errs }

// AllTokensValid reports whether the scans made so far emitted no Invalid
// token; it covers the entire source only once Scan has returned Eof.
func (l *Lexer) AllTokensValid() bool { return len(l.errs) == 0 }

func (l *Lexer) atEnd() bool { return l.pos >= len(l.src) }

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
	}
	return c
}

func (l *Lexer) match(c byte) bool {
	if l.atEnd() || l.src[l.pos] != c {
		return false
	}
	l.pos++
	return true
}

func (l *Lexer) errorf(line int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.errs.Add(token.NewError(line, msg).Pos, msg)
}

// Scan returns the next token in the stream. Once it returns a token of kind
// token.Eof, subsequent calls keep returning token.Eof.
func (l *Lexer) Scan() token.Token {
	l.skipWhitespaceAndComments()

	if l.atEnd() {
		return token.Token{Kind: token.Eof, Line: l.line}
	}

	startLine := l.line
	c := l.advance()

	switch {
	case isIdentStart(c):
		return l.scanIdentifier(startLine)
	case isDigit(c):
		return l.scanNumber(startLine)
	case c == '\'' || c == '"':
		return l.scanString(startLine, c)
	}

	switch c {
	case '(':
		return l.tok(token.OpenParen, "(", startLine)
	case ')':
		return l.tok(token.CloseParen, ")", startLine)
	case '{':
		return l.tok(token.OpenBrace, "{", startLine)
	case '}':
		return l.tok(token.CloseBrace, "}", startLine)
	case '[':
		return l.tok(token.OpenBracket, "[", startLine)
	case ']':
		return l.tok(token.CloseBracket, "]", startLine)
	case ',':
		return l.tok(token.Comma, ",", startLine)
	case '.':
		return l.tok(token.Dot, ".", startLine)
	case ';':
		return l.tok(token.Semicolon, ";", startLine)
	case '+':
		return l.tok(token.Plus, "+", startLine)
	case '-':
		return l.tok(token.Minus, "-", startLine)
	case '*':
		return l.tok(token.Multiply, "*", startLine)
	case '/':
		return l.tok(token.Divide, "/", startLine)
	case '%':
		return l.tok(token.Modulo, "%", startLine)
	case '!':
		if l.match('=') {
			return l.tok(token.NotEqual, "!=", startLine)
		}
		return l.tok(token.Not, "!", startLine)
	case '=':
		if l.match('=') {
			return l.tok(token.IsEqual, "==", startLine)
		}
		return l.tok(token.Assign, "=", startLine)
	case '<':
		if l.match('=') {
			return l.tok(token.LessThanEqual, "<=", startLine)
		}
		return l.tok(token.LessThan, "<", startLine)
	case '>':
		if l.match('=') {
			return l.tok(token.GreaterThanEqual, ">=", startLine)
		}
		return l.tok(token.GreaterThan, ">", startLine)
	}

	l.errorf(startLine, "invalid character %q", c)
	return token.Token{Kind: token.Invalid, Lexeme: string(c), Line: startLine}
}

func (l *Lexer) tok(kind token.Kind, lexeme string, line int) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Line: line}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		case '/':
			if l.peekAt(1) == '/' {
				for !l.atEnd() && l.peek() != '\n' {
					l.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) scanIdentifier(startLine int) token.Token {
	start := l.pos - 1
	for isIdentCont(l.peek()) {
		l.advance()
	}
	lexeme := l.src[start:l.pos]
	if kind, ok := token.Keywords[lexeme]; ok {
		return l.tok(kind, lexeme, startLine)
	}
	return l.tok(token.Identifier, lexeme, startLine)
}

func (l *Lexer) scanNumber(startLine int) token.Token {
	start := l.pos - 1
	for isDigit(l.peek()) {
		l.advance()
	}
	// Accept a fractional part lexically (floats are rejected later, by the
	// compiler, per the language's open question on numeric literals).
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	return l.tok(token.Number, l.src[start:l.pos], startLine)
}

func (l *Lexer) scanString(startLine int, quote byte) token.Token {
	start := l.pos
	for !l.atEnd() && l.peek() != quote && l.peek() != '\n' {
		l.advance()
	}
	if l.atEnd() || l.peek() == '\n' {
		l.errorf(startLine, "unterminated string literal")
		return token.Token{Kind: token.Invalid, Lexeme: l.src[start:l.pos], Line: startLine}
	}
	lexeme := l.src[start:l.pos]
	l.advance() // closing quote
	return l.tok(token.String, lexeme, startLine)
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentCont(c byte) bool  { return isIdentStart(c) || isDigit(c) }
