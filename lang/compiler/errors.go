package compiler

import (
	"fmt"

	"github.com/mna/mint/lang/token"
)

// ParseError describes one compile-time diagnostic: an unexpected token,
// a missing punctuation, too many locals/upvalues/constants, or an invalid
// assignment target. Line is the 1-based source line of the offending
// token.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d: %s", e.Line, e.Msg)
}

// ParseErrors is the accumulated list of ParseError produced while
// compiling a single program. Compilation still aborts at the first
// unrecoverable token (no Chunk is produced), but panic-mode
// synchronization lets the compiler keep reporting further errors within
// the same pass instead of bailing out immediately.
type ParseErrors []*ParseError

func (e ParseErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := fmt.Sprintf("%d parse errors:", len(e))
	for _, pe := range e {
		msg += "\n\t" + pe.Error()
	}
	return msg
}

func (c *Compiler) errorAt(line int, format string, args ...any) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.errs = append(c.errs, &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)})
}

func (c *Compiler) errorAtCurrent(format string, args ...any) {
	c.errorAt(c.cur.Line, format, args...)
}

func (c *Compiler) error(format string, args ...any) {
	c.errorAt(c.prev.Line, format, args...)
}

// synchronize implements panic-mode recovery: advance to the next
// statement boundary (a ';' or a statement-starting keyword) so that
// compilation of the rest of the program can continue reporting errors.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.cur.Kind != token.Eof {
		if c.prev.Kind == token.Semicolon {
			return
		}
		switch c.cur.Kind {
		case token.Fun, token.IntKw, token.StrKw, token.BoolKw, token.FunrefKw,
			token.For, token.If, token.While, token.Return, token.Print:
			return
		}
		c.advance()
	}
}
