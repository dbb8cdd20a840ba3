package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer renders a tree in the same indented form as the reference
// implementation's diagnostic dump: each node's label on its own line,
// prefixed by two spaces per depth level, children following their parent.
type Printer struct {
	Output io.Writer
}

// Print walks n, writing one line per node.
func (p *Printer) Print(n Node) error {
	return printNode(p.Output, n, 0)
}

// Sprint is a convenience wrapper returning the printed form as a string.
func Sprint(n Node) string {
	var sb strings.Builder
	_ = (&Printer{Output: &sb}).Print(n)
	return sb.String()
}

func printNode(w io.Writer, n Node, depth int) error {
	if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), n.Label()); err != nil {
		return err
	}
	for _, child := range children(n) {
		if err := printNode(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// children lists n's immediate child nodes, the same set Walk visits and in
// the same order (source order, except that a For's body comes before its
// step) — duplicated here rather than driven through Visitor so the
// printer can track indentation depth directly instead of threading it
// through an enter/exit protocol.
func children(n Node) []Node {
	switch n := n.(type) {
	case *Assign:
		return []Node{n.Value}
	case *Unary:
		return []Node{n.Operand}
	case *Binary:
		return []Node{n.Left, n.Right}
	case *Logical:
		return []Node{n.Left, n.Right}
	case *Call:
		out := make([]Node, len(n.Args))
		for i, a := range n.Args {
			out[i] = a
		}
		return out
	case *ExprStmt:
		return []Node{n.Expr}
	case *PrintStmt:
		return []Node{n.Expr}
	case *VarDecl:
		if n.Value != nil {
			return []Node{n.Value}
		}
		return nil
	case *Block:
		out := make([]Node, len(n.Stmts))
		for i, s := range n.Stmts {
			out[i] = s
		}
		return out
	case *If:
		out := []Node{n.Cond, n.Then}
		if n.Else != nil {
			out = append(out, n.Else)
		}
		return out
	case *While:
		return []Node{n.Cond, n.Body}
	case *For:
		var out []Node
		if n.Init != nil {
			out = append(out, n.Init)
		}
		if n.Cond != nil {
			out = append(out, n.Cond)
		}
		out = append(out, n.Body)
		if n.Step != nil {
			out = append(out, n.Step)
		}
		return out
	case *Return:
		if n.Value != nil {
			return []Node{n.Value}
		}
		return nil
	case *FunDecl:
		return []Node{n.Body}
	case *QueryHeader:
		if n.Body != nil {
			return []Node{n.Body}
		}
		return nil
	default:
		return nil
	}
}
