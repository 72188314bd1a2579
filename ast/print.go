package ast

import (
	"fmt"
	"strings"

	"github.com/canvaz-lang/canvaz/token"
)

// String renders n as a parenthesized prefix form, e.g. `(+ 1 (* 2 3))`.
// It is used by tests and the `parse` debug output.
func String(n Node) string {
	var b strings.Builder
	write(&b, n)
	return b.String()
}

// Strings renders each statement on its own line.
func Strings(stmts []Stmt) string {
	var b strings.Builder
	for _, s := range stmts {
		write(&b, s)
		b.WriteByte('\n')
	}
	return b.String()
}

func write(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case nil:
		b.WriteString("<nil>")

	case *Literal:
		switch v := n.Value.(type) {
		case nil:
			b.WriteString("null")
		case string:
			fmt.Fprintf(b, "%q", v)
		default:
			b.WriteString(n.Token.Lexeme)
		}
	case *Identifier:
		b.WriteString(n.Name.Lexeme)
	case *Assign:
		paren(b, "=", &Identifier{Name: n.Name}, n.Value)
	case *Binary:
		paren(b, n.Operator.Lexeme, n.Left, n.Right)
	case *Logical:
		paren(b, n.Operator.Lexeme, n.Left, n.Right)
	case *Unary:
		paren(b, n.Operator.Lexeme, n.Right)
	case *Grouping:
		paren(b, "group", n.Inner)
	case *Call:
		nodes := append([]Node{n.Callee}, exprNodes(n.Args)...)
		paren(b, "call", nodes...)
	case *Get:
		b.WriteString("(. ")
		write(b, n.Object)
		b.WriteString(" " + n.Name.Lexeme + ")")
	case *Set:
		b.WriteString("(.= ")
		write(b, n.Object)
		b.WriteString(" " + n.Name.Lexeme + " ")
		write(b, n.Value)
		b.WriteString(")")
	case *StructureInit:
		b.WriteString("(new " + n.Name.Lexeme)
		for _, m := range n.Members {
			b.WriteString(" " + m.Name.Lexeme + ":")
			write(b, m.Value)
		}
		b.WriteString(")")
	case *FunctionLiteral:
		b.WriteString("(function")
		writeSignature(b, "", n.Params, n.ReturnType)
		writeBody(b, n.Body)
		b.WriteString(")")

	case *ExpressionStmt:
		paren(b, "expr", n.X)
	case *Print:
		paren(b, "print", n.X)
	case *Var:
		b.WriteString("(var ")
		writeParam(b, n.Decl)
		b.WriteString(")")
	case *Function:
		b.WriteString("(function")
		writeSignature(b, n.Name.Lexeme, n.Params, n.ReturnType)
		writeBody(b, n.Body)
		b.WriteString(")")
	case *Structure:
		b.WriteString("(structure " + n.Name.Lexeme)
		for _, m := range n.Members {
			b.WriteByte(' ')
			writeParam(b, m)
		}
		b.WriteString(")")
	case *If:
		if n.Else == nil {
			paren(b, "if", n.Cond, n.Then)
		} else {
			paren(b, "if", n.Cond, n.Then, n.Else)
		}
	case *While:
		paren(b, "while", n.Cond, n.Body)
	case *Block:
		b.WriteString("(block")
		writeBody(b, n.Stmts)
		b.WriteString(")")
	case *Return:
		if n.Value == nil {
			b.WriteString("(return)")
		} else {
			paren(b, "return", n.Value)
		}

	default:
		fmt.Fprintf(b, "<%T>", n)
	}
}

func paren(b *strings.Builder, name string, nodes ...Node) {
	b.WriteString("(" + name)
	for _, n := range nodes {
		b.WriteByte(' ')
		write(b, n)
	}
	b.WriteString(")")
}

func writeParam(b *strings.Builder, p *Parameter) {
	b.WriteString(p.Name.Lexeme)
	if p.Type != nil {
		b.WriteString(": " + p.Type.Lexeme)
	}
	if p.Default != nil {
		b.WriteString(" = ")
		write(b, p.Default)
	}
}

func writeSignature(b *strings.Builder, name string, params []*Parameter, ret *token.Token) {
	if name != "" {
		b.WriteString(" " + name)
	}
	b.WriteString(" (")
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		writeParam(b, p)
	}
	b.WriteString(")")
	if ret != nil {
		b.WriteString(": " + ret.Lexeme)
	}
}

func writeBody(b *strings.Builder, stmts []Stmt) {
	for _, s := range stmts {
		b.WriteByte(' ')
		write(b, s)
	}
}

func exprNodes(exprs []Expr) []Node {
	nodes := make([]Node, len(exprs))
	for i, e := range exprs {
		nodes[i] = e
	}
	return nodes
}
