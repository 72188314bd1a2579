// Package ast declares the syntax tree produced by the parser.
//
// Expr and Stmt are closed: only the node types in this package implement
// them, and the evaluator switches over the concrete types exhaustively.
package ast

import "github.com/canvaz-lang/canvaz/token"

// Node is implemented by every syntax tree node.
// Pos and End return the first and last token of the node.
type Node interface {
	Pos() token.Token
	End() token.Token
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Range returns the source range covered by n. When n spans several lines
// the range is clipped to its first token.
func Range(n Node) *token.Range {
	return token.Span(n.Pos(), n.End())
}

// Parameter is a named, optionally typed and defaulted slot. It describes
// function parameters, variable declarations and structure members.
type Parameter struct {
	Name    token.Token
	Type    *token.Token // nil when unannotated
	Default Expr         // nil when there is no default
}

// HasDefault reports whether the parameter carries a default expression.
func (p *Parameter) HasDefault() bool { return p.Default != nil }

// TypeName returns the annotated type name, or "" when unannotated.
func (p *Parameter) TypeName() string {
	if p.Type == nil {
		return ""
	}
	return p.Type.Lexeme
}

// ----------------------------------------------------------------------------
// Expressions

type (
	// Literal is a string, number, boolean or null literal.
	Literal struct {
		Token token.Token
		Value any
	}

	// Identifier is a reference to a variable.
	Identifier struct {
		Name token.Token
	}

	// Assign is `name = value`.
	Assign struct {
		Name  token.Token
		Equal token.Token
		Value Expr
	}

	// Binary is an arithmetic, comparison or equality expression.
	Binary struct {
		Left     Expr
		Operator token.Token
		Right    Expr
	}

	// Logical is a short-circuiting `and` / `or` expression.
	Logical struct {
		Left     Expr
		Operator token.Token
		Right    Expr
	}

	// Unary is `-x`, `not x` or `typeof x`.
	Unary struct {
		Operator token.Token
		Right    Expr
	}

	// Grouping is a parenthesized expression.
	Grouping struct {
		Lparen token.Token
		Inner  Expr
		Rparen token.Token
	}

	// Call is `callee(args...)`.
	Call struct {
		Callee Expr
		Lparen token.Token
		Args   []Expr
		Rparen token.Token
	}

	// Get is a member access `object.name`.
	Get struct {
		Object Expr
		Name   token.Token
	}

	// Set is a member assignment `object.name = value`.
	Set struct {
		Object Expr
		Name   token.Token
		Equal  token.Token
		Value  Expr
	}

	// StructureInit is `Name { member: value, ... }`.
	StructureInit struct {
		Name    token.Token
		Members []*MemberInit
		Rbrace  token.Token
	}

	// FunctionLiteral is an anonymous `function (params): T { body }`.
	FunctionLiteral struct {
		Keyword    token.Token
		Params     []*Parameter
		ReturnType *token.Token
		Body       []Stmt
		Rbrace     token.Token
	}
)

// MemberInit is one `member: value` pair of a structure initialization.
type MemberInit struct {
	Name  token.Token
	Value Expr
}

func (e *Literal) Pos() token.Token         { return e.Token }
func (e *Literal) End() token.Token         { return e.Token }
func (e *Identifier) Pos() token.Token      { return e.Name }
func (e *Identifier) End() token.Token      { return e.Name }
func (e *Assign) Pos() token.Token          { return e.Name }
func (e *Assign) End() token.Token          { return e.Value.End() }
func (e *Binary) Pos() token.Token          { return e.Left.Pos() }
func (e *Binary) End() token.Token          { return e.Right.End() }
func (e *Logical) Pos() token.Token         { return e.Left.Pos() }
func (e *Logical) End() token.Token         { return e.Right.End() }
func (e *Unary) Pos() token.Token           { return e.Operator }
func (e *Unary) End() token.Token           { return e.Right.End() }
func (e *Grouping) Pos() token.Token        { return e.Lparen }
func (e *Grouping) End() token.Token        { return e.Rparen }
func (e *Call) Pos() token.Token            { return e.Callee.Pos() }
func (e *Call) End() token.Token            { return e.Rparen }
func (e *Get) Pos() token.Token             { return e.Object.Pos() }
func (e *Get) End() token.Token             { return e.Name }
func (e *Set) Pos() token.Token             { return e.Object.Pos() }
func (e *Set) End() token.Token             { return e.Value.End() }
func (e *StructureInit) Pos() token.Token   { return e.Name }
func (e *StructureInit) End() token.Token   { return e.Rbrace }
func (e *FunctionLiteral) Pos() token.Token { return e.Keyword }
func (e *FunctionLiteral) End() token.Token { return e.Rbrace }

func (*Literal) exprNode()         {}
func (*Identifier) exprNode()      {}
func (*Assign) exprNode()          {}
func (*Binary) exprNode()          {}
func (*Logical) exprNode()         {}
func (*Unary) exprNode()           {}
func (*Grouping) exprNode()        {}
func (*Call) exprNode()            {}
func (*Get) exprNode()             {}
func (*Set) exprNode()             {}
func (*StructureInit) exprNode()   {}
func (*FunctionLiteral) exprNode() {}

// ----------------------------------------------------------------------------
// Statements

type (
	// ExpressionStmt evaluates an expression for its side effects.
	ExpressionStmt struct {
		X Expr
	}

	// Print writes the print form of an expression followed by a newline.
	Print struct {
		Keyword token.Token
		X       Expr
	}

	// Var declares a variable: `var name[: T][= init]`.
	Var struct {
		Keyword token.Token
		Decl    *Parameter
	}

	// Function declares a named function.
	Function struct {
		Keyword    token.Token
		Name       token.Token
		Params     []*Parameter
		ReturnType *token.Token
		Body       []Stmt
		Rbrace     token.Token
	}

	// Structure declares a structure type.
	Structure struct {
		Keyword token.Token
		Name    token.Token
		Members []*Parameter
		Rbrace  token.Token
	}

	// If is `if cond then [else otherwise]`.
	If struct {
		Keyword token.Token
		Cond    Expr
		Then    Stmt
		Else    Stmt // nil when absent
	}

	// While is `while cond body`.
	While struct {
		Keyword token.Token
		Cond    Expr
		Body    Stmt
	}

	// Block is a braced statement list executed in its own scope.
	Block struct {
		Lbrace token.Token
		Stmts  []Stmt
		Rbrace token.Token
	}

	// Return leaves the enclosing function. Value is nil for a bare return.
	Return struct {
		Keyword token.Token
		Value   Expr
	}
)

func (s *ExpressionStmt) Pos() token.Token { return s.X.Pos() }
func (s *ExpressionStmt) End() token.Token { return s.X.End() }
func (s *Print) Pos() token.Token          { return s.Keyword }
func (s *Print) End() token.Token          { return s.X.End() }
func (s *Var) Pos() token.Token            { return s.Keyword }
func (s *Var) End() token.Token {
	switch {
	case s.Decl.Default != nil:
		return s.Decl.Default.End()
	case s.Decl.Type != nil:
		return *s.Decl.Type
	}
	return s.Decl.Name
}
func (s *Function) Pos() token.Token  { return s.Keyword }
func (s *Function) End() token.Token  { return s.Rbrace }
func (s *Structure) Pos() token.Token { return s.Keyword }
func (s *Structure) End() token.Token { return s.Rbrace }
func (s *If) Pos() token.Token        { return s.Keyword }
func (s *If) End() token.Token {
	if s.Else != nil {
		return s.Else.End()
	}
	return s.Then.End()
}
func (s *While) Pos() token.Token  { return s.Keyword }
func (s *While) End() token.Token  { return s.Body.End() }
func (s *Block) Pos() token.Token  { return s.Lbrace }
func (s *Block) End() token.Token  { return s.Rbrace }
func (s *Return) Pos() token.Token { return s.Keyword }
func (s *Return) End() token.Token {
	if s.Value != nil {
		return s.Value.End()
	}
	return s.Keyword
}

func (*ExpressionStmt) stmtNode() {}
func (*Print) stmtNode()          {}
func (*Var) stmtNode()            {}
func (*Function) stmtNode()       {}
func (*Structure) stmtNode()      {}
func (*If) stmtNode()             {}
func (*While) stmtNode()          {}
func (*Block) stmtNode()          {}
func (*Return) stmtNode()         {}
