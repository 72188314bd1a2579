package object

import (
	"context"
	"io"
	"log/slog"

	"github.com/canvaz-lang/canvaz/ast"
	"github.com/canvaz-lang/canvaz/token"
)

// Callable is implemented by user functions and builtins. The evaluator calls
// both through the same path.
type Callable interface {
	Name() string
	Parameters() []*ast.Parameter
	ReturnType() *TypeName
	// Scope is where parameter types and default expressions are resolved.
	Scope() *Environment
	// Arity is the minimum number of arguments.
	Arity() int
}

// Function is a user-defined function or an anonymous function literal.
type Function struct {
	FuncName string // "" for function literals
	Params   []*ast.Parameter
	Return   *TypeName // nil when the function declares no return type
	Body     []ast.Stmt
	Closure  *Environment
}

func (f *Function) Name() string                 { return f.FuncName }
func (f *Function) Parameters() []*ast.Parameter { return f.Params }
func (f *Function) ReturnType() *TypeName        { return f.Return }
func (f *Function) Scope() *Environment          { return f.Closure }
func (f *Function) Arity() int                   { return arity(f.Params) }

// BuiltinContext is handed to host functions.
type BuiltinContext struct {
	Context context.Context
	Stdout  io.Writer
	Logger  *slog.Logger
	Call    token.Token // the token that triggered the call
}

// BuiltinFunction is the Go implementation of a builtin. The returned payload
// is wrapped in a Value and checked against the declared return type.
type BuiltinFunction func(ctx *BuiltinContext, args []*Value) (any, error)

// Builtin is a host-provided function.
type Builtin struct {
	FuncName string
	Params   []*ast.Parameter
	Return   *TypeName
	Env      *Environment
	Fn       BuiltinFunction
}

func (b *Builtin) Name() string                 { return b.FuncName }
func (b *Builtin) Parameters() []*ast.Parameter { return b.Params }
func (b *Builtin) ReturnType() *TypeName        { return b.Return }
func (b *Builtin) Scope() *Environment          { return b.Env }
func (b *Builtin) Arity() int                   { return arity(b.Params) }

func arity(params []*ast.Parameter) int {
	n := 0
	for _, p := range params {
		if !p.HasDefault() {
			n++
		}
	}
	return n
}

// Param builds a synthetic parameter for builtin signatures, e.g.
// Param("settings", "EngineSettings").
func Param(name, typeName string) *ast.Parameter {
	p := &ast.Parameter{Name: token.Token{Lexeme: name, Kind: token.Identifier}}
	if typeName != "" {
		p.Type = &token.Token{Lexeme: typeName, Kind: token.Identifier}
	}
	return p
}
