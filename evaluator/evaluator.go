// Package evaluator executes a parsed program against an object.Environment.
package evaluator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/canvaz-lang/canvaz/ast"
	"github.com/canvaz-lang/canvaz/diag"
	"github.com/canvaz-lang/canvaz/object"
	"github.com/canvaz-lang/canvaz/token"
)

// DefaultMaxCallDepth bounds recursion when Config.MaxCallDepth is zero.
const DefaultMaxCallDepth = 1024

// Config configures an Evaluator.
type Config struct {
	Stdout       io.Writer
	Logger       *slog.Logger
	MaxCallDepth int
}

// Evaluator is a tree-walking interpreter. It is not safe for concurrent use.
type Evaluator struct {
	stdout   io.Writer
	logger   *slog.Logger
	maxDepth int

	// cursor is the last token visited. Errors raised without a position,
	// such as host failures inside builtins, are anchored there.
	cursor token.Token
	calls  []object.Callable // active calls, innermost last
}

// flow tells the enclosing statement list whether to keep going.
type flow int

const (
	flowNormal flow = iota
	flowReturn
)

// result is the outcome of executing a statement. A flowReturn result
// travels up to the nearest call boundary.
type result struct {
	flow  flow
	value *object.Value // nil for a bare return
	stmt  *ast.Return
}

var normal = result{flow: flowNormal}

// New creates an evaluator.
func New(cfg Config) *Evaluator {
	e := &Evaluator{
		stdout:   cfg.Stdout,
		logger:   cfg.Logger,
		maxDepth: cfg.MaxCallDepth,
	}
	if e.stdout == nil {
		e.stdout = os.Stdout
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	if e.maxDepth <= 0 {
		e.maxDepth = DefaultMaxCallDepth
	}
	return e
}

// Interpret executes stmts in order. A nil env runs them in a fresh root
// environment. Execution stops at the first error, which is a *diag.Error
// carrying the best position known, or the context's error.
func (e *Evaluator) Interpret(ctx context.Context, stmts []ast.Stmt, env *object.Environment) error {
	if env == nil {
		env = object.NewEnvironment(nil)
	}
	e.calls = e.calls[:0]
	for _, stmt := range stmts {
		if _, err := e.exec(ctx, stmt, env); err != nil {
			return e.anchor(err, token.RangeOf(e.cursor))
		}
	}
	return nil
}

// Eval evaluates a single expression.
func (e *Evaluator) Eval(ctx context.Context, expr ast.Expr, env *object.Environment) (*object.Value, error) {
	v, err := e.eval(ctx, expr, env)
	if err != nil {
		return nil, e.anchor(err, token.RangeOf(e.cursor))
	}
	return v, nil
}

// Cursor returns the last token the evaluator visited.
func (e *Evaluator) Cursor() token.Token { return e.cursor }

// anchor gives a position to a diagnostic that has none.
func (e *Evaluator) anchor(err error, rng *token.Range) error {
	if d, ok := diag.As(err); ok {
		d.Anchor(rng)
	}
	return err
}

// ----------------------------------------------------------------------------
// Statements

func (e *Evaluator) exec(ctx context.Context, stmt ast.Stmt, env *object.Environment) (result, error) {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		_, err := e.eval(ctx, s.X, env)
		return normal, err

	case *ast.Print:
		v, err := e.eval(ctx, s.X, env)
		if err != nil {
			return normal, err
		}
		if _, err := fmt.Fprintln(e.stdout, v.String()); err != nil {
			return normal, fmt.Errorf("print: %w", err)
		}
		return normal, nil

	case *ast.Var:
		return normal, e.execVar(ctx, s, env)

	case *ast.Function:
		return normal, e.execFunction(s, env)

	case *ast.Structure:
		return normal, e.execStructure(s, env)

	case *ast.If:
		truth, err := e.condition(ctx, s.Cond, env)
		if err != nil {
			return normal, err
		}
		if truth {
			return e.exec(ctx, s.Then, env)
		}
		if s.Else != nil {
			return e.exec(ctx, s.Else, env)
		}
		return normal, nil

	case *ast.While:
		for {
			if err := ctx.Err(); err != nil {
				return normal, err
			}
			truth, err := e.condition(ctx, s.Cond, env)
			if err != nil || !truth {
				return normal, err
			}
			res, err := e.exec(ctx, s.Body, env)
			if err != nil || res.flow == flowReturn {
				return res, err
			}
		}

	case *ast.Block:
		return e.execBlock(ctx, s.Stmts, object.NewEnvironment(env))

	case *ast.Return:
		return e.execReturn(ctx, s, env)
	}
	return normal, diag.Errorf(diag.RuntimeError, ast.Range(stmt), "Unknown statement %T.", stmt)
}

// execBlock runs stmts in env, which the caller has already created.
func (e *Evaluator) execBlock(ctx context.Context, stmts []ast.Stmt, env *object.Environment) (result, error) {
	for _, stmt := range stmts {
		res, err := e.exec(ctx, stmt, env)
		if err != nil || res.flow == flowReturn {
			return res, err
		}
	}
	return normal, nil
}

func (e *Evaluator) condition(ctx context.Context, cond ast.Expr, env *object.Environment) (bool, error) {
	v, err := e.eval(ctx, cond, env)
	if err != nil {
		return false, err
	}
	truth, err := v.Truthy()
	if err != nil {
		return false, e.anchor(err, ast.Range(cond))
	}
	return truth, nil
}

func (e *Evaluator) execVar(ctx context.Context, s *ast.Var, env *object.Environment) error {
	var payload any
	if s.Decl.Default != nil {
		v, err := e.eval(ctx, s.Decl.Default, env)
		if err != nil {
			return err
		}
		payload = v.Data()
	}

	cell, err := e.newCell(s.Decl, payload, env, ast.Range(s))
	if err != nil {
		return err
	}
	if err := env.Declare(s.Decl.Name.Lexeme, cell); err != nil {
		return e.anchor(err, token.RangeOf(s.Decl.Name))
	}
	e.logger.Debug("declare", "name", s.Decl.Name.Lexeme, "type", cell.TypeName().Name)
	return nil
}

// newCell creates the cell of a declaration, pinned when it is annotated.
// Annotations are resolved in scope.
func (e *Evaluator) newCell(decl *ast.Parameter, payload any, scope *object.Environment, rng *token.Range) (*object.Value, error) {
	if decl.Type == nil {
		return object.NewValue(payload), nil
	}
	pin, err := object.ResolveTypeName(*decl.Type, scope)
	if err != nil {
		return nil, err
	}
	return object.NewPinnedValue(pin, payload, rng)
}

func (e *Evaluator) execFunction(s *ast.Function, env *object.Environment) error {
	ret, err := e.returnType(s.ReturnType, env)
	if err != nil {
		return err
	}
	fn := &object.Function{
		FuncName: s.Name.Lexeme,
		Params:   s.Params,
		Return:   ret,
		Body:     s.Body,
		Closure:  env,
	}
	if err := env.Declare(s.Name.Lexeme, object.NewValue(fn)); err != nil {
		return e.anchor(err, token.RangeOf(s.Name))
	}
	e.logger.Debug("declare", "name", s.Name.Lexeme, "type", "Function", "args", len(s.Params))
	return nil
}

func (e *Evaluator) returnType(tok *token.Token, env *object.Environment) (*object.TypeName, error) {
	if tok == nil {
		return nil, nil
	}
	t, err := object.ResolveTypeName(*tok, env)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (e *Evaluator) execStructure(s *ast.Structure, env *object.Environment) error {
	for _, m := range s.Members {
		if m.Type == nil || m.Type.Lexeme == s.Name.Lexeme {
			continue
		}
		if _, err := object.ResolveTypeName(*m.Type, env); err != nil {
			return err
		}
	}
	decl := object.NewStructureDeclaration(s.Name.Lexeme, s.Members, env)
	if err := env.DeclareStructure(decl); err != nil {
		return e.anchor(err, token.RangeOf(s.Name))
	}
	e.logger.Debug("declare", "name", s.Name.Lexeme, "type", "Structure", "args", len(s.Members))
	return nil
}

func (e *Evaluator) execReturn(ctx context.Context, s *ast.Return, env *object.Environment) (result, error) {
	e.cursor = s.Keyword
	if len(e.calls) == 0 || (s.Value != nil && e.calls[len(e.calls)-1].ReturnType() == nil) {
		return normal, diag.Errorf(diag.TypeError, ast.Range(s), "Can't return from a function without return type.")
	}
	res := result{flow: flowReturn, stmt: s}
	if s.Value != nil {
		v, err := e.eval(ctx, s.Value, env)
		if err != nil {
			return normal, err
		}
		res.value = v
	}
	return res, nil
}

// ----------------------------------------------------------------------------
// Expressions

func (e *Evaluator) eval(ctx context.Context, expr ast.Expr, env *object.Environment) (*object.Value, error) {
	switch x := expr.(type) {
	case *ast.Literal:
		return object.NewValue(x.Value), nil

	case *ast.Identifier:
		e.cursor = x.Name
		v, err := env.Get(x.Name.Lexeme)
		if err != nil {
			return nil, e.anchor(err, token.RangeOf(x.Name))
		}
		return v, nil

	case *ast.Assign:
		v, err := e.eval(ctx, x.Value, env)
		if err != nil {
			return nil, err
		}
		e.cursor = x.Equal
		if err := env.Assign(x.Name.Lexeme, v.Data(), ast.Range(x)); err != nil {
			return nil, e.anchor(err, token.RangeOf(x.Name))
		}
		return env.Get(x.Name.Lexeme)

	case *ast.Binary:
		left, err := e.eval(ctx, x.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(ctx, x.Right, env)
		if err != nil {
			return nil, err
		}
		e.cursor = x.Operator
		return object.Binary(x.Operator, left, right)

	case *ast.Logical:
		return e.evalLogical(ctx, x, env)

	case *ast.Unary:
		right, err := e.eval(ctx, x.Right, env)
		if err != nil {
			return nil, err
		}
		e.cursor = x.Operator
		return object.Unary(x.Operator, right)

	case *ast.Grouping:
		return e.eval(ctx, x.Inner, env)

	case *ast.Call:
		return e.evalCall(ctx, x, env)

	case *ast.Get:
		s, err := e.structure(ctx, x.Object, x.Name, env)
		if err != nil {
			return nil, err
		}
		return s.Get(x.Name)

	case *ast.Set:
		s, err := e.structure(ctx, x.Object, x.Name, env)
		if err != nil {
			return nil, err
		}
		v, err := e.eval(ctx, x.Value, env)
		if err != nil {
			return nil, err
		}
		e.cursor = x.Equal
		if err := s.Set(x.Name, v.Data(), ast.Range(x)); err != nil {
			return nil, err
		}
		return s.Get(x.Name)

	case *ast.StructureInit:
		return e.evalStructureInit(ctx, x, env)

	case *ast.FunctionLiteral:
		ret, err := e.returnType(x.ReturnType, env)
		if err != nil {
			return nil, err
		}
		return object.NewValue(&object.Function{
			Params:  x.Params,
			Return:  ret,
			Body:    x.Body,
			Closure: env,
		}), nil
	}
	return nil, diag.Errorf(diag.RuntimeError, ast.Range(expr), "Unknown expression %T.", expr)
}

// evalLogical short-circuits `and` and `or`. Both operands must be Boolean or null.
func (e *Evaluator) evalLogical(ctx context.Context, x *ast.Logical, env *object.Environment) (*object.Value, error) {
	left, err := e.condition(ctx, x.Left, env)
	if err != nil {
		return nil, err
	}
	e.cursor = x.Operator
	switch {
	case x.Operator.Kind == token.Or && left:
		return object.NewValue(true), nil
	case x.Operator.Kind == token.And && !left:
		return object.NewValue(false), nil
	}
	right, err := e.condition(ctx, x.Right, env)
	if err != nil {
		return nil, err
	}
	return object.NewValue(right), nil
}

// structure evaluates the target of a member access.
func (e *Evaluator) structure(ctx context.Context, target ast.Expr, member token.Token, env *object.Environment) (*object.Structure, error) {
	v, err := e.eval(ctx, target, env)
	if err != nil {
		return nil, err
	}
	e.cursor = member
	s, ok := v.Data().(*object.Structure)
	if !ok {
		return nil, diag.At(diag.TypeError, member, "Only structures have members, got '%s'.", v.TypeName())
	}
	return s, nil
}

func (e *Evaluator) evalStructureInit(ctx context.Context, x *ast.StructureInit, env *object.Environment) (*object.Value, error) {
	e.cursor = x.Name
	decl, err := env.Structure(x.Name.Lexeme)
	if err != nil {
		return nil, e.anchor(err, token.RangeOf(x.Name))
	}

	explicit := make(map[string]*object.Value, len(x.Members))
	ranges := make(map[string]*token.Range, len(x.Members))
	for _, m := range x.Members {
		if _, ok := decl.Member(m.Name.Lexeme); !ok {
			return nil, diag.At(diag.NameError, m.Name, "Structure %q has no member %q.", decl.Name, m.Name.Lexeme)
		}
		v, err := e.eval(ctx, m.Value, env)
		if err != nil {
			return nil, err
		}
		explicit[m.Name.Lexeme] = v
		ranges[m.Name.Lexeme] = ast.Range(m.Value)
	}

	s := object.NewStructure(decl)
	for _, name := range decl.MemberNames() {
		param, _ := decl.Member(name)
		var payload any
		rng := token.RangeOf(x.Name)
		switch {
		case explicit[name] != nil:
			payload = explicit[name].Data()
			rng = ranges[name]
		case param.HasDefault():
			v, err := e.eval(ctx, param.Default, decl.Scope)
			if err != nil {
				return nil, err
			}
			payload = v.Data()
		default:
			return nil, diag.At(diag.NameError, x.Name, "Member %q of %q was not initialized.", name, decl.Name)
		}
		cell, err := e.newCell(param, payload, decl.Scope, rng)
		if err != nil {
			return nil, e.anchor(err, rng)
		}
		s.Init(name, cell)
	}
	return object.NewValue(s), nil
}
