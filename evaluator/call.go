package evaluator

import (
	"context"
	"fmt"

	"github.com/canvaz-lang/canvaz/ast"
	"github.com/canvaz-lang/canvaz/diag"
	"github.com/canvaz-lang/canvaz/object"
	"github.com/canvaz-lang/canvaz/token"
)

func (e *Evaluator) evalCall(ctx context.Context, x *ast.Call, env *object.Environment) (*object.Value, error) {
	callee, err := e.eval(ctx, x.Callee, env)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.Data().(object.Callable)
	if !ok {
		return nil, diag.Errorf(diag.TypeError, ast.Range(x.Callee), "Only functions can be called, got '%s'.", callee.TypeName())
	}

	args := make([]*object.Value, len(x.Args))
	for i, arg := range x.Args {
		if args[i], err = e.eval(ctx, arg, env); err != nil {
			return nil, err
		}
	}
	return e.call(ctx, fn, args, x)
}

// call binds args to the parameters of fn, runs it and checks the result
// against the declared return type. User functions and builtins share this
// path.
func (e *Evaluator) call(ctx context.Context, fn object.Callable, args []*object.Value, x *ast.Call) (*object.Value, error) {
	name := displayName(fn)
	params := fn.Parameters()
	if len(args) < fn.Arity() || len(args) > len(params) {
		return nil, diag.Errorf(diag.TypeError, ast.Range(x), "%s expects %s but got %d.", name, expected(fn), len(args))
	}
	if len(e.calls) >= e.maxDepth {
		return nil, diag.Errorf(diag.RuntimeError, ast.Range(x), "Maximum call depth of %d exceeded.", e.maxDepth)
	}

	scope := object.NewEnvironment(fn.Scope())
	cells := make([]*object.Value, len(params))
	for i, param := range params {
		cell, err := e.bind(ctx, fn, param, args, i, x)
		if err != nil {
			return nil, err
		}
		if err := scope.Declare(param.Name.Lexeme, cell); err != nil {
			return nil, e.anchor(err, token.RangeOf(param.Name))
		}
		cells[i] = cell
	}

	e.logger.Debug("call", "name", name, "args", len(args), "depth", len(e.calls)+1)
	e.calls = append(e.calls, fn)
	res, err := e.invoke(ctx, fn, scope, cells, x)
	e.calls = e.calls[:len(e.calls)-1]
	if err != nil {
		if d, ok := diag.As(err); ok {
			d.Trace = append(d.Trace, diag.Frame{Function: fn.Name(), Call: x.Callee.Pos()})
		}
		return nil, err
	}
	return e.checkReturn(fn, res, x)
}

// bind creates the cell of the i-th parameter from the supplied argument or,
// when it is missing, from the default evaluated in the defining scope.
func (e *Evaluator) bind(ctx context.Context, fn object.Callable, param *ast.Parameter, args []*object.Value, i int, x *ast.Call) (*object.Value, error) {
	var payload any
	var rng *token.Range
	if i < len(args) {
		payload = args[i].Data()
		rng = ast.Range(x.Args[i])
	} else {
		v, err := e.eval(ctx, param.Default, fn.Scope())
		if err != nil {
			return nil, err
		}
		payload = v.Data()
		rng = ast.Range(x)
	}

	if param.Type == nil {
		return object.NewValue(payload), nil
	}
	pin, err := object.ResolveTypeName(*param.Type, fn.Scope())
	if err != nil {
		return nil, err
	}
	if got := object.TypeNameOf(payload); payload != nil && !pin.Equal(got) {
		return nil, diag.Errorf(diag.TypeError, rng, "Argument %q of %s expects '%s' but got '%s'.",
			param.Name.Lexeme, displayName(fn), pin, got)
	}
	return object.NewPinnedValue(pin, payload, rng)
}

// invoke runs the body of fn in scope and returns what it returned, if anything.
func (e *Evaluator) invoke(ctx context.Context, fn object.Callable, scope *object.Environment, cells []*object.Value, x *ast.Call) (result, error) {
	switch f := fn.(type) {
	case *object.Function:
		return e.execBlock(ctx, f.Body, scope)

	case *object.Builtin:
		e.cursor = x.Callee.Pos()
		bctx := &object.BuiltinContext{
			Context: ctx,
			Stdout:  e.stdout,
			Logger:  e.logger,
			Call:    e.cursor,
		}
		payload, err := f.Fn(bctx, cells)
		if err != nil {
			if _, ok := diag.As(err); !ok {
				err = diag.Errorf(diag.RuntimeError, nil, "%s", err)
			}
			return normal, e.anchor(err, token.RangeOf(e.cursor))
		}
		if _, ok := object.LookupTypeName(payload); !ok {
			return normal, diag.At(diag.RuntimeError, e.cursor, "Function %q returned an unsupported value of Go type %T.", f.FuncName, payload)
		}
		return result{flow: flowReturn, value: object.NewValue(payload)}, nil
	}
	return normal, diag.Errorf(diag.TypeError, ast.Range(x), "Can't call %T.", fn)
}

func (e *Evaluator) checkReturn(fn object.Callable, res result, x *ast.Call) (*object.Value, error) {
	ret := fn.ReturnType()
	if ret == nil || res.value == nil {
		if ret == nil {
			return object.NewValue(nil), nil
		}
		return object.NewPinnedValue(*ret, nil, nil)
	}

	rng := ast.Range(x)
	if res.stmt != nil {
		rng = ast.Range(res.stmt)
	}
	payload := res.value.Data()
	if got := object.TypeNameOf(payload); payload != nil && !ret.Equal(got) {
		return nil, diag.Errorf(diag.TypeError, rng, "%s must return '%s' but returned '%s'.", displayName(fn), ret, got)
	}
	return object.NewPinnedValue(*ret, payload, rng)
}

func displayName(fn object.Callable) string {
	if fn.Name() == "" {
		return "Anonymous function"
	}
	return fmt.Sprintf("Function %q", fn.Name())
}

func expected(fn object.Callable) string {
	lo, hi := fn.Arity(), len(fn.Parameters())
	if lo == hi {
		return plural(lo)
	}
	return fmt.Sprintf("%d to %d arguments", lo, hi)
}

func plural(n int) string {
	if n == 1 {
		return "1 argument"
	}
	return fmt.Sprintf("%d arguments", n)
}
