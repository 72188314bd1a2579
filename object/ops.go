package object

import (
	"github.com/canvaz-lang/canvaz/diag"
	"github.com/canvaz-lang/canvaz/token"
)

// Kind is the shape of a payload, used to key the operator tables.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindBoolean
	KindFloat
	KindInteger
	KindUInteger
	KindFunction
	KindStructure
)

// KindOf returns the kind of payload.
func KindOf(payload any) Kind {
	switch payload.(type) {
	case string:
		return KindString
	case bool:
		return KindBoolean
	case float64:
		return KindFloat
	case int64:
		return KindInteger
	case uint64:
		return KindUInteger
	case Callable:
		return KindFunction
	case *Structure:
		return KindStructure
	}
	return KindNull
}

type binaryKey struct {
	op   token.Kind
	kind Kind
}

type binaryFunc func(op token.Token, a, b any) (any, error)

type number interface {
	~int64 | ~uint64 | ~float64
}

func arith[T number](f func(a, b T) T) binaryFunc {
	return func(_ token.Token, a, b any) (any, error) {
		return f(a.(T), b.(T)), nil
	}
}

func compare[T number | ~string](f func(a, b T) bool) binaryFunc {
	return func(_ token.Token, a, b any) (any, error) {
		return f(a.(T), b.(T)), nil
	}
}

func divide[T ~int64 | ~uint64]() binaryFunc {
	return func(op token.Token, a, b any) (any, error) {
		if b.(T) == 0 {
			return nil, diag.At(diag.RuntimeError, op, "Division by zero.")
		}
		return a.(T) / b.(T), nil
	}
}

func add[T number | ~string](a, b T) T { return a + b }
func sub[T number](a, b T) T          { return a - b }
func mul[T number](a, b T) T          { return a * b }
func fdiv(a, b float64) float64       { return a / b }

func less[T number | ~string](a, b T) bool         { return a < b }
func lessEqual[T number | ~string](a, b T) bool    { return a <= b }
func greater[T number | ~string](a, b T) bool      { return a > b }
func greaterEqual[T number | ~string](a, b T) bool { return a >= b }

// binaryOps is the closed table of arithmetic and ordering operators.
// Both operands must share the kind in the key.
var binaryOps = map[binaryKey]binaryFunc{
	{token.Plus, KindString}:   func(_ token.Token, a, b any) (any, error) { return add(a.(string), b.(string)), nil },
	{token.Plus, KindFloat}:    arith(add[float64]),
	{token.Plus, KindInteger}:  arith(add[int64]),
	{token.Plus, KindUInteger}: arith(add[uint64]),

	{token.Minus, KindFloat}:    arith(sub[float64]),
	{token.Minus, KindInteger}:  arith(sub[int64]),
	{token.Minus, KindUInteger}: arith(sub[uint64]),

	{token.Asterisk, KindFloat}:    arith(mul[float64]),
	{token.Asterisk, KindInteger}:  arith(mul[int64]),
	{token.Asterisk, KindUInteger}: arith(mul[uint64]),

	{token.Slash, KindFloat}:    arith(fdiv),
	{token.Slash, KindInteger}:  divide[int64](),
	{token.Slash, KindUInteger}: divide[uint64](),

	{token.Less, KindString}:   compare(less[string]),
	{token.Less, KindFloat}:    compare(less[float64]),
	{token.Less, KindInteger}:  compare(less[int64]),
	{token.Less, KindUInteger}: compare(less[uint64]),

	{token.LessEqual, KindString}:   compare(lessEqual[string]),
	{token.LessEqual, KindFloat}:    compare(lessEqual[float64]),
	{token.LessEqual, KindInteger}:  compare(lessEqual[int64]),
	{token.LessEqual, KindUInteger}: compare(lessEqual[uint64]),

	{token.Greater, KindString}:   compare(greater[string]),
	{token.Greater, KindFloat}:    compare(greater[float64]),
	{token.Greater, KindInteger}:  compare(greater[int64]),
	{token.Greater, KindUInteger}: compare(greater[uint64]),

	{token.GreaterEqual, KindString}:   compare(greaterEqual[string]),
	{token.GreaterEqual, KindFloat}:    compare(greaterEqual[float64]),
	{token.GreaterEqual, KindInteger}:  compare(greaterEqual[int64]),
	{token.GreaterEqual, KindUInteger}: compare(greaterEqual[uint64]),
}

// Binary applies a binary operator to two values and returns a new dynamic
// value. Equality works on any pair; the other operators look up binaryOps.
func Binary(op token.Token, left, right *Value) (*Value, error) {
	switch op.Kind {
	case token.EqualEqual:
		return NewValue(left.Equal(right)), nil
	case token.BangEqual:
		return NewValue(!left.Equal(right)), nil
	}

	lk, rk := left.Kind(), right.Kind()
	if lk == rk && lk != KindNull {
		if fn, ok := binaryOps[binaryKey{op.Kind, lk}]; ok {
			result, err := fn(op, left.Data(), right.Data())
			if err != nil {
				return nil, err
			}
			return NewValue(result), nil
		}
	}
	return nil, diag.At(diag.TypeError, op, "'%s' is not applicable for '%s' and '%s'.",
		op.Lexeme, operandType(left), operandType(right))
}

// operandType names the type of what v holds for operator errors.
func operandType(v *Value) TypeName {
	if v.IsNull() {
		return TypeNull
	}
	return v.RuntimeTypeName()
}

// Unary applies `-`, `not` or `typeof` to a value.
func Unary(op token.Token, right *Value) (*Value, error) {
	switch op.Kind {
	case token.Minus:
		switch d := right.Data().(type) {
		case float64:
			return NewValue(-d), nil
		case int64:
			return NewValue(-d), nil
		}
		return nil, diag.At(diag.TypeError, op, "Unary '-' is not applicable for '%s'.", operandType(right))
	case token.Not:
		truth, err := right.Truthy()
		if err != nil {
			return nil, err.(*diag.Error).Anchor(token.RangeOf(op))
		}
		return NewValue(!truth), nil
	case token.Typeof:
		return NewValue(right.RuntimeTypeName().Name), nil
	}
	return nil, diag.At(diag.ParseError, op, "Invalid unary expression.")
}
