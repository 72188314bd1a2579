package object

import (
	"github.com/canvaz-lang/canvaz/diag"
	"github.com/canvaz-lang/canvaz/token"
)

// TypeName names a primitive type or a declared structure. Decl is the
// declaration a structure type resolved to; it is nil for primitives.
type TypeName struct {
	Name string
	Decl *StructureDeclaration
}

// The primitive type names. TypeNull is the type of a dynamic value holding
// null; it is never accepted as an annotation.
var (
	TypeAny      = TypeName{Name: "Any"}
	TypeString   = TypeName{Name: "String"}
	TypeBoolean  = TypeName{Name: "Boolean"}
	TypeFloat    = TypeName{Name: "Float"}
	TypeInteger  = TypeName{Name: "Integer"}
	TypeUInteger = TypeName{Name: "UInteger"}
	TypeFunction = TypeName{Name: "Function"}
	TypeNull     = TypeName{Name: "Null"}
)

var primitives = map[string]TypeName{
	TypeAny.Name:      TypeAny,
	TypeString.Name:   TypeString,
	TypeBoolean.Name:  TypeBoolean,
	TypeFloat.Name:    TypeFloat,
	TypeInteger.Name:  TypeInteger,
	TypeUInteger.Name: TypeUInteger,
	TypeFunction.Name: TypeFunction,
}

// Equal reports whether t and other name the same type. Any matches every type.
// Two structure types are equal only when they come from the same declaration.
func (t TypeName) Equal(other TypeName) bool {
	if t.Name == TypeAny.Name || other.Name == TypeAny.Name {
		return true
	}
	if t.Name != other.Name {
		return false
	}
	return t.Decl == nil || other.Decl == nil || t.Decl == other.Decl
}

// IsPrimitive reports whether t is one of the built-in type names.
func (t TypeName) IsPrimitive() bool {
	_, ok := primitives[t.Name]
	return ok
}

func (t TypeName) String() string { return t.Name }

// TypeNameOf derives the type name of a payload. A nil payload is TypeNull.
// It panics on a payload that is not a language value.
func TypeNameOf(payload any) TypeName {
	t, ok := LookupTypeName(payload)
	if !ok {
		panic("object: no type name for payload of Go type " + goTypeName(payload))
	}
	return t
}

// LookupTypeName is like TypeNameOf but reports false for a payload that is
// not a language value.
func LookupTypeName(payload any) (TypeName, bool) {
	switch p := payload.(type) {
	case nil:
		return TypeNull, true
	case string:
		return TypeString, true
	case bool:
		return TypeBoolean, true
	case float64:
		return TypeFloat, true
	case int64:
		return TypeInteger, true
	case uint64:
		return TypeUInteger, true
	case Callable:
		return TypeFunction, true
	case *Structure:
		return TypeName{Name: p.Decl.Name, Decl: p.Decl}, true
	default:
		return TypeName{}, false
	}
}

// ResolveTypeName turns an annotation into a TypeName. The name must be a
// primitive or a structure reachable from env.
func ResolveTypeName(name token.Token, env *Environment) (TypeName, error) {
	if t, ok := primitives[name.Lexeme]; ok {
		return t, nil
	}
	if env != nil {
		if decl, err := env.Structure(name.Lexeme); err == nil {
			return TypeName{Name: name.Lexeme, Decl: decl}, nil
		}
	}
	return TypeName{}, diag.At(diag.NameError, name, "Type %q doesn't exist.", name.Lexeme)
}
