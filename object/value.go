// Package object defines the runtime model of the language: values and their
// type pins, type names, structures, callables and lexical environments.
package object

import (
	"fmt"
	"strconv"

	"github.com/canvaz-lang/canvaz/diag"
	"github.com/canvaz-lang/canvaz/token"
)

// Value is a mutable cell holding a payload. Variables, parameters and
// structure members are all Values.
//
// A dynamic value takes the type of whatever payload it holds. A pinned value
// keeps the type it was created with and rejects payloads of any other type.
// null is accepted by both.
type Value struct {
	data     any
	typeName TypeName
	pinned   bool
}

// NewValue returns a dynamic value holding payload.
func NewValue(payload any) *Value {
	return &Value{data: payload, typeName: TypeNameOf(payload)}
}

// NewPinnedValue returns a value pinned to pin, holding payload.
// rng locates the offending source when payload does not fit the pin.
func NewPinnedValue(pin TypeName, payload any, rng *token.Range) (*Value, error) {
	v := &Value{typeName: pin, pinned: true}
	if err := v.Set(payload, rng); err != nil {
		return nil, err
	}
	return v, nil
}

// Set stores payload in v.
func (v *Value) Set(payload any, rng *token.Range) error {
	if payload == nil {
		v.data = nil
		if !v.pinned {
			v.typeName = TypeNull
		}
		return nil
	}
	derived := TypeNameOf(payload)
	if v.pinned && !v.typeName.Equal(derived) {
		return diag.Errorf(diag.TypeError, rng,
			"Can't assign a static typed variable of type '%s' a value of type '%s'.", v.typeName, derived)
	}
	if !v.pinned {
		v.typeName = derived
	}
	v.data = payload
	return nil
}

// Data returns the raw payload.
func (v *Value) Data() any { return v.data }

// TypeName returns the pin of a pinned value and the payload type otherwise.
func (v *Value) TypeName() TypeName { return v.typeName }

// RuntimeTypeName returns the type of the payload currently held,
// falling back to TypeName for null.
func (v *Value) RuntimeTypeName() TypeName {
	if v.data == nil {
		return v.typeName
	}
	return TypeNameOf(v.data)
}

// Pinned reports whether v carries a static type pin.
func (v *Value) Pinned() bool { return v.pinned }

// IsNull reports whether v holds no payload.
func (v *Value) IsNull() bool { return v.data == nil }

// Kind returns the payload kind used by the operator tables.
func (v *Value) Kind() Kind { return KindOf(v.data) }

// Truthy reports the truth of a Boolean value. null is false; any other
// payload is a TypeError without a position.
func (v *Value) Truthy() (bool, error) {
	switch d := v.data.(type) {
	case nil:
		return false, nil
	case bool:
		return d, nil
	}
	return false, diag.Errorf(diag.TypeError, nil, "Can't determine truthiness of '%s'.", v.RuntimeTypeName())
}

// Equal compares payloads. null equals only null.
func (v *Value) Equal(other *Value) bool {
	if v.data == nil || other.data == nil {
		return v.data == nil && other.data == nil
	}
	return v.data == other.data
}

// String returns the print form of the payload.
func (v *Value) String() string {
	return formatPayload(v.data)
}

func formatPayload(payload any) string {
	switch p := payload.(type) {
	case nil:
		return "null"
	case string:
		return p
	case bool:
		return strconv.FormatBool(p)
	case float64:
		return strconv.FormatFloat(p, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(p, 10)
	case uint64:
		return strconv.FormatUint(p, 10)
	case *Structure:
		return p.String()
	case Callable:
		return "<function " + displayName(p) + ">"
	default:
		return fmt.Sprint(p)
	}
}

func displayName(c Callable) string {
	if c.Name() == "" {
		return "anonymous"
	}
	return c.Name()
}

func goTypeName(v any) string { return fmt.Sprintf("%T", v) }
