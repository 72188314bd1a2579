package object

import (
	"sort"

	"github.com/canvaz-lang/canvaz/diag"
	"github.com/canvaz-lang/canvaz/token"
)

// Environment is one lexical frame. Variables and structure declarations
// live in separate namespaces; lookups walk outward through enclosing frames.
type Environment struct {
	values     map[string]*Value
	structures map[string]*StructureDeclaration
	enclosing  *Environment
}

// NewEnvironment creates a frame enclosed by enclosing, which may be nil for
// the root frame.
func NewEnvironment(enclosing *Environment) *Environment {
	return &Environment{
		values:     make(map[string]*Value),
		structures: make(map[string]*StructureDeclaration),
		enclosing:  enclosing,
	}
}

// Enclosing returns the parent frame.
func (e *Environment) Enclosing() *Environment { return e.enclosing }

// Declare binds name in this frame. Redeclaring a name of the same frame is a
// NameError; shadowing a name of an enclosing frame is allowed.
// Errors carry no position.
func (e *Environment) Declare(name string, v *Value) error {
	if e.Exists(name) {
		return diag.Errorf(diag.NameError, nil, "Identifier %q has already been defined.", name)
	}
	e.values[name] = v
	return nil
}

// Get returns the cell bound to name in the nearest frame that has it.
func (e *Environment) Get(name string) (*Value, error) {
	for env := e; env != nil; env = env.enclosing {
		if v, ok := env.values[name]; ok {
			return v, nil
		}
	}
	return nil, diag.Errorf(diag.NameError, nil, "Undefined identifier %q", name)
}

// Assign stores payload in the cell bound to name, honoring its type pin.
// rng locates the assignment for type errors.
func (e *Environment) Assign(name string, payload any, rng *token.Range) error {
	v, err := e.Get(name)
	if err != nil {
		return err
	}
	return v.Set(payload, rng)
}

// Exists reports whether name is bound in this frame only.
func (e *Environment) Exists(name string) bool {
	_, ok := e.values[name]
	return ok
}

// DeclareStructure registers a structure declaration in this frame.
func (e *Environment) DeclareStructure(decl *StructureDeclaration) error {
	if e.ExistsStructure(decl.Name) {
		return diag.Errorf(diag.NameError, nil, "Structure %q has already been defined.", decl.Name)
	}
	e.structures[decl.Name] = decl
	return nil
}

// Structure returns the nearest declaration of the named structure.
func (e *Environment) Structure(name string) (*StructureDeclaration, error) {
	for env := e; env != nil; env = env.enclosing {
		if d, ok := env.structures[name]; ok {
			return d, nil
		}
	}
	return nil, diag.Errorf(diag.NameError, nil, "Undefined structure %q", name)
}

// ExistsStructure reports whether name is declared as a structure in this frame only.
func (e *Environment) ExistsStructure(name string) bool {
	_, ok := e.structures[name]
	return ok
}

// Names returns the variable names bound in this frame, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StructureNames returns the structure names declared in this frame, sorted.
func (e *Environment) StructureNames() []string {
	names := make([]string, 0, len(e.structures))
	for name := range e.structures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
