package object

import (
	"strings"

	"github.com/canvaz-lang/canvaz/ast"
	"github.com/canvaz-lang/canvaz/diag"
	"github.com/canvaz-lang/canvaz/token"
	"github.com/iancoleman/orderedmap"
)

// StructureDeclaration is a declared record type. Members keeps declaration
// order and maps each member name to its *ast.Parameter.
type StructureDeclaration struct {
	Name    string
	Members *orderedmap.OrderedMap
	Scope   *Environment // where member types and defaults are resolved
}

// NewStructureDeclaration builds a declaration from its member list.
func NewStructureDeclaration(name string, members []*ast.Parameter, scope *Environment) *StructureDeclaration {
	m := orderedmap.New()
	for _, p := range members {
		m.Set(p.Name.Lexeme, p)
	}
	return &StructureDeclaration{Name: name, Members: m, Scope: scope}
}

// Member returns the declaration of the named member.
func (d *StructureDeclaration) Member(name string) (*ast.Parameter, bool) {
	v, ok := d.Members.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*ast.Parameter), true
}

// MemberNames returns the member names in declaration order.
func (d *StructureDeclaration) MemberNames() []string {
	return d.Members.Keys()
}

// Structure is an instance of a StructureDeclaration. Members maps every
// declared member name, in declaration order, to its *Value.
type Structure struct {
	Decl    *StructureDeclaration
	Members *orderedmap.OrderedMap
}

// NewStructure returns an instance with no members set yet.
func NewStructure(decl *StructureDeclaration) *Structure {
	return &Structure{Decl: decl, Members: orderedmap.New()}
}

// Init stores the cell of a member. It is used while the instance is built.
func (s *Structure) Init(name string, v *Value) {
	s.Members.Set(name, v)
}

// Get returns the cell of the named member.
func (s *Structure) Get(name token.Token) (*Value, error) {
	v, ok := s.Members.Get(name.Lexeme)
	if !ok {
		return nil, diag.At(diag.NameError, name, "Structure %q has no member %q.", s.Decl.Name, name.Lexeme)
	}
	return v.(*Value), nil
}

// Set assigns payload to the named member, honoring its type pin.
func (s *Structure) Set(name token.Token, payload any, rng *token.Range) error {
	cell, err := s.Get(name)
	if err != nil {
		return err
	}
	return cell.Set(payload, rng)
}

// String renders the instance as `Name { a: 1, b: 2 }`.
func (s *Structure) String() string {
	var b strings.Builder
	b.WriteString(s.Decl.Name)
	b.WriteString(" {")
	for i, name := range s.Members.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		v, _ := s.Members.Get(name)
		b.WriteString(" " + name + ": " + formatMember(v.(*Value)))
	}
	if len(s.Members.Keys()) > 0 {
		b.WriteByte(' ')
	}
	b.WriteByte('}')
	return b.String()
}

func formatMember(v *Value) string {
	if s, ok := v.Data().(string); ok {
		return `"` + s + `"`
	}
	return v.String()
}
