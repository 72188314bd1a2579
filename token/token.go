package token

import (
	"fmt"
)

// Kind is the category of a lexical token.
type Kind int

// The token kinds recognized by the scanner.
const (
	Invalid Kind = iota

	Plus
	Minus
	Asterisk
	Slash
	Equal
	EqualEqual
	BangEqual

	Greater
	GreaterEqual
	Less
	LessEqual

	ParenLeft
	ParenRight
	BracketLeft
	BracketRight
	BraceLeft
	BraceRight

	Colon
	Comma
	Dot

	String
	True
	False
	Null
	FloatNumber
	IntegerNumber
	UIntegerNumber
	Identifier

	// keywords
	Not
	And
	Or
	Typeof
	Print
	Var
	Structure
	If
	Else
	While
	Function
	Return
)

var kindNames = [...]string{
	Invalid:        "Invalid",
	Plus:           "Plus",
	Minus:          "Minus",
	Asterisk:       "Asterisk",
	Slash:          "Slash",
	Equal:          "Equal",
	EqualEqual:     "EqualEqual",
	BangEqual:      "BangEqual",
	Greater:        "Greater",
	GreaterEqual:   "GreaterEqual",
	Less:           "Less",
	LessEqual:      "LessEqual",
	ParenLeft:      "ParenLeft",
	ParenRight:     "ParenRight",
	BracketLeft:    "BracketLeft",
	BracketRight:   "BracketRight",
	BraceLeft:      "BraceLeft",
	BraceRight:     "BraceRight",
	Colon:          "Colon",
	Comma:          "Comma",
	Dot:            "Dot",
	String:         "String",
	True:           "True",
	False:          "False",
	Null:           "Null",
	FloatNumber:    "FloatNumber",
	IntegerNumber:  "IntegerNumber",
	UIntegerNumber: "UIntegerNumber",
	Identifier:     "Identifier",
	Not:            "Not",
	And:            "And",
	Or:             "Or",
	Typeof:         "Typeof",
	Print:          "Print",
	Var:            "Var",
	Structure:      "Structure",
	If:             "If",
	Else:           "Else",
	While:          "While",
	Function:       "Function",
	Return:         "Return",
}

// String returns the name of the kind, e.g. "EqualEqual".
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsLiteral reports whether tokens of this kind carry a literal payload.
func (k Kind) IsLiteral() bool {
	switch k {
	case String, True, False, Null, FloatNumber, IntegerNumber, UIntegerNumber:
		return true
	}
	return false
}

// Keywords maps reserved words to their token kind.
var Keywords = map[string]Kind{
	"not":       Not,
	"and":       And,
	"or":        Or,
	"typeof":    Typeof,
	"true":      True,
	"false":     False,
	"null":      Null,
	"print":     Print,
	"var":       Var,
	"structure": Structure,
	"if":        If,
	"else":      Else,
	"while":     While,
	"function":  Function,
	"return":    Return,
}

// Lookup returns the keyword kind for ident, or Identifier if ident is not reserved.
func Lookup(ident string) Kind {
	if kind, ok := Keywords[ident]; ok {
		return kind
	}
	return Identifier
}

// Token is a single lexeme produced by the scanner.
//
// Start and End are rune columns within Line (End is exclusive).
// Literal holds the payload of literal tokens: string, bool, float64,
// int64, uint64, or nil for null.
type Token struct {
	Lexeme  string
	Start   int
	End     int
	Line    int
	Kind    Kind
	Literal any
}

// String returns the debug form used by the `tokens` command.
func (t Token) String() string {
	return fmt.Sprintf("%q -> %s", t.Lexeme, t.Kind)
}

// Range is a span of source between two tokens on the same line.
type Range struct {
	Start Token
	End   Token
}

// NewRange builds a range from start to end.
// Both tokens must be on the same line.
func NewRange(start, end Token) (Range, error) {
	if start.Line != end.Line {
		return Range{}, fmt.Errorf("a token range can't span lines %d and %d", start.Line, end.Line)
	}
	return Range{Start: start, End: end}, nil
}

// RangeOf returns the range covering the single token t.
func RangeOf(t Token) *Range {
	return &Range{Start: t, End: t}
}

// Span returns the range from start to end when both tokens share a line,
// and the range of start alone otherwise.
func Span(start, end Token) *Range {
	r, err := NewRange(start, end)
	if err != nil {
		return RangeOf(start)
	}
	return &r
}

// Line returns the line number the range is anchored at.
func (r Range) Line() int { return r.Start.Line }
