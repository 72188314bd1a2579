// Package diag defines the diagnostics shared by every stage of the pipeline:
// the error taxonomy, the error sink the scanner and parser report through,
// and the caret-and-tilde source rendering used by the command line.
package diag

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/canvaz-lang/canvaz/token"
)

// Kind classifies a diagnostic.
type Kind int

const (
	ScanError Kind = iota + 1
	ParseError
	TypeError
	NameError
	RuntimeError
)

func (k Kind) String() string {
	switch k {
	case ScanError:
		return "ScanError"
	case ParseError:
		return "ParseError"
	case TypeError:
		return "TypeError"
	case NameError:
		return "NameError"
	case RuntimeError:
		return "RuntimeError"
	default:
		return "Error"
	}
}

// Error is a language-level diagnostic.
// Range is nil when no source position is known.
type Error struct {
	Kind    Kind
	Message string
	Range   *token.Range
	// Trace lists the calls active when a runtime error was raised,
	// innermost first.
	Trace []Frame
}

// Frame is one call of a runtime error's trace.
type Frame struct {
	Function string
	Call     token.Token
}

func (f Frame) String() string {
	name := f.Function
	if name == "" {
		name = "<anonymous>"
	}
	return fmt.Sprintf("in %s at %d:%d", name, f.Call.Line, f.Call.Start+1)
}

// Errorf creates a new diagnostic of the given kind.
func Errorf(kind Kind, rng *token.Range, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Range: rng}
}

// At creates a diagnostic anchored at a single token.
func At(kind Kind, tok token.Token, format string, args ...any) *Error {
	return Errorf(kind, token.RangeOf(tok), format, args...)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Range == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s: %s", e.Range.Start.Line, e.Range.Start.Start+1, e.Kind, e.Message)
}

// Anchor sets the range of e if it has none yet and returns e.
func (e *Error) Anchor(rng *token.Range) *Error {
	if e.Range == nil {
		e.Range = rng
	}
	return e
}

// As returns err as a *Error when it is (or wraps) one.
func As(err error) (*Error, bool) {
	var d *Error
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// Reporter is the error sink shared by the scanner and the parser.
type Reporter interface {
	Report(err *Error)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(err *Error)

// Report calls f(err).
func (f ReporterFunc) Report(err *Error) { f(err) }

// Discard is a Reporter that drops every diagnostic.
var Discard Reporter = ReporterFunc(func(*Error) {})

// List collects diagnostics in the order they were reported.
type List []*Error

// Report appends err to the list.
func (l *List) Report(err *Error) {
	*l = append(*l, err)
}

// Len returns the number of collected diagnostics.
func (l List) Len() int { return len(l) }

// Sort orders the list by line and column. Diagnostics without a position go last.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i].Range, l[j].Range
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Start.Line != b.Start.Line:
			return a.Start.Line < b.Start.Line
		default:
			return a.Start.Start < b.Start.Start
		}
	})
}

// Error implements the error interface.
func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0], len(l)-1)
}

// Err returns nil for an empty list and the list itself otherwise.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Unwrap exposes the individual diagnostics to errors.Is / errors.As.
func (l List) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}

// Kinds returns the kind of every diagnostic, in order.
func (l List) Kinds() []Kind {
	kinds := make([]Kind, len(l))
	for i, e := range l {
		kinds[i] = e.Kind
	}
	return kinds
}

// Messages returns the message of every diagnostic, in order.
func (l List) Messages() []string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Message
	}
	return msgs
}

// String joins every diagnostic on its own line.
func (l List) String() string {
	var b strings.Builder
	for _, e := range l {
		b.WriteString(e.Error())
		b.WriteByte('\n')
	}
	return b.String()
}
