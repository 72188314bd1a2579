package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/canvaz-lang/canvaz/token"
)

const (
	colorRed       = "\x1b[31m"
	colorBrightRed = "\x1b[91m"
	colorReset     = "\x1b[0m"
)

// Printer renders diagnostics against the source they were produced from.
type Printer struct {
	lines []string
	Color bool
}

// NewPrinter returns a printer for source.
func NewPrinter(source string, color bool) *Printer {
	return &Printer{lines: strings.Split(source, "\n"), Color: color}
}

// Format renders a single error. Diagnostics with a known range are followed
// by the offending source line and a caret-and-tilde marker:
//
//	TypeError: '+' is not applicable for 'Integer' and 'String'.
//	3. print 1 + "a"
//	           ^
//
// A runtime error's call trace follows, one frame per line.
// Any other error renders as its message.
func (p *Printer) Format(err error) string {
	if list, ok := err.(List); ok {
		var b strings.Builder
		for _, e := range list {
			b.WriteString(p.Format(e))
		}
		return b.String()
	}
	d, ok := As(err)
	if !ok {
		return err.Error() + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", d.Kind, d.Message)
	p.source(&b, d.Range)
	for _, f := range d.Trace {
		fmt.Fprintf(&b, "\t%s\n", f)
	}
	return b.String()
}

func (p *Printer) source(b *strings.Builder, rng *token.Range) {
	if rng == nil {
		return
	}
	lineNo := rng.Start.Line
	if lineNo < 1 || lineNo > len(p.lines) {
		return
	}
	line := []rune(strings.TrimRight(p.lines[lineNo-1], "\r"))
	start, end := p.clamp(len(line), rng.Start.Start, rng.End.End)

	prefix := fmt.Sprintf("%d. ", lineNo)
	b.WriteString(prefix)
	b.WriteString(p.highlight(line, start, end))
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(" ", len(prefix)))
	b.WriteString(p.arrow(start, end))
	b.WriteByte('\n')
}

// Fprint writes the rendering of err to w.
func (p *Printer) Fprint(w io.Writer, err error) error {
	_, werr := io.WriteString(w, p.Format(err))
	return werr
}

// clamp limits the rune columns start and end to a line of n runes.
func (p *Printer) clamp(n, start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	if end <= start {
		end = start + 1
	}
	return start, end
}

func (p *Printer) arrow(start, end int) string {
	var b strings.Builder
	if p.Color {
		b.WriteString(colorBrightRed)
	}
	for i := 0; i < end; i++ {
		switch {
		case i == start:
			b.WriteByte('^')
		case i > start:
			b.WriteByte('~')
		default:
			b.WriteByte(' ')
		}
	}
	if p.Color {
		b.WriteString(colorReset)
	}
	return b.String()
}

func (p *Printer) highlight(line []rune, start, end int) string {
	if !p.Color || start >= len(line) {
		return string(line)
	}
	if end > len(line) {
		end = len(line)
	}
	return string(line[:start]) + colorRed + string(line[start:end]) + colorReset + string(line[end:])
}
