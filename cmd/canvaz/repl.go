package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/canvaz-lang/canvaz"
	"github.com/canvaz-lang/canvaz/diag"
	"github.com/canvaz-lang/canvaz/token"
	"github.com/peterh/liner"
)

const (
	historyFile = ".canvaz_history"
	promptMain  = "canvaz> "
	promptCont  = "   ...> "
)

const replHelp = `Enter statements to run them. Declarations persist between inputs.
Unbalanced braces or parentheses continue the input on the next line.

  :env   list global variables and structures
  :help  show this help
  :quit  leave the session
`

// prompter is the part of *liner.State the session uses.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

func cmdRepl(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	opts.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := opts.load(fs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	it, _, err := newInterpreter(cfg, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(stdout, "canvaz %s. Type :help for help.\n", version)
	return session(ctx, it, ln, stdout, stderr)
}

// session reads inputs until :quit or end of input.
func session(ctx context.Context, it *canvaz.Interpreter, p prompter, stdout, stderr io.Writer) int {
	for {
		code, ok := readInput(it, p)
		if !ok {
			fmt.Fprintln(stdout)
			return 0
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		p.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return 0
			case ":help":
				fmt.Fprint(stdout, replHelp)
			case ":env":
				printEnv(it, stdout)
			default:
				fmt.Fprintf(stderr, "unknown command %s. Type :help for help.\n", trimmed)
			}
			continue
		}

		if err := it.Run(ctx, code); err != nil {
			if errors.Is(err, context.Canceled) {
				return 130
			}
			_ = it.Report(stderr, code, err)
		}
	}
}

// readInput prompts until the input is balanced. It returns false at the
// end of input or when the prompt is aborted.
func readInput(it *canvaz.Interpreter, p prompter) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := p.Prompt(prompt)
		if err != nil {
			if b.Len() > 0 && errors.Is(err, liner.ErrPromptAborted) {
				return "", true
			}
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || complete(it, src) {
			return src, true
		}
	}
}

// complete reports whether src has no unclosed brace, parenthesis, string
// or block comment.
func complete(it *canvaz.Interpreter, src string) bool {
	tokens, err := it.Tokens(src)
	var list diag.List
	if errors.As(err, &list) {
		for _, msg := range list.Messages() {
			if msg == "Unclosed string." || msg == "Unclosed comment." {
				return false
			}
		}
	}
	depth := 0
	for _, tok := range tokens {
		switch tok.Kind {
		case token.BraceLeft, token.ParenLeft:
			depth++
		case token.BraceRight, token.ParenRight:
			depth--
		}
	}
	return depth <= 0
}

func printEnv(it *canvaz.Interpreter, w io.Writer) {
	env := it.Env()
	for _, name := range env.StructureNames() {
		fmt.Fprintf(w, "structure %s\n", name)
	}
	for _, name := range env.Names() {
		v, err := env.Get(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%s: %s = %s\n", name, v.TypeName(), v)
	}
}
