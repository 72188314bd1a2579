// Package canvaz runs Canvaz programs.
//
// An Interpreter owns a global environment that persists across calls to
// Run, so a REPL can feed it one snippet at a time:
//
//	it, err := canvaz.New(canvaz.WithHost(host.NewHeadless(60, nil)))
//	if err != nil { ... }
//	if err := it.Run(ctx, `print "hello"`); err != nil {
//		it.Report(os.Stderr, src, err)
//	}
package canvaz

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/canvaz-lang/canvaz/ast"
	"github.com/canvaz-lang/canvaz/diag"
	"github.com/canvaz-lang/canvaz/evaluator"
	"github.com/canvaz-lang/canvaz/host"
	"github.com/canvaz-lang/canvaz/object"
	"github.com/canvaz-lang/canvaz/parser"
	"github.com/canvaz-lang/canvaz/scanner"
	"github.com/canvaz-lang/canvaz/stdlib"
	"github.com/canvaz-lang/canvaz/token"
)

// Interpreter is the entry point for running source text.
// It is not safe for concurrent use.
type Interpreter struct {
	stdout   io.Writer
	stderr   io.Writer
	logger   *slog.Logger
	host     stdlib.Host
	color    bool
	maxDepth int

	env  *object.Environment
	eval *evaluator.Evaluator
}

// Option is a functional option for configuring the Interpreter.
type Option func(*Interpreter)

// WithStdout sets where print writes.
func WithStdout(w io.Writer) Option {
	return func(i *Interpreter) {
		i.stdout = w
	}
}

// WithStderr sets where Report writes when given a nil writer.
func WithStderr(w io.Writer) Option {
	return func(i *Interpreter) {
		i.stderr = w
	}
}

// WithLogger sets the logger shared by every stage.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		i.logger = logger
	}
}

// WithHost sets the runtime behind start, update and isOpen.
// The default is a headless host.
func WithHost(h stdlib.Host) Option {
	return func(i *Interpreter) {
		i.host = h
	}
}

// WithColor enables ANSI colors in reported diagnostics.
func WithColor(color bool) Option {
	return func(i *Interpreter) {
		i.color = color
	}
}

// WithMaxCallDepth bounds recursion. Zero keeps evaluator.DefaultMaxCallDepth.
func WithMaxCallDepth(n int) Option {
	return func(i *Interpreter) {
		i.maxDepth = n
	}
}

// New creates an interpreter with the standard library installed.
func New(options ...Option) (*Interpreter, error) {
	i := &Interpreter{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range options {
		opt(i)
	}
	if i.logger == nil {
		i.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	if i.host == nil {
		i.host = host.NewHeadless(host.DefaultFrames, i.logger.WithGroup("host"))
	}

	i.env = object.NewEnvironment(nil)
	if err := stdlib.Install(i.env, i.host, i.logger); err != nil {
		return nil, fmt.Errorf("failed to install stdlib: %w", err)
	}
	i.eval = evaluator.New(evaluator.Config{
		Stdout:       i.stdout,
		Logger:       i.logger.WithGroup("eval"),
		MaxCallDepth: i.maxDepth,
	})
	return i, nil
}

// Env returns the global environment.
func (i *Interpreter) Env() *object.Environment { return i.env }

// Tokens scans source. The error, if any, is a diag.List of scan errors;
// the tokens that did scan are returned either way.
func (i *Interpreter) Tokens(source string) ([]token.Token, error) {
	var errs diag.List
	tokens := scanner.New(&errs, scanner.WithLogger(i.logger.WithGroup("scan"))).Scan(source)
	return tokens, errs.Err()
}

// Check scans and parses source without running it. The error is a sorted
// diag.List holding every scan and parse error.
func (i *Interpreter) Check(source string) ([]ast.Stmt, error) {
	return Check(source, i.logger)
}

// Check is Interpreter.Check for callers that need no interpreter.
func Check(source string, logger *slog.Logger) ([]ast.Stmt, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	var errs diag.List
	tokens := scanner.New(&errs, scanner.WithLogger(logger.WithGroup("scan"))).Scan(source)
	if len(tokens) == 0 {
		return nil, errs.Err()
	}
	stmts, err := parser.New(tokens, &errs, parser.WithLogger(logger.WithGroup("parse"))).Parse()
	if err != nil && len(errs) == 0 {
		return nil, err
	}
	errs.Sort()
	return stmts, errs.Err()
}

// Run checks source and, when it is free of syntax errors, executes it in
// the global environment. Declarations made by a successful run stay visible
// to later runs. Language errors are returned as a diag.List; a cancelled
// context is returned as is.
func (i *Interpreter) Run(ctx context.Context, source string) error {
	stmts, err := i.Check(source)
	if err != nil {
		return err
	}
	if err := i.eval.Interpret(ctx, stmts, i.env); err != nil {
		if d, ok := diag.As(err); ok {
			return diag.List{d}
		}
		return err
	}
	return nil
}

// Report renders err against source. A nil w writes to the configured stderr.
func (i *Interpreter) Report(w io.Writer, source string, err error) error {
	if w == nil {
		w = i.stderr
	}
	return diag.NewPrinter(source, i.color).Fprint(w, err)
}
