// Command canvaz runs, checks and explores Canvaz programs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/canvaz-lang/canvaz"
	"github.com/canvaz-lang/canvaz/ast"
	"github.com/canvaz-lang/canvaz/config"
	"github.com/canvaz-lang/canvaz/diag"
	"github.com/canvaz-lang/canvaz/host"
	"golang.org/x/sync/errgroup"
)

const version = "v0.1.0"

const usage = `Usage: canvaz <command> [options] [arguments]

Commands:
  run [-config file] [-log-level level] [-frames n] [-no-color] <file>
  tokens <file>
  parse <file>
  check <file>...
  repl [-config file] [-log-level level]
  version
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	switch args[0] {
	case "run":
		return cmdRun(ctx, args[1:], stdout, stderr)
	case "tokens":
		return cmdTokens(args[1:], stdout, stderr)
	case "parse":
		return cmdParse(args[1:], stdout, stderr)
	case "check":
		return cmdCheck(ctx, args[1:], stdout, stderr)
	case "repl":
		return cmdRepl(ctx, args[1:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "canvaz %s (config %s, %s)\n", version, config.Version, runtime.Version())
		return 0
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	}
	fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
	return 2
}

// options are the flags shared by run and repl.
type options struct {
	configPath string
	logLevel   string
	frames     int
	noColor    bool
}

func (o *options) register(fs *flag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "configuration file (default: canvaz.yaml, canvaz.yml or canvaz.toml in the current directory)")
	fs.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.IntVar(&o.frames, "frames", 0, "frames the headless window stays open for")
	fs.BoolVar(&o.noColor, "no-color", false, "disable colored diagnostics")
}

// load reads the configuration and applies the flags given explicitly.
func (o *options) load(fs *flag.FlagSet) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, err = config.Find(".")
	}
	if err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.Log.Level = o.logLevel
		case "frames":
			cfg.Host.Frames = o.frames
		case "no-color":
			cfg.Color = !o.noColor
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

func newInterpreter(cfg *config.Config, stdout, stderr io.Writer) (*canvaz.Interpreter, *slog.Logger, error) {
	logger := cfg.Logger(stderr)
	it, err := canvaz.New(
		canvaz.WithStdout(stdout),
		canvaz.WithStderr(stderr),
		canvaz.WithLogger(logger),
		canvaz.WithColor(cfg.Color),
		canvaz.WithMaxCallDepth(cfg.MaxCallDepth),
		canvaz.WithHost(host.NewHeadless(cfg.Host.Frames, logger.WithGroup("host"))),
	)
	return it, logger, err
}

func cmdRun(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	opts.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg, err := opts.load(fs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	filename := fs.Arg(0)
	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	it, logger, err := newInterpreter(cfg, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger.Info("run", "file", filename, "config", cfg.Path)
	if err := it.Run(ctx, string(src)); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "interrupted")
			return 130
		}
		_ = it.Report(stderr, string(src), err)
		return 1
	}
	return 0
}

func cmdTokens(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	it, err := canvaz.New(canvaz.WithStdout(stdout), canvaz.WithStderr(stderr))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	tokens, err := it.Tokens(string(src))
	for _, tok := range tokens {
		fmt.Fprintln(stdout, tok)
	}
	if err != nil {
		_ = it.Report(stderr, string(src), err)
		return 1
	}
	return 0
}

func cmdParse(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	stmts, err := canvaz.Check(string(src), nil)
	fmt.Fprint(stdout, ast.Strings(stmts))
	if err != nil {
		_ = diag.NewPrinter(string(src), false).Fprint(stderr, err)
		return 1
	}
	return 0
}

// checkResult is the outcome of checking one file.
type checkResult struct {
	source string
	err    error
}

// cmdCheck scans and parses every file in parallel and reports them in
// argument order.
func cmdCheck(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	noColor := fs.Bool("no-color", false, "disable colored diagnostics")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	results := make([]checkResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, filename := range files {
		i, filename := i, filename
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(filename)
			if err != nil {
				return err
			}
			_, err = canvaz.Check(string(src), nil)
			results[i] = checkResult{source: string(src), err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	status := 0
	for i, res := range results {
		if res.err == nil {
			fmt.Fprintf(stdout, "%s: ok\n", files[i])
			continue
		}
		status = 1
		fmt.Fprintf(stderr, "%s:\n", files[i])
		_ = diag.NewPrinter(res.source, !*noColor).Fprint(stderr, res.err)
	}
	return status
}
