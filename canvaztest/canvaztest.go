// Package canvaztest runs Canvaz sources against a headless host for tests.
package canvaztest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/canvaz-lang/canvaz"
	"github.com/canvaz-lang/canvaz/host"
	"github.com/canvaz-lang/canvaz/object"
)

// Result provides access to the results of a run.
type Result struct {
	Stdout string
	Host   *host.Headless
	env    *object.Environment
}

// Get returns the payload of a global variable.
func (r *Result) Get(name string) (any, bool) {
	v, err := r.env.Get(name)
	if err != nil {
		return nil, false
	}
	return v.Data(), true
}

// Runner configures the interpreter each run gets.
type Runner struct {
	Frames       int
	MaxCallDepth int
	Logger       *slog.Logger
}

// NewRunner returns a runner whose host closes after frames updates.
func NewRunner(frames int) *Runner {
	return &Runner{Frames: frames}
}

// Run executes source in a fresh interpreter. The result is returned even on
// error so callers can inspect what was printed before it.
func (r *Runner) Run(ctx context.Context, source string) (*Result, error) {
	var out bytes.Buffer
	h := host.NewHeadless(r.Frames, r.Logger)
	opts := []canvaz.Option{
		canvaz.WithStdout(&out),
		canvaz.WithHost(h),
		canvaz.WithMaxCallDepth(r.MaxCallDepth),
	}
	if r.Logger != nil {
		opts = append(opts, canvaz.WithLogger(r.Logger))
	}
	it, err := canvaz.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}
	err = it.Run(ctx, source)
	return &Result{Stdout: out.String(), Host: h, env: it.Env()}, err
}

// Run executes source with a default runner and returns what it printed.
// Any error fails the test.
func Run(t testing.TB, source string) string {
	t.Helper()
	res, err := NewRunner(host.DefaultFrames).Run(context.Background(), source)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return res.Stdout
}
