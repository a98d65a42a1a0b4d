package testutil

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/vk/shadergrid/internal/toolchain"
)

// Call is one command recorded by FakeRunner.
type Call struct {
	Name string
	Args []string
}

// Argv returns the full command vector.
func (c Call) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// ErrToolFailed is the underlying error of a command FakeRunner fails.
var ErrToolFailed = errors.New("exit status 1")

// FakeRunner records every command it is asked to run and, like the real
// tools, writes the file named by the command's output flag (-Fo, --output
// or -o). The output directory must already exist.
type FakeRunner struct {
	// FailOn makes the Nth call (1-based) fail. Zero never fails.
	FailOn int

	mu    sync.Mutex
	calls []Call
}

// Run implements toolchain.Runner.
func (r *FakeRunner) Run(ctx context.Context, name string, args ...string) error {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Name: name, Args: append([]string(nil), args...)})
	n := len(r.calls)
	r.mu.Unlock()

	if r.FailOn > 0 && n == r.FailOn {
		return &toolchain.CommandError{Name: name, Args: args, Err: ErrToolFailed}
	}

	out := outputPath(args)
	if out == "" {
		return nil
	}
	// Real tools do not create missing output directories either.
	return os.WriteFile(out, []byte(toolchain.CommandLine(name, args)), 0o644)
}

// Calls returns a copy of the recorded commands in invocation order.
func (r *FakeRunner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

func outputPath(args []string) string {
	for i := 0; i < len(args)-1; i++ {
		switch args[i] {
		case "-Fo", "--output", "-o":
			return args[i+1]
		}
	}
	return ""
}
