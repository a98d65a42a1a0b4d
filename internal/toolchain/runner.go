package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/vk/shadergrid/internal/ctxlog"
)

// Runner executes one external command and waits for it to exit.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// CommandError reports an external tool that could not be started or that
// exited with a non-zero status.
type CommandError struct {
	Name string
	Args []string
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("failed to run %s: %v", CommandLine(e.Name, e.Args), e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode returns the tool's exit status, or -1 when it never ran to
// completion.
func (e *CommandError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// ExecRunner runs commands as child processes. The tool's own output is
// streamed to Stdout and Stderr so its diagnostics reach the user.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates a runner that streams tool output to the given writers.
func NewExecRunner(stdout, stderr io.Writer) *ExecRunner {
	return &ExecRunner{Stdout: stdout, Stderr: stderr}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Running: " + CommandLine(name, args))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{Name: name, Args: args, Err: err}
		logger.Debug("Tool failed.", "tool", name, "exit_code", cmdErr.ExitCode())
		return cmdErr
	}
	logger.Debug("Tool finished.", "tool", name)
	return nil
}

// DryRunner prints every command instead of running it.
type DryRunner struct {
	Out io.Writer
}

// Run implements Runner.
func (r *DryRunner) Run(ctx context.Context, name string, args ...string) error {
	ctxlog.FromContext(ctx).Debug("Dry run, command not executed.", "tool", name)
	_, err := fmt.Fprintln(r.Out, CommandLine(name, args))
	return err
}

// CommandLine renders a command the way it would be typed in a shell.
func CommandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, p := range append([]string{name}, args...) {
		if p == "" || strings.ContainsAny(p, " \t\"'") {
			p = strconv.Quote(p)
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}
