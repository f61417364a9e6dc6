// SPDX-License-Identifier: MPL-2.0

package flatpak

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrTool is the sentinel wrapped by ToolError.
var ErrTool = errors.New("toolchain invocation failed")

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Invocation is one call of an external toolchain binary.
	Invocation struct {
		// Binary is the executable name or path (e.g., "flatpak").
		Binary string
		// Args is the argument vector, passed to the process without shell interpolation.
		Args []string
		// TolerateFailure reports a non-zero exit through Result.ExitCode instead of an error.
		// Only installation-status probes set this.
		TolerateFailure bool
	}

	// Result is the captured outcome of an Invocation.
	Result struct {
		ExitCode int
		Stdout   []byte
		Stderr   []byte
	}

	// Runner executes toolchain invocations.
	Runner interface {
		Run(ctx context.Context, inv Invocation) (*Result, error)
	}

	// ToolError is returned when a toolchain binary exits non-zero on an invocation that is
	// not failure-tolerant, or cannot be started at all. The captured output is kept for
	// diagnostics; it is not parsed.
	ToolError struct {
		Invocation Invocation
		ExitCode   int
		Stdout     []byte
		Stderr     []byte
		// Err is the underlying process error (e.g., *exec.ExitError, exec.ErrNotFound).
		Err error
	}

	// ExecRunnerOption configures an ExecRunner.
	ExecRunnerOption func(*ExecRunner)

	// ExecRunner runs invocations as child processes.
	ExecRunner struct {
		execCommand ExecCommandFunc
		logger      *slog.Logger
		dir         string
		env         []string
	}
)

// Error implements the error interface.
func (e *ToolError) Error() string {
	var msg strings.Builder
	msg.WriteString(CommandLine(e.Invocation))
	if e.Err != nil {
		fmt.Fprintf(&msg, ": %v", e.Err)
	} else {
		fmt.Fprintf(&msg, ": exit status %d", e.ExitCode)
	}
	if stderr := strings.TrimSpace(string(e.Stderr)); stderr != "" {
		msg.WriteString(": ")
		msg.WriteString(lastLine(stderr))
	}
	return msg.String()
}

// Unwrap returns ErrTool and the underlying process error so both errors.Is(err, ErrTool)
// and errors.Is(err, exec.ErrNotFound) work.
func (e *ToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTool}
	}
	return []error{ErrTool, e.Err}
}

// NotFound reports whether the binary could not be located at all.
func (e *ToolError) NotFound() bool {
	return errors.Is(e.Err, exec.ErrNotFound)
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) ExecRunnerOption {
	return func(r *ExecRunner) {
		r.execCommand = fn
	}
}

// WithLogger sets the logger that receives invocation and output diagnostics.
func WithLogger(logger *slog.Logger) ExecRunnerOption {
	return func(r *ExecRunner) {
		r.logger = logger
	}
}

// WithDir sets the working directory of spawned processes.
func WithDir(dir string) ExecRunnerOption {
	return func(r *ExecRunner) {
		r.dir = dir
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment of spawned processes.
func WithEnv(env ...string) ExecRunnerOption {
	return func(r *ExecRunner) {
		r.env = append(r.env, env...)
	}
}

// NewExecRunner creates a Runner that spawns real processes.
func NewExecRunner(opts ...ExecRunnerOption) *ExecRunner {
	r := &ExecRunner{
		execCommand: exec.CommandContext,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes inv and waits for it to exit.
//
// A non-zero exit yields a *ToolError unless inv.TolerateFailure is set, in which case
// the exit code is reported in the Result. Failing to start the process is always an error.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	cmd := r.execCommand(ctx, inv.Binary, inv.Args...)
	if r.dir != "" {
		cmd.Dir = r.dir
	}
	if len(r.env) > 0 {
		cmd.Env = append(cmd.Environ(), r.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running", "cmd", CommandLine(inv))
	err := cmd.Run()

	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	r.logOutput(inv, res)

	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, &ToolError{Invocation: inv, ExitCode: -1, Stdout: res.Stdout, Stderr: res.Stderr, Err: err}
	}
	res.ExitCode = exitErr.ExitCode()
	if inv.TolerateFailure {
		r.logger.Debug("tolerated non-zero exit", "cmd", inv.Binary, "exit_code", res.ExitCode)
		return res, nil
	}
	return nil, &ToolError{Invocation: inv, ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr, Err: err}
}

func (r *ExecRunner) logOutput(inv Invocation, res *Result) {
	if len(res.Stdout) > 0 {
		r.logger.Debug("stdout", "cmd", inv.Binary, "output", strings.TrimSpace(string(res.Stdout)))
	}
	if len(res.Stderr) > 0 {
		r.logger.Debug("stderr", "cmd", inv.Binary, "output", strings.TrimSpace(string(res.Stderr)))
	}
}

// CommandLine renders inv as a bash-quoted command line for logs and dry-run output.
func CommandLine(inv Invocation) string {
	words := make([]string, 0, len(inv.Args)+1)
	for _, w := range append([]string{inv.Binary}, inv.Args...) {
		q, err := syntax.Quote(w, syntax.LangBash)
		if err != nil {
			q = fmt.Sprintf("%q", w)
		}
		words = append(words, q)
	}
	return strings.Join(words, " ")
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
