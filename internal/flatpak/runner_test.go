// SPDX-License-Identifier: MPL-2.0

package flatpak

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type (
	// mockCommandRecorder captures arguments passed to exec.Command for verification.
	// It uses the TestHelperProcess pattern to simulate command execution.
	mockCommandRecorder struct {
		mu          sync.Mutex
		invocations []mockInvocation
		// exitCode is the exit code to return (0 = success)
		exitCode int
		stdout   string
		stderr   string
		// printContext makes the helper print its working directory and FLATPAK_USER_DIR.
		printContext bool
	}

	mockInvocation struct {
		name string
		args []string
	}
)

func (m *mockCommandRecorder) commandFunc(t *testing.T) ExecCommandFunc {
	t.Helper()
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		m.mu.Lock()
		m.invocations = append(m.invocations, mockInvocation{name: name, args: args})
		m.mu.Unlock()

		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		//nolint:gosec // TestHelperProcess is a test-only pattern
		cmd := exec.Command(os.Args[0], cs...) //nolint:noctx // exec.Command used intentionally for test helper
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", m.exitCode),
			"GO_HELPER_STDOUT=" + m.stdout,
			"GO_HELPER_STDERR=" + m.stderr,
		}
		if m.printContext {
			cmd.Env = append(cmd.Env, "GO_HELPER_PRINT_CONTEXT=1")
		}
		return cmd
	}
}

// TestHelperProcess is not a real test. It is re-executed by mockCommandRecorder
// to stand in for the flatpak binaries.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if os.Getenv("GO_HELPER_PRINT_CONTEXT") == "1" {
		wd, _ := os.Getwd()
		fmt.Fprintf(os.Stdout, "%s\n%s\n", wd, os.Getenv("FLATPAK_USER_DIR"))
	}
	if stdout := os.Getenv("GO_HELPER_STDOUT"); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}
	if stderr := os.Getenv("GO_HELPER_STDERR"); stderr != "" {
		fmt.Fprint(os.Stderr, stderr)
	}
	exitCode := 0
	if code := os.Getenv("GO_HELPER_EXIT_CODE"); code != "" {
		fmt.Sscanf(code, "%d", &exitCode)
	}
	os.Exit(exitCode)
}

func TestExecRunner_Success(t *testing.T) {
	t.Parallel()

	mock := &mockCommandRecorder{stdout: "ok"}
	r := NewExecRunner(WithExecCommand(mock.commandFunc(t)))

	res, err := r.Run(t.Context(), Invocation{Binary: "flatpak", Args: []string{"build-init", "/tmp/b"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if string(res.Stdout) != "ok" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "ok")
	}
	if len(mock.invocations) != 1 || mock.invocations[0].name != "flatpak" {
		t.Fatalf("unexpected invocations: %+v", mock.invocations)
	}
	if got := strings.Join(mock.invocations[0].args, " "); got != "build-init /tmp/b" {
		t.Errorf("args = %q", got)
	}
}

func TestExecRunner_DirAndEnv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mock := &mockCommandRecorder{printContext: true}
	r := NewExecRunner(
		WithExecCommand(mock.commandFunc(t)),
		WithDir(dir),
		WithEnv("FLATPAK_USER_DIR=/srv/flatpak-user"),
	)

	res, err := r.Run(t.Context(), Invocation{Binary: "flatpak", Args: []string{"info"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(res.Stdout)), "\n")
	if len(lines) != 2 {
		t.Fatalf("helper output = %q", res.Stdout)
	}
	wantDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	if gotDir, _ := filepath.EvalSymlinks(lines[0]); gotDir != wantDir {
		t.Errorf("working directory = %q, want %q", lines[0], wantDir)
	}
	if lines[1] != "/srv/flatpak-user" {
		t.Errorf("FLATPAK_USER_DIR = %q, want /srv/flatpak-user", lines[1])
	}
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	t.Parallel()

	mock := &mockCommandRecorder{exitCode: 3, stderr: "error: No such ref"}
	r := NewExecRunner(WithExecCommand(mock.commandFunc(t)))

	_, err := r.Run(t.Context(), Invocation{Binary: "flatpak", Args: []string{"build-export"}})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !errors.Is(err, ErrTool) {
		t.Errorf("error should wrap ErrTool, got: %v", err)
	}
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error should be *ToolError, got %T", err)
	}
	if toolErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", toolErr.ExitCode)
	}
	if !strings.Contains(string(toolErr.Stderr), "No such ref") {
		t.Errorf("Stderr not captured: %q", toolErr.Stderr)
	}
	if !strings.Contains(err.Error(), "No such ref") {
		t.Errorf("Error() should include last stderr line, got %q", err.Error())
	}
}

func TestExecRunner_TolerateFailure(t *testing.T) {
	t.Parallel()

	mock := &mockCommandRecorder{exitCode: 1}
	r := NewExecRunner(WithExecCommand(mock.commandFunc(t)))

	res, err := r.Run(t.Context(), Invocation{Binary: "flatpak", Args: []string{"info"}, TolerateFailure: true})
	if err != nil {
		t.Fatalf("tolerated failure should not error, got %v", err)
	}
	if res.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", res.ExitCode)
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	t.Parallel()

	r := NewExecRunner()
	_, err := r.Run(t.Context(), Invocation{
		Binary:          "flatpak-bundler-test-does-not-exist",
		Args:            []string{"info"},
		TolerateFailure: true,
	})
	if err == nil {
		t.Fatal("a binary that cannot start must fail even when failure is tolerated")
	}
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error should be *ToolError, got %T", err)
	}
	if !toolErr.NotFound() {
		t.Errorf("NotFound() = false for missing binary: %v", err)
	}
}

func TestCommandLine_Quotes(t *testing.T) {
	t.Parallel()

	got := CommandLine(Invocation{Binary: "flatpak", Args: []string{"build-export", "--subject=Hello world", "/tmp/repo"}})
	want := "flatpak build-export '--subject=Hello world' /tmp/repo"
	if got != want {
		t.Errorf("CommandLine() = %q, want %q", got, want)
	}
}
