// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "bundle application"},
			expected: "failed to bundle application",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "load manifest", Resource: "hello.yaml"},
			expected: "failed to load manifest: hello.yaml",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "load manifest",
				Resource:  "hello.yaml",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to load manifest: hello.yaml: file not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	root := errors.New("exit status 1")
	err := &ActionableError{
		Operation:   "bundle application",
		Suggestions: []string{"Re-run with --verbose"},
		Cause:       fmt.Errorf("build-export: %w", root),
	}

	short := err.Format(false)
	if !strings.Contains(short, "\n  • Re-run with --verbose") {
		t.Errorf("Format(false) missing suggestion:\n%s", short)
	}
	if strings.Contains(short, "Error chain") {
		t.Errorf("Format(false) must not include the chain:\n%s", short)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "1. build-export: exit status 1") || !strings.Contains(verbose, "2. exit status 1") {
		t.Errorf("Format(true) missing error chain:\n%s", verbose)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	ctx := NewErrorContext().
		WithOperation("load configuration").
		WithResource("config.cue").
		WithSuggestion("Check the CUE syntax").
		WithSuggestions("a", "b").
		WithIssue(ConfigLoadFailedId).
		Wrap(cause)

	ae := ctx.Build()
	if ae == nil {
		t.Fatal("Build() returned nil")
	}
	if ae.Resource != "config.cue" || len(ae.Suggestions) != 3 || ae.IssueID != ConfigLoadFailedId {
		t.Errorf("Build() = %+v", ae)
	}
	if !ae.HasSuggestions() {
		t.Error("HasSuggestions() = false")
	}
	if !errors.Is(ae, cause) {
		t.Error("ActionableError must unwrap to its cause")
	}

	// Later builder calls must not leak into already-built errors.
	ctx.WithSuggestion("later")
	if len(ae.Suggestions) != 3 {
		t.Errorf("Suggestions = %v, built error was mutated", ae.Suggestions)
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	if ae := NewErrorContext().Wrap(errors.New("x")).Build(); ae != nil {
		t.Errorf("Build() = %v, want nil", ae)
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want untyped nil", err)
	}
}

func TestWrapWithContext(t *testing.T) {
	t.Parallel()

	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("WrapWithContext(nil) should be nil")
	}
	err := WrapWithContext(errors.New("denied"), "create directory", "/build")
	if err.Error() != "failed to create directory: /build: denied" {
		t.Errorf("Error() = %q", err.Error())
	}
}
