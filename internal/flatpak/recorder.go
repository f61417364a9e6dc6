// SPDX-License-Identifier: MPL-2.0

package flatpak

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Compile-time interface checks
var (
	_ Runner = (*ExecRunner)(nil)
	_ Runner = (*Recorder)(nil)
)

type (
	// RespondFunc decides the outcome of a recorded invocation.
	// Returning a Result with a non-zero ExitCode behaves like a real process exiting
	// with that code; returning an error behaves like a process that failed to start.
	RespondFunc func(inv Invocation) (*Result, error)

	// Recorder is a Runner that records invocations instead of spawning processes.
	// It backs --dry-run and serves as the process test double. Safe for concurrent use.
	Recorder struct {
		mu          sync.Mutex
		invocations []Invocation
		respond     RespondFunc
		logger      *slog.Logger
	}
)

// NewRecorder creates a Recorder. A nil respond makes every invocation succeed.
func NewRecorder(respond RespondFunc) *Recorder {
	return &Recorder{respond: respond, logger: slog.Default()}
}

// SetLogger sets the logger dry-run invocations are reported to.
func (r *Recorder) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

// Run records inv and returns the scripted outcome.
func (r *Recorder) Run(_ context.Context, inv Invocation) (*Result, error) {
	inv.Args = slices.Clone(inv.Args)

	r.mu.Lock()
	r.invocations = append(r.invocations, inv)
	respond := r.respond
	r.mu.Unlock()

	r.logger.Debug("recorded", "cmd", CommandLine(inv))

	res := &Result{}
	if respond != nil {
		var err error
		res, err = respond(inv)
		if err != nil {
			return nil, &ToolError{Invocation: inv, ExitCode: -1, Err: err}
		}
		if res == nil {
			res = &Result{}
		}
	}
	if res.ExitCode != 0 && !inv.TolerateFailure {
		return nil, &ToolError{Invocation: inv, ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr}
	}
	return res, nil
}

// Invocations returns a copy of everything recorded so far, in call order.
func (r *Recorder) Invocations() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.invocations)
}

// Subcommands returns the first argument of every recorded invocation.
func (r *Recorder) Subcommands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := make([]string, 0, len(r.invocations))
	for _, inv := range r.invocations {
		if len(inv.Args) > 0 {
			subs = append(subs, inv.Args[0])
		}
	}
	return subs
}
