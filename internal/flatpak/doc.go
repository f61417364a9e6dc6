// SPDX-License-Identifier: MPL-2.0

// Package flatpak drives the external flatpak and flatpak-builder command-line tools.
//
// Every invocation goes through a Runner. ExecRunner spawns the real binaries with a
// direct argument vector (no shell in between), captures stdout and stderr, and turns
// a non-zero exit into a *ToolError unless the Invocation is marked TolerateFailure.
// Recorder is an in-memory Runner used for dry runs and as a test double.
//
// Tool builds the argument vectors for each toolchain subcommand on top of a Runner:
//
//	tool := flatpak.NewTool(flatpak.NewExecRunner())
//	installed, err := tool.Info(ctx, flatpak.ScopeUser, "x86_64", "org.freedesktop.Platform//23.08")
//
// The argument builders (BuildInitArgs, BuildExportArgs, ...) are pure and exported so
// callers can render a command line without executing it.
package flatpak
