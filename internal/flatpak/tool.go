// SPDX-License-Identifier: MPL-2.0

package flatpak

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultBinary is the flatpak executable looked up on PATH.
	DefaultBinary = "flatpak"
	// DefaultBuilderBinary is the flatpak-builder executable looked up on PATH.
	DefaultBuilderBinary = "flatpak-builder"

	// ScopeUser is the per-user installation.
	ScopeUser Scope = "user"
	// ScopeSystem is the system-wide installation.
	ScopeSystem Scope = "system"
)

// ErrInvalidScope is the sentinel error wrapped by InvalidScopeError.
var ErrInvalidScope = errors.New("invalid installation scope")

type (
	// Scope is an installation namespace. A ref may be installed in either or both.
	Scope string

	// InvalidScopeError is returned when a Scope is not user or system.
	InvalidScopeError struct {
		Value Scope
	}

	// ToolOption configures a Tool.
	ToolOption func(*Tool)

	// Tool builds and runs flatpak and flatpak-builder invocations.
	Tool struct {
		runner        Runner
		binary        string
		builderBinary string
	}

	// BuildInitOptions are the inputs of `flatpak build-init`.
	BuildInitOptions struct {
		Arch           string
		BuildDir       string
		AppID          string
		SDK            string
		Runtime        string
		RuntimeVersion string
		Base           string
		BaseVersion    string
		ExtraArgs      []string
	}

	// BuildFinishOptions are the inputs of `flatpak build-finish`.
	BuildFinishOptions struct {
		BuildDir   string
		Command    string
		FinishArgs []string
		ExtraArgs  []string
	}

	// BuilderOptions are the inputs of a `flatpak-builder` invocation.
	BuilderOptions struct {
		Arch         string
		BuildDir     string
		ManifestPath string
		StateDir     string
		ExtraArgs    []string
	}

	// ExportOptions are the inputs of `flatpak build-export`.
	ExportOptions struct {
		Arch       string
		RepoDir    string
		BuildDir   string
		Branch     string
		GPGSign    string
		GPGHomedir string
		Subject    string
		Body       string
		Runtime    bool
		ExtraArgs  []string
	}

	// BundleOptions are the inputs of `flatpak build-bundle`.
	BundleOptions struct {
		Arch       string
		RepoDir    string
		BundlePath string
		AppID      string
		Branch     string
		GPGSign    string
		GPGHomedir string
		RepoURL    string
		Runtime    bool
		ExtraArgs  []string
	}
)

// Error implements the error interface.
func (e *InvalidScopeError) Error() string {
	return fmt.Sprintf("invalid installation scope %q (valid: user, system)", e.Value)
}

// Unwrap returns ErrInvalidScope for errors.Is() compatibility.
func (e *InvalidScopeError) Unwrap() error { return ErrInvalidScope }

// Validate returns an error if the Scope is not user or system.
func (s Scope) Validate() error {
	switch s {
	case ScopeUser, ScopeSystem:
		return nil
	default:
		return &InvalidScopeError{Value: s}
	}
}

// String returns the string representation of the Scope.
func (s Scope) String() string { return string(s) }

// Flag returns the command-line flag selecting the scope (--user or --system).
func (s Scope) Flag() string { return "--" + string(s) }

// WithBinary overrides the flatpak executable.
func WithBinary(path string) ToolOption {
	return func(t *Tool) {
		if path != "" {
			t.binary = path
		}
	}
}

// WithBuilderBinary overrides the flatpak-builder executable.
func WithBuilderBinary(path string) ToolOption {
	return func(t *Tool) {
		if path != "" {
			t.builderBinary = path
		}
	}
}

// NewTool creates a Tool that sends its invocations to runner.
func NewTool(runner Runner, opts ...ToolOption) *Tool {
	t := &Tool{
		runner:        runner,
		binary:        DefaultBinary,
		builderBinary: DefaultBuilderBinary,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Runner returns the runner invocations are sent to.
func (t *Tool) Runner() Runner { return t.runner }

// RefName joins an id and an optional branch into a flatpak ref (id//branch).
func RefName(id, branch string) string {
	if branch == "" {
		return id
	}
	return id + "//" + branch
}

// --- Argument Builders ---

// InfoArgs constructs arguments for an installation-status probe.
//
// Generated command: flatpak info --<scope> [--arch=A] <ref>
func (t *Tool) InfoArgs(scope Scope, arch, ref string) []string {
	args := []string{"info", scope.Flag()}
	args = appendOption(args, "arch", arch)
	return append(args, ref)
}

// InstallArgs constructs arguments for installing a ref from a reference descriptor.
// Transitive dependencies are never pulled in.
//
// Generated command: flatpak install --<scope> --noninteractive --no-deps [--arch=A] --from <descriptor>
func (t *Tool) InstallArgs(scope Scope, arch, descriptor string) []string {
	args := []string{"install", scope.Flag(), "--noninteractive", "--no-deps"}
	args = appendOption(args, "arch", arch)
	return append(args, "--from", descriptor)
}

// UpdateArgs constructs arguments for updating an installed ref.
//
// Generated command: flatpak update --<scope> --noninteractive --no-deps [--arch=A] <ref>
func (t *Tool) UpdateArgs(scope Scope, arch, ref string) []string {
	args := []string{"update", scope.Flag(), "--noninteractive", "--no-deps"}
	args = appendOption(args, "arch", arch)
	return append(args, ref)
}

// BuildInitArgs constructs arguments for initializing a build directory.
//
// Generated command: flatpak build-init [options] <dir> <id> <sdk> <runtime> [<runtime-version>]
func (t *Tool) BuildInitArgs(opts BuildInitOptions) []string {
	args := []string{"build-init"}
	args = appendOption(args, "arch", opts.Arch)
	args = appendOption(args, "base", opts.Base)
	if opts.Base != "" {
		args = appendOption(args, "base-version", opts.BaseVersion)
	}
	args = append(args, opts.ExtraArgs...)
	args = append(args, opts.BuildDir, opts.AppID, opts.SDK, opts.Runtime)
	if opts.RuntimeVersion != "" {
		args = append(args, opts.RuntimeVersion)
	}
	return args
}

// BuildFinishArgs constructs arguments for finalizing a build directory.
//
// Generated command: flatpak build-finish [--command=C] [finish-args...] <dir>
func (t *Tool) BuildFinishArgs(opts BuildFinishOptions) []string {
	args := []string{"build-finish"}
	args = appendOption(args, "command", opts.Command)
	args = append(args, opts.FinishArgs...)
	args = append(args, opts.ExtraArgs...)
	return append(args, opts.BuildDir)
}

// BuilderBuildOnlyArgs constructs arguments for the structure-creation step of flatpak-builder.
// The build directory is always recreated.
//
// Generated command: flatpak-builder [--arch=A] --force-clean [--state-dir=S] --build-only [extra...] <dir> <manifest>
func (t *Tool) BuilderBuildOnlyArgs(opts BuilderOptions) []string {
	args := appendOption(nil, "arch", opts.Arch)
	args = append(args, "--force-clean")
	args = appendOption(args, "state-dir", opts.StateDir)
	args = append(args, "--build-only")
	args = append(args, opts.ExtraArgs...)
	return append(args, opts.BuildDir, opts.ManifestPath)
}

// BuilderFinishOnlyArgs constructs arguments for the finalize step of flatpak-builder.
//
// Generated command: flatpak-builder [--arch=A] [--state-dir=S] --finish-only [extra...] <dir> <manifest>
func (t *Tool) BuilderFinishOnlyArgs(opts BuilderOptions) []string {
	args := appendOption(nil, "arch", opts.Arch)
	args = appendOption(args, "state-dir", opts.StateDir)
	args = append(args, "--finish-only")
	args = append(args, opts.ExtraArgs...)
	return append(args, opts.BuildDir, opts.ManifestPath)
}

// BuildExportArgs constructs arguments for exporting a build directory into a repository.
//
// Generated command: flatpak build-export [options] <repo> <dir> <branch>
func (t *Tool) BuildExportArgs(opts ExportOptions) []string {
	args := []string{"build-export"}
	args = appendOption(args, "arch", opts.Arch)
	args = appendOption(args, "gpg-sign", opts.GPGSign)
	args = appendOption(args, "gpg-homedir", opts.GPGHomedir)
	args = appendOption(args, "subject", opts.Subject)
	args = appendOption(args, "body", opts.Body)
	if opts.Runtime {
		args = append(args, "--runtime")
	}
	args = append(args, opts.ExtraArgs...)
	return append(args, opts.RepoDir, opts.BuildDir, opts.Branch)
}

// BuildBundleArgs constructs arguments for creating a single-file bundle.
//
// Generated command: flatpak build-bundle [options] <repo> <file> <id> <branch>
func (t *Tool) BuildBundleArgs(opts BundleOptions) []string {
	args := []string{"build-bundle"}
	args = appendOption(args, "arch", opts.Arch)
	args = appendOption(args, "gpg-sign", opts.GPGSign)
	args = appendOption(args, "gpg-homedir", opts.GPGHomedir)
	args = appendOption(args, "repo-url", opts.RepoURL)
	if opts.Runtime {
		args = append(args, "--runtime")
	}
	args = append(args, opts.ExtraArgs...)
	return append(args, opts.RepoDir, opts.BundlePath, opts.AppID, opts.Branch)
}

// --- Command Execution ---

// Info reports whether ref is installed in scope. A non-zero exit of the probe means
// "not installed" and is not an error.
func (t *Tool) Info(ctx context.Context, scope Scope, arch, ref string) (bool, error) {
	if err := scope.Validate(); err != nil {
		return false, err
	}
	res, err := t.runner.Run(ctx, Invocation{
		Binary:          t.binary,
		Args:            t.InfoArgs(scope, arch, ref),
		TolerateFailure: true,
	})
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}

// Install installs a ref from descriptor into scope.
func (t *Tool) Install(ctx context.Context, scope Scope, arch, descriptor string) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	return t.run(ctx, t.binary, t.InstallArgs(scope, arch, descriptor))
}

// Update updates an installed ref in scope.
func (t *Tool) Update(ctx context.Context, scope Scope, arch, ref string) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	return t.run(ctx, t.binary, t.UpdateArgs(scope, arch, ref))
}

// BuildInit runs `flatpak build-init`.
func (t *Tool) BuildInit(ctx context.Context, opts BuildInitOptions) error {
	return t.run(ctx, t.binary, t.BuildInitArgs(opts))
}

// BuildFinish runs `flatpak build-finish`.
func (t *Tool) BuildFinish(ctx context.Context, opts BuildFinishOptions) error {
	return t.run(ctx, t.binary, t.BuildFinishArgs(opts))
}

// BuilderBuildOnly runs `flatpak-builder --build-only`.
func (t *Tool) BuilderBuildOnly(ctx context.Context, opts BuilderOptions) error {
	return t.run(ctx, t.builderBinary, t.BuilderBuildOnlyArgs(opts))
}

// BuilderFinishOnly runs `flatpak-builder --finish-only`.
func (t *Tool) BuilderFinishOnly(ctx context.Context, opts BuilderOptions) error {
	return t.run(ctx, t.builderBinary, t.BuilderFinishOnlyArgs(opts))
}

// BuildExport runs `flatpak build-export`.
func (t *Tool) BuildExport(ctx context.Context, opts ExportOptions) error {
	return t.run(ctx, t.binary, t.BuildExportArgs(opts))
}

// BuildBundle runs `flatpak build-bundle`.
func (t *Tool) BuildBundle(ctx context.Context, opts BundleOptions) error {
	return t.run(ctx, t.binary, t.BuildBundleArgs(opts))
}

func (t *Tool) run(ctx context.Context, binary string, args []string) error {
	_, err := t.runner.Run(ctx, Invocation{Binary: binary, Args: args})
	return err
}

// appendOption appends --name=value, skipping empty values.
func appendOption(args []string, name, value string) []string {
	if strings.TrimSpace(value) == "" {
		return args
	}
	return append(args, "--"+name+"="+value)
}
