// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"errors"
	"fmt"
	"path/filepath"
	goruntime "runtime"

	"flatpak-bundler/pkg/manifest"
)

const (
	// BuilderModeBuildInit creates the build directory with `flatpak build-init`
	// and finalizes it with `flatpak build-finish`.
	BuilderModeBuildInit BuilderMode = "build-init"
	// BuilderModeFlatpakBuilder drives `flatpak-builder --build-only` and
	// `flatpak-builder --finish-only` against the generated manifest.
	BuilderModeFlatpakBuilder BuilderMode = "flatpak-builder"
)

// ErrInvalidBuilderMode is the sentinel error wrapped by InvalidBuilderModeError.
var ErrInvalidBuilderMode = errors.New("invalid builder mode")

type (
	// BuilderMode selects the toolchain invocation shape around file materialization.
	BuilderMode string

	// InvalidBuilderModeError is returned when a BuilderMode value is not recognized.
	InvalidBuilderModeError struct {
		Value BuilderMode
	}

	// Options describe how and where a build happens.
	// Paths left empty are derived from WorkingDir once it exists.
	Options struct {
		WorkingDir   string
		BuildDir     string
		RepoDir      string
		ManifestPath string
		// BundlePath, when set, is where the single-file bundle is written.
		// When empty the pipeline stops after exporting to RepoDir.
		BundlePath string
		// StateDir is the flatpak-builder state directory (BuilderModeFlatpakBuilder only).
		StateDir string

		// Arch is the target architecture. Host-style aliases (x64, amd64, ia32, armv7l)
		// are mapped to flatpak names.
		Arch        string
		BuilderMode BuilderMode

		// Nil means "decide from the manifest": true iff the matching reference descriptor is set.
		AutoInstallRuntime *bool
		AutoInstallSDK     *bool
		AutoInstallBase    *bool

		// CleanTmpdirs removes temporary directories allocated by the run when the
		// Bundler is closed. Nil means true.
		CleanTmpdirs *bool

		// RenameFiles renames the single desktop entry and its icons to match the app id.
		RenameFiles bool

		GPGSign       string
		GPGHomedir    string
		Subject       string
		Body          string
		BundleRepoURL string
		// BuildRuntime exports and bundles a runtime instead of an application.
		BuildRuntime bool
	}
)

// archAliases maps host naming conventions onto flatpak architecture names.
var archAliases = map[string]string{
	"ia32":   "i386",
	"x64":    "x86_64",
	"amd64":  "x86_64",
	"armv7l": "arm",
}

// goArchNames maps GOARCH values onto flatpak architecture names.
var goArchNames = map[string]string{
	"amd64": "x86_64",
	"386":   "i386",
	"arm64": "aarch64",
	"arm":   "arm",
}

// Error implements the error interface.
func (e *InvalidBuilderModeError) Error() string {
	return fmt.Sprintf("invalid builder mode %q (valid: build-init, flatpak-builder)", e.Value)
}

// Unwrap returns ErrInvalidBuilderMode for errors.Is() compatibility.
func (e *InvalidBuilderModeError) Unwrap() error { return ErrInvalidBuilderMode }

// Validate returns an error if the BuilderMode is not recognized.
// The zero value is valid and means BuilderModeBuildInit.
func (m BuilderMode) Validate() error {
	switch m {
	case BuilderModeBuildInit, BuilderModeFlatpakBuilder, "":
		return nil
	default:
		return &InvalidBuilderModeError{Value: m}
	}
}

// String returns the string representation of the BuilderMode.
func (m BuilderMode) String() string { return string(m) }

// NormalizeArch maps ia32, x64, amd64 and armv7l to their flatpak names.
// Every other value is returned unchanged.
func NormalizeArch(arch string) string {
	if mapped, ok := archAliases[arch]; ok {
		return mapped
	}
	return arch
}

// HostArch returns the flatpak architecture name of the running process.
func HostArch() string {
	if name, ok := goArchNames[goruntime.GOARCH]; ok {
		return name
	}
	return goruntime.GOARCH
}

// Bool returns a pointer to b, for the tri-state option fields.
func Bool(b bool) *bool { return &b }

// WithDefaults returns a copy of o with unset fields filled in. Explicit values,
// including an explicit false, are kept.
func (o Options) WithDefaults(m *manifest.Manifest) Options {
	if o.Arch == "" {
		o.Arch = HostArch()
	}
	o.Arch = NormalizeArch(o.Arch)
	if o.BuilderMode == "" {
		o.BuilderMode = BuilderModeBuildInit
	}
	if o.CleanTmpdirs == nil {
		o.CleanTmpdirs = Bool(true)
	}
	if o.AutoInstallRuntime == nil {
		o.AutoInstallRuntime = Bool(m.RuntimeFlatpakref != "")
	}
	if o.AutoInstallSDK == nil {
		o.AutoInstallSDK = Bool(m.SDKFlatpakref != "")
	}
	if o.AutoInstallBase == nil {
		o.AutoInstallBase = Bool(m.BaseFlatpakref != "")
	}
	return o
}

// derivePaths fills the paths that hang off WorkingDir. WorkingDir must already be set.
func (o *Options) derivePaths() {
	if o.BuildDir == "" {
		o.BuildDir = filepath.Join(o.WorkingDir, "build")
	}
	if o.RepoDir == "" {
		o.RepoDir = filepath.Join(o.WorkingDir, "repo")
	}
	if o.ManifestPath == "" {
		o.ManifestPath = filepath.Join(o.WorkingDir, "manifest.json")
	}
	if o.StateDir == "" {
		o.StateDir = filepath.Join(o.WorkingDir, ".flatpak-builder")
	}
}

// pathFields returns pointers to every path option, keyed by option name.
func (o *Options) pathFields() map[string]*string {
	return map[string]*string{
		"working-dir":   &o.WorkingDir,
		"build-dir":     &o.BuildDir,
		"repo-dir":      &o.RepoDir,
		"manifest-path": &o.ManifestPath,
		"bundle-path":   &o.BundlePath,
		"state-dir":     &o.StateDir,
	}
}

func isTrue(b *bool) bool { return b != nil && *b }
