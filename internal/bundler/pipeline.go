// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"context"
	"log/slog"
	"sync"

	"flatpak-bundler/internal/flatpak"
	"flatpak-bundler/pkg/manifest"
)

// Pipeline phases, in execution order.
const (
	PhaseNormalize Phase = iota
	PhaseProvisionDirs
	PhaseEnsureRuntime
	PhaseEnsureSDK
	PhaseEnsureBase
	PhaseWriteManifest
	PhaseBuildInit
	PhaseBuildOnly
	PhaseMaterializeFiles
	PhaseCreateSymlinks
	PhaseRenameFiles
	PhaseBuildFinish
	PhaseFinishOnly
	PhaseExport
	PhaseBundle
	PhaseDone
)

var phaseNames = [...]string{
	PhaseNormalize:        "normalize",
	PhaseProvisionDirs:    "provision-dirs",
	PhaseEnsureRuntime:    "ensure-runtime",
	PhaseEnsureSDK:        "ensure-sdk",
	PhaseEnsureBase:       "ensure-base",
	PhaseWriteManifest:    "write-manifest",
	PhaseBuildInit:        "build-init",
	PhaseBuildOnly:        "build-only",
	PhaseMaterializeFiles: "materialize-files",
	PhaseCreateSymlinks:   "create-symlinks",
	PhaseRenameFiles:      "rename-files",
	PhaseBuildFinish:      "build-finish",
	PhaseFinishOnly:       "finish-only",
	PhaseExport:           "export",
	PhaseBundle:           "bundle",
	PhaseDone:             "done",
}

type (
	// Phase is a state of the build pipeline. Phases run strictly in declaration order;
	// a run visits a subset of them depending on its options.
	Phase int

	// PhaseHook is called when the pipeline enters a phase.
	PhaseHook func(Phase)

	// Option configures a Bundler.
	Option func(*Bundler)

	// Bundler runs the build pipeline. A Bundler may run several builds, sequentially or
	// concurrently, as long as each uses its own working directory.
	Bundler struct {
		tool   *flatpak.Tool
		logger *slog.Logger
		hook   PhaseHook
		dryRun bool

		mu      sync.Mutex
		tmpdirs []string
	}

	// Result is the terminal state of a successful run.
	Result struct {
		Options  Options
		Manifest *manifest.Manifest
		// BundlePath is the produced artifact, empty when no bundle was requested.
		BundlePath string
		// BundleDigest is the hex BLAKE3-256 of the artifact, empty when there is none.
		BundleDigest string
	}
)

// String returns the phase name.
func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bundler) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithPhaseHook registers a function called on entry to every phase that runs.
func WithPhaseHook(hook PhaseHook) Option {
	return func(b *Bundler) { b.hook = hook }
}

// WithToolOptions configures the flatpak invocations (binary paths).
func WithToolOptions(opts ...flatpak.ToolOption) Option {
	return func(b *Bundler) {
		b.tool = flatpak.NewTool(b.tool.Runner(), opts...)
	}
}

// WithDryRun marks runs as not producing artifacts: the runner is expected to
// record invocations instead of executing them, so no bundle digest is computed.
func WithDryRun(dryRun bool) Option {
	return func(b *Bundler) { b.dryRun = dryRun }
}

// New creates a Bundler whose toolchain invocations go through runner.
func New(runner flatpak.Runner, opts ...Option) *Bundler {
	b := &Bundler{
		tool:   flatpak.NewTool(runner),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bundle runs the whole pipeline for m and o and returns its terminal state, or the
// first error encountered. Neither m nor o is modified.
//
// Missing required fields are reported as *ConfigError before anything touches the
// filesystem or the toolchain. Other failures are *IOError, *DependencyError or
// *ToolError, and stop the pipeline at the phase they occur in; the build directory is
// left as is. The context is checked on entry to every phase and is passed to every
// toolchain invocation.
func (b *Bundler) Bundle(ctx context.Context, m *manifest.Manifest, o Options) (*Result, error) {
	if err := b.enter(ctx, PhaseNormalize); err != nil {
		return nil, err
	}
	nm, no, err := Normalize(m, o)
	if err != nil {
		return nil, err
	}

	if err := b.enter(ctx, PhaseProvisionDirs); err != nil {
		return nil, err
	}
	if no, err = b.ensureWorkingDir(no); err != nil {
		return nil, err
	}

	for _, req := range refRequests(nm, no) {
		if req.ID == "" && req.Descriptor != "" {
			b.logger.Warn("ignoring flatpakref without a matching id", "kind", req.Kind, "descriptor", req.Descriptor)
		}
		if !req.Auto {
			continue
		}
		if err := b.step(ctx, ensurePhase(req.Kind), func() error {
			return b.ensureRef(ctx, req, no.Arch)
		}); err != nil {
			return nil, err
		}
	}

	if err := b.step(ctx, PhaseWriteManifest, func() error {
		return ioErr("write manifest", no.ManifestPath, nm.WriteJSON(no.ManifestPath))
	}); err != nil {
		return nil, err
	}

	if err := b.runStructure(ctx, no, nm); err != nil {
		return nil, err
	}

	if err := b.step(ctx, PhaseMaterializeFiles, func() error {
		return b.materializeFiles(ctx, no, nm)
	}); err != nil {
		return nil, err
	}
	if err := b.step(ctx, PhaseCreateSymlinks, func() error {
		return b.createSymlinks(ctx, no, nm)
	}); err != nil {
		return nil, err
	}
	if no.RenameFiles {
		if err := b.step(ctx, PhaseRenameFiles, func() error {
			return b.renameFiles(no, nm.ID)
		}); err != nil {
			return nil, err
		}
	}

	if err := b.runFinalize(ctx, no, nm); err != nil {
		return nil, err
	}

	if err := b.step(ctx, PhaseExport, func() error {
		return b.exportRepo(ctx, no, nm)
	}); err != nil {
		return nil, err
	}

	result := &Result{Options: no, Manifest: nm}
	if no.BundlePath != "" {
		if err := b.step(ctx, PhaseBundle, func() error {
			return b.buildBundle(ctx, no, nm)
		}); err != nil {
			return nil, err
		}
		result.BundlePath = no.BundlePath
		if !b.dryRun {
			if result.BundleDigest, err = Digest(no.BundlePath); err != nil {
				return nil, err
			}
		}
	}

	b.notify(PhaseDone)
	b.logger.Info("bundle complete", "id", nm.ID, "repo", no.RepoDir, "bundle", result.BundlePath)
	return result, nil
}

// Plan returns the phases a run of m and o would visit, in order, including done.
// Input that fails normalization plans only PhaseNormalize.
func Plan(m *manifest.Manifest, o Options) []Phase {
	nm, no, err := Normalize(m, o)
	if err != nil {
		return []Phase{PhaseNormalize}
	}

	phases := []Phase{PhaseNormalize, PhaseProvisionDirs}
	for _, req := range refRequests(nm, no) {
		if req.Auto {
			phases = append(phases, ensurePhase(req.Kind))
		}
	}
	phases = append(phases, PhaseWriteManifest)
	if no.BuilderMode == BuilderModeFlatpakBuilder {
		phases = append(phases, PhaseBuildOnly)
	} else {
		phases = append(phases, PhaseBuildInit)
	}
	phases = append(phases, PhaseMaterializeFiles, PhaseCreateSymlinks)
	if no.RenameFiles {
		phases = append(phases, PhaseRenameFiles)
	}
	if no.BuilderMode == BuilderModeFlatpakBuilder {
		phases = append(phases, PhaseFinishOnly)
	} else {
		phases = append(phases, PhaseBuildFinish)
	}
	phases = append(phases, PhaseExport)
	if no.BundlePath != "" {
		phases = append(phases, PhaseBundle)
	}
	return append(phases, PhaseDone)
}

// runStructure creates the build directory structure with the configured toolchain.
func (b *Bundler) runStructure(ctx context.Context, o Options, m *manifest.Manifest) error {
	if o.BuilderMode == BuilderModeFlatpakBuilder {
		return b.step(ctx, PhaseBuildOnly, func() error {
			return b.tool.BuilderBuildOnly(ctx, builderOptions(o, m))
		})
	}
	return b.step(ctx, PhaseBuildInit, func() error {
		return b.tool.BuildInit(ctx, flatpak.BuildInitOptions{
			Arch:           o.Arch,
			BuildDir:       o.BuildDir,
			AppID:          m.ID,
			SDK:            m.SDK,
			Runtime:        m.Runtime,
			RuntimeVersion: m.RuntimeVersion,
			Base:           m.Base,
			BaseVersion:    m.BaseVersion,
			ExtraArgs:      m.ExtraBuildInitArgs,
		})
	})
}

// runFinalize finishes the build directory once every file is in place.
func (b *Bundler) runFinalize(ctx context.Context, o Options, m *manifest.Manifest) error {
	if o.BuilderMode == BuilderModeFlatpakBuilder {
		return b.step(ctx, PhaseFinishOnly, func() error {
			return b.tool.BuilderFinishOnly(ctx, builderOptions(o, m))
		})
	}
	return b.step(ctx, PhaseBuildFinish, func() error {
		return b.tool.BuildFinish(ctx, flatpak.BuildFinishOptions{
			BuildDir:   o.BuildDir,
			Command:    m.Command,
			FinishArgs: m.FinishArgs,
			ExtraArgs:  m.ExtraFinishArgs,
		})
	})
}

func builderOptions(o Options, m *manifest.Manifest) flatpak.BuilderOptions {
	return flatpak.BuilderOptions{
		Arch:         o.Arch,
		BuildDir:     o.BuildDir,
		ManifestPath: o.ManifestPath,
		StateDir:     o.StateDir,
		ExtraArgs:    m.ExtraFlatpakBuilderArgs,
	}
}

func ensurePhase(kind RefKind) Phase {
	switch kind {
	case RefSDK:
		return PhaseEnsureSDK
	case RefBase:
		return PhaseEnsureBase
	default:
		return PhaseEnsureRuntime
	}
}

// step enters phase and runs fn.
func (b *Bundler) step(ctx context.Context, phase Phase, fn func() error) error {
	if err := b.enter(ctx, phase); err != nil {
		return err
	}
	if err := fn(); err != nil {
		b.logger.Debug("phase failed", "phase", phase, "error", err)
		return err
	}
	return nil
}

func (b *Bundler) enter(ctx context.Context, phase Phase) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.notify(phase)
	return nil
}

func (b *Bundler) notify(phase Phase) {
	b.logger.Debug("entering phase", "phase", phase)
	if b.hook != nil {
		b.hook(phase)
	}
}

// LogValue implements slog.LogValuer.
func (p Phase) LogValue() slog.Value { return slog.StringValue(p.String()) }
