// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"flatpak-bundler/internal/bundler"
	"flatpak-bundler/internal/config"
	"flatpak-bundler/internal/flatpak"
	"flatpak-bundler/internal/issue"
	"flatpak-bundler/pkg/manifest"

	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/shell"
)

type (
	// bundleFlags holds the flag values of one bundle invocation.
	bundleFlags struct {
		manifestPath string
		bundlePath   string
		arch         string
		workingDir   string
		buildDir     string
		repoDir      string
		stateDir     string
		builderMode  string

		gpgSign       string
		gpgHomedir    string
		subject       string
		body          string
		bundleRepoURL string
		buildRuntime  bool
		renameFiles   bool

		noAutoInstallRuntime bool
		noAutoInstallSDK     bool
		noAutoInstallBase    bool
		keepTmpdirs          bool
		dryRun               bool

		extraBuildInitArgs      string
		extraFlatpakBuilderArgs string
		extraFinishArgs         string
		extraExportArgs         string
		extraBundleArgs         string
	}

	// extraArgs pairs an --extra-*-args flag value with the manifest list it extends.
	extraArgs struct {
		flag  string
		value string
		dst   *[]string
	}
)

func newBundleCommand(app *App) *cobra.Command {
	var flags bundleFlags

	bundleCmd := &cobra.Command{
		Use:   "bundle",
		Short: "Build a flatpak repository and bundle from a manifest",
		Long: `Build a flatpak repository, and optionally a single-file bundle, from a manifest.

The manifest lists files on the host and where they go inside the application.
Runtime, SDK and base are installed or updated first when auto-install applies,
which is the default whenever the manifest names a .flatpakref for them.

Without --working-dir a temporary directory is used and removed afterwards
(keep it with --keep-tmpdirs).`,
		Example: `  flatpak-bundler bundle -m hello.yaml --bundle-path hello.flatpak
  flatpak-bundler bundle -m hello.json --arch aarch64 --repo-dir ./repo
  flatpak-bundler bundle -m hello.cue --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBundle(cmd, app, &flags)
		},
	}

	f := bundleCmd.Flags()
	f.StringVarP(&flags.manifestPath, "manifest", "m", "", "manifest file (.json, .cue, .yaml, .yml, .toml)")
	f.StringVarP(&flags.bundlePath, "bundle-path", "o", "", "write a single-file bundle to this path")
	f.StringVar(&flags.arch, "arch", "", "target architecture (default: config default_arch, then the host)")
	f.StringVar(&flags.workingDir, "working-dir", "", "directory for build, repo and generated manifest (default: temporary)")
	f.StringVar(&flags.buildDir, "build-dir", "", "build directory (default: <working-dir>/build)")
	f.StringVar(&flags.repoDir, "repo-dir", "", "repository directory (default: <working-dir>/repo)")
	f.StringVar(&flags.stateDir, "state-dir", "", "flatpak-builder state directory (default: <working-dir>/.flatpak-builder)")
	f.StringVar(&flags.builderMode, "builder-mode", "", "toolchain shape: build-init or flatpak-builder (default: config builder_mode)")
	f.StringVar(&flags.gpgSign, "gpg-sign", "", "GPG key ID to sign the repository and bundle with")
	f.StringVar(&flags.gpgHomedir, "gpg-homedir", "", "GPG home directory")
	f.StringVar(&flags.subject, "subject", "", "one-line subject of the repository commit")
	f.StringVar(&flags.body, "body", "", "full description of the repository commit")
	f.StringVar(&flags.bundleRepoURL, "bundle-repo-url", "", "repository URL recorded in the bundle for updates")
	f.BoolVar(&flags.buildRuntime, "build-runtime", false, "build a runtime instead of an application")
	f.BoolVar(&flags.renameFiles, "rename-files", false, "rename the desktop entry and icons to the application ID")
	f.BoolVar(&flags.noAutoInstallRuntime, "no-auto-install-runtime", false, "never install or update the runtime")
	f.BoolVar(&flags.noAutoInstallSDK, "no-auto-install-sdk", false, "never install or update the SDK")
	f.BoolVar(&flags.noAutoInstallBase, "no-auto-install-base", false, "never install or update the base application")
	f.BoolVar(&flags.keepTmpdirs, "keep-tmpdirs", false, "keep temporary working directories")
	f.BoolVar(&flags.dryRun, "dry-run", false, "print the toolchain commands instead of running them")
	f.StringVar(&flags.extraBuildInitArgs, "extra-build-init-args", "", "extra arguments for flatpak build-init")
	f.StringVar(&flags.extraFlatpakBuilderArgs, "extra-flatpak-builder-args", "", "extra arguments for flatpak-builder")
	f.StringVar(&flags.extraFinishArgs, "extra-finish-args", "", "extra arguments for flatpak build-finish")
	f.StringVar(&flags.extraExportArgs, "extra-export-args", "", "extra arguments for flatpak build-export")
	f.StringVar(&flags.extraBundleArgs, "extra-bundle-args", "", "extra arguments for flatpak build-bundle")
	_ = bundleCmd.MarkFlagRequired("manifest")
	_ = bundleCmd.MarkFlagFilename("manifest", "json", "cue", "yaml", "yml", "toml")

	return bundleCmd
}

func runBundle(cmd *cobra.Command, app *App, flags *bundleFlags) error {
	ctx := cmd.Context()
	cfg := app.loadConfig(ctx)
	verbose := app.verbose || cfg.UI.Verbose
	logger := newLogger(app.stderr, verbose)

	m, err := loadManifest(flags)
	if err != nil {
		return renderFailure(app.stderr, err, cfg, verbose)
	}
	opts := flags.options(cfg)

	var runner flatpak.Runner
	var recorder *flatpak.Recorder
	if flags.dryRun {
		recorder = flatpak.NewRecorder(nil)
		recorder.SetLogger(logger)
		runner = recorder
	} else {
		runner = app.runner(logger)
	}

	bundlerOpts := []bundler.Option{
		bundler.WithLogger(logger),
		bundler.WithDryRun(flags.dryRun),
		bundler.WithToolOptions(
			flatpak.WithBinary(cfg.FlatpakBinary.String()),
			flatpak.WithBuilderBinary(cfg.FlatpakBuilderBinary.String()),
		),
	}
	if cfg.UI.Progress && !verbose && !flags.dryRun && isTerminal(app.stderr) {
		bundlerOpts = append(bundlerOpts, bundler.WithPhaseHook(newProgressHook(app.stderr, bundler.Plan(m, opts))))
	}

	b := bundler.New(runner, bundlerOpts...)
	res, err := b.Bundle(ctx, m, opts)
	if closeErr := b.Close(); closeErr != nil {
		logger.Warn("temporary directory cleanup failed", "error", closeErr)
	}

	if recorder != nil {
		printInvocations(app.stdout, recorder.Invocations())
	}
	if err != nil {
		return renderFailure(app.stderr, err, cfg, verbose)
	}
	if !flags.dryRun {
		repoRemoved := discardsOutput(opts)
		if repoRemoved {
			logger.Warn("the repository lived in a temporary directory and was removed; pass --repo-dir, --working-dir or --bundle-path to keep output",
				"repo", res.Options.RepoDir)
		}
		printSummary(app.stdout, res, repoRemoved)
	}
	return nil
}

// discardsOutput reports whether a run with o keeps nothing: the repository is
// inside a temporary working directory that is cleaned up and no bundle is written.
func discardsOutput(o bundler.Options) bool {
	return o.WorkingDir == "" && o.RepoDir == "" && o.BundlePath == "" &&
		o.CleanTmpdirs != nil && *o.CleanTmpdirs
}

// loadManifest reads the manifest file and appends the --extra-*-args values to its
// passthrough lists.
func loadManifest(flags *bundleFlags) (*manifest.Manifest, error) {
	m, err := manifest.Load(flags.manifestPath)
	if err != nil {
		errCtx := issue.NewErrorContext().
			WithOperation("load manifest").
			WithResource(flags.manifestPath).
			Wrap(err)
		if errors.Is(err, fs.ErrNotExist) {
			errCtx.WithIssue(issue.ManifestNotFoundId).
				WithSuggestion("Check the --manifest path")
		} else {
			errCtx.WithIssue(issue.ManifestInvalidId).
				WithSuggestion("Fix the reported field and run the command again")
		}
		return nil, errCtx.BuildError()
	}

	for _, extra := range []extraArgs{
		{"extra-build-init-args", flags.extraBuildInitArgs, &m.ExtraBuildInitArgs},
		{"extra-flatpak-builder-args", flags.extraFlatpakBuilderArgs, &m.ExtraFlatpakBuilderArgs},
		{"extra-finish-args", flags.extraFinishArgs, &m.ExtraFinishArgs},
		{"extra-export-args", flags.extraExportArgs, &m.ExtraExportArgs},
		{"extra-bundle-args", flags.extraBundleArgs, &m.ExtraBundleArgs},
	} {
		if extra.value == "" {
			continue
		}
		words, err := shell.Fields(extra.value, nil)
		if err != nil {
			return nil, &bundler.ConfigError{Field: extra.flag, Err: err}
		}
		*extra.dst = append(*extra.dst, words...)
	}
	return m, nil
}

// options merges flags over the user configuration. Unset tri-state options stay nil
// so the bundler applies its own defaults.
func (flags *bundleFlags) options(cfg *config.Config) bundler.Options {
	o := bundler.Options{
		WorkingDir:    flags.workingDir,
		BuildDir:      flags.buildDir,
		RepoDir:       flags.repoDir,
		StateDir:      flags.stateDir,
		BundlePath:    flags.bundlePath,
		Arch:          flags.arch,
		BuilderMode:   bundler.BuilderMode(flags.builderMode),
		RenameFiles:   flags.renameFiles,
		GPGSign:       flags.gpgSign,
		GPGHomedir:    flags.gpgHomedir,
		Subject:       flags.subject,
		Body:          flags.body,
		BundleRepoURL: flags.bundleRepoURL,
		BuildRuntime:  flags.buildRuntime,
		CleanTmpdirs:  bundler.Bool(cfg.CleanTmpdirs && !flags.keepTmpdirs),
	}
	if o.Arch == "" {
		o.Arch = cfg.DefaultArch
	}
	if o.BuilderMode == "" {
		o.BuilderMode = bundler.BuilderMode(cfg.BuilderMode)
	}
	if flags.noAutoInstallRuntime {
		o.AutoInstallRuntime = bundler.Bool(false)
	}
	if flags.noAutoInstallSDK {
		o.AutoInstallSDK = bundler.Bool(false)
	}
	if flags.noAutoInstallBase {
		o.AutoInstallBase = bundler.Bool(false)
	}
	return o
}

func printInvocations(w io.Writer, invs []flatpak.Invocation) {
	for _, inv := range invs {
		fmt.Fprintln(w, flatpak.CommandLine(inv))
	}
}

func printSummary(w io.Writer, res *bundler.Result, repoRemoved bool) {
	fmt.Fprintf(w, "%s %s %s\n", SuccessStyle.Render("✓"), TitleStyle.Render(res.Manifest.ID),
		SubtitleStyle.Render("("+res.Options.Arch+", "+res.Manifest.Branch+")"))
	if repoRemoved {
		fmt.Fprintf(w, "  %s%s\n", summaryKeyStyle.Render("repo"), SubtitleStyle.Render("(removed with the temporary directory)"))
	} else {
		fmt.Fprintf(w, "  %s%s\n", summaryKeyStyle.Render("repo"), res.Options.RepoDir)
	}
	if res.BundlePath != "" {
		fmt.Fprintf(w, "  %s%s\n", summaryKeyStyle.Render("bundle"), res.BundlePath)
		fmt.Fprintf(w, "  %s%s\n", summaryKeyStyle.Render("blake3"), res.BundleDigest)
	}
}
