// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for flatpak-bundler.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"flatpak-bundler/internal/config"
	"flatpak-bundler/internal/flatpak"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// App wires the CLI to its services. Every command handler receives an App
	// reference; tests build one with NewApp and swap the injection points.
	App struct {
		Config config.Provider
		// Runner executes toolchain invocations. Nil means real child processes.
		Runner flatpak.Runner
		stdout io.Writer
		stderr io.Writer

		cfgFile string
		verbose bool
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Runner flatpak.Runner
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		Runner: deps.Runner,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// NewRootCommand builds the command tree for app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flatpak-bundler",
		Short: "Build flatpak repositories and bundles from prebuilt files",
		Long: TitleStyle.Render("flatpak-bundler") + SubtitleStyle.Render(" - Build flatpaks from files you already have") + `

flatpak-bundler takes a manifest listing files on the host and turns them into
a flatpak repository, and optionally a single-file .flatpak bundle, by driving
flatpak build-init, build-finish, build-export and build-bundle.

Manifests can be written in JSON, CUE, YAML or TOML. Missing runtimes and SDKs
are installed from their .flatpakref descriptors when one is given.

` + SubtitleStyle.Render("Examples:") + `
  flatpak-bundler bundle -m hello.yaml --bundle-path hello.flatpak
  flatpak-bundler bundle -m hello.json --dry-run
  flatpak-bundler config show`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/flatpak-bundler/config.cue)")

	rootCmd.AddCommand(newBundleCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process on failure. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}

// loadConfig loads the user configuration. A broken config file is reported and the
// built-in defaults are used instead.
func (app *App) loadConfig(ctx context.Context) *config.Config {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: app.cfgFile})
	if err != nil {
		fmt.Fprintln(app.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, app.verbose))
		return config.DefaultConfig()
	}
	return cfg
}

// runner returns the toolchain runner for one command run.
func (app *App) runner(logger *slog.Logger) flatpak.Runner {
	if app.Runner != nil {
		return app.Runner
	}
	return flatpak.NewExecRunner(flatpak.WithLogger(logger))
}
