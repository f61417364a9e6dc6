// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"flatpak-bundler/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `flatpak-bundler config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage flatpak-bundler configuration",
		Long: `Manage flatpak-bundler configuration.

Configuration is stored in:
  - Linux: $XDG_CONFIG_HOME/flatpak-bundler/config.cue (~/.config by default)
  - macOS: ~/Library/Application Support/flatpak-bundler/config.cue
  - Windows: %APPDATA%\flatpak-bundler\config.cue

Every value can be overridden with a ` + config.EnvPrefix + `_* environment variable,
e.g. ` + config.EnvPrefix + `_BUILDER_MODE=flatpak-builder.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app)
		},
	})

	var dir string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app, dir)
		},
	}
	initCmd.Flags().StringVar(&dir, "dir", "", "directory to create config.cue in (default is the config directory)")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: app.cfgFile})
	if err != nil {
		return renderFailure(app.stderr, err, config.DefaultConfig(), app.verbose)
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(app.stdout)
	if cfg.LoadedFrom != "" {
		fmt.Fprintf(app.stdout, "%s: %s\n", CmdStyle.Render("Config file"), cfg.LoadedFrom)
	} else {
		fmt.Fprintf(app.stdout, "%s: %s\n", CmdStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(app.stdout)
	fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
	return nil
}

func initConfig(app *App, dir string) error {
	path, err := config.CreateDefaultConfig(dir)
	if err != nil {
		return renderFailure(app.stderr, err, config.DefaultConfig(), app.verbose)
	}
	fmt.Fprintf(app.stdout, "%s Configuration file: %s\n", SuccessStyle.Render("✓"), path)
	return nil
}
