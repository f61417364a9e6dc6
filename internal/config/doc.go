// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from config.cue in the flatpak-bundler config directory
// ($XDG_CONFIG_HOME/flatpak-bundler on Linux), or from the current directory, and is
// validated against the embedded #Config schema (config_schema.cue). Values can be
// overridden with FLATPAK_BUNDLER_* environment variables; command-line flags take
// precedence over both.
package config
