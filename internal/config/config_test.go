// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flatpak-bundler/internal/issue"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider().Load(t.Context(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := DefaultConfig()
	if cfg.FlatpakBinary != want.FlatpakBinary || cfg.BuilderMode != want.BuilderMode ||
		cfg.CleanTmpdirs != want.CleanTmpdirs || cfg.UI != want.UI {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, want)
	}
	if cfg.LoadedFrom != "" {
		t.Errorf("LoadedFrom = %q, want empty", cfg.LoadedFrom)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
flatpak_binary: "/opt/flatpak/bin/flatpak"
default_arch: "aarch64"
builder_mode: "flatpak-builder"
ui: {
	verbose: true
}
`)

	cfg, err := NewProvider().Load(t.Context(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FlatpakBinary != "/opt/flatpak/bin/flatpak" || cfg.DefaultArch != "aarch64" {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.BuilderMode != BuilderModeFlatpakBuilder || !cfg.UI.Verbose {
		t.Errorf("Load() = %+v", cfg)
	}
	// Unset keys keep their defaults.
	if cfg.FlatpakBuilderBinary != "flatpak-builder" || !cfg.UI.Progress || !cfg.CleanTmpdirs {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.LoadedFrom != path {
		t.Errorf("LoadedFrom = %q, want %q", cfg.LoadedFrom, path)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantSub string
	}{
		{name: "unknown builder mode", content: `builder_mode: "make"`, wantSub: "builder_mode"},
		{name: "unknown key", content: `container_engine: "podman"`, wantSub: "container_engine"},
		{name: "wrong type", content: `clean_tmpdirs: "yes"`, wantSub: "clean_tmpdirs"},
		{name: "blank binary", content: `flatpak_binary: "  "`, wantSub: "flatpak_binary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, err := NewProvider().Load(t.Context(), LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("Load() should fail")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) || ae.IssueID != issue.ConfigLoadFailedId {
				t.Errorf("error = %T, want *issue.ActionableError with ConfigLoadFailedId", err)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(t.Context(), LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue")})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `ui: verbose: false`)
	t.Setenv("FLATPAK_BUNDLER_UI_VERBOSE", "true")
	t.Setenv("FLATPAK_BUNDLER_DEFAULT_ARCH", "i386")

	cfg, err := NewProvider().Load(t.Context(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.UI.Verbose || cfg.DefaultArch != "i386" {
		t.Errorf("Load() = %+v, environment overrides not applied", cfg)
	}
}

func TestLoad_InvalidEnvironmentOverride(t *testing.T) {
	t.Setenv("FLATPAK_BUNDLER_BUILDER_MODE", "make")

	_, err := NewProvider().Load(t.Context(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidBuilderMode) {
		t.Fatalf("Load() error = %v, want ErrInvalidBuilderMode", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, err := CreateDefaultConfig(dir)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `builder_mode: "build-init"`) {
		t.Errorf("generated config:\n%s", data)
	}

	cfg, err := NewProvider().Load(t.Context(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.UI != DefaultConfig().UI || cfg.BuilderMode != BuilderModeBuildInit {
		t.Errorf("Load() = %+v", cfg)
	}

	// An existing file is never overwritten.
	if err := os.WriteFile(path, []byte("ui: verbose: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateDefaultConfig(dir); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(path); string(data) != "ui: verbose: true\n" {
		t.Errorf("existing config overwritten:\n%s", data)
	}
}
