// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flatpak-bundler/internal/config"
	"flatpak-bundler/internal/testutil"
)

func TestConfigCommand_InitThenShow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var initApp testApp
	initApp.App = NewApp(Dependencies{Stdout: &initApp.stdout, Stderr: &initApp.stderr})
	if err := initApp.run(t, "config", "init", "--dir", dir); err != nil {
		t.Fatalf("config init error = %v\nstderr: %s", err, initApp.stderr.String())
	}
	cfgPath := filepath.Join(dir, "config.cue")
	if !strings.Contains(initApp.stdout.String(), cfgPath) {
		t.Errorf("config init output = %q, want path %s", initApp.stdout.String(), cfgPath)
	}

	// Customize the file, then show it through an explicit --config.
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	custom := strings.Replace(string(data), `builder_mode: "build-init"`, `builder_mode: "flatpak-builder"`, 1)
	testutil.MustWriteFile(t, dir, "config.cue", custom, 0o644)

	var showApp testApp
	showApp.App = NewApp(Dependencies{Config: config.NewProvider(), Stdout: &showApp.stdout, Stderr: &showApp.stderr})
	if err := showApp.run(t, "--config", cfgPath, "config", "show"); err != nil {
		t.Fatalf("config show error = %v\nstderr: %s", err, showApp.stderr.String())
	}
	out := showApp.stdout.String()
	if !strings.Contains(out, cfgPath) {
		t.Errorf("config show should name the loaded file:\n%s", out)
	}
	if !strings.Contains(out, `builder_mode: "flatpak-builder"`) {
		t.Errorf("config show should print the effective values:\n%s", out)
	}
}

func TestConfigCommand_ShowMissingExplicitFile(t *testing.T) {
	t.Parallel()

	var ta testApp
	ta.App = NewApp(Dependencies{Stdout: &ta.stdout, Stderr: &ta.stderr})
	err := ta.run(t, "--config", filepath.Join(t.TempDir(), "absent.cue"), "config", "show")
	if got := exitCode(t, err); got != ExitConfig {
		t.Errorf("exit code = %d, want %d", got, ExitConfig)
	}
	if !strings.Contains(ta.stderr.String(), "config file not found") {
		t.Errorf("stderr = %q", ta.stderr.String())
	}
}

func TestGetVersionString(t *testing.T) {
	t.Parallel()

	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}
}
