// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProvider_ExplicitFileWinsOverDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, `default_arch: "x86_64"`)
	other := filepath.Join(t.TempDir(), "other.cue")
	if err := os.WriteFile(other, []byte(`default_arch: "aarch64"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewProvider().Load(t.Context(), LoadOptions{ConfigFilePath: other, ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultArch != "aarch64" || cfg.LoadedFrom != other {
		t.Errorf("Load() = %+v, want values from %s", cfg, other)
	}
}
