// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"flatpak-bundler/internal/flatpak"
	"flatpak-bundler/pkg/manifest"
)

func TestDigest(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	a := writeSource(t, tmp, "a.flatpak", "bundle-a")
	b := writeSource(t, tmp, "b.flatpak", "bundle-b")
	empty := writeSource(t, tmp, "empty.flatpak", "")

	da, err := Digest(a)
	if err != nil || len(da) != 64 {
		t.Fatalf("Digest(a) = %q, %v", da, err)
	}
	if again, _ := Digest(a); again != da {
		t.Error("Digest is not deterministic")
	}
	if db, _ := Digest(b); db == da {
		t.Error("different content produced the same digest")
	}
	if _, err := Digest(empty); !errors.Is(err, ErrEmptyBundle) || !errors.Is(err, ErrIO) {
		t.Errorf("Digest(empty) error = %v, want ErrEmptyBundle", err)
	}
	if _, err := Digest(filepath.Join(tmp, "missing")); !errors.Is(err, ErrIO) {
		t.Errorf("Digest(missing) error = %v, want ErrIO", err)
	}
}

func TestBundle_MissingArtifactIsAnError(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	// build-bundle "succeeds" without writing anything.
	b := New(flatpak.NewRecorder(nil), WithLogger(discardLogger()))
	_, err := b.Bundle(t.Context(), helloManifest(), Options{
		WorkingDir: filepath.Join(tmp, "work"),
		BundlePath: filepath.Join(tmp, "hello.flatpak"),
	})
	if !errors.Is(err, ErrIO) {
		t.Fatalf("Bundle() error = %v, want ErrIO", err)
	}
}

// TestBundle_RealToolchain runs against the host flatpak installation. It needs the
// freedesktop runtime and SDK installed (or network access to install them) and is
// enabled with FLATPAK_BUNDLER_E2E=1.
func TestBundle_RealToolchain(t *testing.T) {
	if testing.Short() || os.Getenv("FLATPAK_BUNDLER_E2E") == "" {
		t.Skip("set FLATPAK_BUNDLER_E2E=1 to run against the host flatpak")
	}
	if _, err := exec.LookPath(flatpak.DefaultBinary); err != nil {
		t.Skip("flatpak not installed")
	}

	tmp := t.TempDir()
	src := writeSource(t, tmp, "hello", "#!/bin/sh\necho Hello, world!\n")
	m := &manifest.Manifest{
		ID:             "org.world.Hello",
		RuntimeVersion: os.Getenv("FLATPAK_BUNDLER_E2E_RUNTIME_VERSION"),
		Command:        "hello",
		Files:          []manifest.FileMapping{{Source: src, Dest: "/bin/hello"}},
	}
	bundlePath := filepath.Join(tmp, "out", "hello.flatpak")

	b := New(flatpak.NewExecRunner(), WithLogger(discardLogger()))
	defer func() { _ = b.Close() }()

	res, err := b.Bundle(t.Context(), m, Options{BundlePath: bundlePath, Arch: "x64"})
	if err != nil {
		t.Fatalf("Bundle() error = %v", err)
	}
	info, err := os.Stat(bundlePath)
	if err != nil || info.Size() == 0 {
		t.Fatalf("bundle = %v, %v", info, err)
	}
	if res.Options.Arch != "x86_64" {
		t.Errorf("Arch = %q", res.Options.Arch)
	}
}
