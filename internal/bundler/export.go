// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"flatpak-bundler/internal/flatpak"
	"flatpak-bundler/pkg/manifest"

	"lukechampine.com/blake3"
)

// ErrEmptyBundle is returned when build-bundle succeeds but leaves no artifact behind.
var ErrEmptyBundle = errors.New("bundle file is empty")

// exportRepo exports the finished build directory into the repository.
func (b *Bundler) exportRepo(ctx context.Context, o Options, m *manifest.Manifest) error {
	return b.tool.BuildExport(ctx, flatpak.ExportOptions{
		Arch:       o.Arch,
		RepoDir:    o.RepoDir,
		BuildDir:   o.BuildDir,
		Branch:     m.Branch,
		GPGSign:    o.GPGSign,
		GPGHomedir: o.GPGHomedir,
		Subject:    o.Subject,
		Body:       o.Body,
		Runtime:    o.BuildRuntime,
		ExtraArgs:  m.ExtraExportArgs,
	})
}

// buildBundle writes the single-file bundle to BundlePath. The parent directory is
// created first, except on dry runs.
func (b *Bundler) buildBundle(ctx context.Context, o Options, m *manifest.Manifest) error {
	if !b.dryRun {
		if err := os.MkdirAll(filepath.Dir(o.BundlePath), 0o755); err != nil {
			return ioErr("create directory", filepath.Dir(o.BundlePath), err)
		}
	}
	return b.tool.BuildBundle(ctx, flatpak.BundleOptions{
		Arch:       o.Arch,
		RepoDir:    o.RepoDir,
		BundlePath: o.BundlePath,
		AppID:      m.ID,
		Branch:     m.Branch,
		GPGSign:    o.GPGSign,
		GPGHomedir: o.GPGHomedir,
		RepoURL:    o.BundleRepoURL,
		Runtime:    o.BuildRuntime,
		ExtraArgs:  m.ExtraBundleArgs,
	})
}

// Digest returns the hex BLAKE3-256 digest of the file at path.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", ioErr("open", path, err)
	}
	defer f.Close()

	h := blake3.New(32, nil)
	n, err := io.Copy(h, f)
	if err != nil {
		return "", ioErr("read", path, err)
	}
	if n == 0 {
		return "", ioErr("digest", path, ErrEmptyBundle)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
