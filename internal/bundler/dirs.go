// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"errors"
	"os"
)

const tmpdirPattern = "flatpak-bundler-"

// ensureWorkingDir resolves WorkingDir and derives the paths that depend on it.
//
// An unset WorkingDir becomes a fresh temporary directory, registered for removal on
// Close when CleanTmpdirs is set. A configured one is created if needed and reused;
// only its build directory is purged, so every run starts from an empty build tree.
//
// Dry runs never touch the configured directories: they get a temporary working
// directory that is always removed on Close.
func (b *Bundler) ensureWorkingDir(o Options) (Options, error) {
	if b.dryRun {
		o.WorkingDir, o.BuildDir, o.RepoDir, o.ManifestPath, o.StateDir = "", "", "", "", ""
		o.CleanTmpdirs = Bool(true)
	}
	if o.WorkingDir == "" {
		dir, err := os.MkdirTemp("", tmpdirPattern)
		if err != nil {
			return o, ioErr("create temporary directory", os.TempDir(), err)
		}
		o.WorkingDir = dir
		if isTrue(o.CleanTmpdirs) {
			b.registerCleanup(dir)
		}
		b.logger.Debug("allocated working directory", "path", dir, "cleanup", isTrue(o.CleanTmpdirs))
	} else if err := os.MkdirAll(o.WorkingDir, 0o755); err != nil {
		return o, ioErr("create working directory", o.WorkingDir, err)
	}

	o.derivePaths()

	if err := os.RemoveAll(o.BuildDir); err != nil {
		return o, ioErr("remove build directory", o.BuildDir, err)
	}
	if err := os.MkdirAll(o.BuildDir, 0o755); err != nil {
		return o, ioErr("create build directory", o.BuildDir, err)
	}
	if err := os.MkdirAll(o.RepoDir, 0o755); err != nil {
		return o, ioErr("create repository directory", o.RepoDir, err)
	}
	return o, nil
}

func (b *Bundler) registerCleanup(dir string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tmpdirs = append(b.tmpdirs, dir)
}

// Close removes the temporary directories allocated by previous runs.
// Failures are logged and joined into the returned error; every directory is attempted.
func (b *Bundler) Close() error {
	b.mu.Lock()
	dirs := b.tmpdirs
	b.tmpdirs = nil
	b.mu.Unlock()

	var errs []error
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			b.logger.Warn("failed to remove temporary directory", "path", dir, "error", err)
			errs = append(errs, ioErr("remove temporary directory", dir, err))
			continue
		}
		b.logger.Debug("removed temporary directory", "path", dir)
	}
	return errors.Join(errs...)
}
