// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"flatpak-bundler/pkg/manifest"

	"golang.org/x/sync/errgroup"
)

// installRoot is the directory that becomes /app inside the sandbox.
func installRoot(o Options) string { return filepath.Join(o.BuildDir, "files") }

// materializeFiles copies every files entry into the install root concurrently.
// The first failure cancels the copies that have not finished; completed copies stay
// in place since the whole build directory is purged on the next run.
func (b *Bundler) materializeFiles(ctx context.Context, o Options, m *manifest.Manifest) error {
	root := installRoot(o)
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range m.Files {
		g.Go(func() error {
			dest := filepath.Join(root, f.Dest)
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return ioErr("create directory", filepath.Dir(dest), err)
			}
			b.logger.Debug("copying file", "source", f.Source, "dest", dest)
			return copyPath(gctx, f.Source, dest)
		})
	}
	return g.Wait()
}

// createSymlinks creates every symlinks entry concurrently. Both sides are interpreted
// relative to the install root and the link stores a relative path, so it resolves the
// same way inside and outside the sandbox.
func (b *Bundler) createSymlinks(ctx context.Context, o Options, m *manifest.Manifest) error {
	root := installRoot(o)
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range m.Symlinks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			link := filepath.Join(root, s.Link)
			target, err := symlinkTarget(s)
			if err != nil {
				return ioErr("resolve symlink target", s.Target, err)
			}
			if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
				return ioErr("create directory", filepath.Dir(link), err)
			}
			b.logger.Debug("creating symlink", "link", link, "target", target)
			if err := os.Symlink(target, link); err != nil {
				return ioErr("create symlink", link, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// symlinkTarget returns the path stored in the link: s.Target relative to the link's directory.
func symlinkTarget(s manifest.Symlink) (string, error) {
	link := filepath.Join("/", s.Link)
	target := filepath.Join("/", s.Target)
	return filepath.Rel(filepath.Dir(link), target)
}

// copyPath copies a file or directory tree from src to dst. A symlinked src is
// followed; symlinks found inside a tree are recreated as symlinks.
func copyPath(ctx context.Context, src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return ioErr("stat", src, err)
	}
	if !info.IsDir() {
		return copyFile(src, dst, info.Mode())
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return ioErr("read", path, walkErr)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return ioErr("copy", path, err)
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return ioErr("create directory", target, err)
			}
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return ioErr("read symlink", path, err)
			}
			if err := os.Symlink(link, target); err != nil {
				return ioErr("create symlink", target, err)
			}
			return nil
		case d.Type().IsRegular():
			fi, err := d.Info()
			if err != nil {
				return ioErr("stat", path, err)
			}
			return copyFile(path, target, fi.Mode())
		default:
			return ioErr("copy", path, fmt.Errorf("unsupported file type %s", d.Type()))
		}
	})
}

func copyFile(src, dst string, mode fs.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return ioErr("open", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return ioErr("create", dst, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = ioErr("close", dst, closeErr)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return ioErr("copy", dst, err)
	}
	// OpenFile is subject to umask; restore the source permissions.
	if err := os.Chmod(dst, mode.Perm()); err != nil {
		return ioErr("chmod", dst, err)
	}
	return nil
}
