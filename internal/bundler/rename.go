// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	desktopSuffix       = ".desktop"
	desktopEntrySection = "Desktop Entry"
	iconKey             = "Icon"
)

// renameFiles makes the installed desktop entry and its icons match the application id.
//
// Nothing happens unless the applications directory holds exactly one desktop entry.
// The entry becomes <id>.desktop; if its Icon names a themed icon other than id, the
// Icon lines are rewritten and the matching icon files are renamed in place.
func (b *Bundler) renameFiles(o Options, id string) error {
	root := installRoot(o)
	appsDir := filepath.Join(root, "share", "applications")

	desktop, err := findDesktopFile(appsDir)
	if err != nil {
		return err
	}
	if desktop == "" {
		b.logger.Debug("no unique desktop entry, skipping rename", "dir", appsDir)
		return nil
	}

	renamed := filepath.Join(appsDir, id+desktopSuffix)
	if desktop != renamed {
		b.logger.Debug("renaming desktop entry", "from", desktop, "to", renamed)
		if err := os.Rename(desktop, renamed); err != nil {
			return ioErr("rename", desktop, err)
		}
	}

	icon, err := desktopIcon(renamed)
	if err != nil {
		return err
	}
	// Absolute or relative icon paths are not themed icons and are left alone.
	if icon == "" || icon == id || strings.ContainsRune(icon, '/') {
		return nil
	}

	if err := rewriteIconKey(renamed, icon, id); err != nil {
		return err
	}
	return b.renameIcons(filepath.Join(root, "share", "icons"), icon, id)
}

// findDesktopFile returns the only .desktop file in dir, or "" when there are none or several.
func findDesktopFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", ioErr("read directory", dir, err)
	}
	var found []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), desktopSuffix) {
			found = append(found, filepath.Join(dir, e.Name()))
		}
	}
	if len(found) != 1 {
		return "", nil
	}
	return found[0], nil
}

func desktopIcon(path string) (string, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return "", ioErr("parse desktop entry", path, err)
	}
	return strings.TrimSpace(cfg.Section(desktopEntrySection).Key(iconKey).String()), nil
}

// rewriteIconKey replaces Icon=<from> with Icon=<to>, keeping every other byte of the file.
func rewriteIconKey(path, from, to string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ioErr("read", path, err)
	}
	lines := bytes.SplitAfter(data, []byte("\n"))
	for i, line := range lines {
		key, value, ok := strings.Cut(strings.TrimRight(string(line), "\r\n"), "=")
		if !ok || strings.TrimSpace(key) != iconKey || strings.TrimSpace(value) != from {
			continue
		}
		eol := string(line[len(strings.TrimRight(string(line), "\r\n")):])
		lines[i] = []byte(iconKey + "=" + to + eol)
	}
	info, err := os.Stat(path)
	if err != nil {
		return ioErr("stat", path, err)
	}
	if err := os.WriteFile(path, bytes.Join(lines, nil), info.Mode().Perm()); err != nil {
		return ioErr("write", path, err)
	}
	return nil
}

// renameIcons renames icon files named after icon (icon.png, icon-symbolic.svg, icon.svg)
// so they carry id instead. Only the leading name is matched: files containing icon
// anywhere else, like happy.png or my-app.png for "app", keep their names.
func (b *Bundler) renameIcons(iconsDir, icon, id string) error {
	var matches []string
	err := filepath.WalkDir(iconsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == iconsDir {
				return fs.SkipAll
			}
			return ioErr("read", path, err)
		}
		if !d.IsDir() && iconNameMatches(d.Name(), icon) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, path := range matches {
		dir, name := filepath.Split(path)
		renamed := filepath.Join(dir, id+strings.TrimPrefix(name, icon))
		b.logger.Debug("renaming icon", "from", path, "to", renamed)
		if err := os.Rename(path, renamed); err != nil {
			return ioErr("rename", path, err)
		}
	}
	return nil
}

// iconNameMatches reports whether name is icon itself or icon followed by '.' or '-'.
func iconNameMatches(name, icon string) bool {
	rest, ok := strings.CutPrefix(name, icon)
	if !ok {
		return false
	}
	return rest == "" || rest[0] == '.' || rest[0] == '-'
}
