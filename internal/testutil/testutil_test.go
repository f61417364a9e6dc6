// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"slices"
	"testing"
)

func TestTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	MustWriteFile(t, root, "bin/hello", "#!/bin/sh\n", 0o755)
	MustWriteFile(t, root, "share/doc/README", "hello\n", 0o644)
	MustSymlink(t, "../bin/hello", filepath.Join(root, "share", "hello"))

	want := []string{
		"bin/",
		"bin/hello",
		"share/",
		"share/doc/",
		"share/doc/README",
		"share/hello -> ../bin/hello",
	}
	if got := Tree(t, root); !slices.Equal(got, want) {
		t.Errorf("Tree() = %q, want %q", got, want)
	}
}

func TestReadString(t *testing.T) {
	t.Parallel()

	path := MustWriteFile(t, t.TempDir(), "a/b.txt", "content", 0o644)
	if got := ReadString(t, path); got != "content" {
		t.Errorf("ReadString() = %q", got)
	}
}

func TestHasLine(t *testing.T) {
	t.Parallel()

	text := "[Desktop Entry]\nIcon=org.world.Hello\n"
	if !HasLine(text, "Icon=org.world.Hello") {
		t.Error("HasLine() = false for a present line")
	}
	if HasLine(text, "Icon=org.world") {
		t.Error("HasLine() must match whole lines")
	}
}
