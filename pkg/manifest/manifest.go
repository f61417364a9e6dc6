// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	// DefaultBranch is the branch used when none is given.
	DefaultBranch = "master"
	// DefaultRuntime is the runtime used when none is given.
	DefaultRuntime = "org.freedesktop.Platform"
	// DefaultSDK is the SDK used when none is given.
	DefaultSDK = "org.freedesktop.Sdk"
)

var (
	// ErrMissingID is returned when a manifest has no application id.
	ErrMissingID = errors.New("you need to specify an application id")
	// ErrMissingFiles is returned when a manifest has no files list.
	ErrMissingFiles = errors.New("you need to specify some application files")
	// ErrInvalidFileMapping is the sentinel error wrapped by InvalidPairError for files entries.
	ErrInvalidFileMapping = errors.New("invalid file mapping")
	// ErrInvalidSymlink is the sentinel error wrapped by InvalidPairError for symlinks entries.
	ErrInvalidSymlink = errors.New("invalid symlink")
	// ErrPathEscapesRoot is returned when a files destination or symlink location
	// resolves outside the install root.
	ErrPathEscapesRoot = errors.New("path escapes the install root")
)

type (
	// FileMapping installs Source (a file or directory on the host) at Dest,
	// a path relative to the install root.
	FileMapping struct {
		Source string
		Dest   string
	}

	// Symlink creates Link pointing at Target. Both are relative to the install root.
	Symlink struct {
		Target string
		Link   string
	}

	// InvalidPairError is returned when a files or symlinks entry has an empty side.
	InvalidPairError struct {
		Field string
		Index int
		kind  error
	}

	// OutsideRootError is returned when a files or symlinks entry would be written
	// outside the install root.
	OutsideRootError struct {
		Field string
		Index int
		Path  string
	}

	// Manifest describes what is being packaged.
	Manifest struct {
		ID             string
		Branch         string
		Runtime        string
		RuntimeVersion string
		SDK            string
		Base           string
		BaseVersion    string

		// Reference descriptors (.flatpakref files or URLs) used to auto-install dependencies.
		RuntimeFlatpakref string
		SDKFlatpakref     string
		BaseFlatpakref    string

		Command  string
		Files    []FileMapping
		Symlinks []Symlink
		// Modules are flatpak-builder module descriptors, passed through untouched.
		Modules []any

		FinishArgs              []string
		ExtraBuildInitArgs      []string
		ExtraFlatpakBuilderArgs []string
		ExtraFinishArgs         []string
		ExtraExportArgs         []string
		ExtraBundleArgs         []string

		// Extra holds unrecognized top-level keys; they are written to the generated manifest as-is.
		Extra map[string]any
	}
)

// Error implements the error interface.
func (e *InvalidPairError) Error() string {
	return fmt.Sprintf("%s[%d]: both paths must be non-empty", e.Field, e.Index)
}

// Unwrap returns the field-specific sentinel for errors.Is() compatibility.
func (e *InvalidPairError) Unwrap() error { return e.kind }

// Error implements the error interface.
func (e *OutsideRootError) Error() string {
	return fmt.Sprintf("%s[%d]: %q escapes the install root", e.Field, e.Index, e.Path)
}

// Unwrap returns ErrPathEscapesRoot for errors.Is() compatibility.
func (e *OutsideRootError) Unwrap() error { return ErrPathEscapesRoot }

// insideRoot reports whether p, read relative to the install root, stays inside it.
// The leading slash is optional; "/" itself is the root.
func insideRoot(p string) bool {
	rel := strings.TrimLeft(p, "/")
	if rel == "" {
		return true
	}
	return filepath.IsLocal(rel)
}

// Validate checks the required fields and that every destination stays inside the
// install root. It performs no I/O.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return ErrMissingID
	}
	if m.Files == nil {
		return ErrMissingFiles
	}
	for i, f := range m.Files {
		if f.Source == "" || f.Dest == "" {
			return &InvalidPairError{Field: "files", Index: i, kind: ErrInvalidFileMapping}
		}
		if !insideRoot(f.Dest) {
			return &OutsideRootError{Field: "files", Index: i, Path: f.Dest}
		}
	}
	for i, s := range m.Symlinks {
		if s.Target == "" || s.Link == "" {
			return &InvalidPairError{Field: "symlinks", Index: i, kind: ErrInvalidSymlink}
		}
		if strings.Trim(s.Link, "/") == "" || !insideRoot(s.Link) {
			return &OutsideRootError{Field: "symlinks", Index: i, Path: s.Link}
		}
	}
	return nil
}

// WithDefaults returns a copy of m with unset optional fields filled in.
// Explicit values are never overwritten.
func (m *Manifest) WithDefaults() *Manifest {
	out := m.Clone()
	if out.Branch == "" {
		out.Branch = DefaultBranch
	}
	if out.Runtime == "" {
		out.Runtime = DefaultRuntime
	}
	if out.SDK == "" {
		out.SDK = DefaultSDK
	}
	if out.Modules == nil {
		out.Modules = []any{}
	}
	if out.Symlinks == nil {
		out.Symlinks = []Symlink{}
	}
	return out
}

// Clone returns a copy that shares no slices or maps with m.
// Module descriptors are shared; they are never modified.
func (m *Manifest) Clone() *Manifest {
	out := *m
	out.Files = slices.Clone(m.Files)
	out.Symlinks = slices.Clone(m.Symlinks)
	out.Modules = slices.Clone(m.Modules)
	out.FinishArgs = slices.Clone(m.FinishArgs)
	out.ExtraBuildInitArgs = slices.Clone(m.ExtraBuildInitArgs)
	out.ExtraFlatpakBuilderArgs = slices.Clone(m.ExtraFlatpakBuilderArgs)
	out.ExtraFinishArgs = slices.Clone(m.ExtraFinishArgs)
	out.ExtraExportArgs = slices.Clone(m.ExtraExportArgs)
	out.ExtraBundleArgs = slices.Clone(m.ExtraBundleArgs)
	if m.Extra != nil {
		out.Extra = maps.Clone(m.Extra)
	}
	return &out
}

// Document returns the manifest as read by flatpak-builder. Bundler-only fields
// (files, symlinks, reference descriptors, extra-*-args) are omitted.
func (m *Manifest) Document() map[string]any {
	doc := make(map[string]any, len(m.Extra)+10)
	maps.Copy(doc, m.Extra)

	doc["id"] = m.ID
	setIfNotEmpty(doc, "branch", m.Branch)
	setIfNotEmpty(doc, "runtime", m.Runtime)
	setIfNotEmpty(doc, "runtime-version", m.RuntimeVersion)
	setIfNotEmpty(doc, "sdk", m.SDK)
	setIfNotEmpty(doc, "base", m.Base)
	setIfNotEmpty(doc, "base-version", m.BaseVersion)
	setIfNotEmpty(doc, "command", m.Command)
	if len(m.FinishArgs) > 0 {
		doc["finish-args"] = m.FinishArgs
	}
	modules := m.Modules
	if modules == nil {
		modules = []any{}
	}
	doc["modules"] = modules
	return doc
}

// MarshalIndent renders Document as two-space-indented JSON with a trailing newline.
func (m *Manifest) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(m.Document(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteJSON writes the manifest to path, creating parent directories.
func (m *Manifest) WriteJSON(path string) error {
	data, err := m.MarshalIndent()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func setIfNotEmpty(doc map[string]any, key, value string) {
	if value != "" {
		doc[key] = value
	}
}
