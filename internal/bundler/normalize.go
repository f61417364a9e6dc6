// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"path/filepath"

	"flatpak-bundler/pkg/manifest"
)

// Normalize validates the inputs and returns the manifest and options a run works with.
//
// Required manifest fields are checked first and reported as *ConfigError; nothing is
// created, copied or spawned before that. Defaults are applied only to absent values,
// every configured path (and every file source) becomes absolute, and Arch is mapped
// to its flatpak name. The caller's manifest is not modified.
func Normalize(m *manifest.Manifest, o Options) (*manifest.Manifest, Options, error) {
	if m == nil {
		return nil, o, &ConfigError{Field: "manifest", Err: manifest.ErrMissingID}
	}
	if err := m.Validate(); err != nil {
		return nil, o, &ConfigError{Field: "manifest", Err: err}
	}
	if err := o.BuilderMode.Validate(); err != nil {
		return nil, o, &ConfigError{Field: "builder-mode", Err: err}
	}

	nm := m.WithDefaults()
	no := o.WithDefaults(nm)

	for name, p := range no.pathFields() {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, o, &ConfigError{Field: name, Err: err}
		}
		*p = abs
	}
	for i, f := range nm.Files {
		abs, err := filepath.Abs(f.Source)
		if err != nil {
			return nil, o, &ConfigError{Field: "files", Err: err}
		}
		nm.Files[i].Source = abs
	}

	return nm, no, nil
}
