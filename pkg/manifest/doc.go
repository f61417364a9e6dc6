// SPDX-License-Identifier: MPL-2.0

// Package manifest holds the declarative description of an application to package:
// its identity, runtime and SDK, the files and symlinks to install, and passthrough
// arguments for each toolchain phase.
//
// Manifests are read from JSON, CUE, YAML or TOML. Input keys may be camelCase,
// snake_case or kebab-case; they are canonicalized to kebab-case (the flatpak-builder
// convention) and validated against an embedded CUE schema before decoding.
//
//	m, err := manifest.Load("hello.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := m.Validate(); err != nil {
//	    return err
//	}
//
// The generated flatpak-builder manifest (Document, WriteJSON) omits bundler-only fields.
package manifest
