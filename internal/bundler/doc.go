// SPDX-License-Identifier: MPL-2.0

// Package bundler packages an application into a flatpak repository and, optionally,
// a single-file bundle by driving the flatpak toolchain through a fixed pipeline:
//
//	normalize → provision-dirs → ensure-runtime → ensure-sdk → ensure-base →
//	write-manifest → build-init | build-only → materialize-files → create-symlinks →
//	rename-files → build-finish | finish-only → export → bundle → done
//
// Phases run one after another and the first failure ends the run. Inside a phase,
// independent work (file copies, symlinks, the user/system installation probes) runs
// concurrently and is always awaited before the phase completes.
//
// Errors fall into four kinds, each with a sentinel usable with errors.Is:
// ConfigError (ErrConfig), IOError (ErrIO), DependencyError (ErrDependency) and
// ToolError (ErrTool).
package bundler
