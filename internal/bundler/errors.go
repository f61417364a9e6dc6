// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"errors"
	"fmt"

	"flatpak-bundler/internal/flatpak"
)

var (
	// ErrConfig is the sentinel wrapped by ConfigError.
	ErrConfig = errors.New("invalid configuration")
	// ErrIO is the sentinel wrapped by IOError.
	ErrIO = errors.New("filesystem operation failed")
	// ErrDependency is the sentinel wrapped by DependencyError.
	ErrDependency = errors.New("dependency cannot be installed")
	// ErrTool is the sentinel wrapped by ToolError.
	ErrTool = flatpak.ErrTool
)

type (
	// ToolError is returned when the toolchain exits non-zero on a call that is not failure-tolerant.
	ToolError = flatpak.ToolError

	// ConfigError reports missing or invalid manifest/option fields.
	// It is always raised before any filesystem or process side effect.
	ConfigError struct {
		Field string
		Err   error
	}

	// IOError reports a failed directory, copy, symlink or rename operation.
	IOError struct {
		Op   string
		Path string
		Err  error
	}

	// DependencyError reports an auto-install that has no reference descriptor to install from.
	DependencyError struct {
		Kind RefKind
		Ref  string
	}
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap returns ErrConfig and the underlying cause.
func (e *ConfigError) Unwrap() []error { return []error{ErrConfig, e.Err} }

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns ErrIO and the underlying cause.
func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

// Error implements the error interface.
func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s %s is not installed and no %s-flatpakref is configured", e.Kind, e.Ref, e.Kind)
}

// Unwrap returns ErrDependency for errors.Is() compatibility.
func (e *DependencyError) Unwrap() error { return ErrDependency }

func ioErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var ioe *IOError
	if errors.As(err, &ioe) {
		return err
	}
	return &IOError{Op: op, Path: path, Err: err}
}
