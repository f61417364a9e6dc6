// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// BuilderModeBuildInit uses flatpak build-init and build-finish.
	BuilderModeBuildInit BuilderMode = "build-init"
	// BuilderModeFlatpakBuilder uses flatpak-builder --build-only and --finish-only.
	BuilderModeFlatpakBuilder BuilderMode = "flatpak-builder"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidBuilderMode is returned when a BuilderMode value is not recognized.
	ErrInvalidBuilderMode = errors.New("invalid builder mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidBinaryFilePath is returned when a BinaryFilePath value is whitespace-only.
	ErrInvalidBinaryFilePath = errors.New("invalid binary file path")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// BuilderMode selects how the build directory is created and finished.
	BuilderMode string

	// InvalidBuilderModeError is returned when a BuilderMode value is not recognized.
	InvalidBuilderModeError struct {
		Value BuilderMode
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// BinaryFilePath is a path to an executable, or a name looked up on PATH.
	// The zero value ("") is valid and means "use the default binary".
	BinaryFilePath string

	// InvalidBinaryFilePathError is returned when a BinaryFilePath value is
	// non-empty but whitespace-only.
	InvalidBinaryFilePathError struct {
		Value BinaryFilePath
	}

	// InvalidConfigError collects the field-level validation errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// FlatpakBinary overrides the flatpak executable.
		FlatpakBinary BinaryFilePath `json:"flatpak_binary" mapstructure:"flatpak_binary"`
		// FlatpakBuilderBinary overrides the flatpak-builder executable.
		FlatpakBuilderBinary BinaryFilePath `json:"flatpak_builder_binary" mapstructure:"flatpak_builder_binary"`
		// DefaultArch is used when --arch is not given. Empty means the host architecture.
		DefaultArch string `json:"default_arch" mapstructure:"default_arch"`
		// CleanTmpdirs removes temporary working directories on exit.
		CleanTmpdirs bool `json:"clean_tmpdirs" mapstructure:"clean_tmpdirs"`
		// BuilderMode is the default toolchain shape.
		BuilderMode BuilderMode `json:"builder_mode" mapstructure:"builder_mode"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`

		// LoadedFrom is the config file the values were read from; empty for defaults only.
		LoadedFrom string `json:"-" mapstructure:"-"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme selects the style of rendered help pages.
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// Progress shows a phase progress bar when stderr is a terminal.
		Progress bool `json:"progress" mapstructure:"progress"`
	}
)

// Error implements the error interface.
func (e *InvalidBuilderModeError) Error() string {
	return fmt.Sprintf("invalid builder mode %q (valid: build-init, flatpak-builder)", e.Value)
}

// Unwrap returns ErrInvalidBuilderMode for errors.Is() compatibility.
func (e *InvalidBuilderModeError) Unwrap() error { return ErrInvalidBuilderMode }

// String returns the string representation of the BuilderMode.
func (m BuilderMode) String() string { return string(m) }

// IsValid returns whether the BuilderMode is one of the defined modes.
func (m BuilderMode) IsValid() (bool, []error) {
	switch m {
	case BuilderModeBuildInit, BuilderModeFlatpakBuilder:
		return true, nil
	default:
		return false, []error{&InvalidBuilderModeError{Value: m}}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// GlamourStyle returns the glamour style name for the scheme.
func (cs ColorScheme) GlamourStyle() string {
	if cs == "" {
		return string(ColorSchemeAuto)
	}
	return string(cs)
}

// Error implements the error interface.
func (e *InvalidBinaryFilePathError) Error() string {
	return fmt.Sprintf("invalid binary file path %q: must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidBinaryFilePath for errors.Is() compatibility.
func (e *InvalidBinaryFilePathError) Unwrap() error { return ErrInvalidBinaryFilePath }

// String returns the string representation of the BinaryFilePath.
func (p BinaryFilePath) String() string { return string(p) }

// IsValid returns whether the path is empty or has non-whitespace content.
func (p BinaryFilePath) IsValid() (bool, []error) {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidBinaryFilePathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig and every field error for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid validates every field and collects all errors.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for _, check := range []func() (bool, []error){
		c.FlatpakBinary.IsValid,
		c.FlatpakBuilderBinary.IsValid,
		c.BuilderMode.IsValid,
		c.UI.ColorScheme.IsValid,
	} {
		if ok, fieldErrs := check(); !ok {
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		FlatpakBinary:        "flatpak",
		FlatpakBuilderBinary: "flatpak-builder",
		DefaultArch:          "",
		CleanTmpdirs:         true,
		BuilderMode:          BuilderModeBuildInit,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
			Progress:    true,
		},
	}
}
