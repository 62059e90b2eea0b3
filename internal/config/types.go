// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/extlib/extlib/pkg/libref"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultMaxDepth is the default manifest nesting limit.
	DefaultMaxDepth = 64
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidLibraryEntry is the sentinel error wrapped by InvalidLibraryEntryError.
	ErrInvalidLibraryEntry = errors.New("invalid library entry")
	// ErrInvalidMaxDepth is the sentinel error wrapped by InvalidMaxDepthError.
	ErrInvalidMaxDepth = errors.New("invalid max depth")
	// ErrInvalidImportPath is returned for blank entries in loader.allowed_imports.
	ErrInvalidImportPath = errors.New("invalid import path")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidLibraryEntryError is returned when a LibraryEntry cannot be turned
	// into a reference. It wraps ErrInvalidLibraryEntry and the field error.
	InvalidLibraryEntryError struct {
		Index int
		Err   error
	}

	// InvalidMaxDepthError is returned for a resolver.max_depth below 1.
	InvalidMaxDepthError struct {
		Value int
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// LibraryEntry is one configured library reference.
	LibraryEntry struct {
		// Path is a filesystem path or "packed:<resource name>".
		Path string `json:"path" mapstructure:"path"`
		// Pack marks the library for inclusion by `extlib pack`.
		Pack bool `json:"pack,omitempty" mapstructure:"pack"`
		// ExplicitExports is propagated to every unit loaded from the entry.
		ExplicitExports bool `json:"explicit_exports,omitempty" mapstructure:"explicit_exports"`
	}

	// LoaderConfig configures the code unit loader.
	LoaderConfig struct {
		// AllowedImports restricts the packages units may import. Empty means
		// unrestricted.
		AllowedImports []string `json:"allowed_imports" mapstructure:"allowed_imports"`
		// Stdlib exposes standard library symbols to units (default: true).
		Stdlib bool `json:"stdlib" mapstructure:"stdlib"`
	}

	// ResolverConfig configures reference resolution.
	ResolverConfig struct {
		// MaxDepth bounds manifest nesting (default: 64).
		MaxDepth int `json:"max_depth" mapstructure:"max_depth"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// Config holds the application configuration.
	Config struct {
		// Libraries are resolved by `extlib resolve` when no locator is given.
		Libraries []LibraryEntry `json:"libraries" mapstructure:"libraries"`
		// PackArchive is the zip archive serving "packed:" references. Empty
		// means the archive appended to the extlib executable, if any.
		PackArchive string `json:"pack_archive" mapstructure:"pack_archive"`
		// HostDir overrides the fallback directory. Empty means the directory
		// of the extlib executable.
		HostDir string `json:"host_dir" mapstructure:"host_dir"`
		// Loader configures code unit loading.
		Loader LoaderConfig `json:"loader" mapstructure:"loader"`
		// Resolver configures resolution limits.
		Resolver ResolverConfig `json:"resolver" mapstructure:"resolver"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}
)

// Reference converts the entry into a libref.Reference.
func (e LibraryEntry) Reference() (libref.Reference, error) {
	return libref.New(e.Path,
		libref.WithPack(e.Pack),
		libref.WithExplicitExports(e.ExplicitExports),
	)
}

// Error implements the error interface for InvalidLibraryEntryError.
func (e *InvalidLibraryEntryError) Error() string {
	return fmt.Sprintf("libraries[%d]: %v", e.Index, e.Err)
}

// Unwrap returns ErrInvalidLibraryEntry and the field error.
func (e *InvalidLibraryEntryError) Unwrap() []error { return []error{ErrInvalidLibraryEntry, e.Err} }

// Error implements the error interface for InvalidMaxDepthError.
func (e *InvalidMaxDepthError) Error() string {
	return fmt.Sprintf("invalid resolver.max_depth %d: must be at least 1", e.Value)
}

// Unwrap returns ErrInvalidMaxDepth for errors.Is() compatibility.
func (e *InvalidMaxDepthError) Unwrap() error { return ErrInvalidMaxDepth }

// IsValid returns whether the ResolverConfig has valid fields.
func (c ResolverConfig) IsValid() (bool, []error) {
	if c.MaxDepth < 1 {
		return false, []error{&InvalidMaxDepthError{Value: c.MaxDepth}}
	}
	return true, nil
}

// IsValid returns whether the LoaderConfig has valid fields.
func (c LoaderConfig) IsValid() (bool, []error) {
	var errs []error
	for i, imp := range c.AllowedImports {
		if strings.TrimSpace(imp) == "" {
			errs = append(errs, fmt.Errorf("%w: loader.allowed_imports[%d] is blank", ErrInvalidImportPath, i))
		}
	}
	return len(errs) == 0, errs
}

// IsValid returns whether the Config has valid fields.
// It delegates to each library entry, Loader, Resolver and UI.ColorScheme.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for i, entry := range c.Libraries {
		if _, err := entry.Reference(); err != nil {
			errs = append(errs, &InvalidLibraryEntryError{Index: i, Err: err})
		}
	}
	if valid, fieldErrs := c.Loader.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Resolver.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// References converts every library entry, in order.
func (c Config) References() ([]libref.Reference, error) {
	refs := make([]libref.Reference, 0, len(c.Libraries))
	for i, entry := range c.Libraries {
		ref, err := entry.Reference()
		if err != nil {
			return nil, &InvalidLibraryEntryError{Index: i, Err: err}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Libraries: []LibraryEntry{},
		Loader: LoaderConfig{
			AllowedImports: []string{},
			Stdlib:         true,
		},
		Resolver: ResolverConfig{
			MaxDepth: DefaultMaxDepth,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
