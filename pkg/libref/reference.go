// SPDX-License-Identifier: MPL-2.0

package libref

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/extlib/extlib/pkg/types"
)

const (
	// SchemeFile marks a reference resolved through the filesystem.
	SchemeFile Scheme = iota
	// SchemePacked marks a reference resolved from the pack archive.
	SchemePacked
)

const (
	// PackedPrefix introduces a packed resource name in a locator.
	PackedPrefix = "packed:"
	// ManifestExt is the extension that marks manifest documents. It is
	// matched case-insensitively.
	ManifestExt = ".dna"
)

var (
	// ErrInvalidLocator is the sentinel error wrapped by InvalidLocatorError.
	ErrInvalidLocator = errors.New("invalid locator")
	// ErrInvalidResourceName is the sentinel error wrapped by InvalidResourceNameError.
	ErrInvalidResourceName = errors.New("invalid resource name")
)

type (
	// Scheme identifies how a reference is located.
	Scheme int

	// Locator is the configured string of a reference: a filesystem path or
	// PackedPrefix followed by a resource name. It must be non-empty.
	Locator string

	// InvalidLocatorError is returned when a Locator is empty or whitespace-only.
	// It wraps ErrInvalidLocator for errors.Is() compatibility.
	InvalidLocatorError struct {
		Value Locator
	}

	// ResourceName names an entry in the pack archive (e.g., "stats.go",
	// "tools/extra.dna"). It must be non-empty.
	ResourceName string

	// InvalidResourceNameError is returned when a ResourceName is empty or
	// whitespace-only. It wraps ErrInvalidResourceName for errors.Is() compatibility.
	InvalidResourceNameError struct {
		Value ResourceName
	}

	// Reference is an immutable pointer to an external library. The concrete
	// type is always *FileReference or *PackedReference.
	Reference interface {
		// Locator returns the locator the reference was declared with.
		Locator() Locator
		// Scheme reports which variant the reference is.
		Scheme() Scheme
		// Pack reports the advisory pack flag. Resolution carries it through;
		// the packer uses it to select files for the archive.
		Pack() bool
		// ExplicitExports is copied into every unit loaded directly from this
		// reference.
		ExplicitExports() bool
		// IsManifest reports whether the reference names a manifest by extension.
		IsManifest() bool

		sealed()
	}

	// FileReference is a reference resolved through the filesystem.
	FileReference struct {
		locator Locator
		path    types.FilesystemPath
		flags   flags
	}

	// PackedReference is a reference resolved from the pack archive.
	PackedReference struct {
		locator  Locator
		resource ResourceName
		flags    flags
	}

	// Option sets a reference flag at construction time.
	Option func(*flags)

	flags struct {
		pack            bool
		explicitExports bool
	}
)

// String returns the scheme name.
func (s Scheme) String() string {
	switch s {
	case SchemeFile:
		return "file"
	case SchemePacked:
		return "packed"
	default:
		return "unknown"
	}
}

// String returns the string representation of the Locator.
func (l Locator) String() string { return string(l) }

// Validate returns an error if the locator is empty or whitespace-only.
func (l Locator) Validate() error {
	if strings.TrimSpace(string(l)) == "" {
		return &InvalidLocatorError{Value: l}
	}
	return nil
}

// IsPacked reports whether the locator carries the packed prefix.
func (l Locator) IsPacked() bool {
	return strings.HasPrefix(string(l), PackedPrefix)
}

// Error implements the error interface.
func (e *InvalidLocatorError) Error() string {
	return fmt.Sprintf("invalid locator %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidLocator for errors.Is() compatibility.
func (e *InvalidLocatorError) Unwrap() error { return ErrInvalidLocator }

// String returns the string representation of the ResourceName.
func (n ResourceName) String() string { return string(n) }

// Validate returns an error if the resource name is empty or whitespace-only.
func (n ResourceName) Validate() error {
	if strings.TrimSpace(string(n)) == "" {
		return &InvalidResourceNameError{Value: n}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidResourceNameError) Error() string {
	return fmt.Sprintf("invalid resource name %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidResourceName for errors.Is() compatibility.
func (e *InvalidResourceNameError) Unwrap() error { return ErrInvalidResourceName }

// WithPack sets the advisory pack flag.
func WithPack(pack bool) Option {
	return func(f *flags) { f.pack = pack }
}

// WithExplicitExports sets the explicit-exports flag.
func WithExplicitExports(explicit bool) Option {
	return func(f *flags) { f.explicitExports = explicit }
}

// New classifies locator and builds the matching Reference variant.
func New(locator string, opts ...Option) (Reference, error) {
	loc := Locator(locator)
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	var f flags
	for _, opt := range opts {
		opt(&f)
	}

	if loc.IsPacked() {
		name := ResourceName(strings.TrimPrefix(locator, PackedPrefix))
		if err := name.Validate(); err != nil {
			return nil, fmt.Errorf("locator %q: %w", locator, err)
		}
		return &PackedReference{locator: loc, resource: name, flags: f}, nil
	}

	return &FileReference{locator: loc, path: types.FilesystemPath(locator), flags: f}, nil
}

// MustNew is like New but panics on an invalid locator.
func MustNew(locator string, opts ...Option) Reference {
	ref, err := New(locator, opts...)
	if err != nil {
		panic(err)
	}
	return ref
}

// Packed builds the locator for a packed resource name.
func Packed(name ResourceName) Locator {
	return Locator(PackedPrefix + string(name))
}

// IsManifestName reports whether name ends in ManifestExt, ignoring case.
// Resource names (slash-separated) and OS paths classify the same way.
func IsManifestName(name string) bool {
	return strings.EqualFold(path.Ext(filepath.ToSlash(name)), ManifestExt)
}

// Locator returns the declared locator.
func (r *FileReference) Locator() Locator { return r.locator }

// Scheme returns SchemeFile.
func (r *FileReference) Scheme() Scheme { return SchemeFile }

// Pack returns the advisory pack flag.
func (r *FileReference) Pack() bool { return r.flags.pack }

// ExplicitExports returns the explicit-exports flag.
func (r *FileReference) ExplicitExports() bool { return r.flags.explicitExports }

// IsManifest reports whether the declared path has the manifest extension.
// The resolver re-checks the extension on the finally resolved path.
func (r *FileReference) IsManifest() bool { return IsManifestName(string(r.path)) }

// Path returns the declared filesystem path.
func (r *FileReference) Path() types.FilesystemPath { return r.path }

func (r *FileReference) sealed() {}

// Locator returns the declared locator.
func (r *PackedReference) Locator() Locator { return r.locator }

// Scheme returns SchemePacked.
func (r *PackedReference) Scheme() Scheme { return SchemePacked }

// Pack returns the advisory pack flag.
func (r *PackedReference) Pack() bool { return r.flags.pack }

// ExplicitExports returns the explicit-exports flag.
func (r *PackedReference) ExplicitExports() bool { return r.flags.explicitExports }

// IsManifest reports whether the resource name has the manifest extension.
func (r *PackedReference) IsManifest() bool { return IsManifestName(string(r.resource)) }

// Resource returns the packed resource name (the locator without its prefix).
func (r *PackedReference) Resource() ResourceName { return r.resource }

func (r *PackedReference) sealed() {}
