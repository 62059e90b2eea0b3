// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/extlib/extlib/pkg/cueutil"
	"github.com/extlib/extlib/pkg/libref"
)

//go:embed manifest_schema.cue
var schema []byte

// ErrParse is the sentinel wrapped by every manifest parse failure.
var ErrParse = errors.New("manifest parse failed")

type (
	// Library is one entry of a manifest's libraries list.
	Library struct {
		Path            string `json:"path"`
		Pack            bool   `json:"pack,omitempty"`
		ExplicitExports bool   `json:"explicit_exports,omitempty"`
	}

	// Manifest is a parsed manifest document.
	Manifest struct {
		Name        string    `json:"name,omitempty"`
		Description string    `json:"description,omitempty"`
		Libraries   []Library `json:"libraries,omitempty"`

		// Source is the filename or resource name the manifest was parsed from.
		Source string `json:"-"`
	}

	// Result is the outcome of parsing a manifest. Exactly one of Manifest()
	// and Err() is non-nil.
	Result struct {
		manifest *Manifest
		err      error
	}

	// ParseError describes why a manifest could not be parsed. It wraps
	// ErrParse and the underlying cause.
	ParseError struct {
		Source string
		Cause  error
	}

	// Parser is the default manifest parser. The zero value is ready to use.
	Parser struct{}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse manifest %s: %v", e.Source, e.Cause)
}

// Unwrap returns both ErrParse and the cause for errors.Is() compatibility.
func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Cause} }

// Ok reports whether parsing succeeded.
func (r Result) Ok() bool { return r.err == nil && r.manifest != nil }

// Manifest returns the parsed manifest, or nil on failure.
func (r Result) Manifest() *Manifest { return r.manifest }

// Err returns the parse error, or nil on success.
func (r Result) Err() error {
	if r.err == nil && r.manifest == nil {
		return &ParseError{Source: "<unknown>", Cause: errors.New("empty result")}
	}
	return r.err
}

// Success wraps a manifest in a successful Result.
func Success(m *Manifest) Result {
	if m == nil {
		m = &Manifest{}
	}
	return Result{manifest: m}
}

// Failure wraps err in a failed Result.
func Failure(source string, err error) Result {
	var pe *ParseError
	if !errors.As(err, &pe) {
		err = &ParseError{Source: source, Cause: err}
	}
	return Result{err: err}
}

// Parse decodes a manifest from data. source names the document in errors
// (a filename or packed resource name).
func Parse(data []byte, source string) Result {
	if source == "" {
		source = "<manifest>"
	}
	parsed, err := cueutil.ParseAndDecode[Manifest](schema, data, "#Manifest", cueutil.WithFilename(source))
	if err != nil {
		return Failure(source, err)
	}
	m := parsed.Value
	m.Source = source
	for i, lib := range m.Libraries {
		if _, err := lib.Reference(); err != nil {
			return Failure(source, fmt.Errorf("libraries[%d]: %w", i, err))
		}
	}
	return Success(m)
}

// ParseFile reads and decodes the manifest at path.
func ParseFile(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Failure(path, fmt.Errorf("read manifest: %w", err))
	}
	return Parse(data, path)
}

// Parse implements the resolver's manifest collaborator.
func (Parser) Parse(data []byte, source string) Result { return Parse(data, source) }

// ParseFile implements the resolver's manifest collaborator.
func (Parser) ParseFile(path string) Result { return ParseFile(path) }

// Reference converts the entry into a libref.Reference.
func (l Library) Reference() (libref.Reference, error) {
	return libref.New(l.Path,
		libref.WithPack(l.Pack),
		libref.WithExplicitExports(l.ExplicitExports),
	)
}

// References returns the manifest's entries as references, in declaration
// order. Parse guarantees every entry converts cleanly; entries added by hand
// that do not are skipped.
func (m *Manifest) References() []libref.Reference {
	if m == nil {
		return nil
	}
	refs := make([]libref.Reference, 0, len(m.Libraries))
	for _, lib := range m.Libraries {
		ref, err := lib.Reference()
		if err != nil {
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// DisplayName returns the manifest name, falling back to the source's leaf name.
func (m *Manifest) DisplayName() string {
	if m == nil {
		return ""
	}
	if name := strings.TrimSpace(m.Name); name != "" {
		return name
	}
	base := filepath.Base(filepath.ToSlash(m.Source))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
