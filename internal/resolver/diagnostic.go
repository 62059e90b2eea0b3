// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"slices"

	"github.com/extlib/extlib/pkg/libref"
)

const (
	// SeverityWarning marks a reference that was skipped for a benign reason.
	SeverityWarning Severity = "warning"
	// SeverityError marks a reference whose content could not be loaded.
	SeverityError Severity = "error"
)

const (
	// KindNotFound: the file is absent at its declared path and under the host directory.
	KindNotFound Kind = "not_found"
	// KindLoadFailed: the loader rejected a code unit.
	KindLoadFailed Kind = "load_failed"
	// KindParseFailed: a manifest could not be parsed.
	KindParseFailed Kind = "parse_failed"
	// KindResourceFailed: a packed resource could not be fetched.
	KindResourceFailed Kind = "resource_failed"
	// KindCycle: a manifest references itself directly or indirectly.
	KindCycle Kind = "cycle"
	// KindDepthExceeded: manifest nesting is deeper than the configured limit.
	KindDepthExceeded Kind = "depth_exceeded"
	// KindInvalidReference: a locator or manifest entry is not a valid reference.
	KindInvalidReference Kind = "invalid_reference"
	// KindCanceled: the context was done before the reference was processed.
	KindCanceled Kind = "canceled"
)

type (
	// Severity represents diagnostic severity.
	Severity string

	// Kind is the machine-readable category of a diagnostic.
	Kind string

	// Diagnostic is a structured, non-fatal resolution problem. Diagnostics are
	// returned to callers (and logged) instead of being raised.
	Diagnostic struct {
		// Kind categorizes the problem.
		Kind Kind
		// Severity is warning or error.
		Severity Severity
		// Locator is the reference locator being resolved when the problem occurred.
		Locator libref.Locator
		// Path is the filesystem path or resource name involved (optional).
		Path string
		// Message is a single human-readable line.
		Message string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}

	// Result is the outcome of resolving one or more references.
	Result struct {
		// Units are the successfully loaded code units in depth-first order.
		Units []libref.ResolvedUnit
		// Diagnostics lists every problem encountered, in encounter order.
		Diagnostics []Diagnostic
		// RunID tags the log lines written for this resolution.
		RunID string
	}
)

// AllKinds returns every diagnostic kind in declaration order.
func AllKinds() []Kind {
	return []Kind{
		KindNotFound,
		KindLoadFailed,
		KindParseFailed,
		KindResourceFailed,
		KindCycle,
		KindDepthExceeded,
		KindInvalidReference,
		KindCanceled,
	}
}

// String returns the kind name.
func (k Kind) String() string { return string(k) }

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return slices.Contains(AllKinds(), k) }

// Severity returns the default severity for the kind.
func (k Kind) Severity() Severity {
	switch k {
	case KindLoadFailed, KindParseFailed, KindResourceFailed, KindInvalidReference:
		return SeverityError
	default:
		return SeverityWarning
	}
}

// Error implements the error interface so a Diagnostic can be returned or
// wrapped where an error is expected.
func (d Diagnostic) Error() string { return d.Message }

// Unwrap returns the underlying cause.
func (d Diagnostic) Unwrap() error { return d.Cause }

// HasErrors reports whether any diagnostic has error severity.
func (r Result) HasErrors() bool {
	return slices.ContainsFunc(r.Diagnostics, func(d Diagnostic) bool {
		return d.Severity == SeverityError
	})
}

// Count returns how many diagnostics of kind k the result carries.
func (r Result) Count(k Kind) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == k {
			n++
		}
	}
	return n
}
