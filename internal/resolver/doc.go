// SPDX-License-Identifier: MPL-2.0

// Package resolver expands library references into the ordered list of code
// units they denote.
//
// A reference either names a loadable unit directly or names a manifest whose
// own references are expanded depth-first. Filesystem paths that do not exist
// verbatim are retried under the host executable's directory.
//
// Resolution never fails as a whole. Every problem (missing file, load or
// parse failure, unreadable packed resource, manifest cycle) is isolated to
// the reference that caused it and returned as a structured Diagnostic next
// to the units that did load.
//
// File organization:
//   - diagnostic.go: Kind, Severity, Diagnostic, Result
//   - resolver.go: collaborator interfaces, Resolver, Resolve/ResolveAll
//   - locate.go: existence check and host-directory fallback
package resolver
