// SPDX-License-Identifier: MPL-2.0

// Package manifest parses and generates extlib manifest documents.
//
// A manifest is a CUE document, recognised by the ".dna" extension, that lists
// further library references:
//
//	name: "analytics"
//	libraries: [
//		{path: "lib/stats.go", explicit_exports: true},
//		{path: "packed:extra.dna"},
//	]
//
// Parsing never panics and never returns a nil manifest for success: the
// outcome is a [Result] that is either Ok with a (possibly empty) manifest or
// failed with an error.
package manifest
