// SPDX-License-Identifier: MPL-2.0

// Package resource serves packed library resources addressed by "packed:"
// locators.
//
// Resources live in a zip archive (or any fs.FS) with two roots:
//
//	manifests/<name>   manifest documents
//	modules/<name>     code units
//
// The archive can be a standalone file or appended to the host executable.
package resource
