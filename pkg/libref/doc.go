// SPDX-License-Identifier: MPL-2.0

// Package libref models references to external libraries and the units they
// resolve to.
//
// A reference is declared by a locator string: either a filesystem path, or
// `packed:<name>` naming a resource stored in a pack archive. The locator is
// classified once, when the reference is built, into one of two variants:
//   - [FileReference]: a filesystem path, searched verbatim and then relative
//     to the host executable's directory
//   - [PackedReference]: a resource name looked up in the pack archive
//
// Locators whose leaf name ends in ".dna" (any case) denote manifests that list
// further references; everything else denotes a directly loadable code unit.
package libref
