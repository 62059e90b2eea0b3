// SPDX-License-Identifier: MPL-2.0

// Package loader turns Go source files into loaded code units by evaluating
// them with the yaegi interpreter.
//
// Every unit gets its own interpreter, so units never see each other's
// globals and loading is safe for concurrent use. An optional import
// allow-list is enforced before any code is evaluated.
package loader
