// SPDX-License-Identifier: MPL-2.0

// Package host locates the running host executable. Library paths that do not
// exist verbatim are retried under its directory.
package host
