// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. The issue catalog holds one Markdown explanation per
// resolver diagnostic kind (plus configuration and packing failures), rendered
// with glamour by `extlib explain`.
package issue
