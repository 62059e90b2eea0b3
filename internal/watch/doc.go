// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs library resolution when library sources change.
//
// A Watcher monitors a base directory recursively plus any tracked files that
// live outside it (manifests and units reached through absolute paths or the
// host directory fallback). Events are debounced so a burst of edits results in
// one callback with the full set of changed paths.
package watch
