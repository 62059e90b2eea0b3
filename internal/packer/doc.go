// SPDX-License-Identifier: MPL-2.0

// Package packer builds pack archives from manifests.
//
// Every library marked pack: true that lives on the filesystem is copied into
// the archive and its locator rewritten to "packed:<name>", so the archive
// resolves without the original files. Nested manifests are packed
// recursively.
package packer
