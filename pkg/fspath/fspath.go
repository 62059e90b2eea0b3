// SPDX-License-Identifier: MPL-2.0

// Package fspath provides typed wrappers around path/filepath functions that
// accept and return types.FilesystemPath, so resolution code keeps typed paths
// end to end.
package fspath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/extlib/extlib/pkg/types"
)

// Join wraps filepath.Join, accepting and returning types.FilesystemPath.
func Join(elem ...types.FilesystemPath) types.FilesystemPath {
	strs := make([]string, len(elem))
	for i, e := range elem {
		strs[i] = string(e)
	}
	return types.FilesystemPath(filepath.Join(strs...))
}

// JoinStr wraps filepath.Join, accepting a typed base path and raw string
// segments.
func JoinStr(base types.FilesystemPath, elem ...string) types.FilesystemPath {
	parts := make([]string, 1, 1+len(elem))
	parts[0] = string(base)
	parts = append(parts, elem...)
	return types.FilesystemPath(filepath.Join(parts...))
}

// Dir wraps filepath.Dir for FilesystemPath.
func Dir(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Dir(string(p)))
}

// Base wraps filepath.Base for FilesystemPath. The leaf name is returned as a
// plain string because it is no longer a usable path on its own.
func Base(p types.FilesystemPath) string {
	return filepath.Base(string(p))
}

// Ext wraps filepath.Ext for FilesystemPath.
func Ext(p types.FilesystemPath) string {
	return filepath.Ext(string(p))
}

// Abs wraps filepath.Abs for FilesystemPath.
func Abs(p types.FilesystemPath) (types.FilesystemPath, error) {
	abs, err := filepath.Abs(string(p))
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return types.FilesystemPath(abs), nil
}

// Clean wraps filepath.Clean for FilesystemPath.
func Clean(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Clean(string(p)))
}

// IsAbs wraps filepath.IsAbs for FilesystemPath.
func IsAbs(p types.FilesystemPath) bool {
	return filepath.IsAbs(string(p))
}

// IsRooted reports whether p is anchored to a root: absolute, carrying a
// volume name, or starting with a path separator. On Windows `\lib\x.go` and
// `C:x.go` are rooted without being absolute.
func IsRooted(p types.FilesystemPath) bool {
	s := string(p)
	if filepath.IsAbs(s) || filepath.VolumeName(s) != "" {
		return true
	}
	return strings.HasPrefix(s, string(os.PathSeparator)) || strings.HasPrefix(s, "/")
}
