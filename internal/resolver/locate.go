// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/extlib/extlib/pkg/fspath"
	"github.com/extlib/extlib/pkg/types"
)

var (
	// ErrNotFound is the sentinel wrapped by NotFoundError.
	ErrNotFound = errors.New("file not found")

	errNoHost = errors.New("no host directory provider configured")
)

type (
	// NotFoundError reports a path that exists neither verbatim nor under the
	// host directory. It wraps ErrNotFound for errors.Is() compatibility.
	NotFoundError struct {
		// Path is the declared path.
		Path string
		// Fallback is the host-directory path that was tried. Empty when the
		// host directory could not be determined.
		Fallback string
		// HostErr is set when the host directory lookup itself failed.
		HostErr error
	}

	osFS struct{}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	switch {
	case e.HostErr != nil:
		return fmt.Sprintf("could not find file %s (host directory unavailable: %v)", e.Path, e.HostErr)
	case e.Fallback != "":
		return fmt.Sprintf("could not find file %s (also tried %s)", e.Path, e.Fallback)
	default:
		return "could not find file " + e.Path
	}
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func (osFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

// FallbackPath returns the path checked under hostDir when realPath does not
// exist. A rooted realPath keeps only its leaf name; a relative one is joined
// in full.
//
//	FallbackPath("/abs/dir/foo.go", "/host") == "/host/foo.go"
//	FallbackPath("lib/foo.go", "/host")      == "/host/lib/foo.go"
func FallbackPath(realPath, hostDir string) string {
	p := types.FilesystemPath(realPath)
	if fspath.IsRooted(p) {
		return filepath.Join(hostDir, fspath.Base(p))
	}
	return filepath.Join(hostDir, realPath)
}

// Locate returns the path a filesystem reference resolves to: path itself when
// a regular file exists there, otherwise its fallback under the host
// directory. The returned error is a *NotFoundError when neither exists.
func (r *Resolver) Locate(path string) (string, error) {
	if r.exists(path) {
		return path, nil
	}

	if r.deps.Host == nil {
		return "", &NotFoundError{Path: path, HostErr: errNoHost}
	}
	hostDir, err := r.deps.Host.ExecutableDir()
	if err != nil {
		return "", &NotFoundError{Path: path, HostErr: err}
	}

	fallback := FallbackPath(path, hostDir)
	if r.exists(fallback) {
		return fallback, nil
	}
	return "", &NotFoundError{Path: path, Fallback: fallback}
}

// exists reports whether a regular file (not a directory) is present at path.
func (r *Resolver) exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := r.deps.FS.Stat(path)
	return err == nil && !info.IsDir()
}
