// SPDX-License-Identifier: MPL-2.0

package resource

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"

	"github.com/extlib/extlib/internal/host"
)

const (
	// ManifestsDir is the archive root holding manifest documents.
	ManifestsDir = "manifests"
	// ModulesDir is the archive root holding code units.
	ModulesDir = "modules"
)

// ErrInvalidName is returned for resource names that are not valid
// slash-separated relative paths.
var ErrInvalidName = errors.New("invalid resource name")

type (
	// Store reads packed resources from an fs.FS. A Store with no filesystem
	// holds no resources. Stores are read-only and safe for concurrent use
	// when the underlying fs.FS is.
	Store struct {
		fsys fs.FS
	}

	// Listing is the set of resource names a store holds, sorted.
	Listing struct {
		Manifests []string
		Modules   []string
	}

	nopCloser struct{}
)

func (nopCloser) Close() error { return nil }

// NewStore creates a store over fsys.
func NewStore(fsys fs.FS) *Store { return &Store{fsys: fsys} }

// Empty returns a store with no resources. Every lookup fails with
// fs.ErrNotExist.
func Empty() *Store { return &Store{} }

// OpenArchive opens the zip archive at path. Archives with leading data (for
// example, appended to an executable) are accepted. The closer releases the
// file handle.
func OpenArchive(path string) (*Store, io.Closer, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open pack archive %s: %w", path, err)
	}
	return NewStore(rc), rc, nil
}

// OpenExecutable opens the archive appended to the running executable. A
// binary without an archive yields an empty store.
func OpenExecutable() (*Store, io.Closer, error) {
	exe, err := host.ExecutablePath()
	if err != nil {
		return nil, nil, err
	}
	return openEmbedded(exe)
}

func openEmbedded(path string) (*Store, io.Closer, error) {
	store, closer, err := OpenArchive(path)
	if errors.Is(err, zip.ErrFormat) {
		return Empty(), nopCloser{}, nil
	}
	return store, closer, err
}

// ManifestBytes returns the manifest document stored under name.
func (s *Store) ManifestBytes(name string) ([]byte, error) {
	return s.read(ManifestsDir, name)
}

// ModuleBytes returns the code unit stored under name.
func (s *Store) ModuleBytes(name string) ([]byte, error) {
	return s.read(ModulesDir, name)
}

func (s *Store) read(root, name string) ([]byte, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	full := path.Join(root, name)
	if s.fsys == nil {
		return nil, &fs.PathError{Op: "open", Path: full, Err: fs.ErrNotExist}
	}
	data, err := fs.ReadFile(s.fsys, full)
	if err != nil {
		return nil, fmt.Errorf("read packed resource: %w", err)
	}
	return data, nil
}

// List returns the names of every manifest and module in the store.
func (s *Store) List() (Listing, error) {
	var l Listing
	if s.fsys == nil {
		return l, nil
	}
	for _, root := range []string{ManifestsDir, ModulesDir} {
		err := fs.WalkDir(s.fsys, root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) && p == root {
					return fs.SkipDir
				}
				return err
			}
			if d.IsDir() {
				return nil
			}
			name := p[len(root)+1:]
			if root == ManifestsDir {
				l.Manifests = append(l.Manifests, name)
			} else {
				l.Modules = append(l.Modules, name)
			}
			return nil
		})
		if err != nil {
			return Listing{}, fmt.Errorf("list pack archive: %w", err)
		}
	}
	slices.Sort(l.Manifests)
	slices.Sort(l.Modules)
	return l, nil
}
