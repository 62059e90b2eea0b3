// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/extlib/extlib/pkg/libref"
	"github.com/extlib/extlib/pkg/manifest"
)

type (
	fakeHandle struct {
		name   string
		origin string
	}

	fakeInfo struct {
		name string
		dir  bool
	}

	// fakeFS knows a fixed set of files and directories and records every Stat.
	fakeFS struct {
		mu    sync.Mutex
		files map[string]bool
		dirs  map[string]bool
		stats []string
	}

	fakeHost struct {
		dir string
		err error
	}

	fakeResources struct {
		manifests map[string]string
		modules   map[string]string
	}

	fakeLoader struct {
		mu      sync.Mutex
		fail    map[string]error
		panicOn map[string]bool
		calls   []string
	}

	// fakeManifests serves file manifests from memory and parses them with
	// the real manifest parser.
	fakeManifests struct {
		docs map[string]string
	}
)

func (h fakeHandle) Name() string   { return h.name }
func (h fakeHandle) Origin() string { return h.origin }

func (i fakeInfo) Name() string       { return i.name }
func (i fakeInfo) Size() int64        { return 0 }
func (i fakeInfo) Mode() fs.FileMode  { return 0o644 }
func (i fakeInfo) ModTime() time.Time { return time.Time{} }
func (i fakeInfo) IsDir() bool        { return i.dir }
func (i fakeInfo) Sys() any           { return nil }

func newFakeFS(files ...string) *fakeFS {
	f := &fakeFS{files: map[string]bool{}, dirs: map[string]bool{}}
	for _, name := range files {
		f.files[name] = true
	}
	return f
}

func (f *fakeFS) Stat(name string) (fs.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats = append(f.stats, name)
	switch {
	case f.files[name]:
		return fakeInfo{name: filepath.Base(name)}, nil
	case f.dirs[name]:
		return fakeInfo{name: filepath.Base(name), dir: true}, nil
	default:
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
}

func (f *fakeFS) statted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stats...)
}

func (h fakeHost) ExecutableDir() (string, error) { return h.dir, h.err }

func (r fakeResources) ManifestBytes(name string) ([]byte, error) {
	doc, ok := r.manifests[name]
	if !ok {
		return nil, fmt.Errorf("manifest %q: %w", name, fs.ErrNotExist)
	}
	return []byte(doc), nil
}

func (r fakeResources) ModuleBytes(name string) ([]byte, error) {
	src, ok := r.modules[name]
	if !ok {
		return nil, fmt.Errorf("module %q: %w", name, fs.ErrNotExist)
	}
	return []byte(src), nil
}

func (l *fakeLoader) record(origin string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, origin)
	if l.panicOn[origin] {
		panic("loader exploded on " + origin)
	}
	return l.fail[origin]
}

func (l *fakeLoader) LoadFile(_ context.Context, path string) (libref.Handle, error) {
	if err := l.record(path); err != nil {
		return nil, err
	}
	return fakeHandle{name: filepath.Base(path), origin: path}, nil
}

func (l *fakeLoader) LoadBytes(_ context.Context, origin string, src []byte) (libref.Handle, error) {
	if err := l.record(origin); err != nil {
		return nil, err
	}
	if len(src) == 0 {
		return nil, errors.New("empty source")
	}
	return fakeHandle{name: strings.TrimPrefix(origin, libref.PackedPrefix), origin: origin}, nil
}

func (l *fakeLoader) loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (m fakeManifests) Parse(data []byte, source string) manifest.Result {
	return manifest.Parse(data, source)
}

func (m fakeManifests) ParseFile(path string) manifest.Result {
	doc, ok := m.docs[path]
	if !ok {
		return manifest.Failure(path, fs.ErrNotExist)
	}
	return manifest.Parse([]byte(doc), path)
}

// libs renders a manifest document listing the given locators.
func libs(locators ...string) string {
	var sb strings.Builder
	sb.WriteString("libraries: [\n")
	for _, loc := range locators {
		fmt.Fprintf(&sb, "\t{path: %q},\n", loc)
	}
	sb.WriteString("]\n")
	return sb.String()
}
