// SPDX-License-Identifier: MPL-2.0

package resource

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"path"
	"time"
)

const (
	// EntryManifest stores an entry under ManifestsDir.
	EntryManifest EntryKind = iota
	// EntryModule stores an entry under ModulesDir.
	EntryModule
)

type (
	// EntryKind selects the archive root of an Entry.
	EntryKind int

	// Entry is one resource to write into a pack archive.
	Entry struct {
		Kind EntryKind
		// Name is the slash-separated resource name, as used after "packed:".
		Name string
		Data []byte
	}
)

// Path returns the entry's path inside the archive.
func (e Entry) Path() string {
	if e.Kind == EntryManifest {
		return path.Join(ManifestsDir, e.Name)
	}
	return path.Join(ModulesDir, e.Name)
}

// WriteArchive writes entries as a zip archive to w, in order.
func WriteArchive(w io.Writer, entries []Entry) error {
	return writeZip(zip.NewWriter(w), entries)
}

// AppendArchive copies the executable read from exe to w and appends a pack
// archive holding entries. The result is both a runnable binary and a valid
// archive for OpenExecutable.
func AppendArchive(w io.Writer, exe io.Reader, entries []Entry) error {
	n, err := io.Copy(w, exe)
	if err != nil {
		return fmt.Errorf("copy executable: %w", err)
	}
	zw := zip.NewWriter(w)
	zw.SetOffset(n)
	return writeZip(zw, entries)
}

func writeZip(zw *zip.Writer, entries []Entry) (err error) {
	defer func() {
		if closeErr := zw.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !fs.ValidPath(e.Name) || e.Name == "." {
			return fmt.Errorf("%w: %q", ErrInvalidName, e.Name)
		}
		name := e.Path()
		if seen[name] {
			return fmt.Errorf("duplicate archive entry %s", name)
		}
		seen[name] = true

		header := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: time.Unix(0, 0).UTC(),
		}
		header.SetMode(0o644)

		writer, createErr := zw.CreateHeader(header)
		if createErr != nil {
			return fmt.Errorf("failed to create ZIP entry: %w", createErr)
		}
		if _, writeErr := writer.Write(e.Data); writeErr != nil {
			return fmt.Errorf("failed to write file data: %w", writeErr)
		}
	}
	return nil
}
