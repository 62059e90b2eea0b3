// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManifestSource(t *testing.T) {
	t.Parallel()

	got := ManifestSource("a.go", "lib/b.go|pack", "c.dna|pack,explicit")
	for _, want := range []string{
		`{path: "a.go"},`,
		`{path: "lib/b.go", pack: true},`,
		`{path: "c.dna", pack: true, explicit_exports: true},`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("ManifestSource() missing %q:\n%s", want, got)
		}
	}
}

func TestWriteLibrary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := WriteLibrary(t, dir, "nested/lib/stats.go", "stats")
	if path != filepath.Join(dir, "nested", "lib", "stats.go") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "package stats\n") {
		t.Errorf("content = %q", data)
	}
}
