// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile writes content to dir/rel, creating parent directories, and
// returns the full path.
func WriteFile(t testing.TB, dir, rel, content string) string {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	MustMkdirAll(t, filepath.Dir(full), 0o755)
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", full, err)
	}
	return full
}

// WriteLibrary writes a minimal Go code unit declaring package pkg with an
// exported Name function, and returns its path.
func WriteLibrary(t testing.TB, dir, rel, pkg string) string {
	t.Helper()
	return WriteFile(t, dir, rel, LibrarySource(pkg))
}

// LibrarySource returns the source of a minimal code unit for package pkg.
func LibrarySource(pkg string) string {
	return fmt.Sprintf("package %s\n\nfunc Name() string { return %q }\n", pkg, pkg)
}

// WriteManifest writes a manifest listing entries to dir/rel and returns its
// path. Each entry is a locator, optionally followed by flags after a '|'
// ("lib/a.go|pack", "b.go|explicit", "c.go|pack,explicit").
func WriteManifest(t testing.TB, dir, rel string, entries ...string) string {
	t.Helper()
	return WriteFile(t, dir, rel, ManifestSource(entries...))
}

// ManifestSource renders a manifest document for entries in the format
// accepted by WriteManifest.
func ManifestSource(entries ...string) string {
	var sb strings.Builder
	sb.WriteString("libraries: [\n")
	for _, entry := range entries {
		locator, flags, _ := strings.Cut(entry, "|")
		fields := []string{fmt.Sprintf("path: %q", locator)}
		for _, flag := range strings.Split(flags, ",") {
			switch strings.TrimSpace(flag) {
			case "pack":
				fields = append(fields, "pack: true")
			case "explicit":
				fields = append(fields, "explicit_exports: true")
			}
		}
		sb.WriteString("\t{" + strings.Join(fields, ", ") + "},\n")
	}
	sb.WriteString("]\n")
	return sb.String()
}
