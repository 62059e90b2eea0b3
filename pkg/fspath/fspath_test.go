// SPDX-License-Identifier: MPL-2.0

package fspath_test

import (
	"path/filepath"
	"testing"

	"github.com/extlib/extlib/pkg/fspath"
	"github.com/extlib/extlib/pkg/types"
)

func TestJoin(t *testing.T) {
	t.Parallel()

	got := fspath.Join(types.FilesystemPath("host"), types.FilesystemPath("lib"))
	want := types.FilesystemPath(filepath.Join("host", "lib"))
	if got != want {
		t.Errorf("Join() = %q, want %q", got, want)
	}
}

func TestJoinStr(t *testing.T) {
	t.Parallel()

	got := fspath.JoinStr(types.FilesystemPath("host"), "lib", "stats.go")
	want := types.FilesystemPath(filepath.Join("host", "lib", "stats.go"))
	if got != want {
		t.Errorf("JoinStr() = %q, want %q", got, want)
	}
}

func TestBaseDirExt(t *testing.T) {
	t.Parallel()

	p := types.FilesystemPath(filepath.Join("abs", "dir", "Stats.DNA"))
	if got := fspath.Base(p); got != "Stats.DNA" {
		t.Errorf("Base() = %q, want %q", got, "Stats.DNA")
	}
	if got := fspath.Dir(p); got != types.FilesystemPath(filepath.Join("abs", "dir")) {
		t.Errorf("Dir() = %q", got)
	}
	if got := fspath.Ext(p); got != ".DNA" {
		t.Errorf("Ext() = %q, want %q", got, ".DNA")
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	got := fspath.Clean(types.FilesystemPath("host/./lib/../lib/x.go"))
	want := types.FilesystemPath(filepath.Clean("host/./lib/../lib/x.go"))
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestIsRooted(t *testing.T) {
	t.Parallel()

	abs, err := fspath.Abs(types.FilesystemPath("lib"))
	if err != nil {
		t.Fatalf("Abs() error: %v", err)
	}

	tests := []struct {
		name string
		path types.FilesystemPath
		want bool
	}{
		{"absolute", abs, true},
		{"leading slash", types.FilesystemPath("/abs/dir/foo.go"), true},
		{"relative", types.FilesystemPath("lib/foo.go"), false},
		{"bare name", types.FilesystemPath("foo.go"), false},
		{"dot relative", types.FilesystemPath("./foo.go"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := fspath.IsRooted(tt.path); got != tt.want {
				t.Errorf("IsRooted(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
