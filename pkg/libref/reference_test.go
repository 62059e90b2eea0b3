// SPDX-License-Identifier: MPL-2.0

package libref

import (
	"errors"
	"testing"

	"github.com/extlib/extlib/pkg/types"
)

func TestNew_Classification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		locator      string
		wantScheme   Scheme
		wantManifest bool
	}{
		{name: "plain file", locator: "lib/stats.go", wantScheme: SchemeFile},
		{name: "rooted file", locator: "/abs/dir/foo.go", wantScheme: SchemeFile},
		{name: "file manifest", locator: "addins/Tools.DNA", wantScheme: SchemeFile, wantManifest: true},
		{name: "packed module", locator: "packed:foo.go", wantScheme: SchemePacked},
		{name: "packed manifest", locator: "packed:nested/extra.Dna", wantScheme: SchemePacked, wantManifest: true},
		{name: "prefix is case sensitive", locator: "PACKED:foo.go", wantScheme: SchemeFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ref, err := New(tt.locator)
			if err != nil {
				t.Fatalf("New(%q) error: %v", tt.locator, err)
			}
			if ref.Scheme() != tt.wantScheme {
				t.Errorf("Scheme() = %v, want %v", ref.Scheme(), tt.wantScheme)
			}
			if ref.IsManifest() != tt.wantManifest {
				t.Errorf("IsManifest() = %v, want %v", ref.IsManifest(), tt.wantManifest)
			}
			if ref.Locator() != Locator(tt.locator) {
				t.Errorf("Locator() = %q, want %q", ref.Locator(), tt.locator)
			}
		})
	}
}

func TestNew_Variants(t *testing.T) {
	t.Parallel()

	packed, err := New("packed:tools/foo.go", WithExplicitExports(true), WithPack(true))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	pr, ok := packed.(*PackedReference)
	if !ok {
		t.Fatalf("expected *PackedReference, got %T", packed)
	}
	if pr.Resource() != "tools/foo.go" {
		t.Errorf("Resource() = %q, want %q", pr.Resource(), "tools/foo.go")
	}
	if !pr.ExplicitExports() || !pr.Pack() {
		t.Errorf("flags not carried: explicit=%v pack=%v", pr.ExplicitExports(), pr.Pack())
	}

	file := MustNew("lib/foo.go")
	fr, ok := file.(*FileReference)
	if !ok {
		t.Fatalf("expected *FileReference, got %T", file)
	}
	if fr.Path() != types.FilesystemPath("lib/foo.go") {
		t.Errorf("Path() = %q", fr.Path())
	}
	if fr.ExplicitExports() || fr.Pack() {
		t.Errorf("flags should default to false")
	}
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		locator string
		wantErr error
	}{
		{name: "empty", locator: "", wantErr: ErrInvalidLocator},
		{name: "whitespace", locator: "  \t", wantErr: ErrInvalidLocator},
		{name: "empty packed name", locator: "packed:", wantErr: ErrInvalidResourceName},
		{name: "blank packed name", locator: "packed:  ", wantErr: ErrInvalidResourceName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ref, err := New(tt.locator)
			if err == nil {
				t.Fatalf("New(%q) = %v, want error", tt.locator, ref)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New(%q) error = %v, want wrapping %v", tt.locator, err, tt.wantErr)
			}
		})
	}
}

func TestMustNew_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("MustNew(\"\") did not panic")
		}
	}()
	MustNew("")
}

func TestIsManifestName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"X.DNA", true},
		{"x.dna", true},
		{"X.Dna", true},
		{"dir/sub/x.dna", true},
		{`dir\sub\x.DNA`, true},
		{"x.dna.go", false},
		{"x.go", false},
		{"dna", false},
		{"x.dnax", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsManifestName(tt.name); got != tt.want {
				t.Errorf("IsManifestName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestPacked(t *testing.T) {
	t.Parallel()

	if got := Packed("extra.dna"); got != "packed:extra.dna" {
		t.Errorf("Packed() = %q", got)
	}
	if !Packed("x.go").IsPacked() {
		t.Error("Packed locator should report IsPacked")
	}
}

func TestScheme_String(t *testing.T) {
	t.Parallel()

	if SchemeFile.String() != "file" || SchemePacked.String() != "packed" || Scheme(9).String() != "unknown" {
		t.Errorf("unexpected scheme names: %s %s %s", SchemeFile, SchemePacked, Scheme(9))
	}
}
