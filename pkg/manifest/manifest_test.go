// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/extlib/extlib/pkg/libref"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		want    *Manifest
		wantErr bool
	}{
		{
			name: "full document",
			data: `
name: "analytics"
description: "stats helpers"
libraries: [
	{path: "lib/stats.go", explicit_exports: true},
	{path: "packed:extra.dna"},
	{path: "/opt/shared/core.go", pack: true},
]
`,
			want: &Manifest{
				Name:        "analytics",
				Description: "stats helpers",
				Libraries: []Library{
					{Path: "lib/stats.go", ExplicitExports: true},
					{Path: "packed:extra.dna"},
					{Path: "/opt/shared/core.go", Pack: true},
				},
				Source: "test.dna",
			},
		},
		{
			name: "empty document",
			data: ``,
			want: &Manifest{Source: "test.dna"},
		},
		{
			name: "empty library list",
			data: `libraries: []`,
			want: &Manifest{Libraries: []Library{}, Source: "test.dna"},
		},
		{
			name:    "syntax error",
			data:    `libraries: [`,
			wantErr: true,
		},
		{
			name:    "blank path",
			data:    `libraries: [{path: "   "}]`,
			wantErr: true,
		},
		{
			name:    "unknown field",
			data:    `libraries: [{path: "a.go", alias: "x"}]`,
			wantErr: true,
		},
		{
			name:    "wrong type",
			data:    `libraries: [{path: "a.go", pack: "yes"}]`,
			wantErr: true,
		},
		{
			name:    "packed prefix without name",
			data:    `libraries: [{path: "packed:"}]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := Parse([]byte(tt.data), "test.dna")
			if tt.wantErr {
				if res.Ok() {
					t.Fatalf("Parse() succeeded, want error; manifest = %+v", res.Manifest())
				}
				if !errors.Is(res.Err(), ErrParse) {
					t.Errorf("Parse() error = %v, want wrapping ErrParse", res.Err())
				}
				if res.Manifest() != nil {
					t.Error("failed Result must not carry a manifest")
				}
				return
			}
			if !res.Ok() {
				t.Fatalf("Parse() error = %v", res.Err())
			}
			if diff := cmp.Diff(tt.want, res.Manifest(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrorNamesSource(t *testing.T) {
	t.Parallel()

	res := Parse([]byte(`libraries: [`), "tools/broken.dna")
	var pe *ParseError
	if !errors.As(res.Err(), &pe) {
		t.Fatalf("error = %T, want *ParseError", res.Err())
	}
	if pe.Source != "tools/broken.dna" {
		t.Errorf("Source = %q, want %q", pe.Source, "tools/broken.dna")
	}
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "libs.DNA")
	if err := os.WriteFile(path, []byte(`libraries: [{path: "a.go"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	res := ParseFile(path)
	if !res.Ok() {
		t.Fatalf("ParseFile() error = %v", res.Err())
	}
	if got := res.Manifest().Source; got != path {
		t.Errorf("Source = %q, want %q", got, path)
	}

	missing := ParseFile(filepath.Join(dir, "missing.dna"))
	if missing.Ok() {
		t.Fatal("ParseFile() on a missing file succeeded")
	}
	if !errors.Is(missing.Err(), os.ErrNotExist) {
		t.Errorf("error = %v, want wrapping os.ErrNotExist", missing.Err())
	}
}

func TestZeroResultIsFailure(t *testing.T) {
	t.Parallel()

	var r Result
	if r.Ok() {
		t.Error("zero Result reports Ok")
	}
	if r.Err() == nil {
		t.Error("zero Result must report an error")
	}
}

func TestReferences(t *testing.T) {
	t.Parallel()

	m := &Manifest{Libraries: []Library{
		{Path: "a.go", ExplicitExports: true},
		{Path: "packed:b.go", Pack: true},
		{Path: ""},
		{Path: "nested/c.dna"},
	}}

	refs := m.References()
	if len(refs) != 3 {
		t.Fatalf("len(References()) = %d, want 3", len(refs))
	}

	want := []struct {
		locator  libref.Locator
		scheme   libref.Scheme
		explicit bool
		pack     bool
		manifest bool
	}{
		{"a.go", libref.SchemeFile, true, false, false},
		{"packed:b.go", libref.SchemePacked, false, true, false},
		{"nested/c.dna", libref.SchemeFile, false, false, true},
	}
	for i, w := range want {
		ref := refs[i]
		if ref.Locator() != w.locator || ref.Scheme() != w.scheme ||
			ref.ExplicitExports() != w.explicit || ref.Pack() != w.pack || ref.IsManifest() != w.manifest {
			t.Errorf("refs[%d] = {%s %s explicit=%v pack=%v manifest=%v}, want %+v",
				i, ref.Locator(), ref.Scheme(), ref.ExplicitExports(), ref.Pack(), ref.IsManifest(), w)
		}
	}

	var nilManifest *Manifest
	if got := nilManifest.References(); got != nil {
		t.Errorf("nil manifest References() = %v, want nil", got)
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	if got := (&Manifest{Name: "core"}).DisplayName(); got != "core" {
		t.Errorf("DisplayName() = %q, want core", got)
	}
	if got := (&Manifest{Source: "dir/tools.dna"}).DisplayName(); got != "tools" {
		t.Errorf("DisplayName() = %q, want tools", got)
	}
}

func TestGenerateRoundTrip(t *testing.T) {
	t.Parallel()

	orig := &Manifest{
		Name:        "bundle",
		Description: `quotes "inside"`,
		Libraries: []Library{
			{Path: `C:\libs\a.go`, ExplicitExports: true},
			{Path: "packed:b.dna"},
			{Path: "c.go", Pack: true},
		},
	}

	res := Parse([]byte(Generate(orig)), "gen.dna")
	if !res.Ok() {
		t.Fatalf("Parse(Generate()) error = %v\n%s", res.Err(), Generate(orig))
	}
	if diff := cmp.Diff(orig, res.Manifest(), cmpopts.IgnoreFields(Manifest{}, "Source")); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if res := Parse([]byte(Generate(nil)), "nil.dna"); !res.Ok() || len(res.Manifest().Libraries) != 0 {
		t.Errorf("Generate(nil) should parse to an empty manifest, got %v", res.Err())
	}
}
