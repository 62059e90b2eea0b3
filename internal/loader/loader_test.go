// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const statsSrc = `package stats

import "strings"

const Version = "1.0"

var Prefix = "stats"

type Sample struct{ N int }

func Double(n int) int { return n * 2 }

func Upper(s string) string { return strings.ToUpper(s) }

func helper() {}
`

func TestLoadBytes(t *testing.T) {
	t.Parallel()

	h, err := New().LoadBytes(t.Context(), "packed:lib/stats.go", []byte(statsSrc))
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	handle := h.(*Handle)

	if handle.Name() != "stats.go" || handle.Origin() != "packed:lib/stats.go" {
		t.Errorf("Name() = %q, Origin() = %q", handle.Name(), handle.Origin())
	}
	if handle.Package() != "stats" {
		t.Errorf("Package() = %q, want stats", handle.Package())
	}

	want := []string{"Double", "Prefix", "Sample", "Upper", "Version"}
	if diff := cmp.Diff(want, handle.Symbols()); diff != "" {
		t.Errorf("Symbols() mismatch (-want +got):\n%s", diff)
	}

	v, err := handle.Lookup("Double")
	if err != nil {
		t.Fatalf("Lookup(Double) error = %v", err)
	}
	double, ok := v.Interface().(func(int) int)
	if !ok {
		t.Fatalf("Double has type %T", v.Interface())
	}
	if got := double(21); got != 42 {
		t.Errorf("Double(21) = %d, want 42", got)
	}

	v, err = handle.Lookup("Upper")
	if err != nil {
		t.Fatalf("Lookup(Upper) error = %v", err)
	}
	if got := v.Interface().(func(string) string)("go"); got != "GO" {
		t.Errorf("Upper(go) = %q", got)
	}

	if _, err := handle.Lookup("helper"); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("Lookup(helper) error = %v, want ErrSymbolNotFound", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stats.go")
	if err := os.WriteFile(path, []byte(statsSrc), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := New().LoadFile(t.Context(), path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if h.Name() != "stats.go" || h.Origin() != path {
		t.Errorf("Name() = %q, Origin() = %q", h.Name(), h.Origin())
	}

	if _, err := New().LoadFile(t.Context(), filepath.Join(t.TempDir(), "missing.go")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		loader *Loader
		src    string
		is     error
	}{
		{name: "empty", loader: New(), src: "  \n", is: ErrEmptySource},
		{name: "syntax error", loader: New(), src: "package x\nfunc {"},
		{
			name:   "forbidden import",
			loader: New(WithAllowedImports([]string{"strings"})),
			src:    "package x\nimport (\n\t\"os\"\n\t\"strings\"\n)\nvar _ = strings.ToUpper\nvar _ = os.Getpid\n",
			is:     ErrImportNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, err := tt.loader.LoadBytes(t.Context(), "packed:x.go", []byte(tt.src))
			if err == nil {
				t.Fatalf("LoadBytes() = %v, want error", h)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("LoadBytes() error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestImportErrorListsForbidden(t *testing.T) {
	t.Parallel()

	src := "package x\nimport (\n\t\"os\"\n\t\"net/http\"\n\t\"strings\"\n)\n"
	_, err := New(WithAllowedImports([]string{"strings"})).LoadBytes(t.Context(), "x.go", []byte(src))

	var ie *ImportError
	if !errors.As(err, &ie) {
		t.Fatalf("error = %v, want *ImportError", err)
	}
	if diff := cmp.Diff([]string{"os", "net/http"}, ie.Forbidden); diff != "" {
		t.Errorf("Forbidden mismatch (-want +got):\n%s", diff)
	}
}

func TestAllowedImportsPermit(t *testing.T) {
	t.Parallel()

	l := New(WithAllowedImports([]string{"strings"}))
	if _, err := l.LoadBytes(t.Context(), "packed:stats.go", []byte(statsSrc)); err != nil {
		t.Errorf("LoadBytes() error = %v", err)
	}
}

func TestWithoutStdlib(t *testing.T) {
	t.Parallel()

	if _, err := New(WithoutStdlib()).LoadBytes(t.Context(), "packed:stats.go", []byte(statsSrc)); err == nil {
		t.Error("stdlib import should fail to resolve without stdlib symbols")
	}

	plain := "package calc\nfunc Add(a, b int) int { return a + b }\n"
	if _, err := New(WithoutStdlib()).LoadBytes(t.Context(), "packed:calc.go", []byte(plain)); err != nil {
		t.Errorf("import-free unit should load without stdlib: %v", err)
	}
}

func TestLoadCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := New().LoadBytes(ctx, "packed:stats.go", []byte(statsSrc)); !errors.Is(err, context.Canceled) {
		t.Errorf("LoadBytes() error = %v, want context.Canceled", err)
	}
}

func TestUnitsAreIsolated(t *testing.T) {
	t.Parallel()

	l := New()
	a, err := l.LoadBytes(t.Context(), "packed:a.go", []byte("package shared\nvar Counter = 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := l.LoadBytes(t.Context(), "packed:b.go", []byte("package shared\nvar Counter = 2\n"))
	if err != nil {
		t.Fatalf("second unit with the same package name failed: %v", err)
	}

	va, _ := a.(*Handle).Lookup("Counter")
	vb, _ := b.(*Handle).Lookup("Counter")
	if va.Interface() == vb.Interface() {
		t.Errorf("units share state: both Counter = %v", va.Interface())
	}
}
