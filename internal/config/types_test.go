// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"

	"github.com/extlib/extlib/pkg/libref"
)

func TestColorScheme_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scheme  ColorScheme
		want    bool
		wantErr bool
	}{
		{ColorSchemeAuto, true, false},
		{ColorSchemeDark, true, false},
		{ColorSchemeLight, true, false},
		{"", false, true},
		{"garbage", false, true},
		{"AUTO", false, true},
		{"Dark", false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.scheme), func(t *testing.T) {
			t.Parallel()
			isValid, errs := tt.scheme.IsValid()
			if isValid != tt.want {
				t.Errorf("ColorScheme(%q).IsValid() = %v, want %v", tt.scheme, isValid, tt.want)
			}
			if tt.wantErr {
				if len(errs) == 0 {
					t.Fatalf("ColorScheme(%q).IsValid() returned no errors, want error", tt.scheme)
				}
				if !errors.Is(errs[0], ErrInvalidColorScheme) {
					t.Errorf("error should wrap ErrInvalidColorScheme, got: %v", errs[0])
				}
			} else if len(errs) > 0 {
				t.Errorf("ColorScheme(%q).IsValid() returned unexpected errors: %v", tt.scheme, errs)
			}
		})
	}
}

func TestResolverConfig_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		depth int
		want  bool
	}{
		{1, true},
		{DefaultMaxDepth, true},
		{0, false},
		{-3, false},
	}

	for _, tt := range tests {
		isValid, errs := ResolverConfig{MaxDepth: tt.depth}.IsValid()
		if isValid != tt.want {
			t.Errorf("ResolverConfig{MaxDepth: %d}.IsValid() = %v, want %v", tt.depth, isValid, tt.want)
		}
		if !tt.want && (len(errs) == 0 || !errors.Is(errs[0], ErrInvalidMaxDepth)) {
			t.Errorf("MaxDepth %d: expected ErrInvalidMaxDepth, got %v", tt.depth, errs)
		}
	}
}

func TestLoaderConfig_IsValid(t *testing.T) {
	t.Parallel()

	if ok, errs := (LoaderConfig{AllowedImports: []string{"fmt", "strings"}}).IsValid(); !ok {
		t.Errorf("expected valid loader config, got %v", errs)
	}

	ok, errs := LoaderConfig{AllowedImports: []string{"fmt", "  "}}.IsValid()
	if ok {
		t.Fatal("expected blank import path to be rejected")
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrInvalidImportPath) {
		t.Errorf("expected one ErrInvalidImportPath, got %v", errs)
	}
}

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if ok, errs := cfg.IsValid(); !ok {
		t.Fatalf("DefaultConfig().IsValid() = false: %v", errs)
	}

	bad := DefaultConfig()
	bad.Libraries = []LibraryEntry{{Path: "ok.go"}, {Path: "packed:"}}
	bad.Resolver.MaxDepth = 0
	bad.UI.ColorScheme = "neon"

	ok, errs := bad.IsValid()
	if ok {
		t.Fatal("expected invalid config")
	}
	if len(errs) != 1 {
		t.Fatalf("expected a single InvalidConfigError, got %d errors", len(errs))
	}

	var cfgErr *InvalidConfigError
	if !errors.As(errs[0], &cfgErr) {
		t.Fatalf("expected *InvalidConfigError, got %T", errs[0])
	}
	if len(cfgErr.FieldErrors) != 3 {
		t.Errorf("expected 3 field errors, got %d: %v", len(cfgErr.FieldErrors), cfgErr.FieldErrors)
	}
	for _, target := range []error{ErrInvalidConfig, ErrInvalidLibraryEntry, ErrInvalidMaxDepth, ErrInvalidColorScheme} {
		if !errors.Is(errs[0], target) {
			t.Errorf("expected error to wrap %v", target)
		}
	}

	var entryErr *InvalidLibraryEntryError
	if !errors.As(errs[0], &entryErr) {
		t.Fatal("expected *InvalidLibraryEntryError in the chain")
	}
	if entryErr.Index != 1 {
		t.Errorf("InvalidLibraryEntryError.Index = %d, want 1", entryErr.Index)
	}
}

func TestConfig_References(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Libraries = []LibraryEntry{
		{Path: "lib/util.go", ExplicitExports: true},
		{Path: "packed:bundle.dna", Pack: true},
	}

	refs, err := cfg.References()
	if err != nil {
		t.Fatalf("References() error: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d", len(refs))
	}
	if refs[0].Scheme() != libref.SchemeFile || !refs[0].ExplicitExports() {
		t.Errorf("first reference = %v (explicit %v), want file with explicit exports", refs[0].Scheme(), refs[0].ExplicitExports())
	}
	if refs[1].Scheme() != libref.SchemePacked || !refs[1].IsManifest() || !refs[1].Pack() {
		t.Errorf("second reference should be a packed manifest marked for packing")
	}

	cfg.Libraries = append(cfg.Libraries, LibraryEntry{Path: ""})
	if _, err := cfg.References(); !errors.Is(err, ErrInvalidLibraryEntry) {
		t.Errorf("expected ErrInvalidLibraryEntry for empty path, got %v", err)
	}
}
