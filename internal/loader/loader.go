// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/extlib/extlib/pkg/libref"
)

var (
	// ErrEmptySource is returned for a unit with no code.
	ErrEmptySource = errors.New("empty source")
	// ErrImportNotAllowed is the sentinel wrapped by ImportError.
	ErrImportNotAllowed = errors.New("import not allowed")
	// ErrSymbolNotFound is returned by Handle.Lookup for unknown symbols.
	ErrSymbolNotFound = errors.New("symbol not found")
)

type (
	// Loader evaluates Go source units. The zero value is not usable; call New.
	Loader struct {
		allowed map[string]bool
		stdlib  bool
		goPath  string
	}

	// Option configures a Loader.
	Option func(*Loader)

	// ImportError lists the imports of a unit that are outside the allow-list.
	// It wraps ErrImportNotAllowed for errors.Is() compatibility.
	ImportError struct {
		Origin    string
		Forbidden []string
	}

	// Handle is a loaded unit. It implements libref.Handle.
	Handle struct {
		name    string
		origin  string
		pkg     string
		symbols []string

		mu     sync.Mutex
		interp *interp.Interpreter
	}
)

// WithAllowedImports restricts the packages a unit may import. An empty list
// means no restriction.
func WithAllowedImports(pkgs []string) Option {
	return func(l *Loader) {
		if len(pkgs) == 0 {
			l.allowed = nil
			return
		}
		l.allowed = make(map[string]bool, len(pkgs))
		for _, p := range pkgs {
			l.allowed[strings.TrimSpace(p)] = true
		}
	}
}

// WithoutStdlib stops the loader from exposing standard library symbols to
// units.
func WithoutStdlib() Option {
	return func(l *Loader) { l.stdlib = false }
}

// WithGoPath sets the GOPATH the interpreter resolves non-stdlib imports from.
func WithGoPath(dir string) Option {
	return func(l *Loader) { l.goPath = dir }
}

// New creates a Loader. By default standard library symbols are available and
// imports are unrestricted.
func New(opts ...Option) *Loader {
	l := &Loader{stdlib: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	return fmt.Sprintf("%s: forbidden imports %s", e.Origin, strings.Join(e.Forbidden, ", "))
}

// Unwrap returns ErrImportNotAllowed.
func (e *ImportError) Unwrap() error { return ErrImportNotAllowed }

// LoadFile reads and evaluates the Go source file at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (libref.Handle, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return l.load(ctx, filepath.Base(path), path, src)
}

// LoadBytes evaluates in-memory source. origin names the unit in errors and
// handles (a packed locator such as "packed:stats.go").
func (l *Loader) LoadBytes(ctx context.Context, origin string, src []byte) (libref.Handle, error) {
	name := path.Base(filepath.ToSlash(strings.TrimPrefix(origin, libref.PackedPrefix)))
	return l.load(ctx, name, origin, src)
}

func (l *Loader) load(ctx context.Context, name, origin string, src []byte) (*Handle, error) {
	if len(strings.TrimSpace(string(src))) == 0 {
		return nil, fmt.Errorf("%s: %w", origin, ErrEmptySource)
	}

	file, err := parser.ParseFile(token.NewFileSet(), origin, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", origin, err)
	}
	if err := l.checkImports(origin, file); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", origin, err)
	}

	i := interp.New(interp.Options{GoPath: l.goPath})
	if l.stdlib {
		if err := i.Use(stdlib.Symbols); err != nil {
			return nil, fmt.Errorf("failed to load stdlib: %w", err)
		}
	}
	if _, err := i.EvalWithContext(ctx, string(src)); err != nil {
		return nil, fmt.Errorf("interpret %s: %w", origin, err)
	}

	return &Handle{
		name:    name,
		origin:  origin,
		pkg:     file.Name.Name,
		symbols: exportedSymbols(file),
		interp:  i,
	}, nil
}

func (l *Loader) checkImports(origin string, file *ast.File) error {
	if l.allowed == nil {
		return nil
	}
	var forbidden []string
	for _, spec := range file.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			p = spec.Path.Value
		}
		if !l.allowed[p] {
			forbidden = append(forbidden, p)
		}
	}
	if len(forbidden) > 0 {
		return &ImportError{Origin: origin, Forbidden: forbidden}
	}
	return nil
}

// exportedSymbols lists the unit's exported top-level functions, variables,
// constants and types, sorted.
func exportedSymbols(file *ast.File) []string {
	var out []string
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil && d.Name.IsExported() {
				out = append(out, d.Name.Name)
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.ValueSpec:
					for _, n := range s.Names {
						if n.IsExported() {
							out = append(out, n.Name)
						}
					}
				case *ast.TypeSpec:
					if s.Name.IsExported() {
						out = append(out, s.Name.Name)
					}
				}
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Name returns the unit's leaf name.
func (h *Handle) Name() string { return h.name }

// Origin returns the file path or packed locator the unit was loaded from.
func (h *Handle) Origin() string { return h.origin }

// Package returns the unit's Go package name.
func (h *Handle) Package() string { return h.pkg }

// Symbols returns the unit's exported top-level identifiers.
func (h *Handle) Symbols() []string { return slices.Clone(h.symbols) }

// Lookup returns the value of an exported top-level identifier.
func (h *Handle) Lookup(symbol string) (reflect.Value, error) {
	if _, found := slices.BinarySearch(h.symbols, symbol); !found {
		return reflect.Value{}, fmt.Errorf("%s: %w: %s", h.origin, ErrSymbolNotFound, symbol)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	v, err := h.interp.Eval(h.pkg + "." + symbol)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%s: lookup %s: %w", h.origin, symbol, err)
	}
	return v, nil
}
