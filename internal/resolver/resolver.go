// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/extlib/extlib/pkg/libref"
	"github.com/extlib/extlib/pkg/manifest"
)

// DefaultMaxDepth bounds manifest nesting when no WithMaxDepth option is given.
const DefaultMaxDepth = 64

var errLoaderNoUnit = errors.New("loader returned no unit")

type (
	// HostDir supplies the directory of the running host executable.
	HostDir interface {
		ExecutableDir() (string, error)
	}

	// Resources fetches packed resource bytes by name.
	Resources interface {
		ManifestBytes(name string) ([]byte, error)
		ModuleBytes(name string) ([]byte, error)
	}

	// Loader turns a file or in-memory source into a loaded code unit.
	Loader interface {
		LoadFile(ctx context.Context, path string) (libref.Handle, error)
		LoadBytes(ctx context.Context, origin string, src []byte) (libref.Handle, error)
	}

	// Manifests parses manifest documents.
	Manifests interface {
		Parse(data []byte, source string) manifest.Result
		ParseFile(path string) manifest.Result
	}

	// StatFS reports file metadata. os.Stat is used when none is supplied.
	StatFS interface {
		Stat(name string) (fs.FileInfo, error)
	}

	// Dependencies are the collaborators a Resolver calls. A nil collaborator
	// is reported as a diagnostic when a reference needs it.
	Dependencies struct {
		Host      HostDir
		Resources Resources
		Loader    Loader
		Manifests Manifests
		FS        StatFS
		Logger    *slog.Logger
	}

	// Option configures a Resolver.
	Option func(*Resolver)

	// Resolver expands references into loaded code units. It holds no mutable
	// state and is safe for concurrent use when its collaborators are.
	Resolver struct {
		deps     Dependencies
		maxDepth int
	}

	// run carries the per-call state of one Resolve or ResolveAll.
	run struct {
		r      *Resolver
		log    *slog.Logger
		id     string
		units  []libref.ResolvedUnit
		diags  []Diagnostic
		stack  []string
		origin libref.Locator
	}
)

// WithMaxDepth bounds how many manifests may be nested inside each other.
// Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(r *Resolver) {
		if n >= 1 {
			r.maxDepth = n
		}
	}
}

// New creates a Resolver. Manifests defaults to manifest.Parser, FS to the
// OS filesystem and Logger to a discarding logger.
func New(deps Dependencies, opts ...Option) *Resolver {
	if deps.Manifests == nil {
		deps.Manifests = manifest.Parser{}
	}
	if deps.FS == nil {
		deps.FS = osFS{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	r := &Resolver{deps: deps, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxDepth returns the configured manifest nesting limit.
func (r *Resolver) MaxDepth() int { return r.maxDepth }

// Resolve expands ref into its code units. It never panics and never fails:
// problems are returned as diagnostics and the affected reference contributes
// no units.
func (r *Resolver) Resolve(ctx context.Context, ref libref.Reference) Result {
	rn := r.newRun()
	rn.resolve(ctx, ref)
	return rn.result()
}

// ResolveAll resolves each reference independently, in order, and
// concatenates the results. A failing reference never affects its siblings.
func (r *Resolver) ResolveAll(ctx context.Context, refs []libref.Reference) Result {
	rn := r.newRun()
	for _, ref := range refs {
		rn.resolve(ctx, ref)
	}
	return rn.result()
}

// ResolveLocator builds a reference from a raw locator and resolves it. An
// invalid locator yields an invalid_reference diagnostic and no units.
func (r *Resolver) ResolveLocator(ctx context.Context, locator string, opts ...libref.Option) Result {
	return r.ResolveLocators(ctx, []string{locator}, opts...)
}

// ResolveLocators is ResolveAll over raw locators sharing the same flags.
// Invalid locators are reported in place and do not affect their siblings.
func (r *Resolver) ResolveLocators(ctx context.Context, locators []string, opts ...libref.Option) Result {
	rn := r.newRun()
	for _, locator := range locators {
		ref, err := libref.New(locator, opts...)
		if err != nil {
			rn.origin = libref.Locator(locator)
			rn.report(Diagnostic{
				Kind:    KindInvalidReference,
				Message: fmt.Sprintf("invalid library reference %q: %v", locator, err),
				Cause:   err,
			})
			rn.origin = ""
			continue
		}
		rn.resolve(ctx, ref)
	}
	return rn.result()
}

func (r *Resolver) newRun() *run {
	id := uuid.NewString()
	return &run{
		r:   r,
		id:  id,
		log: r.deps.Logger.With(slog.String("run", id)),
	}
}

func (rn *run) result() Result {
	return Result{Units: rn.units, Diagnostics: rn.diags, RunID: rn.id}
}

// resolve handles one reference. Units appended for it are discarded again if
// the reference panics half-way.
func (rn *run) resolve(ctx context.Context, ref libref.Reference) {
	prevOrigin := rn.origin
	mark := len(rn.units)
	depth := len(rn.stack)

	defer func() {
		if p := recover(); p != nil {
			rn.units = rn.units[:mark]
			rn.stack = rn.stack[:depth]
			rn.report(Diagnostic{
				Kind:    KindLoadFailed,
				Message: fmt.Sprintf("load exception for %s: panic: %v", rn.origin, p),
				Cause:   fmt.Errorf("panic: %v", p),
			})
		}
		rn.origin = prevOrigin
	}()

	if ref == nil {
		rn.report(Diagnostic{Kind: KindInvalidReference, Message: "invalid library reference: nil"})
		return
	}
	rn.origin = ref.Locator()

	switch ref := ref.(type) {
	case *libref.PackedReference:
		rn.resolvePacked(ctx, ref)
	case *libref.FileReference:
		rn.resolveFile(ctx, ref)
	default:
		rn.report(Diagnostic{
			Kind:    KindInvalidReference,
			Message: fmt.Sprintf("invalid library reference %s: unsupported type %T", ref.Locator(), ref),
		})
	}
}

func (rn *run) resolvePacked(ctx context.Context, ref *libref.PackedReference) {
	name := string(ref.Resource())

	if rn.r.deps.Resources == nil {
		rn.report(Diagnostic{
			Kind:    KindResourceFailed,
			Path:    name,
			Message: fmt.Sprintf("packed resource %s unavailable: no pack archive configured", ref.Locator()),
		})
		return
	}

	if ref.IsManifest() {
		if !rn.enter(string(ref.Locator()), name) {
			return
		}
		defer rn.leave()

		if rn.canceled(ctx) {
			return
		}
		data, err := rn.r.deps.Resources.ManifestBytes(name)
		if err != nil {
			rn.resourceFailed(name, err)
			return
		}
		rn.expand(ctx, rn.r.deps.Manifests.Parse(data, string(ref.Locator())), name)
		return
	}

	if rn.canceled(ctx) {
		return
	}
	data, err := rn.r.deps.Resources.ModuleBytes(name)
	if err != nil {
		rn.resourceFailed(name, err)
		return
	}
	rn.load(ref, name, func() (libref.Handle, error) {
		return rn.r.deps.Loader.LoadBytes(ctx, string(ref.Locator()), data)
	})
}

func (rn *run) resolveFile(ctx context.Context, ref *libref.FileReference) {
	if rn.canceled(ctx) {
		return
	}

	path, err := rn.r.Locate(string(ref.Path()))
	if err != nil {
		d := Diagnostic{
			Kind:    KindNotFound,
			Path:    string(ref.Path()),
			Message: "could not find file " + string(ref.Locator()),
			Cause:   err,
		}
		var nf *NotFoundError
		if errors.As(err, &nf) && nf.Fallback != "" {
			d.Path = nf.Fallback
		}
		rn.report(d)
		return
	}

	if libref.IsManifestName(path) {
		if !rn.enter(manifestIdentity(path), path) {
			return
		}
		defer rn.leave()

		if rn.canceled(ctx) {
			return
		}
		rn.expand(ctx, rn.r.deps.Manifests.ParseFile(path), path)
		return
	}

	if rn.canceled(ctx) {
		return
	}
	rn.load(ref, path, func() (libref.Handle, error) {
		return rn.r.deps.Loader.LoadFile(ctx, path)
	})
}

// load runs fn through the Loader collaborator and records the unit.
func (rn *run) load(ref libref.Reference, path string, fn func() (libref.Handle, error)) {
	if rn.r.deps.Loader == nil {
		rn.report(Diagnostic{
			Kind:    KindLoadFailed,
			Path:    path,
			Message: fmt.Sprintf("load exception for %s: no loader configured", ref.Locator()),
		})
		return
	}

	h, err := fn()
	if err == nil && h == nil {
		err = errLoaderNoUnit
	}
	if err != nil {
		rn.report(Diagnostic{
			Kind:    KindLoadFailed,
			Path:    path,
			Message: fmt.Sprintf("load exception for %s: %v", ref.Locator(), oneLine(err)),
			Cause:   err,
		})
		return
	}

	rn.units = append(rn.units, libref.NewUnit(ref, h))
}

// expand resolves the references of a parsed manifest in declaration order.
func (rn *run) expand(ctx context.Context, res manifest.Result, source string) {
	if !res.Ok() {
		rn.report(Diagnostic{
			Kind:    KindParseFailed,
			Path:    source,
			Message: fmt.Sprintf("manifest %s could not be parsed: %v", rn.origin, oneLine(res.Err())),
			Cause:   res.Err(),
		})
		return
	}

	for i, lib := range res.Manifest().Libraries {
		child, err := lib.Reference()
		if err != nil {
			rn.report(Diagnostic{
				Kind:    KindInvalidReference,
				Path:    source,
				Message: fmt.Sprintf("manifest %s: libraries[%d]: %v", rn.origin, i, err),
				Cause:   err,
			})
			continue
		}
		rn.resolve(ctx, child)
	}
}

// enter pushes a manifest identity onto the expansion stack. It reports a
// cycle or depth diagnostic and returns false when expansion must stop.
func (rn *run) enter(id, path string) bool {
	if i := slices.Index(rn.stack, id); i >= 0 {
		chain := append(slices.Clone(rn.stack[i:]), id)
		rn.report(Diagnostic{
			Kind:    KindCycle,
			Path:    path,
			Message: fmt.Sprintf("manifest cycle skipped at %s: %s", rn.origin, strings.Join(chain, " -> ")),
		})
		return false
	}
	if len(rn.stack) >= rn.r.maxDepth {
		rn.report(Diagnostic{
			Kind:    KindDepthExceeded,
			Path:    path,
			Message: fmt.Sprintf("manifest %s nested deeper than %d levels", rn.origin, rn.r.maxDepth),
		})
		return false
	}
	rn.stack = append(rn.stack, id)
	return true
}

func (rn *run) leave() { rn.stack = rn.stack[:len(rn.stack)-1] }

func (rn *run) canceled(ctx context.Context) bool {
	err := ctx.Err()
	if err == nil {
		return false
	}
	rn.report(Diagnostic{
		Kind:    KindCanceled,
		Message: fmt.Sprintf("resolution of %s canceled: %v", rn.origin, err),
		Cause:   err,
	})
	return true
}

func (rn *run) resourceFailed(name string, err error) {
	rn.report(Diagnostic{
		Kind:    KindResourceFailed,
		Path:    name,
		Message: fmt.Sprintf("packed resource %s could not be read: %v", rn.origin, oneLine(err)),
		Cause:   err,
	})
}

// report fills in defaults, records d and logs it at the level matching its
// severity.
func (rn *run) report(d Diagnostic) {
	if d.Locator == "" {
		d.Locator = rn.origin
	}
	if d.Severity == "" {
		d.Severity = d.Kind.Severity()
	}
	rn.diags = append(rn.diags, d)

	attrs := []any{
		slog.String("kind", string(d.Kind)),
		slog.String("locator", string(d.Locator)),
	}
	if d.Path != "" {
		attrs = append(attrs, slog.String("path", d.Path))
	}
	if d.Cause != nil {
		attrs = append(attrs, slog.String("error", d.Cause.Error()))
	}
	if d.Severity == SeverityError {
		rn.log.Error(d.Message, attrs...)
		return
	}
	rn.log.Warn(d.Message, attrs...)
}

// manifestIdentity is the cycle-detection key of a manifest file.
func manifestIdentity(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// oneLine folds a multi-line error message so each diagnostic stays on one line.
func oneLine(err error) string {
	if err == nil {
		return ""
	}
	return strings.Join(strings.Fields(err.Error()), " ")
}
