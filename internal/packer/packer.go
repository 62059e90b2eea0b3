// SPDX-License-Identifier: MPL-2.0

package packer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/extlib/extlib/internal/resource"
	"github.com/extlib/extlib/pkg/libref"
	"github.com/extlib/extlib/pkg/manifest"
)

// ErrManifestCycle is returned when packed manifests reference each other.
var ErrManifestCycle = errors.New("manifest cycle")

type (
	// LocateFunc maps a declared path to an existing file, applying the same
	// host-directory fallback as resolution.
	LocateFunc func(path string) (string, error)

	// PackRequest describes one archive build.
	PackRequest struct {
		// Manifest is the root manifest file.
		Manifest string
		// Output is the archive file to create.
		Output string
		// Embed, when set, is an executable copied in front of the archive so
		// the result can serve its own packed resources.
		Embed string
		// Locate finds library files. Paths are used verbatim when nil.
		Locate LocateFunc
	}

	// PackedEntry describes one file stored in the archive.
	PackedEntry struct {
		Kind   resource.EntryKind
		Name   string
		Source string
	}

	// Report summarizes a finished pack.
	Report struct {
		// Root is the locator that resolves the packed root manifest.
		Root libref.Locator
		// Entries lists archive entries in write order.
		Entries []PackedEntry
		// Kept counts libraries left unchanged (not marked pack or already packed).
		Kept int
	}

	packer struct {
		ctx     context.Context
		locate  LocateFunc
		entries []resource.Entry
		report  Report
		taken   map[resource.EntryKind]map[string]bool
		stack   []string
	}
)

// Pack builds the archive described by req.
func Pack(ctx context.Context, req PackRequest) (report Report, err error) {
	if req.Manifest == "" {
		return Report{}, errors.New("no manifest given")
	}
	if req.Output == "" {
		return Report{}, errors.New("no output archive given")
	}

	p := &packer{
		ctx:    ctx,
		locate: req.Locate,
		taken: map[resource.EntryKind]map[string]bool{
			resource.EntryManifest: {},
			resource.EntryModule:   {},
		},
	}
	if p.locate == nil {
		p.locate = verbatim
	}

	rootName, err := p.packManifest(req.Manifest)
	if err != nil {
		return Report{}, err
	}
	p.report.Root = libref.Packed(libref.ResourceName(rootName))

	if err := write(req, p.entries); err != nil {
		return Report{}, err
	}
	return p.report, nil
}

// packManifest stores the manifest at file and everything it packs, returning
// the manifest's resource name.
func (p *packer) packManifest(file string) (string, error) {
	if err := p.ctx.Err(); err != nil {
		return "", err
	}

	id, err := filepath.Abs(file)
	if err != nil {
		id = filepath.Clean(file)
	}
	if slices.Contains(p.stack, id) {
		return "", fmt.Errorf("%w: %s", ErrManifestCycle, strings.Join(append(slices.Clone(p.stack), id), " -> "))
	}
	p.stack = append(p.stack, id)
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()

	res := manifest.ParseFile(file)
	if !res.Ok() {
		return "", res.Err()
	}
	src := res.Manifest()

	out := *src
	out.Libraries = make([]manifest.Library, 0, len(src.Libraries))
	for i, lib := range src.Libraries {
		ref, err := lib.Reference()
		if err != nil {
			return "", fmt.Errorf("%s: libraries[%d]: %w", file, i, err)
		}
		if !ref.Pack() || ref.Scheme() == libref.SchemePacked {
			p.report.Kept++
			out.Libraries = append(out.Libraries, lib)
			continue
		}

		located, err := p.locate(lib.Path)
		if err != nil {
			return "", fmt.Errorf("%s: libraries[%d]: %w", file, i, err)
		}

		var name string
		if libref.IsManifestName(located) {
			name, err = p.packManifest(located)
		} else {
			name, err = p.packModule(located)
		}
		if err != nil {
			return "", err
		}
		lib.Path = string(libref.Packed(libref.ResourceName(name)))
		out.Libraries = append(out.Libraries, lib)
	}

	name := p.claim(resource.EntryManifest, filepath.Base(file))
	p.add(resource.EntryManifest, name, file, []byte(manifest.Generate(&out)))
	return name, nil
}

func (p *packer) packModule(file string) (string, error) {
	if err := p.ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read library: %w", err)
	}
	name := p.claim(resource.EntryModule, filepath.Base(file))
	p.add(resource.EntryModule, name, file, data)
	return name, nil
}

func (p *packer) add(kind resource.EntryKind, name, source string, data []byte) {
	p.entries = append(p.entries, resource.Entry{Kind: kind, Name: name, Data: data})
	p.report.Entries = append(p.report.Entries, PackedEntry{Kind: kind, Name: name, Source: source})
}

// claim reserves a unique resource name derived from base. Clashes get a
// numeric suffix before the extension: util.go, util-2.go, util-3.go.
func (p *packer) claim(kind resource.EntryKind, base string) string {
	taken := p.taken[kind]
	name := base
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 2; taken[name]; n++ {
		name = stem + "-" + strconv.Itoa(n) + ext
	}
	taken[name] = true
	return name
}

func verbatim(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	return path, nil
}

func write(req PackRequest, entries []resource.Entry) (err error) {
	out, err := os.Create(req.Output)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(req.Output)
		}
	}()

	if req.Embed == "" {
		return resource.WriteArchive(out, entries)
	}

	exe, err := os.Open(req.Embed)
	if err != nil {
		return fmt.Errorf("open executable: %w", err)
	}
	defer func() { _ = exe.Close() }()

	if err := resource.AppendArchive(out, exe, entries); err != nil {
		return err
	}
	return os.Chmod(req.Output, 0o755)
}
