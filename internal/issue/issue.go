// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	FileNotFoundId Id = iota + 1
	LoadFailedId
	ManifestParseFailedId
	ResourceFailedId
	ManifestCycleId
	DepthExceededId
	InvalidReferenceId
	CanceledId
	ConfigLoadFailedId
	PackFailedId
	HostDirUnavailableId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	slug     string      // stable name, matches the diagnostic kind where one exists
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // docs about the issue type
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Slug() string {
	return i.slug
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	fileNotFoundIssue = &Issue{
		id:   FileNotFoundId,
		slug: "not_found",
		mdMsg: `
# Library file not found!

A library path could not be found, neither as given nor next to the extlib executable.

## Lookup order
1. The path as written (relative paths resolve against the working directory)
2. The host directory: rooted paths keep only their file name, relative paths are joined as-is

## Things you can try:
- Check the spelling and extension of the path
- Print the fallback location that was tried:
~~~
$ extlib resolve --verbose path/to/lib.go
~~~
- Set an explicit host directory in your config:
~~~cue
host_dir: "/opt/extlib"
~~~`,
	}

	loadFailedIssue = &Issue{
		id:   LoadFailedId,
		slug: "load_failed",
		mdMsg: `
# Failed to load a code unit!

The file was found but could not be loaded as a Go source unit. The reference is skipped
and resolution continues with the remaining libraries.

## Common causes:
- Syntax or type errors in the unit
- An import outside ` + "`loader.allowed_imports`" + `
- The file is empty

## Things you can try:
- Compile the unit on its own with the Go toolchain
- Allow the import in your config:
~~~cue
loader: allowed_imports: ["fmt", "strings"]
~~~`,
	}

	manifestParseFailedIssue = &Issue{
		id:   ManifestParseFailedId,
		slug: "parse_failed",
		mdMsg: `
# Failed to parse manifest!

A ` + "`.dna`" + ` manifest could not be parsed. Its libraries are skipped.

## Expected format:
~~~cue
name: "core"
libraries: [
  {path: "strings.go"},
  {path: "packed:vendor.dna", explicit_exports: true},
]
~~~

## Things you can try:
- Check the CUE syntax (balanced braces, quoted strings)
- Every library needs a non-empty ` + "`path`",
	}

	resourceFailedIssue = &Issue{
		id:   ResourceFailedId,
		slug: "resource_failed",
		mdMsg: `
# Packed resource unavailable!

A ` + "`packed:`" + ` reference names a resource that the pack archive does not contain,
or no pack archive is configured.

## Things you can try:
- List the archive contents:
~~~
$ extlib pack --list
~~~
- Point extlib at the archive:
~~~cue
pack_archive: "/opt/extlib/libs.zip"
~~~
- Re-create the archive with ` + "`extlib pack`",
	}

	manifestCycleIssue = &Issue{
		id:   ManifestCycleId,
		slug: "cycle",
		mdMsg: `
# Manifest cycle skipped!

A manifest references itself, directly or through other manifests. The repeated
reference is skipped; every unit reached before it is still loaded.

## Things you can try:
- Follow the chain printed in the warning and remove the back reference`,
	}

	depthExceededIssue = &Issue{
		id:   DepthExceededId,
		slug: "depth_exceeded",
		mdMsg: `
# Manifest nesting too deep!

Manifests are nested deeper than ` + "`resolver.max_depth`" + ` allows.

## Things you can try:
- Flatten the manifest hierarchy
- Raise the limit:
~~~cue
resolver: max_depth: 128
~~~`,
	}

	invalidReferenceIssue = &Issue{
		id:   InvalidReferenceId,
		slug: "invalid_reference",
		mdMsg: `
# Invalid library reference!

The reference is empty, or ` + "`packed:`" + ` is not followed by a resource name.

## Things you can try:
- Give every library a path: ` + "`{path: \"lib/util.go\"}`" + `
- Name the resource after the prefix: ` + "`packed:util.go`",
	}

	canceledIssue = &Issue{
		id:   CanceledId,
		slug: "canceled",
		mdMsg: `
# Resolution canceled!

Resolution stopped before every reference was processed. Units resolved so far are kept.`,
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		slug: "config_load_failed",
		mdMsg: `
# Failed to load configuration!

Your extlib configuration file could not be loaded or validated.

## Things you can try:
- Show the effective configuration:
~~~
$ extlib config show
~~~
- Recreate the default configuration:
~~~
$ extlib config init
~~~`,
	}

	packFailedIssue = &Issue{
		id:   PackFailedId,
		slug: "pack_failed",
		mdMsg: `
# Failed to pack libraries!

` + "`extlib pack`" + ` could not write the archive.

## Common causes:
- A library marked ` + "`pack: true`" + ` does not exist
- Manifests include each other in a cycle
- The output directory is not writable`,
	}

	hostDirUnavailableIssue = &Issue{
		id:   HostDirUnavailableId,
		slug: "host_dir_unavailable",
		mdMsg: `
# Host directory unavailable!

The directory of the extlib executable could not be determined, so missing paths
have no fallback location.

## Things you can try:
- Set ` + "`host_dir`" + ` in your config or pass ` + "`--host-dir`",
	}

	permissionDeniedIssue = &Issue{
		id:   PermissionDeniedId,
		slug: "permission_denied",
		mdMsg: `
# Permission denied!

You don't have permission to read a library or write the archive.

## Things you can try:
- Check file/directory permissions
- Run extlib from a directory you own`,
	}

	issues = map[Id]*Issue{
		fileNotFoundIssue.Id():        fileNotFoundIssue,
		loadFailedIssue.Id():          loadFailedIssue,
		manifestParseFailedIssue.Id(): manifestParseFailedIssue,
		resourceFailedIssue.Id():      resourceFailedIssue,
		manifestCycleIssue.Id():       manifestCycleIssue,
		depthExceededIssue.Id():       depthExceededIssue,
		invalidReferenceIssue.Id():    invalidReferenceIssue,
		canceledIssue.Id():            canceledIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		packFailedIssue.Id():          packFailedIssue,
		hostDirUnavailableIssue.Id():  hostDirUnavailableIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
	}
)

func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		values = append(values, i)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}

// Lookup finds an issue by slug. Diagnostic kinds share their slug with the
// matching issue, so `Lookup(string(kind))` explains a diagnostic.
func Lookup(slug string) *Issue {
	for _, i := range issues {
		if i.slug == slug {
			return i
		}
	}
	return nil
}
