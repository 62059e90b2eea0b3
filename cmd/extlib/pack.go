// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/extlib/extlib/internal/issue"
	"github.com/extlib/extlib/internal/packer"
	"github.com/extlib/extlib/internal/resource"

	"github.com/spf13/cobra"
)

type packOptions struct {
	session sessionFlags
	output  string
	embed   string
	list    string
}

var errNoPackOutput = errors.New("no output archive given")

func newPackCommand(app *App) *cobra.Command {
	var opts packOptions

	packCmd := &cobra.Command{
		Use:   "pack <manifest.dna>",
		Short: "Pack a manifest and its libraries into an archive",
		Long: `Pack a manifest and every library it marks with 'pack: true' into a zip
archive. Packed entries are rewritten to 'packed:<name>' locators so the archive
resolves without the original files.

With --embed the archive is appended to a copy of the given executable, which
then serves its own packed resources.

Examples:
  extlib pack core.dna -o core.zip
  extlib resolve --pack-archive core.zip packed:core.dna
  extlib pack core.dna -o dist/extlib --embed ./extlib
  extlib pack --list core.zip`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.list != "" {
				return listArchive(app, opts.list)
			}
			if len(args) == 0 {
				return cmd.Help()
			}
			return runPack(cmd.Context(), app, opts, args[0])
		},
	}

	packCmd.Flags().StringVarP(&opts.output, "output", "o", "", "archive file to create")
	packCmd.Flags().StringVar(&opts.embed, "embed", "", "executable to prepend to the archive")
	packCmd.Flags().StringVar(&opts.session.HostDir, "host-dir", "", "fallback directory for missing library paths")
	packCmd.Flags().StringVar(&opts.list, "list", "", "list the resources held by an archive")

	return packCmd
}

func runPack(ctx context.Context, app *App, opts packOptions, manifestPath string) error {
	if opts.output == "" {
		return issue.NewErrorContext().
			WithOperation("pack libraries").
			WithResource(manifestPath).
			WithSuggestion("Name the archive to create: extlib pack " + manifestPath + " -o libs.zip").
			Wrap(errNoPackOutput).
			BuildError()
	}

	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	// Packing reads from disk only.
	opts.session.NoPack = true

	sess, err := app.newSession(cfg, opts.session)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	report, err := packer.Pack(ctx, packer.PackRequest{
		Manifest: manifestPath,
		Output:   opts.output,
		Embed:    opts.embed,
		Locate:   sess.resolver.Locate,
	})
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("pack libraries").
			WithResource(manifestPath).
			WithSuggestion("Run 'extlib resolve " + manifestPath + "' to see which references fail").
			WithSuggestion("Run 'extlib explain pack_failed' for details").
			Wrap(err).
			BuildError()
	}

	for _, e := range report.Entries {
		kind := "module"
		if e.Kind == resource.EntryManifest {
			kind = "manifest"
		}
		fmt.Fprintf(app.stdout, "%s  %-8s  %s\n", SuccessStyle.Render("+"), kind, CmdStyle.Render(e.Name))
		app.logger.Debug("packed", "source", e.Source, "name", e.Name)
	}
	fmt.Fprintln(app.stdout, summaryStyle.Render(fmt.Sprintf("%d packed, %d kept; root %s",
		len(report.Entries), report.Kept, report.Root)))
	return nil
}

func listArchive(app *App, path string) error {
	store, closer, err := resource.OpenArchive(path)
	if err != nil {
		return issue.WrapWithContext(err, "open pack archive", path)
	}
	defer func() { _ = closer.Close() }()

	listing, err := store.List()
	if err != nil {
		return err
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Manifests"))
	printNames(app, listing.Manifests)
	fmt.Fprintln(app.stdout)
	fmt.Fprintln(app.stdout, TitleStyle.Render("Modules"))
	printNames(app, listing.Modules)
	return nil
}

func printNames(app *App, names []string) {
	if len(names) == 0 {
		fmt.Fprintf(app.stdout, "  %s\n", SubtitleStyle.Render("(none)"))
		return
	}
	for _, name := range names {
		fmt.Fprintf(app.stdout, "  %s\n", CmdStyle.Render("packed:"+name))
	}
}
