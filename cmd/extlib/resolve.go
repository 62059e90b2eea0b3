// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/extlib/extlib/internal/config"
	"github.com/extlib/extlib/internal/issue"
	"github.com/extlib/extlib/internal/resolver"
	"github.com/extlib/extlib/internal/watch"
	"github.com/extlib/extlib/pkg/libref"

	"github.com/spf13/cobra"
)

// resolveOptions are the flags of `extlib resolve`.
type resolveOptions struct {
	session         sessionFlags
	explicitExports bool
	json            bool
	strict          bool
	watch           bool
	clearScreen     bool
}

func newResolveCommand(app *App) *cobra.Command {
	var opts resolveOptions

	resolveCmd := &cobra.Command{
		Use:   "resolve [locator...]",
		Short: "Resolve library references into loaded units",
		Long: `Resolve library references into loaded code units.

Each locator is a file path or 'packed:<name>'. Files ending in '.dna' are
manifests whose libraries are resolved recursively. Without arguments the
libraries listed in the configuration are resolved.

Problems never abort resolution: they are reported as diagnostics and the
affected reference contributes no units. Use --strict to exit with status 2
when any diagnostic was produced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), app, opts, args)
		},
	}

	resolveCmd.Flags().StringVar(&opts.session.PackArchive, "pack-archive", "", "zip archive serving packed: references")
	resolveCmd.Flags().StringVar(&opts.session.HostDir, "host-dir", "", "fallback directory for missing paths (default: executable directory)")
	resolveCmd.Flags().IntVar(&opts.session.MaxDepth, "max-depth", 0, "manifest nesting limit (default from config)")
	resolveCmd.Flags().BoolVar(&opts.explicitExports, "explicit-exports", false, "mark units from locator arguments as explicit-export")
	resolveCmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")
	resolveCmd.Flags().BoolVar(&opts.strict, "strict", false, "exit with status 2 when any diagnostic is produced")
	resolveCmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-resolve when library files change")
	resolveCmd.Flags().BoolVar(&opts.clearScreen, "clear", false, "clear the screen before each re-resolution (with --watch)")

	return resolveCmd
}

func runResolve(ctx context.Context, app *App, opts resolveOptions, args []string) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	if len(args) == 0 && len(cfg.Libraries) == 0 {
		return issue.NewErrorContext().
			WithOperation("resolve libraries").
			WithSuggestion("Pass locators as arguments: extlib resolve lib/util.go core.dna").
			WithSuggestion("Or list them in your config: libraries: [{path: \"core.dna\"}]").
			Wrap(errNoLibraries).
			BuildError()
	}

	sess, err := app.newSession(cfg, opts.session)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			app.logger.Warn("close pack archive", "error", closeErr)
		}
	}()

	resolve := func(ctx context.Context) resolver.Result {
		if len(args) > 0 {
			return sess.resolver.ResolveLocators(ctx, args, libref.WithExplicitExports(opts.explicitExports))
		}
		return resolveConfigured(ctx, sess.resolver, cfg)
	}

	res := resolve(ctx)
	if err := app.report(ctx, res, opts.json); err != nil {
		return err
	}

	if opts.watch {
		return app.watchAndResolve(ctx, opts, trackedFiles(args, res), func(ctx context.Context) resolver.Result {
			res := resolve(ctx)
			if err := app.report(ctx, res, opts.json); err != nil {
				app.logger.Warn("write report", "error", err)
			}
			return res
		})
	}

	if opts.strict && len(res.Diagnostics) > 0 {
		return &ExitError{
			Code: ExitDiagnostics,
			Err:  fmt.Errorf("%w: %d diagnostic(s)", errStrictDiagnostics, len(res.Diagnostics)),
		}
	}
	return nil
}

// resolveConfigured resolves the configured libraries. Entries were validated
// at config load, so conversion only fails for hand-built configs; those are
// resolved one locator at a time to keep the diagnostics.
func resolveConfigured(ctx context.Context, r *resolver.Resolver, cfg *config.Config) resolver.Result {
	refs, err := cfg.References()
	if err == nil {
		return r.ResolveAll(ctx, refs)
	}

	var out resolver.Result
	for _, entry := range cfg.Libraries {
		res := r.ResolveLocator(ctx, entry.Path,
			libref.WithPack(entry.Pack),
			libref.WithExplicitExports(entry.ExplicitExports))
		out.Units = append(out.Units, res.Units...)
		out.Diagnostics = append(out.Diagnostics, res.Diagnostics...)
		out.RunID = res.RunID
	}
	return out
}

// watchAndResolve re-runs resolve whenever a library file under the working
// directory or a tracked file changes, until ctx is cancelled.
func (a *App) watchAndResolve(ctx context.Context, opts resolveOptions, files []string, resolve func(context.Context) resolver.Result) error {
	var w *watch.Watcher
	w, err := watch.New(watch.Config{
		Files:       files,
		ClearScreen: opts.clearScreen,
		Stdout:      a.stdout,
		Logger:      a.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			a.logger.Info("re-resolving", "changed", strings.Join(changed, ", "))
			res := resolve(ctx)
			w.Track(trackedFiles(nil, res)...)
			return nil
		},
	})
	if err != nil {
		return issue.WrapWithOperation(err, "start watch mode")
	}

	fmt.Fprintln(a.stderr, SubtitleStyle.Render("Watching for changes, press Ctrl+C to stop"))
	return w.Run(ctx)
}

// trackedFiles lists the filesystem paths a resolution depended on: existing
// file locators from args and the origin of every unit loaded from disk.
func trackedFiles(args []string, res resolver.Result) []string {
	var files []string
	for _, arg := range args {
		if libref.Locator(arg).IsPacked() {
			continue
		}
		if info, err := os.Stat(arg); err == nil && !info.IsDir() {
			files = append(files, filepath.Clean(arg))
		}
	}
	for _, u := range res.Units {
		origin := u.Origin()
		if origin == "" || libref.Locator(origin).IsPacked() {
			continue
		}
		files = append(files, origin)
	}
	return files
}
