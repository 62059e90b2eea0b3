// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/extlib/extlib/internal/config"
	"github.com/extlib/extlib/internal/issue"

	"github.com/spf13/cobra"
)

var errUnknownIssue = errors.New("unknown diagnostic kind")

func newExplainCommand(app *App) *cobra.Command {
	var plain bool

	explainCmd := &cobra.Command{
		Use:   "explain [kind]",
		Short: "Explain a diagnostic kind and how to fix it",
		Long: `Explain a diagnostic kind and how to fix it.

Every diagnostic printed by 'extlib resolve' carries a kind in brackets, for
example 'warning[not_found]'. Pass that kind to read the full explanation.
Without arguments all known kinds are listed.

Examples:
  extlib explain not_found
  extlib explain cycle --plain`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				listIssues(app)
				return nil
			}
			return explainIssue(cmd.Context(), app, args[0], plain)
		},
	}

	explainCmd.Flags().BoolVar(&plain, "plain", false, "render without colors or styling")

	return explainCmd
}

func listIssues(app *App) {
	fmt.Fprintln(app.stdout, TitleStyle.Render("Diagnostic kinds"))
	for _, i := range issue.Values() {
		fmt.Fprintf(app.stdout, "  %s\n", CmdStyle.Render(i.Slug()))
	}
}

func explainIssue(ctx context.Context, app *App, slug string, plain bool) error {
	found := issue.Lookup(slug)
	if found == nil {
		return issue.NewErrorContext().
			WithOperation("explain diagnostic").
			WithResource(slug).
			WithSuggestion("Run 'extlib explain' to list known kinds").
			Wrap(errUnknownIssue).
			BuildError()
	}

	style := "notty"
	if !plain {
		scheme := config.ColorSchemeAuto
		if cfg, err := app.loadConfig(ctx); err == nil {
			scheme = cfg.UI.ColorScheme
		}
		style = glamourStyle(scheme)
	}

	rendered, err := found.Render(style)
	if err != nil {
		return fmt.Errorf("render %s: %w", slug, err)
	}
	fmt.Fprint(app.stdout, rendered)
	return nil
}

// glamourStyle maps a color scheme to a glamour style name. "auto" lets
// glamour pick dark, light or notty from the terminal.
func glamourStyle(scheme config.ColorScheme) string {
	switch scheme {
	case config.ColorSchemeDark, config.ColorSchemeLight:
		return string(scheme)
	default:
		return "auto"
	}
}

// fileExistsCheck checks if a file exists and is not a directory.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
