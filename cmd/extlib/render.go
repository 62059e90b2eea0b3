// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extlib/extlib/internal/resolver"
)

var (
	errNoLibraries       = errors.New("no libraries to resolve")
	errStrictDiagnostics = errors.New("resolution produced diagnostics")
)

type (
	// symbolLister is implemented by handles that can report their exports.
	symbolLister interface {
		Symbols() []string
	}

	reportJSON struct {
		RunID       string           `json:"run_id"`
		Units       []unitJSON       `json:"units"`
		Diagnostics []diagnosticJSON `json:"diagnostics"`
	}

	unitJSON struct {
		Index           int      `json:"index"`
		Name            string   `json:"name"`
		Origin          string   `json:"origin"`
		Locator         string   `json:"locator"`
		ExplicitExports bool     `json:"explicit_exports"`
		Symbols         []string `json:"symbols,omitempty"`
	}

	diagnosticJSON struct {
		Kind     string `json:"kind"`
		Severity string `json:"severity"`
		Locator  string `json:"locator,omitempty"`
		Path     string `json:"path,omitempty"`
		Message  string `json:"message"`
	}
)

// report writes res to the app's output streams: units and the summary to
// stdout, diagnostics to stderr. JSON mode writes a single document to stdout.
func (a *App) report(ctx context.Context, res resolver.Result, asJSON bool) error {
	if asJSON {
		return writeReportJSON(a.stdout, res)
	}

	writeUnits(a.stdout, res, a.verbose)
	a.Diagnostics.Render(ctx, res.Diagnostics, a.stderr)
	_, err := fmt.Fprintln(a.stdout, summaryStyle.Render(summarize(res)))
	return err
}

func writeUnits(w io.Writer, res resolver.Result, verbose bool) {
	for i, u := range res.Units {
		line := fmt.Sprintf("%s  %s  %s",
			unitIndexStyle.Render(fmt.Sprintf("%d", i+1)),
			CmdStyle.Render(u.Name()),
			SubtitleStyle.Render(u.Origin()))
		if u.ExplicitExports {
			line += "  " + explicitBadgeStyle.Render("explicit")
		}
		_, _ = fmt.Fprintln(w, line)

		if !verbose {
			continue
		}
		if lister, ok := u.Handle.(symbolLister); ok {
			if symbols := lister.Symbols(); len(symbols) > 0 {
				_, _ = fmt.Fprintf(w, "      %s\n", VerboseStyle.Render(strings.Join(symbols, ", ")))
			}
		}
	}
}

// summarize returns the closing line of a text report.
func summarize(res resolver.Result) string {
	s := fmt.Sprintf("%s, %s", plural(len(res.Units), "unit"), plural(len(res.Diagnostics), "diagnostic"))
	if res.RunID != "" {
		s += fmt.Sprintf(" (run %s)", res.RunID)
	}
	return s
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func writeReportJSON(w io.Writer, res resolver.Result) error {
	out := reportJSON{
		RunID:       res.RunID,
		Units:       make([]unitJSON, 0, len(res.Units)),
		Diagnostics: make([]diagnosticJSON, 0, len(res.Diagnostics)),
	}
	for i, u := range res.Units {
		entry := unitJSON{
			Index:           i + 1,
			Name:            u.Name(),
			Origin:          u.Origin(),
			Locator:         u.Locator.String(),
			ExplicitExports: u.ExplicitExports,
		}
		if lister, ok := u.Handle.(symbolLister); ok {
			entry.Symbols = lister.Symbols()
		}
		out.Units = append(out.Units, entry)
	}
	for _, d := range res.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, diagnosticJSON{
			Kind:     d.Kind.String(),
			Severity: string(d.Severity),
			Locator:  d.Locator.String(),
			Path:     d.Path,
			Message:  d.Message,
		})
	}

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(payload))
	return err
}
