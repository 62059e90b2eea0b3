// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidWatchConfig is the sentinel error wrapped by InvalidWatchConfigError.
var ErrInvalidWatchConfig = errors.New("invalid watch config")

// LibraryPatterns select code units and manifests. Used when Config.Patterns
// is empty.
var LibraryPatterns = []string{"**/*.go", "**/*.{dna,DNA}"}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Patterns are doublestar globs, relative to BaseDir, selecting which
		// files trigger callbacks. Empty means LibraryPatterns.
		Patterns []string

		// Ignore are additional doublestar globs merged with the built-in
		// default ignores.
		Ignore []string

		// Debounce is the quiet period after the last event before the callback
		// fires. Zero or negative values fall back to defaultDebounce.
		Debounce time.Duration

		// ClearScreen writes an ANSI clear sequence to Stdout before each
		// callback. No terminal detection is performed.
		ClearScreen bool

		// BaseDir is the root directory watched recursively. Empty means the
		// current working directory.
		BaseDir string

		// Files are extra files to track regardless of Patterns, typically
		// every path touched by the previous resolution. Their parent
		// directories are watched non-recursively.
		Files []string

		// OnChange is called after the debounce window closes with the
		// deduplicated changed paths: relative to BaseDir when inside it,
		// absolute otherwise. A nil callback is a no-op.
		OnChange func(ctx context.Context, changed []string) error

		// Stdout receives the clear-screen sequence. nil means os.Stdout.
		Stdout io.Writer

		// Logger receives non-fatal watcher warnings. nil discards them.
		Logger *slog.Logger
	}

	// InvalidWatchConfigError collects every invalid Config field.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}
)

// Validate checks globs and BaseDir without touching the filesystem.
func (c Config) Validate() error {
	var errs []error
	errs = append(errs, validatePatterns(c.Patterns, "watch")...)
	errs = append(errs, validatePatterns(c.Ignore, "ignore")...)
	if c.BaseDir != "" && strings.TrimSpace(c.BaseDir) == "" {
		errs = append(errs, errors.New("base directory must not be whitespace-only"))
	}
	for i, f := range c.Files {
		if strings.TrimSpace(f) == "" {
			errs = append(errs, fmt.Errorf("files[%d] must not be empty", i))
		}
	}
	if len(errs) > 0 {
		return &InvalidWatchConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidWatchConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("watch: %d invalid field(s): %s", len(e.FieldErrors), strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error { return ErrInvalidWatchConfig }

// validatePatterns checks that every pattern is a non-empty, valid doublestar
// glob. The label ("watch" or "ignore") is used in error messages.
func validatePatterns(patterns []string, label string) []error {
	var errs []error
	for _, pat := range patterns {
		if strings.TrimSpace(pat) == "" {
			errs = append(errs, fmt.Errorf("invalid %s pattern %q: empty", label, pat))
			continue
		}
		if !doublestar.ValidatePattern(pat) {
			errs = append(errs, fmt.Errorf("invalid %s pattern %q: %w", label, pat, doublestar.ErrBadPattern))
		}
	}
	return errs
}
