// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/extlib/extlib/internal/config"
	"github.com/extlib/extlib/internal/host"
	"github.com/extlib/extlib/internal/issue"
	"github.com/extlib/extlib/internal/loader"
	"github.com/extlib/extlib/internal/resolver"
	"github.com/extlib/extlib/internal/resource"

	charmlog "github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer: Cobra handlers receive an App reference and build
	// resolvers through it.
	App struct {
		Config      ConfigProvider
		Diagnostics DiagnosticRenderer
		OpenPack    PackOpener
		stdout      io.Writer
		stderr      io.Writer

		// Set by the root command's persistent flags.
		configPath string
		verbose    bool

		logger *slog.Logger
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config      ConfigProvider
		Diagnostics DiagnosticRenderer
		OpenPack    PackOpener
		Stdout      io.Writer
		Stderr      io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// DiagnosticRenderer renders structured resolver diagnostics.
	DiagnosticRenderer interface {
		Render(ctx context.Context, diags []resolver.Diagnostic, w io.Writer)
	}

	// PackOpener opens the store serving packed: references. An empty path
	// means the archive appended to the running executable.
	PackOpener func(path string) (*resource.Store, io.Closer, error)

	// sessionFlags are per-invocation overrides of configuration values.
	sessionFlags struct {
		PackArchive string
		HostDir     string
		MaxDepth    int
		// NoPack skips opening any archive; packed: references then fail.
		NoPack bool
	}

	// session is a resolver together with the resources it holds open.
	session struct {
		resolver *resolver.Resolver
		closer   io.Closer
	}

	defaultDiagnosticRenderer struct{}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Diagnostics == nil {
		deps.Diagnostics = &defaultDiagnosticRenderer{}
	}
	if deps.OpenPack == nil {
		deps.OpenPack = openPack
	}

	app := &App{
		Config:      deps.Config,
		Diagnostics: deps.Diagnostics,
		OpenPack:    deps.OpenPack,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
	}
	app.logger = newLogger(app.stderr, false)
	return app, nil
}

// newLogger returns an slog logger backed by charmbracelet/log. Resolver
// diagnostics are logged at warn level; verbose mode adds debug output.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := charmlog.WarnLevel
	if verbose {
		level = charmlog.DebugLevel
	}
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		Prefix:          "extlib",
		ReportTimestamp: false,
	})
	return slog.New(handler)
}

// loadConfig loads configuration via the provider. An explicit --config file
// must load; otherwise a broken default config is reported and defaults are
// used so resolution stays available.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
	if err == nil {
		a.applyUIConfig(cfg)
		return cfg, nil
	}
	if a.configPath != "" || errors.Is(err, context.Canceled) {
		return nil, err
	}

	fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, a.verbose))
	return config.DefaultConfig(), nil
}

// applyUIConfig turns on verbose output when the config asks for it. The
// --verbose flag can only add verbosity, never remove it.
func (a *App) applyUIConfig(cfg *config.Config) {
	if cfg.UI.Verbose && !a.verbose {
		a.verbose = true
		a.logger = newLogger(a.stderr, true)
	}
}

// diagnosticLogger is the resolver's log sink. Diagnostics are returned as
// data and rendered once by the DiagnosticRenderer, so the resolver's own log
// lines are only shown in verbose mode.
func (a *App) diagnosticLogger() *slog.Logger {
	if a.verbose {
		return a.logger
	}
	return slog.New(slog.DiscardHandler)
}

// newSession builds a resolver and its collaborators from cfg with flag
// overrides applied. Callers must close the session.
func (a *App) newSession(cfg *config.Config, flags sessionFlags) (*session, error) {
	packPath := cfg.PackArchive
	if flags.PackArchive != "" {
		packPath = flags.PackArchive
	}
	var (
		store  = resource.Empty()
		closer io.Closer
		err    error
	)
	if !flags.NoPack {
		store, closer, err = a.OpenPack(packPath)
	}
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("open pack archive").
			WithResource(packPath).
			WithSuggestion("Check that the archive exists and was written by 'extlib pack'").
			WithSuggestion("Clear pack_archive in your config to use the archive embedded in the executable").
			Wrap(err).
			BuildError()
	}

	var hostDir resolver.HostDir = host.Executable{}
	dir := cfg.HostDir
	if flags.HostDir != "" {
		dir = flags.HostDir
	}
	if dir != "" {
		abs, absErr := filepath.Abs(dir)
		if absErr != nil {
			abs = dir
		}
		hostDir = host.Static(abs)
	}

	loaderOpts := []loader.Option{loader.WithAllowedImports(cfg.Loader.AllowedImports)}
	if !cfg.Loader.Stdlib {
		loaderOpts = append(loaderOpts, loader.WithoutStdlib())
	}

	maxDepth := cfg.Resolver.MaxDepth
	if flags.MaxDepth > 0 {
		maxDepth = flags.MaxDepth
	}

	r := resolver.New(resolver.Dependencies{
		Host:      hostDir,
		Resources: store,
		Loader:    loader.New(loaderOpts...),
		Logger:    a.diagnosticLogger(),
	}, resolver.WithMaxDepth(maxDepth))

	return &session{resolver: r, closer: closer}, nil
}

// Close releases the pack archive.
func (s *session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// openPack opens the configured archive, or the executable's own archive when
// path is empty. An executable that cannot be opened serves no resources.
func openPack(path string) (*resource.Store, io.Closer, error) {
	if path != "" {
		return resource.OpenArchive(path)
	}
	store, closer, err := resource.OpenExecutable()
	if err != nil {
		return resource.Empty(), nil, nil //nolint:nilerr // no embedded archive available
	}
	return store, closer, nil
}

// Render writes structured diagnostics to w with lipgloss styling.
func (r *defaultDiagnosticRenderer) Render(_ context.Context, diags []resolver.Diagnostic, w io.Writer) {
	for _, diag := range diags {
		prefix := WarningStyle.Render("warning")
		if diag.Severity == resolver.SeverityError {
			prefix = ErrorStyle.Render("error")
		}

		_, _ = fmt.Fprintf(w, "%s[%s]: %s\n", prefix, diag.Kind, diag.Message)
	}
}
