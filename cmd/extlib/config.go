// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/extlib/extlib/internal/config"
	"github.com/extlib/extlib/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `extlib config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage extlib configuration",
		Long: `Manage extlib configuration.

Configuration is stored in:
  - Linux: ~/.config/extlib/config.cue
  - macOS: ~/Library/Application Support/extlib/config.cue
  - Windows: %APPDATA%\extlib\config.cue

A config.cue in the working directory is used when the user file is absent.
Every key can be overridden with an EXTLIB_ environment variable, for example
EXTLIB_RESOLVER_MAX_DEPTH=8.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: app.configPath})
			if err != nil {
				return err
			}

			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: app.configPath})
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigLoadFailedId).Render(glamourStyle(config.ColorSchemeAuto))
		fmt.Fprint(app.stderr, rendered)
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	out := app.stdout

	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)

	cfgPath := app.configPath
	if cfgPath == "" {
		if p, pathErr := config.ConfigFilePath(); pathErr == nil && fileExistsCheck(p) {
			cfgPath = p
		}
	}
	if cfgPath != "" {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), cfgPath)
	} else {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "%s:\n", keyStyle.Render("libraries"))
	if len(cfg.Libraries) == 0 {
		fmt.Fprintf(out, "  %s\n", SubtitleStyle.Render("(none configured)"))
	} else {
		for _, lib := range cfg.Libraries {
			var flags []string
			if lib.Pack {
				flags = append(flags, "pack")
			}
			if lib.ExplicitExports {
				flags = append(flags, "explicit_exports")
			}
			if len(flags) > 0 {
				fmt.Fprintf(out, "  - %s (%s)\n", valueStyle.Render(lib.Path), strings.Join(flags, ", "))
			} else {
				fmt.Fprintf(out, "  - %s\n", valueStyle.Render(lib.Path))
			}
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("pack_archive"), valueOrDefault(cfg.PackArchive, "(executable)"))
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("host_dir"), valueOrDefault(cfg.HostDir, "(executable directory)"))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("loader"))
	fmt.Fprintf(out, "  stdlib: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Loader.Stdlib)))
	fmt.Fprintf(out, "  allowed_imports: %s\n", valueOrDefault(strings.Join(cfg.Loader.AllowedImports, ", "), "(any)"))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("resolver"))
	fmt.Fprintf(out, "  max_depth: %s\n", valueStyle.Render(fmt.Sprintf("%d", cfg.Resolver.MaxDepth)))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(out, "  color_scheme: %s\n", valueStyle.Render(string(cfg.UI.ColorScheme)))
	fmt.Fprintf(out, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

func valueOrDefault(v, placeholder string) string {
	if v == "" {
		return SubtitleStyle.Render(placeholder)
	}
	return SuccessStyle.Render(v)
}

func initConfig(app *App) error {
	cfgPath, created, err := config.CreateDefaultConfig()
	if err != nil {
		return issue.WrapWithOperation(err, "create default configuration")
	}
	if !created {
		fmt.Fprintf(app.stdout, "%s Configuration file already exists: %s\n", WarningStyle.Render("!"), cfgPath)
		return nil
	}

	fmt.Fprintf(app.stdout, "%s Created configuration file: %s\n", SuccessStyle.Render("✓"), cfgPath)
	return nil
}

func showConfigPath(app *App) error {
	if app.configPath != "" {
		fmt.Fprintln(app.stdout, app.configPath)
		return nil
	}
	cfgPath, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	fmt.Fprintln(app.stdout, cfgPath)
	return nil
}
