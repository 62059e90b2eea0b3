// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/extlib/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/extlib/config.cue on macOS, %APPDATA%\extlib\config.cue
// on Windows), falling back to config.cue in the working directory. It lists the
// libraries to resolve, the pack archive and host directory, loader restrictions,
// resolver limits and UI settings. EXTLIB_* environment variables override scalar keys.
//
// Configuration validation is performed against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
