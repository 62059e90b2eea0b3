// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for extlib.
//
// This package implements the Cobra command hierarchy: resolve (with watch
// mode), pack, config and explain. Handlers delegate to the App composition
// root, which builds the resolver and its collaborators from configuration.
package cmd
