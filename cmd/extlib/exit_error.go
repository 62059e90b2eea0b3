// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/extlib/extlib/pkg/types"
)

const (
	// ExitFailure is returned for command errors (bad flags, unreadable config).
	ExitFailure = types.ExitFailure
	// ExitDiagnostics is returned by `resolve --strict` when any diagnostic was
	// produced, so scripts can tell it apart from a command failure.
	ExitDiagnostics = types.ExitDiagnostics
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %s", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
