// SPDX-License-Identifier: MPL-2.0

package host

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoHostDir is returned by a StaticDir with an empty directory.
var ErrNoHostDir = errors.New("host directory not set")

//nolint:gochecknoglobals // Test seam for os.Executable().
var osExecutable = os.Executable

type (
	// Executable reports the directory of the running binary.
	Executable struct{}

	// StaticDir reports a fixed directory. Used for --host-dir and in tests.
	StaticDir struct {
		dir string
	}
)

// ExecutablePath returns the path of the running binary with symlinks resolved.
func ExecutablePath() (string, error) {
	exe, err := osExecutable()
	if err != nil {
		return "", fmt.Errorf("locate host executable: %w", err)
	}
	if resolved, evalErr := filepath.EvalSymlinks(exe); evalErr == nil {
		exe = resolved
	}
	return exe, nil
}

// ExecutableDir returns the directory containing the running binary.
func (Executable) ExecutableDir() (string, error) {
	exe, err := ExecutablePath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// Static returns a provider that always reports dir.
func Static(dir string) StaticDir { return StaticDir{dir: dir} }

// ExecutableDir returns the fixed directory.
func (s StaticDir) ExecutableDir() (string, error) {
	if s.dir == "" {
		return "", ErrNoHostDir
	}
	return s.dir, nil
}
