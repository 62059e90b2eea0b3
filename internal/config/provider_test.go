// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/extlib/extlib/internal/testutil"
)

func TestProvider_Load_ConfigDirPath(t *testing.T) {
	tmpDir := t.TempDir()
	restoreWd := testutil.MustChdir(t, tmpDir)
	defer restoreWd()

	cfgDir := filepath.Join(tmpDir, "cfg")
	testutil.MustMkdirAll(t, cfgDir, 0o755)
	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	content := `libraries: [{path: "lib/a.go"}, {path: "packed:b.dna", explicit_exports: true}]
resolver: max_depth: 8
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(cfg.Libraries) != 2 {
		t.Fatalf("expected 2 libraries, got %d", len(cfg.Libraries))
	}
	if cfg.Libraries[1].Path != "packed:b.dna" || !cfg.Libraries[1].ExplicitExports {
		t.Errorf("Libraries[1] = %+v", cfg.Libraries[1])
	}
	if cfg.Resolver.MaxDepth != 8 {
		t.Errorf("Resolver.MaxDepth = %d, want 8", cfg.Resolver.MaxDepth)
	}
	// Unset keys keep their defaults.
	if !cfg.Loader.Stdlib {
		t.Error("Loader.Stdlib = false, want default true")
	}
}

func TestProvider_Load_WorkingDirectoryFallback(t *testing.T) {
	tmpDir := t.TempDir()
	restoreWd := testutil.MustChdir(t, tmpDir)
	defer restoreWd()

	if err := os.WriteFile(ConfigFileName+"."+ConfigFileExt, []byte(`host_dir: "/opt/host"`), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: filepath.Join(tmpDir, "empty")})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.HostDir != "/opt/host" {
		t.Errorf("HostDir = %q, want /opt/host", cfg.HostDir)
	}
}

func TestProvider_Load_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProvider_Load_EnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	restoreWd := testutil.MustChdir(t, tmpDir)
	defer restoreWd()

	restoreEnv := testutil.MustSetenv(t, "EXTLIB_RESOLVER_MAX_DEPTH", "5")
	defer restoreEnv()

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: filepath.Join(tmpDir, "none")})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Resolver.MaxDepth != 5 {
		t.Errorf("Resolver.MaxDepth = %d, want 5 from EXTLIB_RESOLVER_MAX_DEPTH", cfg.Resolver.MaxDepth)
	}
}
