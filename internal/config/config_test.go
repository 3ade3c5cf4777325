// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	cfg "github.com/toeirei/labrador/internal/config"
)

// isolate points the XDG config home at a temp dir and runs from another one
// so no real labrador.yaml is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	t.Cleanup(xdg.Reload)
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	xdg.Reload()
	t.Chdir(t.TempDir())
	return home
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)
	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), nil, nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Session.Backend != "sqlite" || got.Env != "development" || got.Language != "en" {
		t.Fatalf("unexpected defaults: %+v", got)
	}
	if got.ConnectTimeout() != 10*time.Second {
		t.Fatalf("unexpected timeout %s", got.ConnectTimeout())
	}
	if got.Session.Redis.Prefix != "labrador:" || got.Server.Addr != "127.0.0.1:9292" {
		t.Fatalf("unexpected nested defaults: %+v", got)
	}
}

func TestLoadConfig_ReadsExplicitFile(t *testing.T) {
	isolate(t)
	file := filepath.Join(t.TempDir(), "cfg.yaml")
	body := "apps_path: ~/Sites\ntimeout: 3s\nsession:\n  backend: redis\n  redis:\n    addr: cache:6379\n    db: 2\nlanguage: de\n"
	if err := os.WriteFile(file, []byte(body), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), &file, nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.AppsPath != "~/Sites" || got.Language != "de" {
		t.Fatalf("unexpected values: %+v", got)
	}
	if got.Session.Backend != "redis" || got.Session.Redis.Addr != "cache:6379" || got.Session.Redis.DB != 2 {
		t.Fatalf("unexpected session config: %+v", got.Session)
	}
	if got.ConnectTimeout() != 3*time.Second {
		t.Fatalf("unexpected timeout %s", got.ConnectTimeout())
	}
}

func TestLoadConfig_MissingExplicitFileFails(t *testing.T) {
	isolate(t)
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), &missing, nil); err == nil {
		t.Fatalf("expected an error for a missing explicit config file")
	}
}

func TestLoadConfig_EnvAndFlags(t *testing.T) {
	isolate(t)
	t.Setenv("LABRADOR_SESSION_BACKEND", "memory")
	t.Setenv("LABRADOR_SERVER_BASE_DOMAIN", "lab.test")

	cmd := &cobra.Command{}
	cmd.Flags().String("log-level", "info", "")
	if err := cmd.Flags().Set("log-level", "debug"); err != nil {
		t.Fatal(err)
	}
	got, err := cfg.LoadConfig[cfg.Config](cmd, cfg.Defaults(), nil, map[string]string{"log.level": "log-level"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Session.Backend != "memory" || got.Server.BaseDomain != "lab.test" {
		t.Fatalf("env not applied: %+v", got)
	}
	if got.Log.Level != "debug" {
		t.Fatalf("flag not applied: %q", got.Log.Level)
	}
}

func TestWriteConfigFile_CreatesFile(t *testing.T) {
	home := isolate(t)
	c, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	c.AppsPath = "/srv/apps"
	path, err := cfg.WriteConfigFile(&c, false)
	if err != nil {
		t.Fatalf("WriteConfigFile: %v", err)
	}
	if path != filepath.Join(home, "labrador", "labrador.yaml") {
		t.Fatalf("unexpected path %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("config should be private, got %v", info.Mode().Perm())
	}

	// The written file is picked up from the user config dir.
	back, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if back.AppsPath != "/srv/apps" {
		t.Fatalf("round trip lost apps_path: %+v", back)
	}
}

func TestConnectTimeout_Invalid(t *testing.T) {
	if d := (cfg.Config{Timeout: "soon"}).ConnectTimeout(); d != 10*time.Second {
		t.Fatalf("got %s", d)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	if err := os.WriteFile(file, []byte("LABRADOR_TEST_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LABRADOR_TEST_DOTENV", "")
	os.Unsetenv("LABRADOR_TEST_DOTENV")
	if err := cfg.LoadEnvFiles(filepath.Join(dir, "missing.env"), file); err != nil {
		t.Fatalf("LoadEnvFiles: %v", err)
	}
	if got := os.Getenv("LABRADOR_TEST_DOTENV"); got != "loaded" {
		t.Fatalf("got %q", got)
	}
}
