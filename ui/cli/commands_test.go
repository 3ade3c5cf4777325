// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/toeirei/labrador/internal/adapter"

	_ "modernc.org/sqlite"
)

// isolate points every config and data lookup at a fresh directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("HOME", dir)
	xdg.Reload()
	t.Chdir(dir)
	return dir
}

// newSite creates <root>/Blog backed by a SQLite file and returns root and
// the database path.
func newSite(t *testing.T, root string) (string, string) {
	t.Helper()
	sites := filepath.Join(root, "sites")
	appDir := filepath.Join(sites, "Blog")
	if err := os.MkdirAll(filepath.Join(appDir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yml := "development:\n  adapter: sqlite3\n  database: blog.sqlite3\n"
	if err := os.WriteFile(filepath.Join(appDir, "config", "database.yml"), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(appDir, "blog.sqlite3")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()
	for _, s := range []string{
		`CREATE TABLE posts (id INTEGER PRIMARY KEY, title TEXT, author TEXT)`,
		`INSERT INTO posts (id, title, author) VALUES (1, 'hello', 'ann'), (2, 'world', NULL), (3, 'again', 'ann')`,
	} {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	return sites, dbPath
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestAppsCommand(t *testing.T) {
	dir := isolate(t)
	sites, _ := newSite(t, dir)
	out, _, err := run(t, "apps", "--apps-path", sites, "--session-backend", "memory")
	if err != nil {
		t.Fatalf("apps: %v", err)
	}
	if !strings.Contains(out, "Blog") || !strings.Contains(out, "sqlite") {
		t.Fatalf("expected Blog in output, got:\n%s", out)
	}
}

func TestAppsCommand_Empty(t *testing.T) {
	dir := isolate(t)
	out, _, err := run(t, "apps", "--path", dir, "--session-backend", "memory")
	if err != nil {
		t.Fatalf("apps: %v", err)
	}
	if !strings.Contains(out, "No applications found") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestTablesAndBrowse(t *testing.T) {
	dir := isolate(t)
	sites, _ := newSite(t, dir)

	out, _, err := run(t, "tables", "blog", "--apps-path", sites, "--session-backend", "memory")
	if err != nil {
		t.Fatalf("tables: %v", err)
	}
	if strings.TrimSpace(out) != "posts" {
		t.Fatalf("tables output %q", out)
	}

	out, _, err = run(t, "browse", "blog", "posts", "--apps-path", sites, "--session-backend", "memory",
		"--filter", "author=ann", "--sort=-id", "--limit", "1", "--json")
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	var rs adapter.ResultSet
	if err := json.Unmarshal([]byte(out), &rs); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(rs.Rows) != 1 || rs.Rows[0]["title"] != "again" || rs.Limit != 1 {
		t.Fatalf("unexpected page %+v", rs)
	}

	out, _, err = run(t, "browse", "blog", "posts", "--apps-path", sites, "--session-backend", "memory", "--filter", "author=null")
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if !strings.Contains(out, "world") || strings.Contains(out, "hello") {
		t.Fatalf("null filter output:\n%s", out)
	}
	if !strings.Contains(out, "1 rows") {
		t.Fatalf("expected row summary, got:\n%s", out)
	}
}

func TestTables_UnknownApplication(t *testing.T) {
	dir := isolate(t)
	sites, _ := newSite(t, dir)
	_, errOut, err := run(t, "tables", "shop", "--apps-path", sites, "--session-backend", "memory")
	if adapter.KindOf(err) != adapter.Unconfigured {
		t.Fatalf("expected Unconfigured, got %v", err)
	}
	if !strings.Contains(errOut, "No application named shop") {
		t.Fatalf("expected notice in panel, got:\n%s", errOut)
	}
}

func TestBrowse_BadFilter(t *testing.T) {
	isolate(t)
	if _, _, err := run(t, "browse", "blog", "posts", "--session-backend", "memory", "--filter", "nofield"); err == nil {
		t.Fatalf("expected an error for a malformed filter")
	}
}

func TestRegisterAndForget(t *testing.T) {
	dir := isolate(t)
	_, dbPath := newSite(t, dir)
	empty := filepath.Join(dir, "empty")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	common := []string{"--apps-path", empty, "--session-backend", "sqlite", "--session-dsn", filepath.Join(dir, "sessions.db")}

	if _, _, err := run(t, append([]string{"register", "Shop", "--adapter", "sqlite", "--file", dbPath}, common...)...); err != nil {
		t.Fatalf("register: %v", err)
	}
	out, _, err := run(t, append([]string{"apps"}, common...)...)
	if err != nil {
		t.Fatalf("apps: %v", err)
	}
	if !strings.Contains(out, "Shop") || !strings.Contains(out, "session") {
		t.Fatalf("registered app missing:\n%s", out)
	}
	out, _, err = run(t, append([]string{"tables", "shop"}, common...)...)
	if err != nil || strings.TrimSpace(out) != "posts" {
		t.Fatalf("tables: %q %v", out, err)
	}

	out, _, err = run(t, append([]string{"forget", "shop"}, common...)...)
	if err != nil {
		t.Fatalf("forget: %v", err)
	}
	if !strings.Contains(out, "Forgot shop") {
		t.Fatalf("forget output %q", out)
	}
	if _, _, err := run(t, append([]string{"forget", "shop"}, common...)...); err == nil {
		t.Fatalf("second forget should fail")
	}
}

func TestRegister_RejectsUnknownAdapter(t *testing.T) {
	isolate(t)
	if _, _, err := run(t, "register", "x", "--adapter", "oracle", "--session-backend", "memory"); err == nil {
		t.Fatalf("expected unknown adapter to be rejected")
	}
}

func TestConfigInit(t *testing.T) {
	dir := isolate(t)
	out, _, err := run(t, "config", "init", "--session-backend", "memory", "--timeout", "3s")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	want := filepath.Join(dir, "config", "labrador", "labrador.yaml")
	if !strings.Contains(out, want) {
		t.Fatalf("expected path %s in %q", want, out)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "timeout: 3s") {
		t.Fatalf("written config missing timeout:\n%s", data)
	}
}

func TestConfig_MissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, _, err := run(t, "apps", "--config", "/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for missing --config file")
	}
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "version: ") || !strings.Contains(out, "commit: ") {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestParseFilters(t *testing.T) {
	got, err := parseFilters([]string{"id=3", "name=ann", "gone=null", "note=a=b"})
	if err != nil {
		t.Fatal(err)
	}
	if got["id"] != int64(3) || got["name"] != "ann" || got["note"] != "a=b" {
		t.Fatalf("unexpected filters %#v", got)
	}
	if v, ok := got["gone"]; !ok || v != nil {
		t.Fatalf("null should map to nil, got %#v", v)
	}
	if _, err := parseFilters([]string{"=x"}); err == nil {
		t.Fatalf("empty field should be rejected")
	}
}

func TestFormatCell(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := map[string]any{
		"NULL":                 nil,
		"abc":                  []byte("abc"),
		"2026-01-02T03:04:05Z": ts,
		`{"a":1}`:              map[string]any{"a": 1},
		"42":                   42,
		"two lines":            "two\nlines",
	}
	for want, in := range cases {
		if got := formatCell(in); got != want {
			t.Errorf("formatCell(%#v) = %q, want %q", in, got, want)
		}
	}
	long := strings.Repeat("x", 100)
	if got := []rune(formatCell(long)); len(got) != maxCellWidth {
		t.Errorf("long cell should be truncated to %d runes, got %d", maxCellWidth, len(got))
	}
}
