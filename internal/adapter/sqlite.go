// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package adapter

import (
	"database/sql"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

type sqliteDialect struct{}

// NewSQLite returns a SQLite adapter for app.
func NewSQLite(app string) *Relational { return NewRelational(app, sqliteDialect{}) }

func (sqliteDialect) Kind() Kind { return SQLite }

// Open opens the database file read-only, so a missing file fails the ping
// instead of being created empty. "file:" URIs and ":memory:" pass through.
func (sqliteDialect) Open(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite", sqliteDSN(cfg))
	if err != nil {
		return nil, err
	}
	// In-memory databases are per connection; keep a single one.
	db.SetMaxOpenConns(1)
	return db, nil
}

func sqliteDSN(cfg Config) string {
	p := cfg.Path
	if p == "" {
		p = cfg.Database
	}
	if p == ":memory:" || strings.HasPrefix(p, "file:") {
		return p
	}
	return "file:" + escapePath(p) + "?mode=ro"
}

// escapePath percent-encodes each segment of p so '?', '#' and '%' in
// directory names do not end the URI path.
func escapePath(p string) string {
	parts := strings.Split(filepath.ToSlash(p), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func (sqliteDialect) Bun() schema.Dialect { return sqlitedialect.New() }

func (sqliteDialect) TablesQuery() string {
	return `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`
}
