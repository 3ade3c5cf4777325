// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package adapter

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/schema"
)

type postgresDialect struct{}

// NewPostgres returns a Postgres adapter for app.
func NewPostgres(app string) *Relational { return NewRelational(app, postgresDialect{}) }

func (postgresDialect) Kind() Kind { return Postgres }

// Open parses a keyword/value DSN without the password and sets the password
// on the parsed pgx config, so parse errors cannot echo it.
func (postgresDialect) Open(cfg Config) (*sql.DB, error) {
	host := cfg.Host
	if cfg.Socket != "" {
		host = cfg.Socket
	}
	parts := []string{"host=" + pgQuote(host)}
	if cfg.Port != 0 {
		parts = append(parts, "port="+strconv.Itoa(cfg.Port))
	}
	if cfg.Database != "" {
		parts = append(parts, "dbname="+pgQuote(cfg.Database))
	}
	if cfg.Username != "" {
		parts = append(parts, "user="+pgQuote(cfg.Username))
	}
	secs := int(cfg.Timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	parts = append(parts, "connect_timeout="+strconv.Itoa(secs))
	sslmode := cfg.Options["sslmode"]
	if sslmode == "" {
		sslmode = "prefer"
	}
	parts = append(parts, "sslmode="+pgQuote(sslmode))

	pcfg, err := pgx.ParseConfig(strings.Join(parts, " "))
	if err != nil {
		return nil, fmt.Errorf("invalid postgres parameters: %w", err)
	}
	pcfg.Password = cfg.Password.Reveal()
	db := stdlib.OpenDB(*pcfg)
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(cfg.Timeout)
	return db, nil
}

func pgQuote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (postgresDialect) Bun() schema.Dialect { return pgdialect.New() }

func (postgresDialect) TablesQuery() string {
	return `SELECT table_name::text FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		ORDER BY table_name`
}
