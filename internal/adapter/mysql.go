// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package adapter

import (
	"database/sql"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/schema"
)

type mysqlDialect struct{}

// NewMySQL returns a MySQL adapter for app.
func NewMySQL(app string) *Relational { return NewRelational(app, mysqlDialect{}) }

func (mysqlDialect) Kind() Kind { return MySQL }

// Open builds the driver config directly so the password never passes
// through a DSN string.
func (mysqlDialect) Open(cfg Config) (*sql.DB, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password.Reveal()
	if cfg.Socket != "" {
		mc.Net = "unix"
		mc.Addr = cfg.Socket
	} else {
		mc.Net = "tcp"
		mc.Addr = cfg.Address()
	}
	mc.DBName = cfg.Database
	mc.Timeout = cfg.Timeout
	mc.ParseTime = true
	if v, ok := cfg.Options["charset"]; ok && v != "" {
		mc.Params = map[string]string{"charset": v}
	}
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(cfg.Timeout)
	return db, nil
}

func (mysqlDialect) Bun() schema.Dialect { return mysqldialect.New() }

func (mysqlDialect) TablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name`
}
