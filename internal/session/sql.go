// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/toeirei/labrador/internal/logging"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	// SQL drivers for the supported session backends.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// sqlOpenFunc allows tests to override database opening behavior.
var sqlOpenFunc = sql.Open

type sessionRow struct {
	bun.BaseModel `bun:"table:labrador_sessions"`

	Key       string    `bun:"app_key,pk"`
	Name      string    `bun:"name,notnull"`
	Path      string    `bun:"path,notnull"`
	Config    string    `bun:"config,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// SQLStore keeps entries in the labrador_sessions table of a SQLite,
// Postgres or MySQL database.
type SQLStore struct {
	db     *bun.DB
	dbType string
}

var _ Store = (*SQLStore)(nil)

// OpenSQL opens dsn with the driver for dbType ("sqlite", "postgres" or
// "mysql"), applies pending migrations and returns the store.
func OpenSQL(ctx context.Context, dbType, dsn string) (*SQLStore, error) {
	driverName := dbType
	// The pgx stdlib registers driver name "pgx".
	if dbType == "postgres" {
		driverName = "pgx"
	}
	switch dbType {
	case "sqlite", "postgres", "mysql":
	default:
		return nil, fmt.Errorf("unsupported session database type %q", dbType)
	}
	start := time.Now()
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if dbType == "sqlite" {
		// One connection keeps in-memory databases visible and serializes
		// writers on file databases.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}
	db := createBunDB(sqlDB, dbType)
	if err := runMigrations(ctx, db, dbType); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run session migrations: %w", err)
	}
	logging.Debugf("session: opened %s store in %s", dbType, time.Since(start))
	return &SQLStore{db: db, dbType: dbType}, nil
}

func createBunDB(sqlDB *sql.DB, dbType string) *bun.DB {
	switch dbType {
	case "postgres":
		return bun.NewDB(sqlDB, pgdialect.New())
	case "mysql":
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

// Upsert deletes and inserts the row in one transaction.
func (s *SQLStore) Upsert(ctx context.Context, e Entry) error {
	e, key, err := prepare(e)
	if err != nil {
		return err
	}
	cfg, err := encodeConfig(e.Config)
	if err != nil {
		return fmt.Errorf("encode session config: %w", err)
	}
	row := &sessionRow{Key: key, Name: e.Name, Path: e.Path, Config: string(cfg), UpdatedAt: e.UpdatedAt}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*sessionRow)(nil)).Where("app_key = ?", key).Exec(ctx); err != nil {
			return fmt.Errorf("delete session %s: %w", key, err)
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert session %s: %w", key, err)
		}
		return nil
	})
}

func (s *SQLStore) Get(ctx context.Context, name string) (Entry, error) {
	var row sessionRow
	err := s.db.NewSelect().Model(&row).Where("app_key = ?", Key(name)).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get session %s: %w", Key(name), err)
	}
	return row.entry()
}

func (s *SQLStore) List(ctx context.Context) ([]Entry, error) {
	var rows []sessionRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("app_key ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e, err := row.entry()
		if err != nil {
			logging.Warnf("session: skipping unreadable entry %s: %v", row.Key, err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *SQLStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.NewDelete().Model((*sessionRow)(nil)).Where("app_key = ?", Key(name)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", Key(name), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (r sessionRow) entry() (Entry, error) {
	cfg, err := decodeConfig([]byte(r.Config))
	if err != nil {
		return Entry{}, err
	}
	return Entry{Name: r.Name, Path: r.Path, Config: cfg, UpdatedAt: r.UpdatedAt}, nil
}
