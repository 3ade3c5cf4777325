// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/toeirei/labrador/internal/logging"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Dialect is what a SQL backend contributes on top of Relational.
type Dialect interface {
	Kind() Kind
	// Open returns a *sql.DB for cfg without touching the network; the base
	// pings it under the call timeout.
	Open(cfg Config) (*sql.DB, error)
	// Bun returns the bun dialect used to build queries.
	Bun() schema.Dialect
	// TablesQuery lists the queryable tables, one name per row, ordered.
	TablesQuery() string
}

// Relational is the shared base of the SQL-family adapters.
type Relational struct {
	core
	dialect Dialect
	db      *bun.DB
}

var _ Capability = (*Relational)(nil)

// NewRelational returns a disconnected adapter for app using dialect d.
func NewRelational(app string, d Dialect) *Relational {
	r := &Relational{dialect: d}
	r.core.init(d.Kind(), app)
	return r
}

// Family reports FamilyRelational.
func (r *Relational) Family() Family { return FamilyRelational }

// Connect opens and pings the database. It is a no-op when connected.
func (r *Relational) Connect(ctx context.Context, cfg Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State() == Connected && r.db != nil {
		return nil
	}
	r.configure(cfg)
	r.setState(Connecting)

	cctx, cancel := r.callContext(ctx)
	defer cancel()

	if err := r.cfg.Validate(); err != nil {
		r.setState(Failed)
		return r.fail(cctx, ConnectionFailure, "connect", err)
	}
	sqlDB, err := r.dialect.Open(r.cfg)
	if err != nil {
		r.setState(Failed)
		return r.fail(cctx, ConnectionFailure, "connect", err)
	}
	if err := sqlDB.PingContext(cctx); err != nil {
		_ = sqlDB.Close()
		r.setState(Failed)
		return r.fail(cctx, ConnectionFailure, "connect", err)
	}
	r.db = bun.NewDB(sqlDB, r.dialect.Bun())
	r.setState(Connected)
	return nil
}

// Disconnect closes the handle if one is held.
func (r *Relational) Disconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		if r.State() == Failed {
			r.setState(Disconnected)
		}
		return
	}
	if err := r.db.Close(); err != nil {
		logging.Warnf("adapter %s (%s): close failed: %v", r.kind, r.app, err)
	}
	r.db = nil
	r.setState(Disconnected)
}

// Collections lists the tables of the connected database.
func (r *Relational) Collections(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cctx, cancel := r.callContext(ctx)
	defer cancel()
	if r.db == nil || r.State() != Connected {
		return nil, r.fail(cctx, IntrospectionFailure, "list tables", errNotConnected)
	}
	var names []string
	if err := r.db.NewRaw(r.dialect.TablesQuery()).Scan(cctx, &names); err != nil {
		return nil, r.fail(cctx, IntrospectionFailure, "list tables", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Query selects one page of rows from b.Collection.
func (r *Relational) Query(ctx context.Context, b Browse) (*ResultSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cctx, cancel := r.callContext(ctx)
	defer cancel()
	if r.db == nil || r.State() != Connected {
		return nil, r.fail(cctx, QueryFailure, "query", errNotConnected)
	}
	b = b.Normalize()
	if b.Collection == "" {
		return nil, r.fail(cctx, QueryFailure, "query", fmt.Errorf("table name is required"))
	}

	q := r.db.NewSelect().
		TableExpr("?", bun.Ident(b.Collection)).
		ColumnExpr("*")
	fields := make([]string, 0, len(b.Filter))
	for f := range b.Filter {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if v := b.Filter[f]; v == nil {
			q = q.Where("? IS NULL", bun.Ident(f))
		} else {
			q = q.Where("? = ?", bun.Ident(f), v)
		}
	}
	for _, s := range b.Sort {
		field, desc := sortKey(s)
		if field == "" {
			continue
		}
		if desc {
			q = q.OrderExpr("? DESC", bun.Ident(field))
		} else {
			q = q.OrderExpr("? ASC", bun.Ident(field))
		}
	}
	q = q.Limit(b.Limit).Offset(b.Offset)

	rows, err := q.Rows(cctx)
	if err != nil {
		return nil, r.fail(cctx, QueryFailure, "query "+b.Collection, err)
	}
	defer func() { _ = rows.Close() }()
	cols, data, err := scanRows(rows)
	if err != nil {
		return nil, r.fail(cctx, QueryFailure, "query "+b.Collection, err)
	}
	return &ResultSet{
		Collection: b.Collection,
		Columns:    cols,
		Rows:       data,
		Limit:      b.Limit,
		Offset:     b.Offset,
	}, nil
}

// scanRows reads every row into a column-name keyed map. Text columns that
// drivers return as []byte are converted to strings.
func scanRows(rows *sql.Rows) ([]string, []map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	out := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
