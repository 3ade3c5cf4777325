// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/adrg/xdg"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
	BackendRedis    = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	// DSN is used by the SQL backends. An empty SQLite DSN means
	// DefaultSQLitePath.
	DSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// DefaultSQLitePath returns the session database under the XDG data home,
// creating its directory.
func DefaultSQLitePath() (string, error) {
	return xdg.DataFile("labrador/sessions.db")
}

// Open returns the backend named by o.Backend. An empty backend means SQLite.
func Open(ctx context.Context, o Options) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(o.Backend))
	if backend == "" {
		backend = BackendSQLite
	}
	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		dsn := o.DSN
		if dsn == "" {
			p, err := DefaultSQLitePath()
			if err != nil {
				return nil, fmt.Errorf("resolve session database path: %w", err)
			}
			dsn = p
		}
		return OpenSQL(ctx, BackendSQLite, dsn)
	case BackendPostgres, BackendMySQL:
		if o.DSN == "" {
			return nil, fmt.Errorf("session backend %s needs a dsn", backend)
		}
		return OpenSQL(ctx, backend, o.DSN)
	case BackendRedis:
		addr := o.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		return OpenRedis(ctx, addr, o.RedisPassword, o.RedisDB, o.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown session backend %q", o.Backend)
	}
}
