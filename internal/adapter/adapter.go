// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

// Package adapter hides relational and document data stores behind one
// capability contract: connect, list collections, run a read, disconnect and
// report structured errors.
//
// Each backend is a thin specialization of one of two bases:
//   - Relational (MySQL, Postgres, SQLite) supplies a Dialect: how to open a
//     *sql.DB from a Config and how to list tables. Queries are built with bun.
//   - Document (MongoDB, RethinkDB) supplies a DocumentDriver: how to open a
//     native session and translate list/find calls.
//
// Both bases share the state machine, the error accumulator, per-call
// timeouts and the translation of native failures into *Error values.
package adapter // import "github.com/toeirei/labrador/internal/adapter"

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/toeirei/labrador/internal/security"
)

// Kind is the backend kind tag.
type Kind string

const (
	MySQL    Kind = "mysql"
	Postgres Kind = "postgres"
	SQLite   Kind = "sqlite"
	Mongo    Kind = "mongo"
	Rethink  Kind = "rethinkdb"
	// None tags applications without a usable backend.
	None Kind = "none"
)

// ParseKind maps the adapter names found in application config files
// (Rails' "mysql2", "postgresql", "sqlite3", Mongoid, ...) to a Kind.
// Unknown names yield None.
func ParseKind(name string) Kind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql", "mysql2", "mariadb", "trilogy":
		return MySQL
	case "postgres", "postgresql", "postgis", "pg", "pgx":
		return Postgres
	case "sqlite", "sqlite3":
		return SQLite
	case "mongo", "mongodb", "mongoid":
		return Mongo
	case "rethinkdb", "rethink":
		return Rethink
	default:
		return None
	}
}

// Family distinguishes relational from document engines.
type Family string

const (
	FamilyRelational Family = "relational"
	FamilyDocument   Family = "document"
	FamilyNone       Family = "none"
)

// FamilyOf returns the family a kind belongs to.
func FamilyOf(k Kind) Family {
	switch k {
	case MySQL, Postgres, SQLite:
		return FamilyRelational
	case Mongo, Rethink:
		return FamilyDocument
	default:
		return FamilyNone
	}
}

// DefaultPort returns the conventional port for a networked kind, or 0.
func DefaultPort(k Kind) int {
	switch k {
	case MySQL:
		return 3306
	case Postgres:
		return 5432
	case Mongo:
		return 27017
	case Rethink:
		return 28015
	default:
		return 0
	}
}

// State is the connection state of an adapter instance.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// DefaultTimeout bounds connect and query calls when Config.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// Config is the backend kind plus its connection parameters.
type Config struct {
	Kind     Kind              `json:"adapter"`
	Host     string            `json:"host,omitempty"`
	Port     int               `json:"port,omitempty"`
	Socket   string            `json:"socket,omitempty"`
	Database string            `json:"database,omitempty"`
	Username string            `json:"username,omitempty"`
	Password security.Secret   `json:"password,omitempty"`
	Path     string            `json:"path,omitempty"`
	Options  map[string]string `json:"options,omitempty"`
	Timeout  time.Duration     `json:"timeout,omitempty"`
}

// Normalize fills in default host, port and timeout for the configured kind.
func (c Config) Normalize() Config {
	if FamilyOf(c.Kind) == FamilyDocument || c.Kind == MySQL || c.Kind == Postgres {
		if c.Host == "" && c.Socket == "" {
			c.Host = "localhost"
		}
		if c.Port == 0 && c.Socket == "" {
			c.Port = DefaultPort(c.Kind)
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Address returns host:port for networked backends.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate reports parameters that make a connection impossible.
func (c Config) Validate() error {
	switch c.Kind {
	case MySQL, Postgres:
		if c.Host == "" && c.Socket == "" {
			return fmt.Errorf("%s: host or socket is required", c.Kind)
		}
	case SQLite:
		if c.Path == "" && c.Database == "" {
			return fmt.Errorf("sqlite: database path is required")
		}
	case Mongo, Rethink:
		if c.Host == "" {
			return fmt.Errorf("%s: host is required", c.Kind)
		}
		if c.Kind == Mongo && c.Database == "" {
			return fmt.Errorf("mongo: database is required")
		}
	case None, "":
		return fmt.Errorf("no adapter configured")
	default:
		return fmt.Errorf("unsupported adapter %q", c.Kind)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%s: invalid port %d", c.Kind, c.Port)
	}
	return nil
}

const (
	// DefaultLimit is the page size used when a Browse has none.
	DefaultLimit = 50
	// MaxLimit caps the page size of a single read.
	MaxLimit = 1000
)

// Browse is the backend-agnostic read request: one collection or table,
// optionally filtered by field equality, sorted and paginated.
type Browse struct {
	Collection string         `json:"collection"`
	Filter     map[string]any `json:"filter,omitempty"`
	// Sort lists field names; a leading "-" sorts descending.
	Sort   []string `json:"sort,omitempty"`
	Limit  int      `json:"limit,omitempty"`
	Offset int      `json:"offset,omitempty"`
}

// Normalize clamps the page bounds.
func (b Browse) Normalize() Browse {
	if b.Limit <= 0 {
		b.Limit = DefaultLimit
	}
	if b.Limit > MaxLimit {
		b.Limit = MaxLimit
	}
	if b.Offset < 0 {
		b.Offset = 0
	}
	return b
}

// sortKey splits a Sort entry into field and direction.
func sortKey(s string) (field string, desc bool) {
	if strings.HasPrefix(s, "-") {
		return s[1:], true
	}
	return strings.TrimPrefix(s, "+"), false
}

// ResultSet is one page of a browse.
type ResultSet struct {
	Collection string           `json:"collection"`
	Columns    []string         `json:"columns"`
	Rows       []map[string]any `json:"rows"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

// Capability is the contract every backend adapter satisfies.
type Capability interface {
	Kind() Kind
	Family() Family
	State() State

	// Connect establishes a live connection. It is a no-op when already
	// connected. On failure the adapter is left Failed with no handle.
	Connect(ctx context.Context, cfg Config) error
	// Disconnect releases any held handle. It never fails; close errors are
	// logged.
	Disconnect()

	// Errors returns the errors recorded since construction, oldest first.
	Errors() []*Error
	// ClearErrors drops the recorded errors.
	ClearErrors()

	// Collections lists the tables or collections of the connected store.
	Collections(ctx context.Context) ([]string, error)
	// Query runs a read and returns one page of results.
	Query(ctx context.Context, b Browse) (*ResultSet, error)
}
