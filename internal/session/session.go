// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

// package session persists applications registered outside the scan path
// (for example through the web layer) so they survive between requests.
// Backends: an in-process map, a SQL table managed through bun, and a redis
// hash. All of them upsert atomically per lowercased application name.
package session // import "github.com/toeirei/labrador/internal/session"

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/toeirei/labrador/internal/adapter"
	"github.com/toeirei/labrador/internal/security"
)

// ErrNotFound is returned when no entry exists for a name.
var ErrNotFound = errors.New("session entry not found")

// Entry is one stored application.
type Entry struct {
	Name      string
	Path      string
	Config    adapter.Config
	UpdatedAt time.Time
}

// Key returns the primary key of an entry name.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Store is implemented by every session backend.
type Store interface {
	// Upsert replaces the entry with the same key, or inserts it.
	Upsert(ctx context.Context, e Entry) error
	// Get returns the entry for name or ErrNotFound.
	Get(ctx context.Context, name string) (Entry, error)
	// List returns every entry ordered by key.
	List(ctx context.Context) ([]Entry, error)
	// Delete removes the entry for name or returns ErrNotFound.
	Delete(ctx context.Context, name string) error
	Close() error
}

// storedConfig is the at-rest form of adapter.Config. adapter.Config redacts
// the password when marshalled; a stored entry has to keep it.
type storedConfig struct {
	Kind     adapter.Kind      `json:"adapter"`
	Host     string            `json:"host,omitempty"`
	Port     int               `json:"port,omitempty"`
	Socket   string            `json:"socket,omitempty"`
	Database string            `json:"database,omitempty"`
	Username string            `json:"username,omitempty"`
	Password string            `json:"password,omitempty"`
	Path     string            `json:"path,omitempty"`
	Options  map[string]string `json:"options,omitempty"`
	Timeout  time.Duration     `json:"timeout,omitempty"`
}

type storedEntry struct {
	Name      string       `json:"name"`
	Path      string       `json:"path,omitempty"`
	Config    storedConfig `json:"config"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func encodeConfig(c adapter.Config) ([]byte, error) {
	return json.Marshal(toStored(c))
}

func decodeConfig(data []byte) (adapter.Config, error) {
	var sc storedConfig
	if err := json.Unmarshal(data, &sc); err != nil {
		return adapter.Config{}, fmt.Errorf("decode session config: %w", err)
	}
	return fromStored(sc), nil
}

func toStored(c adapter.Config) storedConfig {
	return storedConfig{
		Kind:     c.Kind,
		Host:     c.Host,
		Port:     c.Port,
		Socket:   c.Socket,
		Database: c.Database,
		Username: c.Username,
		Password: c.Password.Reveal(),
		Path:     c.Path,
		Options:  c.Options,
		Timeout:  c.Timeout,
	}
}

func fromStored(sc storedConfig) adapter.Config {
	return adapter.Config{
		Kind:     sc.Kind,
		Host:     sc.Host,
		Port:     sc.Port,
		Socket:   sc.Socket,
		Database: sc.Database,
		Username: sc.Username,
		Password: security.FromString(sc.Password),
		Path:     sc.Path,
		Options:  sc.Options,
		Timeout:  sc.Timeout,
	}
}

func encodeEntry(e Entry) ([]byte, error) {
	return json.Marshal(storedEntry{Name: e.Name, Path: e.Path, Config: toStored(e.Config), UpdatedAt: e.UpdatedAt})
}

func decodeEntry(data []byte) (Entry, error) {
	var se storedEntry
	if err := json.Unmarshal(data, &se); err != nil {
		return Entry{}, fmt.Errorf("decode session entry: %w", err)
	}
	return Entry{Name: se.Name, Path: se.Path, Config: fromStored(se.Config), UpdatedAt: se.UpdatedAt}, nil
}

// prepare validates e and stamps UpdatedAt.
func prepare(e Entry) (Entry, string, error) {
	key := Key(e.Name)
	if key == "" {
		return Entry{}, "", fmt.Errorf("session entry needs a name")
	}
	e.Name = strings.TrimSpace(e.Name)
	e.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	return e, key, nil
}
