// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package conn

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/toeirei/labrador/internal/adapter"
	"github.com/toeirei/labrador/internal/app"
	"github.com/toeirei/labrador/internal/security"
	_ "modernc.org/sqlite"
)

type fakeDriver struct {
	openErr error
	sess    *fakeSession
}

func (f *fakeDriver) Kind() adapter.Kind { return adapter.Mongo }

func (f *fakeDriver) Open(ctx context.Context, cfg adapter.Config) (adapter.DocumentSession, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.sess, nil
}

type fakeSession struct {
	findErr   error
	findPanic any
	block     bool
	closed    atomic.Int32
}

func (s *fakeSession) Collections(ctx context.Context) ([]string, error) {
	return []string{"orders"}, nil
}

func (s *fakeSession) Find(ctx context.Context, b adapter.Browse) ([]map[string]any, error) {
	if s.findPanic != nil {
		panic(s.findPanic)
	}
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.findErr != nil {
		return nil, s.findErr
	}
	return []map[string]any{{"_id": "1", "total": 10}}, nil
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.closed.Add(1)
	return nil
}

// shopApp returns a mongo application whose adapter talks to drv. The bound
// adapter is returned so tests can inspect its state afterwards.
func shopApp(t *testing.T, drv *fakeDriver, timeout time.Duration) (*app.Application, func() adapter.Capability) {
	t.Helper()
	var bound adapter.Capability
	factory := func(name string, cfg adapter.Config) adapter.Capability {
		bound = adapter.NewDocument(name, drv)
		return bound
	}
	cfg := adapter.Config{
		Kind:     adapter.Mongo,
		Host:     "127.0.0.1",
		Database: "shop",
		Username: "shop",
		Password: security.FromString("mongo-pass-123"),
		Timeout:  timeout,
	}
	a := app.New("Shop", cfg, app.WithFactory(factory))
	return a, func() adapter.Capability { return bound }
}

func TestWithConnection_Success(t *testing.T) {
	sess := &fakeSession{}
	a, bound := shopApp(t, &fakeDriver{sess: sess}, time.Second)
	rs, err := NewManager().Browse(context.Background(), a, adapter.Browse{Collection: "orders"})
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(rs.Rows) != 1 || rs.Columns[0] != "_id" {
		t.Fatalf("unexpected result: %+v", rs)
	}
	if bound().State() == adapter.Connected || sess.closed.Load() != 1 {
		t.Fatalf("adapter must be released after success")
	}
	if len(a.Errors()) != 0 {
		t.Fatalf("no errors expected, got %v", a.Errors())
	}
}

func TestWithConnection_AdapterError(t *testing.T) {
	sess := &fakeSession{findErr: errors.New("collection scan denied")}
	a, bound := shopApp(t, &fakeDriver{sess: sess}, time.Second)
	_, err := NewManager().Browse(context.Background(), a, adapter.Browse{Collection: "orders"})
	if adapter.KindOf(err) != adapter.QueryFailure {
		t.Fatalf("expected QueryFailure, got %v", err)
	}
	if bound().State() != adapter.Disconnected {
		t.Fatalf("state = %s, want disconnected", bound().State())
	}
	if errs := a.Errors(); len(errs) != 1 || errs[0].Kind() != adapter.QueryFailure {
		t.Fatalf("error should be recorded once, got %v", errs)
	}
}

func TestWithConnection_PanicBecomesUnhandledFailure(t *testing.T) {
	sess := &fakeSession{findPanic: "cursor exploded"}
	a, bound := shopApp(t, &fakeDriver{sess: sess}, time.Second)

	_, err := NewManager().Browse(context.Background(), a, adapter.Browse{Collection: "orders"})
	ae, ok := adapter.AsError(err)
	if !ok {
		t.Fatalf("expected *adapter.Error, got %v", err)
	}
	if ae.Kind() != adapter.UnhandledFailure || ae.Adapter() != "mongo" {
		t.Fatalf("got %s from %s", ae.Kind(), ae.Adapter())
	}
	if !strings.Contains(ae.Dump(), "cursor exploded") {
		t.Fatalf("dump should describe the fault:\n%s", ae.Dump())
	}
	if strings.Contains(ae.Dump(), "mongo-pass-123") {
		t.Fatalf("dump leaked the password")
	}
	if bound().State() != adapter.Disconnected {
		t.Fatalf("state = %s, want disconnected", bound().State())
	}
	if sess.closed.Load() != 1 {
		t.Fatalf("session should be closed once, got %d", sess.closed.Load())
	}
	if len(a.Errors()) != 1 {
		t.Fatalf("panic should be recorded, got %v", a.Errors())
	}
}

func TestWithConnection_BodyFault(t *testing.T) {
	a, bound := shopApp(t, &fakeDriver{sess: &fakeSession{}}, time.Second)
	_, err := WithConnection(context.Background(), NewManager(), a, func(ctx context.Context, ad adapter.Capability) (int, error) {
		if ad.State() != adapter.Connected {
			t.Errorf("body should see a connected adapter, got %s", ad.State())
		}
		return 0, errors.New("renderer broke")
	})
	ae, ok := adapter.AsError(err)
	if !ok || ae.Kind() != adapter.UnhandledFailure {
		t.Fatalf("expected UnhandledFailure, got %v", err)
	}
	if !strings.Contains(ae.Dump(), "renderer broke") {
		t.Fatalf("dump should carry the fault:\n%s", ae.Dump())
	}
	if bound().State() == adapter.Connected {
		t.Fatalf("adapter left connected")
	}
}

func TestWithConnection_ConnectFailure(t *testing.T) {
	a, bound := shopApp(t, &fakeDriver{openErr: errors.New("auth failed: mongo-pass-123 rejected")}, time.Second)
	called := false
	_, err := WithConnection(context.Background(), NewManager(), a, func(ctx context.Context, ad adapter.Capability) (int, error) {
		called = true
		return 0, nil
	})
	ae, ok := adapter.AsError(err)
	if !ok || ae.Kind() != adapter.ConnectionFailure {
		t.Fatalf("expected ConnectionFailure, got %v", err)
	}
	if called {
		t.Fatalf("body must not run without a connection")
	}
	if strings.Contains(ae.Dump(), "mongo-pass-123") || strings.Contains(ae.Message(), "mongo-pass-123") {
		t.Fatalf("password leaked")
	}
	if bound().State() == adapter.Connected {
		t.Fatalf("adapter left connected")
	}
	if len(a.Errors()) != 1 {
		t.Fatalf("expected one recorded error, got %d", len(a.Errors()))
	}
}

func TestWithConnection_Timeout(t *testing.T) {
	a, bound := shopApp(t, &fakeDriver{sess: &fakeSession{block: true}}, 50*time.Millisecond)
	_, err := NewManager().Browse(context.Background(), a, adapter.Browse{Collection: "orders"})
	if adapter.KindOf(err) != adapter.Timeout {
		t.Fatalf("expected Timeout, got %v", err)
	}
	if bound().State() != adapter.Disconnected {
		t.Fatalf("state = %s, want disconnected", bound().State())
	}
}

func TestWithConnection_OperationTimeout(t *testing.T) {
	a, bound := shopApp(t, &fakeDriver{sess: &fakeSession{}}, time.Second)
	m := NewManager(WithOperationTimeout(20 * time.Millisecond))
	_, err := WithConnection(context.Background(), m, a, func(ctx context.Context, ad adapter.Capability) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if adapter.KindOf(err) != adapter.Timeout {
		t.Fatalf("expected Timeout, got %v", err)
	}
	if bound().State() == adapter.Connected {
		t.Fatalf("adapter left connected")
	}
}

func TestWithConnection_NullApplication(t *testing.T) {
	a := app.Null()
	_, err := NewManager().Collections(context.Background(), a)
	if adapter.KindOf(err) != adapter.Unconfigured {
		t.Fatalf("expected Unconfigured, got %v", err)
	}
	if a.Adapter().State() == adapter.Connected {
		t.Fatalf("null adapter can never connect")
	}
}

func TestManager_SQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.sqlite3")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, stmt := range []string{
		`CREATE TABLE items (id INTEGER PRIMARY KEY, sku TEXT)`,
		`INSERT INTO items (sku) VALUES ('a-1'), ('b-2'), ('c-3')`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	_ = db.Close()

	a := app.New("Inventory", adapter.Config{Kind: adapter.SQLite, Path: path})
	m := NewManager()
	ctx := context.Background()

	names, err := m.Collections(ctx, a)
	if err != nil || len(names) != 1 || names[0] != "items" {
		t.Fatalf("Collections = %v, %v", names, err)
	}
	rs, err := m.Browse(ctx, a, adapter.Browse{Collection: "items", Sort: []string{"-sku"}, Limit: 2})
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(rs.Rows) != 2 || rs.Rows[0]["sku"] != "c-3" {
		t.Fatalf("unexpected rows: %v", rs.Rows)
	}
	if a.Adapter().State() != adapter.Disconnected {
		t.Fatalf("state = %s, want disconnected", a.Adapter().State())
	}
}
