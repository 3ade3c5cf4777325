// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package adapter

import (
	"context"
	"strings"
	"testing"
)

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"mysql2":     MySQL,
		"Trilogy":    MySQL,
		"postgresql": Postgres,
		"postgis":    Postgres,
		" sqlite3 ":  SQLite,
		"mongoid":    Mongo,
		"rethinkdb":  Rethink,
		"oracle":     None,
		"":           None,
	}
	for in, want := range cases {
		if got := ParseKind(in); got != want {
			t.Errorf("ParseKind(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNew_DispatchesByKind(t *testing.T) {
	for _, k := range Kinds() {
		a := New("Blog", Config{Kind: k})
		if a.Kind() != k {
			t.Errorf("New(%s).Kind() = %s", k, a.Kind())
		}
		if a.Family() != FamilyOf(k) {
			t.Errorf("New(%s).Family() = %s, want %s", k, a.Family(), FamilyOf(k))
		}
		if a.State() != Disconnected {
			t.Errorf("New(%s) should start disconnected", k)
		}
		if !Supported(k) {
			t.Errorf("Supported(%s) = false", k)
		}
	}
}

func TestNull_AlwaysUnconfigured(t *testing.T) {
	a := New("Legacy", Config{Kind: Kind("oracle")})
	if _, ok := a.(*Null); !ok {
		t.Fatalf("unknown kind should yield *Null, got %T", a)
	}
	ctx := context.Background()
	err := a.Connect(ctx, Config{})
	if KindOf(err) != Unconfigured {
		t.Fatalf("expected Unconfigured, got %v", err)
	}
	if !strings.Contains(err.Error(), `unsupported adapter "oracle"`) {
		t.Fatalf("unexpected message: %v", err)
	}
	if _, err := a.Collections(ctx); KindOf(err) != Unconfigured {
		t.Fatalf("Collections: expected Unconfigured, got %v", err)
	}
	if _, err := a.Query(ctx, Browse{Collection: "x"}); KindOf(err) != Unconfigured {
		t.Fatalf("Query: expected Unconfigured, got %v", err)
	}
	a.Disconnect()
	if a.State() != Disconnected || len(a.Errors()) != 3 {
		t.Fatalf("state %s, %d errors", a.State(), len(a.Errors()))
	}

	anon := NewNull("", None)
	if err := anon.Connect(ctx, Config{}); !strings.Contains(err.Error(), "no application selected") {
		t.Fatalf("unexpected message: %v", err)
	}
}
