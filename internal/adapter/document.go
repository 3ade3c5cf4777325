// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package adapter

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/toeirei/labrador/internal/logging"
)

// DocumentDriver is what a schema-less backend contributes on top of
// Document.
type DocumentDriver interface {
	Kind() Kind
	// Open dials the backend and verifies the session is usable.
	Open(ctx context.Context, cfg Config) (DocumentSession, error)
}

// DocumentSession is a live native session.
type DocumentSession interface {
	Collections(ctx context.Context) ([]string, error)
	// Find returns one page of documents; b is already normalized.
	Find(ctx context.Context, b Browse) ([]map[string]any, error)
	Close(ctx context.Context) error
}

// Document is the shared base of the document-family adapters.
type Document struct {
	core
	driver DocumentDriver
	sess   DocumentSession
}

var _ Capability = (*Document)(nil)

// NewDocument returns a disconnected adapter for app using driver d.
func NewDocument(app string, d DocumentDriver) *Document {
	doc := &Document{driver: d}
	doc.core.init(d.Kind(), app)
	return doc
}

// Family reports FamilyDocument.
func (d *Document) Family() Family { return FamilyDocument }

// Connect opens a native session. It is a no-op when connected.
func (d *Document) Connect(ctx context.Context, cfg Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.State() == Connected && d.sess != nil {
		return nil
	}
	d.configure(cfg)
	d.setState(Connecting)

	cctx, cancel := d.callContext(ctx)
	defer cancel()

	if err := d.cfg.Validate(); err != nil {
		d.setState(Failed)
		return d.fail(cctx, ConnectionFailure, "connect", err)
	}
	sess, err := d.driver.Open(cctx, d.cfg)
	if err != nil {
		d.setState(Failed)
		return d.fail(cctx, ConnectionFailure, "connect", err)
	}
	d.sess = sess
	d.setState(Connected)
	return nil
}

// Disconnect closes the session if one is held.
func (d *Document) Disconnect() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sess == nil {
		if d.State() == Failed {
			d.setState(Disconnected)
		}
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout(d.cfg.Timeout))
	defer cancel()
	if err := d.sess.Close(ctx); err != nil {
		logging.Warnf("adapter %s (%s): close failed: %v", d.kind, d.app, err)
	}
	d.sess = nil
	d.setState(Disconnected)
}

// Collections lists the collections (or tables) of the connected database.
func (d *Document) Collections(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cctx, cancel := d.callContext(ctx)
	defer cancel()
	if d.sess == nil || d.State() != Connected {
		return nil, d.fail(cctx, IntrospectionFailure, "list collections", errNotConnected)
	}
	names, err := d.sess.Collections(cctx)
	if err != nil {
		return nil, d.fail(cctx, IntrospectionFailure, "list collections", err)
	}
	out := append([]string{}, names...)
	sort.Strings(out)
	return out, nil
}

// Query finds one page of documents in b.Collection.
func (d *Document) Query(ctx context.Context, b Browse) (*ResultSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cctx, cancel := d.callContext(ctx)
	defer cancel()
	if d.sess == nil || d.State() != Connected {
		return nil, d.fail(cctx, QueryFailure, "query", errNotConnected)
	}
	b = b.Normalize()
	if b.Collection == "" {
		return nil, d.fail(cctx, QueryFailure, "query", fmt.Errorf("collection name is required"))
	}
	docs, err := d.sess.Find(cctx, b)
	if err != nil {
		return nil, d.fail(cctx, QueryFailure, "query "+b.Collection, err)
	}
	if docs == nil {
		docs = []map[string]any{}
	}
	return &ResultSet{
		Collection: b.Collection,
		Columns:    documentColumns(docs),
		Rows:       docs,
		Limit:      b.Limit,
		Offset:     b.Offset,
	}, nil
}

// documentColumns is the union of the document keys: identifier fields
// first, the rest sorted.
func documentColumns(docs []map[string]any) []string {
	seen := map[string]bool{}
	var rest []string
	for _, doc := range docs {
		for k := range doc {
			if !seen[k] {
				seen[k] = true
				if k != "_id" && k != "id" {
					rest = append(rest, k)
				}
			}
		}
	}
	sort.Strings(rest)
	cols := make([]string, 0, len(seen))
	for _, id := range []string{"_id", "id"} {
		if seen[id] {
			cols = append(cols, id)
		}
	}
	return append(cols, rest...)
}

func closeTimeout(t time.Duration) time.Duration {
	if t <= 0 || t > 5*time.Second {
		return 5 * time.Second
	}
	return t
}
