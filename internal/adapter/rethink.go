// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package adapter

import (
	"context"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

type rethinkDriver struct{}

// NewRethink returns a RethinkDB adapter for app.
func NewRethink(app string) *Document { return NewDocument(app, rethinkDriver{}) }

func (rethinkDriver) Kind() Kind { return Rethink }

func (rethinkDriver) Open(ctx context.Context, cfg Config) (DocumentSession, error) {
	db := cfg.Database
	if db == "" {
		db = "test"
	}
	sess, err := r.Connect(r.ConnectOpts{
		Address:      cfg.Address(),
		Database:     db,
		Username:     cfg.Username,
		Password:     cfg.Password.Reveal(),
		AuthKey:      cfg.Options["auth_key"],
		Timeout:      cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		InitialCap:   1,
		MaxOpen:      2,
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		_ = sess.Close()
		return nil, err
	}
	return &rethinkSession{sess: sess, db: db}, nil
}

type rethinkSession struct {
	sess *r.Session
	db   string
}

func (s *rethinkSession) Collections(ctx context.Context) ([]string, error) {
	cur, err := r.DB(s.db).TableList().Run(s.sess, r.RunOpts{Context: ctx})
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close() }()
	var names []string
	if err := cur.All(&names); err != nil {
		return nil, err
	}
	return names, nil
}

func (s *rethinkSession) Find(ctx context.Context, b Browse) ([]map[string]any, error) {
	term := r.DB(s.db).Table(b.Collection)
	if len(b.Filter) > 0 {
		term = term.Filter(b.Filter)
	}
	if len(b.Sort) > 0 {
		var order []interface{}
		for _, key := range b.Sort {
			field, desc := sortKey(key)
			if field == "" {
				continue
			}
			if desc {
				order = append(order, r.Desc(field))
			} else {
				order = append(order, r.Asc(field))
			}
		}
		term = term.OrderBy(order...)
	}
	term = term.Skip(b.Offset).Limit(b.Limit)
	cur, err := term.Run(s.sess, r.RunOpts{Context: ctx})
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close() }()
	var docs []map[string]any
	if err := cur.All(&docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *rethinkSession) Close(ctx context.Context) error {
	return s.sess.Close()
}
