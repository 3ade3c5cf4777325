// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package adapter

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type mongoDriver struct{}

// NewMongo returns a MongoDB adapter for app.
func NewMongo(app string) *Document { return NewDocument(app, mongoDriver{}) }

func (mongoDriver) Kind() Kind { return Mongo }

// Open connects and pings the primary. Credentials go through
// options.Credential rather than the URI.
func (mongoDriver) Open(ctx context.Context, cfg Config) (DocumentSession, error) {
	opts := options.Client().
		SetHosts([]string{cfg.Address()}).
		SetAppName("labrador").
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout)
	if rs := cfg.Options["replica_set"]; rs != "" {
		opts.SetReplicaSet(rs)
	}
	if cfg.Username != "" {
		source := cfg.Options["auth_source"]
		if source == "" {
			source = "admin"
		}
		opts.SetAuth(options.Credential{
			Username:   cfg.Username,
			Password:   cfg.Password.Reveal(),
			AuthSource: source,
		})
	}
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &mongoSession{client: client, db: client.Database(cfg.Database)}, nil
}

type mongoSession struct {
	client *mongo.Client
	db     *mongo.Database
}

func (s *mongoSession) Collections(ctx context.Context) ([]string, error) {
	return s.db.ListCollectionNames(ctx, bson.D{})
}

func (s *mongoSession) Find(ctx context.Context, b Browse) ([]map[string]any, error) {
	filter := bson.M{}
	for k, v := range b.Filter {
		if str, ok := v.(string); ok && k == "_id" {
			if oid, err := bson.ObjectIDFromHex(str); err == nil {
				filter[k] = oid
				continue
			}
		}
		filter[k] = v
	}
	findOpts := options.Find().SetLimit(int64(b.Limit)).SetSkip(int64(b.Offset))
	if len(b.Sort) > 0 {
		order := bson.D{}
		for _, key := range b.Sort {
			field, desc := sortKey(key)
			if field == "" {
				continue
			}
			dir := 1
			if desc {
				dir = -1
			}
			order = append(order, bson.E{Key: field, Value: dir})
		}
		findOpts.SetSort(order)
	}
	cur, err := s.db.Collection(b.Collection).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		row := make(map[string]any, len(doc))
		for k, v := range doc {
			if oid, ok := v.(bson.ObjectID); ok {
				row[k] = oid.Hex()
				continue
			}
			row[k] = v
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *mongoSession) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
