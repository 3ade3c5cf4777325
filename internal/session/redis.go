// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/toeirei/labrador/internal/logging"
)

// DefaultRedisPrefix namespaces the session hash.
const DefaultRedisPrefix = "labrador:"

// RedisStore keeps entries as fields of one redis hash, keyed by the
// lowercased name. HSET replaces a field atomically.
type RedisStore struct {
	client *redis.Client
	hash   string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps client. The hash is prefix + "sessions".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, hash: prefix + "sessions"}
}

// OpenRedis connects to addr and verifies the server answers.
func OpenRedis(ctx context.Context, addr, password string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return NewRedisStore(client, prefix), nil
}

func (s *RedisStore) Upsert(ctx context.Context, e Entry) error {
	e, key, err := prepare(e)
	if err != nil {
		return err
	}
	data, err := encodeEntry(e)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", key, err)
	}
	if err := s.client.HSet(ctx, s.hash, key, data).Err(); err != nil {
		return fmt.Errorf("store session %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, name string) (Entry, error) {
	data, err := s.client.HGet(ctx, s.hash, Key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get session %s: %w", Key(name), err)
	}
	return decodeEntry(data)
}

func (s *RedisStore) List(ctx context.Context) ([]Entry, error) {
	all, err := s.client.HGetAll(ctx, s.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		e, err := decodeEntry([]byte(all[k]))
		if err != nil {
			logging.Warnf("session: skipping unreadable entry %s: %v", k, err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	n, err := s.client.HDel(ctx, s.hash, Key(name)).Result()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", Key(name), err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
