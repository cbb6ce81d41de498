package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces document keys in a shared Redis database.
const RedisKeyPrefix = "stratadash:doc:"

// RedisStore keeps each document in a Redis hash with "value" and
// "revision" fields. Writes use WATCH so a concurrent writer aborts the
// transaction instead of being overwritten.
type RedisStore struct {
	rdb *redis.Client
}

// OpenRedis connects to the server at url (redis://[:password@]host:port/db)
// and checks it is reachable.
func OpenRedis(ctx context.Context, url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (Document, error) {
	vals, err := s.rdb.HMGet(ctx, RedisKeyPrefix+key, "value", "revision").Result()
	if err != nil {
		return Document{}, fmt.Errorf("failed to read document %q: %w", key, err)
	}
	value, ok := vals[0].(string)
	if !ok {
		return Document{}, ErrNotFound
	}
	var rev int64
	if r, ok := vals[1].(string); ok {
		if _, err := fmt.Sscan(r, &rev); err != nil {
			return Document{}, fmt.Errorf("bad revision for document %q: %w", key, err)
		}
	}
	return Document{Value: []byte(value), Revision: rev}, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	k := RedisKeyPrefix + key
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		rev, err := tx.HGet(ctx, k, "revision").Int64()
		if errors.Is(err, redis.Nil) {
			rev = 0
		} else if err != nil {
			return err
		}
		if rev != expected {
			return ErrRevisionMismatch
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, k,
				"value", string(value),
				"revision", expected+1,
				"updated_at", time.Now().UTC().Format(time.RFC3339Nano))
			return nil
		})
		return err
	}, k)

	switch {
	case errors.Is(err, ErrRevisionMismatch), errors.Is(err, redis.TxFailedErr):
		return 0, ErrRevisionMismatch
	case err != nil:
		return 0, fmt.Errorf("failed to write document %q: %w", key, err)
	}
	return expected + 1, nil
}

// Ping implements Store.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
