package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// TestRedisURL points at a scratch database on a local Redis. Tests flush it.
const TestRedisURL = "redis://localhost:6379/15"

// SetupTestRedis returns TestRedisURL after flushing its database, and
// flushes it again when the test completes. Tests are skipped when no Redis
// is reachable.
func SetupTestRedis(t *testing.T) string {
	t.Helper()

	opt, err := redis.ParseURL(TestRedisURL)
	if err != nil {
		t.Fatalf("invalid TestRedisURL: %v", err)
	}
	opt.DialTimeout = 2 * time.Second
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		t.Skipf("Redis not available at %s: %v", TestRedisURL, err)
	}
	if err := rdb.FlushDB(ctx).Err(); err != nil {
		rdb.Close()
		t.Fatalf("failed to flush test redis: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rdb.FlushDB(ctx).Err()
		rdb.Close()
	})
	return TestRedisURL
}
