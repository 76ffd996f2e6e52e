//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/linkkeeper/internal/shortener"
	"github.com/serroba/linkkeeper/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func getRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}

	return "localhost:6379"
}

func TestLinkCacheIntegration(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: getRedisAddr()})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	backing := store.NewMemoryStore()
	cache := store.NewLinkCache(backing, client, time.Minute, zap.NewNop())
	created := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("write-through then cached read", func(t *testing.T) {
		link := &shortener.ShortURL{Code: "cache001", OwnerID: "u1", LongURL: "https://example.com", CreatedAt: created}
		t.Cleanup(func() { client.Del(ctx, "link:cache001") })

		require.NoError(t, cache.Save(ctx, link))

		fields, err := client.HGetAll(ctx, "link:cache001").Result()
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", fields["long_url"])

		ttl, err := client.TTL(ctx, "link:cache001").Result()
		require.NoError(t, err)
		assert.Positive(t, ttl)

		got, err := cache.GetByCode(ctx, "cache001")
		require.NoError(t, err)
		assert.Equal(t, "u1", got.OwnerID)
		assert.True(t, got.CreatedAt.Equal(created))
	})

	t.Run("read-through populates the cache", func(t *testing.T) {
		link := &shortener.ShortURL{Code: "cache002", OwnerID: "u1", LongURL: "https://two.com", CreatedAt: created}
		t.Cleanup(func() { client.Del(ctx, "link:cache002") })

		require.NoError(t, backing.Save(ctx, link))

		_, err := cache.GetByCode(ctx, "cache002")
		require.NoError(t, err)

		exists, err := client.Exists(ctx, "link:cache002").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)
	})

	t.Run("misses are not cached", func(t *testing.T) {
		_, err := cache.GetByCode(ctx, "cache404")
		assert.ErrorIs(t, err, shortener.ErrNotFound)

		exists, _ := client.Exists(ctx, "link:cache404").Result()
		assert.Zero(t, exists)
	})
}
