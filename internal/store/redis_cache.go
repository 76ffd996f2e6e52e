package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/linkkeeper/internal/shortener"
	"go.uber.org/zap"
)

// LinkCache is a read-through, write-through Redis cache in front of a
// shortener.Repository. Cache failures degrade to the backing store.
type LinkCache struct {
	store  shortener.Repository
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewLinkCache wraps store. A zero ttl caches entries without expiry.
func NewLinkCache(
	store shortener.Repository, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger,
) *LinkCache {
	return &LinkCache{
		store:  store,
		client: client,
		prefix: "link:",
		ttl:    ttl,
		logger: logger,
	}
}

// Save stores the link and, on success, caches it.
func (c *LinkCache) Save(ctx context.Context, link *shortener.ShortURL) error {
	if err := c.store.Save(ctx, link); err != nil {
		return err
	}

	c.cache(ctx, link)

	return nil
}

// GetByCode serves from cache when possible. Misses are never cached.
func (c *LinkCache) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	if link, err := c.fromCache(ctx, code); err == nil {
		return link, nil
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("link cache read failed", zap.String("code", string(code)), zap.Error(err))
	}

	link, err := c.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	c.cache(ctx, link)

	return link, nil
}

// ListByOwner always reads the backing store.
func (c *LinkCache) ListByOwner(ctx context.Context, ownerID string) ([]*shortener.ShortURL, error) {
	return c.store.ListByOwner(ctx, ownerID)
}

func (c *LinkCache) fromCache(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	fields, err := c.client.HGetAll(ctx, c.prefix+string(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		return nil, redis.Nil
	}

	var createdAt time.Time

	if ts, ok := fields["created_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			createdAt = time.Unix(0, nanos).UTC()
		}
	}

	return &shortener.ShortURL{
		Code:      shortener.Code(fields["code"]),
		OwnerID:   fields["owner_id"],
		LongURL:   fields["long_url"],
		CreatedAt: createdAt,
	}, nil
}

func (c *LinkCache) cache(ctx context.Context, link *shortener.ShortURL) {
	key := c.prefix + string(link.Code)

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"code":       string(link.Code),
			"owner_id":   link.OwnerID,
			"long_url":   link.LongURL,
			"created_at": link.CreatedAt.UnixNano(),
		})

		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}

		return nil
	})
	if err != nil {
		c.logger.Warn("link cache write failed", zap.String("code", string(link.Code)), zap.Error(err))
	}
}

// Shutdown is a no-op; the client is owned by the container.
func (c *LinkCache) Shutdown() error {
	return nil
}

var _ shortener.Repository = (*LinkCache)(nil)
