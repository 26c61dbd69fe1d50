package redisclient

import (
	"context"
	"fmt"
	"time"

	"catalog-admin/internal/store"
	"catalog-admin/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis client for document caching
func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func docKey(path string) string {
	return fmt.Sprintf("doc:%s", path)
}

// GetDoc returns a cached document and its version token.
// The second return value is false on a miss.
func (c *Client) GetDoc(ctx context.Context, path string) ([]byte, string, bool, error) {
	fields, err := c.rdb.HGetAll(ctx, docKey(path)).Result()
	if err != nil {
		return nil, "", false, err
	}
	if len(fields) == 0 {
		return nil, "", false, nil
	}
	return []byte(fields["content"]), fields["token"], true, nil
}

// SetDoc caches a document with its version token under the cache TTL.
func (c *Client) SetDoc(ctx context.Context, path string, content []byte, token string) error {
	key := docKey(path)

	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key, "content", content)
	pipe.HSet(ctx, key, "token", token)
	pipe.Expire(ctx, key, c.ttl)

	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateDoc drops a cached document after a write or delete.
func (c *Client) InvalidateDoc(ctx context.Context, path string) error {
	return c.rdb.Del(ctx, docKey(path)).Err()
}

// CachedStore is a read-through cache over a DocStore. Cache failures
// fall back to the underlying store; writes and deletes invalidate.
// Cached version tokens can go stale within the TTL, so mutation paths
// should read from the underlying store directly.
type CachedStore struct {
	inner  store.DocStore
	cache  *Client
	logger *zap.Logger
}

// NewCachedStore wraps a DocStore with the Redis document cache.
func NewCachedStore(inner store.DocStore, cache *Client) *CachedStore {
	return &CachedStore{
		inner:  inner,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

func (c *CachedStore) Get(ctx context.Context, path string) ([]byte, string, error) {
	content, token, hit, err := c.cache.GetDoc(ctx, path)
	if err != nil {
		c.logger.Warn("Doc cache read failed, falling back to store",
			zap.String("path", path),
			zap.Error(err))
		util.DocCacheTotal.WithLabelValues("error").Inc()
		return c.inner.Get(ctx, path)
	}
	if hit {
		util.DocCacheTotal.WithLabelValues("hit").Inc()
		return content, token, nil
	}
	util.DocCacheTotal.WithLabelValues("miss").Inc()

	content, token, err = c.inner.Get(ctx, path)
	if err != nil {
		return nil, "", err
	}

	if err := c.cache.SetDoc(ctx, path, content, token); err != nil {
		c.logger.Warn("Doc cache write failed",
			zap.String("path", path),
			zap.Error(err))
	}
	return content, token, nil
}

func (c *CachedStore) Put(ctx context.Context, path string, content []byte, token, message string) error {
	if err := c.inner.Put(ctx, path, content, token, message); err != nil {
		return err
	}
	if err := c.cache.InvalidateDoc(ctx, path); err != nil {
		c.logger.Warn("Doc cache invalidation failed",
			zap.String("path", path),
			zap.Error(err))
	}
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, path, token, message string) error {
	if err := c.inner.Delete(ctx, path, token, message); err != nil {
		return err
	}
	if err := c.cache.InvalidateDoc(ctx, path); err != nil {
		c.logger.Warn("Doc cache invalidation failed",
			zap.String("path", path),
			zap.Error(err))
	}
	return nil
}

func (c *CachedStore) List(ctx context.Context, folder string) ([]string, error) {
	return c.inner.List(ctx, folder)
}
