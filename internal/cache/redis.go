// Package cache keeps short-lived product responses and rate-limit counters in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

const productPrefix = "products:"

// Cache is what the API needs from a cache backend.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	InvalidateProducts(ctx context.Context) error
	Allow(ctx context.Context, key string) bool
}

type Client struct {
	rdb    *redis.Client
	ttl    time.Duration
	limit  int
	window time.Duration
}

func NewClient(addr, password string, ttl time.Duration, limitPerMinute int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, ttl: ttl, limit: limitPerMinute, window: time.Minute}, nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

func (c *Client) Set(ctx context.Context, key string, data []byte) error {
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}

// InvalidateProducts drops every cached product response.
func (c *Client) InvalidateProducts(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, productPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Allow counts a hit for key in the current window. Redis failures let the
// request through.
func (c *Client) Allow(ctx context.Context, key string) bool {
	if c.limit <= 0 {
		return true
	}
	redisKey := "ratelimit:" + key

	pipe := c.rdb.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, c.window)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("rate limit check failed", "key", key, "error", err)
		return true
	}
	return incr.Val() <= int64(c.limit)
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// ProductListKey is the cache key for a filtered shop listing.
func ProductListKey(categories, brands, sortBy string) string {
	return fmt.Sprintf("%slist:c=%s:b=%s:s=%s", productPrefix, categories, brands, sortBy)
}

func ProductKey(id string) string {
	return productPrefix + "details:" + id
}

// Noop is used when Redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (Noop) Set(context.Context, string, []byte) error { return nil }

func (Noop) InvalidateProducts(context.Context) error { return nil }

func (Noop) Allow(context.Context, string) bool { return true }
