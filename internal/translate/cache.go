package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores translated strings by key.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// CacheKey derives the cache key for a text and language pair.
func CacheKey(text, from, to string) string {
	sum := sha256.Sum256([]byte(text))
	return "translation:" + from + "|" + to + ":" + hex.EncodeToString(sum[:])
}

// RedisCache is a Cache backed by Redis string keys with a TTL.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache creates a Redis-backed cache. A zero ttl keeps entries forever.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string) error {
	if err := c.rdb.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Cached wraps a Translator with a cache. Only successful translations are
// stored; cache failures fall through to the wrapped Translator.
type Cached struct {
	Next   Translator
	Cache  Cache
	Logger *slog.Logger
}

func (c *Cached) Translate(ctx context.Context, text, from, to string) Result {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	key := CacheKey(text, from, to)
	v, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("translation cache read failed", "error", err)
	} else if ok {
		return Result{Text: v}
	}

	res := c.Next.Translate(ctx, text, from, to)
	if res.Fallback {
		return res
	}
	if err := c.Cache.Set(ctx, key, res.Text); err != nil {
		logger.Warn("translation cache write failed", "error", err)
	}
	return res
}
