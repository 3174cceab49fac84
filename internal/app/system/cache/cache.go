// Package cache is the read-through cache in front of the document store.
//
// A Backend stores opaque bytes (Redis in production, an in-process map for
// single-node and test use). Cache layers JSON encoding and logging on top
// and never lets a backend failure escape: reads degrade to a miss and
// writes/deletes are logged and dropped. The cache only ever holds derived
// copies, so dropping an entry is always safe.
package cache

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
)

// Backend is the key-value contract the cache needs.
type Backend interface {
	// Get returns (nil, false, nil) on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Del(ctx context.Context, keys ...string) error
	// DelPrefix removes every key matching a Prefix-style wildcard pattern.
	DelPrefix(ctx context.Context, pattern string) error
	Ping(ctx context.Context) error
	Close() error
}

// Cache is the typed, failure-tolerant view over a Backend. It is created
// once at startup and shared by every request.
type Cache struct {
	b   Backend
	log *zap.Logger
}

func New(b Backend, logger *zap.Logger) *Cache {
	return &Cache{b: b, log: logger}
}

// Backend exposes the underlying backend for health checks and shutdown.
func (c *Cache) Backend() Backend { return c.b }

// Get decodes the entry under key into dst. Any backend or decode error is
// logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	raw, ok, err := c.b.Get(ctx, key)
	if err != nil {
		c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn("cache entry undecodable; dropping", zap.String("key", key), zap.Error(err))
		_ = c.b.Del(ctx, key)
		return false
	}
	return true
}

// Set stores v under key. Failures are logged and swallowed.
func (c *Cache) Set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.b.Set(ctx, key, raw); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Del removes keys. The backend error is returned unlogged; the caller
// logs it with the operation that needed the invalidation, and must not
// fail a committed write because of it.
func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.b.Del(ctx, keys...)
}

// DelPrefix removes every key under a Prefix pattern. Like Del, it leaves
// logging to the caller.
func (c *Cache) DelPrefix(ctx context.Context, pattern string) error {
	return c.b.DelPrefix(ctx, pattern)
}

// GetOrLoad is compute-if-absent: it returns the cached value under key,
// or calls load, stores its result and returns it. Errors from load are
// returned as-is and nothing is cached.
//
// There is no lock around the miss path. Concurrent misses may each call
// load and overwrite one another with equivalent values.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var v T
	if c.Get(ctx, key, &v) {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(ctx, key, v)
	return v, nil
}

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("cache: backend closed")
