package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kasuganosora/my2dworld/cache"
	"github.com/kasuganosora/my2dworld/model"
	"go.uber.org/zap"
)

// Cached decorates a Gateway with a read-through cache for the static world
// definitions (shards, maps, games). User and inventory reads always go to
// the underlying gateway.
type Cached struct {
	Gateway
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached wraps gw. A ttl <= 0 disables caching.
func NewCached(gw Gateway, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Cached {
	return &Cached{Gateway: gw, cache: c, ttl: ttl, logger: logger}
}

func (c *Cached) Shard(ctx context.Context, id int64) (*model.Shard, error) {
	return readThrough(ctx, c, fmt.Sprintf("world:shard:%d", id), func() (*model.Shard, error) {
		return c.Gateway.Shard(ctx, id)
	})
}

func (c *Cached) Game(ctx context.Context, id int64) (*model.Game, error) {
	return readThrough(ctx, c, fmt.Sprintf("world:game:%d", id), func() (*model.Game, error) {
		return c.Gateway.Game(ctx, id)
	})
}

func (c *Cached) Map(ctx context.Context, id int64) (*model.Map, error) {
	return readThrough(ctx, c, fmt.Sprintf("world:map:%d", id), func() (*model.Map, error) {
		return c.Gateway.Map(ctx, id)
	})
}

// Invalidate drops the cached definitions for the given keys' records.
func (c *Cached) Invalidate(ctx context.Context, kind string, ids ...int64) error {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf("world:%s:%d", kind, id)
	}
	return c.cache.Del(ctx, keys...)
}

// readThrough returns the cached JSON value for key, loading and storing it
// on a miss. Cache failures degrade to a direct load.
func readThrough[T any](ctx context.Context, c *Cached, key string, load func() (*T, error)) (*T, error) {
	if c.ttl <= 0 || c.cache == nil {
		return load()
	}
	if raw, err := c.cache.Get(ctx, key); err == nil {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return &v, nil
		}
		c.logger.Warn("corrupt cache entry", zap.String("key", key))
	} else if !cache.IsNotFound(err) {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err := load()
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(v); err == nil {
		if err := c.cache.Set(ctx, key, string(data), c.ttl); err != nil {
			c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return v, nil
}
