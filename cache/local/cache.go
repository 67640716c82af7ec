package local

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Config holds LocalCache settings.
type Config struct {
	GCInterval time.Duration
}

type entry struct {
	data     string
	expireAt time.Time // zero = no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// LocalCache is an in-process cache implementing the Cache interface.
type LocalCache struct {
	mu       sync.RWMutex
	kv       map[string]entry
	hashes   map[string]map[string]string
	stopGC   chan struct{}
	stopOnce sync.Once
}

// NewCache creates a LocalCache and starts the background GC goroutine.
func NewCache(cfg Config) (*LocalCache, error) {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c := &LocalCache{
		kv:     make(map[string]entry),
		hashes: make(map[string]map[string]string),
		stopGC: make(chan struct{}),
	}
	go c.runGC(interval)
	return c, nil
}

// Close stops the background GC goroutine.
func (c *LocalCache) Close() {
	c.stopOnce.Do(func() { close(c.stopGC) })
}

func (c *LocalCache) runGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			c.mu.Lock()
			for k, e := range c.kv {
				if e.expired(now) {
					delete(c.kv, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopGC:
			return
		}
	}
}

// Ping always succeeds.
func (c *LocalCache) Ping(context.Context) error { return nil }

// ---- KV ----

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	e, ok := c.kv[key]
	c.mu.RUnlock()
	if !ok || e.expired(time.Now()) {
		return "", ErrNotFound
	}
	return e.data, nil
}

func (c *LocalCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := entry{data: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.kv[key] = e
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.kv, k)
		delete(c.hashes, k)
	}
	return nil
}

func (c *LocalCache) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := c.Get(ctx, key); err != nil {
		c.mu.RLock()
		_, isHash := c.hashes[key]
		c.mu.RUnlock()
		return isHash, nil
	}
	return true, nil
}

// ---- Hash ----

func (c *LocalCache) HSet(_ context.Context, key, field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.hashes[key]
	if !ok {
		h = make(map[string]string)
		c.hashes[key] = h
	}
	h[field] = value
	return nil
}

func (c *LocalCache) HGetAll(_ context.Context, key string) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.hashes[key]))
	for f, v := range c.hashes[key] {
		out[f] = v
	}
	return out, nil
}

// HReplace swaps the whole hash under a single lock.
func (c *LocalCache) HReplace(_ context.Context, key string, fields map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(fields) == 0 {
		delete(c.hashes, key)
		return nil
	}
	h := make(map[string]string, len(fields))
	for f, v := range fields {
		h[f] = v
	}
	c.hashes[key] = h
	return nil
}

func (c *LocalCache) HDel(_ context.Context, key string, fields ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.hashes[key]
	if !ok {
		return nil
	}
	for _, f := range fields {
		delete(h, f)
	}
	if len(h) == 0 {
		delete(c.hashes, key)
	}
	return nil
}
