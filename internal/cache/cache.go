// Package cache holds the short-lived response cache for contact lists.
// Redis backs it in production; the in-process implementation exists for
// tests and for running without a redis instance.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache stores serialized payloads under string keys with a fixed TTL.
// Lookups are best effort: a miss or a backend error both read as "not
// cached" and the caller falls through to the repository.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
	Delete(ctx context.Context, key string)
}

// ListKey is the cache key for an owner's full (unfiltered) contact list.
// Search results are never cached; only this one key exists per owner, so
// write-path invalidation is a single delete.
func ListKey(ownerID string) string {
	return "contacts:list:v1:owner=" + ownerID
}

type memoryEntry struct {
	val []byte
	exp time.Time
}

// Memory is a TTL map cache.
type Memory struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]memoryEntry
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Memory{
		ttl: ttl,
		m:   make(map[string]memoryEntry),
	}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	now := time.Now()

	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

func (c *Memory) Set(_ context.Context, key string, val []byte) {
	c.mu.Lock()
	c.m[key] = memoryEntry{val: val, exp: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Memory) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}
