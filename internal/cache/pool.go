// Package cache holds the short-lived substitution pool cache shared across
// generation requests. Expiry is checked on read against a caller-supplied
// clock; nothing refreshes in the background.
package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/misterclayt0n/mesocoach/internal/models"
)

const (
	DefaultTTL  = 5 * time.Minute
	DefaultSize = 64
)

type entry struct {
	pool     []models.Exercise
	storedAt time.Time
}

// PoolCache maps a pool key (intent + equipment) to the eligible exercises.
type PoolCache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, entry]
	ttl time.Duration
}

func NewPoolCache(size int, ttl time.Duration) (*PoolCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("Failed to create pool cache: %w", err)
	}
	return &PoolCache{lru: c, ttl: ttl}, nil
}

// Get returns the cached pool if it is not older than the TTL at now.
func (c *PoolCache) Get(key string, now time.Time) ([]models.Exercise, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if now.Sub(e.storedAt) > c.ttl {
		c.lru.Remove(key)
		return nil, false
	}
	return append([]models.Exercise(nil), e.pool...), true
}

func (c *PoolCache) Put(key string, pool []models.Exercise, now time.Time) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, entry{pool: append([]models.Exercise(nil), pool...), storedAt: now})
}

// GetOrLoad serves from cache or calls load and stores its result.
func (c *PoolCache) GetOrLoad(key string, now time.Time, load func() []models.Exercise) []models.Exercise {
	if pool, ok := c.Get(key, now); ok {
		return pool
	}
	pool := load()
	c.Put(key, pool, now)
	return pool
}

func (c *PoolCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
