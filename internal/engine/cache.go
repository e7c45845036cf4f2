package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type cacheEntry struct {
	value     map[string]any
	expiresAt time.Time
}

// CachedClient wraps a Client with an in-memory TTL cache over structured
// completions. Identical prompts within the TTL hit the cache, which also
// makes repeated pipeline runs deterministic for the same input.
type CachedClient struct {
	inner      Client
	ttl        time.Duration
	maxEntries int

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCachedClient wraps inner with a structured-response cache.
func NewCachedClient(inner Client, ttl time.Duration, maxEntries int) *CachedClient {
	if maxEntries <= 0 {
		maxEntries = 512
	}
	return &CachedClient{
		inner:      inner,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]cacheEntry),
	}
}

// Generate implements Client. Plain text completions are not cached.
func (c *CachedClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.inner.Generate(ctx, prompt)
}

// GenerateStructured implements Client.
func (c *CachedClient) GenerateStructured(ctx context.Context, prompt string) (map[string]any, error) {
	key := cacheKey(prompt)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	value, err := c.inner.GenerateStructured(ctx, prompt)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if len(c.entries) >= c.maxEntries {
		c.evictExpiredLocked()
	}
	if len(c.entries) < c.maxEntries {
		c.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(c.ttl)}
	}
	c.mu.Unlock()

	return value, nil
}

// HealthCheck implements Client.
func (c *CachedClient) HealthCheck(ctx context.Context) error {
	return c.inner.HealthCheck(ctx)
}

// ModelInfo implements Client.
func (c *CachedClient) ModelInfo() ModelInfo {
	return c.inner.ModelInfo()
}

func (c *CachedClient) evictExpiredLocked() {
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

func cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
