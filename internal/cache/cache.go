package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	goCache "github.com/patrickmn/go-cache"
)

// DefaultExpiration is the fallback expiration for cache entries.
const DefaultExpiration = 5 * time.Minute

// DefaultCleanupInterval is how often expired items are removed.
const DefaultCleanupInterval = 10 * time.Minute

// Cache defines the interface for caching operations.
type Cache interface {
	// Get retrieves a value; the bool reports whether the key was found.
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set adds a value with the given expiration. Zero means DefaultExpiration.
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)

	// Delete removes a key.
	Delete(ctx context.Context, key string)

	// DeleteByPrefix removes all keys with the given prefix.
	DeleteByPrefix(ctx context.Context, prefix string)
}

// Cache key prefixes per entity type.
const (
	PrefixDashboard = "dashboard:v1:"
)

// GenerateKey creates a cache key from a prefix and a set of parameters.
func GenerateKey(prefix string, params ...interface{}) string {
	parts := make([]string, len(params)+1)
	parts[0] = prefix
	for i, param := range params {
		parts[i+1] = fmt.Sprintf("%v", param)
	}
	return strings.Join(parts, ":")
}

type inMemoryCache struct {
	cache *goCache.Cache
}

// NewInMemoryCache creates a process-local cache backed by go-cache.
func NewInMemoryCache() Cache {
	return &inMemoryCache{
		cache: goCache.New(DefaultExpiration, DefaultCleanupInterval),
	}
}

func (c *inMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	return c.cache.Get(key)
}

func (c *inMemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	c.cache.Set(key, value, expiration)
}

func (c *inMemoryCache) Delete(_ context.Context, key string) {
	c.cache.Delete(key)
}

func (c *inMemoryCache) DeleteByPrefix(_ context.Context, prefix string) {
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
}
