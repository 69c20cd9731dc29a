package acc

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache stores an access token until it expires. Implementations
// must be safe for concurrent use.
type TokenCache interface {
	Get(ctx context.Context) (string, bool)
	Put(ctx context.Context, token string, ttl time.Duration)
}

// MemoryTokenCache keeps the token in process memory. It is the default
// when no shared cache is configured.
type MemoryTokenCache struct {
	mu     sync.RWMutex
	token  string
	expiry time.Time
}

// NewMemoryTokenCache returns an empty in-process cache.
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{}
}

func (c *MemoryTokenCache) Get(ctx context.Context) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" || time.Now().After(c.expiry) {
		return "", false
	}
	return c.token, true
}

func (c *MemoryTokenCache) Put(ctx context.Context, token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiry = time.Now().Add(ttl)
}

const redisTokenKey = "acc:takeoff:access_token"

// RedisTokenCache shares the token across instances through redis. A
// redis error degrades to a cache miss; the client then just fetches a
// fresh token.
type RedisTokenCache struct {
	rdb *redis.Client
}

// NewRedisTokenCache wraps an existing redis client.
func NewRedisTokenCache(rdb *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{rdb: rdb}
}

func (c *RedisTokenCache) Get(ctx context.Context) (string, bool) {
	token, err := c.rdb.Get(ctx, redisTokenKey).Result()
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

func (c *RedisTokenCache) Put(ctx context.Context, token string, ttl time.Duration) {
	c.rdb.Set(ctx, redisTokenKey, token, ttl)
}
