package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/locshare/locshare/internal/model"
)

const (
	// sessionCachePrefix is the Redis key prefix for session storage.
	sessionCachePrefix = "session:"
)

// CachedSession represents a session stored in Redis.
type CachedSession struct {
	UserID      string `json:"user_id"`
	TokenPrefix string `json:"token_prefix"`
}

// GetSession retrieves a session by cache key and refreshes its TTL
// (sliding expiry). Returns nil on a miss.
func (c *Cache) GetSession(ctx context.Context, cacheKey string, ttl time.Duration) (*model.SessionContext, error) {
	key := sessionCachePrefix + cacheKey

	data, err := c.client.GetEx(ctx, key, ttl).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached CachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.SessionContext{
		UserID:      cached.UserID,
		TokenPrefix: cached.TokenPrefix,
	}, nil
}

// SetSession stores a session with the given TTL.
func (c *Cache) SetSession(ctx context.Context, cacheKey string, session *model.SessionContext, ttl time.Duration) error {
	key := sessionCachePrefix + cacheKey

	cached := CachedSession{
		UserID:      session.UserID,
		TokenPrefix: session.TokenPrefix,
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// DeleteSession revokes a session. Used on logout.
func (c *Cache) DeleteSession(ctx context.Context, cacheKey string) error {
	key := sessionCachePrefix + cacheKey
	return c.client.Del(ctx, key).Err()
}
