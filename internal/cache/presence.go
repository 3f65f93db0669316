package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/locshare/locshare/internal/model"
)

// Cache key prefixes and TTLs.
const (
	presenceKeyPrefix = "presence:"

	// DefaultPresenceTTL bounds how long a stale mirror entry can
	// outlive its Postgres row. The mirror is rewritten on every
	// position update while a user is connected.
	DefaultPresenceTTL = 10 * time.Minute
)

// SetPresence mirrors a presence record into Redis.
// The mirror lets the subscription hub assemble snapshots without a
// database round trip per notification.
func (c *Cache) SetPresence(ctx context.Context, rec *model.PresenceRecord) error {
	key := presenceKeyPrefix + rec.UserID
	cached := rec.ToCachedPresence()

	fields := map[string]any{
		"name":       cached.Name,
		"latitude":   cached.Latitude,
		"longitude":  cached.Longitude,
		"connected":  cached.Connected,
		"updated_at": cached.UpdatedAt,
	}
	if cached.PhotoRef != "" {
		fields["photo_ref"] = cached.PhotoRef
	}

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, DefaultPresenceTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache presence: %w", err)
	}

	return nil
}

// GetPresence reads one mirrored presence record.
// Returns nil on a miss; callers fall back to Postgres.
func (c *Cache) GetPresence(ctx context.Context, userID string) (*model.PresenceRecord, error) {
	key := presenceKeyPrefix + userID

	result, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, nil
	}

	cached := &model.CachedPresence{
		Name:      result["name"],
		Latitude:  result["latitude"],
		Longitude: result["longitude"],
		Connected: result["connected"],
		PhotoRef:  result["photo_ref"],
		UpdatedAt: result["updated_at"],
	}

	return cached.ToPresence(userID), nil
}

// DeletePresence removes a mirrored record. Used when a user is
// deleted, not on disconnect: a disconnected record stays mirrored
// with connected="0" so the stale-coordinate contract is observable.
func (c *Cache) DeletePresence(ctx context.Context, userID string) error {
	key := presenceKeyPrefix + userID
	return c.client.Del(ctx, key).Err()
}
