package cache

import (
	"context"
	"fmt"
)

// Pub/sub channels for change notifications. Subscribers receive the
// affected user id and re-read full state; payloads never carry the
// changed data itself.
const (
	// ChannelPresenceChanged fires when any user's presence row changes
	// (position update, connect, disconnect, profile edit).
	ChannelPresenceChanged = "changes:presence"

	// ChannelRouteChanged fires when a user's route log changes
	// (points appended or route cleared).
	ChannelRouteChanged = "changes:route"
)

// NotifyPresenceChanged publishes a presence change for a user.
func (c *Cache) NotifyPresenceChanged(ctx context.Context, userID string) error {
	if err := c.client.Publish(ctx, ChannelPresenceChanged, userID).Err(); err != nil {
		return fmt.Errorf("failed to publish presence change: %w", err)
	}
	return nil
}

// NotifyRouteChanged publishes a route change for a user.
func (c *Cache) NotifyRouteChanged(ctx context.Context, userID string) error {
	if err := c.client.Publish(ctx, ChannelRouteChanged, userID).Err(); err != nil {
		return fmt.Errorf("failed to publish route change: %w", err)
	}
	return nil
}
