package model

import "time"

// Presence event types delivered to webhook endpoints.
const (
	EventPresenceConnected    = "presence.connected"
	EventPresenceDisconnected = "presence.disconnected"
)

// WebhookEndpoint is a registered receiver for presence events.
// SecretHash stores SHA256 of the signing secret; the plaintext is shown
// once at registration and never persisted.
type WebhookEndpoint struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	URL        string     `json:"url"`
	SecretHash string     `json:"-"`
	Events     []string   `json:"events"`
	Enabled    bool       `json:"enabled"`
	CreatedAt  time.Time  `json:"created_at"`
	DisabledAt *time.Time `json:"disabled_at,omitempty"`
}

// WantsEvent reports whether the endpoint subscribed to an event type.
func (e *WebhookEndpoint) WantsEvent(event string) bool {
	if !e.Enabled {
		return false
	}
	for _, ev := range e.Events {
		if ev == event {
			return true
		}
	}
	return false
}

// PresenceEvent is the payload delivered to webhook endpoints when a
// user's connectivity flag flips.
type PresenceEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	OccurredAt time.Time `json:"occurred_at"`
}
