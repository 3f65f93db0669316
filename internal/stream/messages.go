// Package stream fans out presence and route snapshots to WebSocket
// subscribers. Change notifications arrive over Redis pub/sub carrying
// only the affected user id; the hub re-reads full state and pushes
// complete snapshots, never deltas.
package stream

import (
	"time"

	"github.com/locshare/locshare/internal/model"
)

// Message types sent to subscribers.
const (
	TypePresenceSnapshot = "presence_snapshot"
	TypeRouteSnapshot    = "route_snapshot"
)

// PresenceEntry is one connected user in a presence snapshot.
type PresenceEntry struct {
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	PhotoRef  string  `json:"photo_ref,omitempty"`
}

// RouteEntry is one point in a route snapshot.
type RouteEntry struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Message is the envelope pushed to subscribers. A presence snapshot
// carries the complete connected set; a route snapshot carries one
// user's complete route. Receivers replace prior state wholesale.
type Message struct {
	Type   string          `json:"type"`
	Users  []PresenceEntry `json:"users,omitempty"`
	UserID string          `json:"user_id,omitempty"`
	Points []RouteEntry    `json:"points,omitempty"`
}

// NewPresenceSnapshot builds a presence snapshot message from records.
// Disconnected records are skipped even if present; their coordinates
// may be stale and must not reach subscribers.
func NewPresenceSnapshot(records []*model.PresenceRecord) Message {
	users := make([]PresenceEntry, 0, len(records))
	for _, rec := range records {
		if !rec.Visible() {
			continue
		}
		users = append(users, PresenceEntry{
			UserID:    rec.UserID,
			Name:      rec.Name,
			Latitude:  rec.Latitude,
			Longitude: rec.Longitude,
			PhotoRef:  rec.PhotoRef,
		})
	}
	return Message{Type: TypePresenceSnapshot, Users: users}
}

// NewRouteSnapshot builds a route snapshot message for one user.
func NewRouteSnapshot(route *model.Route) Message {
	points := make([]RouteEntry, 0, len(route.Points))
	for _, p := range route.Points {
		points = append(points, RouteEntry{
			Latitude:   p.Latitude,
			Longitude:  p.Longitude,
			RecordedAt: p.RecordedAt,
		})
	}
	return Message{Type: TypeRouteSnapshot, UserID: route.UserID, Points: points}
}
