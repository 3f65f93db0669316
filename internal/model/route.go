package model

import "time"

// RoutePoint is a single timestamped location sample in a user's route log.
// The ID is a ULID, so lexicographic order matches insertion order; path
// rendering relies on that ordering.
type RoutePoint struct {
	ID         string    `json:"id"`        // ULID (time-sortable)
	SampleID   string    `json:"sample_id"` // Idempotency key (Redis stream ID)
	UserID     string    `json:"user_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Route is one user's full ordered point set.
type Route struct {
	UserID string        `json:"user_id"`
	Points []*RoutePoint `json:"points"`
}

// Renderable reports whether the route can be drawn as a path overlay.
// A path needs at least two points.
func (r *Route) Renderable() bool {
	return len(r.Points) > 1
}
