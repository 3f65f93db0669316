package model

import (
	"strconv"
	"time"
)

// PresenceRecord is one user's current location and connectivity flag.
// Coordinates are only meaningful while Connected is true; stale values
// may remain in the record after a disconnect and are filtered out by
// readers, not zeroed by writers.
type PresenceRecord struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Connected bool      `json:"connected"`
	PhotoRef  string    `json:"photo_ref,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Visible reports whether the record should appear in subscriber views.
func (p *PresenceRecord) Visible() bool {
	return p.Connected
}

// CachedPresence represents presence data stored in a Redis hash.
// Uses string types for Redis hash compatibility.
type CachedPresence struct {
	Name      string `redis:"name"`
	Latitude  string `redis:"latitude"`
	Longitude string `redis:"longitude"`
	Connected string `redis:"connected"` // "1" or "0"
	PhotoRef  string `redis:"photo_ref"`
	UpdatedAt string `redis:"updated_at"` // Unix timestamp
}

// ToPresence converts CachedPresence to the domain model.
func (c *CachedPresence) ToPresence(userID string) *PresenceRecord {
	rec := &PresenceRecord{
		UserID:    userID,
		Name:      c.Name,
		Connected: c.Connected == "1",
		PhotoRef:  c.PhotoRef,
	}

	if lat, err := strconv.ParseFloat(c.Latitude, 64); err == nil {
		rec.Latitude = lat
	}
	if lon, err := strconv.ParseFloat(c.Longitude, 64); err == nil {
		rec.Longitude = lon
	}
	if c.UpdatedAt != "" {
		if ts, err := strconv.ParseInt(c.UpdatedAt, 10, 64); err == nil {
			rec.UpdatedAt = time.Unix(ts, 0)
		}
	}

	return rec
}

// ToCachedPresence converts the domain model to its Redis hash form.
func (p *PresenceRecord) ToCachedPresence() *CachedPresence {
	return &CachedPresence{
		Name:      p.Name,
		Latitude:  strconv.FormatFloat(p.Latitude, 'f', -1, 64),
		Longitude: strconv.FormatFloat(p.Longitude, 'f', -1, 64),
		Connected: boolToString(p.Connected),
		PhotoRef:  p.PhotoRef,
		UpdatedAt: strconv.FormatInt(p.UpdatedAt.Unix(), 10),
	}
}

// boolToString converts boolean to "1" or "0".
func boolToString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
