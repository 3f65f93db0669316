package stream

import (
	"testing"
	"time"

	"github.com/locshare/locshare/internal/model"
)

func TestNewPresenceSnapshot_SkipsDisconnected(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	records := []*model.PresenceRecord{
		{UserID: "alice", Name: "Alice", Latitude: 10, Longitude: 20, Connected: true, UpdatedAt: now},
		// Stale coordinates on a disconnected row must never surface
		{UserID: "bob", Name: "Bob", Latitude: 50, Longitude: 60, Connected: false, UpdatedAt: now},
		{UserID: "carol", Name: "Carol", Latitude: 1, Longitude: 2, Connected: true, UpdatedAt: now},
	}

	msg := NewPresenceSnapshot(records)

	if msg.Type != TypePresenceSnapshot {
		t.Errorf("Type = %q, want %q", msg.Type, TypePresenceSnapshot)
	}
	if len(msg.Users) != 2 {
		t.Fatalf("Users = %d, want 2", len(msg.Users))
	}
	for _, u := range msg.Users {
		if u.UserID == "bob" {
			t.Error("disconnected user must not appear in snapshot")
		}
	}
}

func TestNewPresenceSnapshot_Empty(t *testing.T) {
	t.Parallel()

	msg := NewPresenceSnapshot(nil)
	if msg.Users == nil {
		t.Error("Users should be an empty slice, not nil, so JSON encodes []")
	}
	if len(msg.Users) != 0 {
		t.Errorf("Users = %d, want 0", len(msg.Users))
	}
}

func TestNewRouteSnapshot(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	route := &model.Route{
		UserID: "alice",
		Points: []*model.RoutePoint{
			{ID: "01A", UserID: "alice", Latitude: 10.0, Longitude: 20.0, RecordedAt: now},
			{ID: "01B", UserID: "alice", Latitude: 10.1, Longitude: 20.1, RecordedAt: now.Add(3 * time.Second)},
		},
	}

	msg := NewRouteSnapshot(route)

	if msg.Type != TypeRouteSnapshot {
		t.Errorf("Type = %q, want %q", msg.Type, TypeRouteSnapshot)
	}
	if msg.UserID != "alice" {
		t.Errorf("UserID = %q, want alice", msg.UserID)
	}
	if len(msg.Points) != 2 {
		t.Fatalf("Points = %d, want 2", len(msg.Points))
	}
	// Order preserved: the snapshot is the route in insertion order
	if msg.Points[0].Latitude != 10.0 || msg.Points[1].Latitude != 10.1 {
		t.Error("points out of order")
	}
}
