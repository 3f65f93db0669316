package model

import (
	"testing"
	"time"
)

func TestPresenceRecord_ToCachedPresence(t *testing.T) {
	t.Parallel()

	rec := &PresenceRecord{
		UserID:    "user-1",
		Name:      "Ana",
		Latitude:  10.5,
		Longitude: -74.25,
		Connected: true,
		PhotoRef:  "http://localhost:8080/photos/user-1.jpg",
		UpdatedAt: time.Unix(1700000000, 0),
	}

	cached := rec.ToCachedPresence()

	if cached.Latitude != "10.5" {
		t.Errorf("Latitude = %s, want 10.5", cached.Latitude)
	}
	if cached.Longitude != "-74.25" {
		t.Errorf("Longitude = %s, want -74.25", cached.Longitude)
	}
	if cached.Connected != "1" {
		t.Errorf("Connected = %s, want 1", cached.Connected)
	}
	if cached.UpdatedAt != "1700000000" {
		t.Errorf("UpdatedAt = %s, want 1700000000", cached.UpdatedAt)
	}
}

func TestCachedPresence_ToPresence(t *testing.T) {
	t.Parallel()

	cached := &CachedPresence{
		Name:      "Ana",
		Latitude:  "10.5",
		Longitude: "-74.25",
		Connected: "1",
		PhotoRef:  "http://localhost:8080/photos/user-1.jpg",
		UpdatedAt: "1700000000",
	}

	rec := cached.ToPresence("user-1")

	if rec.UserID != "user-1" {
		t.Errorf("UserID = %s, want user-1", rec.UserID)
	}
	if rec.Latitude != 10.5 {
		t.Errorf("Latitude = %f, want 10.5", rec.Latitude)
	}
	if rec.Longitude != -74.25 {
		t.Errorf("Longitude = %f, want -74.25", rec.Longitude)
	}
	if !rec.Connected {
		t.Error("Connected should be true")
	}
	if rec.UpdatedAt.Unix() != 1700000000 {
		t.Errorf("UpdatedAt Unix = %d, want 1700000000", rec.UpdatedAt.Unix())
	}
}

func TestCachedPresence_ToPresence_InvalidNumbers(t *testing.T) {
	t.Parallel()

	cached := &CachedPresence{
		Name:      "Ana",
		Latitude:  "not-a-number",
		Longitude: "",
		Connected: "0",
		UpdatedAt: "garbage",
	}

	// Should not panic; invalid fields fall back to zero values.
	rec := cached.ToPresence("user-1")

	if rec.Latitude != 0 || rec.Longitude != 0 {
		t.Errorf("coordinates = (%f, %f), want (0, 0)", rec.Latitude, rec.Longitude)
	}
	if rec.Connected {
		t.Error("Connected should be false")
	}
}

func TestPresenceRecord_Visible(t *testing.T) {
	t.Parallel()

	// Stale coordinates on a disconnected record must not make it visible.
	stale := &PresenceRecord{UserID: "user-1", Latitude: 10, Longitude: 20, Connected: false}
	if stale.Visible() {
		t.Error("disconnected record should not be visible")
	}

	connected := &PresenceRecord{UserID: "user-2", Connected: true}
	if !connected.Visible() {
		t.Error("connected record should be visible")
	}
}

func TestRoute_Renderable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		points int
		want   bool
	}{
		{"empty", 0, false},
		{"single point", 1, false},
		{"two points", 2, true},
		{"many points", 10, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			route := &Route{UserID: "user-1"}
			for i := 0; i < tt.points; i++ {
				route.Points = append(route.Points, &RoutePoint{UserID: "user-1"})
			}

			if got := route.Renderable(); got != tt.want {
				t.Errorf("Renderable() with %d points = %v, want %v", tt.points, got, tt.want)
			}
		})
	}
}

func TestWebhookEndpoint_WantsEvent(t *testing.T) {
	t.Parallel()

	endpoint := &WebhookEndpoint{
		Enabled: true,
		Events:  []string{EventPresenceConnected},
	}

	if !endpoint.WantsEvent(EventPresenceConnected) {
		t.Error("expected subscribed event to match")
	}
	if endpoint.WantsEvent(EventPresenceDisconnected) {
		t.Error("unsubscribed event should not match")
	}

	endpoint.Enabled = false
	if endpoint.WantsEvent(EventPresenceConnected) {
		t.Error("disabled endpoint should not receive events")
	}
}
