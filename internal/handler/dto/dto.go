// Package dto defines request and response types for the HTTP API.
package dto

import (
	"time"

	"github.com/locshare/locshare/internal/model"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// RegisterRequest is the body for POST /api/v1/auth/register.
type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	Identification string `json:"identification"`
	Phone          string `json:"phone"`
}

// LoginRequest is the body for POST /api/v1/auth/login.
// Latitude and Longitude, when both are set, seed the caller's presence
// so the map shows them immediately after signing in.
type LoginRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// SessionResponse carries the issued session token.
// Returned by both register and login.
type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Identification string    `json:"identification,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToUserResponse converts a user model to its public view.
func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Identification: u.Identification,
		Phone:          u.Phone,
		CreatedAt:      u.CreatedAt,
	}
}

// ProfileRequest is the body for PATCH /api/v1/profile.
type ProfileRequest struct {
	Name           string `json:"name"`
	Identification string `json:"identification"`
	Phone          string `json:"phone"`
}

// PasswordRequest is the body for POST /api/v1/auth/password.
type PasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PhotoResponse carries the resolved photo URL after upload.
type PhotoResponse struct {
	PhotoRef string `json:"photo_ref"`
}

// PositionRequest is the body for POST /api/v1/presence/position.
type PositionRequest struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

// PresenceResponse is one connected user in a presence listing.
type PresenceResponse struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Connected bool      `json:"connected"`
	PhotoRef  string    `json:"photo_ref,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToPresenceResponse converts a presence record.
func ToPresenceResponse(rec *model.PresenceRecord) PresenceResponse {
	return PresenceResponse{
		UserID:    rec.UserID,
		Name:      rec.Name,
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
		Connected: rec.Connected,
		PhotoRef:  rec.PhotoRef,
		UpdatedAt: rec.UpdatedAt,
	}
}

// ToPresenceListResponse converts a presence snapshot.
func ToPresenceListResponse(records []*model.PresenceRecord) []PresenceResponse {
	out := make([]PresenceResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, ToPresenceResponse(rec))
	}
	return out
}

// RoutePointResponse is one point in a route listing.
type RoutePointResponse struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

// RouteResponse is a user's full route in insertion order.
type RouteResponse struct {
	UserID string               `json:"user_id"`
	Points []RoutePointResponse `json:"points"`
}

// ToRouteResponse converts a route model.
func ToRouteResponse(route *model.Route) RouteResponse {
	points := make([]RoutePointResponse, 0, len(route.Points))
	for _, p := range route.Points {
		points = append(points, RoutePointResponse{
			Latitude:   p.Latitude,
			Longitude:  p.Longitude,
			RecordedAt: p.RecordedAt,
		})
	}
	return RouteResponse{UserID: route.UserID, Points: points}
}

// CreateWebhookRequest is the body for POST /api/v1/webhooks.
type CreateWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

// WebhookResponse is the view of a registered endpoint.
// Secret is present only in the creation response.
type WebhookResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	Enabled   bool      `json:"enabled"`
	Secret    string    `json:"secret,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToWebhookResponse converts an endpoint model.
func ToWebhookResponse(ep *model.WebhookEndpoint, secret string) WebhookResponse {
	return WebhookResponse{
		ID:        ep.ID,
		URL:       ep.URL,
		Events:    ep.Events,
		Enabled:   ep.Enabled,
		Secret:    secret,
		CreatedAt: ep.CreatedAt,
	}
}
