// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered account with its profile fields.
// Profile fields are mutable only by the owning user.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Name           string    `json:"name"`
	Identification string    `json:"identification"`
	Phone          string    `json:"phone"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Profile holds the user-editable subset of User.
type Profile struct {
	Name           string `json:"name"`
	Identification string `json:"identification"`
	Phone          string `json:"phone"`
}

// SessionContext holds the authenticated session for a request.
// This is injected into the request context by the session middleware.
type SessionContext struct {
	UserID      string
	TokenPrefix string
}
