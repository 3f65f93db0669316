package handler

import (
	"log/slog"
	"net/http"

	"github.com/locshare/locshare/internal/auth"
	"github.com/locshare/locshare/internal/stream"
)

// SubscribeHandler upgrades authenticated requests to WebSocket
// subscriptions on the presence/route stream.
type SubscribeHandler struct {
	hub    *stream.Hub
	logger *slog.Logger
}

// NewSubscribeHandler creates a new SubscribeHandler.
func NewSubscribeHandler(hub *stream.Hub, logger *slog.Logger) *SubscribeHandler {
	return &SubscribeHandler{
		hub:    hub,
		logger: logger,
	}
}

// Subscribe handles GET /api/v1/subscribe.
// On success the connection leaves HTTP; all further traffic is the
// WebSocket snapshot stream.
func (h *SubscribeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	h.hub.ServeWS(w, r, userID)
}
