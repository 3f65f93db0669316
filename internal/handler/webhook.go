package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/locshare/locshare/internal/auth"
	"github.com/locshare/locshare/internal/handler/dto"
	"github.com/locshare/locshare/internal/service"
)

// WebhookHandler manages presence-event webhook registrations.
type WebhookHandler struct {
	svc    *service.WebhookService
	logger *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(svc *service.WebhookService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/webhooks.
// The signing secret appears once in this response and is never
// retrievable again.
func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	var req dto.CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	out, err := h.svc.Register(r.Context(), ownerID, req.URL, req.Events)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("webhook_created",
		"endpoint_id", out.Endpoint.ID,
		"owner_id", ownerID,
	)

	writeJSON(w, http.StatusCreated, dto.ToWebhookResponse(out.Endpoint, out.Secret))
}

// Disable handles DELETE /api/v1/webhooks/{id}.
func (h *WebhookHandler) Disable(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Endpoint ID is required")
		return
	}

	if err := h.svc.Disable(r.Context(), id, ownerID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("webhook_disabled", "endpoint_id", id, "owner_id", ownerID)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps service errors to HTTP responses.
func (h *WebhookHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidWebhookURL):
		writeError(w, http.StatusBadRequest, "INVALID_URL", "Webhook URL must be absolute http(s)")
	case errors.Is(err, service.ErrNoEvents):
		writeError(w, http.StatusBadRequest, "NO_EVENTS", "At least one event type is required")
	case errors.Is(err, service.ErrUnknownEvent):
		writeError(w, http.StatusBadRequest, "UNKNOWN_EVENT", "Unknown event type")
	case errors.Is(err, service.ErrEndpointNotFound):
		writeError(w, http.StatusNotFound, "ENDPOINT_NOT_FOUND", "Webhook endpoint not found")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
