package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/locshare/locshare/internal/auth"
	"github.com/locshare/locshare/internal/handler/dto"
	"github.com/locshare/locshare/internal/ingest"
	"github.com/locshare/locshare/internal/service"
)

// PresenceHandler handles presence and route endpoints.
type PresenceHandler struct {
	svc    *service.PresenceService
	logger *slog.Logger
}

// NewPresenceHandler creates a new PresenceHandler.
func NewPresenceHandler(svc *service.PresenceService, logger *slog.Logger) *PresenceHandler {
	return &PresenceHandler{
		svc:    svc,
		logger: logger,
	}
}

// Connect handles POST /api/v1/presence/connect.
func (h *PresenceHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	if err := h.svc.Connect(r.Context(), userID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("presence_connected", "user_id", userID)

	w.WriteHeader(http.StatusNoContent)
}

// Disconnect handles POST /api/v1/presence/disconnect.
// Also clears the user's route log.
func (h *PresenceHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	if err := h.svc.Disconnect(r.Context(), userID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("presence_disconnected", "user_id", userID)

	w.WriteHeader(http.StatusNoContent)
}

// PublishPosition handles POST /api/v1/presence/position.
// Returns 202: the sample is accepted for processing, not yet visible.
func (h *PresenceHandler) PublishPosition(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req dto.PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	recordedAt := req.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	if err := h.svc.PublishSample(userID, req.Latitude, req.Longitude, recordedAt); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// List handles GET /api/v1/presence.
// Returns the full connected set, the same state subscribers receive.
func (h *PresenceHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.Snapshot(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPresenceListResponse(records))
}

// GetRoute handles GET /api/v1/routes/{userID}.
func (h *PresenceHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "User ID is required")
		return
	}

	route, err := h.svc.GetRoute(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToRouteResponse(route))
}

// handleServiceError maps service errors to HTTP responses.
func (h *PresenceHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, ingest.ErrMissingUserID),
		errors.Is(err, ingest.ErrInvalidLatitude),
		errors.Is(err, ingest.ErrInvalidLongitude),
		errors.Is(err, ingest.ErrInvalidRecordedAt):
		writeError(w, http.StatusBadRequest, "INVALID_SAMPLE", "Invalid location sample")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
