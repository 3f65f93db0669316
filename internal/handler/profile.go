package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/locshare/locshare/internal/auth"
	"github.com/locshare/locshare/internal/blob"
	"github.com/locshare/locshare/internal/handler/dto"
	"github.com/locshare/locshare/internal/model"
	"github.com/locshare/locshare/internal/service"
)

// ProfileHandler handles profile endpoints.
type ProfileHandler struct {
	svc    *service.AccountService
	logger *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc *service.AccountService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		svc:    svc,
		logger: logger,
	}
}

// Get handles GET /api/v1/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	user, err := h.svc.GetUser(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// Update handles PATCH /api/v1/profile.
// Saving identical data is accepted and changes nothing.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req dto.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	profile := model.Profile{
		Name:           req.Name,
		Identification: req.Identification,
		Phone:          req.Phone,
	}
	if err := h.svc.UpdateProfile(r.Context(), userID, profile); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("profile_updated", "user_id", userID)

	user, err := h.svc.GetUser(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// ChangePassword handles POST /api/v1/auth/password.
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req dto.PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.svc.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("password_changed", "user_id", userID)

	w.WriteHeader(http.StatusNoContent)
}

// UploadPhoto handles POST /api/v1/profile/photo.
// The body is the raw image; the response carries the resolved URL.
func (h *ProfileHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	photoURL, err := h.svc.AttachPhoto(r.Context(), userID, r.Body)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("photo_uploaded", "user_id", userID)

	writeJSON(w, http.StatusOK, dto.PhotoResponse{PhotoRef: photoURL})
}

// ServePhoto handles GET /photos/{userID}.jpg.
// Photos are public once a user is sharing; URLs circulate in presence
// snapshots.
func (h *ProfileHandler) ServePhoto(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	photo, err := h.svc.OpenPhoto(userID)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			NotFound(w, r)
			return
		}
		h.logger.Error("photo_read_failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}
	defer photo.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = io.Copy(w, photo)
}

// handleServiceError maps service errors to HTTP responses.
func (h *ProfileHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrNameRequired):
		writeError(w, http.StatusBadRequest, "NAME_REQUIRED", "Name is required")
	case errors.Is(err, service.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 8 characters")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Current password is incorrect")
	case errors.Is(err, service.ErrPhotoTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "PHOTO_TOO_LARGE", "Photo exceeds size limit")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
