package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/locshare/locshare/internal/handler/dto"
	"github.com/locshare/locshare/internal/service"
)

// AuthHandler handles registration and session endpoints.
type AuthHandler struct {
	svc      *service.AccountService
	presence *service.PresenceService
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. The presence service is
// used to seed presence on login and flip it off on logout.
func NewAuthHandler(svc *service.AccountService, presence *service.PresenceService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:      svc,
		presence: presence,
		logger:   logger,
	}
}

// Register handles POST /api/v1/auth/register.
// A session token is issued immediately so the client does not need a
// follow-up login.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	out, err := h.svc.Register(r.Context(), service.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		Name:           req.Name,
		Identification: req.Identification,
		Phone:          req.Phone,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_registered", "user_id", out.User.ID)

	writeJSON(w, http.StatusCreated, dto.SessionResponse{
		Token: out.Token,
		User:  dto.ToUserResponse(out.User),
	})
}

// Login handles POST /api/v1/auth/login.
// When the client reports its current position, presence is marked
// connected and seeded with that position, so the user appears on the
// map right away instead of waiting for the first sample.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	out, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if req.Latitude != nil && req.Longitude != nil {
		if err := h.presence.Connect(r.Context(), out.User.ID); err != nil {
			h.logger.Warn("login_connect_failed", "user_id", out.User.ID, "error", err)
		} else if err := h.presence.PublishSample(out.User.ID, *req.Latitude, *req.Longitude, time.Now().UTC()); err != nil {
			h.logger.Warn("login_seed_position_failed", "user_id", out.User.ID, "error", err)
		}
	}

	h.logger.Info("user_logged_in", "user_id", out.User.ID)

	writeJSON(w, http.StatusOK, dto.SessionResponse{
		Token: out.Token,
		User:  dto.ToUserResponse(out.User),
	})
}

// Logout handles POST /api/v1/auth/logout.
// Revokes the presented token and flips presence off so the user
// disappears from other clients' maps. Idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := ""
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		token = strings.TrimPrefix(header, "Bearer ")
	}

	userID, err := h.svc.Logout(r.Context(), token)
	if err != nil {
		h.logger.Error("logout_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	if userID != "" {
		if err := h.presence.Disconnect(r.Context(), userID); err != nil {
			h.logger.Warn("logout_disconnect_failed", "user_id", userID, "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps service errors to HTTP responses.
func (h *AuthHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address")
	case errors.Is(err, service.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 8 characters")
	case errors.Is(err, service.ErrEmailExists):
		writeError(w, http.StatusConflict, "DUPLICATE_EMAIL", "Email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
