package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/locshare/locshare/internal/auth"
	"github.com/locshare/locshare/internal/handler/dto"
	"github.com/locshare/locshare/internal/model"
	"github.com/locshare/locshare/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func contextWithUser(ctx context.Context, userID string) context.Context {
	return auth.ContextWithSession(ctx, &model.SessionContext{UserID: userID})
}

// Input validation runs before any storage access, so a service built
// on nil dependencies is enough to exercise the rejection paths.
func newAuthHandler() *AuthHandler {
	svc := service.NewAccountService(nil, nil, nil, "http://localhost:8080", time.Hour, "test", 1<<20)
	return NewAuthHandler(svc, service.NewPresenceService(nil, nil, nil, nil, nil), discardLogger())
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed json",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_JSON",
		},
		{
			name:       "invalid email",
			body:       `{"email":"not-an-email","password":"longenough","name":"Alice"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_EMAIL",
		},
		{
			name:       "short password",
			body:       `{"email":"alice@example.com","password":"short","name":"Alice"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "WEAK_PASSWORD",
		},
	}

	h := newAuthHandler()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Register(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var response dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if response.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, response.Code)
			}
		})
	}
}

func TestAuthHandler_Login_MalformedBody(t *testing.T) {
	h := newAuthHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{"))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}
