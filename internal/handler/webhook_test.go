package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/locshare/locshare/internal/handler/dto"
	"github.com/locshare/locshare/internal/service"
)

// URL and event validation run before the endpoint is stored, so a
// service over a nil repository covers the rejection paths.
func newWebhookHandler() *WebhookHandler {
	return NewWebhookHandler(service.NewWebhookService(nil), discardLogger())
}

func TestWebhookHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed json",
			body:       "{",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_JSON",
		},
		{
			name:       "relative url",
			body:       `{"url":"/hooks/presence","events":["presence.connected"]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_URL",
		},
		{
			name:       "unsupported scheme",
			body:       `{"url":"ftp://example.com/hook","events":["presence.connected"]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_URL",
		},
		{
			name:       "no events",
			body:       `{"url":"https://example.com/hook","events":[]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "NO_EVENTS",
		},
		{
			name:       "unknown event",
			body:       `{"url":"https://example.com/hook","events":["presence.teleported"]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "UNKNOWN_EVENT",
		},
	}

	h := newWebhookHandler()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks", strings.NewReader(tt.body))
			req = req.WithContext(contextWithUser(req.Context(), "owner-1"))
			rec := httptest.NewRecorder()

			h.Create(rec, req)

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

func TestWebhookHandler_Disable_MissingID(t *testing.T) {
	h := newWebhookHandler()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/webhooks/", nil)
	req = req.WithContext(contextWithUser(req.Context(), "owner-1"))
	rec := httptest.NewRecorder()

	h.Disable(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}
