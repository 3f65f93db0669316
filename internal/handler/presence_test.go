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

// Sample validation happens before the publisher is touched, so a
// service built on nil dependencies covers every rejection path.
func newPresenceHandler() *PresenceHandler {
	svc := service.NewPresenceService(nil, nil, nil, nil, nil)
	return NewPresenceHandler(svc, discardLogger())
}

func TestPresenceHandler_PublishPosition_InvalidSample(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "latitude out of range",
			body: `{"latitude":91.0,"longitude":0.0}`,
		},
		{
			name: "longitude out of range",
			body: `{"latitude":0.0,"longitude":-181.0}`,
		},
	}

	h := newPresenceHandler()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/presence/position", strings.NewReader(tt.body))
			req = req.WithContext(contextWithUser(req.Context(), "user-1"))
			rec := httptest.NewRecorder()

			h.PublishPosition(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}

			var response dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if response.Code != "INVALID_SAMPLE" {
				t.Errorf("expected code INVALID_SAMPLE, got %s", response.Code)
			}
		})
	}
}

func TestPresenceHandler_PublishPosition_MalformedBody(t *testing.T) {
	h := newPresenceHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/presence/position", strings.NewReader("{"))
	req = req.WithContext(contextWithUser(req.Context(), "user-1"))
	rec := httptest.NewRecorder()

	h.PublishPosition(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestPresenceHandler_GetRoute_MissingUserID(t *testing.T) {
	h := newPresenceHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/routes/", nil)
	rec := httptest.NewRecorder()

	h.GetRoute(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}
