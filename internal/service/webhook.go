package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/locshare/locshare/internal/model"
	"github.com/locshare/locshare/internal/notify"
	"github.com/locshare/locshare/internal/repository"
)

// Webhook service errors.
var (
	ErrInvalidWebhookURL = errors.New("invalid webhook URL")
	ErrNoEvents          = errors.New("at least one event type is required")
	ErrUnknownEvent      = errors.New("unknown event type")
	ErrEndpointNotFound  = errors.New("webhook endpoint not found")
)

var knownEvents = map[string]bool{
	model.EventPresenceConnected:    true,
	model.EventPresenceDisconnected: true,
}

// WebhookService manages presence-event endpoint registrations.
type WebhookService struct {
	repo *repository.Repository
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(repo *repository.Repository) *WebhookService {
	return &WebhookService{repo: repo}
}

// RegisterOutput carries the created endpoint and its plaintext secret.
// The secret is shown exactly once.
type RegisterOutput struct {
	Endpoint *model.WebhookEndpoint
	Secret   string
}

// Register creates a webhook endpoint for presence events.
func (s *WebhookService) Register(ctx context.Context, ownerID, targetURL string, events []string) (*RegisterOutput, error) {
	if err := validateWebhookURL(targetURL); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNoEvents
	}
	for _, ev := range events {
		if !knownEvents[ev] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, ev)
		}
	}

	secret, err := notify.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	endpoint := &model.WebhookEndpoint{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		URL:        targetURL,
		SecretHash: notify.HashSecret(secret),
		Events:     events,
		Enabled:    true,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.CreateWebhookEndpoint(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("create endpoint: %w", err)
	}

	return &RegisterOutput{Endpoint: endpoint, Secret: secret}, nil
}

// Disable turns off an endpoint owned by the caller.
func (s *WebhookService) Disable(ctx context.Context, id, ownerID string) error {
	if err := s.repo.DisableWebhookEndpoint(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrEndpointNotFound) {
			return ErrEndpointNotFound
		}
		return err
	}
	return nil
}

// validateWebhookURL requires an absolute http(s) URL with a host.
func validateWebhookURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidWebhookURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidWebhookURL
	}
	if parsed.Host == "" {
		return ErrInvalidWebhookURL
	}
	return nil
}
