package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/locshare/locshare/internal/cache"
	"github.com/locshare/locshare/internal/ingest"
	"github.com/locshare/locshare/internal/metrics"
	"github.com/locshare/locshare/internal/model"
	"github.com/locshare/locshare/internal/notify"
	"github.com/locshare/locshare/internal/repository"
)

// PresenceService orchestrates connect/disconnect and sample intake.
type PresenceService struct {
	repo       *repository.Repository
	cache      *cache.Cache
	publisher  *ingest.Publisher
	dispatcher *notify.Dispatcher
	metrics    metrics.Recorder
}

// NewPresenceService creates a new PresenceService.
func NewPresenceService(repo *repository.Repository, c *cache.Cache, publisher *ingest.Publisher, dispatcher *notify.Dispatcher, recorder metrics.Recorder) *PresenceService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PresenceService{
		repo:       repo,
		cache:      c,
		publisher:  publisher,
		dispatcher: dispatcher,
		metrics:    recorder,
	}
}

// Connect marks a user visible to subscribers.
// Idempotent: connecting while connected changes nothing.
func (s *PresenceService) Connect(ctx context.Context, userID string) error {
	if err := s.repo.SetConnected(ctx, userID, true); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set connected: %w", err)
	}

	rec := s.syncAndNotify(ctx, userID)
	s.metrics.IncPresenceConnected()
	s.dispatchEvent(model.EventPresenceConnected, userID, rec)

	return nil
}

// Disconnect hides a user and clears their route log.
// Coordinates are left in place; readers filter on the connected flag,
// so the stale values are unobservable until the next connect.
func (s *PresenceService) Disconnect(ctx context.Context, userID string) error {
	if err := s.repo.SetConnected(ctx, userID, false); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set disconnected: %w", err)
	}

	if _, err := s.repo.ClearRoute(ctx, userID); err != nil {
		return fmt.Errorf("clear route: %w", err)
	}
	_ = s.cache.NotifyRouteChanged(ctx, userID)

	rec := s.syncAndNotify(ctx, userID)
	s.metrics.IncPresenceDisconnected()
	s.dispatchEvent(model.EventPresenceDisconnected, userID, rec)

	return nil
}

// PublishSample validates a location sample and enqueues it.
// The enqueue is fire-and-forget; acceptance means the sample was
// handed off, not that it was persisted.
func (s *PresenceService) PublishSample(userID string, lat, lon float64, recordedAt time.Time) error {
	sample := ingest.SamplePayload{
		UserID:     userID,
		Latitude:   lat,
		Longitude:  lon,
		RecordedAt: recordedAt.UnixMilli(),
	}
	if err := ingest.ValidateSample(sample); err != nil {
		return err
	}

	s.publisher.PublishAsync(sample)
	return nil
}

// Snapshot returns the presence records of all connected users.
func (s *PresenceService) Snapshot(ctx context.Context) ([]*model.PresenceRecord, error) {
	return s.repo.ListConnectedPresence(ctx)
}

// GetPresence returns one user's presence, mirror-first.
func (s *PresenceService) GetPresence(ctx context.Context, userID string) (*model.PresenceRecord, error) {
	rec, err := s.cache.GetPresence(ctx, userID)
	if err == nil && rec != nil {
		return rec, nil
	}

	rec, err = s.repo.GetPresence(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	_ = s.cache.SetPresence(ctx, rec)
	return rec, nil
}

// GetRoute returns a user's full route log in insertion order.
func (s *PresenceService) GetRoute(ctx context.Context, userID string) (*model.Route, error) {
	return s.repo.ListRoute(ctx, userID)
}

// syncAndNotify refreshes the mirror and tells subscribers to re-read.
func (s *PresenceService) syncAndNotify(ctx context.Context, userID string) *model.PresenceRecord {
	rec, err := s.repo.GetPresence(ctx, userID)
	if err != nil {
		_ = s.cache.NotifyPresenceChanged(ctx, userID)
		return nil
	}
	_ = s.cache.SetPresence(ctx, rec)
	_ = s.cache.NotifyPresenceChanged(ctx, userID)
	return rec
}

// dispatchEvent sends a presence event to webhook endpoints.
func (s *PresenceService) dispatchEvent(eventType, userID string, rec *model.PresenceRecord) {
	if s.dispatcher == nil {
		return
	}

	event := model.PresenceEvent{
		Type:       eventType,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
	if rec != nil {
		event.Name = rec.Name
		if rec.Connected {
			event.Latitude = rec.Latitude
			event.Longitude = rec.Longitude
		}
	}

	s.dispatcher.DispatchAsync(event)
}
