package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/locshare/locshare/internal/model"
)

// EndpointStore provides webhook endpoint lookup and revocation.
type EndpointStore interface {
	ListEnabledEndpoints(ctx context.Context, event string) ([]*model.WebhookEndpoint, error)
	RevokeEndpoint(ctx context.Context, id string) error
}

// Dispatcher sends presence events to registered endpoints.
// Delivery is best-effort and asynchronous: callers never block on or
// observe delivery failures.
type Dispatcher struct {
	store       EndpointStore
	client      *http.Client
	logger      *slog.Logger
	maxAttempts int

	wg sync.WaitGroup
}

// NewDispatcher creates an event dispatcher.
func NewDispatcher(store EndpointStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:       store,
		client:      NewHTTPClient(),
		logger:      logger.With("component", "notify.dispatcher"),
		maxAttempts: DefaultMaxAttempts,
	}
}

// SetMaxAttempts overrides the default delivery attempt cap.
func (d *Dispatcher) SetMaxAttempts(n int) {
	if n > 0 {
		d.maxAttempts = n
	}
}

// DispatchAsync fans an event out to all subscribed endpoints without
// blocking the caller.
func (d *Dispatcher) DispatchAsync(event model.PresenceEvent) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := d.dispatch(ctx, event); err != nil {
			d.logger.Warn("event dispatch failed",
				"event", event.Type,
				"user_id", event.UserID,
				"error", err,
			)
		}
	}()
}

// Shutdown waits for in-flight deliveries to finish.
// It implements server.ShutdownFunc.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		d.logger.Warn("dispatcher shutdown timed out with deliveries in flight")
		return ctx.Err()
	}
}

// dispatch delivers one event to every endpoint subscribed to it.
func (d *Dispatcher) dispatch(ctx context.Context, event model.PresenceEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	endpoints, err := d.store.ListEnabledEndpoints(ctx, event.Type)
	if err != nil {
		return fmt.Errorf("list endpoints: %w", err)
	}

	for _, ep := range endpoints {
		d.deliverWithRetry(ctx, ep, payload)
	}

	return nil
}

// deliverWithRetry attempts delivery with the backoff schedule.
func (d *Dispatcher) deliverWithRetry(ctx context.Context, ep *model.WebhookEndpoint, payload []byte) {
	deliveryID := uuid.NewString()

	for attempt := 0; ; attempt++ {
		gone, err := d.deliver(ctx, ep, payload, deliveryID)
		if err == nil {
			d.logger.Debug("event delivered",
				"endpoint_id", ep.ID,
				"delivery_id", deliveryID,
				"attempt", attempt+1,
			)
			return
		}

		if gone {
			// 410 Gone is the endpoint telling us to stop
			d.logger.Info("endpoint returned 410, disabling",
				"endpoint_id", ep.ID,
			)
			if err := d.store.RevokeEndpoint(ctx, ep.ID); err != nil {
				d.logger.Error("failed to disable endpoint",
					"endpoint_id", ep.ID,
					"error", err,
				)
			}
			return
		}

		if IsExhausted(attempt+1, d.maxAttempts) {
			d.logger.Warn("event delivery exhausted",
				"endpoint_id", ep.ID,
				"delivery_id", deliveryID,
				"attempts", attempt+1,
				"error", err,
			)
			return
		}

		timer := time.NewTimer(NextRetryDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// deliver sends one signed POST. The bool result reports 410 Gone.
func (d *Dispatcher) deliver(ctx context.Context, ep *model.WebhookEndpoint, payload []byte, deliveryID string) (bool, error) {
	timestamp := time.Now().Unix()
	signature := GenerateSignature(ep.SecretHash, timestamp, payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	setEventHeaders(req, signature, strconv.FormatInt(timestamp, 10), deliveryID)

	resp, err := d.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		return true, fmt.Errorf("endpoint gone")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return false, nil
}
