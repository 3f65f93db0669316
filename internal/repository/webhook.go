package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/locshare/locshare/internal/model"
)

// Common errors for webhook endpoint operations.
var (
	ErrEndpointNotFound = errors.New("webhook endpoint not found")
)

// CreateWebhookEndpoint registers a presence-event receiver.
func (r *Repository) CreateWebhookEndpoint(ctx context.Context, endpoint *model.WebhookEndpoint) error {
	query := `
		INSERT INTO webhook_endpoints (id, owner_id, url, secret_hash, events, enabled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		endpoint.ID,
		endpoint.OwnerID,
		endpoint.URL,
		endpoint.SecretHash,
		pq.Array(endpoint.Events),
		endpoint.Enabled,
		endpoint.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create webhook endpoint: %w", err)
	}

	return nil
}

// ListEnabledEndpoints returns all enabled endpoints subscribed to an
// event type. Used by the dispatcher on connect/disconnect.
func (r *Repository) ListEnabledEndpoints(ctx context.Context, event string) ([]*model.WebhookEndpoint, error) {
	query := `
		SELECT id, owner_id, url, secret_hash, events, enabled, created_at, disabled_at
		FROM webhook_endpoints
		WHERE enabled = true AND $1 = ANY(events)
	`

	rows, err := r.pool.Query(ctx, query, event)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []*model.WebhookEndpoint
	for rows.Next() {
		ep, err := scanEndpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook endpoint: %w", err)
		}
		endpoints = append(endpoints, ep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate webhook endpoints: %w", err)
	}

	return endpoints, nil
}

// DisableWebhookEndpoint turns an endpoint off without deleting it.
func (r *Repository) DisableWebhookEndpoint(ctx context.Context, id, ownerID string) error {
	query := `
		UPDATE webhook_endpoints
		SET enabled = false, disabled_at = $3
		WHERE id = $1 AND owner_id = $2
	`

	tag, err := r.pool.Exec(ctx, query, id, ownerID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to disable webhook endpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEndpointNotFound
	}

	return nil
}

// RevokeEndpoint disables an endpoint regardless of owner. Used by the
// dispatcher when a receiver answers 410 Gone.
func (r *Repository) RevokeEndpoint(ctx context.Context, id string) error {
	query := `
		UPDATE webhook_endpoints
		SET enabled = false, disabled_at = $2
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to revoke webhook endpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEndpointNotFound
	}

	return nil
}

// scanEndpoint scans a webhook endpoint row.
func scanEndpoint(row pgx.Row) (*model.WebhookEndpoint, error) {
	var ep model.WebhookEndpoint
	var events pq.StringArray

	err := row.Scan(
		&ep.ID,
		&ep.OwnerID,
		&ep.URL,
		&ep.SecretHash,
		&events,
		&ep.Enabled,
		&ep.CreatedAt,
		&ep.DisabledAt,
	)
	if err != nil {
		return nil, err
	}

	ep.Events = events
	return &ep, nil
}
