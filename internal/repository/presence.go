package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/locshare/locshare/internal/model"
)

// UpdatePosition overwrites the current coordinates for a user.
// Last-write-wins: no versioning, the most recently committed write
// replaces all prior values.
func (r *Repository) UpdatePosition(ctx context.Context, userID string, lat, lon float64) error {
	query := `
		UPDATE users
		SET latitude = $2, longitude = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, userID, lat, lon, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// SetConnected toggles the visibility flag. Setting false does not
// clear coordinates; stale values may remain in the row and readers
// filter on connected instead.
func (r *Repository) SetConnected(ctx context.Context, userID string, connected bool) error {
	query := `
		UPDATE users
		SET connected = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, userID, connected, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set connected: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// SetPhotoRef writes the resolved photo URL for a user.
func (r *Repository) SetPhotoRef(ctx context.Context, userID, photoRef string) error {
	query := `
		UPDATE users
		SET photo_ref = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, userID, photoRef, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set photo ref: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// GetPresence retrieves one user's presence record.
func (r *Repository) GetPresence(ctx context.Context, userID string) (*model.PresenceRecord, error) {
	query := `
		SELECT id, name, latitude, longitude, connected, COALESCE(photo_ref, ''), updated_at
		FROM users
		WHERE id = $1
	`

	rec, err := scanPresence(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}

	return rec, nil
}

// ListConnectedPresence returns the presence records of all connected
// users. This is the full-state snapshot delivered to subscribers.
func (r *Repository) ListConnectedPresence(ctx context.Context) ([]*model.PresenceRecord, error) {
	query := `
		SELECT id, name, latitude, longitude, connected, COALESCE(photo_ref, ''), updated_at
		FROM users
		WHERE connected = true
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list connected presence: %w", err)
	}
	defer rows.Close()

	var records []*model.PresenceRecord
	for rows.Next() {
		rec, err := scanPresence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan presence row: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate presence rows: %w", err)
	}

	return records, nil
}

// scanPresence scans a presence projection of a users row.
func scanPresence(row pgx.Row) (*model.PresenceRecord, error) {
	var rec model.PresenceRecord
	err := row.Scan(
		&rec.UserID,
		&rec.Name,
		&rec.Latitude,
		&rec.Longitude,
		&rec.Connected,
		&rec.PhotoRef,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
