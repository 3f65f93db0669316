package repository

import (
	"context"
	"fmt"

	"github.com/locshare/locshare/internal/model"
)

// AppendRoutePoint inserts one route point.
// ON CONFLICT DO NOTHING on sample_id makes redelivered stream messages
// idempotent.
func (r *Repository) AppendRoutePoint(ctx context.Context, point *model.RoutePoint) error {
	query := `
		INSERT INTO route_points (id, sample_id, user_id, latitude, longitude, recorded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (sample_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		point.ID,
		point.SampleID,
		point.UserID,
		point.Latitude,
		point.Longitude,
		point.RecordedAt,
		point.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to append route point: %w", err)
	}

	return nil
}

// BulkAppendRoutePoints inserts a batch of route points in one round trip.
// Used by the ingest worker; idempotent on sample_id.
func (r *Repository) BulkAppendRoutePoints(ctx context.Context, points []*model.RoutePoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := make([]interface{}, 0, len(points)*7)
	placeholders := ""
	for i, p := range points {
		if i > 0 {
			placeholders += ", "
		}
		base := i * 7
		placeholders += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		batch = append(batch, p.ID, p.SampleID, p.UserID, p.Latitude, p.Longitude, p.RecordedAt, p.CreatedAt)
	}

	query := `
		INSERT INTO route_points (id, sample_id, user_id, latitude, longitude, recorded_at, created_at)
		VALUES ` + placeholders + `
		ON CONFLICT (sample_id) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, batch...); err != nil {
		return fmt.Errorf("failed to bulk append route points: %w", err)
	}

	return nil
}

// ClearRoute deletes all route points for a user in one statement and
// returns the number of points removed. Called on disconnect.
func (r *Repository) ClearRoute(ctx context.Context, userID string) (int64, error) {
	query := `DELETE FROM route_points WHERE user_id = $1`

	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear route: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ListRoute returns a user's full route ordered by insertion.
// ULID ids are time-sortable, so ordering by id preserves sample order.
func (r *Repository) ListRoute(ctx context.Context, userID string) (*model.Route, error) {
	query := `
		SELECT id, sample_id, user_id, latitude, longitude, recorded_at, created_at
		FROM route_points
		WHERE user_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list route: %w", err)
	}
	defer rows.Close()

	route := &model.Route{UserID: userID}
	for rows.Next() {
		var p model.RoutePoint
		err := rows.Scan(
			&p.ID,
			&p.SampleID,
			&p.UserID,
			&p.Latitude,
			&p.Longitude,
			&p.RecordedAt,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan route point: %w", err)
		}
		route.Points = append(route.Points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate route points: %w", err)
	}

	return route, nil
}
