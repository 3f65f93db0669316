package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/locshare/locshare/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 730730

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops and recreates all tables. Route points and webhook
// endpoints reference users, so the users down migration cascades.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	// Down migrations in reverse order, then all up migrations.
	steps := []string{
		"000003_webhook_endpoints.down.sql",
		"000002_route_points.down.sql",
		"000001_users.down.sql",
		"000001_users.up.sql",
		"000002_route_points.up.sql",
		"000003_webhook_endpoints.up.sql",
	}

	for _, name := range steps {
		path := filepath.Join(root, "migrations", name)
		sql, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a test user with sensible defaults.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	return &model.User{
		ID:           UniqueID("user"),
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$dGVzdHNhbHQ$dGVzdGhhc2g",
		Name:         "Test User",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestRoutePoint creates a route point owned by the given user.
func NewTestRoutePoint(t testing.TB, userID string, lat, lon float64) *model.RoutePoint {
	t.Helper()
	now := time.Now().UTC()
	return &model.RoutePoint{
		ID:         UniqueID("point"),
		SampleID:   UniqueID("sample"),
		UserID:     userID,
		Latitude:   lat,
		Longitude:  lon,
		RecordedAt: now,
		CreatedAt:  now,
	}
}

// NewTestWebhookEndpoint creates an enabled endpoint subscribed to both
// presence event types.
func NewTestWebhookEndpoint(t testing.TB, ownerID string) *model.WebhookEndpoint {
	t.Helper()
	return &model.WebhookEndpoint{
		ID:         UniqueID("endpoint"),
		OwnerID:    ownerID,
		URL:        "https://example.com/hooks/presence",
		SecretHash: "test-secret-hash",
		Events:     []string{model.EventPresenceConnected, model.EventPresenceDisconnected},
		Enabled:    true,
		CreatedAt:  time.Now().UTC(),
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
