package subscriber

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxIconBytes = 1 << 20

// IconResolver fetches a user's icon image from a photo reference.
type IconResolver interface {
	Resolve(ctx context.Context, photoRef string) ([]byte, error)
}

// HTTPIconResolver resolves photo references over HTTP.
type HTTPIconResolver struct {
	client *http.Client
}

// NewHTTPIconResolver creates a resolver with a bounded timeout.
func NewHTTPIconResolver() *HTTPIconResolver {
	return &HTTPIconResolver{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Resolve fetches the image at photoRef.
func (r *HTTPIconResolver) Resolve(ctx context.Context, photoRef string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoRef, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch icon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch icon: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIconBytes))
	if err != nil {
		return nil, fmt.Errorf("read icon: %w", err)
	}

	return data, nil
}
