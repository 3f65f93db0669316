// Package main is the Locshare device agent: it logs in, publishes
// simulated location samples through the publisher state machine, and
// mirrors other users' presence through the subscriber view.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/gorilla/websocket"

	"github.com/locshare/locshare/internal/publisher"
	"github.com/locshare/locshare/internal/stream"
	"github.com/locshare/locshare/internal/subscriber"
)

type agentConfig struct {
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	Email      string `env:"AGENT_EMAIL,required"`
	Password   string `env:"AGENT_PASSWORD,required"`

	// Starting coordinates for the simulated walk
	StartLatitude  float64 `env:"START_LATITUDE" envDefault:"10.762622"`
	StartLongitude float64 `env:"START_LONGITUDE" envDefault:"106.660172"`

	// Step size in degrees per sample (~5m at the default latitude)
	StepDegrees float64 `env:"STEP_DEGREES" envDefault:"0.00005"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

func main() {
	cfg := &agentConfig{}
	if err := env.Parse(cfg); err != nil {
		slog.Error("failed to parse config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := newAPIClient(cfg.APIBaseURL)

	userID, err := api.login(ctx, cfg.Email, cfg.Password)
	if err != nil {
		logger.Error("login failed", "error", err)
		os.Exit(1)
	}
	logger.Info("logged_in", "user_id", userID)

	// Connect presence before sampling starts.
	if err := api.connect(ctx); err != nil {
		logger.Error("presence connect failed", "error", err)
		os.Exit(1)
	}

	// Subscriber: mirror other users' presence over WebSocket.
	sub := subscriber.New(userID, subscriber.NewHTTPIconResolver(), logger)
	go runSubscription(ctx, api, sub, logger)
	go reportView(ctx, sub, logger)

	// Publisher: simulated random walk fed through the state machine.
	source := &walkSource{
		lat:  cfg.StartLatitude,
		lon:  cfg.StartLongitude,
		step: cfg.StepDegrees,
	}
	pub := publisher.New(grantedPermission{}, source, api, logger)

	if err := pub.Start(ctx); err != nil {
		logger.Error("publisher start failed", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	// Stop disconnects presence and clears the route server-side; give
	// it a fresh context since ctx is already cancelled.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pub.Stop(shutdownCtx)
	sub.Wait()
}

func initLogger(cfg *agentConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// grantedPermission models a device where location access is available.
type grantedPermission struct{}

func (grantedPermission) RequestLocationPermission(ctx context.Context) (bool, error) {
	return true, nil
}

// walkSource simulates device movement as a random walk.
type walkSource struct {
	lat  float64
	lon  float64
	step float64
}

func (s *walkSource) Position(ctx context.Context) (publisher.Position, error) {
	s.lat += (rand.Float64() - 0.5) * 2 * s.step
	s.lon += (rand.Float64() - 0.5) * 2 * s.step
	return publisher.Position{Latitude: s.lat, Longitude: s.lon}, nil
}

// runSubscription keeps a WebSocket subscription open, feeding snapshot
// messages into the view. Reconnects with a flat delay until ctx ends.
func runSubscription(ctx context.Context, api *apiClient, sub *subscriber.Subscriber, logger *slog.Logger) {
	for ctx.Err() == nil {
		if err := api.subscribe(ctx, sub); err != nil && ctx.Err() == nil {
			logger.Warn("subscription dropped", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(3 * time.Second):
		}
	}
}

// reportView periodically logs a summary of the merged view.
func reportView(ctx context.Context, sub *subscriber.Subscriber, logger *slog.Logger) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			view := sub.View()
			logger.Info("view",
				"connected_users", len(view.Markers),
				"renderable_paths", len(view.Paths),
			)
		}
	}
}

// apiClient is a minimal client for the Locshare HTTP API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *apiClient) login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login: status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}

	c.token = out.Token
	return out.User.ID, nil
}

func (c *apiClient) connect(ctx context.Context) error {
	return c.post(ctx, "/api/v1/presence/connect", nil)
}

// PublishPosition implements publisher.Store.
func (c *apiClient) PublishPosition(ctx context.Context, lat, lon float64, recordedAt time.Time) error {
	body := map[string]any{
		"latitude":    lat,
		"longitude":   lon,
		"recorded_at": recordedAt,
	}
	return c.post(ctx, "/api/v1/presence/position", body)
}

// SetConnected implements publisher.Store. Only disconnect flows
// through the publisher; connect happens before sampling starts.
func (c *apiClient) SetConnected(ctx context.Context, connected bool) error {
	if connected {
		return c.post(ctx, "/api/v1/presence/connect", nil)
	}
	return c.post(ctx, "/api/v1/presence/disconnect", nil)
}

// ClearRoute implements publisher.Store. The disconnect endpoint
// already clears the route server-side, so this is a no-op.
func (c *apiClient) ClearRoute(ctx context.Context) error {
	return nil
}

func (c *apiClient) post(ctx context.Context, path string, body any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: status %d", path, resp.StatusCode)
	}
	return nil
}

// subscribe opens the WebSocket stream and applies messages until the
// connection drops or ctx ends.
func (c *apiClient) subscribe(ctx context.Context, sub *subscriber.Subscriber) error {
	wsURL, err := toWebSocketURL(c.baseURL + "/api/v1/subscribe")
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial: status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Close the socket when ctx ends so ReadJSON unblocks.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var msg stream.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		sub.Apply(msg)
	}
}

func toWebSocketURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	return parsed.String(), nil
}
