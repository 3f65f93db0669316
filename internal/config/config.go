// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache / streams (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Base URL used to build resolved photo references
	// (e.g., https://locshare.example.com)
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Directory for the local photo blob store
	PhotoDir string `env:"PHOTO_DIR" envDefault:"./data/photos"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Session lifetime (sliding TTL, refreshed on use)
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Rate limiting for the position publish endpoint.
	// Defaults sized for the 3-second sampling cadence with headroom.
	RateLimitSamplesEnabled bool `env:"RATE_LIMIT_SAMPLES_ENABLED" envDefault:"true"`
	RateLimitSamplesPerMin  int  `env:"RATE_LIMIT_SAMPLES_PER_MIN" envDefault:"60"`
	RateLimitSamplesBurst   int  `env:"RATE_LIMIT_SAMPLES_BURST" envDefault:"10"`

	// Rate limiting for auth endpoints (per IP, brute-force control)
	RateLimitLoginEnabled bool `env:"RATE_LIMIT_LOGIN_ENABLED" envDefault:"true"`
	RateLimitLoginRPS     int  `env:"RATE_LIMIT_LOGIN_RPS" envDefault:"5"`
	RateLimitLoginBurst   int  `env:"RATE_LIMIT_LOGIN_BURST" envDefault:"10"`

	// Ingest worker tuning
	IngestBatchSize    int           `env:"INGEST_BATCH_SIZE" envDefault:"500"`
	IngestBlockTimeout time.Duration `env:"INGEST_BLOCK_TIMEOUT" envDefault:"5s"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB; photo uploads use their own cap)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// Photo upload size limit in bytes (default 5MB)
	MaxPhotoSize int64 `env:"MAX_PHOTO_SIZE" envDefault:"5242880"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// TokenEnv returns the session token environment indicator.
func (c *Config) TokenEnv() string {
	if c.IsProduction() {
		return "live"
	}
	return "test"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
