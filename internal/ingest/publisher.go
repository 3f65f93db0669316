// Package ingest provides location sample capture and processing.
// Samples flow through a Redis stream so the HTTP publish path stays
// fire-and-forget: a dropped sample is logged, never surfaced.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/locshare/locshare/internal/metrics"
)

const (
	// StreamKey is the Redis stream for location samples.
	StreamKey = "stream:location_samples"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:location_samples:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// SamplePayload is the compressed sample format for the Redis stream.
type SamplePayload struct {
	UserID     string  `json:"u"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lon"`
	RecordedAt int64   `json:"t"` // Unix milliseconds
}

// Publisher enqueues location samples to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new sample publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "ingest.publisher"),
		metrics: recorder,
	}
}

// Publish adds a sample to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, sample SamplePayload) (string, error) {
	data, err := json.Marshal(sample)
	if err != nil {
		return "", fmt.Errorf("marshal sample: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true, // ~MAXLEN for performance
		ID:     "*",  // Auto-generate ID
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()

	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned (fire-and-forget).
func (p *Publisher) PublishAsync(sample SamplePayload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, sample)
		if err != nil {
			p.logger.Warn("failed to publish location sample",
				"user_id", sample.UserID,
				"error", err,
			)
			p.metrics.IncSamplePublished("dropped")
			return
		}

		p.logger.Debug("location sample published",
			"user_id", sample.UserID,
			"stream_id", streamID,
		)
		p.metrics.IncSamplePublished("success")
	}()
}
