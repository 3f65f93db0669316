package ingest

import (
	"errors"
	"fmt"
)

// Validation errors for location samples.
var (
	ErrMissingUserID     = errors.New("user id is required")
	ErrInvalidLatitude   = errors.New("latitude out of range")
	ErrInvalidLongitude  = errors.New("longitude out of range")
	ErrInvalidRecordedAt = errors.New("recorded_at must be positive")
)

// ValidateSample checks a sample before it enters the stream.
// Invalid samples are rejected at publish time so the worker only
// dead-letters messages that fail to parse, not ones that fail policy.
func ValidateSample(sample SamplePayload) error {
	if sample.UserID == "" {
		return ErrMissingUserID
	}
	if sample.Latitude < -90 || sample.Latitude > 90 {
		return fmt.Errorf("%w: %f", ErrInvalidLatitude, sample.Latitude)
	}
	if sample.Longitude < -180 || sample.Longitude > 180 {
		return fmt.Errorf("%w: %f", ErrInvalidLongitude, sample.Longitude)
	}
	if sample.RecordedAt <= 0 {
		return ErrInvalidRecordedAt
	}
	return nil
}
