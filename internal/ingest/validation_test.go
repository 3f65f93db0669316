package ingest

import (
	"testing"
	"time"
)

func TestValidateSample(t *testing.T) {
	valid := SamplePayload{
		UserID:     "user-1",
		Latitude:   10.5,
		Longitude:  -74.1,
		RecordedAt: time.Now().UnixMilli(),
	}

	if err := ValidateSample(valid); err != nil {
		t.Fatalf("expected valid sample, got %v", err)
	}

	cases := []struct {
		name   string
		sample SamplePayload
	}{
		{"missing_user_id", SamplePayload{Latitude: 1, Longitude: 1, RecordedAt: 1}},
		{"latitude_too_high", SamplePayload{UserID: "u", Latitude: 90.01, Longitude: 1, RecordedAt: 1}},
		{"latitude_too_low", SamplePayload{UserID: "u", Latitude: -90.01, Longitude: 1, RecordedAt: 1}},
		{"longitude_too_high", SamplePayload{UserID: "u", Latitude: 1, Longitude: 180.01, RecordedAt: 1}},
		{"longitude_too_low", SamplePayload{UserID: "u", Latitude: 1, Longitude: -180.01, RecordedAt: 1}},
		{"missing_recorded_at", SamplePayload{UserID: "u", Latitude: 1, Longitude: 1}},
		{"negative_recorded_at", SamplePayload{UserID: "u", Latitude: 1, Longitude: 1, RecordedAt: -5}},
	}

	for _, tc := range cases {
		if err := ValidateSample(tc.sample); err == nil {
			t.Fatalf("expected error for %s", tc.name)
		}
	}
}

func TestValidateSample_Boundaries(t *testing.T) {
	t.Parallel()

	corners := []SamplePayload{
		{UserID: "u", Latitude: 90, Longitude: 180, RecordedAt: 1},
		{UserID: "u", Latitude: -90, Longitude: -180, RecordedAt: 1},
		{UserID: "u", Latitude: 0, Longitude: 0, RecordedAt: 1},
	}

	for _, s := range corners {
		if err := ValidateSample(s); err != nil {
			t.Errorf("ValidateSample(%+v) = %v, want nil", s, err)
		}
	}
}
