package notify

import (
	"testing"
	"time"
)

func TestNextRetryDelay_WithinJitterBounds(t *testing.T) {
	t.Parallel()

	expected := []time.Duration{
		1 * time.Second,
		5 * time.Second,
		30 * time.Second,
	}

	for attempt, base := range expected {
		for i := 0; i < 50; i++ {
			delay := NextRetryDelay(attempt)
			min := time.Duration(float64(base) * (1 - JitterFactor))
			max := time.Duration(float64(base) * (1 + JitterFactor))
			if delay < min || delay > max {
				t.Errorf("attempt %d: delay %v outside [%v, %v]", attempt, delay, min, max)
			}
		}
	}
}

func TestNextRetryDelay_ClampsAttempt(t *testing.T) {
	t.Parallel()

	// Beyond the schedule the last delay repeats
	last := 30 * time.Second
	delay := NextRetryDelay(100)
	min := time.Duration(float64(last) * (1 - JitterFactor))
	max := time.Duration(float64(last) * (1 + JitterFactor))
	if delay < min || delay > max {
		t.Errorf("clamped delay %v outside [%v, %v]", delay, min, max)
	}

	// Negative attempts behave like the first
	delay = NextRetryDelay(-1)
	if delay > 2*time.Second {
		t.Errorf("negative attempt delay = %v, want ~1s", delay)
	}
}

func TestIsExhausted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempts int
		max      int
		want     bool
	}{
		{0, 3, false},
		{2, 3, false},
		{3, 3, true},
		{4, 3, true},
	}

	for _, tt := range tests {
		if got := IsExhausted(tt.attempts, tt.max); got != tt.want {
			t.Errorf("IsExhausted(%d, %d) = %v, want %v", tt.attempts, tt.max, got, tt.want)
		}
	}
}
