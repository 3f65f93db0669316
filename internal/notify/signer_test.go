package notify

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestGenerateSignature_Deterministic(t *testing.T) {
	t.Parallel()

	secret := "test-secret"
	timestamp := int64(1700000000)
	payload := []byte(`{"type":"presence.connected","user_id":"u1"}`)

	sig1 := GenerateSignature(secret, timestamp, payload)
	sig2 := GenerateSignature(secret, timestamp, payload)

	if sig1 != sig2 {
		t.Error("same inputs should produce same signature")
	}
	if len(sig1) != 64 {
		t.Errorf("signature length = %d, want 64 hex chars", len(sig1))
	}
}

func TestGenerateSignature_DifferentInputs(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"user_id":"u1"}`)
	base := GenerateSignature("secret", 1700000000, payload)

	if GenerateSignature("other", 1700000000, payload) == base {
		t.Error("different secrets should produce different signatures")
	}
	if GenerateSignature("secret", 1700000001, payload) == base {
		t.Error("different timestamps should produce different signatures")
	}
	if GenerateSignature("secret", 1700000000, []byte(`{"user_id":"u2"}`)) == base {
		t.Error("different payloads should produce different signatures")
	}
}

func TestValidateSignature_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := "test-secret"
	timestamp := time.Now().Unix()
	payload := []byte(`{"type":"presence.disconnected"}`)

	sig := GenerateSignature(secret, timestamp, payload)

	if err := ValidateSignature(secret, sig, timestamp, payload, DefaultReplayWindow); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestValidateSignature_WrongSecret(t *testing.T) {
	t.Parallel()

	timestamp := time.Now().Unix()
	payload := []byte(`{}`)
	sig := GenerateSignature("secret-a", timestamp, payload)

	err := ValidateSignature("secret-b", sig, timestamp, payload, DefaultReplayWindow)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestValidateSignature_ReplayWindow(t *testing.T) {
	t.Parallel()

	secret := "test-secret"
	payload := []byte(`{}`)

	// Timestamp outside the window, in both directions
	old := time.Now().Add(-10 * time.Minute).Unix()
	sig := GenerateSignature(secret, old, payload)
	if err := ValidateSignature(secret, sig, old, payload, DefaultReplayWindow); !errors.Is(err, ErrReplayWindowExceeded) {
		t.Errorf("stale timestamp: err = %v, want ErrReplayWindowExceeded", err)
	}

	future := time.Now().Add(10 * time.Minute).Unix()
	sig = GenerateSignature(secret, future, payload)
	if err := ValidateSignature(secret, sig, future, payload, DefaultReplayWindow); !errors.Is(err, ErrReplayWindowExceeded) {
		t.Errorf("future timestamp: err = %v, want ErrReplayWindowExceeded", err)
	}
}

func TestHashSecret(t *testing.T) {
	t.Parallel()

	hash := HashSecret("my-secret")
	if len(hash) != 64 {
		t.Errorf("hash length = %d, want 64", len(hash))
	}
	if hash != HashSecret("my-secret") {
		t.Error("hash should be deterministic")
	}
	if hash == HashSecret("other-secret") {
		t.Error("different secrets should hash differently")
	}
	if strings.Contains(hash, "my-secret") {
		t.Error("hash must not contain the plaintext")
	}
}

func TestGenerateSecret(t *testing.T) {
	t.Parallel()

	s1, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}
	s2, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}

	if len(s1) != 64 {
		t.Errorf("secret length = %d, want 64", len(s1))
	}
	if s1 == s2 {
		t.Error("secrets should be unique")
	}
}
