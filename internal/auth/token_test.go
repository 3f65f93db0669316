package auth

import (
	"strings"
	"testing"
)

func TestGenerateSessionToken_Format(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken(EnvLive)
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}

	if !strings.HasPrefix(token.Plaintext, "ls_live_") {
		t.Errorf("Plaintext = %s, want ls_live_ prefix", token.Plaintext)
	}
	if !ValidateTokenFormat(token.Plaintext) {
		t.Errorf("generated token does not validate: %s", token.Plaintext)
	}
	if len(token.Prefix) != TokenPrefixLen {
		t.Errorf("Prefix length = %d, want %d", len(token.Prefix), TokenPrefixLen)
	}
	if token.CacheKey == "" {
		t.Error("CacheKey should not be empty")
	}
	if token.CacheKey != QuickHash(token.Plaintext) {
		t.Error("CacheKey should be QuickHash of plaintext")
	}
}

func TestGenerateSessionToken_UnknownEnvDefaultsToLive(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken("staging")
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	if !strings.HasPrefix(token.Plaintext, "ls_live_") {
		t.Errorf("Plaintext = %s, want ls_live_ prefix", token.Plaintext)
	}
}

func TestGenerateSessionToken_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateSessionToken(EnvTest)
		if err != nil {
			t.Fatalf("GenerateSessionToken: %v", err)
		}
		if seen[token.Plaintext] {
			t.Fatalf("duplicate token generated: %s", token.Plaintext)
		}
		seen[token.Plaintext] = true
	}
}

func TestParseSessionToken(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken(EnvTest)
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}

	parsed, err := ParseSessionToken(token.Plaintext)
	if err != nil {
		t.Fatalf("ParseSessionToken: %v", err)
	}

	if parsed.Env != EnvTest {
		t.Errorf("Env = %s, want %s", parsed.Env, EnvTest)
	}
	if parsed.Prefix != token.Prefix {
		t.Errorf("Prefix = %s, want %s", parsed.Prefix, token.Prefix)
	}
	if len(parsed.Secret) != TokenSecretLen {
		t.Errorf("Secret length = %d, want %d", len(parsed.Secret), TokenSecretLen)
	}
}

func TestParseSessionToken_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"wrong prefix", "pk_live_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b"},
		{"bad env", "ls_prod_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b"},
		{"short secret", "ls_live_abc123_4f8d2e1b"},
		{"uppercase hex", "ls_live_ABC123_4F8D2E1B9C7A5F3D2E1B9C7A5F3D2E1B"},
		{"missing parts", "ls_live_abc123"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := ParseSessionToken(tt.token); err == nil {
				t.Errorf("ParseSessionToken(%q) should fail", tt.token)
			}
			if ValidateTokenFormat(tt.token) {
				t.Errorf("ValidateTokenFormat(%q) should be false", tt.token)
			}
		})
	}
}
