package auth

import (
	"strings"
	"testing"
	"time"
)

// newTestTokenService creates a TokenService with a fixed secret so tests
// are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Fatal("NewTokenService() should reject a secret under 16 characters")
	}
}

func TestGenerateValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("user-abc123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if token == "" {
		t.Fatal("Generate() returned empty token")
	}

	userID, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if userID != "user-abc123" {
		t.Errorf("Validate() userID = %q, want %q", userID, "user-abc123")
	}
}

func TestGenerate_TokensAreUnique(t *testing.T) {
	ts := newTestTokenService(t)

	// The jti claim makes two tokens for the same user distinct even when
	// issued within the same second.
	token1, _ := ts.Generate("user-abc123")
	token2, _ := ts.Generate("user-abc123")

	if token1 == token2 {
		t.Error("Generate() produced identical tokens for two logins")
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateWithDuration("user-abc123", -1*time.Minute)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	if _, err := ts.Validate(token); err == nil {
		t.Fatal("Validate() should reject an expired token")
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService("a-completely-different-secret!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, _ := ts.Generate("user-abc123")

	// Rotating the secret invalidates every outstanding session.
	if _, err := other.Validate(token); err == nil {
		t.Fatal("Validate() should reject a token signed with a different secret")
	}
}

func TestValidate_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, _ := ts.Generate("user-abc123")

	// Flip a character in the payload segment.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token does not have 3 segments: %q", token)
	}
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := ts.Validate(tampered); err == nil {
		t.Fatal("Validate() should reject a tampered token")
	}
}

func TestValidate_Garbage(t *testing.T) {
	ts := newTestTokenService(t)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := ts.Validate(input); err == nil {
			t.Errorf("Validate(%q) should fail", input)
		}
	}
}
