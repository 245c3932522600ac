package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session token.
const SessionCookie = "session"

// sessionLifetime is how long an issued session stays valid. There is no
// server-side session table — the signed token is the whole session — so
// "logout everywhere" is achieved by rotating the signing secret, which
// invalidates every outstanding token at once.
const sessionLifetime = 7 * 24 * time.Hour

// TokenService signs and validates session tokens.
//
// Tokens are JWTs signed with HMAC-SHA256. The server holds one secret,
// used for both signing and verifying. The token carries the user's
// internal ID in the "sub" claim and a random "jti" so two logins in the
// same second still produce distinct tokens.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: SESSION_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the token payload. jwt.RegisteredClaims provides the standard
// fields (Subject, ExpiresAt, IssuedAt, ID/jti, Issuer).
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given userID.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, sessionLifetime)
}

// GenerateWithDuration creates a token with a custom expiry.
// Used in tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    "traction",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a session token string and returns the
// userID it was issued for.
//
// The checks: signature intact, not expired, issuer matches, and the
// algorithm is HS256. Pinning the algorithm with jwt.WithValidMethods
// prevents algorithm-confusion attacks (a token claiming "none" or an
// asymmetric method is rejected before any verification happens).
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer("traction"),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: session expired")
		}
		return "", fmt.Errorf("auth: invalid session token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid session claims")
	}

	userID := c.Subject
	if userID == "" {
		return "", fmt.Errorf("auth: session token has no subject")
	}

	return userID, nil
}
