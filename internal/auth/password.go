// Package auth provides password hashing and session token handling.
//
// Passwords are hashed with bcrypt. bcrypt is deliberately slow (the work
// factor is tunable via cost), generates a random salt per hash, and embeds
// salt + cost in its output — one TEXT column stores everything needed to
// verify later. Never store passwords with a fast hash.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly 250ms on a
// modern server — negligible at login, brutal for an offline attacker.
const defaultCost = 12

// dummyHash is a valid bcrypt hash of a random string nobody knows.
// Login verifies against this when the username doesn't exist, so the
// unknown-user path costs the same as a wrong-password path and response
// timing doesn't reveal whether an account exists.
const dummyHash = "$2a$12$0Xg1RaUcZSkBcQ6FZR0QOe1c0mJlkWqvH4cSt0C9PMA7fMRiCO26m"

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct rather than free functions so the cost can be injected in
// tests — cost 4 makes a test suite run in milliseconds instead of seconds.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// newPasswordServiceWithCost is the unexported helper used by tests in this
// package.
func newPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom (low)
// cost for tests in other packages. Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// Returns an error if the plaintext is longer than 72 bytes — bcrypt would
// silently truncate it, so we reject explicitly instead.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on a match. The comparison is constant-time internally.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// VerifyDummy burns one bcrypt comparison against a throwaway hash.
// Call it on the unknown-user branch of login so both failure paths take
// the same time. It always reports a mismatch.
func (p *PasswordService) VerifyDummy(plaintext string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(plaintext))
}
