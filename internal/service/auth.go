// Package service contains the business logic layer: validation, business
// rules, and orchestration. Handlers parse HTTP and delegate here; this
// package knows nothing about HTTP and returns domain errors (apperror),
// which the handler layer maps to status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/traction/internal/apperror"
	"github.com/sakif/traction/internal/auth"
	"github.com/sakif/traction/internal/model"
	"github.com/sakif/traction/internal/repository"
)

const (
	MaxUsernameLength = 50
	MinPasswordLength = 8
)

// AuthService handles registration, login, and session issuance.
//
// Dependencies (injected via NewAuthService):
//   - users     repository.UserRepository → the credential store
//   - tokens    *auth.TokenService        → signs session tokens
//   - passwords *auth.PasswordService     → bcrypt hashing/verification
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user and the issued session token so the handler
// can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account.
//
// The password is hashed before anything touches storage; the plaintext
// never leaves this function. A taken username comes back as
// apperror.ErrConflict — the existing account's hash is untouched (the
// repository's create-if-absent guarantees that), and the caller gets an
// honest "already exists" instead of a silent no-op.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
	}

	created, err := s.users.CreateIfAbsent(ctx, user)
	if err != nil {
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("registering user: %w", err)
	}
	if !created {
		return nil, apperror.Conflict("user", username)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies the credentials and issues a session token.
//
// Both failure modes — unknown username and wrong password — return the
// exact same apperror.ErrUnauthorized, and the unknown-user branch still
// burns a bcrypt comparison (VerifyDummy) so response timing doesn't give
// the difference away either.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.VerifyDummy(password)
			return nil, apperror.Unauthorized("invalid username or password")
		}
		s.logger.Error("login lookup failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("logging in: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid username or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing session for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{
		User:  user,
		Token: token,
	}, nil
}

// GetUserByID returns the user for the given internal ID. Used by /api/me
// after the middleware has validated the session and extracted the ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}
