package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/traction/internal/apperror"
	"github.com/sakif/traction/internal/model"
	"github.com/sakif/traction/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateIfAbsent inserts a new user unless the username is already taken.
//
// ON CONFLICT DO NOTHING gives us create-if-absent in a single atomic
// statement: a concurrent duplicate registration cannot overwrite the first
// account's hash, and RowsAffected tells us which side of the race we were
// on. No error-string sniffing, no read-then-write window.
func (db *DB) CreateIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(username) DO NOTHING`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: creating user %q: %w", user.Username, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// GetByUsername retrieves a user by username.
// Returns apperror.ErrNotFound if no such user exists — the caller (login)
// is responsible for not leaking that distinction to the client.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, updated_at
		 FROM users WHERE username = ?`,
		username,
	).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}

	return &u, nil
}

// GetByID retrieves a user by internal ID.
// This is the lookup behind /api/me, where the ID comes out of a validated
// session token.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}
