// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// The username is the unique, user-facing identifier (it's what people type
// at the login form). We still generate our own internal string ID (xid) so
// that record ownership is keyed by something that never appears in a URL or
// a form field. The UNIQUE constraint on username in the DB makes
// registration a create-if-absent operation.
//
// PasswordHash is a bcrypt hash — it embeds its own salt and cost, so a
// single TEXT column holds everything needed for verification. It is set
// once at registration and never updated. It is deliberately excluded from
// JSON output: no API response should ever carry it.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
