// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage is the one implementation; tests
// substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/traction/internal/model"
)

// ListOptions controls ordering and truncation of a record listing.
//
// OrderByField, when set, sorts descending by that record field (newest
// first for date fields). When empty, records come back in creation order.
// Limit <= 0 means no limit.
type ListOptions struct {
	OrderByField string
	Limit        int
}

// UserRepository is the credential store: username → user with password hash.
type UserRepository interface {
	// CreateIfAbsent inserts the user unless the username is already taken.
	// Returns created=false (and no error) on a duplicate username; the
	// existing user's hash is never overwritten.
	CreateIfAbsent(ctx context.Context, user *model.User) (created bool, err error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// RecordRepository stores typed records linked to their owning user.
type RecordRepository interface {
	// Create writes one record owned by record.OwnerID, assigning ID and
	// timestamps. The owner must exist.
	Create(ctx context.Context, record *model.Record) error
	// List returns the owner's records of the given kind. A user with no
	// such records gets an empty slice, never an error.
	List(ctx context.Context, ownerID string, kind model.Kind, opts ListOptions) ([]model.Record, error)
	// UpdateStatus sets the status field of the record with the given ID,
	// scoped to owner and kind. One atomic write; no match is ErrNotFound.
	UpdateStatus(ctx context.Context, ownerID string, kind model.Kind, recordID, status string) error
}
