package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/traction/internal/apperror"
	"github.com/sakif/traction/internal/model"
	"github.com/sakif/traction/internal/repository"
)

// compile-time check that *DB implements repository.RecordRepository
var _ repository.RecordRepository = (*DB)(nil)

// Create inserts one record owned by record.OwnerID.
//
// The ID is generated here (xid — 20 chars, URL-safe, sortable by creation
// time) and written back into the caller's struct along with the
// timestamps, so the handler can return the full record including its ID.
//
// The user_id foreign key enforces the ownership invariant: a record can
// only ever point at an existing user. A session-derived owner ID should
// always exist, so a FK violation here means the invariant broke upstream —
// we translate it to ErrNotFound for the owner and let the service log it
// loudly.
func (db *DB) Create(ctx context.Context, record *model.Record) error {
	record.ID = xid.New().String()

	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	fields, err := json.Marshal(record.Fields)
	if err != nil {
		return fmt.Errorf("sqlite: encoding %s fields: %w", record.Kind, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO records (id, user_id, kind, fields, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.OwnerID,
		record.Kind,
		string(fields),
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint") {
			return apperror.NotFound("user", record.OwnerID)
		}
		return fmt.Errorf("sqlite: creating %s record: %w", record.Kind, err)
	}

	return nil
}

// List returns the owner's records of one kind.
//
// With OrderByField set, rows sort descending by that JSON field — the
// json_extract path is passed as a bind parameter ("$.date"), not spliced
// into the SQL, so a field name can't inject anything. Without it, rows
// come back in creation order; (created_at, id) is the tie-break since xids
// are themselves time-ordered.
//
// An owner with no records of the kind gets an empty slice, never an error.
func (db *DB) List(ctx context.Context, ownerID string, kind model.Kind, opts repository.ListOptions) ([]model.Record, error) {
	query := `SELECT id, user_id, kind, fields, created_at, updated_at
		 FROM records WHERE user_id = ? AND kind = ?`
	args := []any{ownerID, string(kind)}

	if opts.OrderByField != "" {
		query += ` ORDER BY json_extract(fields, ?) DESC`
		args = append(args, "$."+opts.OrderByField)
	} else {
		query += ` ORDER BY created_at ASC, id ASC`
	}

	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s records: %w", kind, err)
	}
	// rows holds a pool connection until closed — the defer keeps the
	// scoped-acquisition discipline on every exit path.
	defer rows.Close()

	records := make([]model.Record, 0)
	for rows.Next() {
		var (
			r         model.Record
			rawFields string
		)
		if err := rows.Scan(
			&r.ID, &r.OwnerID, &r.Kind, &rawFields,
			&r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s record: %w", kind, err)
		}
		if err := json.Unmarshal([]byte(rawFields), &r.Fields); err != nil {
			return nil, fmt.Errorf("sqlite: decoding fields of record %s: %w", r.ID, err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s records: %w", kind, err)
	}

	return records, nil
}

// UpdateStatus sets the status field of one record, addressed by its
// generated ID and scoped to owner and kind.
//
// json_set rewrites a single property inside the fields column, so this is
// one atomic UPDATE — no read-modify-write, and two concurrent updates race
// only at the store's own write granularity (last write wins). Scoping the
// WHERE clause by user_id means a valid record ID belonging to someone else
// is indistinguishable from a nonexistent one.
func (db *DB) UpdateStatus(ctx context.Context, ownerID string, kind model.Kind, recordID, status string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE records
		 SET fields = json_set(fields, '$.status', ?), updated_at = ?
		 WHERE id = ? AND user_id = ? AND kind = ?`,
		status,
		time.Now(),
		recordID,
		ownerID,
		string(kind),
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating status of %s record %s: %w", kind, recordID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(string(kind), recordID)
	}

	return nil
}
