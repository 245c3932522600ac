package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies one of the six record types a user can own.
//
// The values double as the storage label for each record, so they match the
// node labels of the meeting data model rather than Go naming conventions.
type Kind string

const (
	KindScorecard      Kind = "Scorecard"
	KindRock           Kind = "Rock"
	KindPeopleHeadline Kind = "PeopleHeadline"
	KindToDo           Kind = "ToDo"
	KindIDS            Kind = "IDS"
	KindConclude       Kind = "Conclude"
)

// Kinds lists every record kind, in the order the weekly meeting walks
// through them.
var Kinds = []Kind{
	KindScorecard,
	KindRock,
	KindPeopleHeadline,
	KindToDo,
	KindIDS,
	KindConclude,
}

// Valid reports whether k is one of the known record kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Mutable reports whether records of this kind support a status update
// after creation. Everything else is append-only.
func (k Kind) Mutable() bool {
	return k == KindRock || k == KindToDo
}

// Fields holds a record's kind-specific properties, keyed by field name.
// Values are normalized by Schema.Validate before they reach storage:
// strings stay strings, integer fields become int64.
type Fields map[string]any

// Record is one typed entry owned by a user. Every record has exactly one
// owner, set at creation and never re-pointed.
//
// The ID is generated at creation (xid) and returned to the caller; status
// updates address a record by this ID rather than by matching field values.
type Record struct {
	ID        string
	OwnerID   string
	Kind      Kind
	Fields    Fields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarshalJSON flattens Fields into the top-level object, so a Rock
// serializes as {"id":..., "description":..., "due_date":..., "status":...}
// rather than nesting the properties under a "fields" key. This is the shape
// the dashboard consumes and matches the flat per-record maps the templates
// historically received.
//
// Reserved keys (id, kind, timestamps) win over field names; Schema.Validate
// rejects fields with those names so a collision cannot happen in practice.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+4)
	for name, value := range r.Fields {
		out[name] = value
	}
	out["id"] = r.ID
	out["kind"] = r.Kind
	out["createdAt"] = r.CreatedAt
	out["updatedAt"] = r.UpdatedAt
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON: known envelope keys populate
// the struct fields, everything else lands in Fields. Used by tests and any
// client code that reads API responses back.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	pick := func(key string, dst any) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		delete(raw, key)
		return json.Unmarshal(v, dst)
	}

	if err := pick("id", &r.ID); err != nil {
		return fmt.Errorf("model: record id: %w", err)
	}
	if err := pick("kind", &r.Kind); err != nil {
		return fmt.Errorf("model: record kind: %w", err)
	}
	if err := pick("createdAt", &r.CreatedAt); err != nil {
		return fmt.Errorf("model: record createdAt: %w", err)
	}
	if err := pick("updatedAt", &r.UpdatedAt); err != nil {
		return fmt.Errorf("model: record updatedAt: %w", err)
	}

	r.Fields = make(Fields, len(raw))
	for name, v := range raw {
		var value any
		if err := json.Unmarshal(v, &value); err != nil {
			return fmt.Errorf("model: record field %s: %w", name, err)
		}
		r.Fields[name] = value
	}
	return nil
}
