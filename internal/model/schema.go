package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sakif/traction/internal/apperror"
)

// FieldType is the expected scalar type of a record field.
//
// The wire format is JSON, so the incoming values are strings and float64s.
// Validation normalizes them: TypeDate and TypeString stay strings,
// TypeInteger becomes an int64 (rejecting fractional numbers).
type FieldType int

const (
	TypeString FieldType = iota
	TypeDate             // string in YYYY-MM-DD form
	TypeInteger
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeDate:
		return "date"
	case TypeInteger:
		return "integer"
	default:
		return "unknown"
	}
}

// FieldSpec describes one field of a record kind.
// Min/Max only apply to TypeInteger fields and are inclusive; a zero
// Min/Max pair means unbounded.
type FieldSpec struct {
	Type     FieldType
	Required bool
	Min, Max int64
}

// Schema maps field names to their specs for one record kind.
//
// This is the checked contract that replaces "whatever the client sent":
// every create is validated against the kind's schema before anything is
// written. Unknown fields are rejected outright rather than silently stored.
type Schema map[string]FieldSpec

// Schemas defines the fields of each record kind. Field names match the
// wire format exactly (the dashboard and any existing clients depend on
// them), which is why realTimeTicketEntry is camel-cased while due_date
// is snake-cased — that inconsistency is part of the format.
var Schemas = map[Kind]Schema{
	KindScorecard: {
		"date":                {Type: TypeDate, Required: true},
		"realTimeTicketEntry": {Type: TypeString},
		"timesheets":          {Type: TypeString},
		"certifications":      {Type: TypeString},
		"configurations":      {Type: TypeString},
	},
	KindRock: {
		"description": {Type: TypeString, Required: true},
		"due_date":    {Type: TypeDate},
		"status":      {Type: TypeString},
	},
	KindPeopleHeadline: {
		"date":     {Type: TypeDate, Required: true},
		"headline": {Type: TypeString, Required: true},
	},
	KindToDo: {
		"description": {Type: TypeString, Required: true},
		"due_date":    {Type: TypeDate},
		"status":      {Type: TypeString},
	},
	KindIDS: {
		"issue":      {Type: TypeString, Required: true},
		"discussion": {Type: TypeString},
		"solution":   {Type: TypeString},
	},
	KindConclude: {
		"date":  {Type: TypeDate, Required: true},
		"score": {Type: TypeInteger, Required: true, Min: 1, Max: 10},
		"notes": {Type: TypeString},
	},
}

// dateLayout is the accepted date format for TypeDate fields.
const dateLayout = "2006-01-02"

// reservedFieldNames are keys the record envelope itself uses; a schema
// field with one of these names would be shadowed in the JSON output.
var reservedFieldNames = map[string]bool{
	"id":        true,
	"kind":      true,
	"createdAt": true,
	"updatedAt": true,
}

// SchemaFor returns the schema for the given kind.
// Returns a validation error for unknown kinds so handlers can surface a
// 400 rather than panicking on a bad route value.
func SchemaFor(kind Kind) (Schema, error) {
	schema, ok := Schemas[kind]
	if !ok {
		return nil, apperror.ValidationFailed("kind", fmt.Sprintf("unknown record kind %q", kind))
	}
	return schema, nil
}

// Validate checks the supplied fields against the schema and returns a
// normalized copy safe to store.
//
// Rules:
//   - required fields must be present and, for strings, non-blank
//   - unknown field names are rejected
//   - dates must parse as YYYY-MM-DD
//   - integers must be integral (12.0 is fine, 12.5 is not) and in range
//
// The input map is not modified.
func (s Schema) Validate(fields Fields) (Fields, error) {
	for name := range fields {
		if _, ok := s[name]; !ok {
			if reservedFieldNames[name] {
				return nil, apperror.ValidationFailed(name, fmt.Sprintf("%s is a reserved field name", name))
			}
			return nil, apperror.ValidationFailed(name, fmt.Sprintf("unknown field %q", name))
		}
	}

	out := make(Fields, len(s))
	for name, spec := range s {
		raw, present := fields[name]
		if !present {
			if spec.Required {
				return nil, apperror.ValidationFailed(name, fmt.Sprintf("%s is required", name))
			}
			continue
		}

		value, err := spec.normalize(name, raw)
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

func (spec FieldSpec) normalize(name string, raw any) (any, error) {
	switch spec.Type {
	case TypeString:
		str, ok := raw.(string)
		if !ok {
			return nil, apperror.ValidationFailed(name, fmt.Sprintf("%s must be a string", name))
		}
		if spec.Required && strings.TrimSpace(str) == "" {
			return nil, apperror.ValidationFailed(name, fmt.Sprintf("%s must not be blank", name))
		}
		return str, nil

	case TypeDate:
		str, ok := raw.(string)
		if !ok {
			return nil, apperror.ValidationFailed(name, fmt.Sprintf("%s must be a date string", name))
		}
		if _, err := time.Parse(dateLayout, str); err != nil {
			return nil, apperror.ValidationFailed(name, fmt.Sprintf("%s must be a date in YYYY-MM-DD form", name))
		}
		return str, nil

	case TypeInteger:
		n, err := toInt64(raw)
		if err != nil {
			return nil, apperror.ValidationFailed(name, fmt.Sprintf("%s must be an integer", name))
		}
		if spec.Min != 0 || spec.Max != 0 {
			if n < spec.Min || n > spec.Max {
				return nil, apperror.ValidationFailed(name,
					fmt.Sprintf("%s must be between %d and %d", name, spec.Min, spec.Max))
			}
		}
		return n, nil

	default:
		return nil, apperror.ValidationFailed(name, fmt.Sprintf("%s has an unsupported field type", name))
	}
}

// toInt64 accepts the numeric shapes a JSON decode can produce.
// encoding/json decodes numbers into float64 by default; values read back
// from storage may already be int64.
func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("not integral")
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	default:
		return 0, fmt.Errorf("not a number")
	}
}
