package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/traction/internal/apperror"
	"github.com/sakif/traction/internal/model"
	"github.com/sakif/traction/internal/repository"
)

// listRules fixes ordering and truncation per record kind.
//
// The chronological kinds list newest-first; the scorecard additionally
// shows only the trailing 12 weeks (one quarter of weekly meetings). Rocks,
// to-dos, and issues have no date ordering — they come back in the order
// they were raised.
var listRules = map[model.Kind]repository.ListOptions{
	model.KindScorecard:      {OrderByField: "date", Limit: 12},
	model.KindPeopleHeadline: {OrderByField: "date"},
	model.KindConclude:       {OrderByField: "date"},
}

// RecordService handles create/list/update-status for all record kinds.
//
// One service covers all six kinds because they share the whole lifecycle;
// what differs per kind — the field schema, the list rules, whether status
// is mutable — is data, not code.
type RecordService struct {
	records repository.RecordRepository
	logger  *slog.Logger
}

// NewRecordService creates a RecordService.
func NewRecordService(records repository.RecordRepository, logger *slog.Logger) *RecordService {
	return &RecordService{
		records: records,
		logger:  logger,
	}
}

// Create validates the fields against the kind's schema and writes one
// record owned by ownerID. Returns the stored record including its
// generated ID — callers use that ID for any later status update.
//
// ownerID comes from a validated session, so the owner must exist; if the
// repository still reports the owner missing, the ownership invariant has
// been violated somewhere (a user row deleted out-of-band, a stale token
// signed with the current secret) and we log it as such before returning.
func (s *RecordService) Create(ctx context.Context, ownerID string, kind model.Kind, fields model.Fields) (*model.Record, error) {
	schema, err := model.SchemaFor(kind)
	if err != nil {
		return nil, err
	}

	normalized, err := schema.Validate(fields)
	if err != nil {
		return nil, err
	}

	record := &model.Record{
		OwnerID: ownerID,
		Kind:    kind,
		Fields:  normalized,
	}

	if err := s.records.Create(ctx, record); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("record create for nonexistent owner — ownership invariant violated",
				slog.String("ownerID", ownerID),
				slog.String("kind", string(kind)),
			)
			return nil, err
		}
		s.logger.Error("failed to create record",
			slog.String("ownerID", ownerID),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating %s record: %w", kind, err)
	}

	s.logger.Info("record created",
		slog.String("id", record.ID),
		slog.String("ownerID", ownerID),
		slog.String("kind", string(kind)),
	)

	return record, nil
}

// List returns the owner's records of the given kind, ordered and truncated
// per the kind's list rules. A brand-new user gets an empty slice.
func (s *RecordService) List(ctx context.Context, ownerID string, kind model.Kind) ([]model.Record, error) {
	if !kind.Valid() {
		return nil, apperror.ValidationFailed("kind", fmt.Sprintf("unknown record kind %q", kind))
	}

	records, err := s.records.List(ctx, ownerID, kind, listRules[kind])
	if err != nil {
		s.logger.Error("failed to list records",
			slog.String("ownerID", ownerID),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing %s records: %w", kind, err)
	}

	return records, nil
}

// UpdateStatus sets the status of one record, addressed by the ID handed
// out at creation. Only the two mutable kinds (Rock, ToDo) accept this;
// statuses are free-form strings — there is no enforced transition graph.
//
// A miss is apperror.ErrNotFound, not a silent success: with a unique ID as
// the key there is no multi-match ambiguity left to tolerate.
func (s *RecordService) UpdateStatus(ctx context.Context, ownerID string, kind model.Kind, recordID, status string) error {
	if !kind.Mutable() {
		return apperror.ValidationFailed("kind", fmt.Sprintf("%s records do not support status updates", kind))
	}
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return apperror.ValidationFailed("id", "record ID is required")
	}
	if strings.TrimSpace(status) == "" {
		return apperror.ValidationFailed("status", "status is required")
	}

	if err := s.records.UpdateStatus(ctx, ownerID, kind, recordID, status); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to update record status",
			slog.String("ownerID", ownerID),
			slog.String("kind", string(kind)),
			slog.String("id", recordID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("updating %s status: %w", kind, err)
	}

	s.logger.Info("record status updated",
		slog.String("id", recordID),
		slog.String("kind", string(kind)),
		slog.String("status", status),
	)

	return nil
}
