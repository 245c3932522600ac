package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/traction/internal/apperror"
	"github.com/sakif/traction/internal/auth"
	"github.com/sakif/traction/internal/model"
	"github.com/sakif/traction/internal/service"
)

// RecordHandler serves the JSON record API. One handler covers all six
// kinds; the routes bind each endpoint to its kind, so the method bodies
// stay generic.
type RecordHandler struct {
	records *service.RecordService
	logger  *slog.Logger
}

// NewRecordHandler creates a RecordHandler.
func NewRecordHandler(records *service.RecordService, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{
		records: records,
		logger:  logger,
	}
}

// statusRequest is the body of a status update.
type statusRequest struct {
	Status string `json:"status"`
}

// List returns a handler for GET /api/<kind-resource>.
//
// Responds with the caller's records of the kind as a JSON array —
// possibly empty, never an error, for a user with no records yet.
func (h *RecordHandler) List(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, apperror.Unauthorized("valid session required"))
			return
		}

		records, err := h.records.List(r.Context(), ownerID, kind)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, records)
	}
}

// Create returns a handler for POST /api/<kind-resource>.
//
// The body is the kind's fields as a flat JSON object. The response is the
// stored record, including the generated ID the client needs for any later
// status update.
func (h *RecordHandler) Create(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, apperror.Unauthorized("valid session required"))
			return
		}

		var fields model.Fields
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, apperror.ValidationFailed("body", "request body must be a JSON object"))
			return
		}

		record, err := h.records.Create(r.Context(), ownerID, kind, fields)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, record)
	}
}

// UpdateStatus returns a handler for PATCH /api/<kind-resource>/{id}/status.
//
// Only wired for the mutable kinds (Rock, ToDo). A record ID that doesn't
// exist — or belongs to someone else — is a 404 either way.
func (h *RecordHandler) UpdateStatus(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, apperror.Unauthorized("valid session required"))
			return
		}

		recordID := chi.URLParam(r, "id")

		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperror.ValidationFailed("body", "request body must be a JSON object with a status field"))
			return
		}

		if err := h.records.UpdateStatus(r.Context(), ownerID, kind, recordID, req.Status); err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}
