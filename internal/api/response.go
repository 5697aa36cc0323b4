package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/reunite/internal/model"
	"github.com/erazemk/reunite/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// storeError writes 404 for store.ErrNotFound and 500 otherwise.
func storeError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, what+" not found")
		return
	}
	if errors.Is(err, store.ErrConflict) {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}
	slog.Error("store error", "what", what, "error", err)
	jsonError(w, http.StatusInternalServerError, "internal error")
}

// recordAudit appends to the audit log. Failures are logged and otherwise
// ignored; the action itself has already happened.
func recordAudit(ctx context.Context, db *sql.DB, ev model.AuditEvent) {
	if ev.Actor == "" {
		ev.Actor = actor(ctx)
	}
	if err := store.RecordAudit(ctx, db, ev); err != nil {
		slog.Error("failed to record audit event", "action", ev.Action, "entity", ev.EntityID, "error", err)
	}
}
