package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/reunite/internal/model"
	"github.com/erazemk/reunite/internal/notify"
	"github.com/erazemk/reunite/internal/store"
)

// ClaimsHandler accepts ownership claims from the public.
type ClaimsHandler struct {
	DB        *sql.DB
	Notifier  notify.Notifier
	Templates notify.Templates
}

type createClaimRequest struct {
	ItemID  string `json:"item_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Create handles POST /api/claims. Only approved items can be claimed.
func (h *ClaimsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)

	if req.ItemID == "" || req.Name == "" {
		jsonError(w, http.StatusBadRequest, "item_id and name required")
		return
	}
	if !model.ValidEmail(req.Email) {
		jsonError(w, http.StatusBadRequest, "valid email required")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, req.ItemID)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if !item.IsApproved() {
		jsonError(w, http.StatusConflict, "item is not open for claims")
		return
	}

	claim, err := store.CreateClaim(r.Context(), h.DB, item.ID, req.Name, req.Email, req.Message)
	if err != nil {
		slog.Error("failed to create claim", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create claim")
		return
	}
	claim.ItemTitle = item.Title

	recordAudit(r.Context(), h.DB, model.AuditEvent{
		Action:     model.AuditClaimSubmitted,
		EntityType: model.EntityClaim,
		EntityID:   claim.ID,
		Title:      item.Title,
		Details:    "Claim by " + claim.ClaimantName,
	})
	notify.Deliver(r.Context(), h.Notifier,
		h.Templates.ClaimSubmitted(item),
		h.Templates.ClaimReceived(claim, item.Title),
	)

	slog.Info("claim submitted", "claim", claim.ID, "item", item.ID)
	jsonResponse(w, http.StatusCreated, claim)
}
