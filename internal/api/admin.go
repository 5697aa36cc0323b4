package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/reunite/internal/model"
	"github.com/erazemk/reunite/internal/notify"
	"github.com/erazemk/reunite/internal/store"
)

// AdminHandler serves the review queue.
type AdminHandler struct {
	DB        *sql.DB
	Images    store.ImageStore
	Notifier  notify.Notifier
	Templates notify.Templates
}

// ListItems handles GET /api/admin/items?status=.
func (h *AdminHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	status := model.NormalizeStatus(r.URL.Query().Get("status"))
	if status != "" && !model.ValidItemStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, status)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// transition moves an item to status and returns the updated item.
func (h *AdminHandler) transition(w http.ResponseWriter, r *http.Request, status, action string) *model.Item {
	id := r.PathValue("id")
	if err := store.SetItemStatus(r.Context(), h.DB, id, status); err != nil {
		storeError(w, err, "item")
		return nil
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "item")
		return nil
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil
	}

	recordAudit(r.Context(), h.DB, model.AuditEvent{
		Action:     action,
		EntityType: model.EntityItem,
		EntityID:   item.ID,
		Title:      item.Title,
	})
	slog.Info("item status changed", "item", item.ID, "status", status, "by", actor(r.Context()))
	return item
}

// ApproveItem handles POST /api/admin/items/{id}/approve.
func (h *AdminHandler) ApproveItem(w http.ResponseWriter, r *http.Request) {
	item := h.transition(w, r, model.ItemStatusApproved, model.AuditItemApproved)
	if item == nil {
		return
	}
	notify.Deliver(r.Context(), h.Notifier, h.Templates.ItemApproved(item))
	jsonResponse(w, http.StatusOK, item)
}

// RejectItem handles POST /api/admin/items/{id}/reject.
func (h *AdminHandler) RejectItem(w http.ResponseWriter, r *http.Request) {
	item := h.transition(w, r, model.ItemStatusRejected, model.AuditItemRejected)
	if item == nil {
		return
	}
	notify.Deliver(r.Context(), h.Notifier, h.Templates.ItemRejected(item))
	jsonResponse(w, http.StatusOK, item)
}

// MarkClaimed handles POST /api/admin/items/{id}/claim.
func (h *AdminHandler) MarkClaimed(w http.ResponseWriter, r *http.Request) {
	item := h.transition(w, r, model.ItemStatusClaimed, model.AuditItemClaimed)
	if item == nil {
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/admin/items/{id}.
func (h *AdminHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	item, err := store.GetItem(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	if item.HasImage() {
		if err := h.Images.DeleteImage(r.Context(), item.ID); err != nil {
			slog.Error("failed to delete image", "item", item.ID, "error", err)
		}
	}
	if err := store.DeleteItem(r.Context(), h.DB, item.ID); err != nil {
		storeError(w, err, "item")
		return
	}

	recordAudit(r.Context(), h.DB, model.AuditEvent{
		Action:     model.AuditItemDeleted,
		EntityType: model.EntityItem,
		EntityID:   item.ID,
		Title:      item.Title,
	})
	slog.Info("item deleted", "item", item.ID, "by", actor(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// ListClaims handles GET /api/admin/claims?status=.
func (h *AdminHandler) ListClaims(w http.ResponseWriter, r *http.Request) {
	status := model.NormalizeStatus(r.URL.Query().Get("status"))
	if status != "" && !model.ValidClaimStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	claims, err := store.ListClaims(r.Context(), h.DB, status)
	if err != nil {
		slog.Error("failed to list claims", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list claims")
		return
	}
	jsonResponse(w, http.StatusOK, claims)
}

func (h *AdminHandler) loadClaim(w http.ResponseWriter, r *http.Request) *model.Claim {
	claim, err := store.GetClaim(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "claim")
		return nil
	}
	if claim == nil {
		jsonError(w, http.StatusNotFound, "claim not found")
		return nil
	}
	return claim
}

// ApproveClaim handles POST /api/admin/claims/{id}/approve. The claimed item
// leaves the public inventory.
func (h *AdminHandler) ApproveClaim(w http.ResponseWriter, r *http.Request) {
	claim := h.loadClaim(w, r)
	if claim == nil {
		return
	}
	if err := store.ApproveClaim(r.Context(), h.DB, claim.ID); err != nil {
		storeError(w, err, "claim")
		return
	}
	claim.Status = model.ClaimStatusApproved

	recordAudit(r.Context(), h.DB, model.AuditEvent{
		Action:     model.AuditClaimApproved,
		EntityType: model.EntityClaim,
		EntityID:   claim.ID,
		Title:      claim.ItemTitle,
		Details:    "Verified for " + claim.ClaimantName,
	})
	notify.Deliver(r.Context(), h.Notifier, h.Templates.ClaimVerified(claim, claim.ItemTitle))

	slog.Info("claim approved", "claim", claim.ID, "item", claim.ItemID, "by", actor(r.Context()))
	jsonResponse(w, http.StatusOK, claim)
}

// RejectClaim handles POST /api/admin/claims/{id}/reject.
func (h *AdminHandler) RejectClaim(w http.ResponseWriter, r *http.Request) {
	claim := h.loadClaim(w, r)
	if claim == nil {
		return
	}
	if err := store.RejectClaim(r.Context(), h.DB, claim.ID); err != nil {
		storeError(w, err, "claim")
		return
	}
	claim.Status = model.ClaimStatusRejected

	recordAudit(r.Context(), h.DB, model.AuditEvent{
		Action:     model.AuditClaimRejected,
		EntityType: model.EntityClaim,
		EntityID:   claim.ID,
		Title:      claim.ItemTitle,
	})
	jsonResponse(w, http.StatusOK, claim)
}

// DeleteClaim handles DELETE /api/admin/claims/{id}.
func (h *AdminHandler) DeleteClaim(w http.ResponseWriter, r *http.Request) {
	claim := h.loadClaim(w, r)
	if claim == nil {
		return
	}
	if err := store.DeleteClaim(r.Context(), h.DB, claim.ID); err != nil {
		storeError(w, err, "claim")
		return
	}

	recordAudit(r.Context(), h.DB, model.AuditEvent{
		Action:     model.AuditClaimDeleted,
		EntityType: model.EntityClaim,
		EntityID:   claim.ID,
		Title:      claim.ItemTitle,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Audit handles GET /api/admin/audit?limit=.
func (h *AdminHandler) Audit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	events, err := store.ListAudit(r.Context(), h.DB, limit)
	if err != nil {
		slog.Error("failed to list audit log", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list audit log")
		return
	}
	jsonResponse(w, http.StatusOK, events)
}
