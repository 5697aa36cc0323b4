package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/reunite/internal/model"
	"github.com/erazemk/reunite/internal/store"
)

// DashboardHandler shows callers their own reports and claims.
type DashboardHandler struct {
	DB *sql.DB
}

type dashboardResponse struct {
	User   *model.User    `json:"user"`
	Items  []model.Item   `json:"items"`
	Claims []model.Claim  `json:"claims"`
	Counts map[string]int `json:"counts,omitempty"`
	// LastReindex is when signatures were last recomputed, for administrators.
	LastReindex string `json:"last_reindex,omitempty"`
}

// Get handles GET /api/dashboard. Reports and claims are linked to the
// account by email address. Administrators also get item counts per status.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil || user == nil {
		jsonError(w, http.StatusUnauthorized, "user not found")
		return
	}

	resp := dashboardResponse{User: user, Items: []model.Item{}, Claims: []model.Claim{}}
	if user.Email != "" {
		if resp.Items, err = store.ListItemsByContact(r.Context(), h.DB, user.Email); err != nil {
			slog.Error("failed to list user items", "user", user.Username, "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to load dashboard")
			return
		}
		if resp.Claims, err = store.ListClaimsByEmail(r.Context(), h.DB, user.Email); err != nil {
			slog.Error("failed to list user claims", "user", user.Username, "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to load dashboard")
			return
		}
	}

	if model.RoleAtLeast(user.Role, model.RoleAdmin) {
		if resp.Counts, err = store.CountItemsByStatus(r.Context(), h.DB); err != nil {
			slog.Error("failed to count items", "error", err)
		}
		if resp.LastReindex, _, err = store.GetSetting(r.Context(), h.DB, store.SettingLastReindex); err != nil {
			slog.Error("failed to read reindex time", "error", err)
		}
	}

	jsonResponse(w, http.StatusOK, resp)
}
