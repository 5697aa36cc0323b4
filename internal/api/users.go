package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/reunite/internal/model"
	"github.com/erazemk/reunite/internal/store"
)

// UsersHandler manages accounts (admin only).
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// updateUserRequest changes the fields that are present.
type updateUserRequest struct {
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func validRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleUser
}

// userID parses the {id} path value, writing 400 when it is malformed.
func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

// loadUser fetches an active user, writing 404 when there is none.
func (h *UsersHandler) loadUser(w http.ResponseWriter, r *http.Request, id int64) *model.User {
	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "user")
		return nil
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return nil
	}
	return user
}

func hashPassword(w http.ResponseWriter, password string) (string, bool) {
	if err := model.ValidatePassword(password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return "", false
	}
	return string(hash), true
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	switch {
	case req.Username == "" || req.Password == "" || req.Role == "":
		jsonError(w, http.StatusBadRequest, "username, password, and role required")
		return
	case !validRole(req.Role):
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	case req.Email != "" && !model.ValidEmail(req.Email):
		jsonError(w, http.StatusBadRequest, "invalid email")
		return
	}

	hash, ok := hashPassword(w, req.Password)
	if !ok {
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, req.Email, hash, req.Role)
	if err != nil {
		jsonError(w, http.StatusConflict, "username already exists")
		return
	}

	slog.Info("user created", "by", actor(r.Context()), "new_user", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if user := h.loadUser(w, r, id); user != nil {
		jsonResponse(w, http.StatusOK, user)
	}
}

// Update handles PUT /api/users/{id}. Omitted fields keep their value.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := h.loadUser(w, r, id)
	if user == nil {
		return
	}

	email, role := user.Email, user.Role
	if req.Email != nil {
		email = strings.TrimSpace(*req.Email)
		if email != "" && !model.ValidEmail(email) {
			jsonError(w, http.StatusBadRequest, "invalid email")
			return
		}
	}
	if req.Role != nil {
		role = *req.Role
		if !validRole(role) {
			jsonError(w, http.StatusBadRequest, "invalid role")
			return
		}
	}

	if err := store.UpdateUser(r.Context(), h.DB, id, email, role); err != nil {
		storeError(w, err, "user")
		return
	}
	user.Email, user.Role = email, role

	slog.Info("user updated", "by", actor(r.Context()), "target_user", user.Username, "role", role)
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password == "" {
		jsonError(w, http.StatusBadRequest, "password required")
		return
	}

	hash, ok := hashPassword(w, req.Password)
	if !ok {
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, id, hash); err != nil {
		storeError(w, err, "user")
		return
	}

	slog.Info("user password reset", "by", actor(r.Context()), "target_user", fmt.Sprintf("id:%d", id))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	if claims := GetClaims(r.Context()); claims != nil && claims.UserID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "user")
		return
	}

	slog.Info("user deleted", "by", actor(r.Context()), "deleted_user", fmt.Sprintf("id:%d", id))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
