package handler

import (
	"net/http"

	"github.com/msomdec/clinic-booking/internal/service"
)

// UserHandler serves account management for the admin dashboard.
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// HandleList returns every user.
// GET /api/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeServiceError(w, r, "list users", "user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTOs(users))
}

// HandleGet returns one user.
// GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid user id.")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get user", "user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleCreate adds a user. Role defaults to patient.
// POST /api/users
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid request body.")
		return
	}

	user, err := h.users.Create(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, r, "create user", "user", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// HandleUpdate merges the supplied fields onto a user. An empty password
// keeps the current one.
// PUT /api/users/{id}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid user id.")
		return
	}

	var req UserRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid request body.")
		return
	}

	user, err := h.users.Update(r.Context(), id, req.changes())
	if err != nil {
		writeServiceError(w, r, "update user", "user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleDelete removes a user and their appointments.
// DELETE /api/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "Invalid user id.")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, "delete user", "user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
