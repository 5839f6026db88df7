package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/formativa/internal/security/middleware"
	"github.com/aryan0dhankhar/formativa/internal/service"
)

// UserHandler serves /usuario
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, logger: logger}
}

// List handles GET /usuario
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(users, newUserResponse))
}

// Create handles POST /usuario
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFromContext(r.Context())
	var in service.UserFields
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.users.Create(r.Context(), caller, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]UserResponse{"usuario": newUserResponse(user)})
}

// Retrieve handles GET /usuario/{id}
func (h *UserHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, service.MsgUserNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.users.Get(r.Context(), middleware.IdentityFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]UserResponse{"usuario": newUserResponse(user)})
}

// Update handles PUT (full) and PATCH (partial) /usuario/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, service.MsgUserNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var in service.UserFields
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.users.Update(r.Context(), middleware.IdentityFromContext(r.Context()), id, in, r.Method == http.MethodPatch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]UserResponse{"usuario": newUserResponse(user)})
}

// Delete handles DELETE /usuario/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, service.MsgUserNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	username, err := h.users.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, DetailResponse{Detail: fmt.Sprintf("Usuário \"%s\" excluído com sucesso.", username)})
}
