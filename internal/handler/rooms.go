package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/formativa/internal/security/middleware"
	"github.com/aryan0dhankhar/formativa/internal/service"
)

// RoomHandler serves /sala
type RoomHandler struct {
	rooms  *service.RoomService
	logger *slog.Logger
}

func NewRoomHandler(rooms *service.RoomService, logger *slog.Logger) *RoomHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomHandler{rooms: rooms, logger: logger}
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.List(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(rooms, newRoomResponse))
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.RoomFields
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	room, err := h.rooms.Create(r.Context(), middleware.IdentityFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]RoomResponse{"sala": newRoomResponse(room)})
}

func (h *RoomHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, service.MsgRoomNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	room, err := h.rooms.Get(r.Context(), middleware.IdentityFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]RoomResponse{"sala": newRoomResponse(room)})
}

// Update handles PUT (full) and PATCH (partial) /sala/{id}
func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, service.MsgRoomNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var in service.RoomFields
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	room, err := h.rooms.Update(r.Context(), middleware.IdentityFromContext(r.Context()), id, in, r.Method == http.MethodPatch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]RoomResponse{"sala": newRoomResponse(room)})
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, service.MsgRoomNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	name, err := h.rooms.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, DetailResponse{Detail: fmt.Sprintf("Sala \"%s\" excluída com sucesso.", name)})
}
