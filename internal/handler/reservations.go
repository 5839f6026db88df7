package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/formativa/internal/security/middleware"
	"github.com/aryan0dhankhar/formativa/internal/service"
)

// ReservationHandler serves /reservas and /professor/reservas
type ReservationHandler struct {
	reservations *service.ReservationService
	logger       *slog.Logger
}

func NewReservationHandler(reservations *service.ReservationService, logger *slog.Logger) *ReservationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationHandler{reservations: reservations, logger: logger}
}

// List handles GET /reservas, optionally narrowed by ?professor=<id>
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	teacherID, err := queryID(r, "professor")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.reservations.List(r.Context(), middleware.IdentityFromContext(r.Context()), teacherID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, newReservationResponse))
}

// ListOwn handles GET /professor/reservas
func (h *ReservationHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	list, err := h.reservations.ListOwn(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, newReservationResponse))
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.ReservationFields
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.reservations.Create(r.Context(), middleware.IdentityFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]ReservationResponse{"reserva": newReservationResponse(res)})
}

func (h *ReservationHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, service.MsgReservationNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.reservations.Get(r.Context(), middleware.IdentityFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]ReservationResponse{"reserva": newReservationResponse(res)})
}

// Update handles PUT (full) and PATCH (partial) /reservas/{id}
func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, service.MsgReservationNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var in service.ReservationFields
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.reservations.Update(r.Context(), middleware.IdentityFromContext(r.Context()), id, in, r.Method == http.MethodPatch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]ReservationResponse{"reserva": newReservationResponse(res)})
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, service.MsgReservationNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	room, err := h.reservations.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, DetailResponse{Detail: fmt.Sprintf("Reserva na sala \"%s\" excluída com sucesso.", room)})
}
