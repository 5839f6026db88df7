package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/formativa/internal/security/middleware"
	"github.com/aryan0dhankhar/formativa/internal/service"
)

// SubjectHandler serves /disciplinas and /professor/disciplinas
type SubjectHandler struct {
	subjects *service.SubjectService
	logger   *slog.Logger
}

func NewSubjectHandler(subjects *service.SubjectService, logger *slog.Logger) *SubjectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubjectHandler{subjects: subjects, logger: logger}
}

func (h *SubjectHandler) List(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.subjects.List(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(subjects, newSubjectResponse))
}

// ListOwn handles GET /professor/disciplinas
func (h *SubjectHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.subjects.ListOwn(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(subjects, newSubjectResponse))
}

func (h *SubjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.SubjectFields
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	subject, err := h.subjects.Create(r.Context(), middleware.IdentityFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]SubjectResponse{"disciplina": newSubjectResponse(subject)})
}

func (h *SubjectHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, service.MsgSubjectNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	subject, err := h.subjects.Get(r.Context(), middleware.IdentityFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]SubjectResponse{"disciplina": newSubjectResponse(subject)})
}

// Update handles PUT (full) and PATCH (partial) /disciplinas/{id}
func (h *SubjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, service.MsgSubjectNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var in service.SubjectFields
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	subject, err := h.subjects.Update(r.Context(), middleware.IdentityFromContext(r.Context()), id, in, r.Method == http.MethodPatch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]SubjectResponse{"disciplina": newSubjectResponse(subject)})
}

func (h *SubjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, service.MsgSubjectNotFound)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	name, err := h.subjects.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, DetailResponse{Detail: fmt.Sprintf("Disciplina \"%s\" excluída com sucesso.", name)})
}
