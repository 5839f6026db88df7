package service

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/repository"
)

// Entity-specific not-found messages shown to clients.
const (
	MsgUserNotFound        = "Usuário não encontrado"
	MsgRoomNotFound        = "Sala não encontrada"
	MsgSubjectNotFound     = "Disciplina não encontrada"
	MsgReservationNotFound = "Reserva não encontrada"

	MsgRequired       = "Este campo é obrigatório."
	MsgNotATeacher    = "O usuário informado não é um professor."
	MsgUsernameTaken  = "Um usuário com este nome de usuário já existe."
	MsgNITaken        = "Usuário com este ni já existe."
	MsgEndBeforeStart = "A data de término deve ser igual ou posterior à data de início."
)

// lookupError converts a repository miss into an entity-specific NotFoundError.
func lookupError(err error, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewNotFound(message)
	}
	return err
}

// referenceError reports a referenced id that does not resolve.
func referenceError(field string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewValidationError(field, repository.MsgMissingReference)
	}
	return fmt.Errorf("load %s: %w", field, err)
}

// duplicateError turns a unique-key violation into a field validation error.
func duplicateError(err error) error {
	var dup *domain.DuplicateError
	if !errors.As(err, &dup) {
		return err
	}
	switch dup.Field {
	case "username":
		return domain.NewValidationError("username", MsgUsernameTaken)
	case "ni":
		return domain.NewValidationError("ni", MsgNITaken)
	default:
		return domain.NewValidationError(dup.Field, "Valor duplicado.")
	}
}

// endSpan records err on span before ending it.
func endSpan(span oteltrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
