package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("record not found")

	ErrUnauthenticated    = errors.New("As credenciais de autenticação não foram fornecidas.")
	ErrInvalidCredentials = errors.New("Nenhuma conta ativa encontrada com as credenciais fornecidas")
	ErrInvalidToken       = errors.New("O token informado não é válido para qualquer tipo de token")
)

// Reservation overlap message shown to clients.
const ConflictMessage = "Não é possível realizar essa reserva, já existe uma!"

// NotFoundError carries an entity-specific message for a missing target.
type NotFoundError struct {
	Message string
}

func NewNotFound(message string) *NotFoundError { return &NotFoundError{Message: message} }

func (e *NotFoundError) Error() string { return e.Message }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ForbiddenError is returned when an authenticated caller lacks a role or
// ownership for the requested action.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// ValidationError maps request fields to the rule they violated.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError with a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a field violation, keeping the first message per field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// Empty reports whether no violations were recorded.
func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

// OrNil returns e as an error, or nil when empty.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// ConflictError reports a reservation that overlaps an existing one for the
// same room and period.
type ConflictError struct {
	ExistingID int64
}

func (e *ConflictError) Error() string { return ConflictMessage }

// DuplicateError is returned by repositories on a unique-key violation.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return "duplicate value for " + e.Field }
