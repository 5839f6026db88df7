package repository

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/aryan0dhankhar/formativa/internal/domain"
)

// psql builds PostgreSQL-flavoured statements.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqExclusionViolation  = "23P01"
)

// constraintFields maps named schema constraints to the request field they guard.
var constraintFields = map[string]string{
	"usuarios_username_key":           "username",
	"usuarios_ni_key":                 "ni",
	"disciplinas_professor_id_fkey":   "professor",
	"reservas_sala_reservada_id_fkey": "sala_reservada",
	"reservas_professor_id_fkey":      "professor",
	"reservas_disciplina_id_fkey":     "disciplina",
	"reservas_sem_sobreposicao":       "non_field_errors",
}

// MsgMissingReference is reported when a foreign key points nowhere.
const MsgMissingReference = "Pk inválido - objeto não existe."

// translatePQError converts constraint violations into domain errors and
// passes everything else through.
func translatePQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	field := constraintFields[pqErr.Constraint]
	switch string(pqErr.Code) {
	case pqUniqueViolation:
		if field == "" {
			field = pqErr.Column
		}
		return &domain.DuplicateError{Field: field}
	case pqExclusionViolation:
		return &domain.ConflictError{}
	case pqForeignKeyViolation:
		if field == "" {
			field = "non_field_errors"
		}
		return domain.NewValidationError(field, MsgMissingReference)
	}
	return err
}

// isConstraintError reports whether err was produced by translatePQError.
func isConstraintError(err error) bool {
	var dup *domain.DuplicateError
	var conflict *domain.ConflictError
	var ve *domain.ValidationError
	return errors.As(err, &dup) || errors.As(err, &conflict) || errors.As(err, &ve)
}

func nullableInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullableString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
