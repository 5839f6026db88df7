package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"github.com/aryan0dhankhar/formativa/internal/domain"
)

var subjectColumns = []string{"id", "nome", "curso", "carga_horaria", "descricao", "professor_id"}

// PostgresSubjectRepository implements domain.SubjectRepository using PostgreSQL
type PostgresSubjectRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresSubjectRepository creates a new subject repository
func NewPostgresSubjectRepository(db *sql.DB, logger *slog.Logger) *PostgresSubjectRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSubjectRepository{db: db, logger: logger}
}

func scanSubject(row rowScanner) (*domain.Subject, error) {
	s := &domain.Subject{}
	var description sql.NullString
	var teacher sql.NullInt64
	if err := row.Scan(&s.ID, &s.Name, &s.Course, &s.Hours, &description, &teacher); err != nil {
		return nil, err
	}
	s.Description = stringPtr(description)
	s.TeacherID = int64Ptr(teacher)
	return s, nil
}

func (r *PostgresSubjectRepository) Create(ctx context.Context, subject *domain.Subject) error {
	query, args, err := psql.Insert("disciplinas").
		Columns("nome", "curso", "carga_horaria", "descricao", "professor_id").
		Values(subject.Name, subject.Course, subject.Hours, nullableString(subject.Description), nullableInt64(subject.TeacherID)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert subject: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&subject.ID); err != nil {
		if mapped := translatePQError(err); isConstraintError(mapped) {
			return mapped
		}
		r.logger.Error("failed to create subject", slog.String("name", subject.Name), slog.String("error", err.Error()))
		return fmt.Errorf("failed to create subject: %w", err)
	}
	return nil
}

func (r *PostgresSubjectRepository) GetByID(ctx context.Context, id int64) (*domain.Subject, error) {
	query, args, err := psql.Select(subjectColumns...).From("disciplinas").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select subject: %w", err)
	}
	subject, err := scanSubject(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("subject %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return subject, nil
}

func (r *PostgresSubjectRepository) Update(ctx context.Context, subject *domain.Subject) error {
	query, args, err := psql.Update("disciplinas").
		Set("nome", subject.Name).
		Set("curso", subject.Course).
		Set("carga_horaria", subject.Hours).
		Set("descricao", nullableString(subject.Description)).
		Set("professor_id", nullableInt64(subject.TeacherID)).
		Where(sq.Eq{"id": subject.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update subject: %w", err)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if mapped := translatePQError(err); isConstraintError(mapped) {
			return mapped
		}
		return fmt.Errorf("failed to update subject: %w", err)
	}
	return expectOneRow(result, "subject", subject.ID)
}

// Delete removes a subject and, through the schema, its reservations.
func (r *PostgresSubjectRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM disciplinas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subject: %w", err)
	}
	return expectOneRow(result, "subject", id)
}

func (r *PostgresSubjectRepository) List(ctx context.Context, filter domain.SubjectFilter) ([]*domain.Subject, error) {
	builder := psql.Select(subjectColumns...).From("disciplinas").OrderBy("id")
	if filter.TeacherID != nil {
		builder = builder.Where(sq.Eq{"professor_id": *filter.TeacherID})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list subjects: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list subjects", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	defer rows.Close()

	subjects := []*domain.Subject{}
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}
