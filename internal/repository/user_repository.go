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

var userColumns = []string{
	"id", "username", "email", "first_name", "last_name", "tipo", "ni", "telefone",
	"data_nascimento", "data_contratacao", "password_hash", "is_active", "date_joined",
}

// PostgresUserRepository implements domain.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var phone sql.NullString
	var role string
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&role,
		&user.NI,
		&phone,
		&user.BirthDate,
		&user.HireDate,
		&user.PasswordHash,
		&user.IsActive,
		&user.DateJoined,
	)
	if err != nil {
		return nil, err
	}
	user.Role = domain.Role(role)
	user.Phone = stringPtr(phone)
	return user, nil
}

// Create creates a new user
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	query, args, err := psql.Insert("usuarios").
		Columns("username", "email", "first_name", "last_name", "tipo", "ni", "telefone",
			"data_nascimento", "data_contratacao", "password_hash", "is_active").
		Values(user.Username, user.Email, user.FirstName, user.LastName, string(user.Role), user.NI,
			nullableString(user.Phone), user.BirthDate, user.HireDate, user.PasswordHash, user.IsActive).
		Suffix("RETURNING id, date_joined").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.DateJoined); err != nil {
		if mapped := translatePQError(err); isConstraintError(mapped) {
			return mapped
		}
		r.logger.Error("failed to create user",
			slog.String("username", user.Username),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *PostgresUserRepository) getOne(ctx context.Context, where sq.Eq) (*domain.User, error) {
	query, args, err := psql.Select(userColumns...).From("usuarios").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user: %w", err)
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %v: %w", where, domain.ErrNotFound)
		}
		r.logger.Error("failed to get user",
			slog.Any("where", where),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

// GetByUsername retrieves a user by username
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"username": username})
}

// GetByNI retrieves a user by institutional number
func (r *PostgresUserRepository) GetByNI(ctx context.Context, ni int64) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"ni": ni})
}

// Update updates an existing user
func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	query, args, err := psql.Update("usuarios").
		SetMap(map[string]interface{}{
			"username":         user.Username,
			"email":            user.Email,
			"first_name":       user.FirstName,
			"last_name":        user.LastName,
			"tipo":             string(user.Role),
			"ni":               user.NI,
			"telefone":         nullableString(user.Phone),
			"data_nascimento":  user.BirthDate,
			"data_contratacao": user.HireDate,
			"password_hash":    user.PasswordHash,
			"is_active":        user.IsActive,
		}).
		Where(sq.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if mapped := translatePQError(err); isConstraintError(mapped) {
			return mapped
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectOneRow(result, "user", user.ID)
}

// Delete removes a user. Subjects taught by the user lose their teacher and
// the user's reservations are removed by the schema's foreign keys.
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectOneRow(result, "user", id)
}

// List lists users ordered by id
func (r *PostgresUserRepository) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	builder := psql.Select(userColumns...).From("usuarios").OrderBy("id")
	if filter.Role != "" {
		builder = builder.Where(sq.Eq{"tipo": string(filter.Role)})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list users: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.logger.Error("failed to scan user row",
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func expectOneRow(result sql.Result, entity string, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}
