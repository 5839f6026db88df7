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

// PostgresRoomRepository implements domain.RoomRepository using PostgreSQL
type PostgresRoomRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRoomRepository creates a new room repository
func NewPostgresRoomRepository(db *sql.DB, logger *slog.Logger) *PostgresRoomRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRoomRepository{db: db, logger: logger}
}

func (r *PostgresRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	query, args, err := psql.Insert("salas").
		Columns("nome", "capacidade").
		Values(room.Name, room.Capacity).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert room: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&room.ID); err != nil {
		r.logger.Error("failed to create room", slog.String("name", room.Name), slog.String("error", err.Error()))
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

func (r *PostgresRoomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	room := &domain.Room{}
	err := r.db.QueryRowContext(ctx, `SELECT id, nome, capacidade FROM salas WHERE id = $1`, id).
		Scan(&room.ID, &room.Name, &room.Capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

func (r *PostgresRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	query, args, err := psql.Update("salas").
		Set("nome", room.Name).
		Set("capacidade", room.Capacity).
		Where(sq.Eq{"id": room.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update room: %w", err)
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	return expectOneRow(result, "room", room.ID)
}

// Delete removes a room and, through the schema, its reservations.
func (r *PostgresRoomRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM salas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return expectOneRow(result, "room", id)
}

func (r *PostgresRoomRepository) List(ctx context.Context) ([]*domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, nome, capacidade FROM salas ORDER BY id`)
	if err != nil {
		r.logger.Error("failed to list rooms", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	rooms := []*domain.Room{}
	for rows.Next() {
		room := &domain.Room{}
		if err := rows.Scan(&room.ID, &room.Name, &room.Capacity); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}
