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

var reservationColumns = []string{
	"id", "data_inicio", "data_termino", "periodo", "sala_reservada_id", "professor_id", "disciplina_id",
}

// PostgresReservationRepository implements domain.ReservationRepository using PostgreSQL
type PostgresReservationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresReservationRepository creates a new reservation repository
func NewPostgresReservationRepository(db *sql.DB, logger *slog.Logger) *PostgresReservationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReservationRepository{db: db, logger: logger}
}

// SlotLockKey is the advisory lock key serializing writers of one room+period.
func SlotLockKey(slot domain.Slot) int64 {
	return slot.RoomID*4 + int64(slot.Period.Ordinal())
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	var period string
	err := row.Scan(&res.ID, &res.Range.Start, &res.Range.End, &period, &res.RoomID, &res.TeacherID, &res.SubjectID)
	if err != nil {
		return nil, err
	}
	res.Period = domain.Period(period)
	return res, nil
}

func (r *PostgresReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	query, args, err := psql.Select(reservationColumns...).From("reservas").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select reservation: %w", err)
	}
	res, err := scanReservation(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reservation %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return res, nil
}

func (r *PostgresReservationRepository) List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error) {
	builder := psql.Select(reservationColumns...).From("reservas").OrderBy("id")
	if filter.TeacherID != nil {
		builder = builder.Where(sq.Eq{"professor_id": *filter.TeacherID})
	}
	return queryReservations(ctx, r.db, builder)
}

func (r *PostgresReservationRepository) FindConflicting(ctx context.Context, slot domain.Slot, rng domain.DateRange, excludeID int64) ([]*domain.Reservation, error) {
	return findConflicting(ctx, r.db, slot, rng, excludeID)
}

func (r *PostgresReservationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	return expectOneRow(result, "reservation", id)
}

// WithSlotLock opens a transaction, takes the slot's transaction-scoped
// advisory lock and runs fn. The transaction commits only if fn returns nil.
func (r *PostgresReservationRepository) WithSlotLock(ctx context.Context, slot domain.Slot, fn func(tx domain.ReservationTx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reservation tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				r.logger.Error("failed to rollback reservation tx", slog.String("error", rbErr.Error()))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, SlotLockKey(slot)); err != nil {
		return fmt.Errorf("lock reservation slot: %w", err)
	}

	if err = fn(&reservationTx{q: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		if mapped := translatePQError(err); isConstraintError(mapped) {
			return mapped
		}
		return fmt.Errorf("commit reservation tx: %w", err)
	}
	return nil
}

// reservationTx is the write side available while a slot lock is held.
type reservationTx struct {
	q queryer
}

func (t *reservationTx) FindConflicting(ctx context.Context, slot domain.Slot, rng domain.DateRange, excludeID int64) ([]*domain.Reservation, error) {
	return findConflicting(ctx, t.q, slot, rng, excludeID)
}

func (t *reservationTx) Create(ctx context.Context, res *domain.Reservation) error {
	query, args, err := psql.Insert("reservas").
		Columns("data_inicio", "data_termino", "periodo", "sala_reservada_id", "professor_id", "disciplina_id").
		Values(res.Range.Start, res.Range.End, string(res.Period), res.RoomID, res.TeacherID, res.SubjectID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert reservation: %w", err)
	}
	if err := t.q.QueryRowContext(ctx, query, args...).Scan(&res.ID); err != nil {
		if mapped := translatePQError(err); isConstraintError(mapped) {
			return mapped
		}
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (t *reservationTx) Update(ctx context.Context, res *domain.Reservation) error {
	query, args, err := psql.Update("reservas").
		Set("data_inicio", res.Range.Start).
		Set("data_termino", res.Range.End).
		Set("periodo", string(res.Period)).
		Set("sala_reservada_id", res.RoomID).
		Set("professor_id", res.TeacherID).
		Set("disciplina_id", res.SubjectID).
		Where(sq.Eq{"id": res.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update reservation: %w", err)
	}
	result, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		if mapped := translatePQError(err); isConstraintError(mapped) {
			return mapped
		}
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	return expectOneRow(result, "reservation", res.ID)
}

// findConflicting selects same-slot reservations whose inclusive ranges
// overlap rng: start <= rng.End AND end >= rng.Start.
func findConflicting(ctx context.Context, q queryer, slot domain.Slot, rng domain.DateRange, excludeID int64) ([]*domain.Reservation, error) {
	builder := psql.Select(reservationColumns...).From("reservas").
		Where(sq.Eq{"sala_reservada_id": slot.RoomID, "periodo": string(slot.Period)}).
		Where(sq.LtOrEq{"data_inicio": rng.End}).
		Where(sq.GtOrEq{"data_termino": rng.Start}).
		OrderBy("id")
	if excludeID != 0 {
		builder = builder.Where(sq.NotEq{"id": excludeID})
	}
	return queryReservations(ctx, q, builder)
}

func queryReservations(ctx context.Context, q queryer, builder sq.SelectBuilder) ([]*domain.Reservation, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reservation query: %w", err)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	out := []*domain.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
