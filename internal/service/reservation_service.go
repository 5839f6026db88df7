package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/observability/metrics"
	"github.com/aryan0dhankhar/formativa/internal/observability/tracing"
	"github.com/aryan0dhankhar/formativa/internal/scheduling"
	"github.com/aryan0dhankhar/formativa/internal/security"
	"github.com/aryan0dhankhar/formativa/internal/security/audit"
)

// ReservationService books rooms. Writes run the conflict validator while
// holding the slot lock of the target room and period.
type ReservationService struct {
	repo      domain.ReservationRepository
	rooms     domain.RoomRepository
	subjects  domain.SubjectRepository
	users     domain.UserRepository
	validator *scheduling.Validator
	policy    *security.Policy
	audit     *audit.Logger
	logger    *slog.Logger
}

// ReservationDeps groups the repositories a ReservationService reads.
type ReservationDeps struct {
	Reservations domain.ReservationRepository
	Rooms        domain.RoomRepository
	Subjects     domain.SubjectRepository
	Users        domain.UserRepository
}

func NewReservationService(deps ReservationDeps, validator *scheduling.Validator, policy *security.Policy, auditLogger *audit.Logger, logger *slog.Logger) *ReservationService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLogger == nil {
		auditLogger = audit.NewLogger(logger)
	}
	if validator == nil {
		validator = scheduling.NewValidator(logger)
	}
	return &ReservationService{
		repo:      deps.Reservations,
		rooms:     deps.Rooms,
		subjects:  deps.Subjects,
		users:     deps.Users,
		validator: validator,
		policy:    policy,
		audit:     auditLogger,
		logger:    logger,
	}
}

// List returns every reservation, or those of teacherID when given.
func (s *ReservationService) List(ctx context.Context, caller *domain.Identity, teacherID *int64) ([]*domain.Reservation, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceReservation, security.ActionList, nil); err != nil {
		return nil, err
	}
	return s.list(ctx, domain.ReservationFilter{TeacherID: teacherID})
}

// ListOwn lists the calling teacher's reservations.
func (s *ReservationService) ListOwn(ctx context.Context, caller *domain.Identity) ([]*domain.Reservation, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceOwnReservations, security.ActionList, nil); err != nil {
		return nil, err
	}
	return s.list(ctx, domain.ReservationFilter{TeacherID: &caller.UserID})
}

func (s *ReservationService) list(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error) {
	out, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

func (s *ReservationService) Get(ctx context.Context, caller *domain.Identity, id int64) (*domain.Reservation, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceReservation, security.ActionRetrieve, nil); err != nil {
		return nil, err
	}
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, MsgReservationNotFound)
	}
	return res, nil
}

// Create books a room. A missing periodo books the morning.
func (s *ReservationService) Create(ctx context.Context, caller *domain.Identity, in ReservationFields) (res *domain.Reservation, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "ReservationService.Create")
	defer func() { endSpan(span, err) }()

	if err := s.policy.Authorize(ctx, caller, security.ResourceReservation, security.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := in.check(true); err != nil {
		return nil, err
	}

	res = &domain.Reservation{Period: domain.PeriodMorning}
	in.applyTo(res)
	if err := s.write(ctx, "create", res); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("reservation.id", res.ID))
	s.audit.LogMutation(ctx, caller, "create", string(security.ResourceReservation), res.ID, res.Range.Start.String()+"/"+res.Range.End.String())
	return res, nil
}

// Update changes a reservation. Teachers may only update their own.
func (s *ReservationService) Update(ctx context.Context, caller *domain.Identity, id int64, in ReservationFields, partial bool) (res *domain.Reservation, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "ReservationService.Update")
	defer func() { endSpan(span, err) }()

	res, err = s.owned(ctx, caller, security.ActionUpdate, id)
	if err != nil {
		return nil, err
	}
	if err := in.check(!partial); err != nil {
		return nil, err
	}

	in.applyTo(res)
	if err := s.write(ctx, "update", res); err != nil {
		return nil, err
	}
	s.audit.LogMutation(ctx, caller, "update", string(security.ResourceReservation), res.ID, "")
	return res, nil
}

// Delete removes a reservation and returns the name of its room. Teachers
// may only delete their own.
func (s *ReservationService) Delete(ctx context.Context, caller *domain.Identity, id int64) (string, error) {
	res, err := s.owned(ctx, caller, security.ActionDelete, id)
	if err != nil {
		return "", err
	}
	room, err := s.rooms.GetByID(ctx, res.RoomID)
	if err != nil {
		return "", fmt.Errorf("load room %d: %w", res.RoomID, err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return "", lookupError(err, MsgReservationNotFound)
	}
	s.audit.LogMutation(ctx, caller, "delete", string(security.ResourceReservation), id, room.Name)
	return room.Name, nil
}

// owned loads the reservation and applies the object-level check.
func (s *ReservationService) owned(ctx context.Context, caller *domain.Identity, action security.Action, id int64) (*domain.Reservation, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceReservation, action, nil); err != nil {
		return nil, err
	}
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, MsgReservationNotFound)
	}
	if err := s.policy.Authorize(ctx, caller, security.ResourceReservation, action, res); err != nil {
		return nil, err
	}
	return res, nil
}

// write validates res and persists it under the slot lock.
func (s *ReservationService) write(ctx context.Context, op string, res *domain.Reservation) (err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveReservationWrite(op, writeResult(err), time.Since(start))
	}()

	if err := s.checkReferences(ctx, res); err != nil {
		return err
	}
	return s.repo.WithSlotLock(ctx, res.Slot(), func(tx domain.ReservationTx) error {
		if err := s.validator.Check(ctx, tx, res); err != nil {
			return err
		}
		if op == "create" {
			return tx.Create(ctx, res)
		}
		if err := tx.Update(ctx, res); err != nil {
			return lookupError(err, MsgReservationNotFound)
		}
		return nil
	})
}

// checkReferences validates the range and every referenced row before the
// transaction starts.
func (s *ReservationService) checkReferences(ctx context.Context, res *domain.Reservation) error {
	ve := &domain.ValidationError{}
	if res.Range.End.Before(res.Range.Start) {
		ve.Add("data_termino", MsgEndBeforeStart)
	}
	if _, err := s.rooms.GetByID(ctx, res.RoomID); err != nil {
		if err := collect(ve, referenceError("sala_reservada", err)); err != nil {
			return err
		}
	}
	if err := collect(ve, requireTeacher(ctx, s.users, "professor", res.TeacherID)); err != nil {
		return err
	}
	if _, err := s.subjects.GetByID(ctx, res.SubjectID); err != nil {
		if err := collect(ve, referenceError("disciplina", err)); err != nil {
			return err
		}
	}
	return ve.OrNil()
}

// collect adds a field error to ve and passes any other error through.
func collect(ve *domain.ValidationError, err error) error {
	if err == nil {
		return nil
	}
	var fe *domain.ValidationError
	if !errors.As(err, &fe) {
		return err
	}
	for field, msg := range fe.Fields {
		ve.Add(field, msg)
	}
	return nil
}

func writeResult(err error) string {
	var conflict *domain.ConflictError
	var invalid *domain.ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &invalid):
		return "invalid"
	default:
		return "error"
	}
}
