package memory

import (
	"context"
	"maps"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/repository"
)

// ReservationRepository implements domain.ReservationRepository
type ReservationRepository struct{ s *Store }

func cloneReservation(res *domain.Reservation) *domain.Reservation {
	c := *res
	return &c
}

func (r *ReservationRepository) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if res, ok := r.s.reservations[id]; ok {
		return cloneReservation(res), nil
	}
	return nil, notFound("reservation", id)
}

func (r *ReservationRepository) List(_ context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.reservations, func(res *domain.Reservation) bool {
		return filter.TeacherID == nil || res.TeacherID == *filter.TeacherID
	}, cloneReservation), nil
}

func (r *ReservationRepository) FindConflicting(_ context.Context, slot domain.Slot, rng domain.DateRange, excludeID int64) ([]*domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.conflicting(slot, rng, excludeID), nil
}

func (r *ReservationRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reservations[id]; !ok {
		return notFound("reservation", id)
	}
	delete(r.s.reservations, id)
	return nil
}

// WithSlotLock holds the store's write lock for the duration of fn, which
// serializes every reservation writer. Reservation writes made by fn are
// discarded if it returns an error.
func (r *ReservationRepository) WithSlotLock(_ context.Context, _ domain.Slot, fn func(tx domain.ReservationTx) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	snapshot := maps.Clone(r.s.reservations)
	nextID := r.s.nextID["reservations"]
	if err := fn(&reservationTx{s: r.s}); err != nil {
		r.s.reservations = snapshot
		r.s.nextID["reservations"] = nextID
		return err
	}
	return nil
}

func (s *Store) conflicting(slot domain.Slot, rng domain.DateRange, excludeID int64) []*domain.Reservation {
	return sortedValues(s.reservations, func(res *domain.Reservation) bool {
		return res.ID != excludeID && res.Slot() == slot && res.Range.Overlaps(rng)
	}, cloneReservation)
}

// reservationTx runs with the store lock already held.
type reservationTx struct{ s *Store }

func (t *reservationTx) FindConflicting(_ context.Context, slot domain.Slot, rng domain.DateRange, excludeID int64) ([]*domain.Reservation, error) {
	return t.s.conflicting(slot, rng, excludeID), nil
}

func (t *reservationTx) checkRefs(res *domain.Reservation) error {
	ve := &domain.ValidationError{}
	if _, ok := t.s.rooms[res.RoomID]; !ok {
		ve.Add("sala_reservada", repository.MsgMissingReference)
	}
	if _, ok := t.s.users[res.TeacherID]; !ok {
		ve.Add("professor", repository.MsgMissingReference)
	}
	if _, ok := t.s.subjects[res.SubjectID]; !ok {
		ve.Add("disciplina", repository.MsgMissingReference)
	}
	return ve.OrNil()
}

// write applies the same exclusion rule the PostgreSQL schema enforces.
func (t *reservationTx) write(res *domain.Reservation) error {
	if err := t.checkRefs(res); err != nil {
		return err
	}
	if existing := t.s.conflicting(res.Slot(), res.Range, res.ID); len(existing) > 0 {
		return &domain.ConflictError{ExistingID: existing[0].ID}
	}
	t.s.reservations[res.ID] = cloneReservation(res)
	return nil
}

func (t *reservationTx) Create(_ context.Context, res *domain.Reservation) error {
	res.ID = t.s.allocate("reservations")
	return t.write(res)
}

func (t *reservationTx) Update(_ context.Context, res *domain.Reservation) error {
	if _, ok := t.s.reservations[res.ID]; !ok {
		return notFound("reservation", res.ID)
	}
	return t.write(res)
}
