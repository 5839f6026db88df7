package domain

import "context"

// Period is the closed set of day shifts a room can be booked for.
type Period string

const (
	PeriodMorning   Period = "M" // manhã
	PeriodAfternoon Period = "T" // tarde
	PeriodEvening   Period = "N" // noite
)

// Valid reports whether p is one of the known periods.
func (p Period) Valid() bool {
	_, ok := periodOrdinals[p]
	return ok
}

// Ordinal returns a stable small integer for p, or -1 when unknown.
func (p Period) Ordinal() int {
	if o, ok := periodOrdinals[p]; ok {
		return o
	}
	return -1
}

// Label returns the human readable period name.
func (p Period) Label() string {
	switch p {
	case PeriodMorning:
		return "manhã"
	case PeriodAfternoon:
		return "tarde"
	case PeriodEvening:
		return "noite"
	default:
		return "desconhecido"
	}
}

var periodOrdinals = map[Period]int{
	PeriodMorning:   0,
	PeriodAfternoon: 1,
	PeriodEvening:   2,
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start Date
	End   Date
}

// Valid reports whether the range is non-empty (End >= Start).
func (r DateRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start)
}

// Overlaps reports whether r and o share at least one day. Both bounds are
// inclusive, so ranges touching on a single day overlap.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.Start.After(o.End) && !r.End.Before(o.Start)
}

// Slot is the conflict key of a reservation: room plus period.
type Slot struct {
	RoomID int64
	Period Period
}

// Reservation books a room for a period over a range of days (reserva de ambiente)
type Reservation struct {
	ID        int64
	Range     DateRange
	Period    Period
	RoomID    int64
	TeacherID int64
	SubjectID int64
}

// Slot returns the reservation's conflict key.
func (r *Reservation) Slot() Slot {
	return Slot{RoomID: r.RoomID, Period: r.Period}
}

// OwnerID implements the ownership contract used by the authorization policy.
func (r *Reservation) OwnerID() (int64, bool) {
	return r.TeacherID, true
}

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	TeacherID *int64
}

// ReservationTx is the view of the reservation store available while a slot
// lock is held. Writes through it commit only when the enclosing function
// returns nil.
type ReservationTx interface {
	FindConflicting(ctx context.Context, slot Slot, rng DateRange, excludeID int64) ([]*Reservation, error)
	Create(ctx context.Context, r *Reservation) error
	Update(ctx context.Context, r *Reservation) error
}

// ReservationRepository defines data access for reservations
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*Reservation, error)
	List(ctx context.Context, filter ReservationFilter) ([]*Reservation, error)
	FindConflicting(ctx context.Context, slot Slot, rng DateRange, excludeID int64) ([]*Reservation, error)
	Delete(ctx context.Context, id int64) error

	// WithSlotLock runs fn atomically with respect to every other writer
	// targeting the same slot.
	WithSlotLock(ctx context.Context, slot Slot, fn func(tx ReservationTx) error) error
}
