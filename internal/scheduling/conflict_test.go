package scheduling

import (
	"context"
	"errors"
	"testing"

	"github.com/aryan0dhankhar/formativa/internal/domain"
)

// sliceFinder returns every stored reservation, leaving filtering to Check.
type sliceFinder struct {
	stored []*domain.Reservation
	err    error
}

func (f *sliceFinder) FindConflicting(_ context.Context, _ domain.Slot, _ domain.DateRange, _ int64) ([]*domain.Reservation, error) {
	return f.stored, f.err
}

func res(id, room int64, period domain.Period, start, end string) *domain.Reservation {
	return &domain.Reservation{
		ID:     id,
		RoomID: room,
		Period: period,
		Range:  domain.DateRange{Start: domain.MustParseDate(start), End: domain.MustParseDate(end)},
	}
}

func TestCheck(t *testing.T) {
	existing := res(1, 10, domain.PeriodMorning, "2024-03-01", "2024-03-05")

	tests := []struct {
		name      string
		candidate *domain.Reservation
		conflict  bool
	}{
		{"overlapping range", res(0, 10, domain.PeriodMorning, "2024-03-04", "2024-03-10"), true},
		{"shared start boundary", res(0, 10, domain.PeriodMorning, "2024-03-05", "2024-03-06"), true},
		{"shared end boundary", res(0, 10, domain.PeriodMorning, "2024-02-20", "2024-03-01"), true},
		{"contained single day", res(0, 10, domain.PeriodMorning, "2024-03-03", "2024-03-03"), true},
		{"day after", res(0, 10, domain.PeriodMorning, "2024-03-06", "2024-03-06"), false},
		{"different period", res(0, 10, domain.PeriodAfternoon, "2024-03-01", "2024-03-05"), false},
		{"different room", res(0, 11, domain.PeriodMorning, "2024-03-01", "2024-03-05"), false},
		{"update of itself", res(1, 10, domain.PeriodMorning, "2024-03-02", "2024-03-08"), false},
	}

	v := NewValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Check(context.Background(), &sliceFinder{stored: []*domain.Reservation{existing}}, tt.candidate)
			var conflict *domain.ConflictError
			if got := errors.As(err, &conflict); got != tt.conflict {
				t.Fatalf("conflict = %v (err=%v), want %v", got, err, tt.conflict)
			}
			if tt.conflict && conflict.ExistingID != existing.ID {
				t.Fatalf("ExistingID = %d, want %d", conflict.ExistingID, existing.ID)
			}
		})
	}
}

func TestCheckIsSymmetric(t *testing.T) {
	a := res(1, 10, domain.PeriodEvening, "2024-05-01", "2024-05-10")
	b := res(2, 10, domain.PeriodEvening, "2024-05-10", "2024-05-12")
	v := NewValidator(nil)

	errAB := v.Check(context.Background(), &sliceFinder{stored: []*domain.Reservation{a}}, b)
	errBA := v.Check(context.Background(), &sliceFinder{stored: []*domain.Reservation{b}}, a)
	if (errAB == nil) != (errBA == nil) {
		t.Fatalf("asymmetric result: %v vs %v", errAB, errBA)
	}
	if errAB == nil {
		t.Fatalf("expected boundary overlap to conflict")
	}
}

func TestCheckFinderError(t *testing.T) {
	boom := errors.New("boom")
	err := NewValidator(nil).Check(context.Background(), &sliceFinder{err: boom}, res(0, 1, domain.PeriodMorning, "2024-01-01", "2024-01-01"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped finder error, got %v", err)
	}
}

func TestConflictMessage(t *testing.T) {
	err := &domain.ConflictError{}
	if err.Error() != "Não é possível realizar essa reserva, já existe uma!" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
