package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aryan0dhankhar/formativa/internal/domain"
)

type fixture struct {
	store   *Store
	teacher *domain.User
	room    *domain.Room
	subject *domain.Subject
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := NewStore()
	teacher := &domain.User{Username: "t1", Role: domain.RoleTeacher, NI: 1, IsActive: true}
	if err := s.Users().Create(ctx, teacher); err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	room := &domain.Room{Name: "Lab A", Capacity: 30}
	if err := s.Rooms().Create(ctx, room); err != nil {
		t.Fatalf("create room: %v", err)
	}
	subject := &domain.Subject{Name: "Redes", Course: "TI", Hours: 60, TeacherID: &teacher.ID}
	if err := s.Subjects().Create(ctx, subject); err != nil {
		t.Fatalf("create subject: %v", err)
	}
	return &fixture{store: s, teacher: teacher, room: room, subject: subject}
}

func (f *fixture) reserve(t *testing.T, start, end string, period domain.Period) (*domain.Reservation, error) {
	t.Helper()
	res := &domain.Reservation{
		Range:     domain.DateRange{Start: domain.MustParseDate(start), End: domain.MustParseDate(end)},
		Period:    period,
		RoomID:    f.room.ID,
		TeacherID: f.teacher.ID,
		SubjectID: f.subject.ID,
	}
	err := f.store.Reservations().WithSlotLock(context.Background(), res.Slot(), func(tx domain.ReservationTx) error {
		return tx.Create(context.Background(), res)
	})
	return res, err
}

func TestUserUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var dup *domain.DuplicateError
	err := f.store.Users().Create(ctx, &domain.User{Username: "t1", NI: 99})
	if !errors.As(err, &dup) || dup.Field != "username" {
		t.Fatalf("expected username duplicate, got %v", err)
	}
	err = f.store.Users().Create(ctx, &domain.User{Username: "other", NI: 1})
	if !errors.As(err, &dup) || dup.Field != "ni" {
		t.Fatalf("expected ni duplicate, got %v", err)
	}

	found, err := f.store.Users().GetByNI(ctx, 1)
	if err != nil || found.ID != f.teacher.ID {
		t.Fatalf("GetByNI = %v, %v", found, err)
	}
}

func TestDeleteTeacherCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.reserve(t, "2024-03-01", "2024-03-05", domain.PeriodMorning); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := f.store.Users().Delete(ctx, f.teacher.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	subject, err := f.store.Subjects().GetByID(ctx, f.subject.ID)
	if err != nil {
		t.Fatalf("subject should survive: %v", err)
	}
	if subject.TeacherID != nil {
		t.Fatalf("teacher should be cleared, got %d", *subject.TeacherID)
	}
	list, _ := f.store.Reservations().List(ctx, domain.ReservationFilter{})
	if len(list) != 0 {
		t.Fatalf("reservations should cascade, got %d", len(list))
	}
}

func TestDeleteRoomAndSubjectCascade(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	f.reserve(t, "2024-03-01", "2024-03-05", domain.PeriodMorning)
	if err := f.store.Rooms().Delete(ctx, f.room.ID); err != nil {
		t.Fatalf("delete room: %v", err)
	}
	if list, _ := f.store.Reservations().List(ctx, domain.ReservationFilter{}); len(list) != 0 {
		t.Fatalf("room delete left %d reservations", len(list))
	}

	f = newFixture(t)
	f.reserve(t, "2024-03-01", "2024-03-05", domain.PeriodMorning)
	if err := f.store.Subjects().Delete(ctx, f.subject.ID); err != nil {
		t.Fatalf("delete subject: %v", err)
	}
	if list, _ := f.store.Reservations().List(ctx, domain.ReservationFilter{}); len(list) != 0 {
		t.Fatalf("subject delete left %d reservations", len(list))
	}
}

func TestSlotLockRejectsOverlapAndRollsBack(t *testing.T) {
	f := newFixture(t)
	first, err := f.reserve(t, "2024-03-01", "2024-03-05", domain.PeriodMorning)
	if err != nil {
		t.Fatalf("first: %v", err)
	}

	var conflict *domain.ConflictError
	if _, err := f.reserve(t, "2024-03-05", "2024-03-07", domain.PeriodMorning); !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := f.reserve(t, "2024-03-05", "2024-03-07", domain.PeriodAfternoon); err != nil {
		t.Fatalf("different period should pass: %v", err)
	}

	boom := errors.New("boom")
	err = f.store.Reservations().WithSlotLock(context.Background(), first.Slot(), func(tx domain.ReservationTx) error {
		res := &domain.Reservation{
			Range:  domain.DateRange{Start: domain.MustParseDate("2024-04-01"), End: domain.MustParseDate("2024-04-01")},
			Period: domain.PeriodEvening, RoomID: f.room.ID, TeacherID: f.teacher.ID, SubjectID: f.subject.ID,
		}
		if err := tx.Create(context.Background(), res); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	list, _ := f.store.Reservations().List(context.Background(), domain.ReservationFilter{})
	if len(list) != 2 {
		t.Fatalf("rolled back write leaked: %d reservations", len(list))
	}
}

func TestReservationMissingReferences(t *testing.T) {
	f := newFixture(t)
	res := &domain.Reservation{
		Range:  domain.DateRange{Start: domain.MustParseDate("2024-04-01"), End: domain.MustParseDate("2024-04-01")},
		Period: domain.PeriodMorning, RoomID: 999, TeacherID: f.teacher.ID, SubjectID: 999,
	}
	err := f.store.Reservations().WithSlotLock(context.Background(), res.Slot(), func(tx domain.ReservationTx) error {
		return tx.Create(context.Background(), res)
	})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields["sala_reservada"] == "" || ve.Fields["disciplina"] == "" {
		t.Fatalf("expected reference errors, got %v", err)
	}
}

func TestReturnedEntitiesAreCopies(t *testing.T) {
	f := newFixture(t)
	room, _ := f.store.Rooms().GetByID(context.Background(), f.room.ID)
	room.Name = "mutated"
	again, _ := f.store.Rooms().GetByID(context.Background(), f.room.ID)
	if again.Name != "Lab A" {
		t.Fatalf("store aliased returned entity")
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	s := NewSessionStore()
	ctx := context.Background()
	now := s.now()
	_ = s.Save(ctx, &domain.Session{ID: "a", UserID: 1, ExpiresAt: now.Add(time.Minute)})
	_ = s.Save(ctx, &domain.Session{ID: "b", UserID: 1, ExpiresAt: now.Add(-time.Minute)})

	if _, err := s.Get(ctx, "a"); err != nil {
		t.Fatalf("live session: %v", err)
	}
	if _, err := s.Get(ctx, "b"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expired session: %v", err)
	}
	_ = s.Revoke(ctx, "a")
	if _, err := s.Get(ctx, "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("revoked session: %v", err)
	}
}

func TestSessionStoreSweep(t *testing.T) {
	s := NewSessionStore()
	ctx := context.Background()
	now := s.now()
	_ = s.Save(ctx, &domain.Session{ID: "live", UserID: 1, ExpiresAt: now.Add(time.Hour)})
	_ = s.Save(ctx, &domain.Session{ID: "old1", UserID: 1, ExpiresAt: now.Add(-time.Hour)})
	_ = s.Save(ctx, &domain.Session{ID: "old2", UserID: 2, ExpiresAt: now.Add(-time.Second)})

	removed, err := s.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 2 || s.Len() != 1 {
		t.Fatalf("removed=%d len=%d, want 2 and 1", removed, s.Len())
	}
	if _, err := s.Get(ctx, "live"); err != nil {
		t.Fatalf("live session swept: %v", err)
	}
}
