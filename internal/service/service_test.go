package service

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/repository/memory"
	"github.com/aryan0dhankhar/formativa/internal/scheduling"
	"github.com/aryan0dhankhar/formativa/internal/security"
	"github.com/aryan0dhankhar/formativa/internal/security/auth"
)

// env wires every service onto one memory store.
type env struct {
	store        *memory.Store
	sessions     *memory.SessionStore
	hasher       *auth.PasswordHasher
	tokens       *auth.TokenManager
	auth         *AuthService
	users        *UserService
	rooms        *RoomService
	subjects     *SubjectService
	reservations *ReservationService

	manager *domain.Identity
	t1      *domain.Identity
	t2      *domain.Identity
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	sessions := memory.NewSessionStore()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenManager("test-secret", "formativa-test", 0, 0)
	policy := security.NewPolicy(nil, nil)

	e := &env{
		store:    store,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		auth:     NewAuthService(store.Users(), sessions, tokens, hasher, nil, nil),
		users:    NewUserService(store.Users(), hasher, policy, nil, nil),
		rooms:    NewRoomService(store.Rooms(), policy, nil, nil),
		subjects: NewSubjectService(store.Subjects(), store.Users(), policy, nil, nil),
		reservations: NewReservationService(ReservationDeps{
			Reservations: store.Reservations(),
			Rooms:        store.Rooms(),
			Subjects:     store.Subjects(),
			Users:        store.Users(),
		}, scheduling.NewValidator(nil), policy, nil, nil),
	}
	e.manager = e.addUser(t, "gestor", domain.RoleManager, 1).Identity()
	e.t1 = e.addUser(t, "t1", domain.RoleTeacher, 2).Identity()
	e.t2 = e.addUser(t, "t2", domain.RoleTeacher, 3).Identity()
	return e
}

func (e *env) addUser(t *testing.T, username string, role domain.Role, ni int64) *domain.User {
	t.Helper()
	hash, err := e.hasher.Hash("senha123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &domain.User{
		Username:     username,
		Role:         role,
		NI:           ni,
		BirthDate:    domain.MustParseDate("1990-01-01"),
		HireDate:     domain.MustParseDate("2020-01-01"),
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := e.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func (e *env) addRoom(t *testing.T, name string) *domain.Room {
	t.Helper()
	capacity := 30
	room, err := e.rooms.Create(context.Background(), e.manager, RoomFields{Name: &name, Capacity: &capacity})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room
}

func (e *env) addSubject(t *testing.T, name string, teacher *domain.Identity) *domain.Subject {
	t.Helper()
	course, hours := "Desenvolvimento de Sistemas", 60
	in := SubjectFields{Name: &name, Course: &course, Hours: &hours}
	if teacher != nil {
		in.TeacherID = domain.NullableOf(teacher.UserID)
	}
	subject, err := e.subjects.Create(context.Background(), e.manager, in)
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	return subject
}

func reservationFields(start, end string, period domain.Period, room *domain.Room, teacher *domain.Identity, subject *domain.Subject) ReservationFields {
	s, en := domain.MustParseDate(start), domain.MustParseDate(end)
	return ReservationFields{
		StartDate: &s,
		EndDate:   &en,
		Period:    &period,
		RoomID:    &room.ID,
		TeacherID: &teacher.UserID,
		SubjectID: &subject.ID,
	}
}

func ptr[T any](v T) *T { return &v }
