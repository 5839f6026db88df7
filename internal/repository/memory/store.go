// Package memory provides mutex-guarded in-memory repositories with the same
// referential behaviour as the PostgreSQL schema. It backs development mode
// and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/repository"
)

// Store holds every entity table behind a single lock so cascades and slot
// locks are atomic.
type Store struct {
	mu           sync.RWMutex
	users        map[int64]*domain.User
	rooms        map[int64]*domain.Room
	subjects     map[int64]*domain.Subject
	reservations map[int64]*domain.Reservation
	nextID       map[string]int64
}

func NewStore() *Store {
	return &Store{
		users:        map[int64]*domain.User{},
		rooms:        map[int64]*domain.Room{},
		subjects:     map[int64]*domain.Subject{},
		reservations: map[int64]*domain.Reservation{},
		nextID:       map[string]int64{},
	}
}

func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }
func (s *Store) Rooms() *RoomRepository { return &RoomRepository{s: s} }
func (s *Store) Subjects() *SubjectRepository { return &SubjectRepository{s: s} }
func (s *Store) Reservations() *ReservationRepository { return &ReservationRepository{s: s} }

// Ping always succeeds; it lets the store stand in for a database health check.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) allocate(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, domain.ErrNotFound)
}

func sortedValues[T any](m map[int64]*T, keep func(*T) bool, clone func(*T) *T) []*T {
	ids := slices.Sorted(maps.Keys(m))
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		if keep == nil || keep(m[id]) {
			out = append(out, clone(m[id]))
		}
	}
	return out
}

// UserRepository implements domain.UserRepository
type UserRepository struct{ s *Store }

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.Phone != nil {
		p := *u.Phone
		c.Phone = &p
	}
	return &c
}

func (r *UserRepository) checkUnique(u *domain.User) error {
	for _, other := range r.s.users {
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username {
			return &domain.DuplicateError{Field: "username"}
		}
		if other.NI == u.NI {
			return &domain.DuplicateError{Field: "ni"}
		}
	}
	return nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.ID = 0
	if err := r.checkUnique(user); err != nil {
		return err
	}
	user.ID = r.s.allocate("users")
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, notFound("user", id)
}

func (r *UserRepository) find(match func(*domain.User) bool) (*domain.User, bool) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			return cloneUser(u), true
		}
	}
	return nil, false
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := r.find(func(u *domain.User) bool { return u.Username == username }); ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
}

func (r *UserRepository) GetByNI(_ context.Context, ni int64) (*domain.User, error) {
	if u, ok := r.find(func(u *domain.User) bool { return u.NI == ni }); ok {
		return u, nil
	}
	return nil, fmt.Errorf("user ni %d: %w", ni, domain.ErrNotFound)
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.users[user.ID]
	if !ok {
		return notFound("user", user.ID)
	}
	if err := r.checkUnique(user); err != nil {
		return err
	}
	updated := cloneUser(user)
	updated.DateJoined = current.DateJoined
	r.s.users[user.ID] = updated
	return nil
}

// Delete removes the user, clears it from subjects it taught and removes its
// reservations.
func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return notFound("user", id)
	}
	delete(r.s.users, id)
	for _, subject := range r.s.subjects {
		if subject.TeacherID != nil && *subject.TeacherID == id {
			subject.TeacherID = nil
		}
	}
	for rid, res := range r.s.reservations {
		if res.TeacherID == id {
			delete(r.s.reservations, rid)
		}
	}
	return nil
}

func (r *UserRepository) List(_ context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.users, func(u *domain.User) bool {
		return filter.Role == "" || u.Role == filter.Role
	}, cloneUser), nil
}

// RoomRepository implements domain.RoomRepository
type RoomRepository struct{ s *Store }

func cloneRoom(room *domain.Room) *domain.Room {
	c := *room
	return &c
}

func (r *RoomRepository) Create(_ context.Context, room *domain.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room.ID = r.s.allocate("rooms")
	r.s.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (r *RoomRepository) GetByID(_ context.Context, id int64) (*domain.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if room, ok := r.s.rooms[id]; ok {
		return cloneRoom(room), nil
	}
	return nil, notFound("room", id)
}

func (r *RoomRepository) Update(_ context.Context, room *domain.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rooms[room.ID]; !ok {
		return notFound("room", room.ID)
	}
	r.s.rooms[room.ID] = cloneRoom(room)
	return nil
}

// Delete removes the room and its reservations.
func (r *RoomRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rooms[id]; !ok {
		return notFound("room", id)
	}
	delete(r.s.rooms, id)
	for rid, res := range r.s.reservations {
		if res.RoomID == id {
			delete(r.s.reservations, rid)
		}
	}
	return nil
}

func (r *RoomRepository) List(context.Context) ([]*domain.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.rooms, nil, cloneRoom), nil
}

// SubjectRepository implements domain.SubjectRepository
type SubjectRepository struct{ s *Store }

func cloneSubject(subject *domain.Subject) *domain.Subject {
	c := *subject
	if subject.Description != nil {
		d := *subject.Description
		c.Description = &d
	}
	if subject.TeacherID != nil {
		t := *subject.TeacherID
		c.TeacherID = &t
	}
	return &c
}

func (r *SubjectRepository) checkRefs(subject *domain.Subject) error {
	if subject.TeacherID != nil {
		if _, ok := r.s.users[*subject.TeacherID]; !ok {
			return domain.NewValidationError("professor", repository.MsgMissingReference)
		}
	}
	return nil
}

func (r *SubjectRepository) Create(_ context.Context, subject *domain.Subject) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.checkRefs(subject); err != nil {
		return err
	}
	subject.ID = r.s.allocate("subjects")
	r.s.subjects[subject.ID] = cloneSubject(subject)
	return nil
}

func (r *SubjectRepository) GetByID(_ context.Context, id int64) (*domain.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if subject, ok := r.s.subjects[id]; ok {
		return cloneSubject(subject), nil
	}
	return nil, notFound("subject", id)
}

func (r *SubjectRepository) Update(_ context.Context, subject *domain.Subject) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subjects[subject.ID]; !ok {
		return notFound("subject", subject.ID)
	}
	if err := r.checkRefs(subject); err != nil {
		return err
	}
	r.s.subjects[subject.ID] = cloneSubject(subject)
	return nil
}

// Delete removes the subject and its reservations.
func (r *SubjectRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subjects[id]; !ok {
		return notFound("subject", id)
	}
	delete(r.s.subjects, id)
	for rid, res := range r.s.reservations {
		if res.SubjectID == id {
			delete(r.s.reservations, rid)
		}
	}
	return nil
}

func (r *SubjectRepository) List(_ context.Context, filter domain.SubjectFilter) ([]*domain.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.subjects, func(s *domain.Subject) bool {
		return filter.TeacherID == nil || (s.TeacherID != nil && *s.TeacherID == *filter.TeacherID)
	}, cloneSubject), nil
}
