package domain

import "context"

// Room is a bookable classroom (sala)
type Room struct {
	ID       int64
	Name     string
	Capacity int
}

// RoomRepository defines data access for rooms
type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, id int64) (*Room, error)
	Update(ctx context.Context, room *Room) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*Room, error)
}

// Subject is a course discipline (disciplina). TeacherID is cleared, not
// cascaded, when the referenced teacher is removed.
type Subject struct {
	ID          int64
	Name        string
	Course      string
	Hours       int
	Description *string
	TeacherID   *int64
}

// SubjectFilter narrows subject listings. A nil TeacherID lists everything.
type SubjectFilter struct {
	TeacherID *int64
}

// SubjectRepository defines data access for subjects
type SubjectRepository interface {
	Create(ctx context.Context, subject *Subject) error
	GetByID(ctx context.Context, id int64) (*Subject, error)
	Update(ctx context.Context, subject *Subject) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter SubjectFilter) ([]*Subject, error)
}
