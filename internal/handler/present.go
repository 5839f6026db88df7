package handler

import (
	"time"

	"github.com/aryan0dhankhar/formativa/internal/domain"
)

// UserResponse is the public view of an identity. It never carries the
// password hash.
type UserResponse struct {
	ID         int64       `json:"id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	Role       domain.Role `json:"tipo"`
	NI         int64       `json:"ni"`
	Phone      *string     `json:"telefone"`
	BirthDate  domain.Date `json:"data_nascimento"`
	HireDate   domain.Date `json:"data_contratacao"`
	IsActive   bool        `json:"is_active"`
	DateJoined time.Time   `json:"date_joined"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		NI:         u.NI,
		Phone:      u.Phone,
		BirthDate:  u.BirthDate,
		HireDate:   u.HireDate,
		IsActive:   u.IsActive,
		DateJoined: u.DateJoined,
	}
}

type RoomResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"nome"`
	Capacity int    `json:"capacidade"`
}

func newRoomResponse(r *domain.Room) RoomResponse {
	return RoomResponse{ID: r.ID, Name: r.Name, Capacity: r.Capacity}
}

type SubjectResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"nome"`
	Course      string  `json:"curso"`
	Hours       int     `json:"carga_horaria"`
	Description *string `json:"descricao"`
	TeacherID   *int64  `json:"professor"`
}

func newSubjectResponse(s *domain.Subject) SubjectResponse {
	return SubjectResponse{
		ID:          s.ID,
		Name:        s.Name,
		Course:      s.Course,
		Hours:       s.Hours,
		Description: s.Description,
		TeacherID:   s.TeacherID,
	}
}

type ReservationResponse struct {
	ID        int64         `json:"id"`
	StartDate domain.Date   `json:"data_inicio"`
	EndDate   domain.Date   `json:"data_termino"`
	Period    domain.Period `json:"periodo"`
	RoomID    int64         `json:"sala_reservada"`
	TeacherID int64         `json:"professor"`
	SubjectID int64         `json:"disciplina"`
}

func newReservationResponse(r *domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:        r.ID,
		StartDate: r.Range.Start,
		EndDate:   r.Range.End,
		Period:    r.Period,
		RoomID:    r.RoomID,
		TeacherID: r.TeacherID,
		SubjectID: r.SubjectID,
	}
}

// mapAll converts a listing; an empty listing renders as [] rather than null.
func mapAll[T any, R any](items []*T, convert func(*T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, convert(item))
	}
	return out
}
