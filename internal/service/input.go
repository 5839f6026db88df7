package service

import (
	"bytes"
	"errors"
	"strings"

	"github.com/goccy/go-json"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/validation"
)

// Request payloads. Pointer and Nullable fields tell an absent key apart from
// a supplied one, so the same type serves create, full update and partial
// update: full=true demands every required key, full=false only checks the
// keys present. A JSON null cannot be told apart from an absent key by a
// pointer, so each payload also records which keys arrived as null.

const (
	MsgBlank = "Este campo não pode ser em branco."
	MsgNull  = "Este campo não pode ser nulo."
)

// UserFields is the writable view of an identity.
type UserFields struct {
	Username  *string                 `json:"username" validate:"omitempty,max=150"`
	Email     domain.Nullable[string] `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string                 `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string                 `json:"last_name" validate:"omitempty,max=150"`
	Role      *domain.Role            `json:"tipo" validate:"omitempty,oneof=G P"`
	NI        *int64                  `json:"ni" validate:"omitempty,gte=0"`
	Phone     domain.Nullable[string] `json:"telefone" validate:"omitempty,max=20"`
	BirthDate *domain.Date            `json:"data_nascimento"`
	HireDate  *domain.Date            `json:"data_contratacao"`
	Password  *string                 `json:"password" validate:"omitempty,max=128"`

	nulls nullKeys
}

func (f *UserFields) UnmarshalJSON(b []byte) error {
	type plain UserFields
	return decodeFields(b, (*plain)(f), &f.nulls)
}

func (f *UserFields) check(full bool) error {
	ve := &domain.ValidationError{}
	f.nulls.reject(ve, "username", "first_name", "last_name", "tipo", "ni",
		"data_nascimento", "data_contratacao", "password")
	requireString(ve, "username", f.Username, full)
	requireValue(ve, "tipo", f.Role, full)
	requireValue(ve, "ni", f.NI, full)
	requireDate(ve, "data_nascimento", f.BirthDate, full)
	requireDate(ve, "data_contratacao", f.HireDate, full)
	if f.Password != nil && *f.Password == "" {
		ve.Add("password", MsgBlank)
	}
	return merge(ve, validation.Struct(f))
}

// applyTo copies supplied fields onto u. The password is handled separately.
func (f *UserFields) applyTo(u *domain.User) {
	if f.Username != nil {
		u.Username = strings.TrimSpace(*f.Username)
	}
	if f.Email.Set {
		u.Email = f.Email.Value
	}
	if f.FirstName != nil {
		u.FirstName = *f.FirstName
	}
	if f.LastName != nil {
		u.LastName = *f.LastName
	}
	if f.Role != nil {
		u.Role = *f.Role
	}
	if f.NI != nil {
		u.NI = *f.NI
	}
	if f.Phone.Set {
		u.Phone = f.Phone.Ptr()
	}
	if f.BirthDate != nil {
		u.BirthDate = *f.BirthDate
	}
	if f.HireDate != nil {
		u.HireDate = *f.HireDate
	}
}

// RoomFields is the writable view of a room.
type RoomFields struct {
	Name     *string `json:"nome" validate:"omitempty,max=255"`
	Capacity *int    `json:"capacidade" validate:"omitempty,gt=0"`

	nulls nullKeys
}

func (f *RoomFields) UnmarshalJSON(b []byte) error {
	type plain RoomFields
	return decodeFields(b, (*plain)(f), &f.nulls)
}

func (f *RoomFields) check(full bool) error {
	ve := &domain.ValidationError{}
	f.nulls.reject(ve, "nome", "capacidade")
	requireString(ve, "nome", f.Name, full)
	requireValue(ve, "capacidade", f.Capacity, full)
	return merge(ve, validation.Struct(f))
}

func (f *RoomFields) applyTo(r *domain.Room) {
	if f.Name != nil {
		r.Name = strings.TrimSpace(*f.Name)
	}
	if f.Capacity != nil {
		r.Capacity = *f.Capacity
	}
}

// SubjectFields is the writable view of a subject.
type SubjectFields struct {
	Name        *string                 `json:"nome" validate:"omitempty,max=255"`
	Course      *string                 `json:"curso" validate:"omitempty,max=255"`
	Hours       *int                    `json:"carga_horaria" validate:"omitempty,gt=0"`
	Description domain.Nullable[string] `json:"descricao"`
	TeacherID   domain.Nullable[int64]  `json:"professor"`

	nulls nullKeys
}

func (f *SubjectFields) UnmarshalJSON(b []byte) error {
	type plain SubjectFields
	return decodeFields(b, (*plain)(f), &f.nulls)
}

func (f *SubjectFields) check(full bool) error {
	ve := &domain.ValidationError{}
	f.nulls.reject(ve, "nome", "curso", "carga_horaria")
	requireString(ve, "nome", f.Name, full)
	requireString(ve, "curso", f.Course, full)
	requireValue(ve, "carga_horaria", f.Hours, full)
	return merge(ve, validation.Struct(f))
}

func (f *SubjectFields) applyTo(s *domain.Subject) {
	if f.Name != nil {
		s.Name = strings.TrimSpace(*f.Name)
	}
	if f.Course != nil {
		s.Course = strings.TrimSpace(*f.Course)
	}
	if f.Hours != nil {
		s.Hours = *f.Hours
	}
	if f.Description.Set {
		s.Description = f.Description.Ptr()
	}
	if f.TeacherID.Set {
		s.TeacherID = f.TeacherID.Ptr()
	}
}

// ReservationFields is the writable view of a reservation.
type ReservationFields struct {
	StartDate *domain.Date   `json:"data_inicio"`
	EndDate   *domain.Date   `json:"data_termino"`
	Period    *domain.Period `json:"periodo" validate:"omitempty,oneof=M T N"`
	RoomID    *int64         `json:"sala_reservada"`
	TeacherID *int64         `json:"professor"`
	SubjectID *int64         `json:"disciplina"`

	nulls nullKeys
}

func (f *ReservationFields) UnmarshalJSON(b []byte) error {
	type plain ReservationFields
	return decodeFields(b, (*plain)(f), &f.nulls)
}

func (f *ReservationFields) check(full bool) error {
	ve := &domain.ValidationError{}
	f.nulls.reject(ve, "data_inicio", "data_termino", "periodo", "sala_reservada", "professor", "disciplina")
	requireDate(ve, "data_inicio", f.StartDate, full)
	requireDate(ve, "data_termino", f.EndDate, full)
	requireValue(ve, "sala_reservada", f.RoomID, full)
	requireValue(ve, "professor", f.TeacherID, full)
	requireValue(ve, "disciplina", f.SubjectID, full)
	return merge(ve, validation.Struct(f))
}

func (f *ReservationFields) applyTo(r *domain.Reservation) {
	if f.StartDate != nil {
		r.Range.Start = *f.StartDate
	}
	if f.EndDate != nil {
		r.Range.End = *f.EndDate
	}
	if f.Period != nil {
		r.Period = *f.Period
	}
	if f.RoomID != nil {
		r.RoomID = *f.RoomID
	}
	if f.TeacherID != nil {
		r.TeacherID = *f.TeacherID
	}
	if f.SubjectID != nil {
		r.SubjectID = *f.SubjectID
	}
}

// nullKeys is the set of payload keys whose value was JSON null.
type nullKeys map[string]bool

// reject reports MsgNull for every listed field that arrived as null.
func (n nullKeys) reject(ve *domain.ValidationError, fields ...string) {
	for _, field := range fields {
		if n[field] {
			ve.Add(field, MsgNull)
		}
	}
}

// decodeFields unmarshals b into dst and records its null keys.
func decodeFields(b []byte, dst any, nulls *nullKeys) error {
	if err := json.Unmarshal(b, dst); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*nulls = nil
	for key, value := range raw {
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			if *nulls == nil {
				*nulls = nullKeys{}
			}
			(*nulls)[key] = true
		}
	}
	return nil
}

func requireString(ve *domain.ValidationError, field string, v *string, full bool) {
	switch {
	case v == nil:
		if full {
			ve.Add(field, MsgRequired)
		}
	case strings.TrimSpace(*v) == "":
		ve.Add(field, MsgBlank)
	}
}

func requireValue[T any](ve *domain.ValidationError, field string, v *T, full bool) {
	if v == nil && full {
		ve.Add(field, MsgRequired)
	}
}

func requireDate(ve *domain.ValidationError, field string, v *domain.Date, full bool) {
	switch {
	case v == nil:
		if full {
			ve.Add(field, MsgRequired)
		}
	case v.IsZero():
		ve.Add(field, MsgNull)
	}
}

// merge folds a validation.Struct result into ve. Non-validation errors win.
func merge(ve *domain.ValidationError, err error) error {
	if err == nil {
		return ve.OrNil()
	}
	var other *domain.ValidationError
	if !errors.As(err, &other) {
		return err
	}
	for field, msg := range other.Fields {
		ve.Add(field, msg)
	}
	return ve.OrNil()
}
