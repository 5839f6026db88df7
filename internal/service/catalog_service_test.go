package service

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/security"
)

func TestRoomLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	room := e.addRoom(t, "Lab A")

	rooms, err := e.rooms.List(ctx, e.t1)
	if err != nil || len(rooms) != 1 {
		t.Fatalf("teacher list: %v %v", rooms, err)
	}

	var forbidden *domain.ForbiddenError
	if _, err := e.rooms.Update(ctx, e.t1, room.ID, RoomFields{Capacity: ptr(10)}, true); !errors.As(err, &forbidden) {
		t.Fatalf("teacher update: expected forbidden, got %v", err)
	}

	updated, err := e.rooms.Update(ctx, e.manager, room.ID, RoomFields{Capacity: ptr(40)}, true)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if updated.Capacity != 40 || updated.Name != "Lab A" {
		t.Fatalf("unexpected room %+v", updated)
	}

	var ve *domain.ValidationError
	if _, err := e.rooms.Update(ctx, e.manager, room.ID, RoomFields{Capacity: ptr(0)}, true); !errors.As(err, &ve) || ve.Fields["capacidade"] == "" {
		t.Fatalf("zero capacity: expected validation error, got %v", err)
	}
	if _, err := e.rooms.Update(ctx, e.manager, room.ID, RoomFields{Name: ptr("  ")}, true); !errors.As(err, &ve) || ve.Fields["nome"] != MsgBlank {
		t.Fatalf("blank name: expected validation error, got %v", err)
	}

	name, err := e.rooms.Delete(ctx, e.manager, room.ID)
	if err != nil || name != "Lab A" {
		t.Fatalf("delete: %q %v", name, err)
	}
	var nf *domain.NotFoundError
	if _, err := e.rooms.Delete(ctx, e.manager, room.ID); !errors.As(err, &nf) || nf.Message != MsgRoomNotFound {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
}

func TestNullOnRequiredFieldIsRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	room := e.addRoom(t, "Lab A")

	var in RoomFields
	if err := json.Unmarshal([]byte(`{"nome":null,"capacidade":null}`), &in); err != nil {
		t.Fatalf("decode: %v", err)
	}
	_, err := e.rooms.Update(ctx, e.manager, room.ID, in, true)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields["nome"] != MsgNull || ve.Fields["capacidade"] != MsgNull {
		t.Fatalf("expected null errors, got %v", err)
	}
	got, err := e.rooms.Get(ctx, e.manager, room.ID)
	if err != nil || got.Name != "Lab A" || got.Capacity != 30 {
		t.Fatalf("room changed: %+v %v", got, err)
	}

	// Full updates report null rather than missing.
	if _, err := e.rooms.Update(ctx, e.manager, room.ID, in, false); !errors.As(err, &ve) || ve.Fields["nome"] != MsgNull {
		t.Fatalf("full update: expected null error, got %v", err)
	}

	var subject SubjectFields
	if err := json.Unmarshal([]byte(`{"descricao":null,"professor":null,"curso":null}`), &subject); err != nil {
		t.Fatalf("decode subject: %v", err)
	}
	if err := subject.check(false); !errors.As(err, &ve) || ve.Fields["curso"] != MsgNull || len(ve.Fields) != 1 {
		t.Fatalf("only curso should reject null, got %v", err)
	}

	var res ReservationFields
	if err := json.Unmarshal([]byte(`{"data_inicio":null,"periodo":null}`), &res); err != nil {
		t.Fatalf("decode reservation: %v", err)
	}
	if err := res.check(false); !errors.As(err, &ve) || ve.Fields["data_inicio"] != MsgNull || ve.Fields["periodo"] != MsgNull {
		t.Fatalf("reservation nulls: got %v", err)
	}
}

func TestSubjectTeacherMustBeTeacher(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	name, course, hours := "Redes", "TI", 40

	in := SubjectFields{Name: &name, Course: &course, Hours: &hours, TeacherID: domain.NullableOf(e.manager.UserID)}
	var ve *domain.ValidationError
	if _, err := e.subjects.Create(ctx, e.manager, in); !errors.As(err, &ve) || ve.Fields["professor"] != MsgNotATeacher {
		t.Fatalf("manager as professor: expected validation error, got %v", err)
	}

	in.TeacherID = domain.NullableOf(int64(999))
	if _, err := e.subjects.Create(ctx, e.manager, in); !errors.As(err, &ve) || ve.Fields["professor"] == "" {
		t.Fatalf("unknown professor: expected validation error, got %v", err)
	}

	in.TeacherID = domain.Nullable[int64]{}
	subject, err := e.subjects.Create(ctx, e.manager, in)
	if err != nil {
		t.Fatalf("subject without professor: %v", err)
	}
	if subject.TeacherID != nil {
		t.Fatalf("expected no professor")
	}
}

func TestListOwnSubjects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addSubject(t, "Banco de Dados", e.t1)
	e.addSubject(t, "Redes", e.t2)
	e.addSubject(t, "Ética", nil)

	own, err := e.subjects.ListOwn(ctx, e.t1)
	if err != nil {
		t.Fatalf("own subjects: %v", err)
	}
	if len(own) != 1 || own[0].Name != "Banco de Dados" {
		t.Fatalf("unexpected own subjects %+v", own)
	}

	var forbidden *domain.ForbiddenError
	if _, err := e.subjects.ListOwn(ctx, e.manager); !errors.As(err, &forbidden) || forbidden.Message != security.MsgTeachersOnly {
		t.Fatalf("manager own subjects: expected teachers-only, got %v", err)
	}

	all, err := e.subjects.List(ctx, e.t1)
	if err != nil || len(all) != 3 {
		t.Fatalf("list: %d %v", len(all), err)
	}
}
