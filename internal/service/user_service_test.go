package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/security"
)

func newUserFields(username string, ni int64) UserFields {
	birth, hire := domain.MustParseDate("1985-05-20"), domain.MustParseDate("2015-02-01")
	return UserFields{
		Username:  &username,
		Role:      ptr(domain.RoleTeacher),
		Email:     domain.NullableOf(username + "@escola.br"),
		NI:        &ni,
		Phone:     domain.NullableOf("11 99999-0000"),
		BirthDate: &birth,
		HireDate:  &hire,
		Password:  ptr("segredo1"),
	}
}

func TestCreateUserHashesPassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user, err := e.users.Create(ctx, e.manager, newUserFields("ana", 100))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Role != domain.RoleTeacher {
		t.Fatalf("expected role P, got %q", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "segredo1" {
		t.Fatalf("password was not hashed")
	}
	if ok, _ := e.hasher.Verify(user.PasswordHash, "segredo1"); !ok {
		t.Fatalf("stored hash does not verify")
	}
	if _, err := e.auth.Login(ctx, "ana", "segredo1"); err != nil {
		t.Fatalf("new user cannot log in: %v", err)
	}
}

func TestCreateUserRequiresRole(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	in := newUserFields("semtipo", 999)
	in.Role = nil
	_, err := e.users.Create(ctx, e.manager, in)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields["tipo"] != MsgRequired {
		t.Fatalf("expected tipo required, got %v", err)
	}
	if _, err := e.store.Users().GetByUsername(ctx, "semtipo"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("identity without tipo was stored: %v", err)
	}
}

func TestUpdateUserRehashesPassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.users.Update(ctx, e.manager, e.t1.UserID, UserFields{Password: ptr("nova-senha")}, true); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := e.auth.Login(ctx, "t1", "senha123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, err := e.auth.Login(ctx, "t1", "nova-senha"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestPartialUpdateKeepsOtherFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	before, err := e.users.Create(ctx, e.manager, newUserFields("bruno", 101))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	after, err := e.users.Update(ctx, e.manager, before.ID, UserFields{FirstName: ptr("Bruno")}, true)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if after.FirstName != "Bruno" {
		t.Fatalf("first_name not applied")
	}
	if after.Username != before.Username || after.NI != before.NI || after.Email != before.Email ||
		*after.Phone != *before.Phone || !after.BirthDate.Equal(before.BirthDate) || after.PasswordHash != before.PasswordHash {
		t.Fatalf("partial update touched other fields:\nbefore %+v\nafter  %+v", before, after)
	}

	cleared, err := e.users.Update(ctx, e.manager, before.ID, UserFields{Phone: domain.Nullable[string]{Set: true, Null: true}}, true)
	if err != nil {
		t.Fatalf("clear phone: %v", err)
	}
	if cleared.Phone != nil {
		t.Fatalf("explicit null should clear telefone")
	}
}

func TestFullUpdateRequiresFields(t *testing.T) {
	e := newEnv(t)

	_, err := e.users.Update(context.Background(), e.manager, e.t1.UserID, UserFields{FirstName: ptr("X")}, false)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"username", "tipo", "ni", "data_nascimento", "data_contratacao"} {
		if ve.Fields[field] != MsgRequired {
			t.Errorf("%s: got %q", field, ve.Fields[field])
		}
	}
}

func TestCreateUserValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	dup := newUserFields("t1", 500)
	_, err := e.users.Create(ctx, e.manager, dup)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields["username"] != MsgUsernameTaken {
		t.Fatalf("expected duplicate username, got %v", err)
	}

	dupNI := newUserFields("carla", 2)
	if _, err := e.users.Create(ctx, e.manager, dupNI); !errors.As(err, &ve) || ve.Fields["ni"] != MsgNITaken {
		t.Fatalf("expected duplicate ni, got %v", err)
	}

	bad := newUserFields("davi", 501)
	bad.Role = ptr(domain.Role("X"))
	bad.Email = domain.NullableOf("not-an-email")
	if _, err := e.users.Create(ctx, e.manager, bad); !errors.As(err, &ve) || ve.Fields["tipo"] == "" || ve.Fields["email"] == "" {
		t.Fatalf("expected tipo and email errors, got %v", err)
	}

	noPassword := newUserFields("eva", 502)
	noPassword.Password = nil
	if _, err := e.users.Create(ctx, e.manager, noPassword); !errors.As(err, &ve) || ve.Fields["password"] != MsgRequired {
		t.Fatalf("expected password required, got %v", err)
	}
}

func TestUsersAreManagerOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	var forbidden *domain.ForbiddenError
	if _, err := e.users.List(ctx, e.t1); !errors.As(err, &forbidden) || forbidden.Message != security.MsgManagersOnly {
		t.Fatalf("teacher list: expected managers-only, got %v", err)
	}
	if _, err := e.users.Get(ctx, e.t1, e.t1.UserID); !errors.As(err, &forbidden) {
		t.Fatalf("teacher retrieve: expected forbidden, got %v", err)
	}

	var nf *domain.NotFoundError
	if _, err := e.users.Get(ctx, e.manager, 999); !errors.As(err, &nf) || nf.Message != MsgUserNotFound {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestDeleteTeacherClearsSubjectsAndRemovesReservations(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	lab := e.addRoom(t, "Lab A")
	subject := e.addSubject(t, "Banco de Dados", e.t1)
	if _, err := e.reservations.Create(ctx, e.manager,
		reservationFields("2024-03-01", "2024-03-02", domain.PeriodMorning, lab, e.t1, subject)); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	name, err := e.users.Delete(ctx, e.manager, e.t1.UserID)
	if err != nil || name != "t1" {
		t.Fatalf("delete: %q %v", name, err)
	}

	got, err := e.subjects.Get(ctx, e.manager, subject.ID)
	if err != nil {
		t.Fatalf("subject should survive: %v", err)
	}
	if got.TeacherID != nil {
		t.Fatalf("subject professor should be cleared")
	}
	all, _ := e.reservations.List(ctx, e.manager, nil)
	if len(all) != 0 {
		t.Fatalf("teacher reservations should be removed, found %d", len(all))
	}
}
