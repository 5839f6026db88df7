package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/security"
	"github.com/aryan0dhankhar/formativa/internal/security/audit"
)

// SubjectService manages subjects and the teacher-scoped subject listing.
type SubjectService struct {
	repo   domain.SubjectRepository
	users  domain.UserRepository
	policy *security.Policy
	audit  *audit.Logger
	logger *slog.Logger
}

func NewSubjectService(repo domain.SubjectRepository, users domain.UserRepository, policy *security.Policy, auditLogger *audit.Logger, logger *slog.Logger) *SubjectService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLogger == nil {
		auditLogger = audit.NewLogger(logger)
	}
	return &SubjectService{repo: repo, users: users, policy: policy, audit: auditLogger, logger: logger}
}

func (s *SubjectService) List(ctx context.Context, caller *domain.Identity) ([]*domain.Subject, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceSubject, security.ActionList, nil); err != nil {
		return nil, err
	}
	return s.list(ctx, domain.SubjectFilter{})
}

// ListOwn lists the subjects taught by the calling teacher.
func (s *SubjectService) ListOwn(ctx context.Context, caller *domain.Identity) ([]*domain.Subject, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceOwnSubjects, security.ActionList, nil); err != nil {
		return nil, err
	}
	return s.list(ctx, domain.SubjectFilter{TeacherID: &caller.UserID})
}

func (s *SubjectService) list(ctx context.Context, filter domain.SubjectFilter) ([]*domain.Subject, error) {
	subjects, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

func (s *SubjectService) Get(ctx context.Context, caller *domain.Identity, id int64) (*domain.Subject, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceSubject, security.ActionRetrieve, nil); err != nil {
		return nil, err
	}
	subject, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, MsgSubjectNotFound)
	}
	return subject, nil
}

func (s *SubjectService) Create(ctx context.Context, caller *domain.Identity, in SubjectFields) (*domain.Subject, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceSubject, security.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := in.check(true); err != nil {
		return nil, err
	}
	subject := &domain.Subject{}
	in.applyTo(subject)
	if err := s.checkTeacher(ctx, subject); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	s.audit.LogMutation(ctx, caller, "create", string(security.ResourceSubject), subject.ID, subject.Name)
	return subject, nil
}

func (s *SubjectService) Update(ctx context.Context, caller *domain.Identity, id int64, in SubjectFields, partial bool) (*domain.Subject, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceSubject, security.ActionUpdate, nil); err != nil {
		return nil, err
	}
	subject, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, MsgSubjectNotFound)
	}
	if err := in.check(!partial); err != nil {
		return nil, err
	}
	in.applyTo(subject)
	if err := s.checkTeacher(ctx, subject); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, lookupError(err, MsgSubjectNotFound)
	}
	s.audit.LogMutation(ctx, caller, "update", string(security.ResourceSubject), subject.ID, subject.Name)
	return subject, nil
}

// Delete removes the subject with its reservations and returns its name.
func (s *SubjectService) Delete(ctx context.Context, caller *domain.Identity, id int64) (string, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceSubject, security.ActionDelete, nil); err != nil {
		return "", err
	}
	subject, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", lookupError(err, MsgSubjectNotFound)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return "", lookupError(err, MsgSubjectNotFound)
	}
	s.audit.LogMutation(ctx, caller, "delete", string(security.ResourceSubject), id, subject.Name)
	return subject.Name, nil
}

// checkTeacher verifies that an assigned professor exists and is a teacher.
func (s *SubjectService) checkTeacher(ctx context.Context, subject *domain.Subject) error {
	if subject.TeacherID == nil {
		return nil
	}
	return requireTeacher(ctx, s.users, "professor", *subject.TeacherID)
}

func requireTeacher(ctx context.Context, users domain.UserRepository, field string, id int64) error {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return referenceError(field, err)
	}
	if user.Role != domain.RoleTeacher {
		return domain.NewValidationError(field, MsgNotATeacher)
	}
	return nil
}
