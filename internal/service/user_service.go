package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/observability/tracing"
	"github.com/aryan0dhankhar/formativa/internal/security"
	"github.com/aryan0dhankhar/formativa/internal/security/audit"
	"github.com/aryan0dhankhar/formativa/internal/security/auth"
)

// UserService manages identities. Every operation is manager-only.
type UserService struct {
	repo   domain.UserRepository
	hasher *auth.PasswordHasher
	policy *security.Policy
	audit  *audit.Logger
	logger *slog.Logger
}

func NewUserService(repo domain.UserRepository, hasher *auth.PasswordHasher, policy *security.Policy, auditLogger *audit.Logger, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLogger == nil {
		auditLogger = audit.NewLogger(logger)
	}
	return &UserService{repo: repo, hasher: hasher, policy: policy, audit: auditLogger, logger: logger}
}

func (s *UserService) List(ctx context.Context, caller *domain.Identity) ([]*domain.User, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceUser, security.ActionList, nil); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx, domain.UserFilter{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, caller *domain.Identity, id int64) (*domain.User, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceUser, security.ActionRetrieve, nil); err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, MsgUserNotFound)
	}
	return user, nil
}

// Create registers a new identity. tipo is required.
func (s *UserService) Create(ctx context.Context, caller *domain.Identity, in UserFields) (user *domain.User, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "UserService.Create")
	defer func() { endSpan(span, err) }()

	if err := s.policy.Authorize(ctx, caller, security.ResourceUser, security.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := in.check(true); err != nil {
		return nil, err
	}
	if in.Password == nil {
		return nil, domain.NewValidationError("password", MsgRequired)
	}

	user = &domain.User{IsActive: true}
	in.applyTo(user)
	if user.PasswordHash, err = s.hasher.Hash(*in.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, duplicateError(err)
	}

	s.audit.LogMutation(ctx, caller, "create", string(security.ResourceUser), user.ID, user.Username)
	s.logger.Info("user created",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("tipo", string(user.Role)),
	)
	return user, nil
}

// Update applies in to the identity. partial=false demands every required
// field. A supplied password is re-hashed.
func (s *UserService) Update(ctx context.Context, caller *domain.Identity, id int64, in UserFields, partial bool) (user *domain.User, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "UserService.Update")
	defer func() { endSpan(span, err) }()

	if err := s.policy.Authorize(ctx, caller, security.ResourceUser, security.ActionUpdate, nil); err != nil {
		return nil, err
	}
	user, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, MsgUserNotFound)
	}
	if err := in.check(!partial); err != nil {
		return nil, err
	}

	in.applyTo(user)
	if in.Password != nil {
		if user.PasswordHash, err = s.hasher.Hash(*in.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, lookupError(duplicateError(err), MsgUserNotFound)
	}

	s.audit.LogMutation(ctx, caller, "update", string(security.ResourceUser), user.ID, user.Username)
	return user, nil
}

// Delete removes the identity and returns its username. Subjects it taught
// lose their teacher; its reservations are removed.
func (s *UserService) Delete(ctx context.Context, caller *domain.Identity, id int64) (string, error) {
	if err := s.policy.Authorize(ctx, caller, security.ResourceUser, security.ActionDelete, nil); err != nil {
		return "", err
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", lookupError(err, MsgUserNotFound)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return "", lookupError(err, MsgUserNotFound)
	}

	s.audit.LogMutation(ctx, caller, "delete", string(security.ResourceUser), id, user.Username)
	s.logger.Info("user deleted", slog.Int64("user_id", id), slog.String("username", user.Username))
	return user.Username, nil
}

// CreateManager bootstraps a manager identity outside any request, for the
// CLI. It bypasses the policy because no manager may exist yet.
func (s *UserService) CreateManager(ctx context.Context, in UserFields) (*domain.User, error) {
	role := domain.RoleManager
	in.Role = &role
	if err := in.check(true); err != nil {
		return nil, err
	}
	if in.Password == nil {
		return nil, domain.NewValidationError("password", MsgRequired)
	}

	user := &domain.User{IsActive: true}
	in.applyTo(user)
	hash, err := s.hasher.Hash(*in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, duplicateError(err)
	}
	s.logger.Info("manager created", slog.Int64("user_id", user.ID), slog.String("username", user.Username))
	return user, nil
}
