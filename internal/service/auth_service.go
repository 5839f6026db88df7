package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/observability/metrics"
	"github.com/aryan0dhankhar/formativa/internal/observability/tracing"
	"github.com/aryan0dhankhar/formativa/internal/security/audit"
	"github.com/aryan0dhankhar/formativa/internal/security/auth"
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo domain.UserRepository
	sessions domain.SessionRepository
	tokens   *auth.TokenManager
	hasher   *auth.PasswordHasher
	audit    *audit.Logger
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo domain.UserRepository,
	sessions domain.SessionRepository,
	tokens *auth.TokenManager,
	hasher *auth.PasswordHasher,
	auditLogger *audit.Logger,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLogger == nil {
		auditLogger = audit.NewLogger(logger)
	}

	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		audit:    auditLogger,
		logger:   logger,
	}
}

// LoginResult represents login response
type LoginResult struct {
	Access  string
	Refresh string
	User    *domain.User
}

// Login authenticates a user and returns an access/refresh token pair
func (s *AuthService) Login(ctx context.Context, username, password string) (result *LoginResult, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "AuthService.Login")
	defer func() { endSpan(span, err) }()

	ve := &domain.ValidationError{}
	if username == "" {
		ve.Add("username", MsgRequired)
	}
	if password == "" {
		ve.Add("password", MsgRequired)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("login attempt with unknown username", slog.String("username", username))
			s.loginFailed(ctx, username)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		s.logger.Error("stored password hash unusable", slog.Int64("user_id", user.ID), slog.String("error", err.Error()))
		s.loginFailed(ctx, username)
		return nil, domain.ErrInvalidCredentials
	}
	if !ok || !user.IsActive {
		s.logger.Info("login failed", slog.String("username", username), slog.Bool("active", user.IsActive))
		s.loginFailed(ctx, username)
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.sessions.Save(ctx, &domain.Session{
		ID:        pair.RefreshID,
		UserID:    user.ID,
		Username:  user.Username,
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: pair.RefreshExpires,
	}); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID), attribute.String("user.role", string(user.Role)))
	metrics.ObserveLogin("login", "success")
	s.audit.LogLogin(ctx, user.Username, "success")
	s.logger.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return &LoginResult{Access: pair.Access, Refresh: pair.Refresh, User: user}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, username string) {
	metrics.ObserveLogin("login", "failure")
	s.audit.LogLogin(ctx, username, "failure")
}

// Refresh exchanges a live refresh token for a new access token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (access string, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "AuthService.Refresh")
	defer func() { endSpan(span, err) }()

	if refreshToken == "" {
		return "", domain.NewValidationError("refresh", MsgRequired)
	}

	claims, user, err := s.liveSession(ctx, refreshToken)
	if err != nil {
		metrics.ObserveLogin("refresh", "failure")
		return "", err
	}
	claims.Role = string(user.Role)
	claims.Username = user.Username

	access, err = s.tokens.GenerateAccess(claims)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	metrics.ObserveLogin("refresh", "success")
	return access, nil
}

// Logout revokes the session behind a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return domain.NewValidationError("refresh", MsgRequired)
	}
	claims, err := s.tokens.ValidateToken(refreshToken, auth.TokenRefresh)
	if err != nil {
		return domain.ErrInvalidToken
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.audit.LogAction(ctx, &domain.Identity{UserID: claims.UserID, Username: claims.Username, Role: domain.Role(claims.Role)},
		"logout", "session", claims.ID, "success", "")
	return nil
}

// liveSession validates a refresh token, its stored session and its user.
func (s *AuthService) liveSession(ctx context.Context, refreshToken string) (*auth.Claims, *domain.User, error) {
	claims, err := s.tokens.ValidateToken(refreshToken, auth.TokenRefresh)
	if err != nil {
		return nil, nil, domain.ErrInvalidToken
	}
	if _, err := s.sessions.Get(ctx, claims.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return claims, user, nil
}

// ResolveIdentity validates an access token and reloads its user so that
// deleted or deactivated accounts are rejected immediately.
func (s *AuthService) ResolveIdentity(ctx context.Context, accessToken string) (*domain.Identity, error) {
	claims, err := s.tokens.ValidateToken(accessToken, auth.TokenAccess)
	if err != nil {
		s.logger.Debug("access token rejected", slog.String("error", err.Error()))
		return nil, domain.ErrInvalidToken
	}
	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return user.Identity(), nil
}

func (s *AuthService) activeUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrInvalidToken
	}
	return user, nil
}
