package audit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/aryan0dhankhar/formativa/internal/domain"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID stores the request id used to correlate audit entries.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With("component", "audit")}
}

func (al *Logger) LogAction(ctx context.Context, caller *domain.Identity, action, resource, resourceID, status, details string) {
	userID, username, role := "", "", ""
	if caller != nil {
		userID = strconv.FormatInt(caller.UserID, 10)
		username = caller.Username
		role = string(caller.Role)
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("username", username),
		slog.String("role", role),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", RequestID(ctx)),
		slog.Time("timestamp", time.Now()),
	)
}

// LogMutation records a successful write on a resource.
func (al *Logger) LogMutation(ctx context.Context, caller *domain.Identity, action, resource string, id int64, details string) {
	al.LogAction(ctx, caller, action, resource, strconv.FormatInt(id, 10), "success", details)
}

func (al *Logger) LogDenied(ctx context.Context, caller *domain.Identity, action, resource, reason string) {
	al.LogAction(ctx, caller, action, resource, "", "denied", reason)
}

func (al *Logger) LogLogin(ctx context.Context, username, status string) {
	al.LogAction(ctx, &domain.Identity{Username: username}, "login", "session", "", status, "")
}
