package domain

import (
	"context"
	"time"
)

// Session tracks an issued refresh token by its jti so it can be revoked.
type Session struct {
	ID        string    `json:"jti"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionRepository stores live refresh-token sessions. Expired sessions
// disappear on their own.
type SessionRepository interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Revoke(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
