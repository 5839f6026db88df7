package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/infrastructure/redis"
)

const sessionKeyPrefix = "session:"

// RedisSessionRepository implements domain.SessionRepository using Redis
type RedisSessionRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewRedisSessionRepository creates a new session repository
func NewRedisSessionRepository(redisClient *redis.Client, logger *slog.Logger) *RedisSessionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisSessionRepository{
		redis:  redisClient,
		logger: logger,
	}
}

// Save stores a session in Redis with a TTL matching its expiry
func (r *RedisSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second // Minimum TTL
	}

	if err := r.redis.Set(ctx, sessionKeyPrefix+session.ID, string(data), ttl); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	r.logger.Debug("session created", slog.String("jti", session.ID), slog.Int64("user_id", session.UserID))
	return nil
}

// Get retrieves a live session
func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.redis.Get(ctx, sessionKeyPrefix+id)
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Revoke removes a session; revoking an unknown session is not an error
func (r *RedisSessionRepository) Revoke(ctx context.Context, id string) error {
	if err := r.redis.Delete(ctx, sessionKeyPrefix+id); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) Ping(ctx context.Context) error {
	return r.redis.Ping(ctx)
}
