package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/infrastructure/redis"
)

func newSessionRepo(t *testing.T) (*RedisSessionRepository, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(context.Background(), "redis://"+mr.Addr(), nil)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return NewRedisSessionRepository(client, nil), mr, client
}

func TestRedisSessionLifecycle(t *testing.T) {
	repo, _, client := newSessionRepo(t)
	ctx := context.Background()

	session := &domain.Session{ID: "jti-1", UserID: 4, Username: "ana", IssuedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	ttl, err := client.TTL(ctx, "session:jti-1")
	if err != nil || ttl <= 0 || ttl > time.Hour {
		t.Fatalf("ttl = %v, %v", ttl, err)
	}

	got, err := repo.Get(ctx, "jti-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserID != 4 || got.Username != "ana" {
		t.Fatalf("unexpected session %+v", got)
	}

	if err := repo.Revoke(ctx, "jti-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := repo.Get(ctx, "jti-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after revoke, got %v", err)
	}
}

func TestRedisSessionExpires(t *testing.T) {
	repo, mr, _ := newSessionRepo(t)
	ctx := context.Background()

	_ = repo.Save(ctx, &domain.Session{ID: "jti-2", UserID: 1, ExpiresAt: time.Now().Add(time.Minute)})
	mr.FastForward(2 * time.Minute)

	if _, err := repo.Get(ctx, "jti-2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
