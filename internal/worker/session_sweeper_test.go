package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/repository/memory"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) Sweep(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestRunOnceRemovesExpiredSessions(t *testing.T) {
	store := memory.NewSessionStore()
	ctx := context.Background()
	_ = store.Save(ctx, &domain.Session{ID: "live", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)})
	_ = store.Save(ctx, &domain.Session{ID: "dead", UserID: 1, ExpiresAt: time.Now().Add(-time.Hour)})

	w := NewSessionSweeper(store, nil, time.Minute)
	if got := w.RunOnce(ctx); got != 1 {
		t.Fatalf("removed %d sessions, want 1", got)
	}
	if store.Len() != 1 {
		t.Fatalf("store has %d sessions, want 1", store.Len())
	}
}

func TestRunOnceReportsZeroOnError(t *testing.T) {
	w := NewSessionSweeper(&countingSweeper{err: errors.New("boom")}, nil, time.Minute)
	if got := w.RunOnce(context.Background()); got != 0 {
		t.Fatalf("removed %d on error, want 0", got)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	sweeper := &countingSweeper{}
	w := NewSessionSweeper(sweeper, nil, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for sweeper.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper never ran")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestDefaultInterval(t *testing.T) {
	w := NewSessionSweeper(&countingSweeper{}, nil, 0)
	if w.interval != 5*time.Minute {
		t.Fatalf("interval = %v", w.interval)
	}
}
