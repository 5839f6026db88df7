package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/formativa/internal/observability/metrics"
)

// Sweeper is a session store that can drop its expired entries.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// SessionSweeper periodically purges expired refresh sessions from stores
// that do not expire keys on their own.
type SessionSweeper struct {
	store    Sweeper
	logger   *slog.Logger
	interval time.Duration
}

// NewSessionSweeper creates a sweeper; a non-positive interval defaults to
// five minutes.
func NewSessionSweeper(store Sweeper, logger *slog.Logger, interval time.Duration) *SessionSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionSweeper{store: store, logger: logger, interval: interval}
}

// Start runs the sweep loop until ctx is cancelled.
func (w *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("session sweeper started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and returns the number of sessions removed.
func (w *SessionSweeper) RunOnce(ctx context.Context) int {
	removed, err := w.store.Sweep(ctx)
	if err != nil {
		w.logger.Error("session sweep failed", slog.String("error", err.Error()))
		metrics.ObserveSessionSweep("error", 0)
		return 0
	}
	metrics.ObserveSessionSweep("success", removed)
	if removed > 0 {
		w.logger.Debug("expired sessions removed", slog.Int("count", removed))
	}
	return removed
}
