// Package scheduling enforces the room reservation overlap rule.
package scheduling

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/formativa/internal/domain"
)

// ConflictFinder returns reservations sharing slot whose inclusive range
// overlaps rng, ignoring excludeID (0 ignores nothing).
type ConflictFinder interface {
	FindConflicting(ctx context.Context, slot domain.Slot, rng domain.DateRange, excludeID int64) ([]*domain.Reservation, error)
}

// Validator checks candidate reservations against already stored ones.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a conflict validator
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger}
}

// Check returns a *domain.ConflictError when candidate overlaps a stored
// reservation for the same room and period. Candidate's own id is excluded
// so an update never conflicts with its previous version.
//
// Finder results are re-filtered here, so a finder that over-selects (for
// example by slot only) still yields the correct answer.
func (v *Validator) Check(ctx context.Context, finder ConflictFinder, candidate *domain.Reservation) error {
	slot := candidate.Slot()
	found, err := finder.FindConflicting(ctx, slot, candidate.Range, candidate.ID)
	if err != nil {
		return fmt.Errorf("find conflicting reservations: %w", err)
	}

	for _, existing := range found {
		if existing.ID == candidate.ID && candidate.ID != 0 {
			continue
		}
		if existing.Slot() != slot {
			continue
		}
		if !existing.Range.Overlaps(candidate.Range) {
			continue
		}
		v.logger.Info("reservation conflict",
			"room_id", slot.RoomID,
			"period", string(slot.Period),
			"start", candidate.Range.Start.String(),
			"end", candidate.Range.End.String(),
			"existing_id", existing.ID,
		)
		return &domain.ConflictError{ExistingID: existing.ID}
	}
	return nil
}
