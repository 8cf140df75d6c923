package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/speakably/speakably-backend/internal/domain/learner"
	"github.com/speakably/speakably-backend/internal/domain/progress"
	"github.com/speakably/speakably-backend/internal/domain/shared"
	"github.com/speakably/speakably-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESET PROGRESS COMMAND
// Wipes a learner's progress: XP, streak, daily counter and the completion
// ledger. Profile identity and preferences survive.
// ══════════════════════════════════════════════════════════════════════════════

// ResetProgressCommand contains the data to reset a learner's progress.
type ResetProgressCommand struct {
	// UserID is the learner whose progress is wiped.
	UserID string
}

// Validate validates the command.
func (c ResetProgressCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("reset_progress: user_id is required")
	}
	return nil
}

// ResetProgressResult contains the result of the reset.
type ResetProgressResult struct {
	UserID  string
	ResetAt time.Time
}

// ResetProgressHandler handles the ResetProgressCommand.
type ResetProgressHandler struct {
	tx          TxRunner
	profiles    LockingProfileRepository
	ledger      progress.Ledger
	publisher   shared.EventPublisher
	invalidator LeaderboardInvalidator
}

// NewResetProgressHandler creates a new ResetProgressHandler.
func NewResetProgressHandler(
	tx TxRunner,
	profiles LockingProfileRepository,
	ledger progress.Ledger,
	publisher shared.EventPublisher,
	invalidator LeaderboardInvalidator,
) *ResetProgressHandler {
	return &ResetProgressHandler{
		tx:          tx,
		profiles:    profiles,
		ledger:      ledger,
		publisher:   publisher,
		invalidator: invalidator,
	}
}

// Handle executes the reset progress command.
func (h *ResetProgressHandler) Handle(ctx context.Context, cmd ResetProgressCommand) (*ResetProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("learner", "ResetProgress", shared.ErrValidation, "validation failed", err)
	}

	now := time.Now().UTC()
	today := timeutil.StartOfDay(now)

	err := h.tx.RunInTx(ctx, func(ctx context.Context) error {
		profile, err := h.profiles.GetForUpdate(ctx, cmd.UserID)
		if err != nil {
			if errors.Is(err, learner.ErrProfileNotFound) || shared.IsNotFound(err) {
				return shared.ErrLearnerNotFound
			}
			return fmt.Errorf("failed to lock profile: %w", err)
		}

		profile.Reset(today)

		if err := h.profiles.Update(ctx, profile); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}

		if err := h.ledger.DeleteByUser(ctx, cmd.UserID); err != nil {
			return fmt.Errorf("failed to wipe ledger: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = h.publisher.Publish(shared.NewProgressResetEvent(cmd.UserID))
	if h.invalidator != nil {
		_ = h.invalidator.Invalidate(ctx, now)
	}

	return &ResetProgressResult{UserID: cmd.UserID, ResetAt: now}, nil
}
