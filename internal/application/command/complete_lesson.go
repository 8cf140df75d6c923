// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/speakably/speakably-backend/internal/domain/catalog"
	"github.com/speakably/speakably-backend/internal/domain/learner"
	"github.com/speakably/speakably-backend/internal/domain/progress"
	"github.com/speakably/speakably-backend/internal/domain/shared"
	"github.com/speakably/speakably-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE LESSON COMMAND
// Credits a lesson completion: appends a ledger record, advances XP, streak
// and the daily goal counter. One credit per (user, lesson, UTC day) - a
// repeat on the same day is an idempotent no-op, not an error.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonCommand contains the data to credit a lesson completion.
type CompleteLessonCommand struct {
	// UserID is the learner completing the lesson.
	UserID string

	// LessonID is the completed lesson.
	LessonID string

	// XPEarned overrides the lesson's XP reward when positive. Zero means
	// "use the lesson reward"; negative values are rejected.
	XPEarned int

	// Timestamp is when the completion happened (defaults to now if zero).
	// The calendar day is always derived in UTC.
	Timestamp time.Time
}

// Validate validates the command.
func (c CompleteLessonCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("complete_lesson: user_id is required")
	}
	if c.LessonID == "" {
		return errors.New("complete_lesson: lesson_id is required")
	}
	if c.XPEarned < 0 {
		return errors.New("complete_lesson: xp_earned cannot be negative")
	}
	return nil
}

// CompleteLessonResult contains the result of crediting a completion.
type CompleteLessonResult struct {
	// Outcome tells whether a new record was created or the lesson had
	// already been credited today.
	Outcome progress.Outcome

	// UserID is the learner.
	UserID string

	// LessonID is the lesson.
	LessonID string

	// XPEarned is the XP credited by this call (0 for the idempotent case).
	XPEarned int

	// TotalXP is the learner's lifetime XP after the call.
	TotalXP int

	// CurrentStreak is the streak after the call.
	CurrentStreak int

	// StreakExtended is true when this completion grew the streak.
	StreakExtended bool

	// StreakReset is true when a stale streak was restarted at 1.
	StreakReset bool

	// DailyGoalCompleted is today's completion count after the call.
	DailyGoalCompleted int

	// DailyGoalTarget is the learner's configured daily goal.
	DailyGoalTarget int

	// GoalJustReached is true when this completion hit the daily target.
	GoalJustReached bool

	// Events contains domain events generated.
	Events []shared.Event

	// CompletedAt is the credited timestamp.
	CompletedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// TxRunner runs a function inside a single storage transaction. The function
// either commits as a whole or rolls back as a whole.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LockingProfileRepository extends the learner repository with a row-locked
// read. GetForUpdate must block concurrent writers to the same profile for
// the duration of the surrounding transaction.
type LockingProfileRepository interface {
	learner.Repository

	// GetForUpdate reads the profile with an exclusive row lock.
	GetForUpdate(ctx context.Context, userID string) (*learner.Profile, error)
}

// LeaderboardInvalidator drops cached rankings after a successful credit.
// A failed invalidation never fails the command.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context, at time.Time) error
}

// CompleteLessonHandler handles the CompleteLessonCommand.
type CompleteLessonHandler struct {
	tx          TxRunner
	profiles    LockingProfileRepository
	ledger      progress.Ledger
	catalogRepo catalog.Repository
	unlocks     *catalog.UnlockResolver
	publisher   shared.EventPublisher
	invalidator LeaderboardInvalidator
}

// NewCompleteLessonHandler creates a new CompleteLessonHandler.
// The invalidator is optional; pass nil when no leaderboard cache is wired.
func NewCompleteLessonHandler(
	tx TxRunner,
	profiles LockingProfileRepository,
	ledger progress.Ledger,
	catalogRepo catalog.Repository,
	unlocks *catalog.UnlockResolver,
	publisher shared.EventPublisher,
	invalidator LeaderboardInvalidator,
) *CompleteLessonHandler {
	return &CompleteLessonHandler{
		tx:          tx,
		profiles:    profiles,
		ledger:      ledger,
		catalogRepo: catalogRepo,
		unlocks:     unlocks,
		publisher:   publisher,
		invalidator: invalidator,
	}
}

// Handle executes the complete lesson command.
func (h *CompleteLessonHandler) Handle(ctx context.Context, cmd CompleteLessonCommand) (*CompleteLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("progress", "CompleteLesson", shared.ErrValidation, "validation failed", err)
	}

	completedAt := cmd.Timestamp
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	completedAt = completedAt.UTC()
	today := timeutil.StartOfDay(completedAt)

	lesson, err := h.catalogRepo.GetLesson(ctx, cmd.LessonID)
	if err != nil {
		if errors.Is(err, catalog.ErrLessonNotFound) || shared.IsNotFound(err) {
			return nil, shared.ErrLessonNotFound
		}
		return nil, fmt.Errorf("complete_lesson: failed to load lesson: %w", err)
	}

	unlocked, err := h.unlocks.IsUnlocked(ctx, cmd.UserID, lesson)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: failed to resolve unlock: %w", err)
	}
	if !unlocked {
		return nil, shared.ErrLessonLocked
	}

	xpEarned := cmd.XPEarned
	if xpEarned == 0 {
		xpEarned = lesson.XPReward
	}
	if xpEarned <= 0 {
		xpEarned = progress.DefaultXPEarned
	}

	result := &CompleteLessonResult{
		UserID:      cmd.UserID,
		LessonID:    cmd.LessonID,
		CompletedAt: completedAt,
		Events:      make([]shared.Event, 0, 3),
	}

	err = h.tx.RunInTx(ctx, func(ctx context.Context) error {
		// Lock the profile row first: all concurrent credits for this
		// user serialize here, so the streak state machine never sees
		// interleaved updates.
		profile, err := h.profiles.GetForUpdate(ctx, cmd.UserID)
		if err != nil {
			if errors.Is(err, learner.ErrProfileNotFound) || shared.IsNotFound(err) {
				return shared.ErrLearnerNotFound
			}
			return fmt.Errorf("failed to lock profile: %w", err)
		}

		record, err := progress.NewCompletionRecord(uuid.New().String(), cmd.UserID, cmd.LessonID, xpEarned, completedAt)
		if err != nil {
			return shared.WrapError("progress", "CompleteLesson", shared.ErrValidation, "invalid completion record", err)
		}

		// The ledger's unique (user, lesson, day) constraint is the
		// idempotency boundary. Losing the race is not an error.
		if err := h.ledger.Append(ctx, record); err != nil {
			if errors.Is(err, progress.ErrDuplicateCompletion) || errors.Is(err, shared.ErrStorageConflict) {
				result.Outcome = progress.OutcomeAlreadyCompletedToday
				result.TotalXP = int(profile.XP)
				result.CurrentStreak = profile.CurrentStreak
				result.DailyGoalCompleted = profile.EffectiveDailyGoalCompleted(today)
				result.DailyGoalTarget = profile.DailyGoalTarget
				return nil
			}
			return fmt.Errorf("failed to append completion: %w", err)
		}

		applied := profile.ApplyCompletion(record.XPEarned, today)

		if err := h.profiles.Update(ctx, profile); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}

		result.Outcome = progress.OutcomeCreated
		result.XPEarned = applied.XPEarned
		result.TotalXP = int(profile.XP)
		result.CurrentStreak = profile.CurrentStreak
		result.StreakExtended = applied.StreakExtended
		result.StreakReset = applied.StreakReset
		result.DailyGoalCompleted = profile.DailyGoalCompleted
		result.DailyGoalTarget = profile.DailyGoalTarget
		result.GoalJustReached = applied.GoalJustReached

		result.Events = append(result.Events, shared.NewLessonCompletedEvent(
			cmd.UserID,
			cmd.LessonID,
			applied.XPEarned,
			int(profile.XP),
			profile.CurrentStreak,
			applied.StreakExtended,
			profile.DailyGoalCompleted,
			profile.DailyGoalTarget,
		))
		if applied.GoalJustReached {
			result.Events = append(result.Events, shared.NewDailyGoalReachedEvent(cmd.UserID, profile.DailyGoalTarget))
		}
		if applied.StreakExtended && learner.IsStreakMilestone(profile.CurrentStreak) {
			result.Events = append(result.Events, shared.NewStreakMilestoneEvent(cmd.UserID, profile.CurrentStreak))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Events and cache invalidation happen only after commit: subscribers
	// must never observe state the transaction rolled back.
	if result.Outcome == progress.OutcomeCreated {
		for _, event := range result.Events {
			_ = h.publisher.Publish(event)
		}
		if h.invalidator != nil {
			_ = h.invalidator.Invalidate(ctx, completedAt)
		}
	}

	return result, nil
}
