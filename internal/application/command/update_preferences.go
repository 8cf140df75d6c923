package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/speakably/speakably-backend/internal/domain/learner"
	"github.com/speakably/speakably-backend/internal/domain/shared"
	"github.com/speakably/speakably-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PREFERENCES COMMAND
// Updates learner settings: selected language, proficiency, daily goal
// target, reminder preferences. Only the provided fields change.
// ══════════════════════════════════════════════════════════════════════════════

// UpdatePreferencesCommand contains the settings to change. Nil pointers
// leave the corresponding setting untouched.
type UpdatePreferencesCommand struct {
	// UserID is the learner.
	UserID string

	// SelectedLanguageID changes the language being learned.
	SelectedLanguageID *string

	// Proficiency changes the declared level.
	Proficiency *string

	// DailyGoalTarget changes how many lessons per day count as the goal.
	DailyGoalTarget *int

	// DailyReminder toggles the daily reminder notification.
	DailyReminder *bool

	// ReminderTime changes the reminder time of day, "HH:MM" in UTC.
	ReminderTime *string
}

// Validate validates the command.
func (c UpdatePreferencesCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("update_preferences: user_id is required")
	}
	if c.Proficiency != nil && !learner.Proficiency(*c.Proficiency).IsValid() {
		return learner.ErrInvalidProficiency
	}
	if c.DailyGoalTarget != nil && *c.DailyGoalTarget <= 0 {
		return learner.ErrInvalidDailyGoal
	}
	if c.ReminderTime != nil {
		if _, _, err := timeutil.ParseClock(*c.ReminderTime); err != nil {
			return fmt.Errorf("update_preferences: invalid reminder time: %w", err)
		}
	}
	return nil
}

// UpdatePreferencesResult contains the updated profile snapshot.
type UpdatePreferencesResult struct {
	UserID             string
	SelectedLanguageID *string
	Proficiency        string
	DailyGoalTarget    int
	DailyReminder      bool
	ReminderTime       string
}

// UpdatePreferencesHandler handles the UpdatePreferencesCommand.
type UpdatePreferencesHandler struct {
	tx       TxRunner
	profiles LockingProfileRepository
}

// NewUpdatePreferencesHandler creates a new UpdatePreferencesHandler.
func NewUpdatePreferencesHandler(tx TxRunner, profiles LockingProfileRepository) *UpdatePreferencesHandler {
	return &UpdatePreferencesHandler{tx: tx, profiles: profiles}
}

// Handle executes the update preferences command.
func (h *UpdatePreferencesHandler) Handle(ctx context.Context, cmd UpdatePreferencesCommand) (*UpdatePreferencesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("learner", "UpdatePreferences", shared.ErrValidation, "validation failed", err)
	}

	var result *UpdatePreferencesResult

	err := h.tx.RunInTx(ctx, func(ctx context.Context) error {
		profile, err := h.profiles.GetForUpdate(ctx, cmd.UserID)
		if err != nil {
			if errors.Is(err, learner.ErrProfileNotFound) || shared.IsNotFound(err) {
				return shared.ErrLearnerNotFound
			}
			return fmt.Errorf("failed to lock profile: %w", err)
		}

		if cmd.SelectedLanguageID != nil {
			profile.SelectLanguage(*cmd.SelectedLanguageID)
		}
		if cmd.Proficiency != nil {
			if err := profile.SetProficiency(learner.Proficiency(*cmd.Proficiency)); err != nil {
				return shared.WrapError("learner", "UpdatePreferences", shared.ErrValidation, "invalid proficiency", err)
			}
		}
		if cmd.DailyGoalTarget != nil {
			if err := profile.SetDailyGoal(*cmd.DailyGoalTarget); err != nil {
				return shared.WrapError("learner", "UpdatePreferences", shared.ErrValidation, "invalid daily goal", err)
			}
		}
		if cmd.DailyReminder != nil || cmd.ReminderTime != nil {
			prefs := profile.Preferences
			if cmd.DailyReminder != nil {
				prefs.DailyReminder = *cmd.DailyReminder
			}
			if cmd.ReminderTime != nil {
				prefs.ReminderTime = *cmd.ReminderTime
			}
			profile.UpdateReminderPreferences(prefs)
		}

		if err := h.profiles.Update(ctx, profile); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}

		result = &UpdatePreferencesResult{
			UserID:             profile.UserID,
			SelectedLanguageID: profile.SelectedLanguageID,
			Proficiency:        string(profile.Proficiency),
			DailyGoalTarget:    profile.DailyGoalTarget,
			DailyReminder:      profile.Preferences.DailyReminder,
			ReminderTime:       profile.Preferences.ReminderTime,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
