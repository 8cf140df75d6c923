package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/speakably/speakably-backend/internal/domain/learner"
	"github.com/speakably/speakably-backend/internal/domain/progress"
	"github.com/speakably/speakably-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE QUERY
// Возвращает полный профиль пользователя вместе с последними прохождениями.
// ══════════════════════════════════════════════════════════════════════════════

// GetProfileQuery содержит параметры запроса профиля.
type GetProfileQuery struct {
	// UserID - пользователь.
	UserID string

	// RecentLimit - сколько последних прохождений включить (по умолчанию 10).
	RecentLimit int
}

// Validate проверяет корректность параметров.
func (q *GetProfileQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id is required")
	}
	if q.RecentLimit < 0 {
		return errors.New("recent_limit cannot be negative")
	}
	if q.RecentLimit == 0 {
		q.RecentLimit = 10
	}
	return nil
}

// CompletionDTO - одна запись журнала прохождений.
type CompletionDTO struct {
	LessonID    string    `json:"lesson_id"`
	XPEarned    int       `json:"xp_earned"`
	CompletedAt time.Time `json:"completed_at"`
}

// ProfileDTO - снимок профиля.
type ProfileDTO struct {
	UserID             string          `json:"user_id"`
	Username           string          `json:"username"`
	Email              string          `json:"email"`
	SelectedLanguageID *string         `json:"selected_language_id,omitempty"`
	Proficiency        string          `json:"proficiency"`
	XP                 int             `json:"xp"`
	Hearts             int             `json:"hearts"`
	Gems               int             `json:"gems"`
	DailyGoalTarget    int             `json:"daily_goal_target"`
	CurrentStreak      int             `json:"current_streak"`
	BestStreak         int             `json:"best_streak"`
	DailyReminder      bool            `json:"daily_reminder"`
	ReminderTime       string          `json:"reminder_time"`
	RecentCompletions  []CompletionDTO `json:"recent_completions"`
	CreatedAt          time.Time       `json:"created_at"`
}

// GetProfileHandler обрабатывает запрос профиля.
type GetProfileHandler struct {
	profiles learner.Repository
	ledger   progress.Ledger
}

// NewGetProfileHandler создаёт новый GetProfileHandler.
func NewGetProfileHandler(profiles learner.Repository, ledger progress.Ledger) *GetProfileHandler {
	return &GetProfileHandler{profiles: profiles, ledger: ledger}
}

// Handle выполняет запрос профиля.
func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*ProfileDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("learner", "GetProfile", shared.ErrValidation, "validation failed", err)
	}

	profile, err := h.profiles.GetByUserID(ctx, q.UserID)
	if err != nil {
		if errors.Is(err, learner.ErrProfileNotFound) || shared.IsNotFound(err) {
			return nil, shared.ErrLearnerNotFound
		}
		return nil, fmt.Errorf("get_profile: %w", err)
	}

	records, err := h.ledger.ListByUser(ctx, q.UserID, q.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("get_profile: failed to list completions: %w", err)
	}

	recent := make([]CompletionDTO, 0, len(records))
	for _, r := range records {
		recent = append(recent, CompletionDTO{
			LessonID:    r.LessonID,
			XPEarned:    r.XPEarned,
			CompletedAt: r.CompletedAt,
		})
	}

	return &ProfileDTO{
		UserID:             profile.UserID,
		Username:           string(profile.Username),
		Email:              profile.Email,
		SelectedLanguageID: profile.SelectedLanguageID,
		Proficiency:        string(profile.Proficiency),
		XP:                 int(profile.XP),
		Hearts:             profile.Hearts,
		Gems:               profile.Gems,
		DailyGoalTarget:    profile.DailyGoalTarget,
		CurrentStreak:      profile.CurrentStreak,
		BestStreak:         profile.BestStreak,
		DailyReminder:      profile.Preferences.DailyReminder,
		ReminderTime:       profile.Preferences.ReminderTime,
		RecentCompletions:  recent,
		CreatedAt:          profile.CreatedAt,
	}, nil
}
