package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/speakably/speakably-backend/internal/domain/learner"
	"github.com/speakably/speakably-backend/internal/domain/shared"
	"github.com/speakably/speakably-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DAILY PROGRESS QUERY
// Возвращает прогресс дневной цели на "сегодня". Счётчик за прошлый день
// никогда не показывается как сегодняшний: если последняя активность была
// не сегодня, эффективное значение равно нулю.
// ══════════════════════════════════════════════════════════════════════════════

// GetDailyProgressQuery содержит параметры запроса.
type GetDailyProgressQuery struct {
	// UserID - пользователь.
	UserID string

	// Now - момент "сейчас" (по умолчанию текущее время UTC).
	Now time.Time
}

// Validate проверяет корректность параметров.
func (q *GetDailyProgressQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id is required")
	}
	return nil
}

// DailyProgressDTO - снимок дневного прогресса.
type DailyProgressDTO struct {
	// UserID - пользователь.
	UserID string `json:"user_id"`

	// Date - календарный день снимка (UTC).
	Date string `json:"date"`

	// GoalCompleted - сколько уроков засчитано сегодня.
	GoalCompleted int `json:"goal_completed"`

	// GoalTarget - дневная цель.
	GoalTarget int `json:"goal_target"`

	// GoalPercent - процент выполнения цели (0-100+).
	GoalPercent int `json:"goal_percent"`

	// GoalReached - выполнена ли цель сегодня.
	GoalReached bool `json:"goal_reached"`

	// CurrentStreak - текущий стрик в днях.
	CurrentStreak int `json:"current_streak"`

	// BestStreak - лучший стрик за всё время.
	BestStreak int `json:"best_streak"`

	// StreakAtRisk - стрик сгорит, если сегодня не позаниматься.
	StreakAtRisk bool `json:"streak_at_risk"`

	// TotalXP - XP за всё время.
	TotalXP int `json:"total_xp"`
}

// GetDailyProgressHandler обрабатывает запрос дневного прогресса.
type GetDailyProgressHandler struct {
	profiles learner.Repository
}

// NewGetDailyProgressHandler создаёт новый GetDailyProgressHandler.
func NewGetDailyProgressHandler(profiles learner.Repository) *GetDailyProgressHandler {
	return &GetDailyProgressHandler{profiles: profiles}
}

// Handle выполняет запрос.
func (h *GetDailyProgressHandler) Handle(ctx context.Context, q GetDailyProgressQuery) (*DailyProgressDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("learner", "GetDailyProgress", shared.ErrValidation, "validation failed", err)
	}

	now := q.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	today := timeutil.StartOfDay(now)

	profile, err := h.profiles.GetByUserID(ctx, q.UserID)
	if err != nil {
		if errors.Is(err, learner.ErrProfileNotFound) || shared.IsNotFound(err) {
			return nil, shared.ErrLearnerNotFound
		}
		return nil, fmt.Errorf("get_daily_progress: %w", err)
	}

	completed := profile.EffectiveDailyGoalCompleted(today)

	return &DailyProgressDTO{
		UserID:        profile.UserID,
		Date:          timeutil.FormatDay(today),
		GoalCompleted: completed,
		GoalTarget:    profile.DailyGoalTarget,
		GoalPercent:   profile.GoalProgressPercent(today),
		GoalReached:   profile.DailyGoalTarget > 0 && completed >= profile.DailyGoalTarget,
		CurrentStreak: profile.CurrentStreak,
		BestStreak:    profile.BestStreak,
		StreakAtRisk:  profile.StreakAtRisk(today),
		TotalXP:       int(profile.XP),
	}, nil
}
