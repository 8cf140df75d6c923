// Package eventhandler содержит обработчики доменных событий.
// Обработчики - "реактивная" часть системы: они реагируют на изменения
// и запускают побочные эффекты вроде создания уведомлений.
package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/speakably/speakably-backend/internal/domain/notification"
	"github.com/speakably/speakably-backend/internal/domain/shared"
	"github.com/speakably/speakably-backend/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON LESSON COMPLETED HANDLER
// Превращает события прогресса в уведомления: выполненная дневная цель
// и вехи стрика. Провал уведомления никогда не ломает сам прогресс -
// обработчик только логирует ошибку.
// ═══════════════════════════════════════════════════════════════════════════

// OnLessonCompletedHandler обрабатывает события прогресса.
type OnLessonCompletedHandler struct {
	notifications notification.Repository
	sink          notification.Sink
	log           *logger.Logger

	// timeout ограничивает время обработки одного события.
	timeout time.Duration
}

// NewOnLessonCompletedHandler создаёт новый обработчик.
// Sink опционален: nil отключает внешнюю доставку.
func NewOnLessonCompletedHandler(
	notifications notification.Repository,
	sink notification.Sink,
	log *logger.Logger,
) *OnLessonCompletedHandler {
	return &OnLessonCompletedHandler{
		notifications: notifications,
		sink:          sink,
		log:           log.With(logger.F("handler", "on_lesson_completed")),
		timeout:       10 * time.Second,
	}
}

// Register подписывает обработчик на события прогресса.
func (h *OnLessonCompletedHandler) Register(bus shared.EventSubscriber) error {
	if err := bus.Subscribe(shared.EventDailyGoalReached, h.Handle); err != nil {
		return fmt.Errorf("failed to subscribe to daily_goal_reached: %w", err)
	}
	if err := bus.Subscribe(shared.EventStreakMilestone, h.Handle); err != nil {
		return fmt.Errorf("failed to subscribe to streak_milestone: %w", err)
	}
	return nil
}

// Handle обрабатывает одно событие. Реализует shared.EventHandler.
func (h *OnLessonCompletedHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	switch e := event.(type) {
	case shared.DailyGoalReachedEvent:
		return h.onDailyGoalReached(ctx, e)
	case shared.StreakMilestoneEvent:
		return h.onStreakMilestone(ctx, e)
	default:
		// Чужие события игнорируем молча.
		return nil
	}
}

// onDailyGoalReached создаёт уведомление о выполненной дневной цели.
func (h *OnLessonCompletedHandler) onDailyGoalReached(ctx context.Context, e shared.DailyGoalReachedEvent) error {
	n, err := notification.NewDailyGoalReached(uuid.New().String(), e.UserID)
	if err != nil {
		return fmt.Errorf("on_lesson_completed: invalid notification: %w", err)
	}
	return h.deliver(ctx, n)
}

// onStreakMilestone создаёт уведомление о вехе стрика.
func (h *OnLessonCompletedHandler) onStreakMilestone(ctx context.Context, e shared.StreakMilestoneEvent) error {
	n, err := notification.NewStreakMilestone(uuid.New().String(), e.UserID, e.Streak)
	if err != nil {
		return fmt.Errorf("on_lesson_completed: invalid notification: %w", err)
	}
	return h.deliver(ctx, n)
}

// deliver записывает уведомление и отправляет его во внешний канал.
func (h *OnLessonCompletedHandler) deliver(ctx context.Context, n *notification.Notification) error {
	if err := h.notifications.Create(ctx, n); err != nil {
		h.log.Error("failed to store notification",
			logger.String("user_id", n.UserID),
			logger.String("type", string(n.Type)),
			logger.Err(err))
		return err
	}

	if h.sink != nil {
		if err := h.sink.Deliver(ctx, n); err != nil {
			// Доставка вовне не критична: уведомление уже в БД.
			h.log.Warn("failed to deliver notification",
				logger.String("user_id", n.UserID),
				logger.String("type", string(n.Type)),
				logger.Err(err))
		}
	}

	return nil
}
