package query

import (
	"context"
	"errors"
	"time"

	"github.com/speakably/speakably-backend/internal/domain/notification"
	"github.com/speakably/speakably-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ЗАПРОС: УВЕДОМЛЕНИЯ ПОЛЬЗОВАТЕЛЯ
// ══════════════════════════════════════════════════════════════════════════════

// GetNotificationsQuery - параметры запроса уведомлений.
type GetNotificationsQuery struct {
	// UserID - пользователь.
	UserID string

	// OnlyUnread - вернуть только непрочитанные.
	OnlyUnread bool

	// Limit - максимум записей (по умолчанию 20, максимум 100).
	Limit int
}

// Validate проверяет корректность параметров.
func (q *GetNotificationsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id is required")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	return nil
}

// NotificationDTO - уведомление в ответе.
type NotificationDTO struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// GetNotificationsResult - результат запроса.
type GetNotificationsResult struct {
	Notifications []NotificationDTO `json:"notifications"`
	UnreadCount   int               `json:"unread_count"`
}

// GetNotificationsHandler обрабатывает GetNotificationsQuery.
type GetNotificationsHandler struct {
	notifications notification.Repository
}

// NewGetNotificationsHandler создаёт обработчик.
func NewGetNotificationsHandler(notifications notification.Repository) *GetNotificationsHandler {
	return &GetNotificationsHandler{notifications: notifications}
}

// Handle возвращает уведомления пользователя, новые первыми.
func (h *GetNotificationsHandler) Handle(ctx context.Context, q GetNotificationsQuery) (*GetNotificationsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.NewDomainError("notification", "get_notifications", shared.ErrValidation, err.Error())
	}

	limit := q.Limit
	if limit == 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	items, err := h.notifications.ListByUser(ctx, q.UserID, q.OnlyUnread, limit)
	if err != nil {
		return nil, err
	}

	unread, err := h.notifications.CountUnread(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	dtos := make([]NotificationDTO, 0, len(items))
	for _, n := range items {
		dtos = append(dtos, NotificationDTO{
			ID:        n.ID,
			Type:      string(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}

	return &GetNotificationsResult{
		Notifications: dtos,
		UnreadCount:   unread,
	}, nil
}
