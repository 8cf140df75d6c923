package notification

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// РЕПОЗИТОРИЙ
// ══════════════════════════════════════════════════════════════════════════════

// Repository - хранилище уведомлений.
type Repository interface {
	// Create сохраняет уведомление.
	Create(ctx context.Context, n *Notification) error

	// GetByID возвращает уведомление по идентификатору.
	GetByID(ctx context.Context, id string) (*Notification, error)

	// ListByUser возвращает уведомления пользователя, новые первыми.
	ListByUser(ctx context.Context, userID string, onlyUnread bool, limit int) ([]*Notification, error)

	// MarkRead помечает уведомление прочитанным.
	MarkRead(ctx context.Context, id string) error

	// MarkAllRead помечает все уведомления пользователя прочитанными.
	MarkAllRead(ctx context.Context, userID string) error

	// CountUnread возвращает число непрочитанных уведомлений.
	CountUnread(ctx context.Context, userID string) (int, error)

	// ExistsSince проверяет, было ли уведомление данного типа создано
	// после момента since. Защищает от дублей напоминаний за день.
	ExistsSince(ctx context.Context, userID string, notifType Type, since time.Time) (bool, error)
}

// Sink доставляет уведомление во внешний канал (push, e-mail).
// Реализация инфраструктурная; доставка ретраится отдельно от записи в БД.
type Sink interface {
	// Deliver отправляет уведомление во внешний канал.
	Deliver(ctx context.Context, n *Notification) error
}
