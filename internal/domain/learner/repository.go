package learner

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над профилями учеников.
type Repository interface {
	// Create создаёт новый профиль.
	// Возвращает ErrProfileAlreadyExists, если профиль уже существует.
	Create(ctx context.Context, profile *Profile) error

	// GetByUserID возвращает профиль по ID пользователя.
	// Возвращает ErrProfileNotFound, если профиль не найден.
	GetByUserID(ctx context.Context, userID string) (*Profile, error)

	// GetByUsername возвращает профиль по логину.
	// Возвращает ErrProfileNotFound, если профиль не найден.
	GetByUsername(ctx context.Context, username Username) (*Profile, error)

	// Update обновляет профиль.
	// Возвращает ErrProfileNotFound, если профиль не найден.
	Update(ctx context.Context, profile *Profile) error

	// ListAll возвращает все профили с пагинацией.
	ListAll(ctx context.Context, opts ListOptions) ([]*Profile, error)

	// FindReminderCandidates находит профили, которым может понадобиться
	// ежедневное напоминание: включено напоминание и последняя активность
	// была раньше сегодняшнего дня.
	FindReminderCandidates(ctx context.Context) ([]*Profile, error)

	// Exists проверяет существование профиля по ID пользователя.
	Exists(ctx context.Context, userID string) (bool, error)
}

// ListOptions содержит параметры для пагинации.
type ListOptions struct {
	// Offset - смещение (для пагинации).
	Offset int

	// Limit - максимальное количество записей.
	Limit int
}
