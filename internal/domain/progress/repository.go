package progress

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// РЕПОЗИТОРИЙ
// ══════════════════════════════════════════════════════════════════════════════

// Ledger - журнал прохождений. Реализация обязана обеспечивать уникальность
// (user_id, lesson_id, completed_on) на уровне хранилища: Append возвращает
// ErrDuplicateCompletion при конфликте, и именно это свойство делает команду
// завершения урока безопасной при конкурентных повторах.
type Ledger interface {
	// Append добавляет запись. При нарушении уникальности за день
	// возвращает ErrDuplicateCompletion.
	Append(ctx context.Context, record *CompletionRecord) error

	// ExistsOn проверяет наличие записи за конкретный календарный день.
	ExistsOn(ctx context.Context, userID, lessonID string, day time.Time) (bool, error)

	// HasCompleted проверяет наличие хотя бы одной записи за любой день.
	// Используется резолвером разблокировки уроков.
	HasCompleted(ctx context.Context, userID, lessonID string) (bool, error)

	// ListByUser возвращает записи пользователя, новые первыми.
	ListByUser(ctx context.Context, userID string, limit int) ([]*CompletionRecord, error)

	// CountOn возвращает число прохождений пользователя за день.
	CountOn(ctx context.Context, userID string, day time.Time) (int, error)

	// DeleteByUser удаляет все записи пользователя. Используется только
	// операцией полного сброса прогресса.
	DeleteByUser(ctx context.Context, userID string) error
}
