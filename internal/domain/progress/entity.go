// Package progress содержит журнал прохождений уроков - источник истины
// для идемпотентности, разблокировки уроков и лидерборда.
package progress

import (
	"errors"
	"time"

	"github.com/speakably/speakably-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ДОМЕННЫЕ ОШИБКИ
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCompletionNotFound - запись о прохождении не найдена.
	ErrCompletionNotFound = errors.New("completion record not found")

	// ErrDuplicateCompletion - урок уже засчитан в этот календарный день.
	// Повторная попытка не ошибка для клиента: команда переводит её
	// в идемпотентный ответ AlreadyCompletedToday.
	ErrDuplicateCompletion = errors.New("lesson already completed today")

	// ErrInvalidXPEarned - начисленный XP не может быть отрицательным.
	ErrInvalidXPEarned = errors.New("invalid xp earned: must be non-negative")
)

// ══════════════════════════════════════════════════════════════════════════════
// СУЩНОСТИ
// ══════════════════════════════════════════════════════════════════════════════

// CompletionRecord - одна запись журнала: пользователь прошёл урок
// в конкретный календарный день (UTC). Пара (UserID, LessonID, CompletedOn)
// уникальна - это и есть граница идемпотентности.
type CompletionRecord struct {
	// ID - уникальный идентификатор записи (UUID).
	ID string

	// UserID - кто прошёл урок.
	UserID string

	// LessonID - какой урок.
	LessonID string

	// XPEarned - сколько XP засчитано этой записью.
	XPEarned int

	// CompletedOn - календарный день прохождения (UTC, полночь).
	CompletedOn time.Time

	// CompletedAt - точный момент прохождения.
	CompletedAt time.Time
}

// DefaultXPEarned - XP по умолчанию, если награда урока не задана.
const DefaultXPEarned = 10

// NewCompletionRecord создаёт запись журнала. Нулевой или отсутствующий XP
// приводится к значению по умолчанию, отрицательный - ошибка валидации.
func NewCompletionRecord(id, userID, lessonID string, xpEarned int, completedAt time.Time) (*CompletionRecord, error) {
	if id == "" || userID == "" || lessonID == "" {
		return nil, errors.New("record id, user id and lesson id are required")
	}

	if xpEarned < 0 {
		return nil, ErrInvalidXPEarned
	}
	if xpEarned == 0 {
		xpEarned = DefaultXPEarned
	}

	completedAt = completedAt.UTC()

	return &CompletionRecord{
		ID:          id,
		UserID:      userID,
		LessonID:    lessonID,
		XPEarned:    xpEarned,
		CompletedOn: timeutil.StartOfDay(completedAt),
		CompletedAt: completedAt,
	}, nil
}

// Outcome - результат регистрации прохождения.
type Outcome string

const (
	// OutcomeCreated - создана новая запись, прогресс обновлён.
	OutcomeCreated Outcome = "created"

	// OutcomeAlreadyCompletedToday - запись за сегодня уже существует,
	// состояние не менялось.
	OutcomeAlreadyCompletedToday Outcome = "already_completed_today"
)
