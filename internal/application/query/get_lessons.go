package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/speakably/speakably-backend/internal/domain/catalog"
	"github.com/speakably/speakably-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LESSONS QUERY
// Возвращает уроки юнита с персональным флагом доступности. Анонимный
// запрос видит закрытыми все уроки с пререквизитами.
// ══════════════════════════════════════════════════════════════════════════════

// GetLessonsQuery содержит параметры запроса уроков.
type GetLessonsQuery struct {
	// UnitID - юнит.
	UnitID string

	// UserID - пользователь; пустая строка для анонимного запроса.
	UserID string
}

// Validate проверяет корректность параметров.
func (q *GetLessonsQuery) Validate() error {
	if q.UnitID == "" {
		return errors.New("unit_id is required")
	}
	return nil
}

// LessonDTO - урок с флагом доступности.
type LessonDTO struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Type       string `json:"type"`
	Order      int    `json:"order"`
	XPReward   int    `json:"xp_reward"`
	IsUnlocked bool   `json:"is_unlocked"`
	Completed  bool   `json:"completed"`
}

// GetLessonsHandler обрабатывает запрос уроков.
type GetLessonsHandler struct {
	catalogRepo catalog.Repository
	unlocks     *catalog.UnlockResolver
	completions catalog.CompletionChecker
}

// NewGetLessonsHandler создаёт новый GetLessonsHandler.
func NewGetLessonsHandler(
	catalogRepo catalog.Repository,
	unlocks *catalog.UnlockResolver,
	completions catalog.CompletionChecker,
) *GetLessonsHandler {
	return &GetLessonsHandler{
		catalogRepo: catalogRepo,
		unlocks:     unlocks,
		completions: completions,
	}
}

// Handle выполняет запрос уроков.
func (h *GetLessonsHandler) Handle(ctx context.Context, q GetLessonsQuery) ([]LessonDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("catalog", "GetLessons", shared.ErrValidation, "validation failed", err)
	}

	lessons, err := h.catalogRepo.ListLessons(ctx, q.UnitID)
	if err != nil {
		return nil, fmt.Errorf("get_lessons: %w", err)
	}

	unlocked, err := h.unlocks.ResolveForLessons(ctx, q.UserID, lessons)
	if err != nil {
		return nil, fmt.Errorf("get_lessons: failed to resolve unlocks: %w", err)
	}

	result := make([]LessonDTO, 0, len(lessons))
	for _, lesson := range lessons {
		dto := LessonDTO{
			ID:         lesson.ID,
			Title:      lesson.Title,
			Type:       string(lesson.Type),
			Order:      lesson.Order,
			XPReward:   lesson.XPReward,
			IsUnlocked: unlocked[lesson.ID],
		}
		if q.UserID != "" {
			completed, err := h.completions.HasCompleted(ctx, q.UserID, lesson.ID)
			if err != nil {
				return nil, fmt.Errorf("get_lessons: failed to check completion: %w", err)
			}
			dto.Completed = completed
		}
		result = append(result, dto)
	}

	return result, nil
}
