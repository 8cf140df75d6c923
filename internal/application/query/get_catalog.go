package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/speakably/speakably-backend/internal/domain/catalog"
	"github.com/speakably/speakably-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ЗАПРОСЫ КАТАЛОГА
// Списки языков и юнитов. Уроки с флагом доступности живут в GetLessons.
// ══════════════════════════════════════════════════════════════════════════════

// LanguageDTO - язык в каталоге.
type LanguageDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Flag string `json:"flag"`
}

// UnitDTO - юнит курса.
type UnitDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
	Icon  string `json:"icon"`
}

// ExerciseDTO - упражнение урока.
type ExerciseDTO struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Order       int    `json:"order"`
	XPReward    int    `json:"xp_reward"`
}

// GetCatalogHandler обрабатывает запросы чтения каталога.
type GetCatalogHandler struct {
	catalogRepo catalog.Repository
}

// NewGetCatalogHandler создаёт обработчик.
func NewGetCatalogHandler(catalogRepo catalog.Repository) *GetCatalogHandler {
	return &GetCatalogHandler{catalogRepo: catalogRepo}
}

// ListLanguages возвращает все языки, по алфавиту.
func (h *GetCatalogHandler) ListLanguages(ctx context.Context) ([]LanguageDTO, error) {
	languages, err := h.catalogRepo.ListLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_languages: %w", err)
	}

	dtos := make([]LanguageDTO, 0, len(languages))
	for _, lang := range languages {
		dtos = append(dtos, LanguageDTO{
			ID:   lang.ID,
			Name: lang.Name,
			Code: lang.Code,
			Flag: lang.Flag,
		})
	}
	return dtos, nil
}

// ListUnits возвращает юниты языка в порядке прохождения.
func (h *GetCatalogHandler) ListUnits(ctx context.Context, languageID string) ([]UnitDTO, error) {
	if languageID == "" {
		return nil, shared.WrapError("catalog", "ListUnits", shared.ErrValidation,
			"validation failed", errors.New("language_id is required"))
	}

	units, err := h.catalogRepo.ListUnits(ctx, languageID)
	if err != nil {
		return nil, fmt.Errorf("list_units: %w", err)
	}

	dtos := make([]UnitDTO, 0, len(units))
	for _, unit := range units {
		dtos = append(dtos, UnitDTO{
			ID:    unit.ID,
			Title: unit.Title,
			Order: unit.Order,
			Icon:  unit.Icon,
		})
	}
	return dtos, nil
}

// ListExercises возвращает упражнения урока в порядке прохождения.
// Несуществующий урок - ошибка not found, а не пустой список.
func (h *GetCatalogHandler) ListExercises(ctx context.Context, lessonID string) ([]ExerciseDTO, error) {
	if lessonID == "" {
		return nil, shared.WrapError("catalog", "ListExercises", shared.ErrValidation,
			"validation failed", errors.New("lesson_id is required"))
	}

	if _, err := h.catalogRepo.GetLesson(ctx, lessonID); err != nil {
		if errors.Is(err, catalog.ErrLessonNotFound) || shared.IsNotFound(err) {
			return nil, shared.ErrLessonNotFound
		}
		return nil, fmt.Errorf("list_exercises: failed to load lesson: %w", err)
	}

	exercises, err := h.catalogRepo.ListExercises(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list_exercises: %w", err)
	}

	dtos := make([]ExerciseDTO, 0, len(exercises))
	for _, ex := range exercises {
		dtos = append(dtos, ExerciseDTO{
			ID:          ex.ID,
			Type:        string(ex.Type),
			Word:        ex.Word,
			Translation: ex.Translation,
			Order:       ex.Order,
			XPReward:    ex.XPReward,
		})
	}
	return dtos, nil
}
