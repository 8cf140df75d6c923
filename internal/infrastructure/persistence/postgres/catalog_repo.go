// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"fmt"

	"github.com/speakably/speakably-backend/internal/domain/catalog"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CatalogRepository implements catalog.Repository for PostgreSQL.
type CatalogRepository struct {
	conn *Connection
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Languages
// ─────────────────────────────────────────────────────────────────────────────

// CreateLanguage persists a new language.
func (r *CatalogRepository) CreateLanguage(ctx context.Context, lang *catalog.Language) error {
	query := `
		INSERT INTO languages (id, name, code, flag, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query, lang.ID, lang.Name, lang.Code, lang.Flag, lang.CreatedAt, lang.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("language code %q already exists", lang.Code)
		}
		return fmt.Errorf("failed to create language: %w", err)
	}
	return nil
}

// GetLanguage returns a language by ID.
func (r *CatalogRepository) GetLanguage(ctx context.Context, id string) (*catalog.Language, error) {
	lang := &catalog.Language{}
	err := r.conn.QueryRow(ctx,
		`SELECT id, name, code, flag, created_at, updated_at FROM languages WHERE id = $1`, id,
	).Scan(&lang.ID, &lang.Name, &lang.Code, &lang.Flag, &lang.CreatedAt, &lang.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, catalog.ErrLanguageNotFound
		}
		return nil, fmt.Errorf("failed to get language: %w", err)
	}
	return lang, nil
}

// ListLanguages returns all languages ordered by name.
func (r *CatalogRepository) ListLanguages(ctx context.Context) ([]*catalog.Language, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT id, name, code, flag, created_at, updated_at FROM languages ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}
	defer rows.Close()

	var languages []*catalog.Language
	for rows.Next() {
		lang := &catalog.Language{}
		if err := rows.Scan(&lang.ID, &lang.Name, &lang.Code, &lang.Flag, &lang.CreatedAt, &lang.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan language: %w", err)
		}
		languages = append(languages, lang)
	}
	return languages, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Units
// ─────────────────────────────────────────────────────────────────────────────

// CreateUnit persists a new unit.
func (r *CatalogRepository) CreateUnit(ctx context.Context, unit *catalog.Unit) error {
	query := `
		INSERT INTO units (id, language_id, title, sort_order, icon, proficiency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		unit.ID, unit.LanguageID, unit.Title, unit.Order, unit.Icon, unit.Proficiency,
		unit.CreatedAt, unit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create unit: %w", err)
	}
	return nil
}

// ListUnits returns the units of a language ordered by position.
func (r *CatalogRepository) ListUnits(ctx context.Context, languageID string) ([]*catalog.Unit, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, language_id, title, sort_order, icon, proficiency, created_at, updated_at
		FROM units WHERE language_id = $1 ORDER BY sort_order`, languageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var units []*catalog.Unit
	for rows.Next() {
		unit := &catalog.Unit{}
		if err := rows.Scan(&unit.ID, &unit.LanguageID, &unit.Title, &unit.Order, &unit.Icon,
			&unit.Proficiency, &unit.CreatedAt, &unit.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Lessons
// ─────────────────────────────────────────────────────────────────────────────

const lessonColumns = `id, unit_id, title, content, lesson_type, sort_order, xp_reward, prerequisite_id, created_at, updated_at`

// CreateLesson persists a new lesson.
func (r *CatalogRepository) CreateLesson(ctx context.Context, lesson *catalog.Lesson) error {
	query := `
		INSERT INTO lessons (` + lessonColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query,
		lesson.ID, lesson.UnitID, lesson.Title, lesson.Content, string(lesson.Type),
		lesson.Order, lesson.XPReward, lesson.PrerequisiteID, lesson.CreatedAt, lesson.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

// GetLesson returns a lesson by ID.
func (r *CatalogRepository) GetLesson(ctx context.Context, id string) (*catalog.Lesson, error) {
	lesson, err := r.scanLesson(r.conn.QueryRow(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	return lesson, nil
}

// ListLessons returns the lessons of a unit ordered by position.
func (r *CatalogRepository) ListLessons(ctx context.Context, unitID string) ([]*catalog.Lesson, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE unit_id = $1 ORDER BY sort_order`, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []*catalog.Lesson
	for rows.Next() {
		lesson, err := r.scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}
	return lessons, rows.Err()
}

func (r *CatalogRepository) scanLesson(row rowScanner) (*catalog.Lesson, error) {
	lesson := &catalog.Lesson{}
	var lessonType string

	err := row.Scan(&lesson.ID, &lesson.UnitID, &lesson.Title, &lesson.Content, &lessonType,
		&lesson.Order, &lesson.XPReward, &lesson.PrerequisiteID, &lesson.CreatedAt, &lesson.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, catalog.ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to scan lesson: %w", err)
	}

	lesson.Type = catalog.LessonType(lessonType)
	return lesson, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Exercises
// ─────────────────────────────────────────────────────────────────────────────

// CreateExercise persists a new exercise.
func (r *CatalogRepository) CreateExercise(ctx context.Context, ex *catalog.Exercise) error {
	query := `
		INSERT INTO exercises (id, lesson_id, exercise_type, word, translation, sort_order, xp_reward, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		ex.ID, ex.LessonID, string(ex.Type), ex.Word, ex.Translation, ex.Order, ex.XPReward, ex.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create exercise: %w", err)
	}
	return nil
}

// ListExercises returns the exercises of a lesson ordered by position.
func (r *CatalogRepository) ListExercises(ctx context.Context, lessonID string) ([]*catalog.Exercise, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, lesson_id, exercise_type, word, translation, sort_order, xp_reward, created_at
		FROM exercises WHERE lesson_id = $1 ORDER BY sort_order`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	defer rows.Close()

	var exercises []*catalog.Exercise
	for rows.Next() {
		ex := &catalog.Exercise{}
		var exType string
		if err := rows.Scan(&ex.ID, &ex.LessonID, &exType, &ex.Word, &ex.Translation,
			&ex.Order, &ex.XPReward, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		ex.Type = catalog.ExerciseType(exType)
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}
