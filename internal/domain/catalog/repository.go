package catalog

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository provides access to the curriculum catalog.
type Repository interface {
	// CreateLanguage persists a new language.
	CreateLanguage(ctx context.Context, lang *Language) error

	// GetLanguage returns a language by ID.
	GetLanguage(ctx context.Context, id string) (*Language, error)

	// ListLanguages returns all languages ordered by name.
	ListLanguages(ctx context.Context) ([]*Language, error)

	// CreateUnit persists a new unit.
	CreateUnit(ctx context.Context, unit *Unit) error

	// ListUnits returns the units of a language ordered by Order.
	ListUnits(ctx context.Context, languageID string) ([]*Unit, error)

	// CreateLesson persists a new lesson.
	CreateLesson(ctx context.Context, lesson *Lesson) error

	// GetLesson returns a lesson by ID.
	GetLesson(ctx context.Context, id string) (*Lesson, error)

	// ListLessons returns the lessons of a unit ordered by Order.
	ListLessons(ctx context.Context, unitID string) ([]*Lesson, error)

	// CreateExercise persists a new exercise.
	CreateExercise(ctx context.Context, exercise *Exercise) error

	// ListExercises returns the exercises of a lesson ordered by Order.
	ListExercises(ctx context.Context, lessonID string) ([]*Exercise, error)
}
