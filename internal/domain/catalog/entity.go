// Package catalog contains the curriculum domain model: languages, units,
// lessons and exercises. Content authoring lives outside the core - this
// package only models the entities and the unlock rules the progress engine
// needs.
package catalog

import (
	"errors"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// LessonType defines the kind of lesson.
type LessonType string

const (
	LessonTypeVocabulary LessonType = "vocabulary"
	LessonTypeGrammar    LessonType = "grammar"
	LessonTypeListening  LessonType = "listening"
	LessonTypeSpeaking   LessonType = "speaking"
	LessonTypePractice   LessonType = "practice"
)

// IsValid checks that the lesson type is one of the known kinds.
func (t LessonType) IsValid() bool {
	switch t {
	case LessonTypeVocabulary, LessonTypeGrammar, LessonTypeListening,
		LessonTypeSpeaking, LessonTypePractice:
		return true
	default:
		return false
	}
}

// ExerciseType defines the kind of exercise inside a lesson.
type ExerciseType string

const (
	ExerciseTypeTranslation ExerciseType = "translation"
	ExerciseTypeMultiChoice ExerciseType = "multiple_choice"
	ExerciseTypeListening   ExerciseType = "listening"
	ExerciseTypeSpeaking    ExerciseType = "speaking"
	ExerciseTypeMatching    ExerciseType = "matching"
)

// IsValid checks that the exercise type is one of the known kinds.
func (t ExerciseType) IsValid() bool {
	switch t {
	case ExerciseTypeTranslation, ExerciseTypeMultiChoice, ExerciseTypeListening,
		ExerciseTypeSpeaking, ExerciseTypeMatching:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Language is a learnable language in the catalog.
type Language struct {
	// ID is the unique identifier (UUID).
	ID string

	// Name is the display name, e.g. "Spanish".
	Name string

	// Code is the ISO 639-1 code, e.g. "es".
	Code string

	// Flag is the emoji flag shown in the UI.
	Flag string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Unit groups lessons within a language, ordered by Order.
type Unit struct {
	// ID is the unique identifier (UUID).
	ID string

	// LanguageID is the owning language.
	LanguageID string

	// Title is the unit title.
	Title string

	// Order positions the unit within the language (ascending).
	Order int

	// Icon is the emoji icon shown in the UI.
	Icon string

	// Proficiency is the intended learner level for this unit.
	Proficiency string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Lesson is a single learnable lesson.
type Lesson struct {
	// ID is the unique identifier (UUID).
	ID string

	// UnitID is the owning unit.
	UnitID string

	// Title is the lesson title.
	Title string

	// Content is the lesson body.
	Content string

	// Type is the lesson kind.
	Type LessonType

	// Order positions the lesson within the unit (ascending).
	Order int

	// XPReward is the XP credited for completing the lesson.
	XPReward int

	// PrerequisiteID references the lesson that must be completed first.
	// Nil means the lesson has no prerequisite. The prerequisite graph is
	// acyclic, validated at authoring time.
	PrerequisiteID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Exercise is a single drill inside a lesson.
type Exercise struct {
	// ID is the unique identifier (UUID).
	ID string

	// LessonID is the owning lesson.
	LessonID string

	// Type is the exercise kind.
	Type ExerciseType

	// Word is the prompt.
	Word string

	// Translation is the expected answer.
	Translation string

	// Order positions the exercise within the lesson (ascending).
	Order int

	// XPReward is the XP credited for the exercise.
	XPReward int

	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrLanguageNotFound - the language does not exist.
	ErrLanguageNotFound = errors.New("language not found")

	// ErrUnitNotFound - the unit does not exist.
	ErrUnitNotFound = errors.New("unit not found")

	// ErrLessonNotFound - the lesson does not exist.
	ErrLessonNotFound = errors.New("lesson not found")

	// ErrInvalidTitle - entity title is empty or too long.
	ErrInvalidTitle = errors.New("invalid title: must be 1-200 chars")

	// ErrInvalidLessonType - unknown lesson type.
	ErrInvalidLessonType = errors.New("invalid lesson type")

	// ErrInvalidXPReward - XP reward must be non-negative.
	ErrInvalidXPReward = errors.New("invalid xp reward: must be non-negative")
)

// DefaultXPReward is the fallback XP credited when no explicit reward is set.
const DefaultXPReward = 10

// NewLesson creates a validated lesson.
func NewLesson(id, unitID, title, content string, lessonType LessonType, order, xpReward int, prerequisiteID *string) (*Lesson, error) {
	if id == "" || unitID == "" {
		return nil, errors.New("lesson id and unit id are required")
	}

	title = strings.TrimSpace(title)
	if len(title) == 0 || len(title) > 200 {
		return nil, ErrInvalidTitle
	}

	if !lessonType.IsValid() {
		return nil, ErrInvalidLessonType
	}

	if xpReward < 0 {
		return nil, ErrInvalidXPReward
	}
	if xpReward == 0 {
		xpReward = DefaultXPReward
	}

	now := time.Now().UTC()

	return &Lesson{
		ID:             id,
		UnitID:         unitID,
		Title:          title,
		Content:        content,
		Type:           lessonType,
		Order:          order,
		XPReward:       xpReward,
		PrerequisiteID: prerequisiteID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// HasPrerequisite reports whether the lesson is gated on another lesson.
func (l *Lesson) HasPrerequisite() bool {
	return l.PrerequisiteID != nil && *l.PrerequisiteID != ""
}
