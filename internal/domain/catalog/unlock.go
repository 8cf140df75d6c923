package catalog

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNLOCK RESOLVER
// ══════════════════════════════════════════════════════════════════════════════

// CompletionChecker answers whether a user has ever completed a lesson.
// The progress domain provides the implementation; catalog only needs this
// single question answered.
type CompletionChecker interface {
	// HasCompleted reports whether the user has at least one completion
	// record for the lesson, on any day.
	HasCompleted(ctx context.Context, userID, lessonID string) (bool, error)
}

// UnlockResolver decides lesson availability per user.
//
// Rules:
//   - a lesson without a prerequisite is always unlocked
//   - anonymous callers (empty userID) see every gated lesson as locked
//   - a gated lesson unlocks once the prerequisite has ever been completed;
//     unlocking never reverses
//
// Only the direct prerequisite is checked. The chain property holds
// transitively: a lesson deep in the chain cannot have been completed
// without its own prerequisite having been unlocked at the time.
type UnlockResolver struct {
	completions CompletionChecker
}

// NewUnlockResolver creates a resolver backed by the given completion source.
func NewUnlockResolver(completions CompletionChecker) *UnlockResolver {
	return &UnlockResolver{completions: completions}
}

// IsUnlocked resolves availability of a single lesson for a user.
func (r *UnlockResolver) IsUnlocked(ctx context.Context, userID string, lesson *Lesson) (bool, error) {
	if lesson == nil {
		return false, ErrLessonNotFound
	}

	if !lesson.HasPrerequisite() {
		return true, nil
	}

	if userID == "" {
		return false, nil
	}

	return r.completions.HasCompleted(ctx, userID, *lesson.PrerequisiteID)
}

// ResolveForLessons computes the unlocked flag for a batch of lessons,
// keyed by lesson ID. Used by list endpoints so each lesson carries its
// per-user availability.
func (r *UnlockResolver) ResolveForLessons(ctx context.Context, userID string, lessons []*Lesson) (map[string]bool, error) {
	result := make(map[string]bool, len(lessons))

	for _, lesson := range lessons {
		unlocked, err := r.IsUnlocked(ctx, userID, lesson)
		if err != nil {
			return nil, err
		}
		result[lesson.ID] = unlocked
	}

	return result, nil
}
