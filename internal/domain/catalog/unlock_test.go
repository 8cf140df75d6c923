package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompletionChecker answers from an in-memory set of (user, lesson) pairs.
type fakeCompletionChecker struct {
	completed map[string]map[string]bool
}

func newFakeCompletionChecker() *fakeCompletionChecker {
	return &fakeCompletionChecker{completed: make(map[string]map[string]bool)}
}

func (f *fakeCompletionChecker) markCompleted(userID, lessonID string) {
	if f.completed[userID] == nil {
		f.completed[userID] = make(map[string]bool)
	}
	f.completed[userID][lessonID] = true
}

func (f *fakeCompletionChecker) HasCompleted(_ context.Context, userID, lessonID string) (bool, error) {
	return f.completed[userID][lessonID], nil
}

func strPtr(s string) *string { return &s }

func mustLesson(t *testing.T, id string, prerequisiteID *string) *Lesson {
	t.Helper()
	lesson, err := NewLesson(id, "unit-1", "Lesson "+id, "content", LessonTypeVocabulary, 1, 10, prerequisiteID)
	require.NoError(t, err)
	return lesson
}

func TestUnlockResolver_NoPrerequisiteAlwaysUnlocked(t *testing.T) {
	resolver := NewUnlockResolver(newFakeCompletionChecker())
	lesson := mustLesson(t, "l1", nil)

	unlocked, err := resolver.IsUnlocked(context.Background(), "user-1", lesson)
	require.NoError(t, err)
	assert.True(t, unlocked)

	// Even anonymous callers see ungated lessons as available.
	unlocked, err = resolver.IsUnlocked(context.Background(), "", lesson)
	require.NoError(t, err)
	assert.True(t, unlocked)
}

func TestUnlockResolver_AnonymousSeesGatedAsLocked(t *testing.T) {
	checker := newFakeCompletionChecker()
	checker.markCompleted("user-1", "l1")
	resolver := NewUnlockResolver(checker)

	gated := mustLesson(t, "l2", strPtr("l1"))

	unlocked, err := resolver.IsUnlocked(context.Background(), "", gated)
	require.NoError(t, err)
	assert.False(t, unlocked)
}

func TestUnlockResolver_UnlocksAfterPrerequisiteCompleted(t *testing.T) {
	checker := newFakeCompletionChecker()
	resolver := NewUnlockResolver(checker)

	gated := mustLesson(t, "l2", strPtr("l1"))

	unlocked, err := resolver.IsUnlocked(context.Background(), "user-1", gated)
	require.NoError(t, err)
	assert.False(t, unlocked, "locked until the prerequisite is completed")

	checker.markCompleted("user-1", "l1")

	unlocked, err = resolver.IsUnlocked(context.Background(), "user-1", gated)
	require.NoError(t, err)
	assert.True(t, unlocked, "unlocks once the prerequisite has ever been completed")
}

func TestUnlockResolver_ChainOrdering(t *testing.T) {
	// A -> B -> C: completing lessons in order unlocks each next link,
	// and C stays locked while only A is done.
	checker := newFakeCompletionChecker()
	resolver := NewUnlockResolver(checker)
	ctx := context.Background()

	lessonA := mustLesson(t, "a", nil)
	lessonB := mustLesson(t, "b", strPtr("a"))
	lessonC := mustLesson(t, "c", strPtr("b"))

	flags, err := resolver.ResolveForLessons(ctx, "user-1", []*Lesson{lessonA, lessonB, lessonC})
	require.NoError(t, err)
	assert.True(t, flags["a"])
	assert.False(t, flags["b"])
	assert.False(t, flags["c"])

	checker.markCompleted("user-1", "a")

	flags, err = resolver.ResolveForLessons(ctx, "user-1", []*Lesson{lessonA, lessonB, lessonC})
	require.NoError(t, err)
	assert.True(t, flags["b"])
	assert.False(t, flags["c"], "c requires b, not just a")

	checker.markCompleted("user-1", "b")

	flags, err = resolver.ResolveForLessons(ctx, "user-1", []*Lesson{lessonA, lessonB, lessonC})
	require.NoError(t, err)
	assert.True(t, flags["c"])
}

func TestUnlockResolver_PerUserIsolation(t *testing.T) {
	checker := newFakeCompletionChecker()
	checker.markCompleted("user-1", "l1")
	resolver := NewUnlockResolver(checker)

	gated := mustLesson(t, "l2", strPtr("l1"))

	unlocked, err := resolver.IsUnlocked(context.Background(), "user-2", gated)
	require.NoError(t, err)
	assert.False(t, unlocked, "one user's progress must not unlock lessons for another")
}

func TestUnlockResolver_NilLesson(t *testing.T) {
	resolver := NewUnlockResolver(newFakeCompletionChecker())

	_, err := resolver.IsUnlocked(context.Background(), "user-1", nil)
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestNewLesson_Validation(t *testing.T) {
	t.Run("zero reward falls back to default", func(t *testing.T) {
		lesson, err := NewLesson("l1", "u1", "Greetings", "", LessonTypeVocabulary, 1, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultXPReward, lesson.XPReward)
	})

	t.Run("negative reward rejected", func(t *testing.T) {
		_, err := NewLesson("l1", "u1", "Greetings", "", LessonTypeVocabulary, 1, -5, nil)
		assert.ErrorIs(t, err, ErrInvalidXPReward)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, err := NewLesson("l1", "u1", "Greetings", "", LessonType("quiz"), 1, 10, nil)
		assert.ErrorIs(t, err, ErrInvalidLessonType)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		_, err := NewLesson("l1", "u1", "   ", "", LessonTypeGrammar, 1, 10, nil)
		assert.ErrorIs(t, err, ErrInvalidTitle)
	})
}
