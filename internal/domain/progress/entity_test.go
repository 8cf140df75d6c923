package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompletionRecord(t *testing.T) {
	completedAt := time.Date(2026, 3, 14, 22, 45, 10, 0, time.UTC)

	t.Run("derives calendar day from timestamp", func(t *testing.T) {
		rec, err := NewCompletionRecord("rec-1", "user-1", "lesson-1", 15, completedAt)
		require.NoError(t, err)

		assert.Equal(t, 15, rec.XPEarned)
		assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), rec.CompletedOn)
		assert.Equal(t, completedAt, rec.CompletedAt)
	})

	t.Run("non-UTC timestamp is normalized", func(t *testing.T) {
		// 23:30 в UTC+5 - это 18:30 UTC того же дня.
		loc := time.FixedZone("UTC+5", 5*3600)
		local := time.Date(2026, 3, 14, 23, 30, 0, 0, loc)

		rec, err := NewCompletionRecord("rec-1", "user-1", "lesson-1", 10, local)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), rec.CompletedOn)
	})

	t.Run("zero xp falls back to default", func(t *testing.T) {
		rec, err := NewCompletionRecord("rec-1", "user-1", "lesson-1", 0, completedAt)
		require.NoError(t, err)
		assert.Equal(t, DefaultXPEarned, rec.XPEarned)
	})

	t.Run("negative xp rejected", func(t *testing.T) {
		_, err := NewCompletionRecord("rec-1", "user-1", "lesson-1", -1, completedAt)
		assert.ErrorIs(t, err, ErrInvalidXPEarned)
	})

	t.Run("missing identifiers rejected", func(t *testing.T) {
		_, err := NewCompletionRecord("", "user-1", "lesson-1", 10, completedAt)
		assert.Error(t, err)

		_, err = NewCompletionRecord("rec-1", "", "lesson-1", 10, completedAt)
		assert.Error(t, err)

		_, err = NewCompletionRecord("rec-1", "user-1", "", 10, completedAt)
		assert.Error(t, err)
	})
}
