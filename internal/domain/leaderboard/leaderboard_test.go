package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_OrderingAndTies(t *testing.T) {
	// U2 и U3 с равными 50 XP идут по возрастанию UserID, U1 с 30 - последним.
	entries := []Entry{
		{UserID: "u1", TotalXP: 30},
		{UserID: "u3", TotalXP: 50},
		{UserID: "u2", TotalXP: 50},
	}

	ranked := Rank(entries, 0)
	require.Len(t, ranked, 3)

	assert.Equal(t, "u2", ranked[0].UserID)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "u3", ranked[1].UserID)
	assert.Equal(t, 2, ranked[1].Rank)
	assert.Equal(t, "u1", ranked[2].UserID)
	assert.Equal(t, 3, ranked[2].Rank)

	rank, ok := RankOf(ranked, "u1")
	require.True(t, ok)
	assert.Equal(t, 3, rank)
}

func TestRank_Deterministic(t *testing.T) {
	entries := []Entry{
		{UserID: "b", TotalXP: 50},
		{UserID: "a", TotalXP: 50},
		{UserID: "c", TotalXP: 50},
	}

	first := Rank(entries, 0)
	second := Rank(entries, 0)
	assert.Equal(t, first, second, "равные суммы всегда в одном и том же порядке")
	assert.Equal(t, "a", first[0].UserID)
	assert.Equal(t, "b", first[1].UserID)
	assert.Equal(t, "c", first[2].UserID)
}

func TestRank_Limit(t *testing.T) {
	entries := []Entry{
		{UserID: "u1", TotalXP: 10},
		{UserID: "u2", TotalXP: 20},
		{UserID: "u3", TotalXP: 30},
	}

	ranked := Rank(entries, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "u3", ranked[0].UserID)
	assert.Equal(t, "u2", ranked[1].UserID)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	entries := []Entry{
		{UserID: "u1", TotalXP: 10},
		{UserID: "u2", TotalXP: 20},
	}

	_ = Rank(entries, 0)
	assert.Equal(t, "u1", entries[0].UserID, "входной срез не переупорядочивается")
}

func TestRankOf_UserWithoutXP(t *testing.T) {
	ranked := Rank([]Entry{{UserID: "u1", TotalXP: 10}}, 0)

	rank, ok := RankOf(ranked, "ghost")
	assert.False(t, ok, "пользователь без XP за период не имеет позиции")
	assert.Equal(t, 0, rank)
}

func TestRank_Empty(t *testing.T) {
	ranked := Rank(nil, 10)
	assert.Empty(t, ranked)
}

func TestParseRange(t *testing.T) {
	for _, valid := range []string{"day", "week", "month"} {
		rng, err := ParseRange(valid)
		require.NoError(t, err)
		assert.True(t, rng.IsValid())
	}

	_, err := ParseRange("year")
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ParseRange("")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestRange_PeriodStart(t *testing.T) {
	// Среда, 18 марта 2026, 15:42 UTC.
	now := time.Date(2026, 3, 18, 15, 42, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC), RangeDay.PeriodStart(now))
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), RangeWeek.PeriodStart(now), "неделя начинается с понедельника")
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), RangeMonth.PeriodStart(now))
}
