package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakably/speakably-backend/internal/domain/leaderboard"
	"github.com/speakably/speakably-backend/internal/domain/learner"
	"github.com/speakably/speakably-backend/internal/domain/shared"
)

type fakeAggregates struct {
	entries []leaderboard.Entry
	calls   int
}

func (f *fakeAggregates) AggregateSince(_ context.Context, _ time.Time) ([]leaderboard.Entry, error) {
	f.calls++
	return f.entries, nil
}

func (f *fakeAggregates) AggregateUserSince(_ context.Context, userID string, _ time.Time) (int, error) {
	for _, e := range f.entries {
		if e.UserID == userID {
			return e.TotalXP, nil
		}
	}
	return 0, nil
}

type fakeProfileReader struct {
	usernames map[string]string
}

func (f *fakeProfileReader) GetByUserID(_ context.Context, userID string) (*learner.Profile, error) {
	name, ok := f.usernames[userID]
	if !ok {
		return nil, learner.ErrProfileNotFound
	}
	return &learner.Profile{UserID: userID, Username: learner.Username(name)}, nil
}

func (f *fakeProfileReader) Create(context.Context, *learner.Profile) error { return nil }
func (f *fakeProfileReader) GetByUsername(context.Context, learner.Username) (*learner.Profile, error) {
	return nil, learner.ErrProfileNotFound
}
func (f *fakeProfileReader) Update(context.Context, *learner.Profile) error { return nil }
func (f *fakeProfileReader) ListAll(context.Context, learner.ListOptions) ([]*learner.Profile, error) {
	return nil, nil
}
func (f *fakeProfileReader) FindReminderCandidates(context.Context) ([]*learner.Profile, error) {
	return nil, nil
}
func (f *fakeProfileReader) Exists(context.Context, string) (bool, error) { return false, nil }

type fakeCache struct {
	entries map[string][]leaderboard.Entry
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]leaderboard.Entry)}
}

func cacheKey(rng leaderboard.Range, start time.Time) string {
	return string(rng) + "|" + start.Format("2006-01-02")
}

func (f *fakeCache) Get(_ context.Context, rng leaderboard.Range, start time.Time) ([]leaderboard.Entry, bool, error) {
	entries, ok := f.entries[cacheKey(rng, start)]
	return entries, ok, nil
}

func (f *fakeCache) Set(_ context.Context, rng leaderboard.Range, start time.Time, entries []leaderboard.Entry) error {
	f.entries[cacheKey(rng, start)] = entries
	return nil
}

func (f *fakeCache) Invalidate(context.Context, time.Time) error {
	f.entries = make(map[string][]leaderboard.Entry)
	return nil
}

func TestGetLeaderboard_RanksWithTies(t *testing.T) {
	aggregates := &fakeAggregates{entries: []leaderboard.Entry{
		{UserID: "u1", TotalXP: 30},
		{UserID: "u3", TotalXP: 50},
		{UserID: "u2", TotalXP: 50},
	}}
	profiles := &fakeProfileReader{usernames: map[string]string{
		"u1": "anna", "u2": "boris", "u3": "clara",
	}}

	handler := NewGetLeaderboardHandler(aggregates, profiles, nil)

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{
		Range:            "week",
		RequestingUserID: "u1",
		Now:              time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, result.Entries, 3)
	// Равные 50 XP упорядочены по UserID, u1 с 30 - третий.
	assert.Equal(t, "u2", result.Entries[0].UserID)
	assert.Equal(t, "u3", result.Entries[1].UserID)
	assert.Equal(t, "u1", result.Entries[2].UserID)
	assert.Equal(t, 3, result.Entries[2].Rank)
	assert.Equal(t, "boris", result.Entries[0].Username)

	require.NotNil(t, result.RequesterRank)
	assert.Equal(t, 3, *result.RequesterRank)

	// Неделя начинается с понедельника.
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), result.PeriodStart)
}

func TestGetLeaderboard_RequesterWithoutXP(t *testing.T) {
	aggregates := &fakeAggregates{entries: []leaderboard.Entry{{UserID: "u1", TotalXP: 10}}}
	handler := NewGetLeaderboardHandler(aggregates, &fakeProfileReader{usernames: map[string]string{}}, nil)

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{
		Range:            "day",
		RequestingUserID: "ghost",
	})
	require.NoError(t, err)
	assert.Nil(t, result.RequesterRank, "пользователь без XP за период не имеет позиции")
}

func TestGetLeaderboard_InvalidRange(t *testing.T) {
	handler := NewGetLeaderboardHandler(&fakeAggregates{}, &fakeProfileReader{}, nil)

	_, err := handler.Handle(context.Background(), GetLeaderboardQuery{Range: "year"})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestGetLeaderboard_CacheHitSkipsAggregation(t *testing.T) {
	aggregates := &fakeAggregates{entries: []leaderboard.Entry{{UserID: "u1", TotalXP: 10}}}
	cache := newFakeCache()
	handler := NewGetLeaderboardHandler(aggregates, &fakeProfileReader{usernames: map[string]string{"u1": "anna"}}, cache)
	now := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)

	_, err := handler.Handle(context.Background(), GetLeaderboardQuery{Range: "day", Now: now})
	require.NoError(t, err)
	require.Equal(t, 1, aggregates.calls)

	_, err = handler.Handle(context.Background(), GetLeaderboardQuery{Range: "day", Now: now})
	require.NoError(t, err)
	assert.Equal(t, 1, aggregates.calls, "второй запрос обслуживается из кэша")
}

func TestGetDailyProgress_StaleCounterReadsAsZero(t *testing.T) {
	yesterday := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	profile, err := learner.NewProfile(learner.NewProfileParams{
		UserID:   "u1",
		Username: "anna",
		Email:    "anna@example.com",
	})
	require.NoError(t, err)
	profile.ApplyCompletion(10, yesterday)
	require.Equal(t, 1, profile.DailyGoalCompleted)

	handler := NewGetDailyProgressHandler(staticProfileRepo{profile: profile})

	dto, err := handler.Handle(context.Background(), GetDailyProgressQuery{
		UserID: "u1",
		Now:    time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, dto.GoalCompleted, "вчерашний счётчик не виден сегодня")
	assert.Equal(t, 0, dto.GoalPercent)
	assert.False(t, dto.GoalReached)
	assert.True(t, dto.StreakAtRisk)
	assert.Equal(t, 1, dto.CurrentStreak, "стрик хранится как есть до следующей активности")
}

// staticProfileRepo отдаёт один фиксированный профиль.
type staticProfileRepo struct {
	profile *learner.Profile
}

func (s staticProfileRepo) GetByUserID(_ context.Context, userID string) (*learner.Profile, error) {
	if s.profile != nil && s.profile.UserID == userID {
		return s.profile, nil
	}
	return nil, learner.ErrProfileNotFound
}

func (s staticProfileRepo) Create(context.Context, *learner.Profile) error { return nil }
func (s staticProfileRepo) GetByUsername(context.Context, learner.Username) (*learner.Profile, error) {
	return nil, learner.ErrProfileNotFound
}
func (s staticProfileRepo) Update(context.Context, *learner.Profile) error { return nil }
func (s staticProfileRepo) ListAll(context.Context, learner.ListOptions) ([]*learner.Profile, error) {
	return nil, nil
}
func (s staticProfileRepo) FindReminderCandidates(context.Context) ([]*learner.Profile, error) {
	return nil, nil
}
func (s staticProfileRepo) Exists(context.Context, string) (bool, error) { return false, nil }
