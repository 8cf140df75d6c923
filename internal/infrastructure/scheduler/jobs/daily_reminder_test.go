package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakably/speakably-backend/internal/domain/leaderboard"
	"github.com/speakably/speakably-backend/internal/domain/learner"
	"github.com/speakably/speakably-backend/internal/domain/notification"
	"github.com/speakably/speakably-backend/pkg/logger"
	"github.com/speakably/speakably-backend/pkg/timeutil"
)

// ──────────────────────────────────────────────────────────────────────────────
// FAKES
// ──────────────────────────────────────────────────────────────────────────────

type fakeProfiles struct {
	mu         sync.Mutex
	candidates []*learner.Profile
}

func (f *fakeProfiles) Create(ctx context.Context, p *learner.Profile) error { return nil }

func (f *fakeProfiles) GetByUserID(ctx context.Context, userID string) (*learner.Profile, error) {
	for _, p := range f.candidates {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, learner.ErrProfileNotFound
}

func (f *fakeProfiles) GetByUsername(ctx context.Context, username learner.Username) (*learner.Profile, error) {
	return nil, learner.ErrProfileNotFound
}

func (f *fakeProfiles) Update(ctx context.Context, p *learner.Profile) error { return nil }

func (f *fakeProfiles) ListAll(ctx context.Context, opts learner.ListOptions) ([]*learner.Profile, error) {
	return f.candidates, nil
}

func (f *fakeProfiles) FindReminderCandidates(ctx context.Context) ([]*learner.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.candidates, nil
}

func (f *fakeProfiles) Exists(ctx context.Context, userID string) (bool, error) {
	_, err := f.GetByUserID(ctx, userID)
	return err == nil, nil
}

type fakeNotifications struct {
	mu      sync.Mutex
	created []*notification.Notification
}

func (f *fakeNotifications) Create(ctx context.Context, n *notification.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotifications) GetByID(ctx context.Context, id string) (*notification.Notification, error) {
	return nil, notification.ErrNotificationNotFound
}

func (f *fakeNotifications) ListByUser(ctx context.Context, userID string, onlyUnread bool, limit int) ([]*notification.Notification, error) {
	return nil, nil
}

func (f *fakeNotifications) MarkRead(ctx context.Context, id string) error       { return nil }
func (f *fakeNotifications) MarkAllRead(ctx context.Context, userID string) error { return nil }

func (f *fakeNotifications) CountUnread(ctx context.Context, userID string) (int, error) {
	return 0, nil
}

func (f *fakeNotifications) ExistsSince(ctx context.Context, userID string, notifType notification.Type, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, n := range f.created {
		if n.UserID == userID && n.Type == notifType && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotifications) forUser(userID string) []*notification.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*notification.Notification
	for _, n := range f.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type fakeSink struct {
	mu        sync.Mutex
	delivered []string
}

func (f *fakeSink) Deliver(ctx context.Context, n *notification.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, n.ID)
	return nil
}

type fakeAggregates struct {
	entries []leaderboard.Entry
	calls   int
}

func (f *fakeAggregates) AggregateSince(ctx context.Context, periodStart time.Time) ([]leaderboard.Entry, error) {
	f.calls++
	return f.entries, nil
}

func (f *fakeAggregates) AggregateUserSince(ctx context.Context, userID string, periodStart time.Time) (int, error) {
	for _, e := range f.entries {
		if e.UserID == userID {
			return e.TotalXP, nil
		}
	}
	return 0, nil
}

type fakeCache struct {
	mu   sync.Mutex
	sets map[string][]leaderboard.Entry
}

func newFakeCache() *fakeCache {
	return &fakeCache{sets: make(map[string][]leaderboard.Entry)}
}

func (f *fakeCache) Get(ctx context.Context, rng leaderboard.Range, periodStart time.Time) ([]leaderboard.Entry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, ok := f.sets[string(rng)]
	return entries, ok, nil
}

func (f *fakeCache) Set(ctx context.Context, rng leaderboard.Range, periodStart time.Time, entries []leaderboard.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets[string(rng)] = entries
	return nil
}

func (f *fakeCache) Invalidate(ctx context.Context, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = make(map[string][]leaderboard.Entry)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// HELPERS
// ──────────────────────────────────────────────────────────────────────────────

func testProfile(t *testing.T, userID string, username learner.Username) *learner.Profile {
	t.Helper()

	p, err := learner.NewProfile(learner.NewProfileParams{
		UserID:   userID,
		Username: username,
		Email:    string(username) + "@example.com",
	})
	require.NoError(t, err)
	return p
}

func reminderJobAt(profiles *fakeProfiles, notifications *fakeNotifications, sink *fakeSink, at time.Time) *DailyReminderJob {
	job := NewDailyReminderJob(profiles, notifications, sink, logger.Default(), DefaultDailyReminderConfig())
	job.now = func() time.Time { return at }
	return job
}

// ──────────────────────────────────────────────────────────────────────────────
// DAILY REMINDER
// ──────────────────────────────────────────────────────────────────────────────

func TestDailyReminderJob_SendsWithinWindow(t *testing.T) {
	profile := testProfile(t, "user-1", "alice")
	profile.Preferences.ReminderTime = "19:00"

	profiles := &fakeProfiles{candidates: []*learner.Profile{profile}}
	notifications := &fakeNotifications{}
	sink := &fakeSink{}

	at := time.Date(2026, 3, 18, 19, 5, 0, 0, time.UTC)
	job := reminderJobAt(profiles, notifications, sink, at)

	require.NoError(t, job.Run(context.Background()))

	created := notifications.forUser("user-1")
	require.Len(t, created, 1)
	assert.Equal(t, notification.TypeDailyReminder, created[0].Type)
	assert.Equal(t, notification.DailyReminderMessage, created[0].Message)
	assert.Len(t, sink.delivered, 1)
}

func TestDailyReminderJob_SkipsOutsideWindow(t *testing.T) {
	profile := testProfile(t, "user-1", "alice")
	profile.Preferences.ReminderTime = "19:00"

	profiles := &fakeProfiles{candidates: []*learner.Profile{profile}}
	notifications := &fakeNotifications{}

	at := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)
	job := reminderJobAt(profiles, notifications, &fakeSink{}, at)

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, notifications.forUser("user-1"))
}

func TestDailyReminderJob_SkipsWhenGoalReached(t *testing.T) {
	at := time.Date(2026, 3, 18, 19, 0, 0, 0, time.UTC)

	profile := testProfile(t, "user-1", "alice")
	profile.DailyGoalTarget = 2
	profile.DailyGoalCompleted = 2
	profile.LastActivityDate = timeutil.StartOfDay(at)

	profiles := &fakeProfiles{candidates: []*learner.Profile{profile}}
	notifications := &fakeNotifications{}

	job := reminderJobAt(profiles, notifications, &fakeSink{}, at)

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, notifications.forUser("user-1"))
}

func TestDailyReminderJob_StaleCounterStillReminds(t *testing.T) {
	// Счётчик цели остался со вчера: сегодня он не считается.
	at := time.Date(2026, 3, 18, 19, 0, 0, 0, time.UTC)

	profile := testProfile(t, "user-1", "alice")
	profile.DailyGoalTarget = 2
	profile.DailyGoalCompleted = 2
	profile.LastActivityDate = timeutil.StartOfDay(at.AddDate(0, 0, -1))

	profiles := &fakeProfiles{candidates: []*learner.Profile{profile}}
	notifications := &fakeNotifications{}

	job := reminderJobAt(profiles, notifications, &fakeSink{}, at)

	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, notifications.forUser("user-1"), 1)
}

func TestDailyReminderJob_OnePerDay(t *testing.T) {
	profile := testProfile(t, "user-1", "alice")

	profiles := &fakeProfiles{candidates: []*learner.Profile{profile}}
	notifications := &fakeNotifications{}

	at := time.Date(2026, 3, 18, 19, 0, 0, 0, time.UTC)
	job := reminderJobAt(profiles, notifications, &fakeSink{}, at)

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))

	assert.Len(t, notifications.forUser("user-1"), 1)
}

func TestDailyReminderJob_DisabledPreferenceSkipped(t *testing.T) {
	profile := testProfile(t, "user-1", "alice")
	profile.Preferences.DailyReminder = false

	profiles := &fakeProfiles{candidates: []*learner.Profile{profile}}
	notifications := &fakeNotifications{}

	at := time.Date(2026, 3, 18, 19, 0, 0, 0, time.UTC)
	job := reminderJobAt(profiles, notifications, &fakeSink{}, at)

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, notifications.forUser("user-1"))
}

// ──────────────────────────────────────────────────────────────────────────────
// REBUILD LEADERBOARD
// ──────────────────────────────────────────────────────────────────────────────

func TestRebuildLeaderboardJob_WarmsAllRanges(t *testing.T) {
	aggregates := &fakeAggregates{entries: []leaderboard.Entry{
		{UserID: "user-2", Username: "bob", TotalXP: 50},
		{UserID: "user-1", Username: "alice", TotalXP: 80},
	}}
	cache := newFakeCache()

	job := NewRebuildLeaderboardJob(aggregates, cache, logger.Default())
	job.now = func() time.Time { return time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 3, aggregates.calls)
	for _, rng := range []leaderboard.Range{leaderboard.RangeDay, leaderboard.RangeWeek, leaderboard.RangeMonth} {
		entries, ok := cache.sets[string(rng)]
		require.True(t, ok, "range %s not cached", rng)
		require.Len(t, entries, 2)
		assert.Equal(t, "user-1", entries[0].UserID)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, 2, entries[1].Rank)
	}
}
