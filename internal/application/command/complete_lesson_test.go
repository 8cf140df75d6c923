package command

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakably/speakably-backend/internal/domain/catalog"
	"github.com/speakably/speakably-backend/internal/domain/learner"
	"github.com/speakably/speakably-backend/internal/domain/progress"
	"github.com/speakably/speakably-backend/internal/domain/shared"
	"github.com/speakably/speakably-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]*learner.Profile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[string]*learner.Profile)}
}

func (f *fakeProfiles) Create(_ context.Context, p *learner.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[p.UserID]; ok {
		return shared.ErrStorageConflict
	}
	f.profiles[p.UserID] = p.Clone()
	return nil
}

func (f *fakeProfiles) GetByUserID(_ context.Context, userID string) (*learner.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, learner.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (f *fakeProfiles) GetByUsername(_ context.Context, username learner.Username) (*learner.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Username == username {
			return p.Clone(), nil
		}
	}
	return nil, learner.ErrProfileNotFound
}

func (f *fakeProfiles) GetForUpdate(ctx context.Context, userID string) (*learner.Profile, error) {
	return f.GetByUserID(ctx, userID)
}

func (f *fakeProfiles) Update(_ context.Context, p *learner.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[p.UserID]; !ok {
		return learner.ErrProfileNotFound
	}
	f.profiles[p.UserID] = p.Clone()
	return nil
}

func (f *fakeProfiles) ListAll(_ context.Context, _ learner.ListOptions) ([]*learner.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*learner.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (f *fakeProfiles) FindReminderCandidates(ctx context.Context) ([]*learner.Profile, error) {
	return f.ListAll(ctx, learner.ListOptions{})
}

func (f *fakeProfiles) Exists(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.profiles[userID]
	return ok, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	records map[string]*progress.CompletionRecord
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[string]*progress.CompletionRecord)}
}

func ledgerKey(userID, lessonID string, day time.Time) string {
	return fmt.Sprintf("%s|%s|%s", userID, lessonID, timeutil.FormatDay(day))
}

func (f *fakeLedger) Append(_ context.Context, r *progress.CompletionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ledgerKey(r.UserID, r.LessonID, r.CompletedOn)
	if _, ok := f.records[key]; ok {
		return progress.ErrDuplicateCompletion
	}
	f.records[key] = r
	return nil
}

func (f *fakeLedger) ExistsOn(_ context.Context, userID, lessonID string, day time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[ledgerKey(userID, lessonID, day)]
	return ok, nil
}

func (f *fakeLedger) HasCompleted(_ context.Context, userID, lessonID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.UserID == userID && r.LessonID == lessonID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) ListByUser(_ context.Context, userID string, _ int) ([]*progress.CompletionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*progress.CompletionRecord
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedger) CountOn(_ context.Context, userID string, day time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.records {
		if r.UserID == userID && r.CompletedOn.Equal(day) {
			count++
		}
	}
	return count, nil
}

func (f *fakeLedger) DeleteByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, r := range f.records {
		if r.UserID == userID {
			delete(f.records, key)
		}
	}
	return nil
}

type fakeCatalog struct {
	lessons map[string]*catalog.Lesson
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{lessons: make(map[string]*catalog.Lesson)}
}

func (f *fakeCatalog) addLesson(t *testing.T, id string, xpReward int, prerequisiteID *string) {
	t.Helper()
	lesson, err := catalog.NewLesson(id, "unit-1", "Lesson "+id, "", catalog.LessonTypeVocabulary, 1, xpReward, prerequisiteID)
	require.NoError(t, err)
	f.lessons[id] = lesson
}

func (f *fakeCatalog) GetLesson(_ context.Context, id string) (*catalog.Lesson, error) {
	lesson, ok := f.lessons[id]
	if !ok {
		return nil, catalog.ErrLessonNotFound
	}
	return lesson, nil
}

func (f *fakeCatalog) CreateLanguage(context.Context, *catalog.Language) error { return nil }
func (f *fakeCatalog) GetLanguage(context.Context, string) (*catalog.Language, error) {
	return nil, catalog.ErrLanguageNotFound
}
func (f *fakeCatalog) ListLanguages(context.Context) ([]*catalog.Language, error) { return nil, nil }
func (f *fakeCatalog) CreateUnit(context.Context, *catalog.Unit) error            { return nil }
func (f *fakeCatalog) ListUnits(context.Context, string) ([]*catalog.Unit, error) { return nil, nil }
func (f *fakeCatalog) CreateLesson(context.Context, *catalog.Lesson) error        { return nil }
func (f *fakeCatalog) ListLessons(context.Context, string) ([]*catalog.Lesson, error) {
	return nil, nil
}
func (f *fakeCatalog) CreateExercise(context.Context, *catalog.Exercise) error { return nil }
func (f *fakeCatalog) ListExercises(context.Context, string) ([]*catalog.Exercise, error) {
	return nil, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (f *fakePublisher) Publish(e shared.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakePublisher) eventTypes() []shared.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]shared.EventType, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.EventType())
	}
	return types
}

// ══════════════════════════════════════════════════════════════════════════════
// FIXTURE
// ══════════════════════════════════════════════════════════════════════════════

type completeLessonFixture struct {
	handler   *CompleteLessonHandler
	profiles  *fakeProfiles
	ledger    *fakeLedger
	catalog   *fakeCatalog
	publisher *fakePublisher
}

func newCompleteLessonFixture(t *testing.T) *completeLessonFixture {
	t.Helper()

	profiles := newFakeProfiles()
	ledger := newFakeLedger()
	cat := newFakeCatalog()
	publisher := &fakePublisher{}

	profile, err := learner.NewProfile(learner.NewProfileParams{
		UserID:   "user-1",
		Username: "alice",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)
	require.NoError(t, profiles.Create(context.Background(), profile))

	handler := NewCompleteLessonHandler(
		fakeTxRunner{},
		profiles,
		ledger,
		cat,
		catalog.NewUnlockResolver(ledger),
		publisher,
		nil,
	)

	return &completeLessonFixture{
		handler:   handler,
		profiles:  profiles,
		ledger:    ledger,
		catalog:   cat,
		publisher: publisher,
	}
}

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestCompleteLesson_FirstCompletion(t *testing.T) {
	fx := newCompleteLessonFixture(t)
	fx.catalog.addLesson(t, "lesson-1", 15, nil)

	result, err := fx.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID:    "user-1",
		LessonID:  "lesson-1",
		Timestamp: day(2026, 3, 14, 10),
	})
	require.NoError(t, err)

	assert.Equal(t, progress.OutcomeCreated, result.Outcome)
	assert.Equal(t, 15, result.XPEarned)
	assert.Equal(t, 15, result.TotalXP)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t, 1, result.DailyGoalCompleted)
	assert.False(t, result.GoalJustReached)

	assert.Contains(t, fx.publisher.eventTypes(), shared.EventLessonCompleted)
}

func TestCompleteLesson_SameDayIsIdempotent(t *testing.T) {
	fx := newCompleteLessonFixture(t)
	fx.catalog.addLesson(t, "lesson-1", 15, nil)
	ctx := context.Background()

	first, err := fx.handler.Handle(ctx, CompleteLessonCommand{
		UserID:    "user-1",
		LessonID:  "lesson-1",
		Timestamp: day(2026, 3, 14, 10),
	})
	require.NoError(t, err)
	require.Equal(t, progress.OutcomeCreated, first.Outcome)

	// Repeat on the same day: no error, no state change, no new events.
	eventsBefore := len(fx.publisher.eventTypes())

	second, err := fx.handler.Handle(ctx, CompleteLessonCommand{
		UserID:    "user-1",
		LessonID:  "lesson-1",
		Timestamp: day(2026, 3, 14, 18),
	})
	require.NoError(t, err)

	assert.Equal(t, progress.OutcomeAlreadyCompletedToday, second.Outcome)
	assert.Equal(t, 0, second.XPEarned)
	assert.Equal(t, first.TotalXP, second.TotalXP)
	assert.Equal(t, first.CurrentStreak, second.CurrentStreak)
	assert.Equal(t, first.DailyGoalCompleted, second.DailyGoalCompleted)
	assert.Len(t, fx.publisher.eventTypes(), eventsBefore)
}

func TestCompleteLesson_SameLessonNextDayCountsAgain(t *testing.T) {
	fx := newCompleteLessonFixture(t)
	fx.catalog.addLesson(t, "lesson-1", 10, nil)
	ctx := context.Background()

	_, err := fx.handler.Handle(ctx, CompleteLessonCommand{
		UserID: "user-1", LessonID: "lesson-1", Timestamp: day(2026, 3, 14, 10),
	})
	require.NoError(t, err)

	result, err := fx.handler.Handle(ctx, CompleteLessonCommand{
		UserID: "user-1", LessonID: "lesson-1", Timestamp: day(2026, 3, 15, 9),
	})
	require.NoError(t, err)

	assert.Equal(t, progress.OutcomeCreated, result.Outcome)
	assert.Equal(t, 20, result.TotalXP)
	assert.Equal(t, 2, result.CurrentStreak)
	assert.True(t, result.StreakExtended)
	assert.Equal(t, 1, result.DailyGoalCompleted, "daily counter starts over on a new day")
}

func TestCompleteLesson_GapResetsStreak(t *testing.T) {
	fx := newCompleteLessonFixture(t)
	fx.catalog.addLesson(t, "lesson-1", 10, nil)
	fx.catalog.addLesson(t, "lesson-2", 10, nil)
	ctx := context.Background()

	_, err := fx.handler.Handle(ctx, CompleteLessonCommand{
		UserID: "user-1", LessonID: "lesson-1", Timestamp: day(2026, 3, 14, 10),
	})
	require.NoError(t, err)
	_, err = fx.handler.Handle(ctx, CompleteLessonCommand{
		UserID: "user-1", LessonID: "lesson-2", Timestamp: day(2026, 3, 15, 10),
	})
	require.NoError(t, err)

	// Two idle days: the streak restarts at 1, XP keeps accumulating.
	result, err := fx.handler.Handle(ctx, CompleteLessonCommand{
		UserID: "user-1", LessonID: "lesson-1", Timestamp: day(2026, 3, 18, 10),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.CurrentStreak)
	assert.True(t, result.StreakReset)
	assert.False(t, result.StreakExtended)
	assert.Equal(t, 30, result.TotalXP)
}

func TestCompleteLesson_GoalReachedEmitsEvent(t *testing.T) {
	fx := newCompleteLessonFixture(t)
	ctx := context.Background()

	profile, err := fx.profiles.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, profile.SetDailyGoal(2))
	require.NoError(t, fx.profiles.Update(ctx, profile))

	fx.catalog.addLesson(t, "lesson-1", 10, nil)
	fx.catalog.addLesson(t, "lesson-2", 10, nil)

	first, err := fx.handler.Handle(ctx, CompleteLessonCommand{
		UserID: "user-1", LessonID: "lesson-1", Timestamp: day(2026, 3, 14, 10),
	})
	require.NoError(t, err)
	assert.False(t, first.GoalJustReached)

	second, err := fx.handler.Handle(ctx, CompleteLessonCommand{
		UserID: "user-1", LessonID: "lesson-2", Timestamp: day(2026, 3, 14, 11),
	})
	require.NoError(t, err)
	assert.True(t, second.GoalJustReached)
	assert.Contains(t, fx.publisher.eventTypes(), shared.EventDailyGoalReached)
}

func TestCompleteLesson_LockedLessonRejected(t *testing.T) {
	fx := newCompleteLessonFixture(t)
	prereq := "lesson-1"
	fx.catalog.addLesson(t, "lesson-1", 10, nil)
	fx.catalog.addLesson(t, "lesson-2", 10, &prereq)
	ctx := context.Background()

	_, err := fx.handler.Handle(ctx, CompleteLessonCommand{
		UserID: "user-1", LessonID: "lesson-2", Timestamp: day(2026, 3, 14, 10),
	})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	// Completing the prerequisite opens the gate.
	_, err = fx.handler.Handle(ctx, CompleteLessonCommand{
		UserID: "user-1", LessonID: "lesson-1", Timestamp: day(2026, 3, 14, 10),
	})
	require.NoError(t, err)

	result, err := fx.handler.Handle(ctx, CompleteLessonCommand{
		UserID: "user-1", LessonID: "lesson-2", Timestamp: day(2026, 3, 14, 11),
	})
	require.NoError(t, err)
	assert.Equal(t, progress.OutcomeCreated, result.Outcome)
}

func TestCompleteLesson_UnknownLesson(t *testing.T) {
	fx := newCompleteLessonFixture(t)

	_, err := fx.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: "user-1", LessonID: "ghost", Timestamp: day(2026, 3, 14, 10),
	})
	assert.True(t, shared.IsNotFound(err))
}

func TestCompleteLesson_UnknownUser(t *testing.T) {
	fx := newCompleteLessonFixture(t)
	fx.catalog.addLesson(t, "lesson-1", 10, nil)

	_, err := fx.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: "ghost", LessonID: "lesson-1", Timestamp: day(2026, 3, 14, 10),
	})
	assert.True(t, shared.IsNotFound(err))
}

func TestCompleteLesson_DefaultXPWhenRewardMissing(t *testing.T) {
	fx := newCompleteLessonFixture(t)
	// A zero reward falls back to the catalog default at authoring time.
	fx.catalog.addLesson(t, "lesson-1", 0, nil)

	result, err := fx.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: "user-1", LessonID: "lesson-1", Timestamp: day(2026, 3, 14, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, 10, result.XPEarned)
}

func TestCompleteLesson_ExplicitXPOverride(t *testing.T) {
	fx := newCompleteLessonFixture(t)
	fx.catalog.addLesson(t, "lesson-1", 10, nil)

	result, err := fx.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: "user-1", LessonID: "lesson-1", XPEarned: 25, Timestamp: day(2026, 3, 14, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, 25, result.XPEarned)
	assert.Equal(t, 25, result.TotalXP)
}

func TestCompleteLesson_NegativeXPRejected(t *testing.T) {
	fx := newCompleteLessonFixture(t)
	fx.catalog.addLesson(t, "lesson-1", 10, nil)

	_, err := fx.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: "user-1", LessonID: "lesson-1", XPEarned: -5, Timestamp: day(2026, 3, 14, 10),
	})
	assert.True(t, shared.IsValidation(err))
}

func TestResetProgress_WipesStateAndLedger(t *testing.T) {
	fx := newCompleteLessonFixture(t)
	fx.catalog.addLesson(t, "lesson-1", 10, nil)
	ctx := context.Background()

	_, err := fx.handler.Handle(ctx, CompleteLessonCommand{
		UserID: "user-1", LessonID: "lesson-1", Timestamp: day(2026, 3, 14, 10),
	})
	require.NoError(t, err)

	resetHandler := NewResetProgressHandler(fakeTxRunner{}, fx.profiles, fx.ledger, fx.publisher, nil)
	_, err = resetHandler.Handle(ctx, ResetProgressCommand{UserID: "user-1"})
	require.NoError(t, err)

	profile, err := fx.profiles.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, int(profile.XP))
	assert.Equal(t, 0, profile.CurrentStreak)

	// After the wipe the same lesson can be credited again today: the
	// ledger rows are gone, so the idempotency key no longer matches.
	result, err := fx.handler.Handle(ctx, CompleteLessonCommand{
		UserID: "user-1", LessonID: "lesson-1", Timestamp: day(2026, 3, 14, 18),
	})
	require.NoError(t, err)
	assert.Equal(t, progress.OutcomeCreated, result.Outcome)
	assert.Equal(t, 10, result.TotalXP)
	assert.Equal(t, 1, result.CurrentStreak)
}

func TestCompleteLesson_StreakMilestoneEvent(t *testing.T) {
	fx := newCompleteLessonFixture(t)
	fx.catalog.addLesson(t, "lesson-1", 10, nil)
	ctx := context.Background()

	// Three consecutive days reach the first milestone.
	for d := 14; d <= 16; d++ {
		_, err := fx.handler.Handle(ctx, CompleteLessonCommand{
			UserID: "user-1", LessonID: "lesson-1", Timestamp: day(2026, 3, d, 10),
		})
		require.NoError(t, err)
	}

	assert.Contains(t, fx.publisher.eventTypes(), shared.EventStreakMilestone)
}
