package messaging

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakably/speakably-backend/internal/domain/shared"
)

func newSyncBus() *InMemoryEventBus {
	cfg := DefaultConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

func TestEventBus_DeliversToSubscribedType(t *testing.T) {
	bus := newSyncBus()
	defer func() { _ = bus.Close() }()

	var got []shared.EventType
	err := bus.Subscribe(shared.EventDailyGoalReached, func(e shared.Event) error {
		got = append(got, e.EventType())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(shared.NewDailyGoalReachedEvent("user-1", 5)))
	require.NoError(t, bus.Publish(shared.NewStreakMilestoneEvent("user-1", 7)))

	require.Len(t, got, 1)
	assert.Equal(t, shared.EventDailyGoalReached, got[0])
}

func TestEventBus_SubscribeAllSeesEverything(t *testing.T) {
	bus := newSyncBus()
	defer func() { _ = bus.Close() }()

	var count int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		count++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewDailyGoalReachedEvent("user-1", 5)))
	require.NoError(t, bus.Publish(shared.NewStreakMilestoneEvent("user-1", 7)))

	assert.Equal(t, 2, count)
}

func TestEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := newSyncBus()
	defer func() { _ = bus.Close() }()

	require.NoError(t, bus.Subscribe(shared.EventDailyGoalReached, func(shared.Event) error {
		return errors.New("boom")
	}))

	assert.NoError(t, bus.Publish(shared.NewDailyGoalReachedEvent("user-1", 5)))
}

func TestEventBus_NilHandlerRejected(t *testing.T) {
	bus := newSyncBus()
	defer func() { _ = bus.Close() }()

	assert.ErrorIs(t, bus.Subscribe(shared.EventDailyGoalReached, nil), ErrNilHandler)
	assert.ErrorIs(t, bus.SubscribeAll(nil), ErrNilHandler)
}

func TestEventBus_ClosedBusRejectsPublish(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewDailyGoalReachedEvent("user-1", 5))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	// Close is idempotent
	assert.NoError(t, bus.Close())
}

func TestEventBus_AsyncCloseWaitsForHandlers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorkerPoolSize = 8
	bus := NewInMemoryEventBus(cfg)

	var handled atomic.Int32
	var release sync.WaitGroup
	release.Add(1)

	require.NoError(t, bus.Subscribe(shared.EventStreakMilestone, func(shared.Event) error {
		release.Wait()
		handled.Add(1)
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(shared.NewStreakMilestoneEvent("user-1", 7)))
	}

	release.Done()
	require.NoError(t, bus.Close())

	assert.Equal(t, int32(5), handled.Load())
}
