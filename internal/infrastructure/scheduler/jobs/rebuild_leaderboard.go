package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/speakably/speakably-backend/internal/domain/leaderboard"
	"github.com/speakably/speakably-backend/pkg/logger"
	"github.com/speakably/speakably-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob re-aggregates the day, week, and month rankings
// and warms the cache with them, so read traffic rarely pays for the
// SQL aggregation.
type RebuildLeaderboardJob struct {
	aggregates leaderboard.Repository
	cache      leaderboard.Cache
	log        *logger.Logger
	timeout    time.Duration

	now func() time.Time
}

// NewRebuildLeaderboardJob creates a new rebuild job.
func NewRebuildLeaderboardJob(
	aggregates leaderboard.Repository,
	cache leaderboard.Cache,
	log *logger.Logger,
) *RebuildLeaderboardJob {
	if log == nil {
		log = logger.Default()
	}

	return &RebuildLeaderboardJob{
		aggregates: aggregates,
		cache:      cache,
		log:        log.With(logger.String("job", "rebuild_leaderboard")),
		timeout:    time.Minute,
		now:        timeutil.Now,
	}
}

func (j *RebuildLeaderboardJob) Name() string { return "rebuild_leaderboard" }

func (j *RebuildLeaderboardJob) Description() string {
	return "Warms the leaderboard cache for all ranges"
}

// Run rebuilds all three period rankings. A failure on one range does
// not stop the others.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	now := j.now()

	var firstErr error
	for _, rng := range []leaderboard.Range{leaderboard.RangeDay, leaderboard.RangeWeek, leaderboard.RangeMonth} {
		if err := j.rebuildRange(ctx, rng, now); err != nil {
			j.log.Error("range rebuild failed",
				logger.String("range", string(rng)),
				logger.Err(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

func (j *RebuildLeaderboardJob) rebuildRange(ctx context.Context, rng leaderboard.Range, now time.Time) error {
	periodStart := rng.PeriodStart(now)

	raw, err := j.aggregates.AggregateSince(ctx, periodStart)
	if err != nil {
		return fmt.Errorf("aggregate %s: %w", rng, err)
	}

	ranked := leaderboard.Rank(raw, 0)

	if err := j.cache.Set(ctx, rng, periodStart, ranked); err != nil {
		return fmt.Errorf("cache %s: %w", rng, err)
	}

	j.log.Debug("range rebuilt",
		logger.String("range", string(rng)),
		logger.Int("entries", len(ranked)),
	)

	return nil
}
