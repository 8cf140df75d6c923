// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/speakably/speakably-backend/internal/domain/leaderboard"
	"github.com/speakably/speakably-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// The leaderboard is a pure aggregation over the completion ledger, so it
// can always be rebuilt and never drifts from the source of truth.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// AggregateSince returns per-user XP sums for records on or after
// periodStart. The ordering here is informational; ranking (including the
// deterministic tie-break) happens in the domain.
func (r *LeaderboardRepository) AggregateSince(ctx context.Context, periodStart time.Time) ([]leaderboard.Entry, error) {
	query := `
		SELECT c.user_id, p.username, SUM(c.xp_earned) AS total_xp
		FROM lesson_completions c
		JOIN learner_profiles p ON p.user_id = c.user_id
		WHERE c.completed_on >= $1
		GROUP BY c.user_id, p.username
		ORDER BY total_xp DESC, c.user_id ASC
	`

	rows, err := r.conn.Query(ctx, query, timeutil.StartOfDay(periodStart))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []leaderboard.Entry
	for rows.Next() {
		var entry leaderboard.Entry
		if err := rows.Scan(&entry.UserID, &entry.Username, &entry.TotalXP); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// AggregateUserSince returns one user's XP sum for the period. Users with
// no records sum to zero.
func (r *LeaderboardRepository) AggregateUserSince(ctx context.Context, userID string, periodStart time.Time) (int, error) {
	var total int
	err := r.conn.QueryRow(ctx, `
		SELECT COALESCE(SUM(xp_earned), 0)
		FROM lesson_completions
		WHERE user_id = $1 AND completed_on >= $2`,
		userID, timeutil.StartOfDay(periodStart),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate user xp: %w", err)
	}
	return total, nil
}
