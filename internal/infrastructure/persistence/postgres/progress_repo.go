// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/speakably/speakably-backend/internal/domain/progress"
	"github.com/speakably/speakably-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION LEDGER IMPLEMENTATION
// The unique constraint uq_completion_per_day (user_id, lesson_id,
// completed_on) enforces one credit per lesson per UTC day regardless of
// how many writers race.
// ══════════════════════════════════════════════════════════════════════════════

// LedgerRepository implements progress.Ledger for PostgreSQL.
type LedgerRepository struct {
	conn *Connection
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(conn *Connection) *LedgerRepository {
	return &LedgerRepository{conn: conn}
}

// Append adds a completion record. A unique violation surfaces as
// progress.ErrDuplicateCompletion.
func (r *LedgerRepository) Append(ctx context.Context, rec *progress.CompletionRecord) error {
	query := `
		INSERT INTO lesson_completions (id, user_id, lesson_id, xp_earned, completed_on, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.LessonID,
		rec.XPEarned,
		rec.CompletedOn,
		rec.CompletedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return progress.ErrDuplicateCompletion
		}
		return fmt.Errorf("failed to append completion: %w", err)
	}

	return nil
}

// ExistsOn reports whether a record exists for the given calendar day.
func (r *LedgerRepository) ExistsOn(ctx context.Context, userID, lessonID string, day time.Time) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM lesson_completions
			WHERE user_id = $1 AND lesson_id = $2 AND completed_on = $3
		)`, userID, lessonID, timeutil.StartOfDay(day),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check completion: %w", err)
	}
	return exists, nil
}

// HasCompleted reports whether the user ever completed the lesson.
func (r *LedgerRepository) HasCompleted(ctx context.Context, userID, lessonID string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM lesson_completions
			WHERE user_id = $1 AND lesson_id = $2
		)`, userID, lessonID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check completion history: %w", err)
	}
	return exists, nil
}

// ListByUser returns a user's completions, newest first.
func (r *LedgerRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*progress.CompletionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, lesson_id, xp_earned, completed_on, completed_at
		FROM lesson_completions
		WHERE user_id = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	defer rows.Close()

	var records []*progress.CompletionRecord
	for rows.Next() {
		rec := &progress.CompletionRecord{}
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.LessonID, &rec.XPEarned, &rec.CompletedOn, &rec.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		rec.CompletedOn = rec.CompletedOn.UTC()
		rec.CompletedAt = rec.CompletedAt.UTC()
		records = append(records, rec)
	}

	return records, rows.Err()
}

// CountOn returns the number of completions for a calendar day.
func (r *LedgerRepository) CountOn(ctx context.Context, userID string, day time.Time) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `
		SELECT COUNT(*) FROM lesson_completions
		WHERE user_id = $1 AND completed_on = $2`,
		userID, timeutil.StartOfDay(day),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completions: %w", err)
	}
	return count, nil
}

// DeleteByUser removes all of a user's completion records.
func (r *LedgerRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM lesson_completions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete completions: %w", err)
	}
	return nil
}
