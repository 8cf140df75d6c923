// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/speakably/speakably-backend/internal/domain/leaderboard"
	"github.com/speakably/speakably-backend/internal/domain/learner"
	"github.com/speakably/speakably-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Возвращает рейтинг по сумме XP за период: день, неделя или месяц.
// Пользователи без заработанного XP за период в рейтинг не попадают.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса лидерборда.
type GetLeaderboardQuery struct {
	// Range - период агрегации: "day", "week" или "month".
	Range string

	// Limit - количество записей (по умолчанию 20, максимум 100).
	Limit int

	// RequestingUserID - если задан, в ответ включается позиция этого
	// пользователя (даже вне топ-N).
	RequestingUserID string

	// Now - момент "сейчас" для вычисления границ периода
	// (по умолчанию текущее время UTC).
	Now time.Time
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if _, err := leaderboard.ParseRange(q.Range); err != nil {
		return err
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	return nil
}

// LeaderboardEntryDTO - DTO для записи лидерборда.
type LeaderboardEntryDTO struct {
	// Rank - позиция в рейтинге (начиная с 1).
	Rank int `json:"rank"`

	// UserID - идентификатор пользователя.
	UserID string `json:"user_id"`

	// Username - отображаемое имя.
	Username string `json:"username"`

	// TotalXP - сумма XP за период.
	TotalXP int `json:"total_xp"`
}

// GetLeaderboardResult содержит результат запроса лидерборда.
type GetLeaderboardResult struct {
	// Range - период агрегации.
	Range string `json:"range"`

	// PeriodStart - начало периода (UTC).
	PeriodStart time.Time `json:"period_start"`

	// Entries - записи рейтинга.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// RequesterRank - позиция запросившего пользователя; nil, если он
	// не заработал XP за период или не был указан.
	RequesterRank *int `json:"requester_rank,omitempty"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardHandler обрабатывает запрос лидерборда.
type GetLeaderboardHandler struct {
	aggregates leaderboard.Repository
	profiles   learner.Repository
	cache      leaderboard.Cache
}

// NewGetLeaderboardHandler создаёт новый GetLeaderboardHandler.
// Кэш опционален: nil отключает кэширование.
func NewGetLeaderboardHandler(
	aggregates leaderboard.Repository,
	profiles learner.Repository,
	cache leaderboard.Cache,
) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		aggregates: aggregates,
		profiles:   profiles,
		cache:      cache,
	}
}

// Handle выполняет запрос лидерборда.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("leaderboard", "Get", shared.ErrValidation, "validation failed", err)
	}

	rng, _ := leaderboard.ParseRange(q.Range)

	now := q.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	periodStart := rng.PeriodStart(now)

	ranked, err := h.loadRanked(ctx, rng, periodStart)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	result := &GetLeaderboardResult{
		Range:       string(rng),
		PeriodStart: periodStart,
		Entries:     make([]LeaderboardEntryDTO, 0, q.Limit),
		GeneratedAt: time.Now().UTC(),
	}

	limit := q.Limit
	if limit > len(ranked) {
		limit = len(ranked)
	}
	for _, entry := range ranked[:limit] {
		result.Entries = append(result.Entries, LeaderboardEntryDTO{
			Rank:     entry.Rank,
			UserID:   entry.UserID,
			Username: h.resolveUsername(ctx, entry),
			TotalXP:  entry.TotalXP,
		})
	}

	if q.RequestingUserID != "" {
		if rank, ok := leaderboard.RankOf(ranked, q.RequestingUserID); ok {
			result.RequesterRank = &rank
		}
	}

	return result, nil
}

// loadRanked читает рейтинг из кэша или строит его из журнала.
func (h *GetLeaderboardHandler) loadRanked(ctx context.Context, rng leaderboard.Range, periodStart time.Time) ([]leaderboard.Entry, error) {
	if h.cache != nil {
		if cached, ok, err := h.cache.Get(ctx, rng, periodStart); err == nil && ok {
			return cached, nil
		}
	}

	raw, err := h.aggregates.AggregateSince(ctx, periodStart)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate: %w", err)
	}

	ranked := leaderboard.Rank(raw, 0)

	if h.cache != nil {
		_ = h.cache.Set(ctx, rng, periodStart, ranked)
	}

	return ranked, nil
}

// resolveUsername подставляет имя пользователя; при ошибке остаётся
// имя из агрегата (может быть пустым).
func (h *GetLeaderboardHandler) resolveUsername(ctx context.Context, entry leaderboard.Entry) string {
	if entry.Username != "" {
		return entry.Username
	}
	profile, err := h.profiles.GetByUserID(ctx, entry.UserID)
	if err != nil {
		return ""
	}
	return string(profile.Username)
}
