// Package leaderboard агрегирует XP из журнала прохождений в рейтинги
// за день, неделю и месяц. Лидерборд - производная проекция: его всегда
// можно перестроить из журнала.
package leaderboard

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/speakably/speakably-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ПЕРИОДЫ
// ══════════════════════════════════════════════════════════════════════════════

// Range - период агрегации.
type Range string

const (
	// RangeDay - текущий календарный день (UTC).
	RangeDay Range = "day"

	// RangeWeek - текущая неделя, с понедельника (UTC).
	RangeWeek Range = "week"

	// RangeMonth - текущий месяц, с первого числа (UTC).
	RangeMonth Range = "month"
)

// ErrInvalidRange - неизвестный период агрегации.
var ErrInvalidRange = errors.New("invalid leaderboard range: must be day, week or month")

// ParseRange разбирает строковый параметр периода.
func ParseRange(s string) (Range, error) {
	switch Range(s) {
	case RangeDay, RangeWeek, RangeMonth:
		return Range(s), nil
	default:
		return "", ErrInvalidRange
	}
}

// IsValid проверяет, что период известен.
func (r Range) IsValid() bool {
	switch r {
	case RangeDay, RangeWeek, RangeMonth:
		return true
	default:
		return false
	}
}

// PeriodStart возвращает начало периода относительно момента now (UTC).
func (r Range) PeriodStart(now time.Time) time.Time {
	switch r {
	case RangeWeek:
		return timeutil.StartOfWeek(now)
	case RangeMonth:
		return timeutil.StartOfMonth(now)
	default:
		return timeutil.StartOfDay(now)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ЗАПИСИ РЕЙТИНГА
// ══════════════════════════════════════════════════════════════════════════════

// Entry - одна строка рейтинга.
type Entry struct {
	// Rank - позиция, начиная с 1. Равные суммы получают соседние
	// позиции: порядок внутри равенства детерминирован по UserID.
	Rank int

	// UserID - пользователь.
	UserID string

	// Username - отображаемое имя (заполняется запросом, не агрегатором).
	Username string

	// TotalXP - сумма XP за период.
	TotalXP int
}

// Rank упорядочивает записи: по убыванию TotalXP, при равенстве -
// по возрастанию UserID. Проставляет позиции начиная с 1 и возвращает
// не более limit записей (limit <= 0 - без ограничения). Пользователи
// без записей за период в рейтинг не попадают.
func Rank(entries []Entry, limit int) []Entry {
	ranked := make([]Entry, len(entries))
	copy(ranked, entries)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalXP != ranked[j].TotalXP {
			return ranked[i].TotalXP > ranked[j].TotalXP
		}
		return ranked[i].UserID < ranked[j].UserID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}

// RankOf возвращает позицию пользователя в уже упорядоченном рейтинге.
// Если пользователь не заработал XP за период, возвращает (0, false).
func RankOf(ranked []Entry, userID string) (int, bool) {
	for _, e := range ranked {
		if e.UserID == userID {
			return e.Rank, true
		}
	}
	return 0, false
}

// ══════════════════════════════════════════════════════════════════════════════
// РЕПОЗИТОРИЙ
// ══════════════════════════════════════════════════════════════════════════════

// Repository агрегирует журнал прохождений за период.
type Repository interface {
	// AggregateSince возвращает неупорядоченные суммы XP по пользователям
	// за записи с CompletedOn >= periodStart.
	AggregateSince(ctx context.Context, periodStart time.Time) ([]Entry, error)

	// AggregateUserSince возвращает сумму XP одного пользователя за период.
	AggregateUserSince(ctx context.Context, userID string, periodStart time.Time) (int, error)
}

// Cache - кэш готовых рейтингов. Промах кэша не ошибка: запрос падает
// обратно на агрегацию из журнала.
type Cache interface {
	// Get возвращает кэшированный рейтинг периода, ok=false при промахе.
	Get(ctx context.Context, rng Range, periodStart time.Time) ([]Entry, bool, error)

	// Set сохраняет рейтинг периода с TTL на усмотрение реализации.
	Set(ctx context.Context, rng Range, periodStart time.Time, entries []Entry) error

	// Invalidate сбрасывает кэш всех периодов, затрагивающих момент at.
	Invalidate(ctx context.Context, at time.Time) error
}
