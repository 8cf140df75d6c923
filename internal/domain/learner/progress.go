// Package learner содержит доменную модель ученика Speakably.
package learner

import (
	"math"
	"time"

	"github.com/speakably/speakably-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY STATE
// Состояние профиля относительно календарного дня. Определяет, как
// засчитанный урок меняет серию и дневной счётчик.
// ══════════════════════════════════════════════════════════════════════════════

// ActivityState представляет состояние активности профиля на дату.
type ActivityState string

const (
	// StateFresh - активности ещё не было.
	StateFresh ActivityState = "fresh"
	// StateActiveToday - последняя активность была сегодня.
	StateActiveToday ActivityState = "active_today"
	// StateActiveYesterday - последняя активность была вчера.
	StateActiveYesterday ActivityState = "active_yesterday"
	// StateStale - последняя активность была позавчера или раньше.
	StateStale ActivityState = "stale"
)

// ActivityStateOn вычисляет состояние профиля на указанную дату.
func (p *Profile) ActivityStateOn(today time.Time) ActivityState {
	if p.LastActivityDate.IsZero() {
		return StateFresh
	}

	switch timeutil.DaysBetween(p.LastActivityDate, today) {
	case 0:
		return StateActiveToday
	case 1:
		return StateActiveYesterday
	default:
		return StateStale
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK / XP STATE MACHINE
// ══════════════════════════════════════════════════════════════════════════════

// CompletionResult описывает, что изменилось после зачёта урока.
// Используется для генерации доменных событий.
type CompletionResult struct {
	// XPEarned - сколько XP начислено.
	XPEarned int

	// StreakExtended - серия выросла на 1 (переход через границу дня).
	StreakExtended bool

	// StreakReset - серия была сброшена и начата заново.
	StreakReset bool

	// GoalJustReached - этим уроком дневная цель достигнута впервые за день.
	GoalJustReached bool
}

// ApplyCompletion применяет засчитанный урок к профилю.
//
// Переходы:
//   - ActiveToday: серия не меняется, дневной счётчик +1, XP растёт.
//   - ActiveYesterday: серия +1, дневной счётчик начинается заново с 1.
//   - Fresh/Stale: серия сбрасывается в 1, дневной счётчик начинается с 1.
//
// Серия растёт ТОЛЬКО на переходе через границу дня: сколько бы уроков
// ни было пройдено за один день, серия увеличится максимум на 1.
//
// Дневной счётчик на переходе "вчера -> сегодня" начинается заново с 1,
// а не инкрементируется поверх вчерашнего значения: счётчик относится
// к календарному дню и вчерашнее значение для нового дня устарело.
func (p *Profile) ApplyCompletion(xpEarned int, today time.Time) CompletionResult {
	if xpEarned < 0 {
		xpEarned = 0
	}

	day := timeutil.StartOfDay(today)
	result := CompletionResult{XPEarned: xpEarned}

	goalWasReached := p.EffectiveDailyGoalCompleted(today) >= p.DailyGoalTarget && p.DailyGoalTarget > 0

	switch p.ActivityStateOn(day) {
	case StateActiveToday:
		p.DailyGoalCompleted++

	case StateActiveYesterday:
		p.CurrentStreak++
		p.DailyGoalCompleted = 1
		p.LastActivityDate = day
		p.LastStreakDate = &day
		result.StreakExtended = true

	default: // StateFresh, StateStale
		result.StreakReset = p.CurrentStreak > 0
		p.CurrentStreak = 1
		p.DailyGoalCompleted = 1
		p.LastActivityDate = day
		p.LastStreakDate = &day
		result.StreakExtended = true
	}

	p.XP = p.XP.Add(XP(xpEarned))
	if p.CurrentStreak > p.BestStreak {
		p.BestStreak = p.CurrentStreak
	}
	p.UpdatedAt = time.Now().UTC()

	if !goalWasReached && p.DailyGoalTarget > 0 && p.DailyGoalCompleted >= p.DailyGoalTarget {
		result.GoalJustReached = true
	}

	return result
}

// ══════════════════════════════════════════════════════════════════════════════
// DAILY ROLLOVER POLICY
// Хранимый счётчик никогда не обнуляется фоновым процессом в полночь -
// устаревание разрешается лениво на каждом чтении.
// ══════════════════════════════════════════════════════════════════════════════

// EffectiveDailyGoalCompleted возвращает дневной счётчик с учётом смены дня.
// Если последняя активность была не сегодня, счётчик читается как 0.
func (p *Profile) EffectiveDailyGoalCompleted(today time.Time) int {
	if p.LastActivityDate.IsZero() {
		return 0
	}
	if timeutil.SameDay(p.LastActivityDate, today) {
		return p.DailyGoalCompleted
	}
	return 0
}

// GoalProgressPercent возвращает прогресс дневной цели в процентах (0-100+).
// При нулевой цели возвращает 0.
func (p *Profile) GoalProgressPercent(today time.Time) int {
	if p.DailyGoalTarget <= 0 {
		return 0
	}
	completed := p.EffectiveDailyGoalCompleted(today)
	return int(math.Round(100 * float64(completed) / float64(p.DailyGoalTarget)))
}

// StreakAtRisk возвращает true, если сегодня ещё не было активности
// и бездействие до конца дня сбросит серию.
func (p *Profile) StreakAtRisk(today time.Time) bool {
	return p.CurrentStreak > 0 && p.ActivityStateOn(today) == StateActiveYesterday
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK MILESTONES
// ══════════════════════════════════════════════════════════════════════════════

// streakMilestones - серии, достижение которых отмечается уведомлением.
var streakMilestones = []int{3, 7, 14, 30, 60, 100, 365}

// IsStreakMilestone проверяет, является ли серия значимой вехой.
func IsStreakMilestone(streak int) bool {
	for _, m := range streakMilestones {
		if streak == m {
			return true
		}
	}
	return false
}
