// Package learner содержит доменную модель ученика Speakably.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package learner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// XP представляет очки опыта ученика.
type XP int

// IsValid проверяет, что XP неотрицательный.
func (x XP) IsValid() bool {
	return x >= 0
}

// Add складывает XP.
func (x XP) Add(delta XP) XP {
	return x + delta
}

// Username представляет логин ученика.
type Username string

// IsValid проверяет корректность логина.
func (u Username) IsValid() bool {
	s := string(u)
	return len(s) >= 2 && len(s) <= 50 && !strings.ContainsAny(s, " \t\n\r")
}

// String возвращает строковое представление логина.
func (u Username) String() string {
	return string(u)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Proficiency определяет уровень владения языком.
type Proficiency string

const (
	// ProficiencyBeginner - начальный уровень (по умолчанию при регистрации).
	ProficiencyBeginner Proficiency = "beginner"
	// ProficiencyIntermediate - средний уровень.
	ProficiencyIntermediate Proficiency = "intermediate"
	// ProficiencyAdvanced - продвинутый уровень.
	ProficiencyAdvanced Proficiency = "advanced"
)

// IsValid проверяет, что уровень корректен.
func (p Proficiency) IsValid() bool {
	switch p {
	case ProficiencyBeginner, ProficiencyIntermediate, ProficiencyAdvanced:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULTS
// ══════════════════════════════════════════════════════════════════════════════

// Значения по умолчанию для нового профиля.
// Используются при регистрации и при полном сбросе прогресса.
const (
	// DefaultHearts - стартовое количество жизней.
	DefaultHearts = 5
	// DefaultGems - стартовое количество кристаллов.
	DefaultGems = 0
	// DefaultDailyGoal - дневная цель (уроков в день).
	DefaultDailyGoal = 5
	// DefaultReminderTime - время напоминания по умолчанию ("HH:MM").
	DefaultReminderTime = "19:00"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: LEARNER PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile - центральная сущность прогресса, одна на пользователя.
// Создаётся при регистрации и никогда не удаляется, пока существует аккаунт.
type Profile struct {
	// UserID - внутренний уникальный идентификатор пользователя (UUID).
	UserID string

	// Username - логин пользователя.
	Username Username

	// Email - адрес электронной почты.
	Email string

	// SelectedLanguageID - выбранный язык изучения (nil, если не выбран).
	SelectedLanguageID *string

	// Proficiency - уровень владения языком.
	Proficiency Proficiency

	// XP - накопленные очки опыта. Монотонно растут, кроме явного сброса.
	XP XP

	// Hearts - количество жизней.
	Hearts int

	// Gems - количество кристаллов.
	Gems int

	// DailyGoalTarget - дневная цель: сколько уроков нужно пройти за день.
	DailyGoalTarget int

	// DailyGoalCompleted - сколько уроков засчитано "сегодня".
	// Значение осмысленно только при LastActivityDate == сегодня;
	// устаревшее значение каждый читатель обязан трактовать как 0.
	DailyGoalCompleted int

	// CurrentStreak - текущая серия дней с активностью.
	CurrentStreak int

	// BestStreak - лучшая серия дней за всё время.
	BestStreak int

	// LastActivityDate - дата последнего засчитанного урока (нулевое
	// значение - активности ещё не было).
	LastActivityDate time.Time

	// LastStreakDate - дата последнего обновления серии (для учёта
	// разрывов серии; nil, если серия ещё не начиналась).
	LastStreakDate *time.Time

	// Preferences - настройки напоминаний.
	Preferences ReminderPreferences

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ReminderPreferences содержит настройки напоминаний ученика.
type ReminderPreferences struct {
	// DailyReminder - отправлять ежедневное напоминание.
	DailyReminder bool

	// ReminderTime - время напоминания в формате "HH:MM" (UTC).
	ReminderTime string
}

// DefaultReminderPreferences возвращает настройки по умолчанию.
func DefaultReminderPreferences() ReminderPreferences {
	return ReminderPreferences{
		DailyReminder: true,
		ReminderTime:  DefaultReminderTime,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidUsername - невалидный логин.
	ErrInvalidUsername = errors.New("invalid username: must be 2-50 chars without whitespace")

	// ErrInvalidEmail - невалидный email.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInvalidXP - невалидное значение XP.
	ErrInvalidXP = errors.New("invalid xp: must be non-negative")

	// ErrInvalidDailyGoal - невалидная дневная цель.
	ErrInvalidDailyGoal = errors.New("invalid daily goal: must be positive")

	// ErrInvalidProficiency - невалидный уровень владения.
	ErrInvalidProficiency = errors.New("invalid proficiency level")

	// ErrProfileNotFound - профиль не найден.
	ErrProfileNotFound = errors.New("learner profile not found")

	// ErrProfileAlreadyExists - профиль уже существует.
	ErrProfileAlreadyExists = errors.New("learner profile already exists")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewProfileParams содержит параметры для создания нового профиля.
type NewProfileParams struct {
	UserID   string
	Username Username
	Email    string
}

// NewProfile создаёт профиль с полным набором значений по умолчанию.
// Профиль создаётся один раз при регистрации - никаких ленивых
// get-or-create по ходу обработки запросов.
func NewProfile(params NewProfileParams) (*Profile, error) {
	if params.UserID == "" {
		return nil, errors.New("user id is required")
	}

	if !params.Username.IsValid() {
		return nil, ErrInvalidUsername
	}

	if !strings.Contains(params.Email, "@") {
		return nil, ErrInvalidEmail
	}

	now := time.Now().UTC()

	return &Profile{
		UserID:             params.UserID,
		Username:           params.Username,
		Email:              params.Email,
		SelectedLanguageID: nil,
		Proficiency:        ProficiencyBeginner,
		XP:                 0,
		Hearts:             DefaultHearts,
		Gems:               DefaultGems,
		DailyGoalTarget:    DefaultDailyGoal,
		DailyGoalCompleted: 0,
		CurrentStreak:      0,
		BestStreak:         0,
		LastActivityDate:   time.Time{},
		LastStreakDate:     nil,
		Preferences:        DefaultReminderPreferences(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// SelectLanguage выбирает язык изучения.
func (p *Profile) SelectLanguage(languageID string) {
	if languageID == "" {
		p.SelectedLanguageID = nil
	} else {
		p.SelectedLanguageID = &languageID
	}
	p.UpdatedAt = time.Now().UTC()
}

// SetProficiency обновляет уровень владения языком.
func (p *Profile) SetProficiency(level Proficiency) error {
	if !level.IsValid() {
		return ErrInvalidProficiency
	}
	p.Proficiency = level
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// SetDailyGoal обновляет дневную цель.
func (p *Profile) SetDailyGoal(target int) error {
	if target <= 0 {
		return ErrInvalidDailyGoal
	}
	p.DailyGoalTarget = target
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateReminderPreferences обновляет настройки напоминаний.
func (p *Profile) UpdateReminderPreferences(prefs ReminderPreferences) {
	p.Preferences = prefs
	p.UpdatedAt = time.Now().UTC()
}

// SpendHeart списывает одну жизнь. Возвращает false, если жизней нет.
func (p *Profile) SpendHeart() bool {
	if p.Hearts <= 0 {
		return false
	}
	p.Hearts--
	p.UpdatedAt = time.Now().UTC()
	return true
}

// AddGems начисляет кристаллы.
func (p *Profile) AddGems(amount int) {
	if amount <= 0 {
		return
	}
	p.Gems += amount
	p.UpdatedAt = time.Now().UTC()
}

// Reset сбрасывает прогресс к значениям по умолчанию.
// Сами записи о пройденных уроках удаляет слой хранения - профиль
// отвечает только за свои счётчики.
func (p *Profile) Reset(today time.Time) {
	p.XP = 0
	p.Hearts = DefaultHearts
	p.Gems = DefaultGems
	p.DailyGoalCompleted = 0
	p.CurrentStreak = 0
	p.LastActivityDate = today
	p.LastStreakDate = nil
	p.UpdatedAt = time.Now().UTC()
}

// String возвращает строковое представление профиля для логирования.
func (p *Profile) String() string {
	return fmt.Sprintf(
		"Profile{UserID: %s, XP: %d, Streak: %d, Goal: %d/%d}",
		p.UserID, p.XP, p.CurrentStreak, p.DailyGoalCompleted, p.DailyGoalTarget,
	)
}

// Clone создаёт глубокую копию профиля.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}

	clone := *p
	if p.SelectedLanguageID != nil {
		id := *p.SelectedLanguageID
		clone.SelectedLanguageID = &id
	}
	if p.LastStreakDate != nil {
		d := *p.LastStreakDate
		clone.LastStreakDate = &d
	}
	return &clone
}
