// Package notification содержит доменную модель уведомлений: напоминания
// о дневной цели, вехи стрика и события сообществ.
package notification

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ТИПЫ УВЕДОМЛЕНИЙ
// ══════════════════════════════════════════════════════════════════════════════

// Type определяет тип уведомления.
type Type string

const (
	// TypeDailyReminder - напоминание о невыполненной дневной цели.
	TypeDailyReminder Type = "daily_reminder"

	// TypeStreakMilestone - достигнута веха стрика (3, 7, 14 дней...).
	TypeStreakMilestone Type = "streak_milestone"

	// TypeDailyGoalReached - дневная цель выполнена.
	TypeDailyGoalReached Type = "daily_goal_reached"

	// TypeStreakLost - стрик прерван.
	TypeStreakLost Type = "streak_lost"

	// TypeCommunity - событие в сообществе пользователя.
	TypeCommunity Type = "community"

	// TypeSystem - системное сообщение.
	TypeSystem Type = "system"
)

// IsValid проверяет, что тип уведомления известен.
func (t Type) IsValid() bool {
	switch t {
	case TypeDailyReminder, TypeStreakMilestone, TypeDailyGoalReached,
		TypeStreakLost, TypeCommunity, TypeSystem:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ДОМЕННЫЕ ОШИБКИ
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNotificationNotFound - уведомление не найдено.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrInvalidType - неизвестный тип уведомления.
	ErrInvalidType = errors.New("invalid notification type")

	// ErrEmptyMessage - текст уведомления пуст.
	ErrEmptyMessage = errors.New("notification message cannot be empty")
)

// ══════════════════════════════════════════════════════════════════════════════
// СУЩНОСТЬ
// ══════════════════════════════════════════════════════════════════════════════

// DailyReminderMessage - текст напоминания о дневной цели.
const DailyReminderMessage = "Don't forget to complete your daily goal to keep your streak alive!"

// Notification - уведомление пользователя.
type Notification struct {
	// ID - уникальный идентификатор (UUID).
	ID string

	// UserID - получатель.
	UserID string

	// Type - тип уведомления.
	Type Type

	// Title - заголовок.
	Title string

	// Message - текст.
	Message string

	// IsRead - прочитано ли уведомление.
	IsRead bool

	CreatedAt time.Time
}

// New создаёт валидированное уведомление.
func New(id, userID string, notifType Type, title, message string) (*Notification, error) {
	if id == "" || userID == "" {
		return nil, errors.New("notification id and user id are required")
	}

	if !notifType.IsValid() {
		return nil, ErrInvalidType
	}

	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	return &Notification{
		ID:        id,
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		Message:   message,
		IsRead:    false,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewDailyReminder создаёт стандартное напоминание о дневной цели.
func NewDailyReminder(id, userID string) (*Notification, error) {
	return New(id, userID, TypeDailyReminder, "Daily Goal Reminder", DailyReminderMessage)
}

// NewStreakMilestone создаёт уведомление о вехе стрика.
func NewStreakMilestone(id, userID string, days int) (*Notification, error) {
	return New(id, userID, TypeStreakMilestone,
		"Streak Milestone",
		fmt.Sprintf("Amazing! You've kept your streak for %d days in a row!", days))
}

// NewDailyGoalReached создаёт уведомление о выполненной дневной цели.
func NewDailyGoalReached(id, userID string) (*Notification, error) {
	return New(id, userID, TypeDailyGoalReached,
		"Daily Goal Complete",
		"You've hit your daily goal. Keep up the great work!")
}

// MarkRead помечает уведомление прочитанным.
func (n *Notification) MarkRead() {
	n.IsRead = true
}
