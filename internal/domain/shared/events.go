// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Learner events
	EventLearnerRegistered   EventType = "learner.registered"
	EventPreferencesUpdated  EventType = "learner.preferences_updated"
	EventProgressReset       EventType = "learner.progress_reset"

	// Progress events
	EventLessonCompleted   EventType = "progress.lesson_completed"
	EventXPGained          EventType = "progress.xp_gained"
	EventDailyGoalReached  EventType = "progress.daily_goal_reached"
	EventStreakExtended    EventType = "progress.streak_extended"
	EventStreakReset       EventType = "progress.streak_reset"
	EventStreakMilestone   EventType = "progress.streak_milestone"

	// Community events
	EventCommunityCreated EventType = "community.created"
	EventMemberJoined     EventType = "community.member_joined"
	EventPostCreated      EventType = "community.post_created"
	EventMessageSent      EventType = "community.message_sent"

	// Notification events
	EventNotificationQueued EventType = "notification.queued"
	EventNotificationFailed EventType = "notification.failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// LessonCompletedEvent is emitted when a lesson completion is credited.
type LessonCompletedEvent struct {
	BaseEvent
	UserID            string `json:"user_id"`
	LessonID          string `json:"lesson_id"`
	XPEarned          int    `json:"xp_earned"`
	TotalXP           int    `json:"total_xp"`
	CurrentStreak     int    `json:"current_streak"`
	StreakExtended    bool   `json:"streak_extended"`
	DailyGoalProgress int    `json:"daily_goal_progress"`
	DailyGoalTarget   int    `json:"daily_goal_target"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":             e.UserID,
		"lesson_id":           e.LessonID,
		"xp_earned":           e.XPEarned,
		"total_xp":            e.TotalXP,
		"current_streak":      e.CurrentStreak,
		"streak_extended":     e.StreakExtended,
		"daily_goal_progress": e.DailyGoalProgress,
		"daily_goal_target":   e.DailyGoalTarget,
	}
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent.
func NewLessonCompletedEvent(userID, lessonID string, xpEarned, totalXP, streak int, streakExtended bool, goalProgress, goalTarget int) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent:         NewBaseEvent(EventLessonCompleted, userID),
		UserID:            userID,
		LessonID:          lessonID,
		XPEarned:          xpEarned,
		TotalXP:           totalXP,
		CurrentStreak:     streak,
		StreakExtended:    streakExtended,
		DailyGoalProgress: goalProgress,
		DailyGoalTarget:   goalTarget,
	}
}

// DailyGoalReachedEvent is emitted when today's completions reach the goal target.
type DailyGoalReachedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Target int    `json:"target"`
}

// Payload implements Event interface.
func (e DailyGoalReachedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"target":  e.Target,
	}
}

// NewDailyGoalReachedEvent creates a new DailyGoalReachedEvent.
func NewDailyGoalReachedEvent(userID string, target int) DailyGoalReachedEvent {
	return DailyGoalReachedEvent{
		BaseEvent: NewBaseEvent(EventDailyGoalReached, userID),
		UserID:    userID,
		Target:    target,
	}
}

// StreakMilestoneEvent is emitted when a streak reaches a milestone (7, 30, 100...).
type StreakMilestoneEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Streak int    `json:"streak"`
}

// Payload implements Event interface.
func (e StreakMilestoneEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"streak":  e.Streak,
	}
}

// NewStreakMilestoneEvent creates a new StreakMilestoneEvent.
func NewStreakMilestoneEvent(userID string, streak int) StreakMilestoneEvent {
	return StreakMilestoneEvent{
		BaseEvent: NewBaseEvent(EventStreakMilestone, userID),
		UserID:    userID,
		Streak:    streak,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Learner Events
// ═══════════════════════════════════════════════════════════════════════════

// LearnerRegisteredEvent is emitted when a new learner registers.
type LearnerRegisteredEvent struct {
	BaseEvent
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Payload implements Event interface.
func (e LearnerRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"username": e.Username,
		"email":    e.Email,
	}
}

// NewLearnerRegisteredEvent creates a new LearnerRegisteredEvent.
func NewLearnerRegisteredEvent(userID, username, email string) LearnerRegisteredEvent {
	return LearnerRegisteredEvent{
		BaseEvent: NewBaseEvent(EventLearnerRegistered, userID),
		Username:  username,
		Email:     email,
	}
}

// ProgressResetEvent is emitted when a learner resets all progress.
type ProgressResetEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

// Payload implements Event interface.
func (e ProgressResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
	}
}

// NewProgressResetEvent creates a new ProgressResetEvent.
func NewProgressResetEvent(userID string) ProgressResetEvent {
	return ProgressResetEvent{
		BaseEvent: NewBaseEvent(EventProgressReset, userID),
		UserID:    userID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Community Events
// ═══════════════════════════════════════════════════════════════════════════

// PostCreatedEvent is emitted when a post is published to a community.
type PostCreatedEvent struct {
	BaseEvent
	CommunityID string `json:"community_id"`
	AuthorID    string `json:"author_id"`
	PostID      string `json:"post_id"`
}

// Payload implements Event interface.
func (e PostCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"community_id": e.CommunityID,
		"author_id":    e.AuthorID,
		"post_id":      e.PostID,
	}
}

// NewPostCreatedEvent creates a new PostCreatedEvent.
func NewPostCreatedEvent(communityID, authorID, postID string) PostCreatedEvent {
	return PostCreatedEvent{
		BaseEvent:   NewBaseEvent(EventPostCreated, postID),
		CommunityID: communityID,
		AuthorID:    authorID,
		PostID:      postID,
	}
}

// MessageSentEvent is emitted when a direct message is sent.
type MessageSentEvent struct {
	BaseEvent
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// Payload implements Event interface.
func (e MessageSentEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"sender_id":    e.SenderID,
		"recipient_id": e.RecipientID,
		"message_id":   e.MessageID,
	}
}

// NewMessageSentEvent creates a new MessageSentEvent.
func NewMessageSentEvent(senderID, recipientID, messageID string) MessageSentEvent {
	return MessageSentEvent{
		BaseEvent:   NewBaseEvent(EventMessageSent, messageID),
		SenderID:    senderID,
		RecipientID: recipientID,
		MessageID:   messageID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
