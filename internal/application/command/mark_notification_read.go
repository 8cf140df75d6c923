package command

import (
	"context"
	"errors"

	"github.com/speakably/speakably-backend/internal/domain/notification"
	"github.com/speakably/speakably-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMMAND: MARK NOTIFICATION READ
// ══════════════════════════════════════════════════════════════════════════════

// MarkNotificationReadCommand marks one notification, or all of a
// user's notifications, as read.
type MarkNotificationReadCommand struct {
	// UserID is the notification owner.
	UserID string

	// NotificationID is the notification to mark. Empty marks all.
	NotificationID string
}

// Validate validates the command.
func (c MarkNotificationReadCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("mark_notification_read: user_id is required")
	}
	return nil
}

// MarkNotificationReadHandler handles the MarkNotificationReadCommand.
type MarkNotificationReadHandler struct {
	notifications notification.Repository
}

// NewMarkNotificationReadHandler creates a new handler.
func NewMarkNotificationReadHandler(notifications notification.Repository) *MarkNotificationReadHandler {
	return &MarkNotificationReadHandler{notifications: notifications}
}

// Handle executes the command. Marking a notification that belongs to
// another user is rejected.
func (h *MarkNotificationReadHandler) Handle(ctx context.Context, cmd MarkNotificationReadCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.NewDomainError("notification", "mark_read", shared.ErrValidation, err.Error())
	}

	if cmd.NotificationID == "" {
		return h.notifications.MarkAllRead(ctx, cmd.UserID)
	}

	n, err := h.notifications.GetByID(ctx, cmd.NotificationID)
	if err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			return shared.NewDomainError("notification", "mark_read", shared.ErrNotFound, "notification not found")
		}
		return err
	}
	if n.UserID != cmd.UserID {
		return shared.NewDomainError("notification", "mark_read", shared.ErrForbidden, "notification belongs to another user")
	}

	return h.notifications.MarkRead(ctx, cmd.NotificationID)
}
