// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/speakably/speakably-backend/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// NotificationRepository implements notification.Repository for PostgreSQL.
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

// Create persists a notification.
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, notification_type, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		n.ID, n.UserID, string(n.Type), n.Title, n.Message, n.IsRead, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// GetByID returns a notification by ID.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*notification.Notification, error) {
	n := &notification.Notification{}
	var notifType string

	err := r.conn.QueryRow(ctx, `
		SELECT id, user_id, notification_type, title, message, is_read, created_at
		FROM notifications WHERE id = $1`, id,
	).Scan(&n.ID, &n.UserID, &notifType, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, notification.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	n.Type = notification.Type(notifType)
	return n, nil
}

// ListByUser returns a user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, onlyUnread bool, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, notification_type, title, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1
	`
	if onlyUnread {
		query += ` AND NOT is_read`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n := &notification.Notification{}
		var notifType string
		if err := rows.Scan(&n.ID, &n.UserID, &notifType, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Type = notification.Type(notifType)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead marks one notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks all of a user's notifications as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	if _, err := r.conn.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// CountUnread returns the number of unread notifications.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// ExistsSince reports whether a notification of the given type was created
// after the given moment. Keeps reminder jobs from duplicating per day.
func (r *NotificationRepository) ExistsSince(ctx context.Context, userID string, notifType notification.Type, since time.Time) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM notifications
			WHERE user_id = $1 AND notification_type = $2 AND created_at >= $3
		)`, userID, string(notifType), since,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check notification existence: %w", err)
	}
	return exists, nil
}
