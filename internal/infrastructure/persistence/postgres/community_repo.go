// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"fmt"

	"github.com/speakably/speakably-backend/internal/domain/community"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMMUNITY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CommunityRepository implements community.Repository for PostgreSQL.
type CommunityRepository struct {
	conn *Connection
}

// NewCommunityRepository creates a new CommunityRepository.
func NewCommunityRepository(conn *Connection) *CommunityRepository {
	return &CommunityRepository{conn: conn}
}

// Create persists a new community.
func (r *CommunityRepository) Create(ctx context.Context, c *community.Community) error {
	query := `
		INSERT INTO communities (id, name, description, language_id, member_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		c.ID, c.Name, c.Description, c.LanguageID, c.MemberCount, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create community: %w", err)
	}
	return nil
}

// GetByID returns a community by ID.
func (r *CommunityRepository) GetByID(ctx context.Context, id string) (*community.Community, error) {
	c := &community.Community{}
	err := r.conn.QueryRow(ctx, `
		SELECT id, name, description, language_id, member_count, created_at, updated_at
		FROM communities WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.LanguageID, &c.MemberCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, community.ErrCommunityNotFound
		}
		return nil, fmt.Errorf("failed to get community: %w", err)
	}
	return c, nil
}

// List returns communities ordered by member count descending.
func (r *CommunityRepository) List(ctx context.Context, limit int) ([]*community.Community, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.conn.Query(ctx, `
		SELECT id, name, description, language_id, member_count, created_at, updated_at
		FROM communities ORDER BY member_count DESC, name LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list communities: %w", err)
	}
	defer rows.Close()

	var communities []*community.Community
	for rows.Next() {
		c := &community.Community{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.LanguageID, &c.MemberCount,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan community: %w", err)
		}
		communities = append(communities, c)
	}
	return communities, rows.Err()
}

// AddMember joins a user to a community and bumps the member counter.
func (r *CommunityRepository) AddMember(ctx context.Context, communityID, userID string) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO community_members (community_id, user_id) VALUES ($1, $2)`,
		communityID, userID)
	if err != nil {
		if IsUniqueViolation(err) {
			return community.ErrAlreadyMember
		}
		return fmt.Errorf("failed to add member: %w", err)
	}

	if _, err := r.conn.Exec(ctx,
		`UPDATE communities SET member_count = member_count + 1 WHERE id = $1`, communityID); err != nil {
		return fmt.Errorf("failed to bump member count: %w", err)
	}
	return nil
}

// RemoveMember removes a user from a community.
func (r *CommunityRepository) RemoveMember(ctx context.Context, communityID, userID string) error {
	result, err := r.conn.Exec(ctx, `
		DELETE FROM community_members WHERE community_id = $1 AND user_id = $2`,
		communityID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return community.ErrNotMember
	}

	if _, err := r.conn.Exec(ctx, `
		UPDATE communities SET member_count = GREATEST(member_count - 1, 0) WHERE id = $1`, communityID); err != nil {
		return fmt.Errorf("failed to drop member count: %w", err)
	}
	return nil
}

// IsMember reports whether the user belongs to the community.
func (r *CommunityRepository) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM community_members WHERE community_id = $1 AND user_id = $2
		)`, communityID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

// CreatePost persists a post on a community board.
func (r *CommunityRepository) CreatePost(ctx context.Context, p *community.Post) error {
	query := `
		INSERT INTO community_posts (id, community_id, author_id, content, like_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		p.ID, p.CommunityID, p.AuthorID, p.Content, p.LikeCount, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// ListPosts returns community posts, newest first.
func (r *CommunityRepository) ListPosts(ctx context.Context, communityID string, limit int) ([]*community.Post, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.conn.Query(ctx, `
		SELECT id, community_id, author_id, content, like_count, created_at
		FROM community_posts WHERE community_id = $1
		ORDER BY created_at DESC LIMIT $2`, communityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*community.Post
	for rows.Next() {
		p := &community.Post{}
		if err := rows.Scan(&p.ID, &p.CommunityID, &p.AuthorID, &p.Content, &p.LikeCount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MessageRepository implements community.MessageRepository for PostgreSQL.
type MessageRepository struct {
	conn *Connection
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(conn *Connection) *MessageRepository {
	return &MessageRepository{conn: conn}
}

// Create persists a direct message.
func (r *MessageRepository) Create(ctx context.Context, m *community.Message) error {
	query := `
		INSERT INTO direct_messages (id, sender_id, recipient_id, content, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		m.ID, m.SenderID, m.RecipientID, m.Content, m.IsRead, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListConversation returns messages between two users, newest first.
func (r *MessageRepository) ListConversation(ctx context.Context, userA, userB string, limit int) ([]*community.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.conn.Query(ctx, `
		SELECT id, sender_id, recipient_id, content, is_read, created_at
		FROM direct_messages
		WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at DESC LIMIT $3`, userA, userB, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}
	defer rows.Close()

	var messages []*community.Message
	for rows.Next() {
		m := &community.Message{}
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkRead marks all messages from sender to recipient as read.
func (r *MessageRepository) MarkRead(ctx context.Context, senderID, recipientID string) error {
	if _, err := r.conn.Exec(ctx, `
		UPDATE direct_messages SET is_read = TRUE
		WHERE sender_id = $1 AND recipient_id = $2 AND NOT is_read`,
		senderID, recipientID); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}
