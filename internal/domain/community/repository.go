package community

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository provides access to communities, memberships and posts.
type Repository interface {
	// Create persists a new community.
	Create(ctx context.Context, c *Community) error

	// GetByID returns a community by ID.
	GetByID(ctx context.Context, id string) (*Community, error)

	// List returns communities ordered by member count descending.
	List(ctx context.Context, limit int) ([]*Community, error)

	// AddMember joins a user to a community. Returns ErrAlreadyMember
	// when the membership already exists.
	AddMember(ctx context.Context, communityID, userID string) error

	// RemoveMember removes a user from a community.
	RemoveMember(ctx context.Context, communityID, userID string) error

	// IsMember reports whether the user belongs to the community.
	IsMember(ctx context.Context, communityID, userID string) (bool, error)

	// CreatePost persists a post on a community board.
	CreatePost(ctx context.Context, p *Post) error

	// ListPosts returns community posts, newest first.
	ListPosts(ctx context.Context, communityID string, limit int) ([]*Post, error)
}

// MessageRepository stores direct messages between learners.
type MessageRepository interface {
	// Create persists a direct message.
	Create(ctx context.Context, m *Message) error

	// ListConversation returns messages between two users, newest first.
	ListConversation(ctx context.Context, userA, userB string, limit int) ([]*Message, error)

	// MarkRead marks all messages from sender to recipient as read.
	MarkRead(ctx context.Context, senderID, recipientID string) error
}
