// Package community models learner communities: per-language groups with
// posts and chat messages.
package community

import (
	"errors"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCommunityNotFound - the community does not exist.
	ErrCommunityNotFound = errors.New("community not found")

	// ErrPostNotFound - the post does not exist.
	ErrPostNotFound = errors.New("post not found")

	// ErrAlreadyMember - the user has already joined the community.
	ErrAlreadyMember = errors.New("user is already a member of this community")

	// ErrNotMember - the user is not a member of the community.
	ErrNotMember = errors.New("user is not a member of this community")

	// ErrInvalidName - community name is empty or too long.
	ErrInvalidName = errors.New("invalid community name: must be 1-100 chars")

	// ErrEmptyContent - post or message body is empty.
	ErrEmptyContent = errors.New("content cannot be empty")
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Community is a learner group, usually tied to one catalog language.
type Community struct {
	// ID is the unique identifier (UUID).
	ID string

	// Name is the display name.
	Name string

	// Description tells what the community is about.
	Description string

	// LanguageID links the community to a catalog language, if any.
	LanguageID *string

	// MemberCount is a denormalized member counter.
	MemberCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCommunity creates a validated community.
func NewCommunity(id, name, description string, languageID *string) (*Community, error) {
	if id == "" {
		return nil, errors.New("community id is required")
	}

	name = strings.TrimSpace(name)
	if len(name) == 0 || len(name) > 100 {
		return nil, ErrInvalidName
	}

	now := time.Now().UTC()

	return &Community{
		ID:          id,
		Name:        name,
		Description: description,
		LanguageID:  languageID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Member is a community membership record.
type Member struct {
	CommunityID string
	UserID      string
	JoinedAt    time.Time
}

// Post is a message on a community board.
type Post struct {
	// ID is the unique identifier (UUID).
	ID string

	// CommunityID is the owning community.
	CommunityID string

	// AuthorID is the posting user.
	AuthorID string

	// Content is the post body.
	Content string

	// LikeCount is a denormalized like counter.
	LikeCount int

	CreatedAt time.Time
}

// NewPost creates a validated post.
func NewPost(id, communityID, authorID, content string) (*Post, error) {
	if id == "" || communityID == "" || authorID == "" {
		return nil, errors.New("post id, community id and author id are required")
	}

	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	return &Post{
		ID:          id,
		CommunityID: communityID,
		AuthorID:    authorID,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Message is a direct message between two learners.
type Message struct {
	// ID is the unique identifier (UUID).
	ID string

	// SenderID is the sending user.
	SenderID string

	// RecipientID is the receiving user.
	RecipientID string

	// Content is the message body.
	Content string

	// IsRead marks the message as seen by the recipient.
	IsRead bool

	CreatedAt time.Time
}

// NewMessage creates a validated direct message.
func NewMessage(id, senderID, recipientID, content string) (*Message, error) {
	if id == "" || senderID == "" || recipientID == "" {
		return nil, errors.New("message id, sender id and recipient id are required")
	}

	if senderID == recipientID {
		return nil, errors.New("cannot send a message to yourself")
	}

	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	return &Message{
		ID:          id,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
