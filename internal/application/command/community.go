package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/speakably/speakably-backend/internal/domain/community"
	"github.com/speakably/speakably-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMMUNITY COMMANDS
// Joining communities and posting to community boards.
// ══════════════════════════════════════════════════════════════════════════════

// JoinCommunityCommand contains the data to join a community.
type JoinCommunityCommand struct {
	CommunityID string
	UserID      string
}

// Validate validates the command.
func (c JoinCommunityCommand) Validate() error {
	if c.CommunityID == "" {
		return errors.New("join_community: community_id is required")
	}
	if c.UserID == "" {
		return errors.New("join_community: user_id is required")
	}
	return nil
}

// JoinCommunityHandler handles the JoinCommunityCommand.
type JoinCommunityHandler struct {
	communities community.Repository
	publisher   shared.EventPublisher
}

// NewJoinCommunityHandler creates a new JoinCommunityHandler.
func NewJoinCommunityHandler(communities community.Repository, publisher shared.EventPublisher) *JoinCommunityHandler {
	return &JoinCommunityHandler{communities: communities, publisher: publisher}
}

// Handle executes the join community command. Joining twice is an error
// surfaced as "already exists"; leaving and rejoining is fine.
func (h *JoinCommunityHandler) Handle(ctx context.Context, cmd JoinCommunityCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.WrapError("community", "Join", shared.ErrValidation, "validation failed", err)
	}

	if _, err := h.communities.GetByID(ctx, cmd.CommunityID); err != nil {
		if errors.Is(err, community.ErrCommunityNotFound) || shared.IsNotFound(err) {
			return shared.ErrCommunityNotFound
		}
		return fmt.Errorf("join_community: failed to load community: %w", err)
	}

	if err := h.communities.AddMember(ctx, cmd.CommunityID, cmd.UserID); err != nil {
		if errors.Is(err, community.ErrAlreadyMember) || shared.IsAlreadyExists(err) {
			return shared.ErrAlreadyMember
		}
		return fmt.Errorf("join_community: failed to add member: %w", err)
	}

	return nil
}

// CreatePostCommand contains the data to publish a post.
type CreatePostCommand struct {
	CommunityID string
	AuthorID    string
	Content     string
}

// Validate validates the command.
func (c CreatePostCommand) Validate() error {
	if c.CommunityID == "" {
		return errors.New("create_post: community_id is required")
	}
	if c.AuthorID == "" {
		return errors.New("create_post: author_id is required")
	}
	if c.Content == "" {
		return errors.New("create_post: content is required")
	}
	return nil
}

// CreatePostResult contains the created post.
type CreatePostResult struct {
	PostID      string
	CommunityID string
	AuthorID    string
}

// CreatePostHandler handles the CreatePostCommand.
type CreatePostHandler struct {
	communities community.Repository
	publisher   shared.EventPublisher
}

// NewCreatePostHandler creates a new CreatePostHandler.
func NewCreatePostHandler(communities community.Repository, publisher shared.EventPublisher) *CreatePostHandler {
	return &CreatePostHandler{communities: communities, publisher: publisher}
}

// Handle executes the create post command. Only members may post.
func (h *CreatePostHandler) Handle(ctx context.Context, cmd CreatePostCommand) (*CreatePostResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("community", "CreatePost", shared.ErrValidation, "validation failed", err)
	}

	isMember, err := h.communities.IsMember(ctx, cmd.CommunityID, cmd.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("create_post: failed to check membership: %w", err)
	}
	if !isMember {
		return nil, shared.NewDomainError("community", "CreatePost", shared.ErrForbidden, "only members can post")
	}

	post, err := community.NewPost(uuid.New().String(), cmd.CommunityID, cmd.AuthorID, cmd.Content)
	if err != nil {
		return nil, shared.WrapError("community", "CreatePost", shared.ErrValidation, "invalid post", err)
	}

	if err := h.communities.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create_post: failed to save post: %w", err)
	}

	_ = h.publisher.Publish(shared.NewPostCreatedEvent(cmd.CommunityID, cmd.AuthorID, post.ID))

	return &CreatePostResult{
		PostID:      post.ID,
		CommunityID: cmd.CommunityID,
		AuthorID:    cmd.AuthorID,
	}, nil
}

// LeaveCommunityCommand contains the data to leave a community.
type LeaveCommunityCommand struct {
	CommunityID string
	UserID      string
}

// Validate validates the command.
func (c LeaveCommunityCommand) Validate() error {
	if c.CommunityID == "" {
		return errors.New("leave_community: community_id is required")
	}
	if c.UserID == "" {
		return errors.New("leave_community: user_id is required")
	}
	return nil
}

// LeaveCommunityHandler handles the LeaveCommunityCommand.
type LeaveCommunityHandler struct {
	communities community.Repository
}

// NewLeaveCommunityHandler creates a new LeaveCommunityHandler.
func NewLeaveCommunityHandler(communities community.Repository) *LeaveCommunityHandler {
	return &LeaveCommunityHandler{communities: communities}
}

// Handle executes the leave community command. Leaving a community the
// user never joined is surfaced as "not a member".
func (h *LeaveCommunityHandler) Handle(ctx context.Context, cmd LeaveCommunityCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.WrapError("community", "Leave", shared.ErrValidation, "validation failed", err)
	}

	isMember, err := h.communities.IsMember(ctx, cmd.CommunityID, cmd.UserID)
	if err != nil {
		return fmt.Errorf("leave_community: failed to check membership: %w", err)
	}
	if !isMember {
		return shared.ErrNotMember
	}

	if err := h.communities.RemoveMember(ctx, cmd.CommunityID, cmd.UserID); err != nil {
		return fmt.Errorf("leave_community: failed to remove member: %w", err)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DIRECT MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// RecipientChecker answers whether a learner profile exists. Direct messages
// only need this single question answered about the recipient.
type RecipientChecker interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// SendMessageCommand contains the data to send a direct message.
type SendMessageCommand struct {
	SenderID    string
	RecipientID string
	Content     string
}

// Validate validates the command.
func (c SendMessageCommand) Validate() error {
	if c.SenderID == "" {
		return errors.New("send_message: sender_id is required")
	}
	if c.RecipientID == "" {
		return errors.New("send_message: recipient_id is required")
	}
	if c.SenderID == c.RecipientID {
		return errors.New("send_message: cannot message yourself")
	}
	if c.Content == "" {
		return errors.New("send_message: content is required")
	}
	return nil
}

// SendMessageResult contains the sent message.
type SendMessageResult struct {
	MessageID   string
	SenderID    string
	RecipientID string
}

// SendMessageHandler handles the SendMessageCommand.
type SendMessageHandler struct {
	messages  community.MessageRepository
	profiles  RecipientChecker
	publisher shared.EventPublisher
}

// NewSendMessageHandler creates a new SendMessageHandler.
func NewSendMessageHandler(
	messages community.MessageRepository,
	profiles RecipientChecker,
	publisher shared.EventPublisher,
) *SendMessageHandler {
	return &SendMessageHandler{messages: messages, profiles: profiles, publisher: publisher}
}

// Handle executes the send message command.
func (h *SendMessageHandler) Handle(ctx context.Context, cmd SendMessageCommand) (*SendMessageResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("community", "SendMessage", shared.ErrValidation, "validation failed", err)
	}

	exists, err := h.profiles.Exists(ctx, cmd.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("send_message: failed to check recipient: %w", err)
	}
	if !exists {
		return nil, shared.NewDomainError("community", "SendMessage", shared.ErrNotFound, "recipient not found")
	}

	msg, err := community.NewMessage(uuid.New().String(), cmd.SenderID, cmd.RecipientID, cmd.Content)
	if err != nil {
		return nil, shared.WrapError("community", "SendMessage", shared.ErrValidation, "invalid message", err)
	}

	if err := h.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("send_message: failed to save message: %w", err)
	}

	_ = h.publisher.Publish(shared.NewMessageSentEvent(cmd.SenderID, cmd.RecipientID, msg.ID))

	return &SendMessageResult{
		MessageID:   msg.ID,
		SenderID:    cmd.SenderID,
		RecipientID: cmd.RecipientID,
	}, nil
}
