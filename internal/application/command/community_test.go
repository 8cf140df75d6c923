package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakably/speakably-backend/internal/domain/community"
	"github.com/speakably/speakably-backend/internal/domain/learner"
	"github.com/speakably/speakably-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY FAKES
// ══════════════════════════════════════════════════════════════════════════════

type membershipKey struct {
	communityID string
	userID      string
}

type fakeCommunities struct {
	mu          sync.Mutex
	communities map[string]*community.Community
	members     map[membershipKey]bool
	posts       []*community.Post
}

func newFakeCommunities() *fakeCommunities {
	return &fakeCommunities{
		communities: make(map[string]*community.Community),
		members:     make(map[membershipKey]bool),
	}
}

func (f *fakeCommunities) Create(_ context.Context, c *community.Community) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.communities[c.ID] = c
	return nil
}

func (f *fakeCommunities) GetByID(_ context.Context, id string) (*community.Community, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.communities[id]
	if !ok {
		return nil, community.ErrCommunityNotFound
	}
	return c, nil
}

func (f *fakeCommunities) List(_ context.Context, limit int) ([]*community.Community, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*community.Community, 0, len(f.communities))
	for _, c := range f.communities {
		if len(out) == limit {
			break
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCommunities) AddMember(_ context.Context, communityID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := membershipKey{communityID, userID}
	if f.members[key] {
		return community.ErrAlreadyMember
	}
	f.members[key] = true
	return nil
}

func (f *fakeCommunities) RemoveMember(_ context.Context, communityID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members, membershipKey{communityID, userID})
	return nil
}

func (f *fakeCommunities) IsMember(_ context.Context, communityID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[membershipKey{communityID, userID}], nil
}

func (f *fakeCommunities) CreatePost(_ context.Context, p *community.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, p)
	return nil
}

func (f *fakeCommunities) ListPosts(_ context.Context, communityID string, limit int) ([]*community.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*community.Post
	for _, p := range f.posts {
		if p.CommunityID == communityID && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeMessages struct {
	mu       sync.Mutex
	messages []*community.Message
}

func (f *fakeMessages) Create(_ context.Context, m *community.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeMessages) ListConversation(_ context.Context, userA, userB string, limit int) ([]*community.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*community.Message
	for _, m := range f.messages {
		between := (m.SenderID == userA && m.RecipientID == userB) ||
			(m.SenderID == userB && m.RecipientID == userA)
		if between && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) MarkRead(_ context.Context, senderID, recipientID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.SenderID == senderID && m.RecipientID == recipientID {
			m.IsRead = true
		}
	}
	return nil
}

func seedCommunity(t *testing.T, repo *fakeCommunities, id string) {
	t.Helper()
	c, err := community.NewCommunity(id, "Spanish Learners", "practice together", nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), c))
}

// ══════════════════════════════════════════════════════════════════════════════
// JOIN / LEAVE
// ══════════════════════════════════════════════════════════════════════════════

func TestJoinCommunity_Succeeds(t *testing.T) {
	repo := newFakeCommunities()
	seedCommunity(t, repo, "comm-1")
	handler := NewJoinCommunityHandler(repo, &fakePublisher{})

	err := handler.Handle(context.Background(), JoinCommunityCommand{CommunityID: "comm-1", UserID: "user-1"})
	require.NoError(t, err)

	isMember, err := repo.IsMember(context.Background(), "comm-1", "user-1")
	require.NoError(t, err)
	assert.True(t, isMember)
}

func TestJoinCommunity_TwiceIsConflict(t *testing.T) {
	repo := newFakeCommunities()
	seedCommunity(t, repo, "comm-1")
	handler := NewJoinCommunityHandler(repo, &fakePublisher{})

	cmd := JoinCommunityCommand{CommunityID: "comm-1", UserID: "user-1"}
	require.NoError(t, handler.Handle(context.Background(), cmd))

	err := handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrAlreadyMember)
}

func TestJoinCommunity_UnknownCommunity(t *testing.T) {
	handler := NewJoinCommunityHandler(newFakeCommunities(), &fakePublisher{})

	err := handler.Handle(context.Background(), JoinCommunityCommand{CommunityID: "missing", UserID: "user-1"})
	assert.ErrorIs(t, err, shared.ErrCommunityNotFound)
}

func TestLeaveCommunity_RoundTrip(t *testing.T) {
	repo := newFakeCommunities()
	seedCommunity(t, repo, "comm-1")
	join := NewJoinCommunityHandler(repo, &fakePublisher{})
	leave := NewLeaveCommunityHandler(repo)

	require.NoError(t, join.Handle(context.Background(), JoinCommunityCommand{CommunityID: "comm-1", UserID: "user-1"}))
	require.NoError(t, leave.Handle(context.Background(), LeaveCommunityCommand{CommunityID: "comm-1", UserID: "user-1"}))

	isMember, err := repo.IsMember(context.Background(), "comm-1", "user-1")
	require.NoError(t, err)
	assert.False(t, isMember)

	// Выход и повторное вступление разрешены
	require.NoError(t, join.Handle(context.Background(), JoinCommunityCommand{CommunityID: "comm-1", UserID: "user-1"}))
}

func TestLeaveCommunity_NotMember(t *testing.T) {
	repo := newFakeCommunities()
	seedCommunity(t, repo, "comm-1")
	handler := NewLeaveCommunityHandler(repo)

	err := handler.Handle(context.Background(), LeaveCommunityCommand{CommunityID: "comm-1", UserID: "user-1"})
	assert.ErrorIs(t, err, shared.ErrNotMember)
}

// ══════════════════════════════════════════════════════════════════════════════
// POSTS
// ══════════════════════════════════════════════════════════════════════════════

func TestCreatePost_RequiresMembership(t *testing.T) {
	repo := newFakeCommunities()
	seedCommunity(t, repo, "comm-1")
	handler := NewCreatePostHandler(repo, &fakePublisher{})

	_, err := handler.Handle(context.Background(), CreatePostCommand{
		CommunityID: "comm-1",
		AuthorID:    "user-1",
		Content:     "hola",
	})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCreatePost_MemberPublishesEvent(t *testing.T) {
	repo := newFakeCommunities()
	seedCommunity(t, repo, "comm-1")
	publisher := &fakePublisher{}
	require.NoError(t, repo.AddMember(context.Background(), "comm-1", "user-1"))
	handler := NewCreatePostHandler(repo, publisher)

	result, err := handler.Handle(context.Background(), CreatePostCommand{
		CommunityID: "comm-1",
		AuthorID:    "user-1",
		Content:     "hola a todos",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.PostID)
	assert.Contains(t, publisher.eventTypes(), shared.EventPostCreated)

	posts, err := repo.ListPosts(context.Background(), "comm-1", 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "hola a todos", posts[0].Content)
}

// ══════════════════════════════════════════════════════════════════════════════
// DIRECT MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

func seedLearner(t *testing.T, profiles *fakeProfiles, userID, username string) {
	t.Helper()
	p, err := learner.NewProfile(learner.NewProfileParams{
		UserID:   userID,
		Username: learner.Username(username),
		Email:    username + "@example.com",
	})
	require.NoError(t, err)
	require.NoError(t, profiles.Create(context.Background(), p))
}

func TestSendMessage_Succeeds(t *testing.T) {
	messages := &fakeMessages{}
	profiles := newFakeProfiles()
	seedLearner(t, profiles, "user-2", "bob")
	publisher := &fakePublisher{}
	handler := NewSendMessageHandler(messages, profiles, publisher)

	result, err := handler.Handle(context.Background(), SendMessageCommand{
		SenderID:    "user-1",
		RecipientID: "user-2",
		Content:     "hey, study session tonight?",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.MessageID)
	assert.Contains(t, publisher.eventTypes(), shared.EventMessageSent)

	conv, err := messages.ListConversation(context.Background(), "user-1", "user-2", 10)
	require.NoError(t, err)
	require.Len(t, conv, 1)
	assert.False(t, conv[0].IsRead)
}

func TestSendMessage_UnknownRecipient(t *testing.T) {
	handler := NewSendMessageHandler(&fakeMessages{}, newFakeProfiles(), &fakePublisher{})

	_, err := handler.Handle(context.Background(), SendMessageCommand{
		SenderID:    "user-1",
		RecipientID: "ghost",
		Content:     "anyone there?",
	})
	assert.True(t, shared.IsNotFound(err))
}

func TestSendMessage_ToSelfRejected(t *testing.T) {
	handler := NewSendMessageHandler(&fakeMessages{}, newFakeProfiles(), &fakePublisher{})

	_, err := handler.Handle(context.Background(), SendMessageCommand{
		SenderID:    "user-1",
		RecipientID: "user-1",
		Content:     "note to self",
	})
	assert.True(t, shared.IsValidation(err))
}
