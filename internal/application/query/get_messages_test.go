package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakably/speakably-backend/internal/domain/community"
	"github.com/speakably/speakably-backend/internal/domain/shared"
)

type fakeMessageRepo struct {
	messages []*community.Message
}

func (f *fakeMessageRepo) Create(_ context.Context, m *community.Message) error {
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeMessageRepo) ListConversation(_ context.Context, userA, userB string, limit int) ([]*community.Message, error) {
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

func (f *fakeMessageRepo) MarkRead(_ context.Context, senderID, recipientID string) error {
	for _, m := range f.messages {
		if m.SenderID == senderID && m.RecipientID == recipientID {
			m.IsRead = true
		}
	}
	return nil
}

func seedMessage(t *testing.T, repo *fakeMessageRepo, id, from, to, content string) {
	t.Helper()
	m, err := community.NewMessage(id, from, to, content)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), m))
}

func TestGetConversation_ReturnsBothDirections(t *testing.T) {
	repo := &fakeMessageRepo{}
	seedMessage(t, repo, "m1", "user-1", "user-2", "hola")
	seedMessage(t, repo, "m2", "user-2", "user-1", "¿qué tal?")
	seedMessage(t, repo, "m3", "user-3", "user-1", "unrelated")

	handler := NewGetConversationHandler(repo)

	messages, err := handler.Handle(context.Background(), GetConversationQuery{
		UserID:      "user-1",
		OtherUserID: "user-2",
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)
}

func TestGetConversation_MarksIncomingRead(t *testing.T) {
	repo := &fakeMessageRepo{}
	seedMessage(t, repo, "m1", "user-2", "user-1", "hola")
	seedMessage(t, repo, "m2", "user-1", "user-2", "hey")

	handler := NewGetConversationHandler(repo)

	_, err := handler.Handle(context.Background(), GetConversationQuery{
		UserID:      "user-1",
		OtherUserID: "user-2",
	})
	require.NoError(t, err)

	// Чтение помечает только входящие сообщения
	assert.True(t, repo.messages[0].IsRead)
	assert.False(t, repo.messages[1].IsRead)
}

func TestGetConversation_RequiresBothUsers(t *testing.T) {
	handler := NewGetConversationHandler(&fakeMessageRepo{})

	_, err := handler.Handle(context.Background(), GetConversationQuery{UserID: "user-1"})
	assert.True(t, shared.IsValidation(err))
}
