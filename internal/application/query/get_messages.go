package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/speakably/speakably-backend/internal/domain/community"
	"github.com/speakably/speakably-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ЗАПРОС ПЕРЕПИСКИ
// ══════════════════════════════════════════════════════════════════════════════

// GetConversationQuery - параметры запроса личной переписки.
type GetConversationQuery struct {
	// UserID - читающий пользователь.
	UserID string

	// OtherUserID - собеседник.
	OtherUserID string

	// Limit - максимум сообщений (по умолчанию 50).
	Limit int
}

// Validate проверяет параметры запроса.
func (q GetConversationQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("get_conversation: user_id is required")
	}
	if q.OtherUserID == "" {
		return errors.New("get_conversation: other_user_id is required")
	}
	return nil
}

// MessageDTO - личное сообщение в ответе API.
type MessageDTO struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Content     string    `json:"content"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetConversationHandler обрабатывает запрос переписки между двумя
// пользователями.
type GetConversationHandler struct {
	messages community.MessageRepository
}

// NewGetConversationHandler создаёт обработчик.
func NewGetConversationHandler(messages community.MessageRepository) *GetConversationHandler {
	return &GetConversationHandler{messages: messages}
}

// Handle возвращает переписку, новые сообщения первыми. Чтение помечает
// входящие сообщения собеседника прочитанными; отказ пометки не срывает
// ответ.
func (h *GetConversationHandler) Handle(ctx context.Context, q GetConversationQuery) ([]MessageDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("community", "GetConversation", shared.ErrValidation, "validation failed", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	items, err := h.messages.ListConversation(ctx, q.UserID, q.OtherUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("get_conversation: %w", err)
	}

	dtos := make([]MessageDTO, 0, len(items))
	for _, m := range items {
		dtos = append(dtos, MessageDTO{
			ID:          m.ID,
			SenderID:    m.SenderID,
			RecipientID: m.RecipientID,
			Content:     m.Content,
			IsRead:      m.IsRead,
			CreatedAt:   m.CreatedAt,
		})
	}

	_ = h.messages.MarkRead(ctx, q.OtherUserID, q.UserID)

	return dtos, nil
}
