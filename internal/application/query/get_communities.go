package query

import (
	"context"
	"fmt"
	"time"

	"github.com/speakably/speakably-backend/internal/domain/community"
)

// ══════════════════════════════════════════════════════════════════════════════
// ЗАПРОСЫ СООБЩЕСТВ
// ══════════════════════════════════════════════════════════════════════════════

// CommunityDTO - сообщество в списке.
type CommunityDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	LanguageID  *string `json:"language_id,omitempty"`
	MemberCount int     `json:"member_count"`
	IsMember    bool    `json:"is_member"`
}

// PostDTO - пост на доске сообщества.
type PostDTO struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// GetCommunitiesHandler обрабатывает запросы чтения сообществ.
type GetCommunitiesHandler struct {
	communities community.Repository
}

// NewGetCommunitiesHandler создаёт обработчик.
func NewGetCommunitiesHandler(communities community.Repository) *GetCommunitiesHandler {
	return &GetCommunitiesHandler{communities: communities}
}

// List возвращает сообщества; для авторизованного пользователя
// проставляется флаг членства.
func (h *GetCommunitiesHandler) List(ctx context.Context, userID string, limit int) ([]CommunityDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	items, err := h.communities.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list_communities: %w", err)
	}

	dtos := make([]CommunityDTO, 0, len(items))
	for _, c := range items {
		dto := CommunityDTO{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			LanguageID:  c.LanguageID,
			MemberCount: c.MemberCount,
		}
		if userID != "" {
			member, err := h.communities.IsMember(ctx, c.ID, userID)
			if err != nil {
				return nil, fmt.Errorf("list_communities: membership check: %w", err)
			}
			dto.IsMember = member
		}
		dtos = append(dtos, dto)
	}

	return dtos, nil
}

// ListPosts возвращает посты сообщества, новые первыми.
func (h *GetCommunitiesHandler) ListPosts(ctx context.Context, communityID string, limit int) ([]PostDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	// Существование сообщества проверяется явно, чтобы пустая доска
	// отличалась от несуществующего сообщества.
	if _, err := h.communities.GetByID(ctx, communityID); err != nil {
		return nil, err
	}

	posts, err := h.communities.ListPosts(ctx, communityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list_posts: %w", err)
	}

	dtos := make([]PostDTO, 0, len(posts))
	for _, p := range posts {
		dtos = append(dtos, PostDTO{
			ID:        p.ID,
			AuthorID:  p.AuthorID,
			Content:   p.Content,
			CreatedAt: p.CreatedAt,
		})
	}
	return dtos, nil
}
