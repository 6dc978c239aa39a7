package repository

import (
	"context"
	"time"

	"rag-agent-api/internal/domain/entity"
)

// ActiveConversationSummary 活跃对话概览行
type ActiveConversationSummary struct {
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title"`
	Sector         string    `json:"sector"`
	UserID         string    `json:"user_id"`
	UserEmail      string    `json:"user_email"`
	UserFullName   string    `json:"user_full_name"`
	MessageCount   int64     `json:"message_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ConversationRepository 对话仓储接口
type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	Update(ctx context.Context, conversation *entity.Conversation) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string, page *Pagination) (*PagedResult[*entity.Conversation], error)
	// ListActive 返回活跃对话及消息数，按更新时间倒序
	ListActive(ctx context.Context) ([]*ActiveConversationSummary, error)
}
