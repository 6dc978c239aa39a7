package repository

import (
	"context"

	"rag-agent-api/internal/domain/entity"
)

// MessageRepository 消息仓储接口
type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	CreateBatch(ctx context.Context, messages []*entity.Message) error
	ListByConversation(ctx context.Context, conversationID string, page *Pagination) (*PagedResult[*entity.Message], error)
	CountByConversation(ctx context.Context, conversationID string) (int64, error)
}
