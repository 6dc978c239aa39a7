package postgres

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	apperrors "rag-agent-api/pkg/errors"
)

// MessageRepository 消息仓储实现
type MessageRepository struct {
	db     *gorm.DB
	tracer trace.Tracer
}

// NewMessageRepository 创建消息仓储
func NewMessageRepository(db *gorm.DB) repository.MessageRepository {
	return &MessageRepository{
		db:     db,
		tracer: otel.Tracer("postgres"),
	}
}

// Create 写入单条消息
func (r *MessageRepository) Create(ctx context.Context, message *entity.Message) error {
	ctx, span := r.tracer.Start(ctx, "postgres.MessageRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.db).Create(message).Error; err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "写入消息失败")
	}
	return nil
}

// CreateBatch 批量写入消息，用于一次交互同时落用户与助手两条
func (r *MessageRepository) CreateBatch(ctx context.Context, messages []*entity.Message) error {
	if len(messages) == 0 {
		return nil
	}

	ctx, span := r.tracer.Start(ctx, "postgres.MessageRepository.CreateBatch")
	defer span.End()

	if err := getDB(ctx, r.db).Create(&messages).Error; err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "批量写入消息失败")
	}
	return nil
}

// ListByConversation 分页查询对话消息，按创建时间正序
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string, page *repository.Pagination) (*repository.PagedResult[*entity.Message], error) {
	ctx, span := r.tracer.Start(ctx, "postgres.MessageRepository.ListByConversation")
	defer span.End()

	page.Normalize()
	db := getDB(ctx, r.db).Model(&entity.Message{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "统计消息失败")
	}

	var items []*entity.Message
	err := db.Order("created_at ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&items).Error
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "查询消息失败")
	}

	return &repository.PagedResult[*entity.Message]{
		Items:    items,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

// CountByConversation 统计对话消息数
func (r *MessageRepository) CountByConversation(ctx context.Context, conversationID string) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "postgres.MessageRepository.CountByConversation")
	defer span.End()

	var count int64
	err := getDB(ctx, r.db).
		Model(&entity.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	if err != nil {
		span.RecordError(err)
		return 0, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "统计消息失败")
	}
	return count, nil
}
