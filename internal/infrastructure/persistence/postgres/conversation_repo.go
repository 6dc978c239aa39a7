package postgres

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	apperrors "rag-agent-api/pkg/errors"
)

// ConversationRepository 对话仓储实现
type ConversationRepository struct {
	db     *gorm.DB
	tracer trace.Tracer
}

// NewConversationRepository 创建对话仓储
func NewConversationRepository(db *gorm.DB) repository.ConversationRepository {
	return &ConversationRepository{
		db:     db,
		tracer: otel.Tracer("postgres"),
	}
}

// Create 创建对话
func (r *ConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	ctx, span := r.tracer.Start(ctx, "postgres.ConversationRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.db).Create(conversation).Error; err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "创建对话失败")
	}
	return nil
}

// GetByID 按 ID 查询对话，未找到返回 nil
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	ctx, span := r.tracer.Start(ctx, "postgres.ConversationRepository.GetByID")
	defer span.End()

	var conversation entity.Conversation
	err := getDB(ctx, r.db).Where("id = ?", id).First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "查询对话失败")
	}
	return &conversation, nil
}

// Update 更新对话
func (r *ConversationRepository) Update(ctx context.Context, conversation *entity.Conversation) error {
	ctx, span := r.tracer.Start(ctx, "postgres.ConversationRepository.Update")
	defer span.End()

	if err := getDB(ctx, r.db).Save(conversation).Error; err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "更新对话失败")
	}
	return nil
}

// Delete 删除对话，消息级联删除，遥测外键由数据库置空
func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "postgres.ConversationRepository.Delete")
	defer span.End()

	result := getDB(ctx, r.db).Where("id = ?", id).Delete(&entity.Conversation{})
	if result.Error != nil {
		span.RecordError(result.Error)
		return apperrors.Wrap(result.Error, apperrors.CodeStoreUnavailable, "删除对话失败")
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeConversationNotFound, "conversation not found")
	}
	return nil
}

// ListByUser 分页查询用户的对话，按更新时间倒序
func (r *ConversationRepository) ListByUser(ctx context.Context, userID string, page *repository.Pagination) (*repository.PagedResult[*entity.Conversation], error) {
	ctx, span := r.tracer.Start(ctx, "postgres.ConversationRepository.ListByUser")
	defer span.End()

	page.Normalize()
	db := getDB(ctx, r.db).Model(&entity.Conversation{}).Where("user_id = ?", userID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "统计对话失败")
	}

	var items []*entity.Conversation
	err := db.Order("updated_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&items).Error
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "查询对话失败")
	}

	return &repository.PagedResult[*entity.Conversation]{
		Items:    items,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

// ListActive 查询全部活跃对话及消息数
// updated_at 倒序是该读路径的约定语义，时间相同时按创建先后
func (r *ConversationRepository) ListActive(ctx context.Context) ([]*repository.ActiveConversationSummary, error) {
	ctx, span := r.tracer.Start(ctx, "postgres.ConversationRepository.ListActive")
	defer span.End()

	var rows []*repository.ActiveConversationSummary
	err := getDB(ctx, r.db).Raw(`
		SELECT c.id AS conversation_id,
		       c.title,
		       c.sector,
		       u.id AS user_id,
		       u.email AS user_email,
		       u.full_name AS user_full_name,
		       COUNT(m.id) AS message_count,
		       c.created_at,
		       c.updated_at
		FROM conversations c
		JOIN users u ON u.id = c.user_id
		LEFT JOIN messages m ON m.conversation_id = c.id
		WHERE c.status = ?
		GROUP BY c.id, c.title, c.sector, u.id, u.email, u.full_name, c.created_at, c.updated_at
		ORDER BY c.updated_at DESC, c.created_at ASC`, entity.ConversationStatusActive).
		Scan(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "查询活跃对话失败")
	}
	return rows, nil
}
