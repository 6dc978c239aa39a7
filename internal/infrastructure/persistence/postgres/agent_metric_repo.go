package postgres

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	apperrors "rag-agent-api/pkg/errors"
)

// AgentMetricRepository 执行遥测仓储实现
type AgentMetricRepository struct {
	db     *gorm.DB
	tracer trace.Tracer
}

// NewAgentMetricRepository 创建执行遥测仓储
func NewAgentMetricRepository(db *gorm.DB) repository.AgentMetricRepository {
	return &AgentMetricRepository{
		db:     db,
		tracer: otel.Tracer("postgres"),
	}
}

// Create 写入执行记录
// 幂等性依赖 execution_id 上的唯一索引，冲突在此处翻译为重复执行错误
func (r *AgentMetricRepository) Create(ctx context.Context, metric *entity.AgentMetric) error {
	ctx, span := r.tracer.Start(ctx, "postgres.AgentMetricRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.db).Create(metric).Error; err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Wrap(err, apperrors.CodeDuplicateExecution, "execution already recorded")
		}
		return apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "写入执行记录失败")
	}
	return nil
}

// GetByExecutionID 按执行标识查询，未找到返回 nil
func (r *AgentMetricRepository) GetByExecutionID(ctx context.Context, executionID string) (*entity.AgentMetric, error) {
	ctx, span := r.tracer.Start(ctx, "postgres.AgentMetricRepository.GetByExecutionID")
	defer span.End()

	var metric entity.AgentMetric
	err := getDB(ctx, r.db).Where("execution_id = ?", executionID).First(&metric).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "查询执行记录失败")
	}
	return &metric, nil
}

// UpdateRating 按执行标识写入评分
func (r *AgentMetricRepository) UpdateRating(ctx context.Context, executionID string, rating int) error {
	ctx, span := r.tracer.Start(ctx, "postgres.AgentMetricRepository.UpdateRating")
	defer span.End()

	result := getDB(ctx, r.db).
		Model(&entity.AgentMetric{}).
		Where("execution_id = ?", executionID).
		Update("user_rating", rating)
	if result.Error != nil {
		span.RecordError(result.Error)
		return apperrors.Wrap(result.Error, apperrors.CodeStoreUnavailable, "更新评分失败")
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeExecutionNotFound, "execution not found")
	}
	return nil
}

// ListByConversation 分页查询某对话的执行记录，按创建时间倒序
func (r *AgentMetricRepository) ListByConversation(ctx context.Context, conversationID string, page *repository.Pagination) (*repository.PagedResult[*entity.AgentMetric], error) {
	ctx, span := r.tracer.Start(ctx, "postgres.AgentMetricRepository.ListByConversation")
	defer span.End()

	page.Normalize()
	db := getDB(ctx, r.db).Model(&entity.AgentMetric{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "统计执行记录失败")
	}

	var items []*entity.AgentMetric
	err := db.Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&items).Error
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "查询执行记录失败")
	}

	return &repository.PagedResult[*entity.AgentMetric]{
		Items:    items,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

// SectorAggregates 按行业聚合遥测记录
func (r *AgentMetricRepository) SectorAggregates(ctx context.Context, since *time.Time) ([]*repository.SectorAggregate, error) {
	ctx, span := r.tracer.Start(ctx, "postgres.AgentMetricRepository.SectorAggregates")
	defer span.End()

	db := getDB(ctx, r.db).
		Model(&entity.AgentMetric{}).
		Select(`sector,
			COUNT(*) AS count,
			COUNT(*) FILTER (WHERE is_successful) AS success_count,
			AVG(total_time_ms) AS avg_total_time_ms,
			AVG(total_tokens) AS avg_total_tokens,
			AVG(rag_average_score) AS avg_rag_score,
			MAX(created_at) AS last_created_at`).
		Where("sector <> ''").
		Group("sector").
		Order("count DESC")
	if since != nil {
		db = db.Where("created_at >= ?", *since)
	}

	var rows []*repository.SectorAggregate
	if err := db.Scan(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "行业聚合查询失败")
	}
	return rows, nil
}

// UserUsageAggregates 按用户聚合时间窗口内的用量
// 左连接保证窗口内无记录的活跃用户仍出现在结果中
func (r *AgentMetricRepository) UserUsageAggregates(ctx context.Context, since time.Time) ([]*repository.UserUsageAggregate, error) {
	ctx, span := r.tracer.Start(ctx, "postgres.AgentMetricRepository.UserUsageAggregates")
	defer span.End()

	var rows []*repository.UserUsageAggregate
	err := getDB(ctx, r.db).Raw(`
		SELECT u.id AS user_id,
		       u.email,
		       u.full_name,
		       COUNT(m.id) AS execution_count,
		       COUNT(m.id) FILTER (WHERE m.is_successful) AS success_count,
		       COALESCE(SUM(m.prompt_tokens), 0) AS prompt_tokens,
		       COALESCE(SUM(m.completion_tokens), 0) AS completion_tokens,
		       COALESCE(SUM(m.total_tokens), 0) AS total_tokens,
		       AVG(m.total_time_ms) AS avg_total_time_ms,
		       COUNT(DISTINCT m.conversation_id) AS conversation_count,
		       MAX(m.created_at) AS last_execution_at
		FROM users u
		LEFT JOIN agent_metrics m
		       ON m.user_id = u.id AND m.created_at >= ?
		WHERE u.is_active
		GROUP BY u.id, u.email, u.full_name
		ORDER BY execution_count DESC, u.email ASC`, since).
		Scan(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "用户用量聚合查询失败")
	}
	return rows, nil
}
