package postgres

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	apperrors "rag-agent-api/pkg/errors"
)

// TokenUsageRepository token 台账仓储实现
type TokenUsageRepository struct {
	db     *gorm.DB
	tracer trace.Tracer
}

// NewTokenUsageRepository 创建 token 台账仓储
func NewTokenUsageRepository(db *gorm.DB) repository.TokenUsageRepository {
	return &TokenUsageRepository{
		db:     db,
		tracer: otel.Tracer("postgres"),
	}
}

// Create 写入台账记录
func (r *TokenUsageRepository) Create(ctx context.Context, usage *entity.TokenUsage) error {
	ctx, span := r.tracer.Start(ctx, "postgres.TokenUsageRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.db).Create(usage).Error; err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "写入 token 台账失败")
	}
	return nil
}

// SumByUser 统计用户自 since 起的 token 总量
func (r *TokenUsageRepository) SumByUser(ctx context.Context, userID string, since time.Time) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "postgres.TokenUsageRepository.SumByUser")
	defer span.End()

	var total int64
	err := getDB(ctx, r.db).
		Model(&entity.TokenUsage{}).
		Select("COALESCE(SUM(total_tokens), 0)").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Scan(&total).Error
	if err != nil {
		span.RecordError(err)
		return 0, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "统计 token 用量失败")
	}
	return total, nil
}

// AggregateByModel 按模型聚合自 since 起的成本
func (r *TokenUsageRepository) AggregateByModel(ctx context.Context, since time.Time) ([]*repository.ModelUsageAggregate, error) {
	ctx, span := r.tracer.Start(ctx, "postgres.TokenUsageRepository.AggregateByModel")
	defer span.End()

	var rows []*repository.ModelUsageAggregate
	err := getDB(ctx, r.db).
		Model(&entity.TokenUsage{}).
		Select(`model,
			COALESCE(SUM(total_tokens), 0) AS total_tokens,
			COALESCE(SUM(cost_usd), 0) AS total_cost,
			COUNT(*) AS count`).
		Where("created_at >= ?", since).
		Group("model").
		Order("total_cost DESC").
		Scan(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "模型成本聚合查询失败")
	}
	return rows, nil
}
