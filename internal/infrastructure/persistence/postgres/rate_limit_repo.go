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

// RateLimitRepository 限流记录仓储实现
type RateLimitRepository struct {
	db     *gorm.DB
	tracer trace.Tracer
}

// NewRateLimitRepository 创建限流记录仓储
func NewRateLimitRepository(db *gorm.DB) repository.RateLimitRepository {
	return &RateLimitRepository{
		db:     db,
		tracer: otel.Tracer("postgres"),
	}
}

// Create 写入限流命中记录
func (r *RateLimitRepository) Create(ctx context.Context, log *entity.RateLimitLog) error {
	ctx, span := r.tracer.Start(ctx, "postgres.RateLimitRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.db).Create(log).Error; err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "写入限流记录失败")
	}
	return nil
}
