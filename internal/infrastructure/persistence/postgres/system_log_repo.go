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

// SystemLogRepository 系统日志仓储实现
type SystemLogRepository struct {
	db     *gorm.DB
	tracer trace.Tracer
}

// NewSystemLogRepository 创建系统日志仓储
func NewSystemLogRepository(db *gorm.DB) repository.SystemLogRepository {
	return &SystemLogRepository{
		db:     db,
		tracer: otel.Tracer("postgres"),
	}
}

// Create 写入日志记录
func (r *SystemLogRepository) Create(ctx context.Context, log *entity.SystemLog) error {
	ctx, span := r.tracer.Start(ctx, "postgres.SystemLogRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.db).Create(log).Error; err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "写入系统日志失败")
	}
	return nil
}

// List 分页查询日志，level 为空时不过滤级别
func (r *SystemLogRepository) List(ctx context.Context, level entity.LogLevel, page *repository.Pagination) (*repository.PagedResult[*entity.SystemLog], error) {
	ctx, span := r.tracer.Start(ctx, "postgres.SystemLogRepository.List")
	defer span.End()

	page.Normalize()
	db := getDB(ctx, r.db).Model(&entity.SystemLog{})
	if level != "" {
		db = db.Where("level = ?", level)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "统计系统日志失败")
	}

	var items []*entity.SystemLog
	err := db.Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&items).Error
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeStoreUnavailable, "查询系统日志失败")
	}

	return &repository.PagedResult[*entity.SystemLog]{
		Items:    items,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}
