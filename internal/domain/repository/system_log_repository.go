package repository

import (
	"context"

	"rag-agent-api/internal/domain/entity"
)

// SystemLogRepository 系统日志仓储接口
type SystemLogRepository interface {
	Create(ctx context.Context, log *entity.SystemLog) error
	List(ctx context.Context, level entity.LogLevel, page *Pagination) (*PagedResult[*entity.SystemLog], error)
}
