package repository

import (
	"context"

	"rag-agent-api/internal/domain/entity"
)

// RateLimitRepository 限流记录仓储接口
type RateLimitRepository interface {
	Create(ctx context.Context, log *entity.RateLimitLog) error
}
