package repository

import (
	"context"
	"time"

	"rag-agent-api/internal/domain/entity"
)

// ModelUsageAggregate 模型维度成本聚合行
type ModelUsageAggregate struct {
	Model       string  `json:"model"`
	TotalTokens int64   `json:"total_tokens"`
	TotalCost   float64 `json:"total_cost_usd"`
	Count       int64   `json:"count"`
}

// TokenUsageRepository token 台账仓储接口
type TokenUsageRepository interface {
	Create(ctx context.Context, usage *entity.TokenUsage) error
	SumByUser(ctx context.Context, userID string, since time.Time) (int64, error)
	AggregateByModel(ctx context.Context, since time.Time) ([]*ModelUsageAggregate, error)
}
