package repository

import (
	"context"
	"time"

	"rag-agent-api/internal/domain/entity"
)

// SectorAggregate 行业维度聚合行，平均值字段在无样本时为 nil
type SectorAggregate struct {
	Sector         string     `json:"sector"`
	Count          int64      `json:"count"`
	SuccessCount   int64      `json:"success_count"`
	AvgTotalTimeMs *float64   `json:"avg_total_time_ms"`
	AvgTotalTokens *float64   `json:"avg_total_tokens"`
	AvgRagScore    *float64   `json:"avg_rag_score"`
	LastCreatedAt  *time.Time `json:"last_created_at"`
}

// UserUsageAggregate 用户维度用量聚合行
// 左连接保证无执行记录的活跃用户也出现在结果中
type UserUsageAggregate struct {
	UserID            string     `json:"user_id"`
	Email             string     `json:"email"`
	FullName          string     `json:"full_name"`
	ExecutionCount    int64      `json:"execution_count"`
	SuccessCount      int64      `json:"success_count"`
	PromptTokens      int64      `json:"prompt_tokens"`
	CompletionTokens  int64      `json:"completion_tokens"`
	TotalTokens       int64      `json:"total_tokens"`
	AvgTotalTimeMs    *float64   `json:"avg_total_time_ms"`
	ConversationCount int64      `json:"conversation_count"`
	LastExecutionAt   *time.Time `json:"last_execution_at"`
}

// AgentMetricRepository 执行遥测仓储接口
type AgentMetricRepository interface {
	// Create 写入一条执行记录，execution_id 冲突时返回重复执行错误
	Create(ctx context.Context, metric *entity.AgentMetric) error
	GetByExecutionID(ctx context.Context, executionID string) (*entity.AgentMetric, error)
	// UpdateRating 按 execution_id 写入用户评分，记录不存在时返回未找到错误
	UpdateRating(ctx context.Context, executionID string, rating int) error
	ListByConversation(ctx context.Context, conversationID string, page *Pagination) (*PagedResult[*entity.AgentMetric], error)
	// SectorAggregates 按行业聚合，since 非空时仅统计其后的记录
	SectorAggregates(ctx context.Context, since *time.Time) ([]*SectorAggregate, error)
	// UserUsageAggregates 按用户聚合最近 windowDays 天的用量
	UserUsageAggregates(ctx context.Context, since time.Time) ([]*UserUsageAggregate, error)
}
