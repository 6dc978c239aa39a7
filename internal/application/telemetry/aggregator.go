package telemetry

import (
	"context"
	"math"
	"time"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	apperrors "rag-agent-api/pkg/errors"
)

// SectorSummary 行业维度聚合结果
// 均值按展示口径取整，success_rate 由计数精确计算不做舍入
type SectorSummary struct {
	Sector         string     `json:"sector"`
	Count          int64      `json:"count"`
	AvgTotalTimeMs float64    `json:"avg_total_time_ms"`
	AvgTotalTokens int64      `json:"avg_total_tokens"`
	AvgRagScore    *float64   `json:"avg_rag_score"`
	SuccessRate    float64    `json:"success_rate"`
	LastCreatedAt  *time.Time `json:"last_created_at"`
}

// UserUsageSummary 用户维度用量聚合结果
type UserUsageSummary struct {
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

// DefaultUserWindowDays 用户用量聚合的默认时间窗口
const DefaultUserWindowDays = 30

// Aggregator 遥测读侧聚合器，全部为纯查询
type Aggregator struct {
	metricRepo       repository.AgentMetricRepository
	conversationRepo repository.ConversationRepository
	now              func() time.Time
}

// NewAggregator 创建聚合器
func NewAggregator(metricRepo repository.AgentMetricRepository, conversationRepo repository.ConversationRepository) *Aggregator {
	return &Aggregator{
		metricRepo:       metricRepo,
		conversationRepo: conversationRepo,
		now:              time.Now,
	}
}

// BySector 按行业聚合，since 为空时统计全部历史
func (a *Aggregator) BySector(ctx context.Context, since *time.Time) ([]*SectorSummary, error) {
	rows, err := a.metricRepo.SectorAggregates(ctx, since)
	if err != nil {
		return nil, err
	}

	summaries := make([]*SectorSummary, 0, len(rows))
	for _, row := range rows {
		if row.Count == 0 {
			continue
		}
		s := &SectorSummary{
			Sector:        row.Sector,
			Count:         row.Count,
			SuccessRate:   float64(row.SuccessCount) / float64(row.Count),
			LastCreatedAt: row.LastCreatedAt,
		}
		if row.AvgTotalTimeMs != nil {
			s.AvgTotalTimeMs = round2(*row.AvgTotalTimeMs)
		}
		if row.AvgTotalTokens != nil {
			s.AvgTotalTokens = int64(math.Round(*row.AvgTotalTokens))
		}
		if row.AvgRagScore != nil {
			v := round4(*row.AvgRagScore)
			s.AvgRagScore = &v
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// ByUser 按用户聚合最近 windowDays 天的用量，仅统计活跃用户
// 无记录的活跃用户也会出现在结果中
func (a *Aggregator) ByUser(ctx context.Context, windowDays int) ([]*UserUsageSummary, error) {
	if windowDays == 0 {
		windowDays = DefaultUserWindowDays
	}
	if windowDays < 1 {
		return nil, apperrors.New(apperrors.CodeInvalidRange, "window_days 必须为正数")
	}

	since := a.now().AddDate(0, 0, -windowDays)
	rows, err := a.metricRepo.UserUsageAggregates(ctx, since)
	if err != nil {
		return nil, err
	}

	summaries := make([]*UserUsageSummary, 0, len(rows))
	for _, row := range rows {
		s := &UserUsageSummary{
			UserID:            row.UserID,
			Email:             row.Email,
			FullName:          row.FullName,
			ExecutionCount:    row.ExecutionCount,
			SuccessCount:      row.SuccessCount,
			PromptTokens:      row.PromptTokens,
			CompletionTokens:  row.CompletionTokens,
			TotalTokens:       row.TotalTokens,
			ConversationCount: row.ConversationCount,
			LastExecutionAt:   row.LastExecutionAt,
		}
		if row.AvgTotalTimeMs != nil {
			v := round2(*row.AvgTotalTimeMs)
			s.AvgTotalTimeMs = &v
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// ActiveConversations 返回全部活跃对话及消息数，按更新时间倒序
func (a *Aggregator) ActiveConversations(ctx context.Context) ([]*repository.ActiveConversationSummary, error) {
	return a.conversationRepo.ListActive(ctx)
}

// ListByConversation 分页查询某对话的执行记录
func (a *Aggregator) ListByConversation(ctx context.Context, conversationID string, page *repository.Pagination) (*repository.PagedResult[*entity.AgentMetric], error) {
	return a.metricRepo.ListByConversation(ctx, conversationID, page)
}
