// Package telemetry 实现代理执行遥测的写入与聚合
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	"rag-agent-api/internal/domain/service"
	apperrors "rag-agent-api/pkg/errors"
	"rag-agent-api/pkg/logger"
	"rag-agent-api/pkg/metrics"
)

// recordMetadata 随记录持久化的附加信息
type recordMetadata struct {
	QualityFlags []string `json:"quality_flags,omitempty"`
	Model        string   `json:"model,omitempty"`
}

// Recorder 执行遥测记录器
// 每次代理执行调用一次 Record，幂等性由存储层的唯一约束保证
type Recorder struct {
	metricRepo repository.AgentMetricRepository
	tokenUsage service.TokenUsageRecorder

	// relevanceThreshold 检索命中复核阈值，由配置提供，nil 表示不复核
	relevanceThreshold *float64
}

// NewRecorder 创建遥测记录器，tokenUsage 可为 nil
func NewRecorder(metricRepo repository.AgentMetricRepository, tokenUsage service.TokenUsageRecorder, relevanceThreshold *float64) *Recorder {
	return &Recorder{
		metricRepo:         metricRepo,
		tokenUsage:         tokenUsage,
		relevanceThreshold: relevanceThreshold,
	}
}

// Record 校验并持久化一次执行的遥测记录
// 数值不一致只记质量标记不拒绝，重复 execution_id 返回重复执行错误
func (r *Recorder) Record(ctx context.Context, inv *Invocation) (*entity.AgentMetric, error) {
	if inv.RelevanceThreshold == nil {
		inv.RelevanceThreshold = r.relevanceThreshold
	}

	flags, err := inv.Validate()
	if err != nil {
		return nil, err
	}

	metric := r.buildMetric(inv, flags)

	if err := r.metricRepo.Create(ctx, metric); err != nil {
		if apperrors.IsCode(err, apperrors.CodeDuplicateExecution) {
			metrics.DuplicateExecutions.Inc()
			logger.Warn(ctx, "重复的执行记录提交", "execution_id", inv.ExecutionID)
		}
		return nil, err
	}

	r.observe(ctx, inv, metric, flags)
	r.recordTokenUsage(ctx, inv)

	return metric, nil
}

// AttachRating 为已存在的执行记录附加用户评分，是唯一允许的写后变更
func (r *Recorder) AttachRating(ctx context.Context, executionID string, rating int) error {
	if strings.TrimSpace(executionID) == "" {
		return apperrors.New(apperrors.CodeMissingRequiredField, "execution_id 不能为空")
	}
	if rating < RatingMin || rating > RatingMax {
		return apperrors.New(apperrors.CodeInvalidRange, "rating 必须在 1..5 之间")
	}
	return r.metricRepo.UpdateRating(ctx, executionID, rating)
}

// buildMetric 将遥测输入转换为持久化实体，原始数值原样保留
func (r *Recorder) buildMetric(inv *Invocation, flags []string) *entity.AgentMetric {
	metric := &entity.AgentMetric{
		ExecutionID:    strings.TrimSpace(inv.ExecutionID),
		UserID:         inv.UserID,
		ConversationID: inv.ConversationID,
		UserInput:      inv.UserInput,
		Response:       inv.Response,

		TotalTimeMs:     inv.Timings.TotalMs,
		LLMTimeMs:       inv.Timings.LLMMs,
		RetrievalTimeMs: inv.Timings.RetrievalMs,
		ToolTimeMs:      inv.Timings.ToolMs,

		PromptTokens:     inv.Tokens.Prompt,
		CompletionTokens: inv.Tokens.Completion,
		TotalTokens:      inv.Tokens.Total,

		ToolCallsCount:       inv.Tools.Count,
		ToolCallsNames:       inv.Tools.Names,
		ToolCallsSuccessRate: inv.Tools.SuccessRate,

		RagQuery:         inv.RAG.Query,
		RagResultsCount:  inv.RAG.ResultsCount,
		RagAverageScore:  inv.RAG.AverageScore,
		RagTopChunkScore: inv.RAG.TopChunkScore,
		RagHitRate:       inv.RAG.Hit,

		Sector:       entity.NormalizeSector(inv.Sector),
		UserRating:   inv.Rating,
		IsSuccessful: inv.IsSuccessful,
		ErrorMessage: inv.ErrorMessage,
	}

	if len(flags) > 0 || inv.Model != "" {
		// metadata 序列化只含已知字段，失败不可能发生
		raw, _ := json.Marshal(recordMetadata{QualityFlags: flags, Model: inv.Model})
		metric.Metadata = raw
	}

	return metric
}

// observe 更新业务指标并记录质量告警日志
func (r *Recorder) observe(ctx context.Context, inv *Invocation, metric *entity.AgentMetric, flags []string) {
	status := "success"
	if !metric.IsSuccessful {
		status = "failure"
	}
	metrics.ExecutionsRecorded.WithLabelValues(metric.Sector, status).Inc()
	metrics.ExecutionDuration.WithLabelValues(metric.Sector).Observe(metric.TotalTimeMs / 1000)
	metrics.RAGSearchDuration.WithLabelValues(metric.Sector).Observe(metric.RetrievalTimeMs / 1000)
	metrics.RAGHitsTotal.WithLabelValues(fmt.Sprintf("%t", metric.RagHitRate)).Inc()

	if inv.Model != "" {
		metrics.LLMTokensUsed.WithLabelValues(inv.Model, "input").Add(float64(metric.PromptTokens))
		metrics.LLMTokensUsed.WithLabelValues(inv.Model, "output").Add(float64(metric.CompletionTokens))
	}

	for _, flag := range flags {
		metrics.QualityFlagsTotal.WithLabelValues(flag).Inc()
	}
	if len(flags) > 0 {
		logger.Warn(ctx, "遥测数据存在质量问题",
			"execution_id", metric.ExecutionID,
			"flags", flags,
		)
	}
}

// recordTokenUsage 尽力写入 token 台账，失败只记日志
func (r *Recorder) recordTokenUsage(ctx context.Context, inv *Invocation) {
	if r.tokenUsage == nil || inv.Model == "" {
		return
	}
	err := r.tokenUsage.RecordUsage(ctx, service.TokenUsageInput{
		UserID:           inv.UserID,
		Model:            inv.Model,
		PromptTokens:     inv.Tokens.Prompt,
		CompletionTokens: inv.Tokens.Completion,
		TotalTokens:      inv.Tokens.Total,
	})
	if err != nil {
		logger.Error(ctx, "token 台账写入失败", err, "execution_id", inv.ExecutionID)
	}
}
