// Package quota 负责 token 消耗台账与成本核算
package quota

import (
	"context"
	"strings"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	"rag-agent-api/internal/domain/service"
)

// ModelPricing 单个模型每千 token 的美元单价
type ModelPricing struct {
	PromptPer1K     float64 `mapstructure:"prompt_per_1k"`
	CompletionPer1K float64 `mapstructure:"completion_per_1k"`
}

// TokenLedger token 台账写入器，实现 service.TokenUsageRecorder
// 未知模型按零成本记录，只保留 token 计数
type TokenLedger struct {
	repo    repository.TokenUsageRepository
	pricing map[string]ModelPricing
}

// NewTokenLedger 创建台账写入器
func NewTokenLedger(repo repository.TokenUsageRepository, pricing map[string]ModelPricing) *TokenLedger {
	normalized := make(map[string]ModelPricing, len(pricing))
	for model, p := range pricing {
		normalized[strings.ToLower(model)] = p
	}
	return &TokenLedger{repo: repo, pricing: normalized}
}

// RecordUsage 写入一条台账记录
func (l *TokenLedger) RecordUsage(ctx context.Context, input service.TokenUsageInput) error {
	usage := &entity.TokenUsage{
		UserID:           input.UserID,
		Model:            input.Model,
		PromptTokens:     input.PromptTokens,
		CompletionTokens: input.CompletionTokens,
		TotalTokens:      input.TotalTokens,
		CostUSD:          l.cost(input),
	}
	return l.repo.Create(ctx, usage)
}

// cost 按模型单价计算本次调用成本
func (l *TokenLedger) cost(input service.TokenUsageInput) float64 {
	p, ok := l.pricing[strings.ToLower(input.Model)]
	if !ok {
		return 0
	}
	return float64(input.PromptTokens)/1000*p.PromptPer1K +
		float64(input.CompletionTokens)/1000*p.CompletionPer1K
}
