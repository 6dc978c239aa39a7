package telemetry

import (
	"math"
	"strings"

	"rag-agent-api/internal/domain/entity"
	apperrors "rag-agent-api/pkg/errors"
)

// 数据质量标记，校验发现不一致时记入 metadata，不拒绝写入
const (
	FlagTokenMismatch      = "token_mismatch"
	FlagTimingSumMismatch  = "timing_sum_mismatch"
	FlagUnknownSector      = "unknown_sector"
	FlagRagHitInconsistent = "rag_hit_inconsistent"
)

const (
	// timingToleranceMs 各阶段耗时之和允许超出总耗时的容差
	timingToleranceMs = 1.0
	// RatingMin / RatingMax 用户评分取值范围
	RatingMin = 1
	RatingMax = 5
)

// Timings 各阶段耗时，单位毫秒
type Timings struct {
	TotalMs     float64 `json:"total_ms"`
	LLMMs       float64 `json:"llm_ms"`
	RetrievalMs float64 `json:"retrieval_ms"`
	ToolMs      float64 `json:"tool_ms"`
}

// Tokens 本次执行的 token 消耗
type Tokens struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// Tools 工具调用统计
type Tools struct {
	Count       int      `json:"count"`
	Names       []string `json:"names"`
	SuccessRate float64  `json:"success_rate"`
}

// RAG 检索统计，分数字段缺省表示上游未提供
type RAG struct {
	Query         string   `json:"query"`
	ResultsCount  int      `json:"results_count"`
	AverageScore  *float64 `json:"average_score"`
	TopChunkScore *float64 `json:"top_chunk_score"`
	Hit           bool     `json:"hit"`
}

// Invocation 一次代理执行的完整遥测输入
type Invocation struct {
	ExecutionID    string  `json:"execution_id"`
	UserID         *string `json:"user_id"`
	ConversationID *string `json:"conversation_id"`

	UserInput string `json:"user_input"`
	Response  string `json:"response"`

	Timings Timings `json:"timings"`
	Tokens  Tokens  `json:"tokens"`
	Tools   Tools   `json:"tools"`
	RAG     RAG     `json:"rag"`

	Sector string `json:"sector"`
	Model  string `json:"model"`

	IsSuccessful bool   `json:"is_successful"`
	ErrorMessage string `json:"error_message"`

	Rating *int `json:"rating"`

	// RelevanceThreshold 判定检索命中的分数阈值，为空时信任上游给出的 Hit
	RelevanceThreshold *float64 `json:"-"`
}

// Validate 校验必填字段与取值范围
// 硬性错误直接拒绝，数值不一致仅作为质量标记返回，原始值照常落库
func (inv *Invocation) Validate() ([]string, error) {
	if strings.TrimSpace(inv.ExecutionID) == "" {
		return nil, apperrors.New(apperrors.CodeMissingRequiredField, "execution_id 不能为空")
	}
	if strings.TrimSpace(inv.UserInput) == "" {
		return nil, apperrors.New(apperrors.CodeMissingRequiredField, "user_input 不能为空")
	}
	if strings.TrimSpace(inv.Response) == "" {
		return nil, apperrors.New(apperrors.CodeMissingRequiredField, "response 不能为空")
	}
	if !inv.IsSuccessful && strings.TrimSpace(inv.ErrorMessage) == "" {
		return nil, apperrors.New(apperrors.CodeMissingRequiredField, "执行失败时 error_message 不能为空")
	}
	if inv.Rating != nil && (*inv.Rating < RatingMin || *inv.Rating > RatingMax) {
		return nil, apperrors.New(apperrors.CodeInvalidRange, "rating 必须在 1..5 之间")
	}
	if inv.Timings.TotalMs < 0 || inv.Timings.LLMMs < 0 || inv.Timings.RetrievalMs < 0 || inv.Timings.ToolMs < 0 {
		return nil, apperrors.New(apperrors.CodeInvalidRange, "耗时不能为负数")
	}
	if inv.Tokens.Prompt < 0 || inv.Tokens.Completion < 0 || inv.Tokens.Total < 0 {
		return nil, apperrors.New(apperrors.CodeInvalidRange, "token 数量不能为负数")
	}
	if inv.Tools.Count < 0 {
		return nil, apperrors.New(apperrors.CodeInvalidRange, "tool_calls_count 不能为负数")
	}
	if inv.Tools.SuccessRate < 0 || inv.Tools.SuccessRate > 1 {
		return nil, apperrors.New(apperrors.CodeInvalidRange, "tool_calls_success_rate 必须在 0..1 之间")
	}
	if inv.RAG.ResultsCount < 0 {
		return nil, apperrors.New(apperrors.CodeInvalidRange, "rag_results_count 不能为负数")
	}
	if s := inv.RAG.AverageScore; s != nil && (*s < 0 || *s > 1) {
		return nil, apperrors.New(apperrors.CodeInvalidRange, "rag_average_score 必须在 0..1 之间")
	}
	if s := inv.RAG.TopChunkScore; s != nil && (*s < 0 || *s > 1) {
		return nil, apperrors.New(apperrors.CodeInvalidRange, "rag_top_chunk_score 必须在 0..1 之间")
	}

	var flags []string

	if inv.Tokens.Total != inv.Tokens.Prompt+inv.Tokens.Completion {
		flags = append(flags, FlagTokenMismatch)
	}

	stageSum := inv.Timings.LLMMs + inv.Timings.RetrievalMs + inv.Timings.ToolMs
	if stageSum > inv.Timings.TotalMs+timingToleranceMs {
		flags = append(flags, FlagTimingSumMismatch)
	}

	if inv.Sector != "" && !entity.IsKnownSector(inv.Sector) {
		flags = append(flags, FlagUnknownSector)
	}

	if inv.RelevanceThreshold != nil && inv.RAG.TopChunkScore != nil {
		expected := *inv.RAG.TopChunkScore >= *inv.RelevanceThreshold
		if expected != inv.RAG.Hit {
			flags = append(flags, FlagRagHitInconsistent)
		}
	}

	return flags, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
