package dto

import (
	"time"

	"rag-agent-api/internal/application/telemetry"
	"rag-agent-api/internal/domain/entity"
)

// RecordExecutionRequest 执行遥测上报请求
// 各阶段数值由上游代理层采集后整体提交
type RecordExecutionRequest struct {
	ExecutionID    string  `json:"execution_id" binding:"required,max=64"`
	UserID         *string `json:"user_id" binding:"omitempty,uuid"`
	ConversationID *string `json:"conversation_id" binding:"omitempty,uuid"`

	UserInput string `json:"user_input" binding:"required"`
	Response  string `json:"response" binding:"required"`

	TotalTimeMs     float64 `json:"total_time_ms"`
	LLMTimeMs       float64 `json:"llm_time_ms"`
	RetrievalTimeMs float64 `json:"retrieval_time_ms"`
	ToolTimeMs      float64 `json:"tool_time_ms"`

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	ToolCallsCount       int      `json:"tool_calls_count"`
	ToolCallsNames       []string `json:"tool_calls_names"`
	ToolCallsSuccessRate float64  `json:"tool_calls_success_rate"`

	RagQuery         string   `json:"rag_query"`
	RagResultsCount  int      `json:"rag_results_count"`
	RagAverageScore  *float64 `json:"rag_average_score"`
	RagTopChunkScore *float64 `json:"rag_top_chunk_score"`
	RagHit           bool     `json:"rag_hit"`

	Sector string `json:"sector" binding:"max=100"`
	Model  string `json:"model" binding:"max=100"`

	IsSuccessful bool   `json:"is_successful"`
	ErrorMessage string `json:"error_message"`

	Rating *int `json:"rating"`
}

// ToInvocation 转换为遥测输入
func (r *RecordExecutionRequest) ToInvocation() *telemetry.Invocation {
	return &telemetry.Invocation{
		ExecutionID:    r.ExecutionID,
		UserID:         r.UserID,
		ConversationID: r.ConversationID,
		UserInput:      r.UserInput,
		Response:       r.Response,
		Timings: telemetry.Timings{
			TotalMs:     r.TotalTimeMs,
			LLMMs:       r.LLMTimeMs,
			RetrievalMs: r.RetrievalTimeMs,
			ToolMs:      r.ToolTimeMs,
		},
		Tokens: telemetry.Tokens{
			Prompt:     r.PromptTokens,
			Completion: r.CompletionTokens,
			Total:      r.TotalTokens,
		},
		Tools: telemetry.Tools{
			Count:       r.ToolCallsCount,
			Names:       r.ToolCallsNames,
			SuccessRate: r.ToolCallsSuccessRate,
		},
		RAG: telemetry.RAG{
			Query:         r.RagQuery,
			ResultsCount:  r.RagResultsCount,
			AverageScore:  r.RagAverageScore,
			TopChunkScore: r.RagTopChunkScore,
			Hit:           r.RagHit,
		},
		Sector:       r.Sector,
		Model:        r.Model,
		IsSuccessful: r.IsSuccessful,
		ErrorMessage: r.ErrorMessage,
		Rating:       r.Rating,
	}
}

// AttachRatingRequest 评分附加请求
// 范围校验在记录器内完成，越界评分统一返回范围错误
type AttachRatingRequest struct {
	Rating int `json:"rating"`
}

// ExecutionResponse 执行记录响应
type ExecutionResponse struct {
	ID          int64     `json:"id"`
	ExecutionID string    `json:"execution_id"`
	Sector      string    `json:"sector,omitempty"`
	TotalTimeMs float64   `json:"total_time_ms"`
	TotalTokens int       `json:"total_tokens"`
	UserRating  *int      `json:"user_rating,omitempty"`
	IsSuccess   bool      `json:"is_successful"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewExecutionResponse 从实体构造执行记录响应
func NewExecutionResponse(m *entity.AgentMetric) *ExecutionResponse {
	return &ExecutionResponse{
		ID:          m.ID,
		ExecutionID: m.ExecutionID,
		Sector:      m.Sector,
		TotalTimeMs: m.TotalTimeMs,
		TotalTokens: m.TotalTokens,
		UserRating:  m.UserRating,
		IsSuccess:   m.IsSuccessful,
		CreatedAt:   m.CreatedAt,
	}
}

// SectorSummaryQuery 行业聚合查询参数
type SectorSummaryQuery struct {
	// SinceHours 统计窗口，0 表示全部历史
	SinceHours int `form:"since_hours" binding:"omitempty,min=1"`
}

// UserUsageQuery 用户用量聚合查询参数
type UserUsageQuery struct {
	WindowDays int `form:"window_days" binding:"omitempty,min=1,max=365"`
}
