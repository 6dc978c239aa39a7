package dto

import (
	"encoding/json"
	"time"

	"rag-agent-api/internal/domain/entity"
)

// LogQuery 系统日志查询参数
type LogQuery struct {
	PageQuery
	Level string `form:"level" binding:"omitempty,oneof=info warning error"`
}

// UsageWindowQuery 用量查询的时间窗口参数，0 表示默认窗口
type UsageWindowQuery struct {
	WindowDays int `form:"window_days" binding:"omitempty,min=1,max=365"`
}

// SystemLogResponse 系统日志响应
type SystemLogResponse struct {
	ID             int64           `json:"id"`
	UserID         *string         `json:"user_id,omitempty"`
	ConversationID *string         `json:"conversation_id,omitempty"`
	Level          string          `json:"level"`
	Source         string          `json:"source"`
	Message        string          `json:"message"`
	Details        json.RawMessage `json:"details,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewSystemLogResponse 从实体构造系统日志响应
func NewSystemLogResponse(log *entity.SystemLog) *SystemLogResponse {
	return &SystemLogResponse{
		ID:             log.ID,
		UserID:         log.UserID,
		ConversationID: log.ConversationID,
		Level:          string(log.Level),
		Source:         log.Source,
		Message:        log.Message,
		Details:        log.Details,
		CreatedAt:      log.CreatedAt,
	}
}

// UserTokenTotalResponse 单用户 token 用量响应
type UserTokenTotalResponse struct {
	UserID      string `json:"user_id"`
	WindowDays  int    `json:"window_days"`
	TotalTokens int64  `json:"total_tokens"`
}
