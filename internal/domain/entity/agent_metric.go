package entity

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// AgentMetric 单次代理执行的遥测记录
// execution_id 由数据库唯一索引保证幂等，重复写入会被约束拒绝
type AgentMetric struct {
	ID          int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	ExecutionID string `json:"execution_id" gorm:"type:varchar(64);uniqueIndex;not null"`

	UserID         *string `json:"user_id" gorm:"type:uuid;index"`
	ConversationID *string `json:"conversation_id" gorm:"type:uuid;index"`

	UserInput string `json:"user_input" gorm:"type:text;not null"`
	Response  string `json:"response" gorm:"type:text;not null"`

	// 各阶段耗时，单位毫秒
	TotalTimeMs     float64 `json:"total_time_ms" gorm:"not null;default:0"`
	LLMTimeMs       float64 `json:"llm_time_ms" gorm:"column:llm_time_ms;not null;default:0"`
	RetrievalTimeMs float64 `json:"retrieval_time_ms" gorm:"not null;default:0"`
	ToolTimeMs      float64 `json:"tool_time_ms" gorm:"not null;default:0"`

	PromptTokens     int `json:"prompt_tokens" gorm:"not null;default:0"`
	CompletionTokens int `json:"completion_tokens" gorm:"not null;default:0"`
	TotalTokens      int `json:"total_tokens" gorm:"not null;default:0"`

	ToolCallsCount       int            `json:"tool_calls_count" gorm:"not null;default:0"`
	ToolCallsNames       pq.StringArray `json:"tool_calls_names" gorm:"type:text[]"`
	ToolCallsSuccessRate float64        `json:"tool_calls_success_rate" gorm:"not null;default:0"`

	RagQuery         string   `json:"rag_query" gorm:"type:text"`
	RagResultsCount  int      `json:"rag_results_count" gorm:"not null;default:0"`
	RagAverageScore  *float64 `json:"rag_average_score"`
	RagTopChunkScore *float64 `json:"rag_top_chunk_score"`
	RagHitRate       bool     `json:"rag_hit_rate" gorm:"not null;default:false"`

	Sector     string `json:"sector" gorm:"type:varchar(100);index;not null"`
	UserRating *int   `json:"user_rating"`

	IsSuccessful bool   `json:"is_successful" gorm:"not null;default:true"`
	ErrorMessage string `json:"error_message" gorm:"type:text"`

	// 数据质量标记等附加信息
	Metadata json.RawMessage `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`

	User         *User         `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Conversation *Conversation `json:"-" gorm:"foreignKey:ConversationID;constraint:OnDelete:SET NULL"`
}

func (AgentMetric) TableName() string {
	return "agent_metrics"
}

// HasRating 是否已有用户评分
func (m *AgentMetric) HasRating() bool {
	return m.UserRating != nil
}
