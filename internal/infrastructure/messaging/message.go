// Package messaging 负责向 Redis Streams 发布领域事件
package messaging

import "time"

// 事件类型
const (
	EventMetricRecorded = "metric.recorded"
	EventRatingAttached = "metric.rating_attached"
)

// MetricRecordedEvent 执行记录落库后发布的事件，供离线分析消费
type MetricRecordedEvent struct {
	ExecutionID    string    `json:"execution_id"`
	UserID         *string   `json:"user_id,omitempty"`
	ConversationID *string   `json:"conversation_id,omitempty"`
	Sector         string    `json:"sector"`
	TotalTimeMs    float64   `json:"total_time_ms"`
	TotalTokens    int       `json:"total_tokens"`
	IsSuccessful   bool      `json:"is_successful"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// RatingAttachedEvent 评分附加后发布的事件
type RatingAttachedEvent struct {
	ExecutionID string    `json:"execution_id"`
	Rating      int       `json:"rating"`
	AttachedAt  time.Time `json:"attached_at"`
}
