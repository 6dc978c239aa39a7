package entity

import (
	"encoding/json"
	"time"
)

// LogLevel 系统日志级别
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// SystemLog 审计与运行事件的持久化记录
type SystemLog struct {
	ID             int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID         *string `json:"user_id" gorm:"type:uuid;index"`
	ConversationID *string `json:"conversation_id" gorm:"type:uuid;index"`

	Level   LogLevel `json:"level" gorm:"type:varchar(20);index;not null"`
	Source  string   `json:"source" gorm:"type:varchar(100);index;not null"`
	Message string   `json:"message" gorm:"type:text;not null"`

	Details json.RawMessage `json:"details,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`

	User         *User         `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Conversation *Conversation `json:"-" gorm:"foreignKey:ConversationID;constraint:OnDelete:SET NULL"`
}

func (SystemLog) TableName() string {
	return "system_logs"
}
