package entity

import (
	"encoding/json"
	"time"
)

// MessageRole 消息角色
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Message 对话中的一条消息，创建后不可变
type Message struct {
	ID             string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationID string          `json:"conversation_id" gorm:"type:uuid;index;not null"`
	Role           MessageRole     `json:"role" gorm:"type:varchar(50);not null"`
	Content        string          `json:"content" gorm:"type:text;not null"`
	Metadata       json.RawMessage `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime;index"`

	Conversation *Conversation `json:"-" gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

func (Message) TableName() string {
	return "messages"
}

// NewMessage 创建消息
func NewMessage(conversationID string, role MessageRole, content string, metadata json.RawMessage) *Message {
	return &Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Metadata:       metadata,
		CreatedAt:      time.Now(),
	}
}
