package dto

import (
	"encoding/json"
	"time"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
)

// CreateConversationRequest 创建对话请求
type CreateConversationRequest struct {
	Title        string `json:"title" binding:"required,max=255"`
	Sector       string `json:"sector" binding:"max=100"`
	SystemPrompt string `json:"system_prompt"`
}

// UpdateConversationRequest 更新对话请求
type UpdateConversationRequest struct {
	Title  string `json:"title" binding:"max=255"`
	Status string `json:"status" binding:"omitempty,oneof=active archived closed"`
}

// AppendMessageRequest 追加消息请求
type AppendMessageRequest struct {
	Role     string          `json:"role" binding:"required,oneof=user assistant system"`
	Content  string          `json:"content" binding:"required"`
	Metadata json.RawMessage `json:"metadata"`
}

// AppendExchangeRequest 追加一轮问答请求
type AppendExchangeRequest struct {
	UserContent      string          `json:"user_content" binding:"required"`
	AssistantContent string          `json:"assistant_content" binding:"required"`
	Metadata         json.RawMessage `json:"metadata"`
}

// ConversationResponse 对话响应
type ConversationResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Sector       string    `json:"sector,omitempty"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Status       string    `json:"status"`
	MessageCount *int64    `json:"message_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewConversationResponse 从实体构造对话响应
func NewConversationResponse(c *entity.Conversation) *ConversationResponse {
	return &ConversationResponse{
		ID:           c.ID,
		UserID:       c.UserID,
		Title:        c.Title,
		Sector:       c.Sector,
		SystemPrompt: c.SystemPrompt,
		Status:       string(c.Status),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// MessageResponse 消息响应
type MessageResponse struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewMessageResponse 从实体构造消息响应
func NewMessageResponse(m *entity.Message) *MessageResponse {
	return &MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           string(m.Role),
		Content:        m.Content,
		Metadata:       m.Metadata,
		CreatedAt:      m.CreatedAt,
	}
}

// ActiveConversationResponse 活跃对话概览响应
type ActiveConversationResponse struct {
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title"`
	Sector         string    `json:"sector,omitempty"`
	UserEmail      string    `json:"user_email"`
	MessageCount   int64     `json:"message_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewActiveConversationResponse 从聚合行构造响应
func NewActiveConversationResponse(row *repository.ActiveConversationSummary) *ActiveConversationResponse {
	return &ActiveConversationResponse{
		ConversationID: row.ConversationID,
		Title:          row.Title,
		Sector:         row.Sector,
		UserEmail:      row.UserEmail,
		MessageCount:   row.MessageCount,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
