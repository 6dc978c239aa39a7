package entity

import "time"

// ConversationStatus 对话状态
type ConversationStatus string

const (
	ConversationStatusActive   ConversationStatus = "active"
	ConversationStatusArchived ConversationStatus = "archived"
	ConversationStatusClosed   ConversationStatus = "closed"
)

// Conversation 对话实体，归属于单个用户
type Conversation struct {
	ID           string             `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       string             `json:"user_id" gorm:"type:uuid;index;not null"`
	Title        string             `json:"title" gorm:"type:varchar(255)"`
	Sector       string             `json:"sector,omitempty" gorm:"type:varchar(100);index"`
	SystemPrompt string             `json:"system_prompt,omitempty" gorm:"type:text"`
	Status       ConversationStatus `json:"status" gorm:"type:varchar(50);not null;default:'active';index:idx_conversations_user_status,priority:2"`
	CreatedAt    time.Time          `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time          `json:"updated_at" gorm:"autoUpdateTime;index"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// NewConversation 创建对话
func NewConversation(userID, title, sector, systemPrompt string) *Conversation {
	now := time.Now()
	return &Conversation{
		UserID:       userID,
		Title:        title,
		Sector:       NormalizeSector(sector),
		SystemPrompt: systemPrompt,
		Status:       ConversationStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsActive 判断对话是否处于活跃状态
func (c *Conversation) IsActive() bool {
	return c.Status == ConversationStatusActive
}
