package entity

import "time"

// TokenUsage 按模型维度的 token 消耗台账，用于成本核算
type TokenUsage struct {
	ID     int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID *string `json:"user_id" gorm:"type:uuid;index"`

	Model            string  `json:"model" gorm:"type:varchar(100);index;not null"`
	PromptTokens     int     `json:"prompt_tokens" gorm:"not null;default:0"`
	CompletionTokens int     `json:"completion_tokens" gorm:"not null;default:0"`
	TotalTokens      int     `json:"total_tokens" gorm:"not null;default:0"`
	CostUSD          float64 `json:"cost_usd" gorm:"type:numeric(12,6);not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

func (TokenUsage) TableName() string {
	return "token_usage"
}
