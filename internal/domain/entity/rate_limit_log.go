package entity

import "time"

// RateLimitLog 限流窗口命中记录，窗口统计在 redis 中滑动计算
// 仅在请求被拒绝或窗口关闭时落库
type RateLimitLog struct {
	ID     int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID *string `json:"user_id" gorm:"type:uuid;index"`

	Endpoint      string    `json:"endpoint" gorm:"type:varchar(255);index;not null"`
	RequestsCount int       `json:"requests_count" gorm:"not null;default:0"`
	WindowStart   time.Time `json:"window_start" gorm:"not null"`
	WindowEnd     time.Time `json:"window_end" gorm:"not null"`
	Limited       bool      `json:"limited" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

func (RateLimitLog) TableName() string {
	return "rate_limit_logs"
}
