package service

import "context"

// TokenUsageInput 一次模型调用的 token 消耗
type TokenUsageInput struct {
	UserID           *string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// TokenUsageRecorder token 台账写入端口
// 实现必须尽力而为，失败不影响主流程
type TokenUsageRecorder interface {
	RecordUsage(ctx context.Context, input TokenUsageInput) error
}
