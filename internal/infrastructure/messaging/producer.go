package messaging

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"rag-agent-api/pkg/logger"
)

// maxStreamLen 事件流近似保留的最大长度
const maxStreamLen = 100000

// Producer 事件发布器
// 发布是尽力而为的旁路操作，失败只记日志不影响主流程
type Producer struct {
	client *redis.Client
	stream string
}

// NewProducer 创建事件发布器，stream 为空时发布为空操作
func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream}
}

// Publish 将事件追加到流
func (p *Producer) Publish(ctx context.Context, eventType string, payload any) {
	if p == nil || p.stream == "" {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Error(ctx, "事件序列化失败", err, "event_type", eventType)
		return
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]any{
			"type":    eventType,
			"payload": raw,
		},
	}).Err()
	if err != nil {
		logger.Error(ctx, "事件发布失败", err, "event_type", eventType, "stream", p.stream)
	}
}
