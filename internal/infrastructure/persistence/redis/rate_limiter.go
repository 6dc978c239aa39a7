package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "rag-agent-api/pkg/errors"
)

// RateLimitResult 一次限流判定的结果
type RateLimitResult struct {
	Allowed     bool
	Count       int
	Limit       int
	WindowStart time.Time
	WindowEnd   time.Time
	RetryAfter  time.Duration
}

// RateLimiter 基于 Redis 有序集合的滑动窗口限流器
// 成员为带唯一后缀的时间戳，分数为毫秒时间，过期成员按窗口左边界裁剪
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Allow 判定 key 在当前滑动窗口内是否放行，并登记本次请求
func (l *RateLimiter) Allow(ctx context.Context, key string) (*RateLimitResult, error) {
	now := time.Now()
	windowStart := now.Add(-l.window)
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixMilli()))
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()),
	})
	pipe.Expire(ctx, redisKey, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "限流判定失败")
	}

	count := int(countCmd.Val()) + 1
	result := &RateLimitResult{
		Allowed:     count <= l.limit,
		Count:       count,
		Limit:       l.limit,
		WindowStart: windowStart,
		WindowEnd:   now,
	}
	if !result.Allowed {
		result.RetryAfter = l.window
	}
	return result, nil
}
