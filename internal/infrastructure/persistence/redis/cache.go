package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	apperrors "rag-agent-api/pkg/errors"
	"rag-agent-api/pkg/logger"
)

// Cache 基于 Redis 的 JSON 缓存
// 回源由 singleflight 合并，避免缓存失效时的并发击穿
type Cache struct {
	client *redis.Client
	group  singleflight.Group
}

// NewCache 创建缓存
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get 读取并反序列化缓存值，未命中返回 false
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, apperrors.Wrap(err, apperrors.CodeCacheError, "读取缓存失败")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeCacheError, "反序列化缓存失败")
	}
	return true, nil
}

// Set 序列化并写入缓存
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "序列化缓存失败")
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "写入缓存失败")
	}
	return nil
}

// Delete 删除缓存键
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "删除缓存失败")
	}
	return nil
}

// GetOrLoad 读穿缓存，未命中时经 singleflight 回源并写回
// 缓存读写失败降级为直接回源，不阻断业务
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, dest any, load func() (any, error)) error {
	hit, err := c.Get(ctx, key, dest)
	if err != nil {
		logger.Warn(ctx, "缓存读取降级", "key", key, "error", err.Error())
	}
	if hit {
		return nil
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, v, ttl); err != nil {
			logger.Warn(ctx, "缓存写入降级", "key", key, "error", err.Error())
		}
		return v, nil
	})
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "序列化回源结果失败")
	}
	return json.Unmarshal(raw, dest)
}
