package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	"rag-agent-api/internal/infrastructure/persistence/redis"
	"rag-agent-api/internal/interfaces/http/dto"
	apperrors "rag-agent-api/pkg/errors"
	"rag-agent-api/pkg/logger"
	"rag-agent-api/pkg/metrics"
)

// RateLimit 按用户（未登录按客户端地址）与端点做滑动窗口限流
// 被拒绝的请求异步落库，供配额审计
func RateLimit(limiter *redis.RateLimiter, rateLimitRepo repository.RateLimitRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		var userID *string
		subject := CurrentUserID(c)
		if subject != "" {
			userID = &subject
		} else {
			subject = c.ClientIP()
		}

		result, err := limiter.Allow(c.Request.Context(), fmt.Sprintf("%s:%s", subject, endpoint))
		if err != nil {
			// 限流器不可用时放行，可用性优先于限流精度
			logger.Warn(c.Request.Context(), "限流器不可用，请求放行", "error", err.Error())
			c.Next()
			return
		}

		if !result.Allowed {
			metrics.RateLimitedRequests.WithLabelValues(endpoint).Inc()
			persistLimitedRequest(c.Request.Context(), rateLimitRepo, userID, endpoint, result)

			c.Header("Retry-After", fmt.Sprintf("%d", int(result.RetryAfter.Seconds())))
			dto.Error(c, apperrors.ErrTooManyRequests)
			c.Abort()
			return
		}

		c.Next()
	}
}

// persistLimitedRequest 异步写入限流命中记录
func persistLimitedRequest(ctx context.Context, repo repository.RateLimitRepository, userID *string, endpoint string, result *redis.RateLimitResult) {
	if repo == nil {
		return
	}

	log := &entity.RateLimitLog{
		UserID:        userID,
		Endpoint:      endpoint,
		RequestsCount: result.Count,
		WindowStart:   result.WindowStart,
		WindowEnd:     result.WindowEnd,
		Limited:       true,
	}

	go func() {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()
		if err := repo.Create(writeCtx, log); err != nil {
			logger.Error(writeCtx, "限流记录写入失败", err, "endpoint", endpoint)
		}
	}()
}
