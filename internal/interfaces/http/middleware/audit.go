package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	"rag-agent-api/pkg/logger"
)

// auditDetails 审计日志的结构化附加信息
type auditDetails struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	ClientIP  string `json:"client_ip"`
	LatencyMs int64  `json:"latency_ms"`
	RequestID string `json:"request_id,omitempty"`
}

// Audit 将写操作与异常响应异步落库为系统日志
// 只读请求不落库，避免日志表被查询流量淹没
func Audit(systemLogRepo repository.SystemLogRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if c.Request.Method == "GET" && status < 400 {
			return
		}

		level := entity.LogLevelInfo
		switch {
		case status >= 500:
			level = entity.LogLevelError
		case status >= 400:
			level = entity.LogLevelWarning
		}

		var userID *string
		if id := CurrentUserID(c); id != "" {
			userID = &id
		}

		// 对话相关路由记录对话关联，仅在请求成功时写入，避免引用不存在的对话
		var conversationID *string
		if id := c.Param("id"); id != "" && status < 400 &&
			strings.Contains(c.FullPath(), "/conversations/:id") {
			conversationID = &id
		}

		details, _ := json.Marshal(auditDetails{
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			Status:    status,
			ClientIP:  c.ClientIP(),
			LatencyMs: time.Since(start).Milliseconds(),
			RequestID: c.GetString(string(logger.RequestIDKey)),
		})

		entry := &entity.SystemLog{
			UserID:         userID,
			ConversationID: conversationID,
			Level:          level,
			Source:         "http",
			Message:        c.Request.Method + " " + c.Request.URL.Path,
			Details:        details,
		}

		ctx := c.Request.Context()
		go func() {
			writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
			defer cancel()
			if err := systemLogRepo.Create(writeCtx, entry); err != nil {
				logger.Error(writeCtx, "审计日志写入失败", err)
			}
		}()
	}
}
