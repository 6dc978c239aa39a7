package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"rag-agent-api/pkg/logger"
)

// Trace 链路追踪中间件
func Trace(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// TraceContext 把当前 span 的 trace/span 标识注入日志上下文
// 必须排在 Trace 之后
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		spanCtx := trace.SpanContextFromContext(c.Request.Context())
		if spanCtx.IsValid() {
			ctx := logger.WithContext(c.Request.Context(), logger.TraceIDKey, spanCtx.TraceID().String())
			ctx = logger.WithContext(ctx, logger.SpanIDKey, spanCtx.SpanID().String())
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
