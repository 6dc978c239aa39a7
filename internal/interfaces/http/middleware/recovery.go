package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"rag-agent-api/internal/interfaces/http/dto"
	apperrors "rag-agent-api/pkg/errors"
	"rag-agent-api/pkg/logger"
)

// Recovery 捕获 panic 并返回统一错误响应
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(c.Request.Context(), "请求处理发生 panic",
					fmt.Errorf("%v", r),
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				dto.ErrorWithStatus(c, http.StatusInternalServerError,
					apperrors.CodeInternalError, "internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
