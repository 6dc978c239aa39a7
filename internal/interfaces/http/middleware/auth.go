package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"rag-agent-api/internal/interfaces/http/dto"
	apperrors "rag-agent-api/pkg/errors"
	"rag-agent-api/pkg/logger"
	"rag-agent-api/pkg/utils"
)

// gin 上下文中的认证信息键
const (
	CtxUserIDKey = "auth_user_id"
	CtxEmailKey  = "auth_email"
	CtxRoleKey   = "auth_role"
)

// Auth 校验 Bearer 访问令牌
func Auth(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			dto.Error(c, apperrors.ErrTokenMissing)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			dto.Error(c, apperrors.ErrTokenInvalid)
			c.Abort()
			return
		}

		claims, err := jwtManager.ParseToken(parts[1])
		if err != nil {
			if errors.Is(err, utils.ErrExpiredToken) {
				dto.Error(c, apperrors.ErrTokenExpired)
			} else {
				dto.Error(c, apperrors.ErrTokenInvalid)
			}
			c.Abort()
			return
		}

		if claims.Type != "access" {
			dto.Error(c, apperrors.ErrTokenInvalid)
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxEmailKey, claims.Email)
		c.Set(CtxRoleKey, claims.Role)

		ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireAdmin 仅放行管理员，必须排在 Auth 之后
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxRoleKey) != "admin" {
			dto.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUserID 读取当前登录用户标识
func CurrentUserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
