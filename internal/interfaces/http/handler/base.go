// Package handler 实现 HTTP 请求处理
package handler

import (
	"github.com/gin-gonic/gin"

	"rag-agent-api/internal/interfaces/http/dto"
	apperrors "rag-agent-api/pkg/errors"
)

// bindJSON 绑定并校验请求体，失败时写出错误响应
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		dto.Error(c, apperrors.New(apperrors.CodeInvalidParam, "请求参数无效").WithDetail(err.Error()))
		return false
	}
	return true
}

// bindQuery 绑定并校验查询参数，失败时写出错误响应
func bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		dto.Error(c, apperrors.New(apperrors.CodeInvalidParam, "查询参数无效").WithDetail(err.Error()))
		return false
	}
	return true
}
