// Package dto 定义 HTTP 请求与响应结构
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "rag-agent-api/pkg/errors"
)

// Response 统一响应结构
type Response[T any] struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
	Data    T                   `json:"data,omitempty"`
	Detail  string              `json:"detail,omitempty"`
}

// Success 返回成功响应
func Success[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, Response[T]{
		Code:    apperrors.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Created 返回创建成功响应
func Created[T any](c *gin.Context, data T) {
	c.JSON(http.StatusCreated, Response[T]{
		Code:    apperrors.CodeSuccess,
		Message: "created",
		Data:    data,
	})
}

// Error 根据错误类型返回对应状态码的错误响应
func Error(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	c.JSON(appErr.HTTPStatus, Response[any]{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}

// ErrorWithStatus 按指定状态码返回错误响应
func ErrorWithStatus(c *gin.Context, status int, code apperrors.ErrorCode, message string) {
	c.JSON(status, Response[any]{
		Code:    code,
		Message: message,
	})
}

// PageQuery 分页查询参数
type PageQuery struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=20"`
}
