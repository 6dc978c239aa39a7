package handler

import (
	"github.com/gin-gonic/gin"

	"rag-agent-api/internal/application/admin"
	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	"rag-agent-api/internal/interfaces/http/dto"
)

// AdminHandler 运维接口，全部路由要求管理员角色
type AdminHandler struct {
	service *admin.Service
}

// NewAdminHandler 创建运维处理器
func NewAdminHandler(service *admin.Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// Users 分页查询用户
// GET /v1/admin/users
func (h *AdminHandler) Users(c *gin.Context) {
	var query dto.PageQuery
	if !bindQuery(c, &query) {
		return
	}

	page := &repository.Pagination{Page: query.Page, PageSize: query.PageSize}
	result, err := h.service.ListUsers(c.Request.Context(), page)
	if err != nil {
		dto.Error(c, err)
		return
	}

	items := make([]*dto.UserResponse, 0, len(result.Items))
	for _, user := range result.Items {
		items = append(items, dto.NewUserResponse(user))
	}
	dto.Success(c, &repository.PagedResult[*dto.UserResponse]{
		Items:    items,
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
	})
}

// Logs 分页查询系统日志
// GET /v1/admin/logs
func (h *AdminHandler) Logs(c *gin.Context) {
	var query dto.LogQuery
	if !bindQuery(c, &query) {
		return
	}

	page := &repository.Pagination{Page: query.Page, PageSize: query.PageSize}
	result, err := h.service.ListLogs(c.Request.Context(), entity.LogLevel(query.Level), page)
	if err != nil {
		dto.Error(c, err)
		return
	}

	items := make([]*dto.SystemLogResponse, 0, len(result.Items))
	for _, log := range result.Items {
		items = append(items, dto.NewSystemLogResponse(log))
	}
	dto.Success(c, &repository.PagedResult[*dto.SystemLogResponse]{
		Items:    items,
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
	})
}

// ModelUsage 按模型聚合 token 成本
// GET /v1/admin/usage/models
func (h *AdminHandler) ModelUsage(c *gin.Context) {
	var query dto.UsageWindowQuery
	if !bindQuery(c, &query) {
		return
	}

	rows, err := h.service.ModelUsage(c.Request.Context(), query.WindowDays)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Success(c, rows)
}

// UserUsage 查询单个用户的 token 用量
// GET /v1/admin/users/:id/usage
func (h *AdminHandler) UserUsage(c *gin.Context) {
	var query dto.UsageWindowQuery
	if !bindQuery(c, &query) {
		return
	}

	windowDays := query.WindowDays
	if windowDays == 0 {
		windowDays = admin.DefaultUsageWindowDays
	}

	total, err := h.service.UserTokenTotal(c.Request.Context(), c.Param("id"), windowDays)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Success(c, &dto.UserTokenTotalResponse{
		UserID:      c.Param("id"),
		WindowDays:  windowDays,
		TotalTokens: total,
	})
}
