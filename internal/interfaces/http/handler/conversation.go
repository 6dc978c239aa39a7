package handler

import (
	"github.com/gin-gonic/gin"

	"rag-agent-api/internal/application/chat"
	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	"rag-agent-api/internal/interfaces/http/dto"
	"rag-agent-api/internal/interfaces/http/middleware"
)

// ConversationHandler 对话接口
type ConversationHandler struct {
	service *chat.Service
}

// NewConversationHandler 创建对话处理器
func NewConversationHandler(service *chat.Service) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// Create 创建对话
// POST /v1/conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	var req dto.CreateConversationRequest
	if !bindJSON(c, &req) {
		return
	}

	conversation, err := h.service.Create(c.Request.Context(),
		middleware.CurrentUserID(c), req.Title, req.Sector, req.SystemPrompt)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, dto.NewConversationResponse(conversation))
}

// Get 查询对话详情，附带消息数
// GET /v1/conversations/:id
func (h *ConversationHandler) Get(c *gin.Context) {
	conversation, err := h.service.Get(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		dto.Error(c, err)
		return
	}

	resp := dto.NewConversationResponse(conversation)
	if count, err := h.service.MessageCount(c.Request.Context(),
		middleware.CurrentUserID(c), conversation.ID); err == nil {
		resp.MessageCount = &count
	}
	dto.Success(c, resp)
}

// List 分页查询当前用户的对话
// GET /v1/conversations
func (h *ConversationHandler) List(c *gin.Context) {
	var query dto.PageQuery
	if !bindQuery(c, &query) {
		return
	}

	page := &repository.Pagination{Page: query.Page, PageSize: query.PageSize}
	result, err := h.service.List(c.Request.Context(), middleware.CurrentUserID(c), page)
	if err != nil {
		dto.Error(c, err)
		return
	}

	items := make([]*dto.ConversationResponse, 0, len(result.Items))
	for _, conversation := range result.Items {
		items = append(items, dto.NewConversationResponse(conversation))
	}
	dto.Success(c, &repository.PagedResult[*dto.ConversationResponse]{
		Items:    items,
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
	})
}

// Update 更新对话
// PUT /v1/conversations/:id
func (h *ConversationHandler) Update(c *gin.Context) {
	var req dto.UpdateConversationRequest
	if !bindJSON(c, &req) {
		return
	}

	conversation, err := h.service.Update(c.Request.Context(),
		middleware.CurrentUserID(c), c.Param("id"), req.Title, req.Status)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Success(c, dto.NewConversationResponse(conversation))
}

// Delete 删除对话
// DELETE /v1/conversations/:id
func (h *ConversationHandler) Delete(c *gin.Context) {
	err := h.service.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Success(c, gin.H{"deleted": true})
}

// AppendMessage 追加消息
// POST /v1/conversations/:id/messages
func (h *ConversationHandler) AppendMessage(c *gin.Context) {
	var req dto.AppendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := h.service.AppendMessage(c.Request.Context(),
		middleware.CurrentUserID(c), c.Param("id"),
		entity.MessageRole(req.Role), req.Content, req.Metadata)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, dto.NewMessageResponse(message))
}

// AppendExchange 追加一轮问答
// POST /v1/conversations/:id/exchanges
func (h *ConversationHandler) AppendExchange(c *gin.Context) {
	var req dto.AppendExchangeRequest
	if !bindJSON(c, &req) {
		return
	}

	messages, err := h.service.AppendExchange(c.Request.Context(),
		middleware.CurrentUserID(c), c.Param("id"),
		req.UserContent, req.AssistantContent, req.Metadata)
	if err != nil {
		dto.Error(c, err)
		return
	}

	items := make([]*dto.MessageResponse, 0, len(messages))
	for _, message := range messages {
		items = append(items, dto.NewMessageResponse(message))
	}
	dto.Created(c, items)
}

// ListMessages 分页查询消息
// GET /v1/conversations/:id/messages
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	var query dto.PageQuery
	if !bindQuery(c, &query) {
		return
	}

	page := &repository.Pagination{Page: query.Page, PageSize: query.PageSize}
	result, err := h.service.ListMessages(c.Request.Context(),
		middleware.CurrentUserID(c), c.Param("id"), page)
	if err != nil {
		dto.Error(c, err)
		return
	}

	items := make([]*dto.MessageResponse, 0, len(result.Items))
	for _, message := range result.Items {
		items = append(items, dto.NewMessageResponse(message))
	}
	dto.Success(c, &repository.PagedResult[*dto.MessageResponse]{
		Items:    items,
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
	})
}
