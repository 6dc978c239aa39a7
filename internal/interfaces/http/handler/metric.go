package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"rag-agent-api/internal/application/telemetry"
	"rag-agent-api/internal/domain/repository"
	"rag-agent-api/internal/infrastructure/messaging"
	"rag-agent-api/internal/interfaces/http/dto"
)

// MetricHandler 执行遥测接口
type MetricHandler struct {
	recorder   *telemetry.Recorder
	aggregator *telemetry.Aggregator
	producer   *messaging.Producer
}

// NewMetricHandler 创建遥测处理器
func NewMetricHandler(recorder *telemetry.Recorder, aggregator *telemetry.Aggregator, producer *messaging.Producer) *MetricHandler {
	return &MetricHandler{
		recorder:   recorder,
		aggregator: aggregator,
		producer:   producer,
	}
}

// Record 上报一次执行的遥测
// POST /v1/metrics/executions
func (h *MetricHandler) Record(c *gin.Context) {
	var req dto.RecordExecutionRequest
	if !bindJSON(c, &req) {
		return
	}

	metric, err := h.recorder.Record(c.Request.Context(), req.ToInvocation())
	if err != nil {
		dto.Error(c, err)
		return
	}

	// 事件发布在落库之后，属于旁路副作用
	h.producer.Publish(c.Request.Context(), messaging.EventMetricRecorded, &messaging.MetricRecordedEvent{
		ExecutionID:    metric.ExecutionID,
		UserID:         metric.UserID,
		ConversationID: metric.ConversationID,
		Sector:         metric.Sector,
		TotalTimeMs:    metric.TotalTimeMs,
		TotalTokens:    metric.TotalTokens,
		IsSuccessful:   metric.IsSuccessful,
		RecordedAt:     metric.CreatedAt,
	})

	dto.Created(c, dto.NewExecutionResponse(metric))
}

// AttachRating 为已有执行记录附加评分
// PUT /v1/metrics/executions/:id/rating
func (h *MetricHandler) AttachRating(c *gin.Context) {
	var req dto.AttachRatingRequest
	if !bindJSON(c, &req) {
		return
	}

	executionID := c.Param("id")
	if err := h.recorder.AttachRating(c.Request.Context(), executionID, req.Rating); err != nil {
		dto.Error(c, err)
		return
	}

	h.producer.Publish(c.Request.Context(), messaging.EventRatingAttached, &messaging.RatingAttachedEvent{
		ExecutionID: executionID,
		Rating:      req.Rating,
		AttachedAt:  time.Now(),
	})

	dto.Success(c, gin.H{"execution_id": executionID, "rating": req.Rating})
}

// Sectors 行业聚合
// GET /v1/metrics/sectors
func (h *MetricHandler) Sectors(c *gin.Context) {
	var query dto.SectorSummaryQuery
	if !bindQuery(c, &query) {
		return
	}

	var since *time.Time
	if query.SinceHours > 0 {
		t := time.Now().Add(-time.Duration(query.SinceHours) * time.Hour)
		since = &t
	}

	summaries, err := h.aggregator.BySector(c.Request.Context(), since)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Success(c, summaries)
}

// Users 用户用量聚合
// GET /v1/metrics/users
func (h *MetricHandler) Users(c *gin.Context) {
	var query dto.UserUsageQuery
	if !bindQuery(c, &query) {
		return
	}

	summaries, err := h.aggregator.ByUser(c.Request.Context(), query.WindowDays)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Success(c, summaries)
}

// ActiveConversations 活跃对话概览
// GET /v1/metrics/active-conversations
func (h *MetricHandler) ActiveConversations(c *gin.Context) {
	rows, err := h.aggregator.ActiveConversations(c.Request.Context())
	if err != nil {
		dto.Error(c, err)
		return
	}

	items := make([]*dto.ActiveConversationResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.NewActiveConversationResponse(row))
	}
	dto.Success(c, items)
}

// ConversationExecutions 某对话的执行记录
// GET /v1/metrics/conversations/:id
func (h *MetricHandler) ConversationExecutions(c *gin.Context) {
	var query dto.PageQuery
	if !bindQuery(c, &query) {
		return
	}

	page := &repository.Pagination{Page: query.Page, PageSize: query.PageSize}
	result, err := h.aggregator.ListByConversation(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		dto.Error(c, err)
		return
	}

	items := make([]*dto.ExecutionResponse, 0, len(result.Items))
	for _, metric := range result.Items {
		items = append(items, dto.NewExecutionResponse(metric))
	}
	dto.Success(c, &repository.PagedResult[*dto.ExecutionResponse]{
		Items:    items,
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
	})
}
