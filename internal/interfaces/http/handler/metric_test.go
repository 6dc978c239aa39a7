package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-agent-api/internal/application/telemetry"
	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	apperrors "rag-agent-api/pkg/errors"
)

type stubMetricRepo struct {
	byExecutionID map[string]*entity.AgentMetric
	nextID        int64
}

func newStubMetricRepo() *stubMetricRepo {
	return &stubMetricRepo{byExecutionID: make(map[string]*entity.AgentMetric)}
}

func (s *stubMetricRepo) Create(ctx context.Context, metric *entity.AgentMetric) error {
	if _, exists := s.byExecutionID[metric.ExecutionID]; exists {
		return apperrors.New(apperrors.CodeDuplicateExecution, "execution already recorded")
	}
	s.nextID++
	metric.ID = s.nextID
	metric.CreatedAt = time.Now()
	s.byExecutionID[metric.ExecutionID] = metric
	return nil
}

func (s *stubMetricRepo) GetByExecutionID(ctx context.Context, executionID string) (*entity.AgentMetric, error) {
	return s.byExecutionID[executionID], nil
}

func (s *stubMetricRepo) UpdateRating(ctx context.Context, executionID string, rating int) error {
	metric, ok := s.byExecutionID[executionID]
	if !ok {
		return apperrors.New(apperrors.CodeExecutionNotFound, "execution not found")
	}
	metric.UserRating = &rating
	return nil
}

func (s *stubMetricRepo) ListByConversation(ctx context.Context, conversationID string, page *repository.Pagination) (*repository.PagedResult[*entity.AgentMetric], error) {
	return &repository.PagedResult[*entity.AgentMetric]{}, nil
}

func (s *stubMetricRepo) SectorAggregates(ctx context.Context, since *time.Time) ([]*repository.SectorAggregate, error) {
	return nil, nil
}

func (s *stubMetricRepo) UserUsageAggregates(ctx context.Context, since time.Time) ([]*repository.UserUsageAggregate, error) {
	return nil, nil
}

func newTestEngine(repo *stubMetricRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)

	recorder := telemetry.NewRecorder(repo, nil, nil)
	aggregator := telemetry.NewAggregator(repo, nil)
	h := NewMetricHandler(recorder, aggregator, nil)

	engine := gin.New()
	engine.POST("/v1/metrics/executions", h.Record)
	engine.PUT("/v1/metrics/executions/:id/rating", h.AttachRating)
	return engine
}

func recordPayload(executionID string) map[string]any {
	return map[string]any{
		"execution_id":      executionID,
		"user_input":        "qual o prazo de entrega?",
		"response":          "o prazo padrão é de 5 dias úteis.",
		"total_time_ms":     420.0,
		"llm_time_ms":       300.0,
		"retrieval_time_ms": 80.0,
		"prompt_tokens":     500,
		"completion_tokens": 150,
		"total_tokens":      650,
		"rag_results_count": 5,
		"rag_hit":           true,
		"sector":            "Automotivo",
		"is_successful":     true,
	}
}

func doRequest(t *testing.T, engine *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestMetricHandler_Record(t *testing.T) {
	repo := newStubMetricRepo()
	engine := newTestEngine(repo)

	w := doRequest(t, engine, http.MethodPost, "/v1/metrics/executions", recordPayload("exec-100"))
	require.Equal(t, http.StatusCreated, w.Code)

	stored := repo.byExecutionID["exec-100"]
	require.NotNil(t, stored)
	assert.Equal(t, 650, stored.TotalTokens)
	assert.Equal(t, "Automotivo", stored.Sector)
}

func TestMetricHandler_Record_DuplicateConflict(t *testing.T) {
	repo := newStubMetricRepo()
	engine := newTestEngine(repo)

	first := doRequest(t, engine, http.MethodPost, "/v1/metrics/executions", recordPayload("exec-dup"))
	require.Equal(t, http.StatusCreated, first.Code)

	second := doRequest(t, engine, http.MethodPost, "/v1/metrics/executions", recordPayload("exec-dup"))
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Len(t, repo.byExecutionID, 1)
}

func TestMetricHandler_Record_MissingResponse(t *testing.T) {
	repo := newStubMetricRepo()
	engine := newTestEngine(repo)

	payload := recordPayload("exec-bad")
	delete(payload, "response")

	w := doRequest(t, engine, http.MethodPost, "/v1/metrics/executions", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.byExecutionID)
}

func TestMetricHandler_Record_FailureNeedsErrorMessage(t *testing.T) {
	repo := newStubMetricRepo()
	engine := newTestEngine(repo)

	payload := recordPayload("exec-failed")
	payload["is_successful"] = false

	w := doRequest(t, engine, http.MethodPost, "/v1/metrics/executions", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	payload["error_message"] = "timeout na chamada do modelo"
	w = doRequest(t, engine, http.MethodPost, "/v1/metrics/executions", payload)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestMetricHandler_AttachRating(t *testing.T) {
	repo := newStubMetricRepo()
	engine := newTestEngine(repo)

	doRequest(t, engine, http.MethodPost, "/v1/metrics/executions", recordPayload("exec-rate"))

	w := doRequest(t, engine, http.MethodPut, "/v1/metrics/executions/exec-rate/rating",
		map[string]any{"rating": 4})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.byExecutionID["exec-rate"].UserRating)
	assert.Equal(t, 4, *repo.byExecutionID["exec-rate"].UserRating)
}

func TestMetricHandler_AttachRating_OutOfRange(t *testing.T) {
	repo := newStubMetricRepo()
	engine := newTestEngine(repo)

	doRequest(t, engine, http.MethodPost, "/v1/metrics/executions", recordPayload("exec-rate2"))

	// 零值评分也要进入记录器按范围判定，而不是在参数绑定处被拦截
	for _, rating := range []int{0, -1, 6, 9} {
		w := doRequest(t, engine, http.MethodPut, "/v1/metrics/executions/exec-rate2/rating",
			map[string]any{"rating": rating})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, string(apperrors.CodeInvalidRange), resp.Code)
	}
	assert.Nil(t, repo.byExecutionID["exec-rate2"].UserRating)
}

func TestMetricHandler_AttachRating_UnknownExecution(t *testing.T) {
	engine := newTestEngine(newStubMetricRepo())

	w := doRequest(t, engine, http.MethodPut, "/v1/metrics/executions/exec-missing/rating",
		map[string]any{"rating": 3})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
