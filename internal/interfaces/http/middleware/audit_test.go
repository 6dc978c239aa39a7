package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
)

type fakeSystemLogRepo struct {
	entries chan *entity.SystemLog
}

func newFakeSystemLogRepo() *fakeSystemLogRepo {
	return &fakeSystemLogRepo{entries: make(chan *entity.SystemLog, 1)}
}

func (f *fakeSystemLogRepo) Create(ctx context.Context, log *entity.SystemLog) error {
	f.entries <- log
	return nil
}

func (f *fakeSystemLogRepo) List(ctx context.Context, level entity.LogLevel, page *repository.Pagination) (*repository.PagedResult[*entity.SystemLog], error) {
	return &repository.PagedResult[*entity.SystemLog]{}, nil
}

func (f *fakeSystemLogRepo) wait(t *testing.T) *entity.SystemLog {
	t.Helper()
	select {
	case e := <-f.entries:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("audit entry not written")
		return nil
	}
}

func newAuditEngine(repo repository.SystemLogRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Audit(repo))
	engine.PUT("/v1/conversations/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	engine.PUT("/v1/metrics/executions/:id/rating", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	engine.DELETE("/v1/conversations/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	return engine
}

func TestAudit_LinksConversationScopedRoutes(t *testing.T) {
	repo := newFakeSystemLogRepo()
	engine := newAuditEngine(repo)

	req := httptest.NewRequest(http.MethodPut, "/v1/conversations/6e2a9b1c-3f1d-4b44-9a3d-0b6f1c2d3e4f", nil)
	engine.ServeHTTP(httptest.NewRecorder(), req)

	entry := repo.wait(t)
	require.NotNil(t, entry.ConversationID)
	assert.Equal(t, "6e2a9b1c-3f1d-4b44-9a3d-0b6f1c2d3e4f", *entry.ConversationID)
	assert.Equal(t, entity.LogLevelInfo, entry.Level)
}

func TestAudit_ExecutionRouteNotLinkedToConversation(t *testing.T) {
	repo := newFakeSystemLogRepo()
	engine := newAuditEngine(repo)

	req := httptest.NewRequest(http.MethodPut, "/v1/metrics/executions/exec-123/rating", nil)
	engine.ServeHTTP(httptest.NewRecorder(), req)

	entry := repo.wait(t)
	assert.Nil(t, entry.ConversationID)
}

func TestAudit_FailedRequestNotLinked(t *testing.T) {
	repo := newFakeSystemLogRepo()
	engine := newAuditEngine(repo)

	req := httptest.NewRequest(http.MethodDelete, "/v1/conversations/6e2a9b1c-3f1d-4b44-9a3d-0b6f1c2d3e4f", nil)
	engine.ServeHTTP(httptest.NewRecorder(), req)

	entry := repo.wait(t)
	assert.Nil(t, entry.ConversationID)
	assert.Equal(t, entity.LogLevelWarning, entry.Level)
}
