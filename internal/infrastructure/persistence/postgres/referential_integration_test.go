//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"rag-agent-api/internal/domain/entity"
	apperrors "rag-agent-api/pkg/errors"
)

// openTestDB 连接 TEST_POSTGRES_DSN 指定的数据库并迁移全部表
// 未设置 DSN 时跳过，允许在无数据库的环境下运行其余测试
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN 未设置")
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&entity.User{},
		&entity.Conversation{},
		&entity.Message{},
		&entity.AgentMetric{},
		&entity.TokenUsage{},
		&entity.SystemLog{},
		&entity.RateLimitLog{},
	))
	return db
}

func seedUserAndConversation(t *testing.T, db *gorm.DB) (*entity.User, *entity.Conversation) {
	t.Helper()

	user := entity.NewUser(uuid.NewString()+"@example.com", "Ana Silva")
	user.ID = uuid.NewString()
	require.NoError(t, db.Create(user).Error)

	conversation := entity.NewConversation(user.ID, "dúvida de prazo", "Automotivo", "")
	conversation.ID = uuid.NewString()
	require.NoError(t, db.Create(conversation).Error)

	t.Cleanup(func() {
		db.Unscoped().Where("user_id = ? OR user_id IS NULL", user.ID).Delete(&entity.AgentMetric{})
		db.Unscoped().Where("user_id = ? OR user_id IS NULL", user.ID).Delete(&entity.TokenUsage{})
		db.Unscoped().Delete(&entity.Conversation{}, "id = ?", conversation.ID)
		db.Unscoped().Delete(&entity.User{}, "id = ?", user.ID)
	})
	return user, conversation
}

func newMetric(user *entity.User, conversation *entity.Conversation) *entity.AgentMetric {
	return &entity.AgentMetric{
		ExecutionID:    uuid.NewString(),
		UserID:         &user.ID,
		ConversationID: &conversation.ID,
		UserInput:      "qual o prazo de entrega?",
		Response:       "o prazo padrão é de 5 dias úteis.",
		TotalTokens:    650,
		Sector:         "Automotivo",
		IsSuccessful:   true,
	}
}

func TestReferential_ConversationDeleteCascadesMessages(t *testing.T) {
	db := openTestDB(t)
	user, conversation := seedUserAndConversation(t, db)

	message := entity.NewMessage(conversation.ID, entity.MessageRoleUser, "oi", nil)
	message.ID = uuid.NewString()
	require.NoError(t, db.Create(message).Error)

	metric := newMetric(user, conversation)
	require.NoError(t, db.Create(metric).Error)

	require.NoError(t, db.Delete(&entity.Conversation{}, "id = ?", conversation.ID).Error)

	var messageCount int64
	require.NoError(t, db.Model(&entity.Message{}).
		Where("conversation_id = ?", conversation.ID).Count(&messageCount).Error)
	assert.Zero(t, messageCount)

	// 执行记录保留，对话关联被置空
	var kept entity.AgentMetric
	require.NoError(t, db.Where("execution_id = ?", metric.ExecutionID).First(&kept).Error)
	assert.Nil(t, kept.ConversationID)
}

func TestReferential_UserDeleteKeepsMetricRows(t *testing.T) {
	db := openTestDB(t)
	user, conversation := seedUserAndConversation(t, db)

	metric := newMetric(user, conversation)
	require.NoError(t, db.Create(metric).Error)

	usage := &entity.TokenUsage{UserID: &user.ID, Model: "gpt-4o", TotalTokens: 650}
	require.NoError(t, db.Create(usage).Error)

	require.NoError(t, db.Delete(&entity.User{}, "id = ?", user.ID).Error)

	var kept entity.AgentMetric
	require.NoError(t, db.Where("execution_id = ?", metric.ExecutionID).First(&kept).Error)
	assert.Nil(t, kept.UserID)
	assert.Equal(t, 650, kept.TotalTokens)

	var keptUsage entity.TokenUsage
	require.NoError(t, db.First(&keptUsage, "id = ?", usage.ID).Error)
	assert.Nil(t, keptUsage.UserID)
}

func TestReferential_DuplicateExecutionRejectedByConstraint(t *testing.T) {
	db := openTestDB(t)
	user, conversation := seedUserAndConversation(t, db)

	repo := NewAgentMetricRepository(db)
	metric := newMetric(user, conversation)
	require.NoError(t, repo.Create(context.Background(), metric))

	dup := newMetric(user, conversation)
	dup.ExecutionID = metric.ExecutionID
	err := repo.Create(context.Background(), dup)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeDuplicateExecution))

	var count int64
	require.NoError(t, db.Model(&entity.AgentMetric{}).
		Where("execution_id = ?", metric.ExecutionID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
