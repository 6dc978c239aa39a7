package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	apperrors "rag-agent-api/pkg/errors"
)

type fakeConversationRepo struct {
	byID    map[string]*entity.Conversation
	updated int
}

func (f *fakeConversationRepo) Create(ctx context.Context, c *entity.Conversation) error {
	f.byID[c.ID] = c
	return nil
}
func (f *fakeConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	return f.byID[id], nil
}
func (f *fakeConversationRepo) Update(ctx context.Context, c *entity.Conversation) error {
	f.updated++
	f.byID[c.ID] = c
	return nil
}
func (f *fakeConversationRepo) Delete(ctx context.Context, id string) error { return nil }
func (f *fakeConversationRepo) ListByUser(ctx context.Context, userID string, page *repository.Pagination) (*repository.PagedResult[*entity.Conversation], error) {
	return &repository.PagedResult[*entity.Conversation]{}, nil
}
func (f *fakeConversationRepo) ListActive(ctx context.Context) ([]*repository.ActiveConversationSummary, error) {
	return nil, nil
}

type fakeMessageRepo struct {
	created []*entity.Message
	batches int
	count   int64
}

func (f *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	f.created = append(f.created, message)
	return nil
}
func (f *fakeMessageRepo) CreateBatch(ctx context.Context, messages []*entity.Message) error {
	f.batches++
	f.created = append(f.created, messages...)
	return nil
}
func (f *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID string, page *repository.Pagination) (*repository.PagedResult[*entity.Message], error) {
	return &repository.PagedResult[*entity.Message]{}, nil
}
func (f *fakeMessageRepo) CountByConversation(ctx context.Context, conversationID string) (int64, error) {
	return f.count, nil
}

type fakeTx struct{}

func (fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(t *testing.T) (*Service, *fakeConversationRepo, *fakeMessageRepo, *entity.Conversation) {
	t.Helper()
	conversationRepo := &fakeConversationRepo{byID: make(map[string]*entity.Conversation)}
	messageRepo := &fakeMessageRepo{}
	svc := NewService(conversationRepo, messageRepo, nil, fakeTx{})

	conversation := entity.NewConversation("u-1", "dúvida de prazo", "Automotivo", "")
	conversation.ID = "c-1"
	conversationRepo.byID[conversation.ID] = conversation
	return svc, conversationRepo, messageRepo, conversation
}

func TestService_AppendExchange(t *testing.T) {
	svc, conversationRepo, messageRepo, conversation := newTestService(t)
	before := conversation.UpdatedAt.Add(-time.Minute)
	conversation.UpdatedAt = before

	messages, err := svc.AppendExchange(context.Background(), "u-1", "c-1",
		"qual o prazo de entrega?", "o prazo padrão é de 5 dias úteis.", nil)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, 1, messageRepo.batches)
	assert.Equal(t, entity.MessageRoleUser, messages[0].Role)
	assert.Equal(t, entity.MessageRoleAssistant, messages[1].Role)
	assert.Equal(t, "c-1", messages[0].ConversationID)

	assert.Equal(t, 1, conversationRepo.updated)
	assert.True(t, conversation.UpdatedAt.After(before))
}

func TestService_AppendExchange_Forbidden(t *testing.T) {
	svc, _, messageRepo, _ := newTestService(t)

	_, err := svc.AppendExchange(context.Background(), "u-other", "c-1", "oi", "olá", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
	assert.Empty(t, messageRepo.created)
}

func TestService_MessageCount(t *testing.T) {
	svc, _, messageRepo, _ := newTestService(t)
	messageRepo.count = 7

	count, err := svc.MessageCount(context.Background(), "u-1", "c-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestService_MessageCount_NotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.MessageCount(context.Background(), "u-1", "c-missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConversationNotFound))
}
