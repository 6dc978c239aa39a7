// Package chat 实现对话与消息用例
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	"rag-agent-api/internal/infrastructure/persistence/redis"
	apperrors "rag-agent-api/pkg/errors"
	"rag-agent-api/pkg/logger"
)

// conversationCacheTTL 对话详情缓存时长
const conversationCacheTTL = 5 * time.Minute

// Service 对话服务
type Service struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	cache            *redis.Cache
	tx               repository.Transactor
}

// NewService 创建对话服务，cache 可为 nil
func NewService(conversationRepo repository.ConversationRepository, messageRepo repository.MessageRepository, cache *redis.Cache, tx repository.Transactor) *Service {
	return &Service{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		cache:            cache,
		tx:               tx,
	}
}

func cacheKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}

// Create 创建对话
func (s *Service) Create(ctx context.Context, userID, title, sector, systemPrompt string) (*entity.Conversation, error) {
	conversation := entity.NewConversation(userID, title, sector, systemPrompt)
	if err := s.conversationRepo.Create(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// Get 查询对话，读穿缓存，并校验归属
func (s *Service) Get(ctx context.Context, userID, conversationID string) (*entity.Conversation, error) {
	conversation, err := s.load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, apperrors.ErrConversationNotFound
	}
	if conversation.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return conversation, nil
}

// load 读穿缓存加载对话
func (s *Service) load(ctx context.Context, conversationID string) (*entity.Conversation, error) {
	if s.cache == nil {
		return s.conversationRepo.GetByID(ctx, conversationID)
	}

	var conversation entity.Conversation
	err := s.cache.GetOrLoad(ctx, cacheKey(conversationID), conversationCacheTTL, &conversation, func() (any, error) {
		found, err := s.conversationRepo.GetByID(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, apperrors.ErrConversationNotFound
		}
		return found, nil
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeConversationNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conversation, nil
}

// List 分页查询用户的对话
func (s *Service) List(ctx context.Context, userID string, page *repository.Pagination) (*repository.PagedResult[*entity.Conversation], error) {
	return s.conversationRepo.ListByUser(ctx, userID, page)
}

// Update 更新对话标题或状态并失效缓存
func (s *Service) Update(ctx context.Context, userID, conversationID, title, status string) (*entity.Conversation, error) {
	conversation, err := s.Get(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	if title != "" {
		conversation.Title = title
	}
	if status != "" {
		conversation.Status = entity.ConversationStatus(status)
	}
	conversation.UpdatedAt = time.Now()

	if err := s.conversationRepo.Update(ctx, conversation); err != nil {
		return nil, err
	}
	s.invalidate(ctx, conversationID)
	return conversation, nil
}

// Delete 删除对话，消息随外键级联删除
func (s *Service) Delete(ctx context.Context, userID, conversationID string) error {
	if _, err := s.Get(ctx, userID, conversationID); err != nil {
		return err
	}
	if err := s.conversationRepo.Delete(ctx, conversationID); err != nil {
		return err
	}
	s.invalidate(ctx, conversationID)
	return nil
}

// AppendMessage 追加消息并推进对话更新时间
func (s *Service) AppendMessage(ctx context.Context, userID, conversationID string, role entity.MessageRole, content string, metadata json.RawMessage) (*entity.Message, error) {
	conversation, err := s.Get(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	message := entity.NewMessage(conversation.ID, role, content, metadata)
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.messageRepo.Create(txCtx, message); err != nil {
			return err
		}
		conversation.UpdatedAt = time.Now()
		return s.conversationRepo.Update(txCtx, conversation)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, conversationID)
	return message, nil
}

// AppendExchange 在一次事务内追加一轮问答（用户消息与助手回复），保证成对落库
func (s *Service) AppendExchange(ctx context.Context, userID, conversationID, userContent, assistantContent string, metadata json.RawMessage) ([]*entity.Message, error) {
	conversation, err := s.Get(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	messages := []*entity.Message{
		entity.NewMessage(conversation.ID, entity.MessageRoleUser, userContent, nil),
		entity.NewMessage(conversation.ID, entity.MessageRoleAssistant, assistantContent, metadata),
	}
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.messageRepo.CreateBatch(txCtx, messages); err != nil {
			return err
		}
		conversation.UpdatedAt = time.Now()
		return s.conversationRepo.Update(txCtx, conversation)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, conversationID)
	return messages, nil
}

// MessageCount 统计对话的消息数，校验归属
func (s *Service) MessageCount(ctx context.Context, userID, conversationID string) (int64, error) {
	if _, err := s.Get(ctx, userID, conversationID); err != nil {
		return 0, err
	}
	return s.messageRepo.CountByConversation(ctx, conversationID)
}

// ListMessages 分页查询对话消息
func (s *Service) ListMessages(ctx context.Context, userID, conversationID string, page *repository.Pagination) (*repository.PagedResult[*entity.Message], error) {
	if _, err := s.Get(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListByConversation(ctx, conversationID, page)
}

// invalidate 删除对话缓存，失败只记日志
func (s *Service) invalidate(ctx context.Context, conversationID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(conversationID)); err != nil {
		logger.Warn(ctx, "对话缓存失效失败", "conversation_id", conversationID, "error", err.Error())
	}
}
