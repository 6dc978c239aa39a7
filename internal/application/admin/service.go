// Package admin 实现运维侧的用户、日志与用量查询用例
package admin

import (
	"context"
	"time"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	apperrors "rag-agent-api/pkg/errors"
)

// DefaultUsageWindowDays 用量查询的默认时间窗口
const DefaultUsageWindowDays = 30

// Service 运维服务，全部为只读查询
type Service struct {
	userRepo       repository.UserRepository
	systemLogRepo  repository.SystemLogRepository
	tokenUsageRepo repository.TokenUsageRepository
	now            func() time.Time
}

// NewService 创建运维服务
func NewService(userRepo repository.UserRepository, systemLogRepo repository.SystemLogRepository, tokenUsageRepo repository.TokenUsageRepository) *Service {
	return &Service{
		userRepo:       userRepo,
		systemLogRepo:  systemLogRepo,
		tokenUsageRepo: tokenUsageRepo,
		now:            time.Now,
	}
}

// ListUsers 分页查询用户
func (s *Service) ListUsers(ctx context.Context, page *repository.Pagination) (*repository.PagedResult[*entity.User], error) {
	return s.userRepo.List(ctx, page)
}

// ListLogs 分页查询系统日志，level 为空时不过滤级别
func (s *Service) ListLogs(ctx context.Context, level entity.LogLevel, page *repository.Pagination) (*repository.PagedResult[*entity.SystemLog], error) {
	return s.systemLogRepo.List(ctx, level, page)
}

// ModelUsage 按模型聚合最近 windowDays 天的 token 成本
func (s *Service) ModelUsage(ctx context.Context, windowDays int) ([]*repository.ModelUsageAggregate, error) {
	since, err := s.windowStart(windowDays)
	if err != nil {
		return nil, err
	}
	return s.tokenUsageRepo.AggregateByModel(ctx, since)
}

// UserTokenTotal 统计某用户最近 windowDays 天的 token 总量
func (s *Service) UserTokenTotal(ctx context.Context, userID string, windowDays int) (int64, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, apperrors.New(apperrors.CodeUserNotFound, "user not found")
	}

	since, err := s.windowStart(windowDays)
	if err != nil {
		return 0, err
	}
	return s.tokenUsageRepo.SumByUser(ctx, userID, since)
}

func (s *Service) windowStart(windowDays int) (time.Time, error) {
	if windowDays == 0 {
		windowDays = DefaultUsageWindowDays
	}
	if windowDays < 1 {
		return time.Time{}, apperrors.New(apperrors.CodeInvalidRange, "window_days 必须为正数")
	}
	return s.now().AddDate(0, 0, -windowDays), nil
}
