// Package auth 实现注册登录等身份用例
package auth

import (
	"context"
	"strings"
	"time"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	apperrors "rag-agent-api/pkg/errors"
	"rag-agent-api/pkg/logger"
	"rag-agent-api/pkg/utils"
)

// Service 认证服务
type Service struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService 创建认证服务
func NewService(userRepo repository.UserRepository, jwtManager *utils.JWTManager, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register 注册新用户
func (s *Service) Register(ctx context.Context, email, password, fullName string) (*entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.New(apperrors.CodeConflict, "邮箱已被注册")
	}

	user := entity.NewUser(email, fullName)
	if err := user.SetPassword(password); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "密码散列失败")
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info(ctx, "用户注册成功", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login 校验凭证并签发令牌
func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, *utils.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	// 用户不存在与密码错误返回同一错误，避免枚举邮箱
	if user == nil || !user.CheckPassword(password) {
		return nil, nil, apperrors.New(apperrors.CodeUnauthorized, "邮箱或密码错误")
	}
	if !user.IsActive {
		return nil, nil, apperrors.New(apperrors.CodeForbidden, "账号已被停用")
	}

	pair, err := s.jwtManager.GenerateTokenPair(user.ID, user.Email, string(user.Role), s.accessTTL, s.refreshTTL)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeInternalError, "令牌签发失败")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		logger.Warn(ctx, "更新最近登录时间失败", "user_id", user.ID, "error", err.Error())
	}

	return user, pair, nil
}

// Refresh 用刷新令牌换发新令牌对
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*utils.TokenPair, error) {
	claims, err := s.jwtManager.ParseToken(refreshToken)
	if err != nil || claims.Type != "refresh" {
		return nil, apperrors.ErrTokenInvalid
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, apperrors.ErrTokenInvalid
	}

	pair, err := s.jwtManager.GenerateTokenPair(user.ID, user.Email, string(user.Role), s.accessTTL, s.refreshTTL)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "令牌签发失败")
	}
	return pair, nil
}

// GetProfile 查询当前用户资料
func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile 更新用户资料
func (s *Service) UpdateProfile(ctx context.Context, userID, fullName string) (*entity.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FullName = fullName
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword 校验旧密码后更换密码
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if !user.CheckPassword(oldPassword) {
		return apperrors.New(apperrors.CodeUnauthorized, "旧密码错误")
	}
	if err := user.SetPassword(newPassword); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternalError, "密码散列失败")
	}
	return s.userRepo.Update(ctx, user)
}
