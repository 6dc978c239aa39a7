package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"rag-agent-api/internal/application/auth"
	"rag-agent-api/internal/interfaces/http/dto"
	"rag-agent-api/internal/interfaces/http/middleware"
)

// AuthHandler 认证接口
type AuthHandler struct {
	service   *auth.Service
	accessTTL time.Duration
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(service *auth.Service, accessTTL time.Duration) *AuthHandler {
	return &AuthHandler{service: service, accessTTL: accessTTL}
}

// Register 注册
// POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Created(c, dto.NewUserResponse(user))
}

// Login 登录
// POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, pair, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		dto.Error(c, err)
		return
	}

	dto.Success(c, &dto.LoginResponse{
		User: dto.NewUserResponse(user),
		Token: &dto.TokenResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresIn:    int64(h.accessTTL.Seconds()),
		},
	})
}

// Refresh 刷新令牌
// POST /v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		dto.Error(c, err)
		return
	}

	dto.Success(c, &dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(h.accessTTL.Seconds()),
	})
}

// Me 查询当前用户
// GET /v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.GetProfile(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Success(c, dto.NewUserResponse(user))
}

// UpdateProfile 更新资料
// PUT /v1/auth/me
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), req.FullName)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Success(c, dto.NewUserResponse(user))
}

// ChangePassword 修改密码
// PUT /v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.service.ChangePassword(c.Request.Context(), middleware.CurrentUserID(c), req.OldPassword, req.NewPassword)
	if err != nil {
		dto.Error(c, err)
		return
	}
	dto.Success(c, gin.H{"changed": true})
}

// Logout 登出
// POST /v1/auth/logout
// 令牌为无状态 JWT，登出由客户端丢弃令牌完成，服务端仅确认
func (h *AuthHandler) Logout(c *gin.Context) {
	dto.Success(c, gin.H{"logged_out": true})
}
