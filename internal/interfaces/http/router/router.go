// Package router 组装 HTTP 路由
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rag-agent-api/internal/config"
	"rag-agent-api/internal/domain/repository"
	"rag-agent-api/internal/infrastructure/persistence/redis"
	"rag-agent-api/internal/interfaces/http/handler"
	"rag-agent-api/internal/interfaces/http/middleware"
	"rag-agent-api/pkg/utils"
)

// Deps 路由依赖
type Deps struct {
	Config     *config.Config
	JWTManager *utils.JWTManager

	RateLimiter   *redis.RateLimiter
	RateLimitRepo repository.RateLimitRepository
	SystemLogRepo repository.SystemLogRepository

	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Conversation *handler.ConversationHandler
	Metric       *handler.MetricHandler
	Admin        *handler.AdminHandler
}

// New 创建 gin 引擎并注册全部路由
func New(deps *Deps) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Trace(deps.Config.App.Name),
		middleware.TraceContext(),
		middleware.CORS(),
		middleware.Metrics(),
	)

	engine.GET("/healthz", deps.Health.Liveness)
	engine.GET("/readyz", deps.Health.Readiness)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRequired := middleware.Auth(deps.JWTManager)
	audit := middleware.Audit(deps.SystemLogRepo)

	var rateLimit gin.HandlerFunc
	if deps.Config.Security.RateLimit.Enabled {
		rateLimit = middleware.RateLimit(deps.RateLimiter, deps.RateLimitRepo)
	} else {
		rateLimit = func(c *gin.Context) { c.Next() }
	}

	v1 := engine.Group("/v1")
	v1.Use(audit)

	auth := v1.Group("/auth")
	{
		auth.POST("/register", rateLimit, deps.Auth.Register)
		auth.POST("/login", rateLimit, deps.Auth.Login)
		auth.POST("/refresh", rateLimit, deps.Auth.Refresh)

		auth.GET("/me", authRequired, deps.Auth.Me)
		auth.PUT("/me", authRequired, deps.Auth.UpdateProfile)
		auth.PUT("/password", authRequired, deps.Auth.ChangePassword)
		auth.POST("/logout", authRequired, deps.Auth.Logout)
	}

	conversations := v1.Group("/conversations", authRequired, rateLimit)
	{
		conversations.POST("", deps.Conversation.Create)
		conversations.GET("", deps.Conversation.List)
		conversations.GET("/:id", deps.Conversation.Get)
		conversations.PUT("/:id", deps.Conversation.Update)
		conversations.DELETE("/:id", deps.Conversation.Delete)
		conversations.POST("/:id/messages", deps.Conversation.AppendMessage)
		conversations.GET("/:id/messages", deps.Conversation.ListMessages)
		conversations.POST("/:id/exchanges", deps.Conversation.AppendExchange)
	}

	metricsGroup := v1.Group("/metrics", authRequired)
	{
		metricsGroup.POST("/executions", rateLimit, deps.Metric.Record)
		metricsGroup.PUT("/executions/:id/rating", rateLimit, deps.Metric.AttachRating)

		metricsGroup.GET("/sectors", deps.Metric.Sectors)
		metricsGroup.GET("/users", middleware.RequireAdmin(), deps.Metric.Users)
		metricsGroup.GET("/active-conversations", middleware.RequireAdmin(), deps.Metric.ActiveConversations)
		metricsGroup.GET("/conversations/:id", deps.Metric.ConversationExecutions)
	}

	adminGroup := v1.Group("/admin", authRequired, middleware.RequireAdmin())
	{
		adminGroup.GET("/users", deps.Admin.Users)
		adminGroup.GET("/users/:id/usage", deps.Admin.UserUsage)
		adminGroup.GET("/usage/models", deps.Admin.ModelUsage)
		adminGroup.GET("/logs", deps.Admin.Logs)
	}

	return engine
}
