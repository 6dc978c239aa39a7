// Package wire 负责应用依赖装配
package wire

import (
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"rag-agent-api/internal/application/admin"
	"rag-agent-api/internal/application/auth"
	"rag-agent-api/internal/application/chat"
	"rag-agent-api/internal/application/quota"
	"rag-agent-api/internal/application/telemetry"
	"rag-agent-api/internal/config"
	"rag-agent-api/internal/domain/repository"
	"rag-agent-api/internal/infrastructure/messaging"
	"rag-agent-api/internal/infrastructure/persistence/postgres"
	"rag-agent-api/internal/infrastructure/persistence/redis"
	"rag-agent-api/internal/interfaces/http/handler"
	"rag-agent-api/internal/interfaces/http/router"
	"rag-agent-api/pkg/utils"
)

// App 装配完成的应用
type App struct {
	Config *config.Config
	Engine *gin.Engine

	DB    *gorm.DB
	Redis *goredis.Client

	UserRepo         repository.UserRepository
	ConversationRepo repository.ConversationRepository
	MetricRepo       repository.AgentMetricRepository
}

// InitializeApp 按依赖顺序装配应用
func InitializeApp(cfg *config.Config) (*App, error) {
	db, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, err
	}

	// 基础设施
	txManager := postgres.NewTxManager(db)
	cache := redis.NewCache(redisClient)
	rateLimiter := redis.NewRateLimiter(redisClient,
		cfg.Security.RateLimit.Requests, cfg.Security.RateLimit.Window)
	producer := messaging.NewProducer(redisClient, cfg.Telemetry.EventStream)
	jwtManager := utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer)

	// 仓储
	userRepo := postgres.NewUserRepository(db)
	conversationRepo := postgres.NewConversationRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	metricRepo := postgres.NewAgentMetricRepository(db)
	tokenUsageRepo := postgres.NewTokenUsageRepository(db)
	systemLogRepo := postgres.NewSystemLogRepository(db)
	rateLimitRepo := postgres.NewRateLimitRepository(db)

	// 应用服务
	authService := auth.NewService(userRepo, jwtManager,
		cfg.Security.JWT.AccessTTL, cfg.Security.JWT.RefreshTTL)
	chatService := chat.NewService(conversationRepo, messageRepo, cache, txManager)
	tokenLedger := quota.NewTokenLedger(tokenUsageRepo, cfg.LLM.Pricing)
	recorder := telemetry.NewRecorder(metricRepo, tokenLedger, cfg.Telemetry.ThresholdPtr())
	aggregator := telemetry.NewAggregator(metricRepo, conversationRepo)
	adminService := admin.NewService(userRepo, systemLogRepo, tokenUsageRepo)

	engine := router.New(&router.Deps{
		Config:        cfg,
		JWTManager:    jwtManager,
		RateLimiter:   rateLimiter,
		RateLimitRepo: rateLimitRepo,
		SystemLogRepo: systemLogRepo,
		Health:        handler.NewHealthHandler(db, redisClient),
		Auth:          handler.NewAuthHandler(authService, cfg.Security.JWT.AccessTTL),
		Conversation:  handler.NewConversationHandler(chatService),
		Metric:        handler.NewMetricHandler(recorder, aggregator, producer),
		Admin:         handler.NewAdminHandler(adminService),
	})

	return &App{
		Config:           cfg,
		Engine:           engine,
		DB:               db,
		Redis:            redisClient,
		UserRepo:         userRepo,
		ConversationRepo: conversationRepo,
		MetricRepo:       metricRepo,
	}, nil
}

// Close 释放外部连接
func (a *App) Close() {
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
	a.Redis.Close()
}
