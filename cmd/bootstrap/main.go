// bootstrap 初始化数据库结构、统计视图与管理员账号
package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"rag-agent-api/internal/config"
	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/infrastructure/persistence/postgres"
	"rag-agent-api/pkg/logger"
)

// 预计算的统计视图，供离线分析与仪表盘直接查询
var views = []string{
	`CREATE OR REPLACE VIEW v_sector_summary AS
	 SELECT sector,
	        COUNT(*) AS execution_count,
	        COUNT(*) FILTER (WHERE is_successful) AS success_count,
	        ROUND(AVG(total_time_ms)::numeric, 2) AS avg_total_time_ms,
	        ROUND(AVG(total_tokens)) AS avg_total_tokens,
	        ROUND(AVG(rag_average_score)::numeric, 4) AS avg_rag_score,
	        MAX(created_at) AS last_created_at
	 FROM agent_metrics
	 WHERE sector <> ''
	 GROUP BY sector`,

	`CREATE OR REPLACE VIEW v_user_token_usage_30d AS
	 SELECT u.id AS user_id,
	        u.email,
	        u.full_name,
	        COUNT(t.id) AS request_count,
	        COALESCE(SUM(t.prompt_tokens), 0) AS prompt_tokens,
	        COALESCE(SUM(t.completion_tokens), 0) AS completion_tokens,
	        COALESCE(SUM(t.total_tokens), 0) AS total_tokens,
	        COALESCE(SUM(t.cost_usd), 0) AS cost_usd
	 FROM users u
	 LEFT JOIN token_usage t
	        ON t.user_id = u.id AND t.created_at >= NOW() - INTERVAL '30 days'
	 WHERE u.is_active
	 GROUP BY u.id, u.email, u.full_name`,

	`CREATE OR REPLACE VIEW v_active_conversations AS
	 SELECT c.id AS conversation_id,
	        c.title,
	        c.sector,
	        u.email AS user_email,
	        COUNT(m.id) AS message_count,
	        c.created_at,
	        c.updated_at
	 FROM conversations c
	 JOIN users u ON u.id = c.user_id
	 LEFT JOIN messages m ON m.conversation_id = c.id
	 WHERE c.status = 'active'
	 GROUP BY c.id, c.title, c.sector, u.email, c.created_at, c.updated_at
	 ORDER BY c.updated_at DESC`,
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal(context.Background(), "加载配置失败", err)
	}

	logger.Init(cfg.Observability.Log.Level, cfg.Observability.Log.Format)
	ctx := context.Background()

	db, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "连接数据库失败", err)
	}

	if err := migrate(db); err != nil {
		logger.Fatal(ctx, "迁移数据库结构失败", err)
	}
	logger.Info(ctx, "数据库结构迁移完成")

	for _, view := range views {
		if err := db.Exec(view).Error; err != nil {
			logger.Fatal(ctx, "创建统计视图失败", err)
		}
	}
	logger.Info(ctx, "统计视图创建完成", "count", len(views))

	if err := seedAdmin(ctx, db, &cfg.Bootstrap); err != nil {
		logger.Fatal(ctx, "初始化管理员账号失败", err)
	}

	logger.Info(ctx, "初始化完成")
}

// migrate 按外键依赖顺序迁移表结构
func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Conversation{},
		&entity.Message{},
		&entity.AgentMetric{},
		&entity.TokenUsage{},
		&entity.SystemLog{},
		&entity.RateLimitLog{},
	)
}

// seedAdmin 创建初始管理员，已存在则跳过
func seedAdmin(ctx context.Context, db *gorm.DB, cfg *config.BootstrapConfig) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logger.Info(ctx, "未配置管理员账号，跳过初始化")
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).
		Model(&entity.User{}).
		Where("email = ?", cfg.AdminEmail).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info(ctx, "管理员账号已存在", "email", cfg.AdminEmail)
		return nil
	}

	admin := entity.NewUser(cfg.AdminEmail, "Administrator")
	admin.Role = entity.UserRoleAdmin
	admin.IsVerified = true
	if err := admin.SetPassword(cfg.AdminPassword); err != nil {
		return err
	}

	if err := db.WithContext(ctx).Create(admin).Error; err != nil {
		return err
	}
	logger.Info(ctx, "管理员账号创建成功", "email", cfg.AdminEmail)
	return nil
}
