package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// envVarPattern 匹配 ${VAR} 与 ${VAR:default} 占位符
var envVarPattern = regexp.MustCompile(`\$\{(\w+)(:([^}]*))?\}`)

// Load 从指定路径加载配置文件并展开环境变量占位符
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	for _, key := range v.AllKeys() {
		if s, ok := v.Get(key).(string); ok {
			v.Set(key, expandEnv(s))
		}
	}

	cfg := defaultConfig()
	// 环境变量展开后所有标量都是字符串，弱类型解码转回数值
	weaklyTyped := func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}
	if err := v.Unmarshal(cfg, viper.DecoderConfigOption(weaklyTyped)); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// expandEnv 展开 ${VAR:default} 形式的环境变量引用
func expandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name, def := groups[1], groups[3]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return def
	})
}

// defaultConfig 返回带默认值的配置
func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "rag-agent-api"
	cfg.App.Env = "development"
	cfg.Server.HTTP.Host = "0.0.0.0"
	cfg.Server.HTTP.Port = 8080
	cfg.Database.Postgres.SSLMode = "disable"
	cfg.Database.Postgres.MaxOpenConns = 25
	cfg.Database.Postgres.MaxIdleConns = 5
	cfg.Cache.Redis.PoolSize = 10
	cfg.Observability.Log.Level = "info"
	cfg.Observability.Log.Format = "json"
	cfg.Security.RateLimit.Requests = 60
	cfg.Telemetry.RelevanceThreshold = -1
	return cfg
}

// validate 校验必填配置项
func (c *Config) validate() error {
	if strings.TrimSpace(c.Database.Postgres.Host) == "" {
		return fmt.Errorf("缺少数据库配置 database.postgres.host")
	}
	if strings.TrimSpace(c.Security.JWT.Secret) == "" {
		return fmt.Errorf("缺少 JWT 密钥配置 security.jwt.secret")
	}
	if c.Telemetry.RelevanceThreshold > 1 {
		return fmt.Errorf("telemetry.relevance_threshold 必须在 0..1 之间")
	}
	return nil
}
