package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
app:
  name: rag-agent-api
  env: ${APP_ENV:development}

server:
  http:
    port: ${HTTP_PORT:8080}
    read_timeout: 15s

database:
  postgres:
    host: ${POSTGRES_HOST:localhost}
    port: 5432
    user: postgres
    password: ${POSTGRES_PASSWORD:secret}
    dbname: rag_agent

security:
  jwt:
    secret: ${JWT_SECRET:test-secret}
    access_ttl: 30m

telemetry:
  relevance_threshold: ${RELEVANCE_THRESHOLD:-1}
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.HTTP.ReadTimeout)
	assert.Equal(t, "localhost", cfg.Database.Postgres.Host)
	assert.Equal(t, "secret", cfg.Database.Postgres.Password)
	assert.Equal(t, 30*time.Minute, cfg.Security.JWT.AccessTTL)
	assert.Nil(t, cfg.Telemetry.ThresholdPtr())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("RELEVANCE_THRESHOLD", "0.75")

	cfg, err := Load(writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, 9090, cfg.Server.HTTP.Port)
	require.NotNil(t, cfg.Telemetry.ThresholdPtr())
	assert.Equal(t, 0.75, *cfg.Telemetry.ThresholdPtr())
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  postgres:
    host: localhost
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_DSN(t *testing.T) {
	cfg, err := Load(writeTestConfig(t))
	require.NoError(t, err)

	dsn := cfg.Database.Postgres.DSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=rag_agent")
}
