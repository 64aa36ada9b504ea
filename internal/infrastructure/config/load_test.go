package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9090
  read_timeout: 3s
postgresql:
  host: db
  port: 5432
  user: u
  password: p
  database: d
redis:
  host: cache
  port: 6379
exchanges:
  - name: first
    host: 127.0.0.1
    port: 40101
    enabled: true
  - name: second
    type: rest
    url: http://localhost/eapi/v1/ticker
    poll_interval: 250ms
    enabled: true
data_retention:
  redis_ttl: 2m
`

func TestParse(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 2*time.Minute, cfg.DataRetention.RedisTTL)
	assert.Equal(t, time.Minute, cfg.DataRetention.AggregationInterval)
	assert.Equal(t, "tcp", cfg.Exchanges[0].Type)
	assert.Equal(t, time.Second, cfg.Exchanges[0].PollInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.Exchanges[1].PollInterval)
	assert.Equal(t, 1, cfg.Parser.Workers)
	assert.Equal(t, "disable", cfg.PostgreSQL.SSLMode)
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", cfg.PostgresDSN())
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("EXCHANGE2_URL", "http://mirror/eapi/v1/ticker")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "redis.internal", cfg.Redis.Host)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "http://mirror/eapi/v1/ticker", cfg.Exchanges[1].URL)
}

func TestParse_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("POSTGRES_DB=fromdotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("POSTGRES_DB") })

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "fromdotenv", cfg.PostgreSQL.Database)
}

func TestParse_InvalidDuration(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Parse([]byte("server:\n  read_timeout: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.read_timeout")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
