package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestMustLoad(t *testing.T) {
	path := writeConfig(t, `
env: dev
http_server:
  address: "0.0.0.0:9090"
  base_url: "https://api.example.com"
tokens:
  reset_token_ttl: 30m
postgres:
  host: "db"
  user: "svc"
  password: "secret"
  dbname: "accounts"
redis:
  address: "cache:6379"
rabbitmq:
  url: "amqp://guest:guest@mq:5672/"
  queue_name: "reset_emails"
`)

	cfg := MustLoad(path)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTPServer.Address)
	assert.Equal(t, "https://api.example.com", cfg.HTTPServer.BaseURL)
	assert.Equal(t, 30*time.Minute, cfg.Tokens.ResetTokenTTL)
	assert.Equal(t, "db", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "cache:6379", cfg.Redis.Address)
	assert.Equal(t, "reset_emails", cfg.RabbitMQ.QueueName)

	// Defaults kick in for omitted fields.
	assert.Equal(t, 4*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
}

func TestMustLoadMissingFile(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}

func TestMustLoadMissingRequiredField(t *testing.T) {
	path := writeConfig(t, `
env: prod
postgres:
  host: "db"
`)

	assert.Panics(t, func() {
		MustLoad(path)
	})
}
