package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, c.Server.CORSOrigins)
	assert.Equal(t, "models", c.Model.Dir)
	assert.Equal(t, "price_model.json", c.Model.ModelFile)
	assert.Equal(t, 2, c.Model.RemoteAttempts)
	assert.Equal(t, "memory", c.Cache.Backend)
	assert.Equal(t, 10*time.Minute, c.Cache.TTL)
	assert.Equal(t, -1, c.Kafka.RequiredAcks)
	assert.True(t, c.Kafka.Consumer.Enabled)
	assert.Equal(t, "valuations", c.ClickHouse.Table)
	assert.True(t, c.Metrics.Enabled)
	assert.False(t, c.Kafka.Enabled)
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
server:
  port: 9090
  read_timeout: 2s
metrics:
  enabled: false
model:
  dir: /srv/models
  fallback: true
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
  consumer:
    workers: 8
`))
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 2*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, c.Server.WriteTimeout)
	assert.False(t, c.Metrics.Enabled)
	assert.True(t, c.Model.Fallback)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 8, c.Kafka.Consumer.Workers)
	assert.Equal(t, 3, c.Kafka.Consumer.RetryMax)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad env":            "environment: moon",
		"bad level":          "log:\n  level: loud",
		"kafka no brokers":   "kafka:\n  enabled: true",
		"clickhouse nohost":  "clickhouse:\n  enabled: true\n  host: ''",
		"bad backend":        "cache:\n  backend: disk",
		"bad remote url":     "model:\n  remote_url: not a url",
		"backoff order":      "kafka:\n  consumer:\n    backoff_min: 5s\n    backoff_max: 1s",
		"collector no kafka": "log:\n  collect_topic: logs",
		"malformed":          "server: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)

	env := map[string]string{
		"MODEL_DIR":        "/opt/models",
		"MODEL_REMOTE_URL": "http://model:8000",
		"SERVER_PORT":      "9999",
		"LOG_LEVEL":        "DEBUG",
		"KAFKA_BROKERS":    "a:9092, b:9092",
		"REDIS_HOST":       "redis",
		"CLICKHOUSE_HOST":  "ch",
		"APP_ENV":          "  ",
	}
	require.NoError(t, c.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))

	assert.Equal(t, "/opt/models", c.Model.Dir)
	assert.Equal(t, "http://model:8000", c.Model.RemoteURL)
	assert.Equal(t, 9999, c.Server.Port)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, "redis", c.Cache.Redis.Host)
	assert.Equal(t, "layered", c.Cache.Backend)
	assert.True(t, c.ClickHouse.Enabled)
	assert.Equal(t, "development", c.Environment, "blank values are ignored")
	assert.NoError(t, c.Validate())

	err = c.applyEnv(func(k string) (string, bool) {
		if k == "SERVER_PORT" {
			return "eighty", true
		}
		return "", false
	})
	assert.Error(t, err)
}

func TestLoadWithEnvFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7000\n"), 0o600))

	t.Setenv("SERVER_PORT", "7100")
	t.Setenv("MODEL_DIR", "")
	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, 7100, c.Server.Port)
	assert.Equal(t, "models", c.Model.Dir)

	_, err = LoadWithEnv(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRepositoryConfigFileIsValid(t *testing.T) {
	_, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
}
