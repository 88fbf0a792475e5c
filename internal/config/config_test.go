package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todoflow-labs/todo-service/internal/config"
)

func setEnv(t *testing.T, env map[string]string) {
	for _, k := range []string{"HTTP_ADDR", "LOG_LEVEL", "METRICS_ADDR", "DATABASE_DRIVER", "DATABASE_URL", "NATS_URL"} {
		t.Setenv(k, env[k])
	}
}

func TestLoad(t *testing.T) {
	setEnv(t, map[string]string{
		"HTTP_ADDR":    ":8080",
		"LOG_LEVEL":    "debug",
		"DATABASE_URL": "todos.db",
		"NATS_URL":     "nats://localhost:4222",
	})

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "todos.db", cfg.DatabaseURL)
	assert.Equal(t, config.DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoadMissing(t *testing.T) {
	setEnv(t, map[string]string{"LOG_LEVEL": "info"})

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_ADDR")
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.NotContains(t, err.Error(), "LOG_LEVEL")
}

func TestLoadUnknownDriver(t *testing.T) {
	setEnv(t, map[string]string{
		"HTTP_ADDR":       ":8080",
		"LOG_LEVEL":       "info",
		"DATABASE_URL":    "x",
		"DATABASE_DRIVER": "mysql",
	})

	_, err := config.Load()
	assert.ErrorContains(t, err, "mysql")
}
