package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Agent.HistoryLimit)
	assert.Equal(t, "start a new conversation", cfg.Agent.ResetKeyword)
	assert.Equal(t, 5, cfg.Search.RetryCount)
	assert.Equal(t, 4, cfg.Search.ResultCount)
	assert.Equal(t, 1, cfg.Search.MinimumResults)
	assert.Equal(t, 72*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("AGENT_HISTORY_LIMIT", "20")
	t.Setenv("SEARCH_RETRY_COUNT", "2")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Agent.HistoryLimit)
	assert.Equal(t, 2, cfg.Search.RetryCount)
	assert.Equal(t, "debug", cfg.Log.Level)
}
