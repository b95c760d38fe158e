package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.hubapi.com", cfg.HubSpot.BaseURL)
	assert.Equal(t, 5*time.Minute, cfg.HubSpot.RefreshBuffer())
	assert.Equal(t, 45, cfg.Orchestrator.SoftDeadlineSecs)
	assert.Equal(t, 30, cfg.Orchestrator.TimelineMaxItems)
	assert.Equal(t, 24, cfg.Orchestrator.ThreadTTLHours)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DEALBOT_SERVER_PORT", "9090")
	t.Setenv("DEALBOT_HUBSPOT_CLIENT_ID", "abc123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "abc123", cfg.HubSpot.ClientID)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	require.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
