package config

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "*", cfg.AllowedOrigin)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "bakery.yaml", cfg.CatalogPath)
	assert.Equal(t, 256, cfg.WSSendBuffer)
	assert.Equal(t, "@every 30s", cfg.HeartbeatSpec)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("CATALOG_PATH", "")
	t.Setenv("HEARTBEAT_SPEC", "")
	t.Setenv("WS_SEND_BUFFER", "8")
	t.Setenv("SHUTDOWN_TIMEOUT", "2s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Empty(t, cfg.CatalogPath)
	assert.Empty(t, cfg.HeartbeatSpec)
	assert.Equal(t, 8, cfg.WSSendBuffer)
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad buffer type", "WS_SEND_BUFFER", "lots"},
		{"zero buffer", "WS_SEND_BUFFER", "0"},
		{"bad duration", "SHUTDOWN_TIMEOUT", "soon"},
		{"negative duration", "SHUTDOWN_TIMEOUT", "-1s"},
		{"bad level", "LOG_LEVEL", "chatty"},
		{"bad format", "LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestApplyLogging(t *testing.T) {
	prevLevel := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(prevLevel) })

	cfg := &Config{LogLevel: "warn", LogFormat: "json"}
	cfg.ApplyLogging()
	assert.Equal(t, log.WarnLevel, log.GetLevel())
	_, isJSON := log.StandardLogger().Formatter.(*log.JSONFormatter)
	assert.True(t, isJSON)

	cfg = &Config{LogLevel: "info", LogFormat: "text"}
	cfg.ApplyLogging()
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}
