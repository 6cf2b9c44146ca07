package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "POSTGRES_DSN", "CORS_ORIGINS", "LOG_LEVEL",
		"STORY_PURGE_INTERVAL", "AUTH_RATE_LIMIT", "AUTH_RATE_WINDOW", "COOKIE_SECURE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.StoryPurgeInterval)
	assert.Equal(t, 10, cfg.AuthRateLimit)
	assert.Equal(t, time.Minute, cfg.AuthRateWindow)
	assert.False(t, cfg.CookieSecure)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ORIGINS", " https://whisperly.app , ")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORY_PURGE_INTERVAL", "0s")
	t.Setenv("AUTH_RATE_LIMIT", "not-a-number")
	t.Setenv("AUTH_RATE_WINDOW", "forever")
	t.Setenv("COOKIE_SECURE", "true")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"https://whisperly.app"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, time.Duration(0), cfg.StoryPurgeInterval)
	assert.Equal(t, 10, cfg.AuthRateLimit)
	assert.Equal(t, time.Minute, cfg.AuthRateWindow)
	assert.True(t, cfg.CookieSecure)
}
