package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port          string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	CORSOrigins   []string
	CookieSecure  bool
	LogLevel      slog.Level

	// StoryPurgeInterval is how often expired stories are deleted. Zero
	// disables the purge; expired stories stay hidden either way.
	StoryPurgeInterval time.Duration

	AuthRateLimit  int
	AuthRateWindow time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", slog.Any("error", err))
	}

	return &Config{
		Port:               getenv("PORT", "8080"),
		PostgresDSN:        getenv("POSTGRES_DSN", ""),
		RedisAddr:          getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword:      getenv("REDIS_PASSWORD", ""),
		CORSOrigins:        splitList(getenv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		CookieSecure:       getenv("COOKIE_SECURE", "false") == "true",
		LogLevel:           parseLevel(getenv("LOG_LEVEL", "info")),
		StoryPurgeInterval: getDuration("STORY_PURGE_INTERVAL", time.Hour),
		AuthRateLimit:      getInt("AUTH_RATE_LIMIT", 10),
		AuthRateWindow:     getDuration("AUTH_RATE_WINDOW", time.Minute),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getenv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := getenv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration, using default",
			slog.String("key", key),
			slog.String("value", raw))
		return fallback
	}
	return d
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
