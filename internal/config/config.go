package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"partyfinder/internal/constants"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

type Config struct {
	BotToken    string
	DBPath      string
	HTTPPort    string
	LogLevel    string
	PollTimeout time.Duration
}

// Load reads the environment (optionally seeded from a .env file). It takes
// no logger: the logger's level comes from the loaded config, so config must
// construct first.
func Load() (*Config, error) {
	// A missing .env file is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:    getEnv("BOT_TOKEN", ""),
		DBPath:      getEnv("DB_PATH", "partyfinder.db"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		PollTimeout: getEnvDuration("POLL_TIMEOUT", constants.DefaultPollTimeout),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

var Module = fx.Provide(Load)
