package logger

import (
	"os"

	"partyfinder/internal/config"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// New builds the application logger at the level named by the config,
// falling back to info when the value does not parse.
func New(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && parsed != zerolog.NoLevel {
		level = parsed
	}

	return logger.Level(level)
}

var Module = fx.Provide(New)
