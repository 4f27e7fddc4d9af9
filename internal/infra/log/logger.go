package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger создаёт настроенный zerolog для сервиса.
func NewLogger(appEnv string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if appEnv == "dev" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
}
