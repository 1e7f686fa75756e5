package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/contracts-service/internal/config"
)

// New builds the service logger: human-readable console output in development,
// JSON lines in production.
func New(environment string) zerolog.Logger {
	return NewWithWriter(environment, os.Stdout)
}

func NewWithWriter(environment string, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if config.IsProductionEnv(environment) {
		return zerolog.New(out).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Str("service", "contracts").
			Logger()
	}

	console := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	return zerolog.New(console).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Logger()
}
