package telemetry

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// InitSlog installs a tint handler as the default logger.
// Accepted levels: DEBUG, INFO, WARNING, ERROR; anything else maps to INFO.
func InitSlog(level string) {
	slogLevel := slog.LevelInfo
	switch level {
	case "DEBUG":
		slogLevel = slog.LevelDebug
	case "WARNING":
		slogLevel = slog.LevelWarn
	case "ERROR":
		slogLevel = slog.LevelError
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slogLevel,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}
