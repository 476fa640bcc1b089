// Package log provides structured logging for the harness commands.
// It wraps slog and keeps log lines on stderr so conversation output and
// reports on stdout stay machine-readable.
package log

import (
	"log/slog"
	"os"
	"sync"
)

var (
	logger *slog.Logger
	once   sync.Once
)

// Setup initializes the global logger. Debug enables verbose output; the
// LOG_LEVEL env var ("debug", "info", "warn", "error") is honored when debug
// is false. JSON output is used when GO_ENV=production.
func Setup(debug bool) {
	once.Do(func() {
		lvl := levelFromEnv()
		if debug {
			lvl = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{Level: lvl}
		if os.Getenv("GO_ENV") == "production" {
			logger = slog.New(slog.NewJSONHandler(os.Stderr, opts))
		} else {
			logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
		}
		slog.SetDefault(logger)
	})
}

func levelFromEnv() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L returns the global logger instance.
func L() *slog.Logger {
	if logger == nil {
		Setup(false)
	}
	return logger
}
