// Package logging builds the slog logger shared by the server and the sync client.
package logging

import (
	"io"
	"log/slog"

	"github.com/foxzi/fittrack/internal/config"
)

// New creates a logger based on configuration
func New(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
