package internal

import (
	"io"
	"log/slog"
)

// NewLogger builds the process logger shared by the API server, the
// background sweeper and the promote command. Every record carries
// service=kaia; request logs add method, path, status and account_id,
// and the analysis gate adds variant, remaining_credits and model.
//
// Output is text in development and JSON elsewhere. Unknown levels fall
// back to info, and debug also records the source location.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel == slog.LevelDebug,
	}

	var handler slog.Handler
	if env == "development" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With("service", "kaia")
}
