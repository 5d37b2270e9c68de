package logx

import (
	"log/slog"
	"os"
	"strings"
)

// New builds the process logger. LOG_LEVEL picks the threshold
// (debug|info|warn|error, default info) and LOG_FORMAT=json switches to
// JSON lines for log shippers; the default text handler is for running
// the worker by hand. The returned logger carries the service name and
// is installed as slog's default so library code logs consistently.
func New(service string) *slog.Logger {
	level := new(slog.LevelVar)
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", service)
	slog.SetDefault(logger)
	return logger
}
