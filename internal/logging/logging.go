// Package logging provides slog helpers shared by the board binaries:
// level parsing, context propagation and uniform error reporting.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey struct{}

// New builds the application logger writing text records to stdout.
func New(level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// ParseLevel converts a configuration string such as "DEBUG" or "warn"
// into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "INFO":
		return slog.LevelInfo, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown logging level %q", s)
}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the context's logger, or slog.Default when none is set.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// LogError logs an error with a consistent "error" attribute.
func LogError(logger *slog.Logger, msg string, err error, attrs ...any) {
	args := append([]any{slog.Any("error", err)}, attrs...)
	logger.Error(msg, args...)
}

// SafeClose closes c and logs a warning instead of discarding the error.
func SafeClose(c io.Closer, logger *slog.Logger, name string) {
	if err := c.Close(); err != nil {
		logger.Warn("failed to close resource", slog.String("resource", name), slog.Any("error", err))
	}
}
