package tabula

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/tabula/buffer"
	"github.com/hupe1980/tabula/table"
)

// Logger wraps slog.Logger with tabula-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithTable adds a table name field to the logger.
func (l *Logger) WithTable(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", name),
	}
}

// LogFlush logs a spill of a buffer's resident tier.
func (l *Logger) LogFlush(ctx context.Context, fi buffer.FlushInfo) {
	l.DebugContext(ctx, "buffer flushed",
		"index", fi.Index,
		"items", fi.Items,
		"bytes", fi.Bytes,
	)
}

// LogBuild logs a finished table build.
func (l *Logger) LogBuild(ctx context.Context, bi table.BuildInfo) {
	l.InfoContext(ctx, "table built",
		"orientation", bi.Orientation.String(),
		"rows", bi.Rows,
		"columns", bi.Columns,
		"bytes", bi.Bytes,
		"duration", bi.Duration,
	)
}

// LogConversion logs a conversion between orientations.
func (l *Logger) LogConversion(ctx context.Context, from, to table.Orientation, rows uint32, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "table conversion failed",
			"from", from.String(),
			"to", to.String(),
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "table converted",
			"from", from.String(),
			"to", to.String(),
			"rows", rows,
			"duration", duration,
		)
	}
}

// LogEviction logs a tensor block dropped from the pool cache.
func (l *Logger) LogEviction(ctx context.Context, bytes int64) {
	l.DebugContext(ctx, "tensor block evicted",
		"bytes", bytes,
	)
}
