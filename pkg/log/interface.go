// Package log provides structured logging for lidmlp.
//
// The Logger interface is slog-shaped (message plus key/value pairs) so the
// backend can change without touching call sites. The default backend is
// zerolog (see zerolog.go); tests use TestLogger, which captures JSON lines
// in memory.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("trainer").With(
//	    log.ModelNameKey, "mlp-3layer-tfidf-50",
//	)
//	logger.Info("Epoch finished",
//	    log.EpochKey, 3,
//	    log.LossKey, 0.41,
//	)
package log

import (
	"context"
)

// Logger is a structured logger with slog-style key/value fields.
type Logger interface {
	// Debug logs detailed diagnostic information, such as per-batch progress.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	//
	//   logger.Info("Model saved", "path", path)
	Info(msg string, fields ...any)

	// Warn logs a recoverable problem.
	Warn(msg string, fields ...any)

	// Error logs an error condition. When the first field is an error it is
	// attached as the "error" field.
	//
	//   logger.Error("Training failed", err, log.EpochKey, 4)
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level with slog-compatible values.
type Level int

// Standard logging levels.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates loggers and controls their level.
type LoggerProvider interface {
	// GetLogger returns the default logger.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum level for loggers created by the provider.
	SetLevel(level Level)
}
