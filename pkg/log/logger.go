package log

import (
	"io"
	"log/slog"
	"strings"

	lerrors "github.com/YuminosukeSato/lidmlp/pkg/errors"
)

// SetupLogger configures both logging backends for a CLI run: the slog
// default (JSON, with stack traces from cockroachdb/errors) and the zerolog
// provider behind GetLogger. Library warnings are routed to zerolog.
func SetupLogger(loglevel string, w io.Writer) error {
	level, err := ToLogLevel(loglevel)
	if err != nil {
		return err
	}

	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     slog.Level(level),
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr.Key = "severity"
			case slog.MessageKey:
				attr.Key = "message"
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(w, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))

	provider := NewZerologProvider(w, level)
	SetProvider(provider)

	warnLogger := provider.GetLoggerWithName("warnings").(*ZerologLogger)
	lerrors.SetZerologWarnFunc(warnLogger.WarnError)
	return nil
}

// ToLogLevel parses a level name.
func ToLogLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "info", "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, lerrors.NewValidationError("logging.level", "must be one of debug, info, warn, error", level)
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
