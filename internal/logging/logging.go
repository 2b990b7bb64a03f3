// Package logging builds the structured JSON logger shared by the server,
// the workers and the CLI.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a JSON logger writing to stderr at the given level.
// Supported levels: debug, info, warn, error. Unknown values mean info.
func NewLogger(level string) *zap.Logger {
	lvl := ParseLevel(level)

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = lvl != zapcore.DebugLevel
	cfg.DisableStacktrace = lvl != zapcore.DebugLevel

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// ParseLevel maps a config string onto a zap level.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// WithComponent returns a logger with component attribute
func WithComponent(logger *zap.Logger, component string) *zap.Logger {
	return OrNop(logger).With(zap.String("component", component))
}

// WithJobID returns a logger with job_id attribute
func WithJobID(logger *zap.Logger, jobID string) *zap.Logger {
	return OrNop(logger).With(zap.String("job_id", jobID))
}

// WithVideoID returns a logger with video_id attribute
func WithVideoID(logger *zap.Logger, videoID string) *zap.Logger {
	return OrNop(logger).With(zap.String("video_id", videoID))
}

// SanitizeToken masks a token for safe logging.
// Returns "****" for tokens of 8 characters or fewer.
func SanitizeToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
