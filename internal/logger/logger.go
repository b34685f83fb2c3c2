package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process logger, set by Init.
var Log = zap.NewNop()

// New builds a logger with the given level and encoding (json | console).
func New(level, encoding string) (*zap.Logger, error) {
	var lvl zapcore.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = zap.DebugLevel
	case "info":
		lvl = zap.InfoLevel
	case "warn":
		lvl = zap.WarnLevel
	case "error":
		lvl = zap.ErrorLevel
	default:
		lvl = zap.InfoLevel
	}

	enc := "json"
	encCfg := zap.NewProductionEncoderConfig()
	if strings.EqualFold(encoding, "console") {
		enc = "console"
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Encoding:         enc,
		Level:            zap.NewAtomicLevelAt(lvl),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encCfg,
	}

	return cfg.Build()
}

// Init initializes the global logger; a bad config falls back to a no-op logger.
func Init(level, encoding string) *zap.Logger {
	l, err := New(level, encoding)
	if err != nil {
		l = zap.NewNop()
	}
	Log = l
	return l
}
