package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// ParseLogLevel converts a level name to a zapcore.Level. The bool result is
// false for an empty or unknown name.
func ParseLogLevel(levelStr string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}
