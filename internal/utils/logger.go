package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogLevel is used when no level is requested on the command line.
const DefaultLogLevel = "info"

// NewApplicationLogger constructs a zap logger configured for human-readable console output.
// Diagnostics are written to standard error so that sub-process output on standard output stays clean.
func NewApplicationLogger(levelName string) (*zap.Logger, error) {
	level, levelError := ParseLogLevel(levelName)
	if levelError != nil {
		return nil, levelError
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.Encoding = "console"
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.Sampling = nil
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.TimeKey = ""
	config.EncoderConfig.NameKey = ""
	config.EncoderConfig.CallerKey = ""
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""
	return config.Build()
}

// ParseLogLevel maps a textual level onto a zap level. An empty name selects DefaultLogLevel.
func ParseLogLevel(levelName string) (zapcore.Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(levelName))
	if normalized == "" {
		normalized = DefaultLogLevel
	}
	var level zapcore.Level
	if unmarshalError := level.UnmarshalText([]byte(normalized)); unmarshalError != nil {
		return zapcore.InfoLevel, fmt.Errorf(UnsupportedLogLevelMessageFormat, levelName)
	}
	return level, nil
}
