// Package logging bridges zap to the Temporal SDK logger interface.
package logging

import (
	"fmt"

	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TemporalLogger implements log.Logger on top of a zap SugaredLogger. Keyvals may mix
// key/value pairs with zap.Field values.
type TemporalLogger struct {
	sugar *zap.SugaredLogger
}

var (
	_ log.Logger          = (*TemporalLogger)(nil)
	_ log.WithLogger      = (*TemporalLogger)(nil)
	_ log.WithSkipCallers = (*TemporalLogger)(nil)
)

// NewTemporalLogger adapts logger. The extra caller skip accounts for the adapter frame.
func NewTemporalLogger(logger *zap.Logger) *TemporalLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemporalLogger{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (l *TemporalLogger) Debug(msg string, keyvals ...interface{}) {
	l.sugar.Debugw(msg, keyvals...)
}

func (l *TemporalLogger) Info(msg string, keyvals ...interface{}) {
	l.sugar.Infow(msg, keyvals...)
}

func (l *TemporalLogger) Warn(msg string, keyvals ...interface{}) {
	l.sugar.Warnw(msg, keyvals...)
}

func (l *TemporalLogger) Error(msg string, keyvals ...interface{}) {
	l.sugar.Errorw(msg, keyvals...)
}

func (l *TemporalLogger) With(keyvals ...interface{}) log.Logger {
	return &TemporalLogger{sugar: l.sugar.With(keyvals...)}
}

func (l *TemporalLogger) WithCallerSkip(depth int) log.Logger {
	return &TemporalLogger{sugar: l.sugar.WithOptions(zap.AddCallerSkip(depth))}
}

// ParseLevel maps a config level name to a zap level
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q: %w", level, err)
	}
	return l, nil
}

// NewDevelopmentLogger builds the colored console logger used by the worker and starter
func NewDevelopmentLogger(level string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
