package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTemporalLoggerWritesKeyvals(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewTemporalLogger(zap.New(core))

	logger.Info("Activity completed", "activity", "SaveGraph", zap.Int("attempt", 2))
	logger.With("workflowID", "publish_loan").Warn("Slow activity")
	logger.Debug("debug line")
	logger.Error("failed", "error", "boom")

	entries := logs.All()
	require.Len(t, entries, 4)

	fields := entries[0].ContextMap()
	assert.Equal(t, "SaveGraph", fields["activity"])
	assert.Equal(t, int64(2), fields["attempt"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "publish_loan", entries[1].ContextMap()["workflowID"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestTemporalLoggerNilLogger(t *testing.T) {
	logger := NewTemporalLogger(nil)
	assert.NotPanics(t, func() {
		logger.Info("ignored", "k", "v")
		logger.WithCallerSkip(1).Warn("ignored")
	})
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewDevelopmentLogger(t *testing.T) {
	logger, err := NewDevelopmentLogger("warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
