package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapAdapter(zap.New(core)), logs
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestZapWrapper_Fields(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel)

	scoped := log.WithFields(map[string]interface{}{"taskType": "evaluate-candidate"})
	scoped.Info("processing job", map[string]interface{}{"jobKey": int64(42)})
	scoped.WithError(errors.New("boom")).Error("job failed", nil)
	log.Warn("cache read failed", map[string]interface{}{"error": errors.New("refused")})

	entries := logs.All()
	require.Len(t, entries, 3)

	first := entries[0].ContextMap()
	assert.Equal(t, "processing job", entries[0].Message)
	assert.Equal(t, "evaluate-candidate", first["taskType"])
	assert.Equal(t, int64(42), first["jobKey"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])

	assert.Equal(t, "refused", entries[2].ContextMap()["error"])
	assert.NotContains(t, entries[2].ContextMap(), "taskType")
}

func TestZapWrapper_LevelFiltering(t *testing.T) {
	log, logs := newObserved(zapcore.WarnLevel)

	log.Debug("hidden", nil)
	log.Info("hidden", nil)
	log.With(map[string]interface{}{"k": "v"}).Warn("shown", nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "v", logs.All()[0].ContextMap()["k"])
}

func TestNew_FallsBackToStderr(t *testing.T) {
	l := New("info", "json", "/nonexistent-dir/app.log")
	require.NotNil(t, l)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	log.Error("ignored", map[string]interface{}{"a": 1})
	assert.NotNil(t, log.WithFields(nil))
}
