package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithOutputFileWritesPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	logger, err := NewLogger(NewLoggerConfig(false, WithOutputFile(path), WithServiceName("unit")))
	require.NoError(t, err)

	logger.Info("epoch finished", Int("epoch", 3))
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "epoch finished")
	assert.Contains(t, content, "INFO")
	assert.NotContains(t, content, "\x1b[")
}

func TestWithChildFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core)).With(Int("worker", 2))

	logger.Warn("Worker got exception", String("call", "abc"))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 2, fields["worker"])
	assert.Equal(t, "abc", fields["call"])
}

func TestWithLevelFiltersDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiet.log")
	logger, err := NewLogger(NewLoggerConfig(false, WithOutputFile(path), WithLevel(WarnLevel)))
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hidden")
	assert.Contains(t, string(raw), "shown")
}

func TestTypedFieldsAndLevelNames(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core))

	logger.Info("optimizer", Float("lr", 0.5), Strings("keys", []string{"a", "b"}), Ints("devices", []int{0, 1}))

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, 0.5, fields["lr"])
	assert.Equal(t, []any{"a", "b"}, fields["keys"])
	assert.Equal(t, []any{0, 1}, fields["devices"])

	assert.Equal(t, zapcore.WarnLevel, WarnLevel.zapLevel())
	assert.Equal(t, zapcore.InfoLevel, LogLevel("loud").zapLevel())
}
