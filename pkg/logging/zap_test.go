package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

func TestZapLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core)).Named("ledger")

	at := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	logger.Warn("refund rejected",
		ports.String("payment_id", "pay-1"),
		ports.Int64("version", 3),
		ports.Time("at", at),
		ports.Err(errors.New("exceeds balance")),
		ports.Any("statuses", []string{"completed"}),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "refund rejected", entry.Message)
	assert.Equal(t, "ledger", entry.LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	ctx := entry.ContextMap()
	assert.Equal(t, "pay-1", ctx["payment_id"])
	assert.Equal(t, int64(3), ctx["version"])
	assert.Equal(t, at, ctx["at"])
	assert.Equal(t, "exceeds balance", ctx["error"])
}

func TestZapLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Debug("dropped")
	logger.Info("kept")
	logger.Error("kept too")

	assert.Equal(t, 2, logs.Len())
}

func TestNew(t *testing.T) {
	logger, err := New("warn", false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = New("debug", true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = New("loud", false)
	assert.Error(t, err)
}
