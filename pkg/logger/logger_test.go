package logger

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

// TestNew_FileOutput tests that JSON lines land in a file output
func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	l, err := New(Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	l.Info("trip persisted", String("trip_id", "abc"))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"trip persisted"`)
	assert.Contains(t, string(data), `"trip_id":"abc"`)
}

// TestNew_UnknownLevelFallsBackToInfo tests level parsing
func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "chatty", Format: "console", Output: "stderr"})
	require.NoError(t, err)

	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

// TestNew_BadOutputPath tests that an unopenable output is reported
func TestNew_BadOutputPath(t *testing.T) {
	_, err := New(Config{Level: "info", Output: filepath.Join(t.TempDir(), "missing", "app.log")})
	assert.Error(t, err)
}

// TestWrap_ForwardsToCore tests the Sink methods and field helpers
func TestWrap_ForwardsToCore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var sink Sink = Wrap(zap.New(core))

	sink.Debug("d")
	sink.Info("i", Int("n", 1))
	sink.Warn("w", Float64("speed_kmh", 400))
	sink.Error("e", Bool("ok", false))

	require.Equal(t, 4, logs.Len())
	warn := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warn, 1)
	assert.Equal(t, 400.0, warn[0].ContextMap()["speed_kmh"])
}

// TestNop tests that the no-op logger is safe to use
func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().With(String("k", "v")).Warn("ignored")
	})
}
