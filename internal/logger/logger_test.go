package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(" WARN "))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestBuildConfig(t *testing.T) {
	jsonConfig := buildConfig("warn", "json")
	assert.Equal(t, "json", jsonConfig.Encoding)
	assert.Equal(t, "timestamp", jsonConfig.EncoderConfig.TimeKey)
	assert.Equal(t, zapcore.WarnLevel, jsonConfig.Level.Level())

	consoleConfig := buildConfig("debug", "console")
	assert.Equal(t, "console", consoleConfig.Encoding)
	assert.Equal(t, zapcore.DebugLevel, consoleConfig.Level.Level())
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger("info", "json", "spacetrack-api")
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
