package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"critical", zapcore.ErrorLevel},
		{"CRITICAL", zapcore.ErrorLevel},
		{"  Info  ", zapcore.InfoLevel},
	}

	for _, tc := range tests {
		lvl, err := ParseLevel(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, lvl, tc.in)
	}

	_, err := ParseLevel("verbose")
	assert.EqualError(t, err, `unknown log level "verbose"`)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("test", "debug")
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger("test", "bogus")
	assert.Error(t, err)
}
