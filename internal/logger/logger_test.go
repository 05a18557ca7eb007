package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		mode string
		min  zapcore.Level
	}{
		{"dev", zap.DebugLevel},
		{"", zap.DebugLevel},
		{"prod", zap.InfoLevel},
		{" Production ", zap.InfoLevel},
		{"quiet", zap.WarnLevel},
	}
	for _, tc := range cases {
		l, err := New(tc.mode)
		require.NoError(t, err, tc.mode)
		core := l.SugaredLogger.Desugar().Core()
		assert.True(t, core.Enabled(tc.min), tc.mode)
		if tc.min > zap.DebugLevel {
			assert.False(t, core.Enabled(tc.min-1), tc.mode)
		}
	}
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	require.NotNil(t, l)
	assert.NotPanics(t, func() {
		l.With("k", "v").Info("hello", "n", 1)
		l.Sync()
	})

	own := Nop()
	assert.Same(t, own, OrNop(own))
}
