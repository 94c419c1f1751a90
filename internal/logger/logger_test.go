package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_IsUsableBeforeInit(t *testing.T) {
	l := New()
	require.NotNil(t, l.Log)
	l.Log.Info("ignored")
}

func TestInit_SetsLevel(t *testing.T) {
	l := New()
	require.NoError(t, l.Init("Warn"))

	assert.False(t, l.Log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Log.Core().Enabled(zapcore.WarnLevel))
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	l := New()
	assert.Error(t, l.Init("loud"))
}
