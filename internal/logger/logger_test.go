// SPDX-License-Identifier: AGPL-3.0-only
package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLogLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLogLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("verbose"))
}

func TestInitializeWithFile(t *testing.T) {
	prev := Log
	t.Cleanup(func() {
		Log = prev
		Sugar = prev.Sugar()
	})

	require.NoError(t, Initialize("debug", filepath.Join(t.TempDir(), "socialpulse.log")))
	assert.True(t, Log.Core().Enabled(zapcore.DebugLevel))
	WithRequestID("req-1").Debug("tagged")
}
