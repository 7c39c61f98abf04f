package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "default config", cfg: DefaultConfig()},
		{name: "json to stderr", cfg: &Config{Level: "warn", Format: "json", Output: "stderr"}},
		{name: "unknown level", cfg: &Config{Level: "chatty", Format: "console", Output: "stdout"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinic.log")

	logger, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("stock posted")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"msg":"stock posted"`))
}

func TestNew_UnwritableOutput(t *testing.T) {
	_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"production", "development", ""} {
		logger, err := NewForEnvironment(env)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("anything"))
}
