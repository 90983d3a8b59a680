package log

import (
	"os"
	"path/filepath"
	"testing"

	"CarValuator/internal/conf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewZapLogger_NilConfig(t *testing.T) {
	_, err := NewZapLogger(nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "log config is nil")
}

func TestNewZapLogger_InvalidLevel(t *testing.T) {
	_, err := NewZapLogger(&conf.Log{Level: "loud", Format: "json"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewZapLogger_Levels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		t.Run("level_"+level, func(t *testing.T) {
			logger, err := NewZapLogger(&conf.Log{Level: level, Format: "json", Env: "production"})
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestNewZapLogger_ConsoleFromEnvironment(t *testing.T) {
	t.Setenv("CARVALUATOR_ENV", "development")

	logger, err := NewZapLogger(&conf.Log{Level: "debug", Format: "json"})
	require.NoError(t, err)
	logger.Debug("console output")
}

func TestNewZapLogger_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "carvaluator.log")

	logger, err := NewZapLogger(&conf.Log{
		Level:      "info",
		Format:     "console",
		Env:        "staging",
		OutputFile: logFile,
	})
	require.NoError(t, err)

	logger.Info("valuation created", zap.String("vrm", "AB12CDE"))
	logger.Debug("not written")
	_ = logger.Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"valuation created"`)
	assert.Contains(t, string(content), `"service":"CarValuator"`)
	assert.Contains(t, string(content), `"env":"staging"`)
	assert.NotContains(t, string(content), "not written")
}
